package analysis

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

var defaultPositive = []string{
	"shiny", "elegant", "premium", "beautiful", "comfortable",
	"light", "smooth", "stylish", "luxurious", "perfect",
	"amazing", "great", "excellent", "well-made", "attractive",
	"classy", "love", "loved", "nice", "pleasant",
}

var defaultNegative = []string{
	"tarnish", "dull", "broke", "heavy", "uncomfortable",
	"fragile", "cheap", "poor", "rough", "bad",
	"disappointing", "loose", "tight", "scratched",
	"unpleasant", "hate", "hated",
}

var defaultThemeKeywords = map[Theme][]string{
	Appearance: {
		"shiny", "dull", "beautiful", "stylish", "elegant",
		"classy", "attractive", "luxurious", "design",
		"polish", "scratched", "smooth", "rough",
	},
	Comfort: {
		"comfortable", "uncomfortable", "light",
		"heavy", "pleasant", "unpleasant", "wearable",
	},
	Durability: {
		"broke", "fragile", "tarnish",
		"well-made", "poor", "excellent", "strong",
	},
	Fit: {
		"fit", "perfect", "loose", "tight", "size",
	},
	Value: {
		"price", "value", "cheap", "premium",
		"worth", "luxurious", "expensive",
	},
}

var defaultLexicon = mustLexicon(defaultPositive, defaultNegative, defaultThemeKeywords)

// Lexicon holds the sentiment word lists and the theme keyword mapping.
// It has no mutators and is safe to share between goroutines.
type Lexicon struct {
	positive map[string]struct{}
	negative map[string]struct{}
	keywords [ThemeCount][]string
}

// DefaultLexicon returns the built-in lexicon.
func DefaultLexicon() *Lexicon {
	return defaultLexicon
}

// NewLexicon validates and copies the given word lists. Words are trimmed
// and lowercased; a word may not be both positive and negative.
func NewLexicon(positive, negative []string, keywords map[Theme][]string) (*Lexicon, error) {
	lex := &Lexicon{
		positive: make(map[string]struct{}, len(positive)),
		negative: make(map[string]struct{}, len(negative)),
	}

	for _, w := range positive {
		w, err := cleanWord(w)
		if err != nil {
			return nil, fmt.Errorf("positive words: %w", err)
		}
		lex.positive[w] = struct{}{}
	}
	for _, w := range negative {
		w, err := cleanWord(w)
		if err != nil {
			return nil, fmt.Errorf("negative words: %w", err)
		}
		if _, ok := lex.positive[w]; ok {
			return nil, fmt.Errorf("analysis: %q is listed as both positive and negative", w)
		}
		lex.negative[w] = struct{}{}
	}

	for theme, kws := range keywords {
		if !theme.valid() {
			return nil, fmt.Errorf("analysis: unknown theme %s", theme)
		}
		cleaned := make([]string, 0, len(kws))
		for _, kw := range kws {
			kw, err := cleanEntry(kw)
			if err != nil {
				return nil, fmt.Errorf("%s keywords: %w", theme, err)
			}
			cleaned = append(cleaned, kw)
		}
		lex.keywords[theme] = cleaned
	}

	return lex, nil
}

func mustLexicon(positive, negative []string, keywords map[Theme][]string) *Lexicon {
	lex, err := NewLexicon(positive, negative, keywords)
	if err != nil {
		panic(err)
	}
	return lex
}

// cleanEntry normalizes a theme keyword. Keywords are matched as substrings
// of the review, so "well made" is allowed.
func cleanEntry(w string) (string, error) {
	w = strings.ToLower(strings.TrimSpace(w))
	if w == "" {
		return "", fmt.Errorf("analysis: empty entry")
	}
	return w, nil
}

// cleanWord normalizes a sentiment word. Sentiment words are compared with
// whole tokens, so one containing whitespace could never match.
func cleanWord(w string) (string, error) {
	w, err := cleanEntry(w)
	if err != nil {
		return "", err
	}
	if strings.ContainsFunc(w, unicode.IsSpace) {
		return "", fmt.Errorf("analysis: word %q contains whitespace", w)
	}
	return w, nil
}

// IsPositive reports whether word is an exact positive entry.
func (l *Lexicon) IsPositive(word string) bool {
	_, ok := l.positive[word]
	return ok
}

// IsNegative reports whether word is an exact negative entry.
func (l *Lexicon) IsNegative(word string) bool {
	_, ok := l.negative[word]
	return ok
}

// Keywords returns a copy of the keywords for t, in match order.
func (l *Lexicon) Keywords(t Theme) []string {
	if !t.valid() {
		return nil
	}
	return slices.Clone(l.keywords[t])
}

// lexiconFile is the on-disk shape of a lexicon override.
type lexiconFile struct {
	Positive []string            `yaml:"positive"`
	Negative []string            `yaml:"negative"`
	Themes   map[string][]string `yaml:"themes"`
}

// LoadLexicon reads a YAML lexicon. Themes missing from the file get no
// keywords and are never detected.
func LoadLexicon(path string) (*Lexicon, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	return ParseLexicon(raw)
}

// ParseLexicon decodes a YAML lexicon document.
func ParseLexicon(raw []byte) (*Lexicon, error) {
	var f lexiconFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse lexicon: %w", err)
	}

	keywords := make(map[Theme][]string, len(f.Themes))
	for name, kws := range f.Themes {
		t, err := ParseTheme(strings.ToLower(strings.TrimSpace(name)))
		if err != nil {
			return nil, err
		}
		if _, dup := keywords[t]; dup {
			return nil, fmt.Errorf("parse lexicon: theme %s is listed more than once", t)
		}
		keywords[t] = kws
	}

	return NewLexicon(f.Positive, f.Negative, keywords)
}
