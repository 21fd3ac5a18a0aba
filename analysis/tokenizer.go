package analysis

import "strings"

// Text is a review prepared for lookup.
type Text struct {
	// Normalized is the lowercase review, used for substring search.
	Normalized string
	// Tokens are the whitespace-delimited lowercase words.
	Tokens []string
}

// Tokenize lowercases raw and splits it on whitespace. Punctuation is kept
// attached to words, so "great!" does not match "great".
func Tokenize(raw string) Text {
	if strings.TrimSpace(raw) == "" {
		return Text{Tokens: []string{}}
	}
	lower := strings.ToLower(raw)
	return Text{
		Normalized: lower,
		Tokens:     strings.Fields(lower),
	}
}
