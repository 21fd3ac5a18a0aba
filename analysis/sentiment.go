package analysis

import "fmt"

// Sentiment is the polarity label assigned to a review.
type Sentiment string

const (
	Positive Sentiment = "positive"
	Negative Sentiment = "negative"
	Neutral  Sentiment = "neutral"
)

// ParseSentiment validates a stored sentiment label.
func ParseSentiment(s string) (Sentiment, error) {
	switch Sentiment(s) {
	case Positive, Negative, Neutral:
		return Sentiment(s), nil
	}
	return "", fmt.Errorf("analysis: unknown sentiment %q", s)
}

// Polarity maps the label onto +1, -1 or 0.
func (s Sentiment) Polarity() float32 {
	switch s {
	case Positive:
		return 1
	case Negative:
		return -1
	default:
		return 0
	}
}

// Classify counts exact lexicon hits among the tokens. Ties, including the
// case where nothing matched, are neutral.
func Classify(tokens []string, lex *Lexicon) Sentiment {
	var pos, neg int
	for _, tok := range tokens {
		if lex.IsPositive(tok) {
			pos++
		}
		if lex.IsNegative(tok) {
			neg++
		}
	}

	switch {
	case pos > neg:
		return Positive
	case neg > pos:
		return Negative
	default:
		return Neutral
	}
}
