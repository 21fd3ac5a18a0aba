// Package analysis turns free-text product reviews into a sentiment label
// and a set of themes.
//
// Everything here is a pure function of the review text and an immutable
// Lexicon, so an Analyzer can be shared by any number of goroutines.
// Negation ("not comfortable") and intensifiers are not handled.
package analysis

// Result is the outcome of analyzing one review.
type Result struct {
	Sentiment Sentiment
	Themes    ThemeSet
}

// Record is a classified review. Aggregation and insight generation work
// on collections of Records.
type Record struct {
	ProductID string
	Rating    float32
	Review    string
	Sentiment Sentiment
	Themes    ThemeSet
}

// Signature encodes the record as five theme indicators followed by the
// sentiment polarity. Used for nearest-neighbour lookup.
func (r Record) Signature() []float32 {
	return Signature(Result{Sentiment: r.Sentiment, Themes: r.Themes})
}

// Signature encodes an analysis result; see Record.Signature.
func Signature(res Result) []float32 {
	vec := make([]float32, ThemeCount+1)
	for _, t := range res.Themes.Themes() {
		vec[t] = 1
	}
	vec[ThemeCount] = res.Sentiment.Polarity()
	return vec
}

// Analyzer applies a Lexicon to reviews.
type Analyzer struct {
	lex *Lexicon
}

// NewAnalyzer binds lex. A nil lexicon selects DefaultLexicon.
func NewAnalyzer(lex *Lexicon) *Analyzer {
	if lex == nil {
		lex = DefaultLexicon()
	}
	return &Analyzer{lex: lex}
}

// Lexicon returns the bound lexicon.
func (a *Analyzer) Lexicon() *Lexicon {
	return a.lex
}

// Analyze classifies a single review. Empty text is neutral with no themes.
func (a *Analyzer) Analyze(review string) Result {
	text := Tokenize(review)
	return Result{
		Sentiment: Classify(text.Tokens, a.lex),
		Themes:    Detect(text.Normalized, a.lex),
	}
}

// NewRecord analyzes review and packs the result with the caller's fields.
// productID and rating are passed through untouched.
func (a *Analyzer) NewRecord(productID string, rating float32, review string) Record {
	res := a.Analyze(review)
	return Record{
		ProductID: productID,
		Rating:    rating,
		Review:    review,
		Sentiment: res.Sentiment,
		Themes:    res.Themes,
	}
}
