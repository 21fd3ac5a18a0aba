package models

import (
	"fmt"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"reviewlens/analysis"
)

// Feedback sources
const (
	SourceAPI      = "API"
	SourceMarkdown = "MARKDOWN_IMPORT"
	SourceHTML     = "HTML_IMPORT"
)

// Feedback is a stored product review together with its analysis
type Feedback struct {
	gorm.Model
	ProductID string  `gorm:"index"`
	Rating    float32 // 1-5 when submitted through the API
	Review    string  `gorm:"type:text"`
	Source    string  `gorm:"index"` // API, MARKDOWN_IMPORT, HTML_IMPORT

	// Analysis related fields; fixed once HasAnalysis is set
	HasAnalysis bool             `gorm:"index;default:false"`
	Sentiment   string           `gorm:"index"`
	Themes      pq.StringArray   `gorm:"type:text[]"`    // theme names in declaration order
	Signature   *pgvector.Vector `gorm:"type:vector(6)"` // theme indicators + polarity
}

// ApplyAnalysis copies an analysis result onto an unanalyzed row
func (f *Feedback) ApplyAnalysis(res analysis.Result) {
	f.Sentiment = string(res.Sentiment)
	f.Themes = pq.StringArray(res.Themes.Names())
	sig := pgvector.NewVector(analysis.Signature(res))
	f.Signature = &sig
	f.HasAnalysis = true
}

// Record converts an analyzed row back into the analysis domain. Unknown
// sentiment or theme names are reported as errors.
func (f *Feedback) Record() (analysis.Record, error) {
	if !f.HasAnalysis {
		return analysis.Record{}, fmt.Errorf("feedback %d has not been analyzed", f.ID)
	}
	sentiment, err := analysis.ParseSentiment(f.Sentiment)
	if err != nil {
		return analysis.Record{}, fmt.Errorf("feedback %d: %w", f.ID, err)
	}
	themes, err := analysis.ParseThemeSet(f.Themes)
	if err != nil {
		return analysis.Record{}, fmt.Errorf("feedback %d: %w", f.ID, err)
	}
	return analysis.Record{
		ProductID: f.ProductID,
		Rating:    f.Rating,
		Review:    f.Review,
		Sentiment: sentiment,
		Themes:    themes,
	}, nil
}
