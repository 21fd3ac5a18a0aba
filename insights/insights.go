package insights

import (
	"context"
	"fmt"
	"log"

	"reviewlens/analysis"
)

const (
	// issueThreshold is the number of negative records on a theme that
	// triggers a recommendation.
	issueThreshold = 2

	InsightDurability = "Improve product durability"
	InsightComfort    = "Consider lighter and more comfortable designs"
	InsightFallback   = "Overall customer feedback looks good"
)

type rule struct {
	theme   analysis.Theme
	insight string
}

// rules fire in this order.
var rules = [...]rule{
	{theme: analysis.Durability, insight: InsightDurability},
	{theme: analysis.Comfort, insight: InsightComfort},
}

// Generate returns the recommendations for a record collection. The result
// is never empty: when no rule fires it holds only InsightFallback.
func Generate(records []analysis.Record) []string {
	var out []string
	for _, r := range rules {
		if issueCount(records, r.theme) >= issueThreshold {
			out = append(out, r.insight)
		}
	}
	if len(out) == 0 {
		out = append(out, InsightFallback)
	}
	return out
}

// issueCount counts negative records tagged with theme.
func issueCount(records []analysis.Record, theme analysis.Theme) int {
	n := 0
	for _, r := range records {
		if r.Sentiment == analysis.Negative && r.Themes.Has(theme) {
			n++
		}
	}
	return n
}

// Response types

type StatsResponse struct {
	Sentiment SentimentTally `json:"sentiment"`
	Themes    ThemeCounts    `json:"themes"`
}

type InsightResponse struct {
	Insights []string `json:"insights"`
}

// RecordSource supplies the full record collection.
type RecordSource interface {
	Records(ctx context.Context) ([]analysis.Record, error)
}

// Service
type InsightsService struct {
	source RecordSource
}

func NewInsightsService(source RecordSource) *InsightsService {
	return &InsightsService{source: source}
}

func (s *InsightsService) load(ctx context.Context) ([]analysis.Record, error) {
	records, err := s.source.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}
	return records, nil
}

// GetStats returns the overall sentiment tally and theme frequency.
func (s *InsightsService) GetStats(ctx context.Context) (*StatsResponse, error) {
	records, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return &StatsResponse{
		Sentiment: OverallSentiment(records),
		Themes:    OverallThemeFrequency(records),
	}, nil
}

// GetThemeStats returns theme frequency per product.
func (s *InsightsService) GetThemeStats(ctx context.Context) (ProductThemeStats, error) {
	records, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return PerProductThemeFrequency(records), nil
}

// GetInsights recomputes the recommendations from every stored record.
func (s *InsightsService) GetInsights(ctx context.Context) (*InsightResponse, error) {
	records, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := Generate(records)
	log.Printf("💡 Generated %d insight(s) from %d records", len(out), len(records))
	return &InsightResponse{Insights: out}, nil
}
