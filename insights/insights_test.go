package insights

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"reflect"
	"slices"
	"testing"

	"reviewlens/analysis"
)

func rec(product string, s analysis.Sentiment, themes ...analysis.Theme) analysis.Record {
	return analysis.Record{ProductID: product, Sentiment: s, Themes: analysis.NewThemeSet(themes...)}
}

func sampleRecords() []analysis.Record {
	return []analysis.Record{
		rec("ring", analysis.Negative, analysis.Durability),
		rec("ring", analysis.Positive, analysis.Appearance, analysis.Value),
		rec("necklace", analysis.Negative, analysis.Durability, analysis.Comfort),
		rec("necklace", analysis.Neutral),
		rec("bracelet", analysis.Positive, analysis.Fit, analysis.Comfort),
		rec("ring", analysis.Negative, analysis.Comfort),
	}
}

func TestOverallSentiment(t *testing.T) {
	got := OverallSentiment(sampleRecords())
	want := SentimentTally{Positive: 2, Negative: 3}
	if got != want {
		t.Fatalf("OverallSentiment = %+v, want %+v", got, want)
	}
	if zero := OverallSentiment(nil); zero != (SentimentTally{}) {
		t.Fatalf("empty input should give zero tally, got %+v", zero)
	}
}

func TestOverallThemeFrequencyEmpty(t *testing.T) {
	got := OverallThemeFrequency(nil).Map()
	if len(got) != analysis.ThemeCount {
		t.Fatalf("expected %d keys, got %v", analysis.ThemeCount, got)
	}
	for name, n := range got {
		if n != 0 {
			t.Errorf("%s = %d, want 0", name, n)
		}
	}
}

func TestOverallThemeFrequency(t *testing.T) {
	got := OverallThemeFrequency(sampleRecords())
	want := ThemeCounts{
		analysis.Appearance: 1,
		analysis.Comfort:    3,
		analysis.Durability: 2,
		analysis.Fit:        1,
		analysis.Value:      1,
	}
	if got != want {
		t.Fatalf("OverallThemeFrequency = %v, want %v", got, want)
	}
}

func TestPerProductThemeFrequency(t *testing.T) {
	got := PerProductThemeFrequency(sampleRecords())

	var order []string
	for _, p := range got {
		order = append(order, p.ProductID)
	}
	if want := []string{"ring", "necklace", "bracelet"}; !slices.Equal(order, want) {
		t.Fatalf("product order = %v, want %v", order, want)
	}

	necklace, ok := got.Lookup("necklace")
	if !ok {
		t.Fatal("necklace missing")
	}
	want := ThemeCounts{analysis.Comfort: 1, analysis.Durability: 1}
	if necklace != want {
		t.Fatalf("necklace = %v, want %v", necklace, want)
	}

	if _, ok := got.Lookup("earring"); ok {
		t.Fatal("unexpected product")
	}
}

func TestPerProductZeroInitialised(t *testing.T) {
	got := PerProductThemeFrequency([]analysis.Record{rec("plain", analysis.Neutral)}).Map()
	counts, ok := got["plain"]
	if !ok || len(counts) != analysis.ThemeCount {
		t.Fatalf("expected all themes for product, got %v", got)
	}
}

func TestAggregationOrderIndependent(t *testing.T) {
	records := sampleRecords()
	baseSentiment := OverallSentiment(records)
	baseThemes := OverallThemeFrequency(records)
	baseProducts := PerProductThemeFrequency(records).Map()
	baseInsights := Generate(records)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := slices.Clone(records)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		if got := OverallSentiment(shuffled); got != baseSentiment {
			t.Fatalf("sentiment changed with order: %+v vs %+v", got, baseSentiment)
		}
		if got := OverallThemeFrequency(shuffled); got != baseThemes {
			t.Fatalf("themes changed with order: %v vs %v", got, baseThemes)
		}
		if got := PerProductThemeFrequency(shuffled).Map(); !reflect.DeepEqual(got, baseProducts) {
			t.Fatalf("per-product changed with order: %v vs %v", got, baseProducts)
		}
		if got := Generate(shuffled); !slices.Equal(got, baseInsights) {
			t.Fatalf("insights changed with order: %v vs %v", got, baseInsights)
		}
	}
}

func TestGenerate(t *testing.T) {
	neg := analysis.Negative
	tests := []struct {
		name    string
		records []analysis.Record
		want    []string
	}{
		{"empty", nil, []string{InsightFallback}},
		{
			"one durability issue",
			[]analysis.Record{rec("a", neg, analysis.Durability)},
			[]string{InsightFallback},
		},
		{
			"two durability issues",
			[]analysis.Record{rec("a", neg, analysis.Durability), rec("b", neg, analysis.Durability)},
			[]string{InsightDurability},
		},
		{
			"positive durability does not count",
			[]analysis.Record{rec("a", neg, analysis.Durability), rec("b", analysis.Positive, analysis.Durability)},
			[]string{InsightFallback},
		},
		{
			"end to end scenario",
			[]analysis.Record{
				rec("a", neg, analysis.Durability),
				rec("a", neg, analysis.Durability, analysis.Comfort),
			},
			[]string{InsightDurability},
		},
		{
			"both rules fire in declaration order",
			[]analysis.Record{
				rec("a", neg, analysis.Comfort),
				rec("a", neg, analysis.Durability, analysis.Comfort),
				rec("b", neg, analysis.Durability),
			},
			[]string{InsightDurability, InsightComfort},
		},
		{
			"comfort only",
			[]analysis.Record{rec("a", neg, analysis.Comfort), rec("b", neg, analysis.Comfort)},
			[]string{InsightComfort},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Generate(tt.records); !slices.Equal(got, tt.want) {
				t.Fatalf("Generate = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIssueCounts(t *testing.T) {
	records := []analysis.Record{
		rec("a", analysis.Negative, analysis.Durability),
		rec("a", analysis.Negative, analysis.Durability, analysis.Comfort),
	}
	if n := issueCount(records, analysis.Durability); n != 2 {
		t.Errorf("durability issues = %d, want 2", n)
	}
	if n := issueCount(records, analysis.Comfort); n != 1 {
		t.Errorf("comfort issues = %d, want 1", n)
	}
}

func TestThemeCountsJSON(t *testing.T) {
	raw, err := json.Marshal(ThemeCounts{analysis.Fit: 4})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"appearance":0,"comfort":0,"durability":0,"fit":4,"value":0}`
	if string(raw) != want {
		t.Fatalf("got %s, want %s", raw, want)
	}
}

func TestProductThemeStatsJSONKeepsOrder(t *testing.T) {
	stats := PerProductThemeFrequency([]analysis.Record{
		rec("zeta", analysis.Neutral, analysis.Value),
		rec("alpha", analysis.Neutral),
	})
	raw, err := json.Marshal(stats)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"zeta":{"appearance":0,"comfort":0,"durability":0,"fit":0,"value":1},` +
		`"alpha":{"appearance":0,"comfort":0,"durability":0,"fit":0,"value":0}}`
	if string(raw) != want {
		t.Fatalf("got %s\nwant %s", raw, want)
	}

	empty, _ := json.Marshal(PerProductThemeFrequency(nil))
	if string(empty) != "{}" {
		t.Fatalf("empty stats encoded as %s", empty)
	}
}

type staticSource struct {
	records []analysis.Record
	err     error
}

func (s staticSource) Records(context.Context) ([]analysis.Record, error) {
	return s.records, s.err
}

func TestInsightsService(t *testing.T) {
	ctx := context.Background()
	svc := NewInsightsService(staticSource{records: sampleRecords()})

	stats, err := svc.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.Sentiment.Negative != 3 || stats.Themes.Get(analysis.Comfort) != 3 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	themeStats, err := svc.GetThemeStats(ctx)
	if err != nil {
		t.Fatalf("GetThemeStats: %v", err)
	}
	if len(themeStats) != 3 {
		t.Fatalf("expected 3 products, got %d", len(themeStats))
	}

	resp, err := svc.GetInsights(ctx)
	if err != nil {
		t.Fatalf("GetInsights: %v", err)
	}
	if want := []string{InsightDurability, InsightComfort}; !slices.Equal(resp.Insights, want) {
		t.Fatalf("insights = %q, want %q", resp.Insights, want)
	}
}

func TestInsightsServicePropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	svc := NewInsightsService(staticSource{err: boom})
	if _, err := svc.GetStats(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if _, err := svc.GetInsights(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
