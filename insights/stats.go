package insights

import (
	"bytes"
	"encoding/json"

	"reviewlens/analysis"
)

// SentimentTally counts positive and negative records. Neutral records are
// the remainder of the total.
type SentimentTally struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
}

// ThemeCounts holds one counter per theme, indexed by analysis.Theme.
type ThemeCounts [analysis.ThemeCount]int

// Get returns the counter for t.
func (c ThemeCounts) Get(t analysis.Theme) int {
	return c[t]
}

// Map returns the counters keyed by theme name; all five keys are present.
func (c ThemeCounts) Map() map[string]int {
	m := make(map[string]int, analysis.ThemeCount)
	for _, t := range analysis.AllThemes() {
		m[t.String()] = c[t]
	}
	return m
}

func (c *ThemeCounts) add(set analysis.ThemeSet) {
	for _, t := range set.Themes() {
		c[t]++
	}
}

// MarshalJSON writes an object with every theme in declaration order.
func (c ThemeCounts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, t := range analysis.AllThemes() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(t.String())
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(c[t])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ProductThemeCounts is the theme frequency of a single product.
type ProductThemeCounts struct {
	ProductID string
	Counts    ThemeCounts
}

// ProductThemeStats lists products in the order they were first seen.
type ProductThemeStats []ProductThemeCounts

// Lookup returns the counts for productID.
func (s ProductThemeStats) Lookup(productID string) (ThemeCounts, bool) {
	for _, p := range s {
		if p.ProductID == productID {
			return p.Counts, true
		}
	}
	return ThemeCounts{}, false
}

// Map flattens the stats into nested plain maps.
func (s ProductThemeStats) Map() map[string]map[string]int {
	m := make(map[string]map[string]int, len(s))
	for _, p := range s {
		m[p.ProductID] = p.Counts.Map()
	}
	return m
}

// MarshalJSON writes an object keyed by product id, in first-seen order.
func (s ProductThemeStats) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p.ProductID)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := p.Counts.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// OverallSentiment tallies records by sentiment label.
func OverallSentiment(records []analysis.Record) SentimentTally {
	var tally SentimentTally
	for _, r := range records {
		switch r.Sentiment {
		case analysis.Positive:
			tally.Positive++
		case analysis.Negative:
			tally.Negative++
		}
	}
	return tally
}

// OverallThemeFrequency counts, per theme, the records tagged with it.
func OverallThemeFrequency(records []analysis.Record) ThemeCounts {
	var counts ThemeCounts
	for _, r := range records {
		counts.add(r.Themes)
	}
	return counts
}

// PerProductThemeFrequency is OverallThemeFrequency partitioned by product.
func PerProductThemeFrequency(records []analysis.Record) ProductThemeStats {
	stats := ProductThemeStats{}
	index := make(map[string]int)
	for _, r := range records {
		i, ok := index[r.ProductID]
		if !ok {
			i = len(stats)
			index[r.ProductID] = i
			stats = append(stats, ProductThemeCounts{ProductID: r.ProductID})
		}
		stats[i].Counts.add(r.Themes)
	}
	return stats
}
