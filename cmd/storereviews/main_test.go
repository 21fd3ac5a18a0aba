package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reviewlens/analysis"
	"reviewlens/db"
	"reviewlens/predictions"
)

const markdownExport = `# Reviews

### Lovely ring
**Product**: ring-1
*by Ann - January 2, 2024*
★★★★★
Shiny and elegant, a perfect fit.

### Broke fast
*by Bob - Jan 5, 2024*
★☆☆☆☆
It broke after a week.
Cheap and fragile, not even 2★ worth.

### Empty one
**Product**: ring-2
`

const htmlExport = `<html><body>
<div class="review" data-product="necklace-9">
  <h3 class="review-title">Too heavy</h3>
  <span class="author">Cleo</span>
  <span class="rating">2</span>
  <p class="review-text">Heavy and uncomfortable to wear.</p>
</div>
<div class="review">
  <span class="rating">n/a</span>
  <p class="review-text">Nice price</p>
</div>
</body></html>`

func TestParseMarkdownSections(t *testing.T) {
	sections := parseMarkdownSections(markdownExport)
	if len(sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(sections))
	}

	first := sections[0]
	if first.Title != "Lovely ring" || first.ProductID != "ring-1" || first.AuthorName != "Ann" || first.Rating != 5 {
		t.Fatalf("unexpected first section %+v", first)
	}
	if first.Content != "Shiny and elegant, a perfect fit." {
		t.Fatalf("content = %q", first.Content)
	}

	second := sections[1]
	if second.ProductID != "" || second.Rating != 1 {
		t.Fatalf("unexpected second section %+v", second)
	}
	if second.Content != "It broke after a week.\nCheap and fragile, not even 2★ worth." {
		t.Fatalf("multi-line content = %q", second.Content)
	}
}

func TestParseHTMLReviews(t *testing.T) {
	sections, err := parseHTMLReviews(strings.NewReader(htmlExport))
	if err != nil {
		t.Fatalf("parseHTMLReviews: %v", err)
	}
	if len(sections) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(sections))
	}
	if s := sections[0]; s.ProductID != "necklace-9" || s.Rating != 2 || s.AuthorName != "Cleo" || s.Title != "Too heavy" {
		t.Fatalf("unexpected review %+v", s)
	}
	if s := sections[1]; s.ProductID != "" || s.Rating != 0 || s.Content != "Nice price" {
		t.Fatalf("unexpected review %+v", s)
	}
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestImportThenAnalyze(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()

	n, err := importFile(ctx, store, writeFile(t, "export.md", markdownExport), "ring-fallback")
	if err != nil {
		t.Fatalf("importFile md: %v", err)
	}
	if n != 2 {
		t.Fatalf("stored %d markdown reviews, want 2", n)
	}

	n, err = importFile(ctx, store, writeFile(t, "export.html", htmlExport), "")
	if err != nil {
		t.Fatalf("importFile html: %v", err)
	}
	if n != 1 {
		t.Fatalf("stored %d html reviews, want 1", n)
	}

	if records, _ := store.Records(ctx); len(records) != 0 {
		t.Fatalf("imported rows should start unanalyzed, got %d records", len(records))
	}

	p := predictions.NewPredictor(store, analysis.NewAnalyzer(nil), 10, 2)
	if _, err := p.ProcessAllFeedback(ctx); err != nil {
		t.Fatal(err)
	}

	page, _, err := store.ListByProduct(ctx, "ring-fallback", 0, 10)
	if err != nil || len(page) != 1 {
		t.Fatalf("fallback product rows: %v %v", page, err)
	}
	if page[0].Sentiment != string(analysis.Negative) {
		t.Fatalf("sentiment = %q, want negative", page[0].Sentiment)
	}

	records, err := store.Records(ctx)
	if err != nil || len(records) != 3 {
		t.Fatalf("records = %d, err %v", len(records), err)
	}
}

func TestImportRejectsUnknownExtension(t *testing.T) {
	if _, err := importFile(context.Background(), db.NewMemoryStore(), writeFile(t, "export.csv", "a,b"), ""); err == nil {
		t.Fatal("expected error")
	}
}

func TestIsStarLine(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"★★★★★", true},
		{"  ★★☆☆☆ ", true},
		{"★ ★ ★", true},
		{"☆☆☆", false},
		{"easily 5★", false},
		{"★★★ great", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isStarLine(tt.line); got != tt.want {
			t.Errorf("isStarLine(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestAnalyzePendingWithoutReimport(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()

	if _, err := importFile(ctx, store, writeFile(t, "export.md", markdownExport), "ring-fallback"); err != nil {
		t.Fatal(err)
	}
	pending, err := store.Pending(ctx, 0, 10)
	if err != nil || len(pending) != 2 {
		t.Fatalf("pending = %d, err %v", len(pending), err)
	}

	// an earlier run got through the first row only
	a := analysis.NewAnalyzer(nil)
	if err := store.SaveAnalysis(ctx, pending[0].ID, a.Analyze(pending[0].Review)); err != nil {
		t.Fatal(err)
	}

	n, err := analyzePending(ctx, predictions.NewPredictor(store, a, 10, 2))
	if err != nil || n != 1 {
		t.Fatalf("analyzePending = %d, %v; want the 1 stranded row", n, err)
	}

	records, err := store.Records(ctx)
	if err != nil || len(records) != 2 {
		t.Fatalf("records = %d, err %v; want 2 with nothing imported twice", len(records), err)
	}
	if n, err := analyzePending(ctx, predictions.NewPredictor(store, a, 10, 2)); err != nil || n != 0 {
		t.Fatalf("second run = %d, %v", n, err)
	}
}
