package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/PuerkitoBio/goquery"

	"reviewlens/analysis"
	"reviewlens/config"
	"reviewlens/db"
	"reviewlens/models"
	"reviewlens/predictions"
)

// ReviewSection is one review parsed from an export file
type ReviewSection struct {
	Title      string
	ProductID  string
	AuthorName string
	Content    string
	Rating     float32
}

func main() {
	filePath := flag.String("file", "", "markdown (.md) or HTML (.html) review export")
	product := flag.String("product", "", "product id for reviews that do not name one")
	analyzeOnly := flag.Bool("analyze-only", false, "skip the import and analyze feedback left pending by an earlier run")
	flag.Parse()

	if *filePath == "" && !*analyzeOnly {
		log.Fatal("-file is required unless -analyze-only is set")
	}

	log.Println("Starting feedback import process...")
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	cfg := config.Load()

	lex := analysis.DefaultLexicon()
	if cfg.Lexicon.Path != "" {
		var err error
		if lex, err = analysis.LoadLexicon(cfg.Lexicon.Path); err != nil {
			log.Fatalf("Failed to load lexicon: %v", err)
		}
	}

	store, err := db.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	if !*analyzeOnly {
		if _, err := os.Stat(*filePath); os.IsNotExist(err) {
			log.Fatalf("Target file does not exist at %s", *filePath)
		}

		log.Printf("Processing file: %s", filepath.Base(*filePath))
		stored, err := importFile(ctx, store, *filePath, *product)
		if err != nil {
			log.Fatalf("Import failed: %v", err)
		}
		log.Printf("Stored %d reviews", stored)
	}

	predictor := predictions.NewPredictor(store, analysis.NewAnalyzer(lex), cfg.Predictions.BatchSize, cfg.Predictions.Workers)
	if _, err := analyzePending(ctx, predictor); err != nil {
		log.Fatalf("Analysis failed: %v (rerun with -analyze-only to resume)", err)
	}

	log.Println("Feedback import completed!")
}

// analyzePending classifies every row still waiting for analysis, whether it
// came from this import or an earlier interrupted one
func analyzePending(ctx context.Context, predictor *predictions.Predictor) (int, error) {
	n, err := predictor.ProcessAllFeedback(ctx)
	if err != nil {
		return n, err
	}
	log.Printf("Analyzed %d pending reviews", n)
	return n, nil
}

// importFile stores the reviews found in path without analysis and returns
// how many were stored
func importFile(ctx context.Context, store db.Store, path, defaultProduct string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var (
		sections []ReviewSection
		source   string
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		content, err := io.ReadAll(f)
		if err != nil {
			return 0, err
		}
		sections, source = parseMarkdownSections(string(content)), models.SourceMarkdown
	case ".html", ".htm":
		if sections, err = parseHTMLReviews(f); err != nil {
			return 0, err
		}
		source = models.SourceHTML
	default:
		return 0, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}

	feedbacks := make([]*models.Feedback, 0, len(sections))
	for _, section := range sections {
		productID := section.ProductID
		if productID == "" {
			productID = defaultProduct
		}
		if productID == "" || strings.TrimSpace(section.Content) == "" {
			log.Printf("Skipping review %q: missing product or content", section.Title)
			continue
		}
		feedbacks = append(feedbacks, &models.Feedback{
			ProductID: productID,
			Rating:    section.Rating,
			Review:    section.Content,
			Source:    source,
		})
	}

	if err := store.StoreFeedbackBatch(ctx, feedbacks); err != nil {
		return 0, fmt.Errorf("failed to store feedback: %w", err)
	}
	return len(feedbacks), nil
}

func parseMarkdownSections(content string) []ReviewSection {
	var sections []ReviewSection
	lines := strings.Split(content, "\n")
	var currentSection *ReviewSection

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "### "):
			// Save previous section if exists
			if currentSection != nil {
				sections = append(sections, *currentSection)
			}
			currentSection = &ReviewSection{
				Title: strings.TrimSpace(strings.TrimPrefix(line, "### ")),
			}

		case strings.Contains(line, "**Product**:"):
			if currentSection != nil {
				currentSection.ProductID = strings.TrimSpace(strings.SplitN(line, "**Product**:", 2)[1])
			}

		case strings.HasPrefix(strings.TrimSpace(line), "*by"):
			if currentSection != nil {
				byline := strings.Trim(strings.TrimSpace(line), "*")
				author, _, _ := strings.Cut(strings.TrimPrefix(byline, "by"), " - ")
				currentSection.AuthorName = strings.TrimSpace(author)
			}

		case isStarLine(line):
			if currentSection != nil {
				currentSection.Rating = float32(strings.Count(line, "★"))
			}

		default:
			if currentSection != nil && len(strings.TrimSpace(line)) > 0 && !strings.HasPrefix(line, "#") {
				if len(currentSection.Content) > 0 {
					currentSection.Content += "\n"
				}
				currentSection.Content += line
			}
		}
	}

	// Add last section
	if currentSection != nil {
		sections = append(sections, *currentSection)
	}

	return sections
}

// isStarLine reports whether line is a rating made only of filled and empty
// stars, e.g. "★★★☆☆"
func isStarLine(line string) bool {
	line = strings.TrimSpace(line)
	if !strings.Contains(line, "★") {
		return false
	}
	return strings.Trim(line, "★☆ ") == ""
}

// parseHTMLReviews reads elements like
//
//	<div class="review" data-product="ring-1">
//	  <span class="author">Ann</span><span class="rating">4</span>
//	  <p class="review-text">...</p>
//	</div>
func parseHTMLReviews(r io.Reader) ([]ReviewSection, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var sections []ReviewSection
	doc.Find(".review").Each(func(_ int, s *goquery.Selection) {
		section := ReviewSection{
			Title:      strings.TrimSpace(s.Find(".review-title").First().Text()),
			ProductID:  strings.TrimSpace(s.AttrOr("data-product", "")),
			AuthorName: strings.TrimSpace(s.Find(".author").First().Text()),
			Content:    strings.TrimSpace(s.Find(".review-text").Text()),
		}
		if rating, err := strconv.ParseFloat(strings.TrimSpace(s.Find(".rating").First().Text()), 32); err == nil {
			section.Rating = float32(rating)
		}
		sections = append(sections, section)
	})
	return sections, nil
}
