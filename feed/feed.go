package feed

import (
	"context"
	"fmt"
	"time"

	"reviewlens/analysis"
	"reviewlens/db"
	"reviewlens/models"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	defaultSimilar  = 5
	maxSimilar      = 50
)

// FeedService handles submitting and reading feedback
type FeedService struct {
	store    db.Store
	analyzer *analysis.Analyzer
}

// NewFeedService creates a new instance of FeedService
func NewFeedService(store db.Store, analyzer *analysis.Analyzer) *FeedService {
	return &FeedService{
		store:    store,
		analyzer: analyzer,
	}
}

// SubmitRequest is one incoming review
type SubmitRequest struct {
	ProductID string
	Rating    float32
	Review    string
}

// FeedResponse represents the response structure for feedback data
type FeedResponse struct {
	ID        uint     `json:"id"`
	ProductID string   `json:"productId"`
	Rating    float32  `json:"rating"`
	Review    string   `json:"review"`
	Source    string   `json:"source"`
	Sentiment string   `json:"sentiment"`
	Themes    []string `json:"themes"`
	CreatedAt string   `json:"created_at"`
}

func toResponse(f *models.Feedback) FeedResponse {
	themes := []string(f.Themes)
	if themes == nil {
		themes = []string{}
	}
	return FeedResponse{
		ID:        f.ID,
		ProductID: f.ProductID,
		Rating:    f.Rating,
		Review:    f.Review,
		Source:    f.Source,
		Sentiment: f.Sentiment,
		Themes:    themes,
		CreatedAt: f.CreatedAt.Format(time.RFC3339),
	}
}

func toResponses(rows []models.Feedback) []FeedResponse {
	out := make([]FeedResponse, len(rows))
	for i := range rows {
		out[i] = toResponse(&rows[i])
	}
	return out
}

// Submit analyzes the review and stores it
func (s *FeedService) Submit(ctx context.Context, req SubmitRequest) (*FeedResponse, error) {
	feedback := &models.Feedback{
		ProductID: req.ProductID,
		Rating:    req.Rating,
		Review:    req.Review,
		Source:    models.SourceAPI,
	}
	feedback.ApplyAnalysis(s.analyzer.Analyze(req.Review))

	if err := s.store.StoreFeedback(ctx, feedback); err != nil {
		return nil, fmt.Errorf("failed to store feedback: %w", err)
	}

	resp := toResponse(feedback)
	return &resp, nil
}

// GetProductFeedback retrieves a product's feedback with pagination
func (s *FeedService) GetProductFeedback(ctx context.Context, productID string, page, pageSize int) ([]FeedResponse, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	rows, total, err := s.store.ListByProduct(ctx, productID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, err
	}
	return toResponses(rows), total, nil
}

// SimilarFeedback returns the feedback closest to id by theme and sentiment
func (s *FeedService) SimilarFeedback(ctx context.Context, id uint, limit int) ([]FeedResponse, error) {
	finder, ok := s.store.(db.SimilarFinder)
	if !ok {
		return nil, db.ErrUnsupported
	}
	if limit < 1 {
		limit = defaultSimilar
	}
	if limit > maxSimilar {
		limit = maxSimilar
	}

	rows, err := finder.SimilarFeedback(ctx, id, limit)
	if err != nil {
		return nil, err
	}
	return toResponses(rows), nil
}
