package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"reviewlens/analysis"
	"reviewlens/models"
)

// FeedbackStore handles storing feedback in PostgreSQL
type FeedbackStore struct {
	db *gorm.DB
}

var (
	_ Store         = (*FeedbackStore)(nil)
	_ SimilarFinder = (*FeedbackStore)(nil)
)

func NewFeedbackStore(db *gorm.DB) (*FeedbackStore, error) {
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return nil, fmt.Errorf("failed to enable pgvector: %w", err)
	}
	if err := db.AutoMigrate(&models.Feedback{}); err != nil {
		return nil, fmt.Errorf("failed to create feedback table: %w", err)
	}

	return &FeedbackStore{db: db}, nil
}

// StoreFeedback stores a single feedback entry
func (fs *FeedbackStore) StoreFeedback(ctx context.Context, feedback *models.Feedback) error {
	return fs.db.WithContext(ctx).Create(feedback).Error
}

// StoreFeedbackBatch stores multiple feedback entries in a batch
func (fs *FeedbackStore) StoreFeedbackBatch(ctx context.Context, feedbacks []*models.Feedback) error {
	if len(feedbacks) == 0 {
		return nil
	}
	return fs.db.WithContext(ctx).Create(feedbacks).Error
}

func (fs *FeedbackStore) GetFeedback(ctx context.Context, id uint) (*models.Feedback, error) {
	var feedback models.Feedback
	err := fs.db.WithContext(ctx).First(&feedback, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &feedback, nil
}

func (fs *FeedbackStore) ListByProduct(ctx context.Context, productID string, offset, limit int) ([]models.Feedback, int64, error) {
	query := fs.db.WithContext(ctx).Model(&models.Feedback{}).Where("product_id = ?", productID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var feedbacks []models.Feedback
	if err := query.
		Order("id").
		Offset(offset).
		Limit(limit).
		Find(&feedbacks).Error; err != nil {
		return nil, 0, err
	}
	return feedbacks, total, nil
}

func (fs *FeedbackStore) Records(ctx context.Context) ([]analysis.Record, error) {
	var feedbacks []models.Feedback
	if err := fs.db.WithContext(ctx).
		Select("id", "product_id", "rating", "review", "has_analysis", "sentiment", "themes").
		Where("has_analysis = ?", true).
		Order("id").
		Find(&feedbacks).Error; err != nil {
		return nil, err
	}
	return toRecords(feedbacks)
}

func (fs *FeedbackStore) Pending(ctx context.Context, afterID uint, limit int) ([]models.Feedback, error) {
	var feedbacks []models.Feedback
	err := fs.db.WithContext(ctx).
		Where("has_analysis = ? AND id > ?", false, afterID).
		Order("id").
		Limit(limit).
		Find(&feedbacks).Error
	return feedbacks, err
}

func (fs *FeedbackStore) SaveAnalysis(ctx context.Context, id uint, res analysis.Result) error {
	var analyzed models.Feedback
	analyzed.ApplyAnalysis(res)

	result := fs.db.WithContext(ctx).
		Model(&models.Feedback{}).
		Where("id = ? AND has_analysis = ?", id, false).
		Updates(map[string]interface{}{
			"sentiment":    analyzed.Sentiment,
			"themes":       analyzed.Themes,
			"signature":    analyzed.Signature,
			"has_analysis": true,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update feedback: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := fs.GetFeedback(ctx, id); err != nil {
			return err
		}
		return ErrAlreadyAnalyzed
	}
	return nil
}

// SimilarFeedback ranks other analyzed feedback by L2 distance between
// signatures
func (fs *FeedbackStore) SimilarFeedback(ctx context.Context, id uint, limit int) ([]models.Feedback, error) {
	target, err := fs.GetFeedback(ctx, id)
	if err != nil {
		return nil, err
	}
	if target.Signature == nil {
		return []models.Feedback{}, nil
	}

	var feedbacks []models.Feedback
	err = fs.db.WithContext(ctx).
		Where("id <> ? AND signature IS NOT NULL", id).
		Clauses(clause.OrderBy{
			Expression: clause.Expr{SQL: "signature <-> ?", Vars: []interface{}{pgvector.NewVector(target.Signature.Slice())}},
		}).
		Limit(limit).
		Find(&feedbacks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query similar feedback: %w", err)
	}
	return feedbacks, nil
}

func (fs *FeedbackStore) Close() error {
	sqlDB, err := fs.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
