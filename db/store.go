package db

import (
	"context"
	"errors"
	"fmt"

	"reviewlens/analysis"
	"reviewlens/config"
	"reviewlens/models"
)

var (
	ErrNotFound        = errors.New("feedback not found")
	ErrAlreadyAnalyzed = errors.New("feedback already analyzed")
	ErrUnsupported     = errors.New("operation not supported by this store")
)

// Store persists feedback rows. Implementations must be safe for
// concurrent use.
type Store interface {
	StoreFeedback(ctx context.Context, feedback *models.Feedback) error
	StoreFeedbackBatch(ctx context.Context, feedbacks []*models.Feedback) error
	GetFeedback(ctx context.Context, id uint) (*models.Feedback, error)
	// ListByProduct returns a product's rows in submission order.
	ListByProduct(ctx context.Context, productID string, offset, limit int) ([]models.Feedback, int64, error)
	// Records returns every analyzed row as an analysis.Record.
	Records(ctx context.Context) ([]analysis.Record, error)
	// Pending returns up to limit unanalyzed rows with an id above afterID.
	Pending(ctx context.Context, afterID uint, limit int) ([]models.Feedback, error)
	// SaveAnalysis records the analysis of an unanalyzed row. It returns
	// ErrAlreadyAnalyzed if the row was analyzed before.
	SaveAnalysis(ctx context.Context, id uint, res analysis.Result) error
	Close() error
}

// SimilarFinder is implemented by stores that can rank feedback by
// signature distance.
type SimilarFinder interface {
	SimilarFeedback(ctx context.Context, id uint, limit int) ([]models.Feedback, error)
}

// Open connects the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		gdb, err := InitDB(cfg)
		if err != nil {
			return nil, err
		}
		return NewFeedbackStore(gdb)
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.DSN)
	case config.DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func toRecords(rows []models.Feedback) ([]analysis.Record, error) {
	records := make([]analysis.Record, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].Record()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
