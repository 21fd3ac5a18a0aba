package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"reviewlens/analysis"
	"reviewlens/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS feedbacks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	product_id TEXT NOT NULL,
	rating REAL,
	review TEXT,
	source TEXT,
	has_analysis INTEGER NOT NULL DEFAULT 0,
	sentiment TEXT,
	themes TEXT NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS idx_feedbacks_product_id ON feedbacks(product_id);
CREATE INDEX IF NOT EXISTS idx_feedbacks_has_analysis ON feedbacks(has_analysis);
`

var feedbackColumns = []string{
	"id", "created_at", "updated_at", "product_id", "rating",
	"review", "source", "has_analysis", "sentiment", "themes",
}

// SQLiteStore keeps feedback in a local SQLite file. Themes are stored as a
// JSON list of names.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// sqlitePragmas are applied by the driver to every pooled connection.
var sqlitePragmas = []string{"busy_timeout(5000)", "journal_mode(WAL)"}

// sqliteDSN appends the connection pragmas to path. Writers take the lock at
// BEGIN so concurrent transactions wait on busy_timeout instead of failing.
func sqliteDSN(path string) string {
	params := url.Values{"_pragma": sqlitePragmas, "_txlock": {"immediate"}}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + params.Encode()
}

// OpenSQLite opens (or creates) the database at path with WAL enabled.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	sqlDB, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if strings.HasPrefix(path, ":memory:") {
		// each connection would get its own empty database
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := sqlDB.ExecContext(ctx, sqliteSchema); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to create feedback table: %w", err)
	}

	return &SQLiteStore{db: sqlDB}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertFeedback(ctx context.Context, ex execer, feedback *models.Feedback) error {
	themes, err := encodeThemes(feedback.Themes)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	query, args, err := sq.Insert("feedbacks").
		Columns(feedbackColumns[1:]...).
		Values(
			now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
			feedback.ProductID, feedback.Rating, feedback.Review, feedback.Source,
			feedback.HasAnalysis, nullString(feedback.Sentiment), themes,
		).
		ToSql()
	if err != nil {
		return err
	}

	res, err := ex.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}

	feedback.ID = uint(id)
	feedback.CreatedAt = now
	feedback.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) StoreFeedback(ctx context.Context, feedback *models.Feedback) error {
	return insertFeedback(ctx, s.db, feedback)
}

func (s *SQLiteStore) StoreFeedbackBatch(ctx context.Context, feedbacks []*models.Feedback) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, fb := range feedbacks {
		if err := insertFeedback(ctx, tx, fb); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetFeedback(ctx context.Context, id uint) (*models.Feedback, error) {
	rows, err := s.query(ctx, sq.Select(feedbackColumns...).From("feedbacks").Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

func (s *SQLiteStore) ListByProduct(ctx context.Context, productID string, offset, limit int) ([]models.Feedback, int64, error) {
	countSQL, countArgs, err := sq.Select("COUNT(*)").From("feedbacks").Where(sq.Eq{"product_id": productID}).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if err := s.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count feedback: %w", err)
	}

	rows, err := s.query(ctx, sq.Select(feedbackColumns...).
		From("feedbacks").
		Where(sq.Eq{"product_id": productID}).
		OrderBy("id").
		Limit(uint64(limit)).
		Offset(uint64(offset)))
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (s *SQLiteStore) Records(ctx context.Context) ([]analysis.Record, error) {
	rows, err := s.query(ctx, sq.Select(feedbackColumns...).
		From("feedbacks").
		Where(sq.Eq{"has_analysis": true}).
		OrderBy("id"))
	if err != nil {
		return nil, err
	}
	return toRecords(rows)
}

func (s *SQLiteStore) Pending(ctx context.Context, afterID uint, limit int) ([]models.Feedback, error) {
	return s.query(ctx, sq.Select(feedbackColumns...).
		From("feedbacks").
		Where(sq.Eq{"has_analysis": false}).
		Where(sq.Gt{"id": afterID}).
		OrderBy("id").
		Limit(uint64(limit)))
}

func (s *SQLiteStore) SaveAnalysis(ctx context.Context, id uint, res analysis.Result) error {
	themes, err := encodeThemes(res.Themes.Names())
	if err != nil {
		return err
	}

	query, args, err := sq.Update("feedbacks").
		Set("sentiment", string(res.Sentiment)).
		Set("themes", themes).
		Set("has_analysis", true).
		Set("updated_at", time.Now().UTC().Format(time.RFC3339Nano)).
		Where(sq.Eq{"id": id, "has_analysis": false}).
		ToSql()
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update feedback: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := s.GetFeedback(ctx, id); err != nil {
			return err
		}
		return ErrAlreadyAnalyzed
	}
	return nil
}

func (s *SQLiteStore) query(ctx context.Context, b sq.SelectBuilder) ([]models.Feedback, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query feedback: %w", err)
	}
	defer rows.Close()

	var out []models.Feedback
	for rows.Next() {
		fb, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, fb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}
	return out, nil
}

func scanFeedback(rows *sql.Rows) (models.Feedback, error) {
	var (
		fb                models.Feedback
		id                int64
		created, updated  string
		rating            sql.NullFloat64
		review, source    sql.NullString
		sentiment, themes sql.NullString
		hasAnalysis       bool
	)
	if err := rows.Scan(&id, &created, &updated, &fb.ProductID, &rating,
		&review, &source, &hasAnalysis, &sentiment, &themes); err != nil {
		return fb, fmt.Errorf("failed to scan feedback: %w", err)
	}

	fb.ID = uint(id)
	fb.Rating = float32(rating.Float64)
	fb.Review = review.String
	fb.Source = source.String
	fb.HasAnalysis = hasAnalysis
	fb.Sentiment = sentiment.String

	var err error
	if fb.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return fb, fmt.Errorf("feedback %d created_at: %w", id, err)
	}
	if fb.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return fb, fmt.Errorf("feedback %d updated_at: %w", id, err)
	}

	if themes.Valid && themes.String != "" {
		var names []string
		if err := json.Unmarshal([]byte(themes.String), &names); err != nil {
			return fb, fmt.Errorf("feedback %d themes: %w", id, err)
		}
		fb.Themes = names
	}
	return fb, nil
}

func encodeThemes(names []string) (string, error) {
	if names == nil {
		names = []string{}
	}
	raw, err := json.Marshal(names)
	if err != nil {
		return "", fmt.Errorf("encode themes: %w", err)
	}
	return string(raw), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
