package db

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/lib/pq"

	"reviewlens/analysis"
	"reviewlens/models"
)

// MemoryStore keeps feedback in process memory. Nothing survives a restart.
type MemoryStore struct {
	mu     sync.RWMutex
	rows   []models.Feedback
	nextID uint
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

func (m *MemoryStore) StoreFeedback(_ context.Context, feedback *models.Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertLocked(feedback)
	return nil
}

func (m *MemoryStore) StoreFeedbackBatch(_ context.Context, feedbacks []*models.Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, fb := range feedbacks {
		m.insertLocked(fb)
	}
	return nil
}

func (m *MemoryStore) insertLocked(feedback *models.Feedback) {
	now := time.Now().UTC()
	feedback.ID = m.nextID
	feedback.CreatedAt = now
	feedback.UpdatedAt = now
	m.nextID++
	m.rows = append(m.rows, clone(*feedback))
}

// clone detaches slice fields so callers cannot mutate stored rows.
func clone(fb models.Feedback) models.Feedback {
	fb.Themes = pq.StringArray(slices.Clone([]string(fb.Themes)))
	if fb.Signature != nil {
		sig := *fb.Signature
		fb.Signature = &sig
	}
	return fb
}

func (m *MemoryStore) indexLocked(id uint) int {
	// ids are assigned in increasing order
	i, found := slices.BinarySearchFunc(m.rows, id, func(fb models.Feedback, id uint) int {
		return int(fb.ID) - int(id)
	})
	if !found {
		return -1
	}
	return i
}

func (m *MemoryStore) GetFeedback(_ context.Context, id uint) (*models.Feedback, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.indexLocked(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	fb := clone(m.rows[i])
	return &fb, nil
}

func (m *MemoryStore) ListByProduct(_ context.Context, productID string, offset, limit int) ([]models.Feedback, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []models.Feedback
	for _, fb := range m.rows {
		if fb.ProductID == productID {
			matched = append(matched, fb)
		}
	}

	total := int64(len(matched))
	if offset >= len(matched) {
		return []models.Feedback{}, total, nil
	}
	end := min(offset+limit, len(matched))

	page := make([]models.Feedback, 0, end-offset)
	for _, fb := range matched[offset:end] {
		page = append(page, clone(fb))
	}
	return page, total, nil
}

func (m *MemoryStore) Records(_ context.Context) ([]analysis.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var analyzed []models.Feedback
	for _, fb := range m.rows {
		if fb.HasAnalysis {
			analyzed = append(analyzed, fb)
		}
	}
	return toRecords(analyzed)
}

func (m *MemoryStore) Pending(_ context.Context, afterID uint, limit int) ([]models.Feedback, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Feedback
	for _, fb := range m.rows {
		if len(out) == limit {
			break
		}
		if !fb.HasAnalysis && fb.ID > afterID {
			out = append(out, clone(fb))
		}
	}
	return out, nil
}

func (m *MemoryStore) SaveAnalysis(_ context.Context, id uint, res analysis.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexLocked(id)
	if i < 0 {
		return ErrNotFound
	}
	if m.rows[i].HasAnalysis {
		return ErrAlreadyAnalyzed
	}
	m.rows[i].ApplyAnalysis(res)
	m.rows[i].UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
