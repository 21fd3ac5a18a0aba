package predictions

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"reviewlens/analysis"
	"reviewlens/db"
	"reviewlens/models"
)

const (
	defaultBatchSize   = 100 // Number of feedbacks to process in each batch
	defaultWorkerCount = 5   // Number of parallel workers
	maxRetries         = 3   // Attempts per feedback before the run fails
	retryDelay         = 500 * time.Millisecond
)

// Predictor classifies feedback that was stored without analysis, e.g. by
// the importer
type Predictor struct {
	store      db.Store
	analyzer   *analysis.Analyzer
	batchSize  int
	workers    int
	retryDelay time.Duration
}

func NewPredictor(store db.Store, analyzer *analysis.Analyzer, batchSize, workers int) *Predictor {
	if batchSize < 1 {
		batchSize = defaultBatchSize
	}
	if workers < 1 {
		workers = defaultWorkerCount
	}
	return &Predictor{
		store:      store,
		analyzer:   analyzer,
		batchSize:  batchSize,
		workers:    workers,
		retryDelay: retryDelay,
	}
}

// ProcessAllFeedback analyzes every pending feedback in batches with
// parallel workers and returns how many rows it analyzed
func (p *Predictor) ProcessAllFeedback(ctx context.Context) (int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan []models.Feedback, p.workers)
	results := make(chan error, p.workers)
	var processed atomic.Int64
	var wg sync.WaitGroup

	// Start worker pool
	for w := 1; w <= p.workers; w++ {
		wg.Add(1)
		go p.worker(ctx, w, jobs, results, &processed, &wg)
	}

	// Drain worker errors as they arrive so a failing worker never blocks
	var firstErr error
	errDone := make(chan struct{})
	go func() {
		defer close(errDone)
		for err := range results {
			if firstErr == nil {
				firstErr = err
				cancel()
			}
		}
	}()

	queueErr := p.queuePending(ctx, jobs)
	close(jobs)

	wg.Wait()
	close(results)
	<-errDone

	n := int(processed.Load())
	if firstErr != nil {
		return n, fmt.Errorf("worker error: %w", firstErr)
	}
	if queueErr != nil {
		return n, queueErr
	}

	log.Printf("✅ Analyzed %d pending feedback entries", n)
	return n, nil
}

func (p *Predictor) queuePending(ctx context.Context, jobs chan<- []models.Feedback) error {
	var afterID uint
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		feedbacks, err := p.store.Pending(ctx, afterID, p.batchSize)
		if err != nil {
			return fmt.Errorf("failed to fetch batch: %w", err)
		}
		if len(feedbacks) == 0 {
			return nil
		}

		select {
		case jobs <- feedbacks:
		case <-ctx.Done():
			return ctx.Err()
		}
		afterID = feedbacks[len(feedbacks)-1].ID

		log.Printf("📦 Queued batch of %d pending feedbacks (up to id %d)", len(feedbacks), afterID)
	}
}

// worker processes batches of feedback
func (p *Predictor) worker(ctx context.Context, id int, jobs <-chan []models.Feedback, results chan<- error, processed *atomic.Int64, wg *sync.WaitGroup) {
	defer wg.Done()

	for feedbacks := range jobs {
		log.Printf("Worker %d processing batch of %d feedbacks", id, len(feedbacks))

		for i := range feedbacks {
			if ctx.Err() != nil {
				break
			}
			err := p.processWithRetry(ctx, &feedbacks[i])
			switch {
			case err == nil:
				processed.Add(1)
			case errors.Is(err, db.ErrAlreadyAnalyzed):
				// another worker or process got there first
			case ctx.Err() != nil:
				// run is shutting down
			default:
				results <- fmt.Errorf("failed to process feedback %d after %d attempts: %w", feedbacks[i].ID, maxRetries, err)
			}
		}
	}
}

// processWithRetry retries store failures that may be transient. Missing and
// already analyzed rows are final.
func (p *Predictor) processWithRetry(ctx context.Context, feedback *models.Feedback) error {
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err = p.ProcessFeedback(ctx, feedback)
		if err == nil || errors.Is(err, db.ErrAlreadyAnalyzed) || errors.Is(err, db.ErrNotFound) {
			return err
		}
		if attempt == maxRetries {
			break
		}
		log.Printf("⚠️ Feedback %d attempt %d failed: %v", feedback.ID, attempt, err)
		select {
		case <-time.After(p.retryDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// ProcessFeedback analyzes a single feedback entry and saves the result
func (p *Predictor) ProcessFeedback(ctx context.Context, feedback *models.Feedback) error {
	res := p.analyzer.Analyze(feedback.Review)
	if err := p.store.SaveAnalysis(ctx, feedback.ID, res); err != nil {
		return err
	}
	feedback.ApplyAnalysis(res)
	return nil
}
