// internal/matchstore/writer.go
package matchstore

import (
	"context"
	"sync"
	"time"

	"sourcing-match/internal/common/logger"
	"sourcing-match/internal/common/metrics"
	"sourcing-match/internal/models"
)

const writeTimeout = 5 * time.Second

type writeJob struct {
	requestID string
	matches   []models.ScoredCandidate
}

// Writer decouples persistence from the request/response cycle: Enqueue hands
// the snapshot to a background goroutine and returns immediately. Sink
// failures are logged and counted, never propagated to the requester.
type Writer struct {
	store  *Store
	jobs   chan writeJob
	logger logger.Logger

	closeOnce sync.Once
	done      chan struct{}
}

func NewWriter(store *Store, queueSize int, log logger.Logger) *Writer {
	w := &Writer{
		store:  store,
		jobs:   make(chan writeJob, queueSize),
		logger: log.WithFields(map[string]interface{}{"component": "match-writer"}),
		done:   make(chan struct{}),
	}
	go w.run()
	return w
}

// Enqueue submits a snapshot for asynchronous persistence. It never blocks:
// when the queue is full the snapshot is dropped and the drop is logged,
// since persistence is best-effort by contract.
func (w *Writer) Enqueue(requestID string, matches []models.ScoredCandidate) {
	select {
	case w.jobs <- writeJob{requestID: requestID, matches: matches}:
		metrics.PersistQueueDepth.Set(float64(len(w.jobs)))
	default:
		metrics.PersistFailuresTotal.Inc()
		w.logger.Warn("persist queue full, dropping snapshot", map[string]interface{}{
			"requestId": requestID,
		})
	}
}

func (w *Writer) run() {
	defer close(w.done)
	for job := range w.jobs {
		metrics.PersistQueueDepth.Set(float64(len(w.jobs)))

		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := w.store.Save(ctx, job.requestID, job.matches)
		cancel()

		if err != nil {
			metrics.PersistFailuresTotal.Inc()
			w.logger.Error("snapshot persist failed", map[string]interface{}{
				"requestId": job.requestID,
				"error":     err.Error(),
			})
			continue
		}

		w.logger.Debug("snapshot persisted", map[string]interface{}{
			"requestId": job.requestID,
			"matches":   len(job.matches),
		})
	}
}

// Close stops accepting work and drains the queue, bounded by ctx.
func (w *Writer) Close(ctx context.Context) error {
	w.closeOnce.Do(func() {
		close(w.jobs)
	})

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
