// internal/aggregate/aggregator.go

// Package aggregate fans a sourcing request out to the internal catalog and
// the configured marketplace adapters and merges whatever comes back.
package aggregate

import (
	"context"
	"sync"
	"time"

	commonerrors "sourcing-match/internal/common/errors"
	"sourcing-match/internal/common/logger"
	"sourcing-match/internal/common/metrics"
	"sourcing-match/internal/models"
)

// Query is the normalized search issued to every source.
type Query struct {
	Text     string
	MaxPrice float64 // 0 = unconstrained
	Category string  // empty = any
}

// Source is one candidate supplier: the internal catalog or an external
// marketplace adapter. Search must honor ctx cancellation; an error means the
// source contributes nothing for this request.
type Source interface {
	Name() string
	Search(ctx context.Context, q Query) ([]models.CandidateItem, error)
	SupportsCategory(category string) bool
}

type Aggregator struct {
	sources []Source
	timeout time.Duration
	logger  logger.Logger
}

// New creates an Aggregator. Source order is preserved through merging, which
// makes ranking ties deterministic; register the internal catalog first.
func New(timeout time.Duration, log logger.Logger, sources ...Source) *Aggregator {
	return &Aggregator{
		sources: sources,
		timeout: timeout,
		logger:  log.WithFields(map[string]interface{}{"component": "aggregator"}),
	}
}

// Aggregate queries every eligible source concurrently and returns the merged
// candidate list. Each source runs under its own timeout; a failed or
// timed-out source yields zero candidates and is only logged. Aggregate never
// fails: the worst case is an empty slice.
func (a *Aggregator) Aggregate(ctx context.Context, q Query) []models.CandidateItem {
	active := make([]Source, 0, len(a.sources))
	for _, src := range a.sources {
		if q.Category != "" && !src.SupportsCategory(q.Category) {
			a.logger.Debug("source skipped by category gate", map[string]interface{}{
				"source":   src.Name(),
				"category": q.Category,
			})
			continue
		}
		active = append(active, src)
	}

	// One result slot per source; no shared mutable state between goroutines.
	results := make([][]models.CandidateItem, len(active))

	var wg sync.WaitGroup
	for i, src := range active {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()

			srcCtx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()

			start := time.Now()
			items, err := src.Search(srcCtx, q)
			metrics.SourceSearchDuration.WithLabelValues(src.Name()).Observe(time.Since(start).Seconds())

			if err != nil {
				metrics.SourceFailuresTotal.WithLabelValues(src.Name()).Inc()
				a.logger.Warn("source unavailable", map[string]interface{}{
					"source": src.Name(),
					"code":   string(commonerrors.CodeOf(err)),
					"error":  err.Error(),
				})
				return
			}

			for j := range items {
				if items[j].Source == "" {
					items[j].Source = src.Name()
				}
			}
			metrics.CandidatesAggregated.WithLabelValues(src.Name()).Add(float64(len(items)))
			results[i] = items
		}(i, src)
	}
	wg.Wait()

	var merged []models.CandidateItem
	for _, items := range results {
		merged = append(merged, items...)
	}

	a.logger.Info("aggregation completed", map[string]interface{}{
		"sources":    len(active),
		"candidates": len(merged),
	})

	return merged
}

// Sources returns the registered source names, internal catalog first.
func (a *Aggregator) Sources() []string {
	names := make([]string, len(a.sources))
	for i, src := range a.sources {
		names[i] = src.Name()
	}
	return names
}
