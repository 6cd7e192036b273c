// internal/engine/service.go

// Package engine orchestrates the matching pipeline: validate, aggregate,
// rank, truncate, hand off for persistence.
package engine

import (
	"context"
	"sort"
	"time"

	"sourcing-match/internal/aggregate"
	commonerrors "sourcing-match/internal/common/errors"
	"sourcing-match/internal/common/logger"
	"sourcing-match/internal/common/metrics"
	"sourcing-match/internal/common/observability"
	"sourcing-match/internal/models"
	"sourcing-match/internal/ranking"
	"sourcing-match/internal/similarity"
)

// Sink is where ranked snapshots go after the response is formed. The
// handoff must not block; implementations queue and write in the background.
type Sink interface {
	Enqueue(requestID string, matches []models.ScoredCandidate)
}

// RequestSearcher supplies active sourcing requests for reverse matching.
type RequestSearcher interface {
	SearchActive(ctx context.Context, price float64, category string) ([]models.ActiveRequest, error)
}

type Service struct {
	aggregator *aggregate.Aggregator
	ranker     *ranking.Ranker
	sink       Sink
	requests   RequestSearcher
	topN       int
	reverseMin float64
	obs        *observability.Observability
	logger     logger.Logger
}

func NewService(agg *aggregate.Aggregator, ranker *ranking.Ranker, sink Sink, requests RequestSearcher, topN int, reverseMin float64, obs *observability.Observability, log logger.Logger) *Service {
	return &Service{
		aggregator: agg,
		ranker:     ranker,
		sink:       sink,
		requests:   requests,
		topN:       topN,
		reverseMin: reverseMin,
		obs:        obs,
		logger:     log.WithFields(map[string]interface{}{"component": "engine"}),
	}
}

// Match runs the full pipeline for one sourcing request. The only error it
// can return is INVALID_REQUEST; every downstream failure degrades to a
// partial or empty result instead.
func (s *Service) Match(ctx context.Context, req models.SourcingRequest) (*models.MatchResult, error) {
	start := time.Now()

	if req.ID == "" {
		return nil, commonerrors.NewInvalidRequestError("requestId is required")
	}
	if req.SearchQuery == "" {
		return nil, commonerrors.NewInvalidRequestError("searchQuery is required")
	}

	// Budget echo: a request budget with no explicit preference becomes the
	// scoring budget.
	prefs := req.Preferences
	if prefs.Budget == 0 && req.Budget > 0 {
		prefs.Budget = req.Budget
	}

	candidates := s.aggregator.Aggregate(ctx, aggregate.Query{
		Text:     req.SearchQuery,
		MaxPrice: req.Budget,
		Category: req.Category,
	})

	ranked := s.ranker.Rank(candidates, req.SearchQuery, prefs)

	internal := 0
	for _, c := range ranked {
		if c.Source == models.SourceInternal {
			internal++
		}
	}

	top := ranked
	if len(top) > s.topN {
		top = top[:s.topN]
	}

	result := &models.MatchResult{
		RequestID:       req.ID,
		TotalMatches:    len(ranked),
		InternalMatches: internal,
		ExternalMatches: len(ranked) - internal,
		Matches:         top,
	}

	// Fire-and-forget: the response never waits on the sink.
	s.sink.Enqueue(req.ID, top)

	elapsed := time.Since(start)
	metrics.MatchRequestsTotal.WithLabelValues("success").Inc()
	metrics.MatchDuration.Observe(elapsed.Seconds())
	if s.obs != nil {
		s.obs.RecordMatchProcessed(ctx, "success")
		s.obs.RecordMatchDuration(ctx, elapsed, "success")
	}

	s.logger.Info("match completed", map[string]interface{}{
		"requestId":  req.ID,
		"total":      result.TotalMatches,
		"internal":   result.InternalMatches,
		"external":   result.ExternalMatches,
		"durationMs": elapsed.Milliseconds(),
	})

	return result, nil
}

// MatchListing reverse-matches a new listing against active sourcing
// requests, ordered by text relevance. Requests at or below the similarity
// floor are dropped; the listing matched too little of what they asked for.
func (s *Service) MatchListing(ctx context.Context, listing models.NewListing) ([]models.RequestMatch, error) {
	if listing.ListingID == "" {
		return nil, commonerrors.NewInvalidRequestError("listing_id is required")
	}
	if listing.Name == "" {
		return nil, commonerrors.NewInvalidRequestError("item_name is required")
	}

	active, err := s.requests.SearchActive(ctx, listing.Price, listing.Category)
	if err != nil {
		s.logger.Warn("active request search failed", map[string]interface{}{
			"listingId": listing.ListingID,
			"error":     err.Error(),
		})
		return nil, nil
	}

	listingText := listing.Name
	if listing.Description != "" {
		listingText += " " + listing.Description
	}

	var matches []models.RequestMatch
	for _, req := range active {
		sim := similarity.Jaccard(req.Description, listingText)
		if sim <= s.reverseMin {
			continue
		}
		matches = append(matches, models.RequestMatch{Request: req, Similarity: sim})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	s.logger.Info("listing matched against requests", map[string]interface{}{
		"listingId": listing.ListingID,
		"active":    len(active),
		"matched":   len(matches),
	})

	return matches, nil
}
