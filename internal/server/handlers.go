// internal/server/handlers.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	commonerrors "sourcing-match/internal/common/errors"
	"sourcing-match/internal/common/validation"
	"sourcing-match/internal/matchstore"
	"sourcing-match/internal/models"
)

const maxBodySize = 1 << 20 // 1 MiB

// handleMatch runs the matching pipeline for a sourcing request.
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateMatchRequest(body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid match request", err.Error())
		return
	}

	var req models.SourcingRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := s.engine.Match(r.Context(), req)
	if err != nil {
		if commonerrors.IsFatal(err) {
			s.writeError(w, http.StatusBadRequest, "invalid match request", err.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, "matching failed", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, models.MatchResponse{
		Success:         true,
		RequestID:       result.RequestID,
		TotalMatches:    result.TotalMatches,
		InternalMatches: result.InternalMatches,
		ExternalMatches: result.ExternalMatches,
		Matches:         result.Matches,
	})
}

// handleGetMatches returns the persisted snapshot for a request.
func (s *Server) handleGetMatches(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "id")
	if requestID == "" {
		s.writeError(w, http.StatusBadRequest, "invalid request", "request id is required")
		return
	}

	snapshot, err := s.store.Find(r.Context(), requestID)
	if err != nil {
		if errors.Is(err, matchstore.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "no matches found", "")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "match lookup failed", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, models.MatchResponse{
		Success:         true,
		RequestID:       snapshot.RequestID,
		TotalMatches:    len(snapshot.Matches),
		Matches:         snapshot.Matches,
		InternalMatches: countInternal(snapshot.Matches),
		ExternalMatches: len(snapshot.Matches) - countInternal(snapshot.Matches),
	})
}

// newRequestPayload is the new-request webhook body, in the upstream
// storefront's field naming.
type newRequestPayload struct {
	RequestID   string  `json:"request_id"`
	BuyerID     string  `json:"buyer_id"`
	Description string  `json:"request_description"`
	Budget      float64 `json:"budget"`
	Category    string  `json:"category,omitempty"`
}

// handleNewRequest is the webhook fired when a buyer posts a sourcing
// request: run the pipeline, then notify the buyer and matched sellers.
func (s *Server) handleNewRequest(w http.ResponseWriter, r *http.Request) {
	var payload newRequestPayload
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := s.engine.Match(r.Context(), models.SourcingRequest{
		ID:          payload.RequestID,
		BuyerID:     payload.BuyerID,
		SearchQuery: payload.Description,
		Budget:      payload.Budget,
		Category:    payload.Category,
		Preferences: models.Preferences{Budget: payload.Budget},
	})
	if err != nil {
		if commonerrors.IsFatal(err) {
			s.writeError(w, http.StatusBadRequest, "invalid request", err.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, "failed to process request", err.Error())
		return
	}

	if s.notifier != nil {
		// Notification delivery is decoupled from the webhook response.
		go func(result models.MatchResult, buyerID string) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			s.notifier.NotifyMatchedSellers(ctx, result.Matches)
			if err := s.notifier.NotifyBuyer(ctx, buyerID, result.RequestID, result.TotalMatches); err != nil {
				s.logger.Error("buyer notification failed", map[string]interface{}{
					"buyerId": buyerID,
					"error":   err.Error(),
				})
			}
		}(*result, payload.BuyerID)
	}

	s.writeJSON(w, http.StatusOK, models.WebhookResponse{
		Success:      true,
		Message:      "Request processed successfully",
		MatchesFound: result.TotalMatches,
	})
}

// handleNewListing is the webhook fired when a seller posts a listing:
// reverse-match it against active requests and notify their buyers.
func (s *Server) handleNewListing(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateNewListing(body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid listing", err.Error())
		return
	}

	var listing models.NewListing
	if err := json.Unmarshal(body, &listing); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	matches, err := s.engine.MatchListing(r.Context(), listing)
	if err != nil {
		if commonerrors.IsFatal(err) {
			s.writeError(w, http.StatusBadRequest, "invalid listing", err.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, "failed to process listing", err.Error())
		return
	}

	if s.notifier != nil && len(matches) > 0 {
		go func(matches []models.RequestMatch, listing models.NewListing) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			for _, m := range matches {
				if err := s.notifier.NotifyBuyerOfListing(ctx, m.Request.BuyerID, m.Request.ID, listing); err != nil {
					s.logger.Error("buyer listing notification failed", map[string]interface{}{
						"buyerId":   m.Request.BuyerID,
						"requestId": m.Request.ID,
						"error":     err.Error(),
					})
				}
			}
		}(matches, listing)
	}

	s.writeJSON(w, http.StatusOK, models.WebhookResponse{
		Success:      true,
		Message:      "Listing processed successfully",
		MatchesFound: len(matches),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message, details string) {
	if status >= 500 {
		s.logger.Error("request failed", map[string]interface{}{
			"status":  status,
			"error":   message,
			"details": details,
		})
	}
	s.writeJSON(w, status, models.ErrorResponse{
		Success: false,
		Error:   message,
		Details: details,
	})
}

func countInternal(matches []models.ScoredCandidate) int {
	n := 0
	for _, m := range matches {
		if m.Source == models.SourceInternal {
			n++
		}
	}
	return n
}
