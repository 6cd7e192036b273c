// internal/models/match.go
package models

import "time"

// MatchResult is what a single pipeline run produces: the ranked, truncated
// candidate list plus per-source counts for the response envelope.
type MatchResult struct {
	RequestID       string            `json:"request_id"`
	TotalMatches    int               `json:"total_matches"`
	InternalMatches int               `json:"internal_matches"`
	ExternalMatches int               `json:"external_matches"`
	Matches         []ScoredCandidate `json:"matches"`
}

// MatchSnapshot is the persisted form of a MatchResult. The sink stores a
// copy of the ranked list, not a live reference.
type MatchSnapshot struct {
	ID        string            `json:"id"`
	RequestID string            `json:"request_id"`
	Matches   []ScoredCandidate `json:"matches"`
	CreatedAt time.Time         `json:"created_at"`
}

// RequestMatch pairs an active sourcing request with its relevance to a new
// listing during reverse matching.
type RequestMatch struct {
	Request    ActiveRequest `json:"request"`
	Similarity float64       `json:"similarity"`
}
