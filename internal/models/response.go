// internal/models/response.go
package models

// MatchResponse is the JSON envelope returned by POST /api/match.
type MatchResponse struct {
	Success         bool              `json:"success"`
	RequestID       string            `json:"request_id"`
	TotalMatches    int               `json:"total_matches"`
	InternalMatches int               `json:"internal_matches"`
	ExternalMatches int               `json:"external_matches"`
	Matches         []ScoredCandidate `json:"matches"`
}

// ErrorResponse is the JSON envelope for request and server failures.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WebhookResponse is returned by the new-request and new-listing webhooks.
type WebhookResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	MatchesFound int    `json:"matches_found"`
}
