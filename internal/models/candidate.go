// internal/models/candidate.go
package models

// Condition enumerates the supported item conditions. Values mirror the
// marketplace strings so adapter payloads unmarshal without translation.
type Condition string

const (
	ConditionNew     Condition = "New"
	ConditionLikeNew Condition = "Used - Like New"
	ConditionGood    Condition = "Used - Good"
	ConditionFair    Condition = "Used - Fair"
)

// Source tags where a candidate came from.
const (
	SourceInternal = "internal"
	SourceEbay     = "ebay"
	SourceDepop    = "depop"
	SourceVinted   = "vinted"
)

// SellerInfo carries optional seller metadata attached by a source.
type SellerInfo struct {
	Username string  `json:"username,omitempty"`
	Rating   float64 `json:"rating,omitempty"` // 0-5 scale, 0 = unknown
}

// CandidateItem is the canonical item shape every source normalizes into
// before scoring. Instances are immutable once produced by the aggregator.
type CandidateItem struct {
	ID             string      `json:"id"`
	Name           string      `json:"item_name"`
	Description    string      `json:"item_description,omitempty"`
	Price          float64     `json:"price"`
	Condition      Condition   `json:"condition,omitempty"`
	Source         string      `json:"source"`
	SourcePriority float64     `json:"priority_score,omitempty"` // multiplicative bias, 0 = default 1.0
	Seller         *SellerInfo `json:"seller_info,omitempty"`
	SellerID       string      `json:"seller_id,omitempty"`
	ExternalURL    string      `json:"external_url,omitempty"`
	ImageURL       string      `json:"image_url,omitempty"`
	Location       string      `json:"location,omitempty"`
}

// ScoredCandidate is a CandidateItem with its derived relevance score.
// Score is always in [0,1].
type ScoredCandidate struct {
	CandidateItem
	Score float64 `json:"ai_score"`
}
