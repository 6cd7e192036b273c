// internal/models/request.go
package models

// Preferences is the open key-value preference map attached to a sourcing
// request. Budget is the only key the ranking engine interprets.
type Preferences struct {
	Budget float64                `json:"budget,omitempty"`
	Extra  map[string]interface{} `json:"-"`
}

// SourcingRequest is a buyer's "find me this item" request. Immutable once
// created; the ranking engine only reads it for scoring parameters.
type SourcingRequest struct {
	ID          string      `json:"requestId"`
	BuyerID     string      `json:"buyerId,omitempty"` // empty = anonymous
	SearchQuery string      `json:"searchQuery"`
	Budget      float64     `json:"budget"` // 0 = unconstrained
	Category    string      `json:"category,omitempty"`
	Preferences Preferences `json:"preferences,omitempty"`
}

// ActiveRequest is a stored sourcing request as read back from the request
// table during reverse matching.
type ActiveRequest struct {
	ID          string  `json:"request_id"`
	BuyerID     string  `json:"buyer_id"`
	Description string  `json:"request_description"`
	Budget      float64 `json:"budget"`
	Category    string  `json:"category"`
}

// NewListing is the payload of the new-listing webhook: a freshly posted
// seller item to be matched against active requests.
type NewListing struct {
	ListingID   string   `json:"listing_id"`
	SellerID    string   `json:"seller_id"`
	Name        string   `json:"item_name"`
	Description string   `json:"item_description"`
	Price       float64  `json:"price"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}
