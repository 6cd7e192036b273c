// internal/adapters/adapter.go

// Package adapters implements the external marketplace sources. Every
// adapter speaks the shared integration envelope and normalizes raw
// marketplace items into the canonical CandidateItem shape before anything
// reaches the ranking engine.
package adapters

import (
	"context"
	"fmt"
	"time"

	"sourcing-match/internal/aggregate"
	commonerrors "sourcing-match/internal/common/errors"
	commonhttp "sourcing-match/internal/common/http"
	"sourcing-match/internal/common/logger"
	"sourcing-match/internal/models"
)

// searchRequest is the JSON body posted to a marketplace integration.
type searchRequest struct {
	SearchQuery string  `json:"searchQuery"`
	MaxPrice    float64 `json:"maxPrice,omitempty"`
	Category    string  `json:"category,omitempty"`
}

// searchResponse is the shared integration envelope.
type searchResponse struct {
	Success      bool      `json:"success"`
	Source       string    `json:"source"`
	TotalResults int       `json:"total_results"`
	Items        []rawItem `json:"items"`
}

// rawItem is a marketplace item before normalization. Fields are optional on
// purpose: adapters tolerate partial payloads.
type rawItem struct {
	ID          string             `json:"id"`
	Name        string             `json:"item_name"`
	Description string             `json:"item_description"`
	Price       float64            `json:"price"`
	Condition   string             `json:"condition"`
	ExternalURL string             `json:"external_url"`
	ImageURL    string             `json:"image_url"`
	Location    string             `json:"location"`
	Seller      *models.SellerInfo `json:"seller_info"`
}

// Marketplace is an HTTP-backed external source.
type Marketplace struct {
	name       string
	baseURL    string
	categories map[string]bool // empty = all categories
	client     *commonhttp.Client
	logger     logger.Logger
}

var _ aggregate.Source = (*Marketplace)(nil)

func newMarketplace(name, baseURL string, timeout time.Duration, categories []string, log logger.Logger) *Marketplace {
	catSet := make(map[string]bool, len(categories))
	for _, c := range categories {
		catSet[c] = true
	}
	return &Marketplace{
		name:       name,
		baseURL:    baseURL,
		categories: catSet,
		client:     commonhttp.NewClient(timeout),
		logger:     log.WithFields(map[string]interface{}{"source": name}),
	}
}

func (m *Marketplace) Name() string { return m.name }

// SupportsCategory reports whether this marketplace should be queried for
// the given category. Adapters with no declared affinities accept anything.
func (m *Marketplace) SupportsCategory(category string) bool {
	if len(m.categories) == 0 {
		return true
	}
	return m.categories[category]
}

// Search posts the query to the marketplace integration and normalizes the
// returned items. Transport and envelope failures come back as
// ADAPTER_UNAVAILABLE; the aggregator treats them as an empty contribution.
func (m *Marketplace) Search(ctx context.Context, q aggregate.Query) ([]models.CandidateItem, error) {
	var resp searchResponse
	err := m.client.PostJSON(ctx, m.baseURL, searchRequest{
		SearchQuery: q.Text,
		MaxPrice:    q.MaxPrice,
		Category:    q.Category,
	}, &resp)
	if err != nil {
		return nil, commonerrors.NewAdapterUnavailableError(m.name, err)
	}

	if !resp.Success {
		return nil, commonerrors.NewAdapterUnavailableError(m.name, fmt.Errorf("integration reported failure"))
	}

	items := make([]models.CandidateItem, 0, len(resp.Items))
	for i, raw := range resp.Items {
		items = append(items, m.normalize(raw, i))
	}
	return items, nil
}

// normalize maps a raw marketplace item onto the canonical shape. Missing
// fields default rather than erroring: a candidate without a name or
// description scores zero text similarity downstream but is never dropped.
func (m *Marketplace) normalize(raw rawItem, index int) models.CandidateItem {
	if raw.Name == "" && raw.Description == "" {
		serr := commonerrors.NewMalformedCandidateError(m.name, fmt.Sprintf("item %q has neither name nor description", raw.ID))
		m.logger.WithError(serr).Warn("malformed candidate, scoring with defaults", map[string]interface{}{
			"itemId": raw.ID,
		})
	}

	id := raw.ID
	if id == "" {
		id = fmt.Sprintf("%s_%d", m.name, index+1)
	}

	return models.CandidateItem{
		ID:          id,
		Name:        raw.Name,
		Description: raw.Description,
		Price:       raw.Price,
		Condition:   models.Condition(raw.Condition),
		Source:      m.name,
		Seller:      raw.Seller,
		ExternalURL: raw.ExternalURL,
		ImageURL:    raw.ImageURL,
		Location:    raw.Location,
	}
}
