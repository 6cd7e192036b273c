// internal/catalog/catalog.go

// Package catalog implements the internal listing search used as the
// first-party candidate source of the matching pipeline.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	"sourcing-match/internal/aggregate"
	commonerrors "sourcing-match/internal/common/errors"
	"sourcing-match/internal/common/logger"
	"sourcing-match/internal/models"
)

const defaultMaxResults = 50

// Catalog searches the internal listings index. Results carry the configured
// source-priority multiplier so internally-listed items are preferentially
// ranked; the bias is a business rule, not a correctness requirement.
type Catalog struct {
	client     *elasticsearch.Client
	index      string
	priority   float64
	maxResults int
	logger     logger.Logger
}

func New(client *elasticsearch.Client, index string, priority float64, log logger.Logger) *Catalog {
	return &Catalog{
		client:     client,
		index:      index,
		priority:   priority,
		maxResults: defaultMaxResults,
		logger:     log.WithFields(map[string]interface{}{"source": models.SourceInternal}),
	}
}

var _ aggregate.Source = (*Catalog)(nil)

func (c *Catalog) Name() string { return models.SourceInternal }

// SupportsCategory always reports true: the internal catalog is never gated.
func (c *Catalog) SupportsCategory(string) bool { return true }

// Search runs a bool query over the listings index: multi_match on name and
// description, price range filter when the query is budget-constrained, term
// filter on category.
func (c *Catalog) Search(ctx context.Context, q aggregate.Query) ([]models.CandidateItem, error) {
	body, err := json.Marshal(buildListingQuery(q))
	if err != nil {
		return nil, fmt.Errorf("build listing query: %w", err)
	}

	res, err := c.client.Search(
		c.client.Search.WithContext(ctx),
		c.client.Search.WithIndex(c.index),
		c.client.Search.WithBody(bytes.NewReader(body)),
		c.client.Search.WithSize(c.maxResults),
	)
	if err != nil {
		return nil, commonerrors.NewCatalogSearchFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, commonerrors.NewCatalogSearchFailedError(fmt.Errorf("listing search error: %s", res.Status()))
	}

	var envelope searchResponse
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return nil, commonerrors.NewCatalogSearchFailedError(fmt.Errorf("decode listing search response: %w", err))
	}

	items := make([]models.CandidateItem, 0, len(envelope.Hits.Hits))
	for _, hit := range envelope.Hits.Hits {
		item := hit.Source
		if item.ID == "" {
			item.ID = hit.ID
		}
		item.Source = models.SourceInternal
		item.SourcePriority = c.priority
		items = append(items, item)
	}

	c.logger.Debug("listing search completed", map[string]interface{}{
		"hits":    envelope.Hits.Total.Value,
		"results": len(items),
	})

	return items, nil
}

func buildListingQuery(q aggregate.Query) map[string]interface{} {
	mustClauses := []interface{}{}
	filterClauses := []interface{}{}

	if q.Text != "" {
		mustClauses = append(mustClauses, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q.Text,
				"fields": []string{"item_name^3", "item_description^2"},
				"type":   "best_fields",
			},
		})
	} else {
		mustClauses = append(mustClauses, map[string]interface{}{
			"match_all": map[string]interface{}{},
		})
	}

	if q.MaxPrice > 0 {
		filterClauses = append(filterClauses, map[string]interface{}{
			"range": map[string]interface{}{
				"price": map[string]interface{}{"lte": q.MaxPrice},
			},
		})
	}

	if q.Category != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"category": q.Category},
		})
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   mustClauses,
				"filter": filterClauses,
			},
		},
	}
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string               `json:"_id"`
			Score  float64              `json:"_score"`
			Source models.CandidateItem `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}
