// internal/common/validation/schema.go

// Package validation checks inbound request bodies against JSON schemas
// before they reach the pipeline.
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const matchRequestSchema = `{
	"type": "object",
	"properties": {
		"requestId":   {"type": "string", "minLength": 1},
		"searchQuery": {"type": "string"},
		"budget":      {"type": "number", "minimum": 0},
		"category":    {"type": "string"},
		"buyerId":     {"type": "string"},
		"preferences": {
			"type": "object",
			"properties": {
				"budget": {"type": "number", "minimum": 0}
			}
		}
	},
	"required": ["requestId", "searchQuery"]
}`

const newListingSchema = `{
	"type": "object",
	"properties": {
		"listing_id":       {"type": "string", "minLength": 1},
		"seller_id":        {"type": "string"},
		"item_name":        {"type": "string", "minLength": 1},
		"item_description": {"type": "string"},
		"price":            {"type": "number", "minimum": 0},
		"category":         {"type": "string"},
		"tags":             {"type": "array", "items": {"type": "string"}}
	},
	"required": ["listing_id", "item_name"]
}`

var (
	matchRequestLoader = gojsonschema.NewStringLoader(matchRequestSchema)
	newListingLoader   = gojsonschema.NewStringLoader(newListingSchema)
)

// ValidateMatchRequest validates a raw /api/match body.
func ValidateMatchRequest(body []byte) error {
	return validate(matchRequestLoader, body)
}

// ValidateNewListing validates a raw new-listing webhook body.
func ValidateNewListing(body []byte) error {
	return validate(newListingLoader, body)
}

func validate(schema gojsonschema.JSONLoader, body []byte) error {
	result, err := gojsonschema.Validate(schema, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("request validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}
