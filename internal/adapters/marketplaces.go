// internal/adapters/marketplaces.go
package adapters

import (
	"time"

	"sourcing-match/internal/common/config"
	"sourcing-match/internal/common/logger"
	"sourcing-match/internal/models"
)

// Fashion-only marketplaces are gated to fashion requests (or requests with
// no category at all).
var defaultCategories = map[string][]string{
	models.SourceEbay:   nil, // unrestricted
	models.SourceDepop:  {"fashion"},
	models.SourceVinted: {"fashion"},
}

// NewEbay builds the eBay adapter.
func NewEbay(cfg config.AdapterConfig, log logger.Logger) *Marketplace {
	return fromConfig(models.SourceEbay, cfg, log)
}

// NewDepop builds the Depop adapter.
func NewDepop(cfg config.AdapterConfig, log logger.Logger) *Marketplace {
	return fromConfig(models.SourceDepop, cfg, log)
}

// NewVinted builds the Vinted adapter.
func NewVinted(cfg config.AdapterConfig, log logger.Logger) *Marketplace {
	return fromConfig(models.SourceVinted, cfg, log)
}

// FromConfig builds an adapter for any configured source name; unknown names
// get no category affinity unless the config declares one.
func FromConfig(name string, cfg config.AdapterConfig, log logger.Logger) *Marketplace {
	return fromConfig(name, cfg, log)
}

func fromConfig(name string, cfg config.AdapterConfig, log logger.Logger) *Marketplace {
	categories := cfg.Categories
	if len(categories) == 0 {
		categories = defaultCategories[name]
	}

	timeout := time.Duration(cfg.Timeout) * time.Millisecond
	if timeout == 0 {
		timeout = 3 * time.Second
	}

	return newMarketplace(name, cfg.BaseURL, timeout, categories, log)
}
