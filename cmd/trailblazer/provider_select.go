package main

import (
	"fmt"

	"github.com/trailblazer-io/trailblazer/internal/common"
	"github.com/trailblazer-io/trailblazer/internal/interfaces"
	"github.com/trailblazer-io/trailblazer/internal/provider"
)

// selectProvider builds the embedding provider named by cfg, per
// §6's provider contract.
func selectProvider(cfg common.ProviderConfig) (interfaces.EmbeddingProvider, error) {
	switch cfg.Name {
	case "", "dummy":
		return provider.NewDummy(cfg.Dimension), nil
	case "remote":
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("provider: remote requires provider.endpoint to be set")
		}
		return provider.NewRemote(cfg.Endpoint, cfg.APIKey, cfg.Model, cfg.Dimension, provider.WithLogger(logger)), nil
	default:
		return nil, fmt.Errorf("provider: unknown provider name %q", cfg.Name)
	}
}
