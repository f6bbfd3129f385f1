// Package bootstrap turns a loaded Config into a ready graph store and
// relationship service, shared by every binary.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vanshika/fintrace/internal/config"
	"github.com/vanshika/fintrace/internal/graph"
	"github.com/vanshika/fintrace/internal/memgraph"
	"github.com/vanshika/fintrace/internal/metrics"
	"github.com/vanshika/fintrace/internal/repository"
	"github.com/vanshika/fintrace/internal/service"
)

// Store is a graph store plus the connectivity check every backend offers.
type Store interface {
	service.GraphStore
	VerifyConnectivity(ctx context.Context) error
}

// CloseFunc releases backend resources.
type CloseFunc func(ctx context.Context) error

func noopClose(context.Context) error { return nil }

// OpenStore connects to the configured backend.
func OpenStore(ctx context.Context, logger *slog.Logger, cfg config.GraphConfig) (Store, CloseFunc, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		logger.Warn("using in-memory graph store; data is lost on exit")
		return memgraph.New(), noopClose, nil
	case config.BackendNeo4j, "":
		if cfg.URI == "" {
			return nil, nil, graph.ErrMissingURI
		}
		client, err := graph.NewNeo4jClient(ctx, graph.Options{
			URI:            cfg.URI,
			Database:       cfg.Database,
			Username:       cfg.Username,
			Password:       cfg.Password,
			MaxConnections: cfg.MaxConnections,
			AcquireTimeout: cfg.AcquireTimeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect to graph: %w", err)
		}
		logger.Info("connected to graph", "uri", cfg.URI, "database", cfg.Database)
		return repository.New(client), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown graph backend %q", cfg.Backend)
	}
}

// ServiceOptions maps linkage settings onto service options.
func ServiceOptions(cfg config.LinkageConfig, logger *slog.Logger, rec *metrics.Recorder) service.Options {
	return service.Options{
		LinkLimit:   cfg.FanoutLimit,
		SharedLimit: cfg.SharedAttributeLimit,
		LinkedLimit: cfg.LinkedLimit,
		Logger:      logger,
		Metrics:     rec,
	}
}
