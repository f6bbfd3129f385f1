package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/fintrace/internal/config"
	"github.com/vanshika/fintrace/internal/graph"
	"github.com/vanshika/fintrace/internal/logging"
	"github.com/vanshika/fintrace/internal/memgraph"
)

func TestOpenStoreMemory(t *testing.T) {
	store, closeFn, err := OpenStore(context.Background(), logging.Discard(), config.GraphConfig{Backend: config.BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &memgraph.Store{}, store)
	assert.NoError(t, store.VerifyConnectivity(context.Background()))
	assert.NoError(t, closeFn(context.Background()))
}

func TestOpenStoreRequiresURI(t *testing.T) {
	_, _, err := OpenStore(context.Background(), logging.Discard(), config.GraphConfig{Backend: config.BackendNeo4j})
	assert.ErrorIs(t, err, graph.ErrMissingURI)
}

func TestOpenStoreUnknownBackend(t *testing.T) {
	_, _, err := OpenStore(context.Background(), logging.Discard(), config.GraphConfig{Backend: "dynamo"})
	assert.Error(t, err)
}

func TestServiceOptions(t *testing.T) {
	opts := ServiceOptions(config.LinkageConfig{FanoutLimit: 30, SharedAttributeLimit: 10, LinkedLimit: 5}, nil, nil)
	assert.Equal(t, 30, opts.LinkLimit)
	assert.Equal(t, 10, opts.SharedLimit)
	assert.Equal(t, 5, opts.LinkedLimit)
}
