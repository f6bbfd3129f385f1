package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vanshika/fintrace/internal/domain"
	"github.com/vanshika/fintrace/internal/memgraph"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, opts Options) (*RelationshipService, *memgraph.Store) {
	t.Helper()
	store := memgraph.New()
	svc := NewRelationshipService(store, opts)
	svc.WithClock(func() time.Time { return fixedNow })
	seq := 0
	svc.WithIDGenerator(func() string {
		seq++
		return fmt.Sprintf("gen-%d", seq)
	})
	return svc, store
}

func mustUser(t *testing.T, svc *RelationshipService, in UserInput) domain.User {
	t.Helper()
	u, err := svc.UpsertUser(context.Background(), in)
	require.NoError(t, err)
	return u
}

func mustTransaction(t *testing.T, svc *RelationshipService, in TransactionInput) domain.Transaction {
	t.Helper()
	tx, err := svc.CreateTransaction(context.Background(), in)
	require.NoError(t, err)
	return tx
}

// scriptedStore lets tests control what the link store returns.
type scriptedStore struct {
	matches  []domain.NodeRef
	findErr  error
	mergeErr error
	queries  []domain.AttributeQuery
	merged   [][]domain.NodeRef
}

func (s *scriptedStore) FindByAttribute(_ context.Context, q domain.AttributeQuery) ([]domain.NodeRef, error) {
	s.queries = append(s.queries, q)
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.matches, nil
}

func (s *scriptedStore) MergeDirectedEdges(_ context.Context, _ domain.NodeRef, _ domain.EdgeType, to []domain.NodeRef) (int, error) {
	if s.mergeErr != nil {
		return 0, s.mergeErr
	}
	s.merged = append(s.merged, to)
	return len(to), nil
}
