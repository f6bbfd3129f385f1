package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/fintrace/internal/domain"
)

func TestLinkBoundsFanOut(t *testing.T) {
	svc, store := newTestService(t, Options{})

	for i := 0; i < 100; i++ {
		mustTransaction(t, svc, TransactionInput{
			ID:        fmt.Sprintf("old-%03d", i),
			Timestamp: int64(1000 + i),
			IP:        "10.0.0.1",
		})
	}
	mustTransaction(t, svc, TransactionInput{ID: "new", Timestamp: 5000, IP: "10.0.0.1"})

	assert.Equal(t, DefaultLinkLimit, store.OutDegree(domain.TransactionRef("new"), domain.EdgeSameIP))
	assert.Zero(t, store.OutDegree(domain.TransactionRef("new"), domain.EdgeSameDevice))
	// most recent first
	assert.True(t, store.HasEdge(domain.TransactionRef("new"), domain.EdgeSameIP, domain.TransactionRef("old-099")))
	assert.False(t, store.HasEdge(domain.TransactionRef("new"), domain.EdgeSameIP, domain.TransactionRef("old-000")))
}

func TestLinkIsDirectedNewToExisting(t *testing.T) {
	svc, store := newTestService(t, Options{})

	mustTransaction(t, svc, TransactionInput{ID: "t1", DeviceID: "dev-1"})
	mustTransaction(t, svc, TransactionInput{ID: "t2", DeviceID: "dev-1"})

	assert.True(t, store.HasEdge(domain.TransactionRef("t2"), domain.EdgeSameDevice, domain.TransactionRef("t1")))
	assert.False(t, store.HasEdge(domain.TransactionRef("t1"), domain.EdgeSameDevice, domain.TransactionRef("t2")))
	assert.Zero(t, store.EdgeCount(domain.EdgeSameIP))
}

func TestLinkSkipsAbsentAttributes(t *testing.T) {
	stub := &scriptedStore{}
	engine := NewLinkageEngine(stub, 0, nil, nil)

	report, err := engine.Link(context.Background(), domain.Transaction{ID: "t1", IP: "  "})
	require.NoError(t, err)
	assert.Empty(t, stub.queries)
	assert.Empty(t, report.Passes)
	assert.Equal(t, DefaultLinkLimit, engine.Limit())
}

func TestLinkRerunIsIdempotent(t *testing.T) {
	svc, store := newTestService(t, Options{})

	mustTransaction(t, svc, TransactionInput{ID: "t1", IP: "1.1.1.1", DeviceID: "d"})
	tx := mustTransaction(t, svc, TransactionInput{ID: "t2", IP: "1.1.1.1", DeviceID: "d"})

	report, err := svc.Linker().Link(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Linked())

	assert.Equal(t, 1, store.EdgeCount(domain.EdgeSameIP))
	assert.Equal(t, 1, store.EdgeCount(domain.EdgeSameDevice))
}

func TestLinkUpsertOfSameTransactionNeverSelfLinks(t *testing.T) {
	svc, store := newTestService(t, Options{})

	mustTransaction(t, svc, TransactionInput{ID: "t1", IP: "1.1.1.1"})
	mustTransaction(t, svc, TransactionInput{ID: "t1", IP: "1.1.1.1"})

	assert.Zero(t, store.EdgeCount(domain.EdgeSameIP))
}

func TestLinkDropsSelfAndEnforcesBoundOnMisbehavingStore(t *testing.T) {
	stub := &scriptedStore{matches: []domain.NodeRef{
		domain.TransactionRef("t1"),
		domain.TransactionRef("a"),
		domain.TransactionRef("a"),
		domain.TransactionRef("b"),
		domain.TransactionRef("c"),
	}}
	engine := NewLinkageEngine(stub, 2, nil, nil)

	report, err := engine.Link(context.Background(), domain.Transaction{ID: "t1", IP: "1.1.1.1"})
	require.NoError(t, err)

	require.Len(t, stub.merged, 1)
	assert.Equal(t, []domain.NodeRef{domain.TransactionRef("a"), domain.TransactionRef("b")}, stub.merged[0])
	require.Len(t, report.Passes, 1)
	assert.True(t, report.Passes[0].Capped)
	assert.Equal(t, 3, stub.queries[0].Limit)
	assert.Equal(t, "t1", stub.queries[0].ExcludeID)
}

func TestLinkCappedOnlyWhenCandidatesWereDropped(t *testing.T) {
	refs := []domain.NodeRef{
		domain.TransactionRef("a"),
		domain.TransactionRef("b"),
		domain.TransactionRef("c"),
		domain.TransactionRef("d"),
	}
	tests := map[string]struct {
		matches []domain.NodeRef
		linked  int
		capped  bool
	}{
		"fewer than limit":  {matches: refs[:2], linked: 2, capped: false},
		"exactly limit":     {matches: refs[:3], linked: 3, capped: false},
		"more than limit":   {matches: refs, linked: 3, capped: true},
		"self does not cap": {matches: append([]domain.NodeRef{domain.TransactionRef("t1")}, refs[:3]...), linked: 3, capped: false},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			stub := &scriptedStore{matches: tc.matches}
			engine := NewLinkageEngine(stub, 3, nil, nil)

			report, err := engine.Link(context.Background(), domain.Transaction{ID: "t1", IP: "1.1.1.1"})
			require.NoError(t, err)
			require.Len(t, report.Passes, 1)
			assert.Equal(t, tc.linked, report.Passes[0].Linked)
			assert.Equal(t, tc.capped, report.Passes[0].Capped)
		})
	}
}

func TestLinkReportsUncappedPassAtExactLimit(t *testing.T) {
	svc, _ := newTestService(t, Options{LinkLimit: 3})

	for i := 0; i < 3; i++ {
		mustTransaction(t, svc, TransactionInput{ID: fmt.Sprintf("old-%d", i), IP: "10.0.0.9"})
	}
	tx := mustTransaction(t, svc, TransactionInput{ID: "new", IP: "10.0.0.9"})

	report, err := svc.Linker().Link(context.Background(), tx)
	require.NoError(t, err)
	require.Len(t, report.Passes, 1)
	assert.Equal(t, 3, report.Passes[0].Linked)
	assert.False(t, report.Passes[0].Capped)
}

func TestLinkLimitIsClampedToSingleInsertBound(t *testing.T) {
	svc, store := newTestService(t, Options{LinkLimit: 200})
	assert.Equal(t, DefaultLinkLimit, svc.Linker().Limit())

	for i := 0; i < 100; i++ {
		mustTransaction(t, svc, TransactionInput{
			ID:        fmt.Sprintf("old-%03d", i),
			Timestamp: int64(1000 + i),
			IP:        "10.0.0.1",
		})
	}
	mustTransaction(t, svc, TransactionInput{ID: "new", Timestamp: 5000, IP: "10.0.0.1"})

	assert.Equal(t, DefaultLinkLimit, store.OutDegree(domain.TransactionRef("new"), domain.EdgeSameIP))
}

func TestLinkSurfacesStoreErrors(t *testing.T) {
	boom := errors.New("store down")
	engine := NewLinkageEngine(&scriptedStore{findErr: boom}, 5, nil, nil)

	_, err := engine.Link(context.Background(), domain.Transaction{ID: "t1", DeviceID: "d"})
	assert.ErrorIs(t, err, boom)
}

func TestLinkWithLimitCopiesEngine(t *testing.T) {
	engine := NewLinkageEngine(&scriptedStore{}, 50, nil, nil)
	bulk := engine.WithLimit(BulkLinkLimit)

	assert.Equal(t, 50, engine.Limit())
	assert.Equal(t, BulkLinkLimit, bulk.Limit())
	assert.Equal(t, DefaultLinkLimit, engine.WithLimit(500).Limit())
	assert.Equal(t, 50, engine.WithLimit(0).Limit())
}
