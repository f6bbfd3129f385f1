package memgraph

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/fintrace/internal/domain"
)

func seedUsers(t *testing.T, s *Store, users ...domain.User) {
	t.Helper()
	for _, u := range users {
		_, err := s.MergeUser(context.Background(), u)
		require.NoError(t, err)
	}
}

func TestMergeUserOverwritesProperties(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.MergeUser(ctx, domain.User{ID: "u1", Name: "Old", Email: "old@x.com"})
	require.NoError(t, err)
	stored, err := s.MergeUser(ctx, domain.User{ID: "u1", Name: "New"})
	require.NoError(t, err)

	assert.Equal(t, "New", stored.Name)
	assert.Empty(t, stored.Email)

	count, err := s.CountUsers(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestMergeTransactionSkipsMissingParties(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedUsers(t, s, domain.User{ID: "u1"})

	_, err := s.MergeTransaction(ctx, domain.Transaction{ID: "t1"}, domain.Parties{SenderID: "u1", ReceiverID: "ghost"})
	require.NoError(t, err)

	assert.True(t, s.HasEdge(domain.UserRef("u1"), domain.EdgeSent, domain.TransactionRef("t1")))
	assert.Equal(t, 0, s.EdgeCount(domain.EdgeReceivedBy))

	_, err = s.MergeTransaction(ctx, domain.Transaction{ID: "t1"}, domain.Parties{SenderID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 1, s.EdgeCount(domain.EdgeSent))
}

func TestFindByAttributeOrdersMostRecentFirst(t *testing.T) {
	s := New()
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		_, err := s.MergeTransaction(ctx, domain.Transaction{
			ID:        fmt.Sprintf("t%d", i),
			Timestamp: int64(i),
			IP:        "1.1.1.1",
		}, domain.Parties{})
		require.NoError(t, err)
	}

	refs, err := s.FindByAttribute(ctx, domain.AttributeQuery{
		Label:     domain.LabelTransaction,
		Attribute: domain.AttributeIP,
		Value:     "1.1.1.1",
		ExcludeID: "t5",
		Limit:     2,
	})
	require.NoError(t, err)
	assert.Equal(t, []domain.NodeRef{domain.TransactionRef("t4"), domain.TransactionRef("t3")}, refs)

	_, err = s.FindByAttribute(ctx, domain.AttributeQuery{Label: domain.LabelTransaction, Attribute: "amount", Limit: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)
}

func TestMergeDirectedEdgesIsIdempotentAndSkipsSelf(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, id := range []string{"t1", "t2", "t3"} {
		_, err := s.MergeTransaction(ctx, domain.Transaction{ID: id}, domain.Parties{})
		require.NoError(t, err)
	}

	targets := []domain.NodeRef{domain.TransactionRef("t1"), domain.TransactionRef("t2"), domain.TransactionRef("t3"), domain.TransactionRef("missing")}
	n, err := s.MergeDirectedEdges(ctx, domain.TransactionRef("t3"), domain.EdgeSameIP, targets)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.MergeDirectedEdges(ctx, domain.TransactionRef("t3"), domain.EdgeSameIP, targets)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, 2, s.EdgeCount(domain.EdgeSameIP))
	assert.False(t, s.HasEdge(domain.TransactionRef("t3"), domain.EdgeSameIP, domain.TransactionRef("t3")))
	assert.Equal(t, 2, s.OutDegree(domain.TransactionRef("t3"), domain.EdgeSameIP))
}

func TestFetchTransactionNeighborhoodIsUndirected(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedUsers(t, s, domain.User{ID: "u1"}, domain.User{ID: "u2"})

	_, err := s.MergeTransaction(ctx, domain.Transaction{ID: "t1", IP: "1.1.1.1"}, domain.Parties{SenderID: "u1", ReceiverID: "u2"})
	require.NoError(t, err)
	_, err = s.MergeTransaction(ctx, domain.Transaction{ID: "t2", IP: "1.1.1.1"}, domain.Parties{SenderID: "u2", ReceiverID: "u1"})
	require.NoError(t, err)
	_, err = s.MergeDirectedEdges(ctx, domain.TransactionRef("t2"), domain.EdgeSameIP, []domain.NodeRef{domain.TransactionRef("t1")})
	require.NoError(t, err)

	hood, err := s.FetchNeighborhood(ctx, domain.TransactionRef("t1"), domain.HopSpec{})
	require.NoError(t, err)
	txHood, ok := hood.(*domain.TransactionNeighborhood)
	require.True(t, ok)

	require.Len(t, txHood.Linked, 1)
	assert.Equal(t, "t2", txHood.Linked[0].ID)
	require.Len(t, txHood.Senders, 1)
	assert.Equal(t, "u1", txHood.Senders[0].ID)
	require.Len(t, txHood.Receivers, 1)
	assert.Equal(t, "u2", txHood.Receivers[0].ID)
}

func TestFetchUserNeighborhood(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedUsers(t, s,
		domain.User{ID: "u1", Email: "a@x.com"},
		domain.User{ID: "u2"},
		domain.User{ID: "u3", Email: "a@x.com"},
		domain.User{ID: "u4", Phone: ""},
	)
	_, err := s.MergeTransaction(ctx, domain.Transaction{ID: "t1"}, domain.Parties{SenderID: "u1", ReceiverID: "u2"})
	require.NoError(t, err)

	hood, err := s.FetchNeighborhood(ctx, domain.UserRef("u1"), domain.HopSpec{SharedLimit: 50})
	require.NoError(t, err)
	userHood, ok := hood.(*domain.UserNeighborhood)
	require.True(t, ok)

	require.Len(t, userHood.Transactions, 1)
	assert.Equal(t, "t1", userHood.Transactions[0].ID)
	require.Len(t, userHood.Counterparties, 1)
	assert.Equal(t, "u2", userHood.Counterparties[0].ID)
	require.Len(t, userHood.SharedUsers, 1)
	assert.Equal(t, "u3", userHood.SharedUsers[0].ID)
}

func TestFetchUserNeighborhoodMatchesNormalizedAttributes(t *testing.T) {
	s := New()
	seedUsers(t, s,
		domain.User{ID: "u1", Phone: " 555-0100", Address: "1 Main St"},
		domain.User{ID: "u2", Phone: "555-0100 "},
		domain.User{ID: "u3", Address: "1 MAIN ST"},
		domain.User{ID: "u4", Address: "2 Main St"},
	)

	hood, err := s.FetchNeighborhood(context.Background(), domain.UserRef("u1"), domain.HopSpec{})
	require.NoError(t, err)
	userHood := hood.(*domain.UserNeighborhood)

	ids := make([]string, 0, len(userHood.SharedUsers))
	for _, u := range userHood.SharedUsers {
		ids = append(ids, u.ID)
	}
	assert.Equal(t, []string{"u2", "u3"}, ids)
	assert.Equal(t, " 555-0100", userHood.User.Phone)
}

func TestFetchNeighborhoodMissingSeed(t *testing.T) {
	s := New()
	hood, err := s.FetchNeighborhood(context.Background(), domain.TransactionRef("nope"), domain.HopSpec{})
	require.NoError(t, err)
	assert.Nil(t, hood)
}

func TestListingAndPaging(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedUsers(t, s, domain.User{ID: "c"}, domain.User{ID: "a"}, domain.User{ID: "b"})
	for i := 1; i <= 3; i++ {
		_, err := s.MergeTransaction(ctx, domain.Transaction{ID: fmt.Sprintf("t%d", i), Timestamp: int64(i)}, domain.Parties{})
		require.NoError(t, err)
	}

	users, err := s.ListUsers(ctx, domain.Page{Limit: 2, Skip: 1})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "b", users[0].ID)
	assert.Equal(t, "c", users[1].ID)

	txs, err := s.ListTransactions(ctx, domain.Page{Limit: 10})
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, "t3", txs[0].ID)

	empty, err := s.ListTransactions(ctx, domain.Page{Limit: 10, Skip: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)
}
