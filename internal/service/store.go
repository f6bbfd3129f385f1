package service

import (
	"context"

	"github.com/vanshika/fintrace/internal/domain"
)

// EntityStore persists user and transaction nodes.
type EntityStore interface {
	MergeUser(ctx context.Context, user domain.User) (domain.User, error)
	MergeTransaction(ctx context.Context, tx domain.Transaction, parties domain.Parties) (domain.Transaction, error)
}

// LinkStore is the query surface the linkage engine needs.
type LinkStore interface {
	FindByAttribute(ctx context.Context, q domain.AttributeQuery) ([]domain.NodeRef, error)
	MergeDirectedEdges(ctx context.Context, from domain.NodeRef, edgeType domain.EdgeType, to []domain.NodeRef) (int, error)
}

// NeighborhoodStore returns raw traversal results. A nil Neighborhood with a
// nil error means the seed does not exist.
type NeighborhoodStore interface {
	FetchNeighborhood(ctx context.Context, seed domain.NodeRef, hops domain.HopSpec) (domain.Neighborhood, error)
}

// CatalogStore lists, counts and exports nodes.
type CatalogStore interface {
	ListUsers(ctx context.Context, page domain.Page) ([]domain.User, error)
	ListTransactions(ctx context.Context, page domain.Page) ([]domain.Transaction, error)
	CountUsers(ctx context.Context) (int64, error)
	CountTransactions(ctx context.Context) (int64, error)
	ExportUsers(ctx context.Context) ([]domain.User, error)
	ExportTransactions(ctx context.Context) ([]domain.Transaction, error)
}

// GraphStore is everything the relationship service needs from storage. It
// is satisfied by repository.Repository and memgraph.Store.
type GraphStore interface {
	EntityStore
	LinkStore
	NeighborhoodStore
	CatalogStore
}
