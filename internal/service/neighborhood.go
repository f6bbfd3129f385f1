package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vanshika/fintrace/internal/domain"
	"github.com/vanshika/fintrace/internal/metrics"
)

// NeighborhoodAssembler turns raw traversals into display-ready graphs.
type NeighborhoodAssembler struct {
	store   NeighborhoodStore
	hops    domain.HopSpec
	metrics *metrics.Recorder
}

func NewNeighborhoodAssembler(store NeighborhoodStore, hops domain.HopSpec, rec *metrics.Recorder) *NeighborhoodAssembler {
	return &NeighborhoodAssembler{store: store, hops: hops, metrics: rec}
}

// UserGraph returns the neighborhood of a user, or an empty graph when the
// user does not exist.
func (a *NeighborhoodAssembler) UserGraph(ctx context.Context, userID string) (domain.Graph, error) {
	return a.graph(ctx, domain.UserRef(userID), "user")
}

// TransactionGraph returns the neighborhood of a transaction, or an empty
// graph when the transaction does not exist.
func (a *NeighborhoodAssembler) TransactionGraph(ctx context.Context, txID string) (domain.Graph, error) {
	return a.graph(ctx, domain.TransactionRef(txID), "transaction")
}

func (a *NeighborhoodAssembler) graph(ctx context.Context, seed domain.NodeRef, kind string) (domain.Graph, error) {
	if seed.ID == "" {
		a.metrics.Neighborhood(kind, "missing")
		return domain.EmptyGraph(), nil
	}

	start := time.Now()
	hood, err := a.store.FetchNeighborhood(ctx, seed, a.hops)
	a.metrics.ObserveStore("fetch_neighborhood", start)
	if err != nil {
		a.metrics.Neighborhood(kind, "error")
		return domain.Graph{}, fmt.Errorf("fetch %s neighborhood: %w", kind, err)
	}
	if hood == nil {
		a.metrics.Neighborhood(kind, "missing")
		return domain.EmptyGraph(), nil
	}

	a.metrics.Neighborhood(kind, "found")
	return Assemble(hood), nil
}

// Assemble renders a raw neighborhood. Nodes are deduplicated by namespaced
// id: a node keeps the position of its first occurrence and the properties of
// its last. Relationships are emitted one per traversal hit.
func Assemble(hood domain.Neighborhood) domain.Graph {
	b := newGraphBuilder()

	switch n := hood.(type) {
	case *domain.UserNeighborhood:
		seed := n.User.Ref()
		b.addNode(seed, n.User.Properties())
		for _, tx := range n.Transactions {
			b.addNode(tx.Ref(), tx.Properties())
			b.addEdge(seed, tx.Ref(), domain.ViewSentReceived)
		}
		for _, u := range n.Counterparties {
			b.addNode(u.Ref(), u.Properties())
			b.addEdge(seed, u.Ref(), domain.ViewDirect)
		}
		for _, u := range n.SharedUsers {
			b.addNode(u.Ref(), u.Properties())
			b.addEdge(seed, u.Ref(), domain.ViewSharedAttribute)
		}
	case *domain.TransactionNeighborhood:
		seed := n.Transaction.Ref()
		b.addNode(seed, n.Transaction.Properties())
		for _, u := range n.Senders {
			b.addNode(u.Ref(), u.Properties())
			b.addEdge(u.Ref(), seed, domain.ViewSent)
		}
		for _, u := range n.Receivers {
			b.addNode(u.Ref(), u.Properties())
			b.addEdge(seed, u.Ref(), domain.ViewReceivedBy)
		}
		for _, tx := range n.Linked {
			b.addNode(tx.Ref(), tx.Properties())
			b.addEdge(seed, tx.Ref(), domain.ViewLinked)
		}
	}

	return b.build()
}

type graphBuilder struct {
	order []string
	nodes map[string]domain.Node
	edges []domain.Edge
}

func newGraphBuilder() *graphBuilder {
	return &graphBuilder{nodes: make(map[string]domain.Node)}
}

func (b *graphBuilder) addNode(ref domain.NodeRef, props map[string]any) {
	key := ref.Key()
	if _, ok := b.nodes[key]; !ok {
		b.order = append(b.order, key)
	}
	b.nodes[key] = domain.Node{
		ID:    key,
		Label: ref.ID,
		Type:  string(ref.Label),
		Props: props,
	}
}

func (b *graphBuilder) addEdge(from, to domain.NodeRef, edgeType string) {
	b.edges = append(b.edges, domain.Edge{From: from.Key(), To: to.Key(), Type: edgeType})
}

func (b *graphBuilder) build() domain.Graph {
	g := domain.EmptyGraph()
	for _, key := range b.order {
		g.Nodes = append(g.Nodes, b.nodes[key])
	}
	g.Relationships = append(g.Relationships, b.edges...)
	return g
}

// UserNeighborhood is the service entry point for user graphs.
func (s *RelationshipService) UserNeighborhood(ctx context.Context, userID string) (domain.Graph, error) {
	g, err := s.assembler.UserGraph(ctx, normalizeID(userID))
	return g, wrapOp("fetch user relationships", err)
}

// TransactionNeighborhood is the service entry point for transaction graphs.
func (s *RelationshipService) TransactionNeighborhood(ctx context.Context, txID string) (domain.Graph, error) {
	g, err := s.assembler.TransactionGraph(ctx, normalizeID(txID))
	return g, wrapOp("fetch transaction relationships", err)
}
