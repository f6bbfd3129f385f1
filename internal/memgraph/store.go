// Package memgraph is an in-process fraud graph store. It honors the same
// contract as the Cypher repository and backs tests and the memory backend.
package memgraph

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vanshika/fintrace/internal/domain"
)

type edgeKey struct {
	from domain.NodeRef
	typ  domain.EdgeType
	to   domain.NodeRef
}

// Store keeps nodes in maps and edges in a set keyed by (from, type, to), so
// merging an existing edge is a no-op.
type Store struct {
	mu    sync.RWMutex
	users map[string]domain.User
	txs   map[string]domain.Transaction
	edges map[edgeKey]struct{}
	adj   map[domain.NodeRef][]edgeKey
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users: make(map[string]domain.User),
		txs:   make(map[string]domain.Transaction),
		edges: make(map[edgeKey]struct{}),
		adj:   make(map[domain.NodeRef][]edgeKey),
	}
}

// VerifyConnectivity always succeeds unless ctx is done.
func (s *Store) VerifyConnectivity(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) MergeUser(ctx context.Context, user domain.User) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}
	if user.ID == "" {
		return domain.User{}, fmt.Errorf("%w: user id is required", domain.ErrInvalidQuery)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stored := cloneUser(user)
	s.users[user.ID] = stored
	return cloneUser(stored), nil
}

func (s *Store) MergeTransaction(ctx context.Context, tx domain.Transaction, parties domain.Parties) (domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return domain.Transaction{}, err
	}
	if tx.ID == "" {
		return domain.Transaction{}, fmt.Errorf("%w: transaction id is required", domain.ErrInvalidQuery)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stored := cloneTransaction(tx)
	s.txs[tx.ID] = stored

	if _, ok := s.users[parties.SenderID]; ok && parties.SenderID != "" {
		s.addEdge(domain.UserRef(parties.SenderID), domain.EdgeSent, tx.Ref())
	}
	if _, ok := s.users[parties.ReceiverID]; ok && parties.ReceiverID != "" {
		s.addEdge(tx.Ref(), domain.EdgeReceivedBy, domain.UserRef(parties.ReceiverID))
	}
	return cloneTransaction(stored), nil
}

func (s *Store) FindByAttribute(ctx context.Context, q domain.AttributeQuery) ([]domain.NodeRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q.Limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", domain.ErrInvalidQuery)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	switch q.Label {
	case domain.LabelTransaction:
		get, ok := transactionAttribute(q.Attribute)
		if !ok {
			return nil, fmt.Errorf("%w: attribute %s on %s", domain.ErrInvalidQuery, q.Attribute, q.Label)
		}
		var matches []domain.Transaction
		for id, tx := range s.txs {
			if id != q.ExcludeID && get(tx) == q.Value {
				matches = append(matches, tx)
			}
		}
		sortRecentFirst(matches)
		if len(matches) > q.Limit {
			matches = matches[:q.Limit]
		}
		refs := make([]domain.NodeRef, 0, len(matches))
		for _, tx := range matches {
			refs = append(refs, tx.Ref())
		}
		return refs, nil
	case domain.LabelUser:
		get, ok := userAttribute(q.Attribute)
		if !ok {
			return nil, fmt.Errorf("%w: attribute %s on %s", domain.ErrInvalidQuery, q.Attribute, q.Label)
		}
		var matches []domain.User
		for id, u := range s.users {
			if id != q.ExcludeID && get(u) == q.Value {
				matches = append(matches, u)
			}
		}
		sortUsers(matches)
		if len(matches) > q.Limit {
			matches = matches[:q.Limit]
		}
		refs := make([]domain.NodeRef, 0, len(matches))
		for _, u := range matches {
			refs = append(refs, u.Ref())
		}
		return refs, nil
	}
	return nil, fmt.Errorf("%w: label %s", domain.ErrInvalidQuery, q.Label)
}

// MergeDirectedEdges adds the missing edges and reports how many of the
// targets are now connected.
func (s *Store) MergeDirectedEdges(ctx context.Context, from domain.NodeRef, edgeType domain.EdgeType, to []domain.NodeRef) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(to) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.exists(from) {
		return 0, nil
	}
	ensured := 0
	for _, target := range to {
		if target == from || !s.exists(target) {
			continue
		}
		s.addEdge(from, edgeType, target)
		ensured++
	}
	return ensured, nil
}

// HasEdge reports whether the exact directed edge is stored.
func (s *Store) HasEdge(from domain.NodeRef, edgeType domain.EdgeType, to domain.NodeRef) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.edges[edgeKey{from: from, typ: edgeType, to: to}]
	return ok
}

// EdgeCount returns the number of stored edges of the given type.
func (s *Store) EdgeCount(edgeType domain.EdgeType) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for key := range s.edges {
		if key.typ == edgeType {
			n++
		}
	}
	return n
}

// OutDegree returns how many edges of the given type leave ref.
func (s *Store) OutDegree(ref domain.NodeRef, edgeType domain.EdgeType) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, key := range s.adj[ref] {
		if key.from == ref && key.typ == edgeType {
			n++
		}
	}
	return n
}

func (s *Store) exists(ref domain.NodeRef) bool {
	switch ref.Label {
	case domain.LabelUser:
		_, ok := s.users[ref.ID]
		return ok
	case domain.LabelTransaction:
		_, ok := s.txs[ref.ID]
		return ok
	}
	return false
}

// addEdge requires the write lock.
func (s *Store) addEdge(from domain.NodeRef, edgeType domain.EdgeType, to domain.NodeRef) {
	key := edgeKey{from: from, typ: edgeType, to: to}
	if _, ok := s.edges[key]; ok {
		return
	}
	s.edges[key] = struct{}{}
	s.adj[from] = append(s.adj[from], key)
	s.adj[to] = append(s.adj[to], key)
}

// neighbors walks edges touching ref in either direction and returns the
// refs on the other end whose edge type is in types (all types when empty).
func (s *Store) neighbors(ref domain.NodeRef, label domain.Label, types ...domain.EdgeType) []domain.NodeRef {
	seen := make(map[domain.NodeRef]struct{})
	var out []domain.NodeRef
	for _, key := range s.adj[ref] {
		if len(types) > 0 && !containsType(types, key.typ) {
			continue
		}
		other := key.to
		if other == ref {
			other = key.from
		}
		if other == ref || other.Label != label {
			continue
		}
		if _, dup := seen[other]; dup {
			continue
		}
		seen[other] = struct{}{}
		out = append(out, other)
	}
	return out
}

func containsType(types []domain.EdgeType, t domain.EdgeType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}

func transactionAttribute(name string) (func(domain.Transaction) string, bool) {
	switch name {
	case domain.AttributeIP:
		return func(t domain.Transaction) string { return t.IP }, true
	case domain.AttributeDeviceID:
		return func(t domain.Transaction) string { return t.DeviceID }, true
	}
	return nil, false
}

func userAttribute(name string) (func(domain.User) string, bool) {
	switch name {
	case "email":
		return func(u domain.User) string { return u.Email }, true
	case "phone":
		return func(u domain.User) string { return u.Phone }, true
	case "address":
		return func(u domain.User) string { return u.Address }, true
	}
	return nil, false
}

func sortRecentFirst(txs []domain.Transaction) {
	sort.Slice(txs, func(i, j int) bool {
		if txs[i].Timestamp != txs[j].Timestamp {
			return txs[i].Timestamp > txs[j].Timestamp
		}
		return txs[i].ID < txs[j].ID
	})
}

func sortUsers(users []domain.User) {
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
}

func cloneUser(u domain.User) domain.User {
	u.PaymentMethods = append([]string(nil), u.PaymentMethods...)
	return u
}

func cloneTransaction(t domain.Transaction) domain.Transaction {
	if t.Metadata != nil {
		metadata := make(map[string]any, len(t.Metadata))
		for k, v := range t.Metadata {
			metadata[k] = v
		}
		t.Metadata = metadata
	}
	return t
}
