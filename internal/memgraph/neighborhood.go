package memgraph

import (
	"context"
	"fmt"
	"sort"

	"github.com/vanshika/fintrace/internal/domain"
)

var (
	partyEdges   = []domain.EdgeType{domain.EdgeSent, domain.EdgeReceivedBy}
	linkageEdges = []domain.EdgeType{domain.EdgeSameIP, domain.EdgeSameDevice}
)

func (s *Store) FetchNeighborhood(ctx context.Context, seed domain.NodeRef, hops domain.HopSpec) (domain.Neighborhood, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	switch seed.Label {
	case domain.LabelUser:
		user, ok := s.users[seed.ID]
		if !ok {
			return nil, nil
		}
		return s.userNeighborhood(user, hops), nil
	case domain.LabelTransaction:
		tx, ok := s.txs[seed.ID]
		if !ok {
			return nil, nil
		}
		return s.transactionNeighborhood(tx, hops), nil
	}
	return nil, fmt.Errorf("%w: seed label %s", domain.ErrInvalidQuery, seed.Label)
}

func (s *Store) userNeighborhood(user domain.User, hops domain.HopSpec) *domain.UserNeighborhood {
	seed := user.Ref()
	txRefs := s.neighbors(seed, domain.LabelTransaction, partyEdges...)

	counterparties := make(map[string]struct{})
	for _, ref := range txRefs {
		for _, party := range s.neighbors(ref, domain.LabelUser, partyEdges...) {
			if party != seed {
				counterparties[party.ID] = struct{}{}
			}
		}
	}

	var shared []domain.User
	direct := make(map[string]struct{})
	for _, ref := range sortedRefs(s.neighbors(seed, domain.LabelUser)) {
		direct[ref.ID] = struct{}{}
		shared = append(shared, cloneUser(s.users[ref.ID]))
	}
	for _, peer := range s.attributePeers(user) {
		if _, dup := direct[peer.ID]; !dup {
			shared = append(shared, peer)
		}
	}
	if hops.SharedLimit > 0 && len(shared) > hops.SharedLimit {
		shared = shared[:hops.SharedLimit]
	}

	return &domain.UserNeighborhood{
		User:           cloneUser(user),
		Transactions:   s.transactionsFor(sortedRefs(txRefs)),
		Counterparties: s.usersFor(sortedIDs(counterparties)),
		SharedUsers:    shared,
	}
}

// attributePeers returns users sharing an email, phone or address under
// domain.SameAttribute, ordered by id. The read lock must be held.
func (s *Store) attributePeers(user domain.User) []domain.User {
	var peers []domain.User
	for id, other := range s.users {
		if id == user.ID {
			continue
		}
		if domain.SameAttribute(user.Email, other.Email) ||
			domain.SameAttribute(user.Phone, other.Phone) ||
			domain.SameAttribute(user.Address, other.Address) {
			peers = append(peers, cloneUser(other))
		}
	}
	sortUsers(peers)
	return peers
}

func (s *Store) transactionNeighborhood(tx domain.Transaction, hops domain.HopSpec) *domain.TransactionNeighborhood {
	seed := tx.Ref()
	var senders, receivers []string
	for _, key := range s.adj[seed] {
		switch {
		case key.typ == domain.EdgeSent && key.to == seed && key.from.Label == domain.LabelUser:
			senders = append(senders, key.from.ID)
		case key.typ == domain.EdgeReceivedBy && key.from == seed && key.to.Label == domain.LabelUser:
			receivers = append(receivers, key.to.ID)
		}
	}
	sort.Strings(senders)
	sort.Strings(receivers)

	linked := sortedRefs(s.neighbors(seed, domain.LabelTransaction, linkageEdges...))
	if hops.LinkedLimit > 0 && len(linked) > hops.LinkedLimit {
		linked = linked[:hops.LinkedLimit]
	}

	return &domain.TransactionNeighborhood{
		Transaction: cloneTransaction(tx),
		Senders:     s.usersFor(senders),
		Receivers:   s.usersFor(receivers),
		Linked:      s.transactionsFor(linked),
	}
}

func (s *Store) usersFor(ids []string) []domain.User {
	users := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			users = append(users, cloneUser(u))
		}
	}
	return users
}

func (s *Store) transactionsFor(refs []domain.NodeRef) []domain.Transaction {
	txs := make([]domain.Transaction, 0, len(refs))
	for _, ref := range refs {
		if tx, ok := s.txs[ref.ID]; ok {
			txs = append(txs, cloneTransaction(tx))
		}
	}
	return txs
}

func sortedRefs(refs []domain.NodeRef) []domain.NodeRef {
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
	return refs
}

func sortedIDs(set map[string]struct{}) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
