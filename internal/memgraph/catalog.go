package memgraph

import (
	"context"

	"github.com/vanshika/fintrace/internal/domain"
)

func (s *Store) ListUsers(ctx context.Context, page domain.Page) ([]domain.User, error) {
	users, err := s.ExportUsers(ctx)
	if err != nil {
		return nil, err
	}
	return paginate(users, page), nil
}

func (s *Store) ListTransactions(ctx context.Context, page domain.Page) ([]domain.Transaction, error) {
	txs, err := s.ExportTransactions(ctx)
	if err != nil {
		return nil, err
	}
	return paginate(txs, page), nil
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.users)), nil
}

func (s *Store) CountTransactions(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.txs)), nil
}

// ExportUsers returns every user ordered by id.
func (s *Store) ExportUsers(ctx context.Context) ([]domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, cloneUser(u))
	}
	sortUsers(users)
	return users, nil
}

// ExportTransactions returns every transaction newest first.
func (s *Store) ExportTransactions(ctx context.Context) ([]domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	txs := make([]domain.Transaction, 0, len(s.txs))
	for _, tx := range s.txs {
		txs = append(txs, cloneTransaction(tx))
	}
	sortRecentFirst(txs)
	return txs, nil
}

func paginate[T any](items []T, page domain.Page) []T {
	skip := page.Skip
	if skip < 0 {
		skip = 0
	}
	if skip >= len(items) {
		return []T{}
	}
	items = items[skip:]
	if page.Limit > 0 && len(items) > page.Limit {
		items = items[:page.Limit]
	}
	return items
}
