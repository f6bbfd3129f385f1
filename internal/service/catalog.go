package service

import (
	"context"

	"github.com/vanshika/fintrace/internal/domain"
)

// Listing bounds.
const (
	DefaultPageLimit = 100
	MaxPageLimit     = 1000
)

// ListUsers returns users ordered by id.
func (s *RelationshipService) ListUsers(ctx context.Context, limit, skip int) ([]domain.User, error) {
	users, err := s.store.ListUsers(ctx, normalizePagination(limit, skip))
	return users, wrapOp("list users", err)
}

// ListTransactions returns transactions newest first.
func (s *RelationshipService) ListTransactions(ctx context.Context, limit, skip int) ([]domain.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx, normalizePagination(limit, skip))
	return txs, wrapOp("list transactions", err)
}

func (s *RelationshipService) CountUsers(ctx context.Context) (int64, error) {
	n, err := s.store.CountUsers(ctx)
	return n, wrapOp("count users", err)
}

func (s *RelationshipService) CountTransactions(ctx context.Context) (int64, error) {
	n, err := s.store.CountTransactions(ctx)
	return n, wrapOp("count transactions", err)
}

func (s *RelationshipService) ExportUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.store.ExportUsers(ctx)
	return users, wrapOp("export users", err)
}

func (s *RelationshipService) ExportTransactions(ctx context.Context) ([]domain.Transaction, error) {
	txs, err := s.store.ExportTransactions(ctx)
	return txs, wrapOp("export transactions", err)
}

func normalizePagination(limit, skip int) domain.Page {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if skip < 0 {
		skip = 0
	}
	return domain.Page{Limit: limit, Skip: skip}
}
