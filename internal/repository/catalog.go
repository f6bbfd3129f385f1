package repository

import (
	"context"
	"fmt"

	"github.com/vanshika/fintrace/internal/domain"
	"github.com/vanshika/fintrace/internal/graph"
)

// ListUsers returns users ordered by id.
func (r *Repository) ListUsers(ctx context.Context, page domain.Page) ([]domain.User, error) {
	res, err := r.client.ExecuteRead(ctx, listUsersCypher, pageParams(page))
	if err != nil {
		return nil, fmt.Errorf("list users query: %w", err)
	}
	return recordsToUsers(res.Records), nil
}

// ListTransactions returns transactions newest first.
func (r *Repository) ListTransactions(ctx context.Context, page domain.Page) ([]domain.Transaction, error) {
	res, err := r.client.ExecuteRead(ctx, listTransactionsCypher, pageParams(page))
	if err != nil {
		return nil, fmt.Errorf("list transactions query: %w", err)
	}
	return recordsToTransactions(res.Records), nil
}

func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	res, err := r.client.ExecuteRead(ctx, countUsersCypher, nil)
	if err != nil {
		return 0, fmt.Errorf("count users query: %w", err)
	}
	return totalOf(res.Single()), nil
}

func (r *Repository) CountTransactions(ctx context.Context) (int64, error) {
	res, err := r.client.ExecuteRead(ctx, countTransactionsCypher, nil)
	if err != nil {
		return 0, fmt.Errorf("count transactions query: %w", err)
	}
	return totalOf(res.Single()), nil
}

// ExportUsers returns every user for export purposes.
func (r *Repository) ExportUsers(ctx context.Context) ([]domain.User, error) {
	res, err := r.client.ExecuteRead(ctx, exportUsersCypher, nil)
	if err != nil {
		return nil, fmt.Errorf("export users query: %w", err)
	}
	return recordsToUsers(res.Records), nil
}

// ExportTransactions returns every transaction for export purposes.
func (r *Repository) ExportTransactions(ctx context.Context) ([]domain.Transaction, error) {
	res, err := r.client.ExecuteRead(ctx, exportTransactionsCypher, nil)
	if err != nil {
		return nil, fmt.Errorf("export transactions query: %w", err)
	}
	return recordsToTransactions(res.Records), nil
}

func pageParams(page domain.Page) map[string]any {
	skip := page.Skip
	if skip < 0 {
		skip = 0
	}
	return map[string]any{
		"skip":  int64(skip),
		"limit": int64(page.Limit),
	}
}

func recordsToUsers(records []graph.Record) []domain.User {
	users := make([]domain.User, 0, len(records))
	for _, record := range records {
		users = append(users, userFromProps(record["user"]))
	}
	return users
}

func recordsToTransactions(records []graph.Record) []domain.Transaction {
	txs := make([]domain.Transaction, 0, len(records))
	for _, record := range records {
		txs = append(txs, transactionFromProps(record["transaction"]))
	}
	return txs
}

func totalOf(record graph.Record) int64 {
	if record == nil {
		return 0
	}
	return toInt64(record["total"])
}

const listUsersCypher = `
MATCH (u:User)
RETURN u {.*} AS user
ORDER BY u.id ASC
SKIP $skip LIMIT $limit
`

const listTransactionsCypher = `
MATCH (t:Transaction)
RETURN t {.*} AS transaction
ORDER BY t.timestamp DESC, t.id ASC
SKIP $skip LIMIT $limit
`

const countUsersCypher = `
MATCH (u:User)
RETURN count(u) AS total
`

const countTransactionsCypher = `
MATCH (t:Transaction)
RETURN count(t) AS total
`

const exportUsersCypher = `
MATCH (u:User)
RETURN u {.*} AS user
ORDER BY u.id ASC
`

const exportTransactionsCypher = `
MATCH (t:Transaction)
RETURN t {.*} AS transaction
ORDER BY t.timestamp DESC, t.id ASC
`
