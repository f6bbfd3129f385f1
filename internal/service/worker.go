package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// TaskError accumulates multiple errors produced during bulk ingestion.
type TaskError struct {
	Errors []error
}

func (e *TaskError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d errors:", len(e.Errors))
	for _, err := range e.Errors {
		msg += " " + err.Error() + ";"
	}
	return msg
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e *TaskError) Unwrap() []error {
	return e.Errors
}

func (e *TaskError) append(err error) {
	if err == nil {
		return
	}
	e.Errors = append(e.Errors, err)
}

func (e *TaskError) asError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// BulkOptions configures a BulkIngestor.
type BulkOptions struct {
	Workers int
	// RatePerSecond caps store writes across workers; zero disables it.
	RatePerSecond float64
	// LinkLimit is the fan-out bound used for bulk loads.
	LinkLimit int
}

// BulkStats reports what a bulk run did.
type BulkStats struct {
	Processed   int64
	Failed      int64
	LinkedEdges int64
}

// BulkIngestor loads large user and transaction datasets through the same
// upsert and linkage path as single inserts, using a bounded worker pool and
// the tighter bulk fan-out bound.
type BulkIngestor struct {
	service *RelationshipService
	linker  *LinkageEngine
	workers int
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewBulkIngestor creates a new BulkIngestor instance with the provided options.
func NewBulkIngestor(service *RelationshipService, opts BulkOptions) *BulkIngestor {
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}
	linkLimit := clampLimit(opts.LinkLimit, BulkLinkLimit)

	var limiter *rate.Limiter
	if opts.RatePerSecond > 0 {
		burst := int(opts.RatePerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	}

	return &BulkIngestor{
		service: service,
		linker:  service.linker.WithLimit(linkLimit),
		workers: workers,
		limiter: limiter,
		logger:  service.logger,
	}
}

// IngestUsers processes the provided user inputs concurrently.
func (bi *BulkIngestor) IngestUsers(ctx context.Context, users []UserInput) (BulkStats, error) {
	return bi.run(ctx, len(users), func(ctx context.Context, idx int) (int, error) {
		_, err := bi.service.UpsertUser(ctx, users[idx])
		if err != nil {
			return 0, fmt.Errorf("user %d (%s): %w", idx, users[idx].resolvedID(), err)
		}
		return 0, nil
	})
}

// IngestTransactions processes transaction inputs concurrently. Users should
// be loaded first so party edges can attach.
func (bi *BulkIngestor) IngestTransactions(ctx context.Context, txs []TransactionInput) (BulkStats, error) {
	return bi.run(ctx, len(txs), func(ctx context.Context, idx int) (int, error) {
		_, report, err := bi.service.createTransaction(ctx, txs[idx], bi.linker)
		if err != nil {
			return report.Linked(), fmt.Errorf("transaction %d (%s): %w", idx, txs[idx].ID, err)
		}
		return report.Linked(), nil
	})
}

func (bi *BulkIngestor) run(ctx context.Context, total int, workerFn func(ctx context.Context, idx int) (int, error)) (BulkStats, error) {
	var stats BulkStats
	if total == 0 {
		return stats, nil
	}

	var (
		mu      sync.Mutex
		taskErr TaskError
	)

	g := new(errgroup.Group)
	g.SetLimit(bi.workers)

	for i := 0; i < total; i++ {
		if ctx.Err() != nil {
			break
		}
		if bi.limiter != nil {
			if err := bi.limiter.Wait(ctx); err != nil {
				break
			}
		}

		idx := i
		g.Go(func() error {
			linked, err := workerFn(ctx, idx)
			atomic.AddInt64(&stats.LinkedEdges, int64(linked))
			if err != nil {
				atomic.AddInt64(&stats.Failed, 1)
				mu.Lock()
				taskErr.append(err)
				mu.Unlock()
				return nil
			}
			atomic.AddInt64(&stats.Processed, 1)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	for _, err := range taskErr.Errors {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return stats, err
		}
	}

	if len(taskErr.Errors) > 0 {
		bi.logger.Warn("bulk ingest finished with failures",
			slog.Int64("processed", stats.Processed),
			slog.Int64("failed", stats.Failed),
		)
	}
	return stats, taskErr.asError()
}
