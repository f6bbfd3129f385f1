package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vanshika/fintrace/internal/domain"
	"github.com/vanshika/fintrace/internal/logging"
	"github.com/vanshika/fintrace/internal/metrics"
)

// LinkPass summarizes one attribute pass.
type LinkPass struct {
	Attribute  string
	EdgeType   domain.EdgeType
	Candidates int
	Linked     int
	Capped     bool
}

// LinkReport summarizes the linkage of one transaction.
type LinkReport struct {
	TransactionID string
	Passes        []LinkPass
}

// Linked returns the number of linkage edges ensured across all passes.
func (r LinkReport) Linked() int {
	total := 0
	for _, p := range r.Passes {
		total += p.Linked
	}
	return total
}

// LinkageEngine creates SAME_IP and SAME_DEVICE edges from a newly inserted
// transaction toward existing transactions sharing the attribute. Each pass
// links to at most limit transactions, never to the transaction itself.
type LinkageEngine struct {
	store   LinkStore
	limit   int
	logger  *slog.Logger
	metrics *metrics.Recorder
}

// NewLinkageEngine returns an engine with the given fan-out bound. A
// non-positive limit selects DefaultLinkLimit and larger values are clamped
// to it.
func NewLinkageEngine(store LinkStore, limit int, logger *slog.Logger, rec *metrics.Recorder) *LinkageEngine {
	limit = clampLimit(limit, DefaultLinkLimit)
	if logger == nil {
		logger = logging.Discard()
	}
	return &LinkageEngine{store: store, limit: limit, logger: logger, metrics: rec}
}

// WithLimit returns a copy of the engine using a different fan-out bound,
// never above DefaultLinkLimit.
func (e *LinkageEngine) WithLimit(limit int) *LinkageEngine {
	clone := *e
	if limit > 0 {
		clone.limit = clampLimit(limit, DefaultLinkLimit)
	}
	return &clone
}

// clampLimit maps a non-positive limit to bound and caps the rest at bound.
func clampLimit(limit, bound int) int {
	if limit <= 0 || limit > bound {
		return bound
	}
	return limit
}

// Limit reports the fan-out bound.
func (e *LinkageEngine) Limit() int {
	return e.limit
}

// Link runs the ip pass then the deviceId pass for tx. Candidates beyond the
// bound are chosen most recent first. Re-running is safe: edges are merged.
func (e *LinkageEngine) Link(ctx context.Context, tx domain.Transaction) (LinkReport, error) {
	report := LinkReport{TransactionID: tx.ID}
	from := tx.Ref()

	for _, attr := range linkAttributes(tx) {
		start := time.Now()
		candidates, err := e.store.FindByAttribute(ctx, domain.AttributeQuery{
			Label:     domain.LabelTransaction,
			Attribute: attr.Name,
			Value:     attr.Value,
			ExcludeID: tx.ID,
			// One extra row tells a full pass from a truncated one.
			Limit:     e.limit + 1,
		})
		e.metrics.ObserveStore("find_by_attribute", start)
		if err != nil {
			return report, fmt.Errorf("find transactions sharing %s: %w", attr.Name, err)
		}

		targets, capped := boundTargets(from, candidates, e.limit)
		pass := LinkPass{
			Attribute:  attr.Name,
			EdgeType:   attr.Edge,
			Candidates: len(targets),
			Capped:     capped,
		}

		if len(targets) > 0 {
			start = time.Now()
			pass.Linked, err = e.store.MergeDirectedEdges(ctx, from, attr.Edge, targets)
			e.metrics.ObserveStore("merge_edges", start)
			if err != nil {
				return report, fmt.Errorf("merge %s edges: %w", attr.Edge, err)
			}
		}

		e.metrics.LinkageEdges(string(attr.Edge), pass.Linked)
		if pass.Capped {
			e.metrics.LinkageCapReached(string(attr.Edge))
			e.logger.Debug("linkage fan-out bound reached",
				slog.String("transaction_id", tx.ID),
				slog.String("edge_type", string(attr.Edge)),
				slog.Int("limit", e.limit),
			)
		}
		report.Passes = append(report.Passes, pass)
	}

	return report, nil
}

// boundTargets drops self references and duplicates and enforces the bound
// even if the store returned more than asked for. capped reports whether
// valid candidates were left out.
func boundTargets(from domain.NodeRef, candidates []domain.NodeRef, limit int) (targets []domain.NodeRef, capped bool) {
	seen := make(map[domain.NodeRef]struct{}, len(candidates))
	targets = make([]domain.NodeRef, 0, min(len(candidates), limit))
	for _, ref := range candidates {
		if ref == from || ref.Label != domain.LabelTransaction {
			continue
		}
		if _, dup := seen[ref]; dup {
			continue
		}
		if len(targets) == limit {
			return targets, true
		}
		seen[ref] = struct{}{}
		targets = append(targets, ref)
	}
	return targets, false
}
