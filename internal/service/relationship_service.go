package service

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vanshika/fintrace/internal/domain"
	"github.com/vanshika/fintrace/internal/logging"
	"github.com/vanshika/fintrace/internal/metrics"
)

// Fan-out bounds for linkage passes.
const (
	DefaultLinkLimit = 50
	BulkLinkLimit    = 20
)

// DefaultSharedLimit bounds SHARED_ATTRIBUTE neighbors per user neighborhood.
const DefaultSharedLimit = 50

// Options tunes a RelationshipService. Zero values pick the defaults.
type Options struct {
	LinkLimit   int
	SharedLimit int
	LinkedLimit int
	Logger      *slog.Logger
	Metrics     *metrics.Recorder
}

// RelationshipService orchestrates entity upsert, linkage and neighborhood
// assembly, delegating persistence to a GraphStore.
type RelationshipService struct {
	store     GraphStore
	linker    *LinkageEngine
	assembler *NeighborhoodAssembler
	logger    *slog.Logger
	metrics   *metrics.Recorder
	nowFn     func() time.Time
	newID     func() string
}

// NewRelationshipService wires the linkage engine and neighborhood assembler
// over store.
func NewRelationshipService(store GraphStore, opts Options) *RelationshipService {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	sharedLimit := opts.SharedLimit
	if sharedLimit <= 0 {
		sharedLimit = DefaultSharedLimit
	}
	return &RelationshipService{
		store:  store,
		linker: NewLinkageEngine(store, opts.LinkLimit, logger, opts.Metrics),
		assembler: NewNeighborhoodAssembler(store, domain.HopSpec{
			SharedLimit: sharedLimit,
			LinkedLimit: opts.LinkedLimit,
		}, opts.Metrics),
		logger:  logger,
		metrics: opts.Metrics,
		nowFn:   time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

// WithClock overrides the time provider (used primarily in tests).
func (s *RelationshipService) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		s.nowFn = nowFn
	}
}

// WithIDGenerator overrides how missing ids are generated.
func (s *RelationshipService) WithIDGenerator(fn func() string) {
	if fn != nil {
		s.newID = fn
	}
}

// Linker returns the single-insert linkage engine.
func (s *RelationshipService) Linker() *LinkageEngine {
	return s.linker
}

// Assembler returns the neighborhood assembler.
func (s *RelationshipService) Assembler() *NeighborhoodAssembler {
	return s.assembler
}
