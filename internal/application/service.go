package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"vn.io.arda/console-sync/internal/batch"
	"vn.io.arda/console-sync/internal/cache"
	"vn.io.arda/console-sync/internal/domain"
	"vn.io.arda/console-sync/internal/poller"
	"vn.io.arda/console-sync/internal/query"
)

// Remote is everything the core needs from the console backend.
type Remote interface {
	domain.NotificationAPI
	domain.ReviewAPI
}

// Options configures the core components. Zero values take each component's
// defaults.
type Options struct {
	Cache  cache.Options
	Poller PollSettings
	Batch  batch.Options
}

// PollSettings configures the aggregate poller.
type PollSettings struct {
	Interval time.Duration
	Timeout  time.Duration
}

// Service is the core context object. It owns the resource cache, the
// aggregate poller and the batch executor and is passed explicitly to every
// surface that needs them.
type Service struct {
	cache    *cache.Cache
	composer *query.Composer
	poller   *poller.Poller
	executor *batch.Executor
}

// NewService wires the core around remote. journal may be nil, in which
// case batch results are kept in memory.
func NewService(remote Remote, journal domain.BatchJournal, opts Options) (*Service, error) {
	c, err := cache.New(opts.Cache)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}

	composer := query.NewComposer(c)
	composer.Register(domain.KindNotification, func(ctx context.Context, p domain.ListParams) (any, error) {
		return remote.ListNotifications(ctx, p)
	})
	composer.Register(domain.KindReview, func(ctx context.Context, p domain.ListParams) (any, error) {
		return remote.ListReviews(ctx, p)
	})

	agg := poller.New(remote, opts.Poller.Interval, opts.Poller.Timeout)
	exec := batch.NewExecutor(remote, remote, c, agg, journal, opts.Batch)

	return &Service{
		cache:    c,
		composer: composer,
		poller:   agg,
		executor: exec,
	}, nil
}

// Start begins aggregate polling. It does not block.
func (s *Service) Start(ctx context.Context) {
	s.poller.Start(ctx)
}

// Close stops background work and drops cached pages. It is safe to call
// more than once.
func (s *Service) Close() {
	s.poller.Stop()
	s.cache.Purge()
}

// Fetch returns one page of kind through the cache.
func (s *Service) Fetch(ctx context.Context, kind domain.Kind, filters domain.Filters, page domain.PageRequest) (cache.Entry, error) {
	return s.composer.Fetch(ctx, kind, filters, page)
}

// ListNotifications is Fetch for the notification kind with the page typed.
func (s *Service) ListNotifications(ctx context.Context, filters domain.Filters, page domain.PageRequest) (*domain.Page[domain.Notification], cache.Entry, error) {
	return query.Typed[domain.Notification](ctx, s.composer, domain.KindNotification, filters, page)
}

// ListReviews is Fetch for the review kind with the page typed.
func (s *Service) ListReviews(ctx context.Context, filters domain.Filters, page domain.PageRequest) (*domain.Page[domain.ReviewItem], cache.Entry, error) {
	return query.Typed[domain.ReviewItem](ctx, s.composer, domain.KindReview, filters, page)
}

// SubscribeToAggregate registers fn for unread-count changes.
func (s *Service) SubscribeToAggregate(fn func(int64)) (unsubscribe func()) {
	return s.poller.Subscribe(fn)
}

// UnreadCount returns the last known aggregate without fetching.
func (s *Service) UnreadCount() (int64, bool) {
	return s.poller.Current()
}

// RefreshAggregate forces a poll now and waits for it.
func (s *Service) RefreshAggregate(ctx context.Context) error {
	return s.poller.Refresh(ctx)
}

// RunBatchTransition applies action to ids as seen from view.
func (s *Service) RunBatchTransition(ctx context.Context, req domain.BatchRequest) (*domain.BatchResult, error) {
	return s.executor.Run(ctx, req)
}

// RetryBatch re-runs the failed and not-attempted ids of an earlier batch.
func (s *Service) RetryBatch(ctx context.Context, id uuid.UUID, actor string) (*domain.BatchResult, error) {
	return s.executor.Retry(ctx, id, actor)
}

// GetBatch returns a journaled batch result.
func (s *Service) GetBatch(ctx context.Context, id uuid.UUID) (*domain.BatchResult, error) {
	return s.executor.Get(ctx, id)
}

// RecentBatches lists journaled batches, newest first.
func (s *Service) RecentBatches(ctx context.Context, limit int) ([]*domain.BatchResult, error) {
	return s.executor.Recent(ctx, limit)
}

// MarkAllRead marks every notification read in one server-side operation.
func (s *Service) MarkAllRead(ctx context.Context) error {
	return s.executor.MarkAllRead(ctx)
}

// Invalidate marks every cached page of kind stale. It returns the number of
// entries marked.
func (s *Service) Invalidate(kind domain.Kind) (int, error) {
	if !kind.Valid() {
		return 0, fmt.Errorf("invalidate %q: unknown kind: %w", kind, domain.ErrInvalidRequest)
	}
	n := s.cache.Invalidate(domain.ByKind(kind))
	log.Debug().Str("kind", string(kind)).Int("entries", n).Msg("cache invalidated")
	return n, nil
}

// ApplyInvalidation reacts to a server-side event: stale kinds are marked
// and the aggregate is re-polled when it may have moved.
func (s *Service) ApplyInvalidation(ctx context.Context, inv domain.Invalidation) {
	for _, kind := range inv.Kinds {
		if _, err := s.Invalidate(kind); err != nil {
			log.Warn().Err(err).Str("event_id", inv.SourceEventID).Msg("skipping invalidation")
		}
	}
	if inv.RefreshAggregate {
		if s.poller.Status().Running {
			s.poller.Trigger()
		} else if err := s.poller.Refresh(ctx); err != nil {
			log.Warn().Err(err).Str("event_id", inv.SourceEventID).Msg("aggregate refresh after event failed")
		}
	}
	log.Debug().
		Str("event_id", inv.SourceEventID).
		Str("reason", inv.Reason).
		Bool("aggregate", inv.RefreshAggregate).
		Msg("applied server invalidation")
}

// Health is the core's status snapshot.
type Health struct {
	Aggregate poller.Status `json:"aggregate"`
	Cache     cache.Stats   `json:"cache"`
}

// Health reports poller and cache state.
func (s *Service) Health() Health {
	return Health{Aggregate: s.poller.Status(), Cache: s.cache.Stats()}
}
