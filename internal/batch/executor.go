// Package batch applies status transitions to sets of entities, one remote
// call at a time, and reconciles the cache afterwards.
//
// A batch is not transactional. Items that succeeded stay applied when a
// later item fails; the BatchResult says exactly which ids took effect.
package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"vn.io.arda/console-sync/internal/domain"
)

const DefaultItemTimeout = 10 * time.Second

// NotificationMutator is the subset of the notification API the executor drives.
type NotificationMutator interface {
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
	DeleteNotification(ctx context.Context, id string) error
}

// ReviewMutator is the subset of the review API the executor drives.
type ReviewMutator interface {
	SetReviewStatus(ctx context.Context, id string, status domain.ReviewStatus) error
	DeleteReview(ctx context.Context, id string) error
}

// Invalidator marks cache entries stale.
type Invalidator interface {
	Invalidate(match func(domain.QueryKey) bool) int
}

// Refresher forces an aggregate refresh.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Options configures an Executor.
type Options struct {
	Policy      domain.FailurePolicy
	ItemTimeout time.Duration
	Now         func() time.Time
}

// Executor runs batch transitions. It is safe for concurrent use; each Run
// is sequential internally.
type Executor struct {
	notifications NotificationMutator
	reviews       ReviewMutator
	cache         Invalidator
	aggregate     Refresher
	journal       domain.BatchJournal

	policy      domain.FailurePolicy
	itemTimeout time.Duration
	now         func() time.Time
}

// NewExecutor creates an Executor. aggregate may be nil; journal defaults to
// an in-memory journal.
func NewExecutor(
	notifications NotificationMutator,
	reviews ReviewMutator,
	cache Invalidator,
	aggregate Refresher,
	journal domain.BatchJournal,
	opts Options,
) *Executor {
	if opts.Policy == "" {
		opts.Policy = domain.ContinueOnError
	}
	if opts.ItemTimeout <= 0 {
		opts.ItemTimeout = DefaultItemTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if journal == nil {
		journal = NewMemoryJournal(0)
	}
	return &Executor{
		notifications: notifications,
		reviews:       reviews,
		cache:         cache,
		aggregate:     aggregate,
		journal:       journal,
		policy:        opts.Policy,
		itemTimeout:   opts.ItemTimeout,
		now:           opts.Now,
	}
}

// Run applies req.Action to every id in req.IDs, in order, awaiting each
// remote call before issuing the next.
//
// The returned error is non-nil only when the request is rejected before any
// remote call is made. Per-item failures are reported in the result.
func (e *Executor) Run(ctx context.Context, req domain.BatchRequest) (*domain.BatchResult, error) {
	return e.run(ctx, req, nil)
}

// Retry re-runs the failed and not-attempted ids of a journaled batch with
// its original action and view.
func (e *Executor) Retry(ctx context.Context, batchID uuid.UUID, actor string) (*domain.BatchResult, error) {
	prev, err := e.journal.Get(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("load batch %s: %w", batchID, err)
	}

	remaining := prev.Remaining()
	if len(remaining) == 0 {
		return nil, fmt.Errorf("batch %s has nothing to retry: %w", batchID, domain.ErrInvalidRequest)
	}

	return e.run(ctx, domain.BatchRequest{
		Kind:   prev.Kind,
		IDs:    remaining,
		Action: prev.Action,
		View:   prev.View,
		Actor:  actor,
	}, &prev.ID)
}

// Get returns a journaled batch result.
func (e *Executor) Get(ctx context.Context, batchID uuid.UUID) (*domain.BatchResult, error) {
	return e.journal.Get(ctx, batchID)
}

// Recent lists journaled batches, newest first.
func (e *Executor) Recent(ctx context.Context, limit int) ([]*domain.BatchResult, error) {
	return e.journal.Recent(ctx, limit)
}

// MarkAllRead issues the single server-side mark-all-read operation. The
// aggregate is refreshed only when the call succeeds.
func (e *Executor) MarkAllRead(ctx context.Context) error {
	err := e.notifications.MarkAllRead(ctx)
	e.cache.Invalidate(domain.ByKind(domain.KindNotification))
	if err != nil {
		log.Warn().Err(err).Msg("mark all notifications read failed")
		return fmt.Errorf("mark all read: %w", err)
	}

	e.refreshAggregate(ctx)
	return nil
}

func (e *Executor) run(ctx context.Context, req domain.BatchRequest, retryOf *uuid.UUID) (*domain.BatchResult, error) {
	ids := dedupe(req.IDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("batch %s %s: no ids: %w", req.Kind, req.Action, domain.ErrInvalidRequest)
	}

	apply, err := e.resolve(req.Kind, req.Action, req.View)
	if err != nil {
		return nil, err
	}

	result := &domain.BatchResult{
		ID:           uuid.New(),
		Kind:         req.Kind,
		Action:       req.Action,
		View:         req.View,
		Actor:        req.Actor,
		Succeeded:    []string{},
		Failed:       []domain.ItemFailure{},
		NotAttempted: []string{},
		RetryOf:      retryOf,
		StartedAt:    e.now(),
	}

	logger := log.With().
		Str("batch_id", result.ID.String()).
		Str("kind", string(req.Kind)).
		Str("action", string(req.Action)).
		Str("view", string(req.View)).
		Logger()

	for i, id := range ids {
		if ctx.Err() != nil {
			result.NotAttempted = append(result.NotAttempted, ids[i:]...)
			logger.Warn().Int("not_attempted", len(ids)-i).Msg("batch cancelled, remaining items not issued")
			break
		}

		err := e.applyOne(ctx, apply, id)
		if err == nil || errors.Is(err, domain.ErrAlreadyApplied) {
			result.Succeeded = append(result.Succeeded, id)
			continue
		}

		result.Failed = append(result.Failed, domain.ItemFailure{
			ID:      id,
			Class:   domain.Classify(err),
			Message: err.Error(),
			Err:     err,
		})
		logger.Warn().Err(err).Str("id", id).Msg("batch item failed")

		if e.policy == domain.StopOnError {
			result.NotAttempted = append(result.NotAttempted, ids[i+1:]...)
			break
		}
	}
	result.FinishedAt = e.now()

	e.reconcile(ctx, req.Kind, len(result.Succeeded) > 0)
	e.record(ctx, result, logger)

	logger.Info().
		Int("succeeded", len(result.Succeeded)).
		Int("failed", len(result.Failed)).
		Int("not_attempted", len(result.NotAttempted)).
		Msg("batch transition finished")

	return result, nil
}

// applyOne runs a single item. Once issued, the call is not cut short by the
// caller's cancellation so its outcome is always known.
func (e *Executor) applyOne(ctx context.Context, apply step, id string) error {
	ictx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.itemTimeout)
	defer cancel()
	return apply(ictx, id)
}

// reconcile invalidates the kind exactly once per batch. Even a fully failed
// batch may have changed server state before erroring.
func (e *Executor) reconcile(ctx context.Context, kind domain.Kind, anySucceeded bool) {
	marked := e.cache.Invalidate(domain.ByKind(kind))
	log.Debug().Str("kind", string(kind)).Int("entries", marked).Msg("cache invalidated after batch")

	if kind == domain.KindNotification && anySucceeded {
		e.refreshAggregate(ctx)
	}
}

func (e *Executor) refreshAggregate(ctx context.Context) {
	if e.aggregate == nil {
		return
	}
	if err := e.aggregate.Refresh(context.WithoutCancel(ctx)); err != nil {
		log.Debug().Err(err).Msg("forced unread-count refresh failed")
	}
}

func (e *Executor) record(ctx context.Context, result *domain.BatchResult, logger zerolog.Logger) {
	if err := e.journal.Save(context.WithoutCancel(ctx), result); err != nil {
		logger.Error().Err(err).Msg("failed to journal batch result")
	}
}

// dedupe drops empty and repeated ids, keeping first occurrences in order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
