package application_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vn.io.arda/console-sync/internal/application"
	"vn.io.arda/console-sync/internal/domain"
	"vn.io.arda/console-sync/internal/infrastructure/memory"
)

var firstPage = domain.PageRequest{Page: 1, PageSize: 10}

func newService(t *testing.T, b *memory.Backend) *application.Service {
	t.Helper()
	svc, err := application.NewService(b, nil, application.Options{})
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc
}

func seedUnread(b *memory.Backend, n int) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		b.AddNotification(domain.Notification{
			ID:        string(rune('a' + i)),
			Title:     "hello",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
}

func TestMarkAllRead_DropsAggregateToZero(t *testing.T) {
	b := memory.New()
	seedUnread(b, 5)
	svc := newService(t, b)
	ctx := context.Background()

	require.NoError(t, svc.RefreshAggregate(ctx))
	count, ok := svc.UnreadCount()
	require.True(t, ok)
	require.Equal(t, int64(5), count)

	require.NoError(t, svc.MarkAllRead(ctx))

	count, _ = svc.UnreadCount()
	assert.Equal(t, int64(0), count)

	page, _, err := svc.ListNotifications(ctx, domain.Filters{Status: "unread"}, firstPage)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestMarkAllRead_FailureKeepsAggregate(t *testing.T) {
	b := memory.New()
	seedUnread(b, 5)
	svc := newService(t, b)
	ctx := context.Background()
	require.NoError(t, svc.RefreshAggregate(ctx))

	b.Fail("MarkAllRead", domain.ErrTransient)
	err := svc.MarkAllRead(ctx)
	assert.ErrorIs(t, err, domain.ErrTransient)

	count, ok := svc.UnreadCount()
	assert.True(t, ok)
	assert.Equal(t, int64(5), count)
	assert.Equal(t, 1, b.Calls("UnreadCount"), "no refresh after a failed mark-all")
}

func TestPublishMovesReviewsBetweenTabs(t *testing.T) {
	b := memory.New()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"r1", "r2", "r3", "r4"} {
		b.AddReview(domain.ReviewItem{ID: id, CreatedAt: base.Add(time.Duration(i) * time.Minute)})
	}
	svc := newService(t, b)
	ctx := context.Background()

	pending := domain.Filters{Status: domain.ViewPending.StatusFilter()}
	published := domain.Filters{Status: domain.ViewPublished.StatusFilter()}

	before, _, err := svc.ListReviews(ctx, pending, firstPage)
	require.NoError(t, err)
	require.Len(t, before.Items, 4)
	_, _, err = svc.ListReviews(ctx, published, firstPage)
	require.NoError(t, err)

	result, err := svc.RunBatchTransition(ctx, domain.BatchRequest{
		Kind:   domain.KindReview,
		IDs:    []string{"r1", "r2", "r3"},
		Action: domain.ActionPublish,
		View:   domain.ViewPending,
	})
	require.NoError(t, err)
	assert.True(t, result.AllSucceeded())

	after, entry, err := svc.ListReviews(ctx, pending, firstPage)
	require.NoError(t, err)
	assert.False(t, entry.Stale)
	require.Len(t, after.Items, 1)
	assert.Equal(t, "r4", after.Items[0].ID)

	pub, _, err := svc.ListReviews(ctx, published, firstPage)
	require.NoError(t, err)
	var ids []string
	for _, r := range pub.Items {
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, []string{"r1", "r2", "r3"}, ids)
}

func TestPartialFailureThenRetry(t *testing.T) {
	b := memory.New()
	for _, id := range []string{"r1", "r2", "r3"} {
		b.AddReview(domain.ReviewItem{ID: id})
	}
	b.Fail("SetReviewStatus:r2", domain.ErrTransient)
	svc := newService(t, b)
	ctx := context.Background()

	result, err := svc.RunBatchTransition(ctx, domain.BatchRequest{
		Kind: domain.KindReview, IDs: []string{"r1", "r2", "r3"},
		Action: domain.ActionPublish, View: domain.ViewPending,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r3"}, result.Succeeded)
	assert.Equal(t, []string{"r2"}, result.FailedIDs())

	outcome := application.NewBatchOutcome(result)
	assert.Contains(t, outcome.Summary, "2 of 3 succeeded")

	b.Fail("SetReviewStatus:r2", nil)
	retry, err := svc.RetryBatch(ctx, result.ID, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"r2"}, retry.Succeeded)
	require.NotNil(t, retry.RetryOf)
	assert.Equal(t, result.ID, *retry.RetryOf)

	status, _ := b.ReviewStatus("r2")
	assert.Equal(t, domain.ReviewPublished, status)

	stored, err := svc.GetBatch(ctx, retry.ID)
	require.NoError(t, err)
	assert.Equal(t, retry.ID, stored.ID)
}

func TestFetch_ConcurrentCallersShareOneLoad(t *testing.T) {
	b := memory.New()
	seedUnread(b, 3)
	svc := newService(t, b)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Fetch(context.Background(), domain.KindNotification, domain.Filters{Search: " hello "}, firstPage)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	_, err := svc.Fetch(context.Background(), domain.KindNotification, domain.Filters{Search: "hello"}, domain.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, b.Calls("ListNotifications"))
}

func TestInvalidate(t *testing.T) {
	b := memory.New()
	seedUnread(b, 2)
	svc := newService(t, b)
	ctx := context.Background()

	_, err := svc.Fetch(ctx, domain.KindNotification, domain.Filters{}, firstPage)
	require.NoError(t, err)

	n, err := svc.Invalidate(domain.KindNotification)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = svc.Invalidate(domain.Kind("orders"))
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	entry, err := svc.Fetch(ctx, domain.KindNotification, domain.Filters{}, firstPage)
	require.NoError(t, err)
	assert.False(t, entry.Stale)
	assert.Equal(t, 2, b.Calls("ListNotifications"))
}

func TestApplyInvalidation_RefreshesAggregateWhenIdle(t *testing.T) {
	b := memory.New()
	seedUnread(b, 1)
	svc := newService(t, b)
	ctx := context.Background()
	require.NoError(t, svc.RefreshAggregate(ctx))

	var mu sync.Mutex
	var seen []int64
	unsubscribe := svc.SubscribeToAggregate(func(v int64) {
		mu.Lock()
		seen = append(seen, v)
		mu.Unlock()
	})
	defer unsubscribe()

	b.AddNotification(domain.Notification{ID: "late"})
	svc.ApplyInvalidation(ctx, domain.Invalidation{
		Kinds:            []domain.Kind{domain.KindNotification},
		RefreshAggregate: true,
	})

	count, _ := svc.UnreadCount()
	assert.Equal(t, int64(2), count)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int64{1, 2}, seen)
}

func TestHealth(t *testing.T) {
	b := memory.New()
	svc := newService(t, b)
	svc.Start(context.Background())

	require.Eventually(t, func() bool {
		return svc.Health().Aggregate.Known
	}, time.Second, 5*time.Millisecond)

	h := svc.Health()
	assert.True(t, h.Aggregate.Running)
	assert.Equal(t, int64(0), h.Aggregate.Value)
}

func TestClose_DropsCachedPages(t *testing.T) {
	b := memory.New()
	seedUnread(b, 2)
	svc := newService(t, b)
	ctx := context.Background()
	svc.Start(ctx)

	_, err := svc.Fetch(ctx, domain.KindNotification, domain.Filters{}, firstPage)
	require.NoError(t, err)
	require.Equal(t, 1, svc.Health().Cache.Entries)

	svc.Close()
	h := svc.Health()
	assert.Equal(t, 0, h.Cache.Entries)
	assert.False(t, h.Aggregate.Running)
	svc.Close()
}
