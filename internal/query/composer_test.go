package query_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vn.io.arda/console-sync/internal/cache"
	"vn.io.arda/console-sync/internal/domain"
	"vn.io.arda/console-sync/internal/query"
)

func newComposer(t *testing.T) (*query.Composer, *atomic.Int32, *[]domain.ListParams) {
	t.Helper()
	c, err := cache.New(cache.Options{})
	require.NoError(t, err)

	var calls atomic.Int32
	var seen []domain.ListParams
	comp := query.NewComposer(c)
	comp.Register(domain.KindNotification, func(_ context.Context, p domain.ListParams) (any, error) {
		calls.Add(1)
		seen = append(seen, p)
		return &domain.Page[domain.Notification]{Page: p.Page.Page, PageSize: p.Page.PageSize}, nil
	})
	return comp, &calls, &seen
}

func TestFetch_EquivalentFiltersHitSameEntry(t *testing.T) {
	comp, calls, _ := newComposer(t)
	ctx := context.Background()

	_, err := comp.Fetch(ctx, domain.KindNotification, domain.Filters{Status: ""}, domain.PageRequest{Page: 1})
	require.NoError(t, err)
	_, err = comp.Fetch(ctx, domain.KindNotification, domain.Filters{}, domain.PageRequest{})
	require.NoError(t, err)
	_, err = comp.Fetch(ctx, domain.KindNotification, domain.Filters{Category: "  "}, domain.PageRequest{Page: -3, PageSize: 10})
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
}

func TestFetch_PassesNormalizedParams(t *testing.T) {
	comp, _, seen := newComposer(t)

	_, err := comp.Fetch(context.Background(), domain.KindNotification,
		domain.Filters{Status: " UNREAD ", Search: " Late Order "},
		domain.PageRequest{Page: 3, PageSize: 1000})
	require.NoError(t, err)

	require.Len(t, *seen, 1)
	got := (*seen)[0]
	assert.Equal(t, "unread", got.Filters.Status)
	assert.Equal(t, "Late Order", got.Filters.Search)
	assert.Equal(t, 3, got.Page.Page)
	assert.Equal(t, domain.DefaultPageSize, got.Page.PageSize)
}

func TestFetch_UnknownKind(t *testing.T) {
	comp, _, _ := newComposer(t)
	_, err := comp.Fetch(context.Background(), domain.KindReview, domain.Filters{}, domain.PageRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestTyped(t *testing.T) {
	comp, _, _ := newComposer(t)
	ctx := context.Background()

	p, e, err := query.Typed[domain.Notification](ctx, comp, domain.KindNotification, domain.Filters{}, domain.PageRequest{Page: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, domain.KindNotification, e.Key.Kind)

	_, _, err = query.Typed[domain.ReviewItem](ctx, comp, domain.KindNotification, domain.Filters{}, domain.PageRequest{Page: 2})
	assert.ErrorIs(t, err, domain.ErrInvalidResponse)
}

func TestRegister_DuplicatePanics(t *testing.T) {
	comp, _, _ := newComposer(t)
	assert.Panics(t, func() {
		comp.Register(domain.KindNotification, func(context.Context, domain.ListParams) (any, error) { return nil, nil })
	})
}
