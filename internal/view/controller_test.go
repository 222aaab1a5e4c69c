package view_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vn.io.arda/console-sync/internal/application"
	"vn.io.arda/console-sync/internal/domain"
	"vn.io.arda/console-sync/internal/infrastructure/memory"
	"vn.io.arda/console-sync/internal/view"
)

func newCore(t *testing.T) (*application.Service, *memory.Backend) {
	t.Helper()
	b := memory.New()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"r1", "r2", "r3", "r4"} {
		b.AddReview(domain.ReviewItem{ID: id, CreatedAt: base.Add(time.Duration(i) * time.Minute)})
	}
	svc, err := application.NewService(b, nil, application.Options{})
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc, b
}

func TestSetTab_ResetsPageAndSelection(t *testing.T) {
	svc, _ := newCore(t)
	c := view.New(svc, domain.KindReview, domain.ViewPending, "mod")

	c.SetPage(3)
	c.Select("r1", "r2")
	require.Equal(t, 3, c.Page().Page)

	c.SetTab(domain.ViewPublished)
	assert.Equal(t, 1, c.Page().Page)
	assert.Empty(t, c.Selection())
	assert.Equal(t, "published", c.Filters().Status)
}

func TestSetFilters_KeepsTabStatus(t *testing.T) {
	svc, _ := newCore(t)
	c := view.New(svc, domain.KindReview, domain.ViewPending, "mod")
	c.SetPage(2)
	c.Select("r1")

	c.SetFilters(domain.Filters{Status: "published", Search: "great"})
	assert.Equal(t, domain.Filters{Status: "pending", Search: "great"}, c.Filters())
	assert.Equal(t, 1, c.Page().Page)
	assert.Empty(t, c.Selection())
}

func TestToggleKeepsOrder(t *testing.T) {
	svc, _ := newCore(t)
	c := view.New(svc, domain.KindReview, domain.ViewPending, "mod")

	assert.True(t, c.Toggle("r3"))
	c.Select("r1", "r3", "", "r2")
	assert.False(t, c.Toggle("r1"))
	assert.Equal(t, []string{"r3", "r2"}, c.Selection())

	c.SetPage(2)
	assert.Equal(t, []string{"r3", "r2"}, c.Selection(), "paging keeps the selection")
}

func TestApply_SelectionKeepsOnlyRemaining(t *testing.T) {
	svc, b := newCore(t)
	b.Fail("SetReviewStatus:r2", domain.ErrTransient)
	c := view.New(svc, domain.KindReview, domain.ViewPending, "mod")
	ctx := context.Background()

	_, err := c.Load(ctx)
	require.NoError(t, err)

	c.Select("r1", "r2", "r3")
	out, err := c.Apply(ctx, domain.ActionPublish)
	require.NoError(t, err)
	assert.Equal(t, "2 of 3 succeeded. 1 failed. Retry to re-run the remaining items.", out.Summary)
	assert.Equal(t, []string{"r2"}, c.Selection())
	assert.Equal(t, "mod", out.Result.Actor)
	assert.Equal(t, domain.ViewPending, out.Result.View)

	entry, err := c.Load(ctx)
	require.NoError(t, err)
	page := entry.Value.(*domain.Page[domain.ReviewItem])
	var ids []string
	for _, r := range page.Items {
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, []string{"r2", "r4"}, ids)

	b.Fail("SetReviewStatus:r2", nil)
	out, err = c.Apply(ctx, domain.ActionPublish)
	require.NoError(t, err)
	assert.True(t, out.Result.AllSucceeded())
	assert.Empty(t, c.Selection())
}

func TestApply_DeleteFromPendingIsPermanent(t *testing.T) {
	svc, b := newCore(t)
	c := view.New(svc, domain.KindReview, domain.ViewPending, "mod")

	c.Select("r4")
	_, err := c.Apply(context.Background(), domain.ActionDelete)
	require.NoError(t, err)
	assert.Equal(t, 1, b.Calls("DeleteReview"))
	assert.Equal(t, 0, b.Calls("SetReviewStatus"))
}

func TestApply_NothingSelected(t *testing.T) {
	svc, _ := newCore(t)
	c := view.New(svc, domain.KindReview, domain.ViewPending, "mod")

	_, err := c.Apply(context.Background(), domain.ActionPublish)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestActions(t *testing.T) {
	svc, _ := newCore(t)

	pending := view.New(svc, domain.KindReview, domain.ViewPending, "")
	assert.Equal(t, []view.ActionOption{
		{Action: domain.ActionPublish, Label: "Publish"},
		{Action: domain.ActionDelete, Label: "Delete"},
	}, pending.Actions())

	read := view.New(svc, domain.KindNotification, domain.ViewRead, "")
	assert.Equal(t, []view.ActionOption{{Action: domain.ActionDelete, Label: "Delete"}}, read.Actions())
}
