package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vn.io.arda/console-sync/internal/domain"
	"vn.io.arda/console-sync/internal/infrastructure/postgres"
)

func newJournal(t *testing.T) *postgres.Journal {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	j := postgres.New(pool)
	require.NoError(t, j.EnsureSchema(ctx))
	return j
}

func TestJournal_SaveAndGet(t *testing.T) {
	j := newJournal(t)
	ctx := context.Background()
	started := time.Now().UTC().Truncate(time.Millisecond)

	prev := uuid.New()
	in := &domain.BatchResult{
		ID:        uuid.New(),
		Kind:      domain.KindReview,
		Action:    domain.ActionPublish,
		View:      domain.ViewPending,
		Actor:     "moderator-1",
		Succeeded: []string{"r1", "r3"},
		Failed: []domain.ItemFailure{
			{ID: "r2", Class: domain.ClassTransient, Message: "status 503"},
		},
		NotAttempted: []string{},
		RetryOf:      &prev,
		StartedAt:    started,
		FinishedAt:   started.Add(time.Second),
	}
	require.NoError(t, j.Save(ctx, in))

	out, err := j.Get(ctx, in.ID)
	require.NoError(t, err)
	assert.Equal(t, in.Kind, out.Kind)
	assert.Equal(t, in.View, out.View)
	assert.Equal(t, in.Succeeded, out.Succeeded)
	assert.Equal(t, []string{"r2"}, out.Remaining())
	assert.Equal(t, domain.ClassTransient, out.Failed[0].Class)
	require.NotNil(t, out.RetryOf)
	assert.Equal(t, prev, *out.RetryOf)
	assert.True(t, in.StartedAt.Equal(out.StartedAt))
}

func TestJournal_GetMissing(t *testing.T) {
	j := newJournal(t)
	_, err := j.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestJournal_SaveReplaces(t *testing.T) {
	j := newJournal(t)
	ctx := context.Background()
	now := time.Now().UTC()

	r := &domain.BatchResult{
		ID: uuid.New(), Kind: domain.KindNotification, Action: domain.ActionMarkRead,
		Succeeded: []string{}, Failed: []domain.ItemFailure{}, NotAttempted: []string{"n1"},
		StartedAt: now, FinishedAt: now,
	}
	require.NoError(t, j.Save(ctx, r))

	r.Succeeded, r.NotAttempted = []string{"n1"}, []string{}
	require.NoError(t, j.Save(ctx, r))

	out, err := j.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, out.AllSucceeded())

	recent, err := j.Recent(ctx, 5)
	require.NoError(t, err)
	assert.NotEmpty(t, recent)
}
