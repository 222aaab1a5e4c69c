package batch_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vn.io.arda/console-sync/internal/batch"
	"vn.io.arda/console-sync/internal/domain"
)

func TestMemoryJournal_DropsOldest(t *testing.T) {
	j := batch.NewMemoryJournal(2)
	ctx := context.Background()

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, id := range ids {
		require.NoError(t, j.Save(ctx, &domain.BatchResult{ID: id, Kind: domain.KindReview}))
	}

	_, err := j.Get(ctx, ids[0])
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// reading the older entry must not protect it from eviction
	_, err = j.Get(ctx, ids[1])
	require.NoError(t, err)
	fourth := uuid.New()
	require.NoError(t, j.Save(ctx, &domain.BatchResult{ID: fourth}))
	_, err = j.Get(ctx, ids[1])
	assert.ErrorIs(t, err, domain.ErrNotFound)
	ids = append(ids, fourth)

	recent, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, ids[3], recent[0].ID)
	assert.Equal(t, ids[2], recent[1].ID)

	recent, err = j.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, ids[3], recent[0].ID)
}

func TestMemoryJournal_SaveReplaces(t *testing.T) {
	j := batch.NewMemoryJournal(0)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, j.Save(ctx, &domain.BatchResult{ID: id, Succeeded: []string{"a"}}))
	require.NoError(t, j.Save(ctx, &domain.BatchResult{ID: id, Succeeded: []string{"a", "b"}}))

	got, err := j.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got.Succeeded)

	recent, err := j.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}
