package domain_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"vn.io.arda/console-sync/internal/domain"
)

func TestNotificationValidate(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		n       domain.Notification
		wantErr bool
	}{
		{"unread without readAt", domain.Notification{ID: "1", Status: domain.StatusUnread}, false},
		{"read with readAt", domain.Notification{ID: "2", Status: domain.StatusRead, ReadAt: &now}, false},
		{"read without readAt", domain.Notification{ID: "3", Status: domain.StatusRead}, true},
		{"unread with readAt", domain.Notification{ID: "4", Status: domain.StatusUnread, ReadAt: &now}, true},
		{"unknown status", domain.Notification{ID: "5", Status: "archived"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.n.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidResponse)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestQueryKey_EmptyAndAbsentFiltersShareKey(t *testing.T) {
	a := domain.NewQueryKey(domain.KindReview, domain.Filters{Status: ""}, domain.PageRequest{Page: 1, PageSize: 10})
	b := domain.NewQueryKey(domain.KindReview, domain.Filters{}, domain.PageRequest{})
	c := domain.NewQueryKey(domain.KindReview, domain.Filters{Status: "  "}, domain.PageRequest{Page: 0, PageSize: 500})

	assert.Equal(t, a.String(), b.String())
	assert.Equal(t, a.String(), c.String())
}

func TestQueryKey_NormalizesCaseExceptSearch(t *testing.T) {
	a := domain.NewQueryKey(domain.KindNotification, domain.Filters{Status: "Unread", Priority: " HIGH ", Search: "Order"}, domain.PageRequest{Page: 2})
	b := domain.NewQueryKey(domain.KindNotification, domain.Filters{Status: "unread", Priority: "high", Search: "Order"}, domain.PageRequest{Page: 2})
	c := domain.NewQueryKey(domain.KindNotification, domain.Filters{Status: "unread", Priority: "high", Search: "order"}, domain.PageRequest{Page: 2})

	assert.Equal(t, a.String(), b.String())
	assert.NotEqual(t, b.String(), c.String())
}

func TestQueryKey_KindAndPageDistinguish(t *testing.T) {
	n := domain.NewQueryKey(domain.KindNotification, domain.Filters{}, domain.PageRequest{Page: 1})
	r := domain.NewQueryKey(domain.KindReview, domain.Filters{}, domain.PageRequest{Page: 1})
	p2 := domain.NewQueryKey(domain.KindNotification, domain.Filters{}, domain.PageRequest{Page: 2})

	assert.NotEqual(t, n.String(), r.String())
	assert.NotEqual(t, n.String(), p2.String())
	assert.True(t, domain.ByKind(domain.KindNotification)(p2))
	assert.False(t, domain.ByKind(domain.KindNotification)(r))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, domain.ClassTransient, domain.Classify(fmt.Errorf("list: %w", domain.ErrTransient)))
	assert.Equal(t, domain.ClassRejected, domain.Classify(domain.ErrRejected))
	assert.Equal(t, domain.ClassNotFound, domain.Classify(domain.ErrNotFound))
	assert.Equal(t, domain.ClassUnknown, domain.Classify(errors.New("boom")))
	assert.Equal(t, domain.ErrorClass(""), domain.Classify(nil))

	assert.True(t, domain.ClassTransient.Retryable())
	assert.False(t, domain.ClassRejected.Retryable())
}

func TestBatchResult_Remaining(t *testing.T) {
	r := &domain.BatchResult{
		Succeeded:    []string{"a", "c"},
		Failed:       []domain.ItemFailure{{ID: "b", Class: domain.ClassTransient}},
		NotAttempted: []string{"d"},
	}

	assert.Equal(t, 4, r.Total())
	assert.False(t, r.AllSucceeded())
	assert.Equal(t, []string{"b", "d"}, r.Remaining())
}
