// Package memory is an in-process stand-in for the console backend. It
// serves the same ports as the remote client and backs demo mode and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"vn.io.arda/console-sync/internal/domain"
)

// Backend holds notifications and reviews in insertion order.
type Backend struct {
	mu            sync.Mutex
	notifications []*domain.Notification
	reviews       []*domain.ReviewItem
	failures      map[string]error
	calls         map[string]int
	now           func() time.Time
}

// New creates an empty Backend.
func New() *Backend {
	return &Backend{
		failures: make(map[string]error),
		calls:    make(map[string]int),
		now:      time.Now,
	}
}

// AddNotification stores n. A read notification without readAt gets one.
func (b *Backend) AddNotification(n domain.Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n.Status == "" {
		n.Status = domain.StatusUnread
	}
	if n.Status == domain.StatusRead && n.ReadAt == nil {
		at := b.now()
		n.ReadAt = &at
	}
	b.notifications = append(b.notifications, &n)
}

// AddReview stores r.
func (b *Backend) AddReview(r domain.ReviewItem) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if r.Status == "" {
		r.Status = domain.ReviewPending
	}
	b.reviews = append(b.reviews, &r)
}

// Fail makes every call of op fail with err until cleared with a nil err.
// op is the method name, optionally suffixed with ":" and an id, e.g.
// "SetReviewStatus:r2".
func (b *Backend) Fail(op string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.failures, op)
		return
	}
	b.failures[op] = err
}

// Calls returns how many times op was invoked.
func (b *Backend) Calls(op string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[op]
}

// ReviewStatus returns the stored status of a review.
func (b *Backend) ReviewStatus(id string) (domain.ReviewStatus, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.reviews {
		if r.ID == id {
			return r.Status, true
		}
	}
	return "", false
}

func (b *Backend) enter(op, id string) error {
	b.calls[op]++
	if err, ok := b.failures[op+":"+id]; ok && id != "" {
		return err
	}
	if err, ok := b.failures[op]; ok {
		return err
	}
	return nil
}

// ListNotifications pages through notifications newest first.
func (b *Backend) ListNotifications(_ context.Context, p domain.ListParams) (*domain.Page[domain.Notification], error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter("ListNotifications", ""); err != nil {
		return nil, err
	}

	var matched []domain.Notification
	for _, n := range b.notifications {
		if matchNotification(n, p.Filters) {
			matched = append(matched, *n)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return paginate(matched, p.Page), nil
}

// UnreadCount counts unread notifications.
func (b *Backend) UnreadCount(context.Context) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter("UnreadCount", ""); err != nil {
		return 0, err
	}
	var n int64
	for _, x := range b.notifications {
		if !x.IsRead() {
			n++
		}
	}
	return n, nil
}

// MarkRead transitions one notification to read.
func (b *Backend) MarkRead(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter("MarkRead", id); err != nil {
		return err
	}
	n := b.findNotification(id)
	if n == nil {
		return fmt.Errorf("notification %s: %w", id, domain.ErrNotFound)
	}
	if n.IsRead() {
		return domain.ErrAlreadyApplied
	}
	b.markRead(n)
	return nil
}

// MarkAllRead marks every unread notification read.
func (b *Backend) MarkAllRead(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter("MarkAllRead", ""); err != nil {
		return err
	}
	for _, n := range b.notifications {
		if !n.IsRead() {
			b.markRead(n)
		}
	}
	return nil
}

// DeleteNotification removes one notification.
func (b *Backend) DeleteNotification(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter("DeleteNotification", id); err != nil {
		return err
	}
	for i, n := range b.notifications {
		if n.ID == id {
			b.notifications = append(b.notifications[:i], b.notifications[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("notification %s: %w", id, domain.ErrNotFound)
}

// ListReviews pages through reviews newest first. Deleted reviews are
// listed only when the status filter asks for them.
func (b *Backend) ListReviews(_ context.Context, p domain.ListParams) (*domain.Page[domain.ReviewItem], error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter("ListReviews", ""); err != nil {
		return nil, err
	}

	var matched []domain.ReviewItem
	for _, r := range b.reviews {
		if matchReview(r, p.Filters) {
			matched = append(matched, *r)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return paginate(matched, p.Page), nil
}

// SetReviewStatus moves one review to status.
func (b *Backend) SetReviewStatus(_ context.Context, id string, status domain.ReviewStatus) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter("SetReviewStatus", id); err != nil {
		return err
	}
	r := b.findReview(id)
	if r == nil {
		return fmt.Errorf("review %s: %w", id, domain.ErrNotFound)
	}
	if r.Status == status {
		return domain.ErrAlreadyApplied
	}
	r.Status = status
	return nil
}

// DeleteReview permanently removes one review.
func (b *Backend) DeleteReview(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter("DeleteReview", id); err != nil {
		return err
	}
	for i, r := range b.reviews {
		if r.ID == id {
			b.reviews = append(b.reviews[:i], b.reviews[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("review %s: %w", id, domain.ErrNotFound)
}

func (b *Backend) markRead(n *domain.Notification) {
	at := b.now()
	n.Status = domain.StatusRead
	n.ReadAt = &at
	n.UpdatedAt = at
}

func (b *Backend) findNotification(id string) *domain.Notification {
	for _, n := range b.notifications {
		if n.ID == id {
			return n
		}
	}
	return nil
}

func (b *Backend) findReview(id string) *domain.ReviewItem {
	for _, r := range b.reviews {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func matchNotification(n *domain.Notification, f domain.Filters) bool {
	if f.Status != "" && string(n.Status) != f.Status {
		return false
	}
	if f.Category != "" && !strings.EqualFold(n.Category, f.Category) {
		return false
	}
	if f.Priority != "" && !strings.EqualFold(n.Priority, f.Priority) {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(n.Title), q) && !strings.Contains(strings.ToLower(n.Message), q) {
			return false
		}
	}
	return true
}

func matchReview(r *domain.ReviewItem, f domain.Filters) bool {
	switch {
	case f.Status != "" && string(r.Status) != f.Status:
		return false
	case f.Status == "" && r.Status == domain.ReviewDeleted:
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(r.Comment), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

func paginate[T any](items []T, p domain.PageRequest) *domain.Page[T] {
	p = p.Normalize()
	start := (p.Page - 1) * p.PageSize
	if start > len(items) {
		start = len(items)
	}
	end := start + p.PageSize
	if end > len(items) {
		end = len(items)
	}
	out := make([]T, end-start)
	copy(out, items[start:end])
	return &domain.Page[T]{Items: out, Total: int64(len(items)), Page: p.Page, PageSize: p.PageSize}
}
