package domain

import (
	"context"

	"github.com/google/uuid"
)

// NotificationAPI is the port for the remote notification endpoints.
// Implementations live in infrastructure/remote.
type NotificationAPI interface {
	// ListNotifications fetches one page matching params.
	ListNotifications(ctx context.Context, params ListParams) (*Page[Notification], error)

	// UnreadCount returns the unread aggregate for the authenticated session.
	UnreadCount(ctx context.Context) (int64, error)

	// MarkRead transitions a single notification unread -> read.
	MarkRead(ctx context.Context, id string) error

	// MarkAllRead marks every unread notification read in one server-side operation.
	MarkAllRead(ctx context.Context) error

	// DeleteNotification removes a notification.
	DeleteNotification(ctx context.Context, id string) error
}

// ReviewAPI is the port for the remote review moderation endpoints.
type ReviewAPI interface {
	ListReviews(ctx context.Context, params ListParams) (*Page[ReviewItem], error)

	// SetReviewStatus moves a review to status. Setting the current status
	// again succeeds or returns ErrAlreadyApplied.
	SetReviewStatus(ctx context.Context, id string, status ReviewStatus) error

	// DeleteReview permanently removes a review.
	DeleteReview(ctx context.Context, id string) error
}

// BatchJournal persists batch results so the failed subset can be retried.
type BatchJournal interface {
	// Save inserts or replaces the result.
	Save(ctx context.Context, result *BatchResult) error

	// Get fetches a single result by id. Returns ErrNotFound if absent.
	Get(ctx context.Context, id uuid.UUID) (*BatchResult, error)

	// Recent lists the newest results first.
	Recent(ctx context.Context, limit int) ([]*BatchResult, error)
}
