package messages

import (
	"fmt"

	"vn.io.arda/console-sync/internal/domain"
)

// ─── Batch builders ──────────────────────────────────────────────────────────

// BatchSummary renders a batch result as "N of M succeeded", adding the
// failed and not-attempted counts when the batch was partial.
func BatchSummary(r *domain.BatchResult) string {
	total := r.Total()
	ok := len(r.Succeeded)
	failed := len(r.Failed)
	skipped := len(r.NotAttempted)

	switch {
	case r.AllSucceeded():
		return fmt.Sprintf(BatchAllSucceeded, ok, total)
	case ok == 0 && skipped == 0:
		return fmt.Sprintf(BatchNothingDone, total) + BatchRetryHint
	case skipped == 0:
		return fmt.Sprintf(BatchPartial, ok, total, failed) + BatchRetryHint
	default:
		return fmt.Sprintf(BatchPartialStop, ok, total, failed, skipped) + BatchRetryHint
	}
}

// ActionLabel is the button text for a batch action.
func ActionLabel(a domain.Action) string {
	switch a {
	case domain.ActionMarkRead:
		return ActionMarkReadLabel
	case domain.ActionPublish:
		return ActionPublishLabel
	case domain.ActionMoveToPending:
		return ActionMoveToPendingLabel
	case domain.ActionDelete:
		return ActionDeleteLabel
	}
	return string(a)
}

// ─── Event builders ──────────────────────────────────────────────────────────

func NotificationCreated(id string) string {
	return fmt.Sprintf(NotificationCreatedReason, id)
}

func NotificationRead(id string) string {
	return fmt.Sprintf(NotificationReadReason, id)
}

func NotificationDeleted(id string) string {
	return fmt.Sprintf(NotificationDeletedReason, id)
}

func ReviewSubmitted(id string) string {
	return fmt.Sprintf(ReviewSubmittedReason, id)
}

func ReviewStatusChanged(id, status string) string {
	return fmt.Sprintf(ReviewStatusChangedReason, id, status)
}

func ReviewDeleted(id string) string {
	return fmt.Sprintf(ReviewDeletedReason, id)
}
