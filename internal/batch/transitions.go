package batch

import (
	"context"
	"fmt"

	"vn.io.arda/console-sync/internal/domain"
)

// step is one remote call applying a resolved transition to a single id.
type step func(ctx context.Context, id string) error

// resolve maps (kind, action, view) onto the remote call to issue per item.
// Reviews follow ResolveReviewStatus; ending in deleted is a real delete.
func (e *Executor) resolve(kind domain.Kind, action domain.Action, view domain.View) (step, error) {
	switch kind {
	case domain.KindNotification:
		switch action {
		case domain.ActionMarkRead:
			return e.notifications.MarkRead, nil
		case domain.ActionDelete:
			return e.notifications.DeleteNotification, nil
		}

	case domain.KindReview:
		status, err := ResolveReviewStatus(action, view)
		if err != nil {
			return nil, err
		}
		if status == domain.ReviewDeleted {
			return e.reviews.DeleteReview, nil
		}
		return e.setReviewStatus(status), nil

	default:
		return nil, fmt.Errorf("unknown kind %q: %w", kind, domain.ErrInvalidRequest)
	}

	return nil, fmt.Errorf("%s does not support %q: %w", kind, action, domain.ErrInvalidTransition)
}

func (e *Executor) setReviewStatus(status domain.ReviewStatus) step {
	return func(ctx context.Context, id string) error {
		return e.reviews.SetReviewStatus(ctx, id, status)
	}
}

// ResolveReviewStatus reports the status a review ends in after action is
// applied from view. Delete depends on the view: from the pending tab it is
// permanent, from all or published it returns the review to pending.
func ResolveReviewStatus(action domain.Action, view domain.View) (domain.ReviewStatus, error) {
	switch action {
	case domain.ActionPublish:
		return domain.ReviewPublished, nil
	case domain.ActionMoveToPending:
		return domain.ReviewPending, nil
	case domain.ActionDelete:
		switch view {
		case domain.ViewPending:
			return domain.ReviewDeleted, nil
		case domain.ViewAll, domain.ViewPublished:
			return domain.ReviewPending, nil
		}
	}
	return "", fmt.Errorf("review %q from view %q: %w", action, view, domain.ErrInvalidTransition)
}
