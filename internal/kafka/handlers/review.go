package handlers

import (
	"encoding/json"

	"vn.io.arda/console-sync/internal/domain"
	"vn.io.arda/console-sync/internal/messages"
)

func init() {
	Register(ReviewTopic, "REVIEW_SUBMITTED", handleReviewSubmitted)
	Register(ReviewTopic, "REVIEW_STATUS_CHANGED", handleReviewStatusChanged)
	Register(ReviewTopic, "REVIEW_DELETED", handleReviewDeleted)
}

type reviewEnv struct {
	EventType string `json:"eventType"`
	EventID   string `json:"eventId"`
	Payload   struct {
		ReviewID string `json:"reviewId"`
		Status   string `json:"status"`
	} `json:"payload"`
}

func parseReviewEnv(data []byte) (*reviewEnv, bool) {
	var env reviewEnv
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, false
	}
	if env.Payload.ReviewID == "" {
		return nil, false
	}
	return &env, true
}

func reviewInvalidation(env *reviewEnv, reason string) *domain.Invalidation {
	return &domain.Invalidation{
		Kinds:         []domain.Kind{domain.KindReview},
		SourceEventID: env.EventID,
		Reason:        reason,
	}
}

func handleReviewSubmitted(data []byte) *domain.Invalidation {
	env, ok := parseReviewEnv(data)
	if !ok {
		return nil
	}
	return reviewInvalidation(env, messages.ReviewSubmitted(env.Payload.ReviewID))
}

func handleReviewStatusChanged(data []byte) *domain.Invalidation {
	env, ok := parseReviewEnv(data)
	if !ok {
		return nil
	}
	return reviewInvalidation(env, messages.ReviewStatusChanged(env.Payload.ReviewID, env.Payload.Status))
}

func handleReviewDeleted(data []byte) *domain.Invalidation {
	env, ok := parseReviewEnv(data)
	if !ok {
		return nil
	}
	return reviewInvalidation(env, messages.ReviewDeleted(env.Payload.ReviewID))
}
