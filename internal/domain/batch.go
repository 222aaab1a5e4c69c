package domain

import (
	"time"

	"github.com/google/uuid"
)

// Action is the user-facing name of a status transition.
type Action string

const (
	ActionMarkRead      Action = "mark_read"
	ActionPublish       Action = "publish"
	ActionMoveToPending Action = "move_to_pending"
	ActionDelete        Action = "delete"
)

// FailurePolicy decides what a batch does after an item fails.
type FailurePolicy string

const (
	// ContinueOnError attempts every item regardless of earlier failures.
	ContinueOnError FailurePolicy = "continue"
	// StopOnError halts at the first failure; the rest are not attempted.
	StopOnError FailurePolicy = "stop"
)

// BatchRequest is one batch transition: an ordered set of ids, one action,
// and the view it was invoked from.
type BatchRequest struct {
	Kind   Kind     `json:"kind"`
	IDs    []string `json:"ids"`
	Action Action   `json:"action"`
	View   View     `json:"view"`
	// Actor is the subject of the credential that started the batch.
	Actor string `json:"actor,omitempty"`
}

// ItemFailure records why one id of a batch failed.
type ItemFailure struct {
	ID      string     `json:"id"`
	Class   ErrorClass `json:"class"`
	Message string     `json:"message"`
	Err     error      `json:"-"`
}

// Retryable reports whether the failure class is worth retrying.
func (f ItemFailure) Retryable() bool {
	return f.Class.Retryable()
}

// BatchResult is the per-item report of a batch. Succeeded items have taken
// effect server-side and are never rolled back.
type BatchResult struct {
	ID           uuid.UUID     `json:"id"`
	Kind         Kind          `json:"kind"`
	Action       Action        `json:"action"`
	View         View          `json:"view"`
	Actor        string        `json:"actor,omitempty"`
	Succeeded    []string      `json:"succeeded"`
	Failed       []ItemFailure `json:"failed"`
	NotAttempted []string      `json:"notAttempted"`
	// RetryOf is the batch this one re-ran, if any.
	RetryOf    *uuid.UUID `json:"retryOf,omitempty"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt time.Time  `json:"finishedAt"`
}

// Total is the number of distinct ids in the batch.
func (r *BatchResult) Total() int {
	return len(r.Succeeded) + len(r.Failed) + len(r.NotAttempted)
}

// AllSucceeded reports whether every item took effect.
func (r *BatchResult) AllSucceeded() bool {
	return len(r.Failed) == 0 && len(r.NotAttempted) == 0
}

// FailedIDs returns the failed ids in execution order.
func (r *BatchResult) FailedIDs() []string {
	ids := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		ids = append(ids, f.ID)
	}
	return ids
}

// Remaining returns the ids that did not take effect: failed first, then
// not attempted, both in original order.
func (r *BatchResult) Remaining() []string {
	return append(r.FailedIDs(), r.NotAttempted...)
}
