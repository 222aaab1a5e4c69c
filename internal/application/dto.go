package application

import (
	"vn.io.arda/console-sync/internal/domain"
	"vn.io.arda/console-sync/internal/messages"
)

// BatchInput is the DTO the local API decodes a batch request into.
// This is a type alias for domain.BatchRequest for convenience.
type BatchInput = domain.BatchRequest

// BatchOutcome is a batch result plus its user-facing summary.
type BatchOutcome struct {
	*domain.BatchResult
	Summary string `json:"summary"`
}

// NewBatchOutcome attaches the "N of M succeeded" summary to r.
func NewBatchOutcome(r *domain.BatchResult) BatchOutcome {
	return BatchOutcome{BatchResult: r, Summary: messages.BatchSummary(r)}
}
