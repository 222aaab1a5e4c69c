package domain

// Invalidation is what a server-side domain event means for local state:
// which cached kinds are now stale and whether the unread aggregate moved.
type Invalidation struct {
	Kinds            []Kind
	RefreshAggregate bool
	// SourceEventID identifies the originating event, for logging only.
	SourceEventID string
	Reason        string
}
