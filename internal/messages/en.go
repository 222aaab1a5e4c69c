package messages

// ─── Batch summaries ─────────────────────────────────────────────────────────

const (
	BatchAllSucceeded = "%d of %d succeeded."
	BatchPartial      = "%d of %d succeeded. %d failed."
	BatchPartialStop  = "%d of %d succeeded. %d failed, %d not attempted."
	BatchNothingDone  = "None of %d succeeded."
	BatchRetryHint    = " Retry to re-run the remaining items."
)

// ─── Action labels ───────────────────────────────────────────────────────────

const (
	ActionMarkReadLabel      = "Mark as read"
	ActionPublishLabel       = "Publish"
	ActionMoveToPendingLabel = "Move to pending"
	ActionDeleteLabel        = "Delete"
)

// ─── Server events ───────────────────────────────────────────────────────────

const (
	NotificationCreatedReason = "notification %s created"
	NotificationReadReason    = "notification %s read"
	NotificationDeletedReason = "notification %s deleted"

	ReviewSubmittedReason     = "review %s submitted"
	ReviewStatusChangedReason = "review %s moved to %s"
	ReviewDeletedReason       = "review %s deleted"
)
