package domain

import "time"

// ReviewStatus is the moderation state of a review.
type ReviewStatus string

const (
	ReviewPending   ReviewStatus = "pending"
	ReviewPublished ReviewStatus = "published"
	ReviewDeleted   ReviewStatus = "deleted"
)

// ReviewItem is a piece of moderated customer content.
type ReviewItem struct {
	ID        string       `json:"id"`
	AuthorID  string       `json:"authorId"`
	ProductID string       `json:"productId,omitempty"`
	Rating    int          `json:"rating"`
	Comment   string       `json:"comment"`
	Status    ReviewStatus `json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
}

// View is the screen tab a batch action was invoked from. It is an explicit
// input to review transitions because "delete" means different things per tab.
type View string

const (
	ViewAll       View = "all"
	ViewPending   View = "pending"
	ViewPublished View = "published"
	ViewUnread    View = "unread"
	ViewRead      View = "read"
)

// StatusFilter returns the list status filter the tab implies.
func (v View) StatusFilter() string {
	switch v {
	case ViewPending, ViewPublished, ViewUnread, ViewRead:
		return string(v)
	}
	return ""
}
