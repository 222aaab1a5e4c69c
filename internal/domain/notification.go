package domain

import (
	"fmt"
	"time"
)

// Kind identifies a resource collection synchronized by the core.
type Kind string

const (
	KindNotification Kind = "notifications"
	KindReview       Kind = "reviews"
)

// Valid reports whether k is a kind the core knows how to fetch and mutate.
func (k Kind) Valid() bool {
	switch k {
	case KindNotification, KindReview:
		return true
	}
	return false
}

// NotificationStatus is the two-valued read state of a notification.
type NotificationStatus string

const (
	StatusUnread NotificationStatus = "unread"
	StatusRead   NotificationStatus = "read"
)

// Notification is the server-owned notification entity as seen by the console.
type Notification struct {
	ID          string             `json:"id"`
	RecipientID string             `json:"recipientId"`
	Type        string             `json:"type"`
	Category    string             `json:"category,omitempty"`
	Priority    string             `json:"priority,omitempty"`
	Title       string             `json:"title"`
	Message     string             `json:"message"`
	Metadata    map[string]any     `json:"metadata,omitempty"`
	Status      NotificationStatus `json:"status"`
	ReadAt      *time.Time         `json:"readAt,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// IsRead reports whether the notification has been read.
func (n *Notification) IsRead() bool {
	return n.Status == StatusRead
}

// Validate checks the read-state invariant: read iff readAt is set.
func (n *Notification) Validate() error {
	switch n.Status {
	case StatusRead:
		if n.ReadAt == nil {
			return fmt.Errorf("notification %s: status read without readAt: %w", n.ID, ErrInvalidResponse)
		}
	case StatusUnread:
		if n.ReadAt != nil {
			return fmt.Errorf("notification %s: status unread with readAt set: %w", n.ID, ErrInvalidResponse)
		}
	default:
		return fmt.Errorf("notification %s: unknown status %q: %w", n.ID, n.Status, ErrInvalidResponse)
	}
	return nil
}
