package memory

import (
	"fmt"
	"time"

	"vn.io.arda/console-sync/internal/domain"
)

// Seed fills b with a small demo data set: unread and read notifications
// across categories, and reviews in every moderation state.
func Seed(b *Backend, now time.Time) {
	categories := []string{"orders", "billing", "system"}
	priorities := []string{"low", "normal", "high"}
	for i := 1; i <= 12; i++ {
		n := domain.Notification{
			ID:          fmt.Sprintf("n-%02d", i),
			RecipientID: "demo",
			Type:        "info",
			Category:    categories[i%len(categories)],
			Priority:    priorities[i%len(priorities)],
			Title:       fmt.Sprintf("Notification %d", i),
			Message:     "Demo notification body.",
			Status:      domain.StatusUnread,
			CreatedAt:   now.Add(-time.Duration(i) * time.Hour),
		}
		n.UpdatedAt = n.CreatedAt
		if i%3 == 0 {
			n.Status = domain.StatusRead
			readAt := n.CreatedAt.Add(10 * time.Minute)
			n.ReadAt = &readAt
		}
		b.AddNotification(n)
	}

	statuses := []domain.ReviewStatus{domain.ReviewPending, domain.ReviewPublished, domain.ReviewPending, domain.ReviewDeleted}
	for i := 1; i <= 8; i++ {
		b.AddReview(domain.ReviewItem{
			ID:        fmt.Sprintf("r-%02d", i),
			AuthorID:  fmt.Sprintf("customer-%d", i),
			ProductID: fmt.Sprintf("sku-%d", 100+i),
			Rating:    1 + i%5,
			Comment:   fmt.Sprintf("Review number %d.", i),
			Status:    statuses[i%len(statuses)],
			CreatedAt: now.Add(-time.Duration(i) * 2 * time.Hour),
		})
	}
}
