package remote

import (
	"context"
	"fmt"
	"net/url"

	"vn.io.arda/console-sync/internal/domain"
)

// ListReviews fetches one page of moderated reviews.
func (c *Client) ListReviews(ctx context.Context, params domain.ListParams) (*domain.Page[domain.ReviewItem], error) {
	var page domain.Page[domain.ReviewItem]
	if err := c.get(ctx, "/reviews", listQuery(params), &page); err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	if page.Items == nil {
		page.Items = []domain.ReviewItem{}
	}
	return &page, nil
}

// SetReviewStatus moves one review to status.
func (c *Client) SetReviewStatus(ctx context.Context, id string, status domain.ReviewStatus) error {
	body := map[string]string{"status": string(status)}
	if err := c.patch(ctx, "/reviews/"+url.PathEscape(id)+"/status", body); err != nil {
		return fmt.Errorf("set review %s status %s: %w", id, status, err)
	}
	return nil
}

// DeleteReview permanently removes one review.
func (c *Client) DeleteReview(ctx context.Context, id string) error {
	if err := c.delete(ctx, "/reviews/"+url.PathEscape(id)); err != nil {
		return fmt.Errorf("delete review %s: %w", id, err)
	}
	return nil
}
