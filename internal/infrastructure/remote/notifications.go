package remote

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"vn.io.arda/console-sync/internal/domain"
)

// ListNotifications fetches one page. A page containing a notification that
// breaks the read/readAt invariant is rejected whole.
func (c *Client) ListNotifications(ctx context.Context, params domain.ListParams) (*domain.Page[domain.Notification], error) {
	var page domain.Page[domain.Notification]
	if err := c.get(ctx, "/notifications", listQuery(params), &page); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	for i := range page.Items {
		if err := page.Items[i].Validate(); err != nil {
			return nil, fmt.Errorf("list notifications: %w", err)
		}
	}
	if page.Items == nil {
		page.Items = []domain.Notification{}
	}
	return &page, nil
}

// UnreadCount returns the session's unread aggregate.
func (c *Client) UnreadCount(ctx context.Context) (int64, error) {
	var body struct {
		Count *int64 `json:"count"`
	}
	if err := c.get(ctx, "/notifications/unread-count", nil, &body); err != nil {
		return 0, fmt.Errorf("unread count: %w", err)
	}
	if body.Count == nil || *body.Count < 0 {
		return 0, fmt.Errorf("unread count: missing or negative count: %w", domain.ErrInvalidResponse)
	}
	return *body.Count, nil
}

// MarkRead transitions one notification to read.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	if err := c.patch(ctx, "/notifications/"+url.PathEscape(id)+"/read", nil); err != nil {
		return fmt.Errorf("mark notification %s read: %w", id, err)
	}
	return nil
}

// MarkAllRead is one server-side operation covering every unread notification.
func (c *Client) MarkAllRead(ctx context.Context) error {
	if err := c.patch(ctx, "/notifications/read-all", nil); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

// DeleteNotification removes one notification.
func (c *Client) DeleteNotification(ctx context.Context, id string) error {
	if err := c.delete(ctx, "/notifications/"+url.PathEscape(id)); err != nil {
		return fmt.Errorf("delete notification %s: %w", id, err)
	}
	return nil
}

func listQuery(p domain.ListParams) url.Values {
	q := p.Filters.Values()
	q.Set("page", strconv.Itoa(p.Page.Page))
	q.Set("pageSize", strconv.Itoa(p.Page.PageSize))
	return q
}
