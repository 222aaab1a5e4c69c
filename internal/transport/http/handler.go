package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"vn.io.arda/console-sync/internal/application"
	"vn.io.arda/console-sync/internal/cache"
	"vn.io.arda/console-sync/internal/domain"
	"vn.io.arda/console-sync/internal/transport/mw"
)

// Handler holds all HTTP handler methods.
type Handler struct {
	svc   *application.Service
	hub   *Hub
	views *viewSet
}

// NewHandler creates a new Handler.
func NewHandler(svc *application.Service, hub *Hub) *Handler {
	return &Handler{svc: svc, hub: hub, views: newViewSet(svc)}
}

// listQuery is the query string of a list fetch.
type listQuery struct {
	domain.Filters
	domain.PageRequest
}

// pageResponse is a cached page plus its freshness.
type pageResponse[T any] struct {
	*domain.Page[T]
	FetchedAt time.Time `json:"fetchedAt"`
	Stale     bool      `json:"stale"`
}

func newPageResponse[T any](p *domain.Page[T], e cache.Entry) pageResponse[T] {
	return pageResponse[T]{Page: p, FetchedAt: e.FetchedAt, Stale: e.Stale}
}

// --- REST Handlers ---

// ListNotifications GET /notifications
func (h *Handler) ListNotifications(c echo.Context) error {
	q, err := bindListQuery(c)
	if err != nil {
		return err
	}

	page, entry, err := h.svc.ListNotifications(c.Request().Context(), q.Filters, q.PageRequest)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, newPageResponse(page, entry))
}

// ListReviews GET /reviews
func (h *Handler) ListReviews(c echo.Context) error {
	q, err := bindListQuery(c)
	if err != nil {
		return err
	}

	page, entry, err := h.svc.ListReviews(c.Request().Context(), q.Filters, q.PageRequest)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, newPageResponse(page, entry))
}

// GetUnreadCount GET /notifications/unread-count
func (h *Handler) GetUnreadCount(c echo.Context) error {
	count, ok := h.svc.UnreadCount()
	if !ok {
		// Nothing polled yet; fetch once on demand.
		if err := h.svc.RefreshAggregate(c.Request().Context()); err != nil {
			return httpError(err)
		}
		count, _ = h.svc.UnreadCount()
	}
	return c.JSON(http.StatusOK, map[string]int64{"count": count})
}

// MarkRead PATCH /notifications/:id/read
func (h *Handler) MarkRead(c echo.Context) error {
	return h.single(c, domain.BatchRequest{
		Kind:   domain.KindNotification,
		Action: domain.ActionMarkRead,
		View:   domain.View(c.QueryParam("view")),
	})
}

// MarkAllRead POST /notifications/read-all
func (h *Handler) MarkAllRead(c echo.Context) error {
	if err := h.svc.MarkAllRead(c.Request().Context()); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteNotification DELETE /notifications/:id
func (h *Handler) DeleteNotification(c echo.Context) error {
	return h.single(c, domain.BatchRequest{
		Kind:   domain.KindNotification,
		Action: domain.ActionDelete,
		View:   domain.View(c.QueryParam("view")),
	})
}

// SetReviewStatus PATCH /reviews/:id/:action?view=
func (h *Handler) SetReviewStatus(c echo.Context) error {
	return h.single(c, domain.BatchRequest{
		Kind:   domain.KindReview,
		Action: domain.Action(c.Param("action")),
		View:   domain.View(c.QueryParam("view")),
	})
}

// DeleteReview DELETE /reviews/:id?view=
func (h *Handler) DeleteReview(c echo.Context) error {
	return h.single(c, domain.BatchRequest{
		Kind:   domain.KindReview,
		Action: domain.ActionDelete,
		View:   domain.View(c.QueryParam("view")),
	})
}

// single runs a one-item batch and surfaces the item's failure as the
// response error.
func (h *Handler) single(c echo.Context, req domain.BatchRequest) error {
	req.IDs = []string{c.Param("id")}
	req.Actor = mw.Actor(c)

	result, err := h.svc.RunBatchTransition(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	if len(result.Failed) > 0 {
		return httpError(result.Failed[0].Err)
	}
	return c.NoContent(http.StatusNoContent)
}

// --- Batch Handlers ---

// RunBatch POST /batches
func (h *Handler) RunBatch(c echo.Context) error {
	var in application.BatchInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid batch request")
	}
	in.Actor = mw.Actor(c)

	result, err := h.svc.RunBatchTransition(c.Request().Context(), in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, application.NewBatchOutcome(result))
}

// ListBatches GET /batches?limit=
func (h *Handler) ListBatches(c echo.Context) error {
	results, err := h.svc.RecentBatches(c.Request().Context(), parseIntQuery(c, "limit", 20))
	if err != nil {
		return httpError(err)
	}

	out := make([]application.BatchOutcome, 0, len(results))
	for _, r := range results {
		out = append(out, application.NewBatchOutcome(r))
	}
	return c.JSON(http.StatusOK, map[string]any{"data": out})
}

// GetBatch GET /batches/:id
func (h *Handler) GetBatch(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid batch id")
	}

	result, err := h.svc.GetBatch(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, application.NewBatchOutcome(result))
}

// RetryBatch POST /batches/:id/retry
func (h *Handler) RetryBatch(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid batch id")
	}

	result, err := h.svc.RetryBatch(c.Request().Context(), id, mw.Actor(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, application.NewBatchOutcome(result))
}

// InvalidateCache POST /cache/invalidate?kind=
func (h *Handler) InvalidateCache(c echo.Context) error {
	n, err := h.svc.Invalidate(domain.Kind(c.QueryParam("kind")))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]int{"invalidated": n})
}

// --- SSE Handler ---

// Stream GET /stream, SSE endpoint
func (h *Handler) Stream(c echo.Context) error {
	userID := mw.Actor(c)

	// SSE headers
	w := c.Response()
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable Nginx/APISIX buffering

	// Register client
	sendCh := make(chan []byte, 32)
	client := h.hub.Register(userID, sendCh)
	defer h.hub.Unregister(client)

	// Send initial "connected" event, then the last known count
	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"ok\"}\n\n")
	if count, ok := h.svc.UnreadCount(); ok {
		_, _ = w.Write(buildCountMessage(count))
	}
	w.Flush()

	log.Info().Str("user", userID).Msg("SSE stream opened")

	ctx := c.Request().Context()
	for {
		select {
		case msg, ok := <-sendCh:
			if !ok {
				return nil
			}
			if _, err := w.Write(msg); err != nil {
				return nil
			}
			w.Flush()

		case <-ctx.Done():
			log.Info().Str("user", userID).Msg("SSE stream closed by client")
			return nil
		}
	}
}

// --- Healthcheck ---

// Health GET /health
func (h *Handler) Health(c echo.Context) error {
	health := h.svc.Health()
	return c.JSON(http.StatusOK, map[string]any{
		"status":      "ok",
		"aggregate":   health.Aggregate,
		"cache":       health.Cache,
		"sse_clients": h.hub.ConnectedCount(),
	})
}

// --- Helpers ---

func bindListQuery(c echo.Context) (listQuery, error) {
	var q listQuery
	binder := &echo.DefaultBinder{}
	if err := binder.BindQueryParams(c, &q.Filters); err != nil {
		return q, echo.NewHTTPError(http.StatusBadRequest, "invalid filters")
	}
	if err := binder.BindQueryParams(c, &q.PageRequest); err != nil {
		return q, echo.NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	return q, nil
}

func parseIntQuery(c echo.Context, key string, def int) int {
	v, err := strconv.Atoi(c.QueryParam(key))
	if err != nil || v < 0 {
		return def
	}
	return v
}

// httpError maps an error class onto a status code.
func httpError(err error) *echo.HTTPError {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrInvalidTransition):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrRejected):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrTransient):
		status = http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrInvalidResponse):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("unclassified error")
	}
	return echo.NewHTTPError(status, err.Error())
}
