package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"vn.io.arda/console-sync/internal/transport/mw"
)

// NewRouter sets up all Echo routes and middleware.
func NewRouter(h *Handler, auth mw.AuthConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Global middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
	}))

	// Health (no auth required)
	e.GET("/health", h.Health)

	// API: session owner's bearer token required
	v1 := e.Group("")
	v1.Use(mw.JWTAuth(auth))

	// Notifications
	v1.GET("/notifications", h.ListNotifications)
	v1.GET("/notifications/unread-count", h.GetUnreadCount)
	v1.PATCH("/notifications/:id/read", h.MarkRead)
	v1.POST("/notifications/read-all", h.MarkAllRead)
	v1.DELETE("/notifications/:id", h.DeleteNotification)

	// Reviews
	v1.GET("/reviews", h.ListReviews)
	v1.PATCH("/reviews/:id/:action", h.SetReviewStatus)
	v1.DELETE("/reviews/:id", h.DeleteReview)

	// Batches
	v1.POST("/batches", h.RunBatch)
	v1.GET("/batches", h.ListBatches)
	v1.GET("/batches/:id", h.GetBatch)
	v1.POST("/batches/:id/retry", h.RetryBatch)

	// Views: per-actor screen state
	v1.GET("/views/:kind", h.GetView)
	v1.PATCH("/views/:kind", h.UpdateView)
	v1.PUT("/views/:kind/selection", h.SelectInView)
	v1.POST("/views/:kind/apply", h.ApplyInView)

	// Cache
	v1.POST("/cache/invalidate", h.InvalidateCache)

	// SSE endpoint
	v1.GET("/stream", h.Stream)

	return e
}
