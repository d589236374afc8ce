// Package http provides the supervisor's externally-facing HTTP server.
package http

import (
	stdhttp "net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/triadflow/triad/internal/service"
)

// Handler handles supervisor HTTP requests.
type Handler struct {
	service *service.Service
}

// NewHandler creates a new handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		service: svc,
	}
}

// NewServer creates and configures the supervisor HTTP server.
func NewServer(svc *service.Service) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	h := NewHandler(svc)
	h.RegisterRoutes(e)

	return e
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/ask", h.Ask)
	e.GET("/runs", h.ListRuns)
	e.GET("/runs/:run_id", h.GetRun)
	e.GET("/runs/:run_id/events", h.GetRunEvents)
	e.GET("/ws", h.HandleWebSocket)
	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(stdhttp.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}
