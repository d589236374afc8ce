// Package agenthttp serves one agent over HTTP: card discovery endpoints
// plus the JSON-RPC message endpoint mounted at the root path.
package agenthttp

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/triadflow/triad/internal/executor"
	"github.com/triadflow/triad/internal/protocol"
)

// Handler handles agent HTTP requests.
type Handler struct {
	card     *protocol.AgentCard
	executor *executor.Executor
}

// NewHandler creates a handler serving the given card and executor.
func NewHandler(card *protocol.AgentCard, exec *executor.Executor) *Handler {
	return &Handler{
		card:     card,
		executor: exec,
	}
}

// NewServer creates a configured echo server for one agent.
func NewServer(card *protocol.AgentCard, exec *executor.Executor) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	h := NewHandler(card, exec)
	h.RegisterRoutes(e)

	return e
}

// RegisterRoutes registers the agent routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET(protocol.WellKnownCardPath, h.GetAgentCard)
	// Alias kept for clients that predate the well-known path.
	e.GET(protocol.CardAliasPath, h.GetAgentCard)
	e.POST("/", h.SendMessage)
	e.GET("/health", h.Health)
}

// GetAgentCard exposes agent metadata for discovery.
func (h *Handler) GetAgentCard(c echo.Context) error {
	return c.JSON(http.StatusOK, h.card)
}

// SendMessage handles the JSON-RPC send-message request.
// POST /
func (h *Handler) SendMessage(c echo.Context) error {
	var req protocol.SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusOK, &protocol.SendMessageResponse{
			JSONRPC: protocol.JSONRPCVersion,
			Error:   protocol.NewInvalidParamsError(),
		})
	}

	resp := h.executor.Execute(c.Request().Context(), &req)
	return c.JSON(http.StatusOK, resp)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
		"agent":  h.card.Name,
	})
}
