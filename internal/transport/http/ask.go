package http

import (
	"errors"
	stdhttp "net/http"

	"github.com/labstack/echo/v4"

	"github.com/triadflow/triad/internal/policy"
	"github.com/triadflow/triad/internal/service"
)

// AskRequest is the request body for a pipeline run.
type AskRequest struct {
	Question string `json:"question"`
}

// Ask runs the full pipeline for one question.
// POST /ask
func (h *Handler) Ask(c echo.Context) error {
	var req AskRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(stdhttp.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	ctx := c.Request().Context()

	decision, err := h.service.CheckQuestion(ctx, req.Question)
	if err != nil {
		return c.JSON(stdhttp.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if decision == policy.DecisionBlock {
		return c.JSON(stdhttp.StatusForbidden, map[string]string{"error": "question_blocked"})
	}

	state, err := h.service.Ask(ctx, req.Question)
	if err != nil {
		if errors.Is(err, service.ErrPipelineTimeout) {
			return c.JSON(stdhttp.StatusGatewayTimeout, map[string]string{"error": "pipeline_timeout"})
		}
		return c.JSON(stdhttp.StatusInternalServerError, map[string]string{
			"error":  "pipeline_exception",
			"detail": err.Error(),
		})
	}

	return c.JSON(stdhttp.StatusOK, state)
}
