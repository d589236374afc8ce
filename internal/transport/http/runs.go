package http

import (
	stdhttp "net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/triadflow/triad/internal/domain"
)

// ListRuns returns recent pipeline runs, newest first.
// GET /runs?limit=
func (h *Handler) ListRuns(c echo.Context) error {
	ctx := c.Request().Context()

	limit := 50
	if v := c.QueryParam("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	runs, err := h.service.Store().ListRuns(ctx, limit)
	if err != nil {
		return c.JSON(stdhttp.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if runs == nil {
		runs = []domain.Run{}
	}

	return c.JSON(stdhttp.StatusOK, map[string]any{
		"runs": runs,
	})
}

// GetRun returns one recorded pipeline run.
// GET /runs/:run_id
func (h *Handler) GetRun(c echo.Context) error {
	ctx := c.Request().Context()
	runID := c.Param("run_id")

	run, err := h.service.Store().GetRun(ctx, runID)
	if err != nil {
		return c.JSON(stdhttp.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if run == nil {
		return c.JSON(stdhttp.StatusNotFound, map[string]string{"error": "run not found"})
	}

	return c.JSON(stdhttp.StatusOK, run)
}

// GetRunEvents returns the stage events recorded for a run.
// GET /runs/:run_id/events?after_ts=&limit=
func (h *Handler) GetRunEvents(c echo.Context) error {
	ctx := c.Request().Context()
	runID := c.Param("run_id")

	run, err := h.service.Store().GetRun(ctx, runID)
	if err != nil {
		return c.JSON(stdhttp.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if run == nil {
		return c.JSON(stdhttp.StatusNotFound, map[string]string{"error": "run not found"})
	}

	afterTs := int64(0)
	if v := c.QueryParam("after_ts"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			afterTs = parsed
		}
	}
	limit := 100
	if v := c.QueryParam("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	events, err := h.service.Store().GetEvents(ctx, runID, afterTs, limit)
	if err != nil {
		return c.JSON(stdhttp.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if events == nil {
		events = []domain.StageEvent{}
	}

	return c.JSON(stdhttp.StatusOK, map[string]any{
		"events": events,
	})
}
