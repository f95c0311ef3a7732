package api

import (
	"net/http"
	"os"

	"github.com/labstack/echo/v4"

	"NightScan/internal/domain/repository"
	"NightScan/pkg/logger"
)

// StatusHandler exposes the operator surface: liveness and the latest
// run checkpoint. It reads the checkpoint file on demand so it reflects
// a run in progress, not just finished runs.
type StatusHandler struct {
	states repository.RunStateStore
	log    *logger.Logger
}

func NewStatusHandler(states repository.RunStateStore, log *logger.Logger) *StatusHandler {
	return &StatusHandler{states: states, log: log}
}

func (h *StatusHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.health)
	e.GET("/run/latest", h.latestRun)
	e.GET("/run/:id", h.runByID)
}

func (h *StatusHandler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// latestRun streams latest.json verbatim; it is already the serialized
// PipelineRunState.
func (h *StatusHandler) latestRun(c echo.Context) error {
	path := h.states.LatestPath()
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "no runs recorded yet"})
		}
		h.log.Error("read latest run state", logger.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "state unreadable"})
	}
	return c.JSONBlob(http.StatusOK, b)
}

func (h *StatusHandler) runByID(c echo.Context) error {
	state, err := h.states.Load(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, state)
}
