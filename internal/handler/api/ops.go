package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	drepo "EpiCast/internal/domain/repository"
	xhttp "EpiCast/pkg/http"
	applogger "EpiCast/pkg/logger"
)

// OpsHandler serves the internal operations surface: health and readiness.
// The product API (uploads, users, forecast browsing) lives elsewhere; this
// process only exposes what deployment tooling needs.
type OpsHandler struct {
	logger *applogger.Logger
	series drepo.SeriesStore
}

func NewOpsHandler(log *applogger.Logger, series drepo.SeriesStore) *OpsHandler {
	return &OpsHandler{logger: log, series: series}
}

// RegisterRoutes registers ops routes on the Echo server.
func (h *OpsHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.GET("/ready", h.Ready)
}

// Health reports process liveness. Always 200 while the process runs.
func (h *OpsHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

// Ready reports whether storage is reachable.
func (h *OpsHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := h.series.Health(ctx); err != nil {
		if h.logger != nil {
			h.logger.Warn("readiness check failed", applogger.Error(err))
		}
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"reason": err.Error(),
		})
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ready"})
}

var _ xhttp.Handler = (*OpsHandler)(nil)
