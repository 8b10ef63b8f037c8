package handlers

import (
	"net/http"

	"github.com/anonto42/socialpulse/backend/internal/realtime"
	"github.com/labstack/echo/v4"
)

// HealthHandler reports liveness and the size of the connection registry
type HealthHandler struct {
	registry *realtime.Registry
}

func NewHealthHandler(registry *realtime.Registry) *HealthHandler {
	return &HealthHandler{registry: registry}
}

func (h *HealthHandler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":   "healthy",
		"service":  "socialpulse-api",
		"realtime": h.registry.Stats(),
	})
}
