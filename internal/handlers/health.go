package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nt-language-lab-api/internal/models"
	"github.com/nt-language-lab-api/internal/repository"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	store   repository.StoreStatus
	backend string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store repository.StoreStatus, backend string) *HealthHandler {
	return &HealthHandler{store: store, backend: backend}
}

// HealthResponse is the response for basic health check
type HealthResponse struct {
	Status string `json:"status"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status: "healthy",
	})
}

// StoreHealth handles GET /health/store
func (h *HealthHandler) StoreHealth(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.store.Ping(ctx); err != nil {
		c.Logger().Warnf("Store ping failed: %v", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status":  "error",
			"backend": h.backend,
			"error":   "verse store not reachable",
		})
	}

	count, err := h.store.Count(ctx)
	if err != nil {
		c.Logger().Warnf("Store count failed: %v", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status":  "error",
			"backend": h.backend,
			"error":   "verse store not readable",
		})
	}

	return c.JSON(http.StatusOK, models.StoreHealthResponse{
		Status:  "connected",
		Backend: h.backend,
		Verses:  count,
	})
}

// RegisterRoutes registers health check routes
func (h *HealthHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/health", h.Health)
	g.GET("/health/store", h.StoreHealth)
}
