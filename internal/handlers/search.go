package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nt-language-lab-api/internal/models"
)

// ConceptSearcher ranks verses against a free-text query
type ConceptSearcher interface {
	SearchByConcept(ctx context.Context, query string, topK int) ([]models.ScoredVerse, error)
}

// SearchHandler handles search endpoints
type SearchHandler struct {
	searcher ConceptSearcher
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(searcher ConceptSearcher) *SearchHandler {
	return &SearchHandler{
		searcher: searcher,
	}
}

// ConceptSearch handles POST /search - semantic verse search
func (h *SearchHandler) ConceptSearch(c echo.Context) error {
	var req models.ConceptSearchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	results, err := h.searcher.SearchByConcept(c.Request().Context(), req.Query, req.Limit)
	if err != nil {
		return httpError(c, err)
	}

	return c.JSON(http.StatusOK, models.ConceptSearchResponse{
		Query:   req.Query,
		Results: results,
	})
}

// RegisterRoutes registers search routes
func (h *SearchHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/search", h.ConceptSearch)
}
