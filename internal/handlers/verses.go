package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/nt-language-lab-api/internal/models"
	"github.com/nt-language-lab-api/internal/reference"
	"github.com/nt-language-lab-api/internal/services"
)

// ReferenceLookup resolves a book/chapter/verse reference to a single verse
type ReferenceLookup interface {
	LookupByReference(ctx context.Context, book string, chapter, verse int) (*models.VerseRecord, error)
}

// Generator produces a linguistic comparison from one grounded verse
type Generator interface {
	Generate(ctx context.Context, payload services.GroundedPayload) (string, error)
}

// VerseHandler handles book listing, reference lookup and comparison
type VerseHandler struct {
	lookup    ReferenceLookup
	generator Generator // nil when generation is disabled
}

// NewVerseHandler creates a new verse handler. A nil generator disables comparisons.
func NewVerseHandler(lookup ReferenceLookup, generator Generator) *VerseHandler {
	return &VerseHandler{
		lookup:    lookup,
		generator: generator,
	}
}

// Books handles GET /books
func (h *VerseHandler) Books(c echo.Context) error {
	return c.JSON(http.StatusOK, reference.Books())
}

// GetVerse handles GET /verses/:book/:chapter/:verse
func (h *VerseHandler) GetVerse(c echo.Context) error {
	chapter, err := strconv.Atoi(c.Param("chapter"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Chapter must be a number")
	}
	verse, err := strconv.Atoi(c.Param("verse"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Verse must be a number")
	}

	record, err := h.lookup.LookupByReference(c.Request().Context(), c.Param("book"), chapter, verse)
	if err != nil {
		return httpError(c, err)
	}

	return c.JSON(http.StatusOK, models.VerseResponse{
		Reference: reference.FormatReference(record.Book, record.Chapter, record.Verse),
		Verse:     *record,
	})
}

// Compare handles POST /compare - lookup plus grounded linguistic comparison
func (h *VerseHandler) Compare(c echo.Context) error {
	ctx := c.Request().Context()

	var req models.CompareRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	record, err := h.lookup.LookupByReference(ctx, req.Book, req.Chapter, req.Verse)
	if err != nil {
		return httpError(c, err)
	}

	resp := models.CompareResponse{
		Reference:         reference.FormatReference(record.Book, record.Chapter, record.Verse),
		Verse:             *record,
		GenerationEnabled: h.generator != nil,
	}
	if h.generator == nil {
		return c.JSON(http.StatusOK, resp)
	}

	analysis, err := h.generator.Generate(ctx, services.BuildGroundedPayload(*record))
	if err != nil {
		return httpError(c, err)
	}
	resp.Analysis = analysis

	return c.JSON(http.StatusOK, resp)
}

// RegisterRoutes registers verse routes
func (h *VerseHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/books", h.Books)
	g.GET("/verses/:book/:chapter/:verse", h.GetVerse)
	g.POST("/compare", h.Compare)
}
