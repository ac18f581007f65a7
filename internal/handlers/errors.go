package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nt-language-lab-api/internal/llm"
	"github.com/nt-language-lab-api/internal/repository"
	"github.com/nt-language-lab-api/internal/services"
)

// httpError maps domain and storage errors onto HTTP statuses.
// Server-side failures are logged; client errors are echoed back.
func httpError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidReference),
		errors.Is(err, services.ErrInvalidQuery),
		errors.Is(err, repository.ErrInvalidTopK):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Verse not found")
	}

	c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)

	switch {
	case errors.Is(err, repository.ErrStoreUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Verse store temporarily unavailable")
	case errors.Is(err, services.ErrEmbeddingUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Embedding service temporarily unavailable")
	case errors.Is(err, repository.ErrInvalidEmbedding):
		return echo.NewHTTPError(http.StatusBadGateway, "Embedding service returned an invalid vector")
	case errors.Is(err, repository.ErrDimensionMismatch),
		errors.Is(err, repository.ErrEmbeddingModelMismatch):
		return echo.NewHTTPError(http.StatusInternalServerError, "Verse index does not match the embedding model")
	case errors.Is(err, llm.ErrGenerationFailed):
		return echo.NewHTTPError(http.StatusBadGateway, "Language model request failed")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
}
