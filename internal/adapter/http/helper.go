package http

import (
	"errors"
	"net/http"

	entryDomain "girvi-backend/internal/domain/entry"
	entryUC "girvi-backend/internal/usecase/entry"
	reportUC "girvi-backend/internal/usecase/report"

	"github.com/labstack/echo/v4"
)

// ---- helpers ----

// writeDomainError maps usecase/domain errors to HTTP outcomes. The 409 path
// makes a lost status race visible instead of the silent zero-row no-op.
func writeDomainError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, entryDomain.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "entry not found"})
	case errors.Is(err, entryDomain.ErrPreconditionFailed):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: "entry status changed, refresh and retry"})
	case errors.Is(err, entryUC.ErrInvalidInput), errors.Is(err, reportUC.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
