package http

import (
	"io"
	"net/http"

	reportUC "girvi-backend/internal/usecase/report"

	"github.com/labstack/echo/v4"
)

type ReportHandler struct{ uc *reportUC.Usecase }

func NewReportHandler(uc *reportUC.Usecase) *ReportHandler { return &ReportHandler{uc: uc} }

func rangeInput(c echo.Context) reportUC.RangeInput {
	return reportUC.RangeInput{
		Mode:  c.QueryParam("mode"),
		Start: c.QueryParam("start"),
		End:   c.QueryParam("end"),
	}
}

func (h *ReportHandler) Summary(c echo.Context) error {
	dto, err := h.uc.Summarize(c.Request().Context(), rangeInput(c))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ReportHandler) Export(c echo.Context) error {
	filename, contentType, data, err := h.uc.Export(c.Request().Context(), rangeInput(c), c.QueryParam("format"))
	if err != nil {
		return writeDomainError(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK, contentType, data)
}

func (h *ReportHandler) Import(c echo.Context) error {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "cannot read body"})
	}

	n, violations, err := h.uc.Import(c.Request().Context(), raw)
	if err != nil {
		return writeDomainError(c, err)
	}
	if len(violations) > 0 {
		details := make([]FieldError, 0, len(violations))
		for _, v := range violations {
			details = append(details, FieldError{Field: v.Field, Message: v.Message})
		}
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "import rejected", Details: details})
	}
	return c.JSON(http.StatusCreated, map[string]int{"imported": n})
}
