package http

import (
	"net/http"

	entryUC "girvi-backend/internal/usecase/entry"

	"github.com/labstack/echo/v4"
)

type EntryHandler struct{ uc *entryUC.Usecase }

func NewEntryHandler(uc *entryUC.Usecase) *EntryHandler { return &EntryHandler{uc: uc} }

type createEntryReq struct {
	EntryType       string  `json:"entry_type" validate:"required,oneof=NR R Vyapari"`
	LoanDate        string  `json:"loan_date" validate:"required,dateonly"`
	CustomerName    string  `json:"customer_name" validate:"required"`
	CustomerAddress string  `json:"customer_address" validate:"required"`
	CustomerMobile  string  `json:"customer_mobile"`
	Items           string  `json:"items" validate:"required"`
	GivenAmount     float64 `json:"given_amount" validate:"gte=0,dec2"`
}

type settleReq struct {
	// no "required": a zero total is legitimate when the principal is zero
	TotalAmount float64 `json:"total_amount" validate:"gte=0,dec2"`
	SettledDate string  `json:"settled_date" validate:"required,dateonly"`
	Notes       string  `json:"notes"`
}

type renewReq struct {
	SettlementAmount float64 `json:"settlement_amount" validate:"gte=0,dec2"`
	RenewalDate      string  `json:"renewal_date" validate:"required,dateonly"`
	NewLoanAmount    float64 `json:"new_loan_amount" validate:"gte=0,dec2"`
}

func (h *EntryHandler) CreateEntry(c echo.Context) error {
	var req createEntryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	dto, err := h.uc.Create(c.Request().Context(), entryUC.CreateEntryInput(req))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *EntryHandler) GetEntry(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("entry_id"))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *EntryHandler) ListActive(c echo.Context) error {
	dtos, err := h.uc.ListActive(c.Request().Context(), entryUC.ListQuery{
		Date:   c.QueryParam("date"),
		Search: c.QueryParam("q"),
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, dtos)
}

func (h *EntryHandler) ListSettled(c echo.Context) error {
	dtos, err := h.uc.ListSettled(c.Request().Context(), entryUC.ListQuery{
		Date:   c.QueryParam("date"),
		Search: c.QueryParam("q"),
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, dtos)
}

func (h *EntryHandler) SuggestCustomers(c echo.Context) error {
	out, err := h.uc.Suggest(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *EntryHandler) Settle(c echo.Context) error {
	var req settleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	dto, err := h.uc.Settle(c.Request().Context(), c.Param("entry_id"), entryUC.SettleInput(req))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *EntryHandler) Renew(c echo.Context) error {
	var req renewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	dto, err := h.uc.Renew(c.Request().Context(), c.Param("entry_id"), entryUC.RenewInput(req))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *EntryHandler) Revoke(c echo.Context) error {
	dto, err := h.uc.Revoke(c.Request().Context(), c.Param("entry_id"))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *EntryHandler) DeleteEntry(c echo.Context) error {
	if err := h.uc.Delete(c.Request().Context(), c.Param("entry_id")); err != nil {
		return writeDomainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
