package http

import (
	"bytes"
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	domain "girvi-backend/internal/domain/entry"
	"girvi-backend/internal/testutil/entrymock"
	entryUC "girvi-backend/internal/usecase/entry"

	"github.com/labstack/echo/v4"
)

// -------- helpers --------

func newEchoWithValidator() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func mustJSON(v any) *bytes.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleActive(entryID string) *domain.Entry {
	return &domain.Entry{
		EntryID:         entryID,
		EntryType:       domain.TypeNR,
		LoanDate:        day(2025, 1, 1),
		CustomerName:    "Ramesh",
		CustomerAddress: "Main Bazaar",
		Items:           "gold ring",
		GivenAmount:     1000,
		Status:          domain.StatusActive,
	}
}

func newEntryHandler(repo *entrymock.Repo) *EntryHandler {
	return NewEntryHandler(entryUC.NewUsecase(repo))
}

// -------- tests --------

func TestCreateEntry_Success(t *testing.T) {
	e := newEchoWithValidator()
	h := newEntryHandler(&entrymock.Repo{})

	reqBody := map[string]any{
		"entry_type":       "NR",
		"loan_date":        "2025-01-01",
		"customer_name":    "Ramesh",
		"customer_address": "Main Bazaar",
		"items":            "gold ring",
		"given_amount":     1000,
	}
	req := httptest.NewRequest(stdhttp.MethodPost, "/api/entries", mustJSON(reqBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateEntry(c); err != nil {
		t.Fatalf("CreateEntry error: %v", err)
	}
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}

	var dto entryUC.EntryDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &dto); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if dto.Status != "active" || len(dto.EntryID) != 32 {
		t.Fatalf("dto = %+v", dto)
	}
}

func TestCreateEntry_ValidationDetails(t *testing.T) {
	e := newEchoWithValidator()
	h := newEntryHandler(&entrymock.Repo{
		CreateFn: func(ctx context.Context, en *domain.Entry) error {
			t.Fatal("Create must not run for invalid payload")
			return nil
		},
	})

	reqBody := map[string]any{
		"entry_type":       "Gold",
		"loan_date":        "yesterday",
		"customer_address": "Main Bazaar",
		"items":            "gold ring",
		"given_amount":     10.999,
	}
	req := httptest.NewRequest(stdhttp.MethodPost, "/api/entries", mustJSON(reqBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateEntry(c); err != nil {
		t.Fatalf("CreateEntry error: %v", err)
	}
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !containsFieldMsg(resp.Details, "EntryType", "one of") {
		t.Errorf("missing entry_type finding: %+v", resp.Details)
	}
	if !containsFieldMsg(resp.Details, "LoanDate", "yyyy-mm-dd") {
		t.Errorf("missing loan_date finding: %+v", resp.Details)
	}
	if !containsFieldMsg(resp.Details, "CustomerName", "required") {
		t.Errorf("missing customer_name finding: %+v", resp.Details)
	}
	if !containsFieldMsg(resp.Details, "GivenAmount", "decimal") {
		t.Errorf("missing given_amount finding: %+v", resp.Details)
	}
}

func TestSettle_Success(t *testing.T) {
	e := newEchoWithValidator()
	const entryID = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

	state := sampleActive(entryID)
	h := newEntryHandler(&entrymock.Repo{
		GetByEntryIDFn: func(ctx context.Context, got string) (*domain.Entry, error) {
			cp := *state
			return &cp, nil
		},
		SettleFn: func(ctx context.Context, got string, s domain.Settlement) error {
			amt, d := s.Amount, s.Date
			state.Status = domain.StatusSettled
			state.SettledAmount = &amt
			state.SettledDate = &d
			return nil
		},
	})

	req := httptest.NewRequest(stdhttp.MethodPost, "/api/entries/"+entryID+"/settle",
		mustJSON(map[string]any{"total_amount": 1200, "settled_date": "2025-01-10"}))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("entry_id")
	c.SetParamValues(entryID)

	if err := h.Settle(c); err != nil {
		t.Fatalf("Settle error: %v", err)
	}
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var dto entryUC.EntryDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &dto); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if dto.Status != "settled" || dto.SettledAmount == nil || *dto.SettledAmount != 200 {
		t.Fatalf("dto = %+v", dto)
	}
}

func TestSettle_ZeroPrincipal(t *testing.T) {
	e := newEchoWithValidator()
	const entryID = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

	state := sampleActive(entryID)
	state.GivenAmount = 0
	h := newEntryHandler(&entrymock.Repo{
		GetByEntryIDFn: func(ctx context.Context, got string) (*domain.Entry, error) {
			cp := *state
			return &cp, nil
		},
		SettleFn: func(ctx context.Context, got string, s domain.Settlement) error {
			amt, d := s.Amount, s.Date
			state.Status = domain.StatusSettled
			state.SettledAmount = &amt
			state.SettledDate = &d
			return nil
		},
	})

	req := httptest.NewRequest(stdhttp.MethodPost, "/api/entries/"+entryID+"/settle",
		mustJSON(map[string]any{"total_amount": 0, "settled_date": "2025-01-10"}))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("entry_id")
	c.SetParamValues(entryID)

	if err := h.Settle(c); err != nil {
		t.Fatalf("Settle error: %v", err)
	}
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var dto entryUC.EntryDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &dto); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if dto.Status != "settled" || dto.SettledAmount == nil || *dto.SettledAmount != 0 {
		t.Fatalf("dto = %+v", dto)
	}
}

func TestRenew_ZeroPrincipal(t *testing.T) {
	e := newEchoWithValidator()
	const entryID = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

	h := newEntryHandler(&entrymock.Repo{
		GetByEntryIDFn: func(ctx context.Context, got string) (*domain.Entry, error) {
			en := sampleActive(got)
			en.GivenAmount = 0
			return en, nil
		},
		RenewFn: func(ctx context.Context, got string, r domain.Renewal) (*domain.Entry, error) {
			if r.SettlementAmount != 0 || r.NewAmount != 500 {
				t.Fatalf("renewal = %+v", r)
			}
			en := sampleActive(got)
			en.LoanDate = day(2025, 2, 1)
			en.GivenAmount = 500
			return en, nil
		},
	})

	req := httptest.NewRequest(stdhttp.MethodPost, "/api/entries/"+entryID+"/renew",
		mustJSON(map[string]any{"settlement_amount": 0, "renewal_date": "2025-02-01", "new_loan_amount": 500}))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("entry_id")
	c.SetParamValues(entryID)

	if err := h.Renew(c); err != nil {
		t.Fatalf("Renew error: %v", err)
	}
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestSettle_ConflictOnLostRace(t *testing.T) {
	e := newEchoWithValidator()
	const entryID = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

	h := newEntryHandler(&entrymock.Repo{
		GetByEntryIDFn: func(ctx context.Context, got string) (*domain.Entry, error) {
			return sampleActive(got), nil
		},
		SettleFn: func(ctx context.Context, got string, s domain.Settlement) error {
			// another actor settled between read and conditional write
			return domain.ErrPreconditionFailed
		},
	})

	req := httptest.NewRequest(stdhttp.MethodPost, "/api/entries/"+entryID+"/settle",
		mustJSON(map[string]any{"total_amount": 1200, "settled_date": "2025-01-10"}))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("entry_id")
	c.SetParamValues(entryID)

	if err := h.Settle(c); err != nil {
		t.Fatalf("Settle error: %v", err)
	}
	if rec.Code != stdhttp.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestDeleteEntry_StatusGuard(t *testing.T) {
	e := newEchoWithValidator()
	const entryID = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

	h := newEntryHandler(&entrymock.Repo{
		DeleteActiveFn: func(ctx context.Context, got string) error {
			return domain.ErrPreconditionFailed
		},
	})

	req := httptest.NewRequest(stdhttp.MethodDelete, "/api/entries/"+entryID, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("entry_id")
	c.SetParamValues(entryID)

	if err := h.DeleteEntry(c); err != nil {
		t.Fatalf("DeleteEntry error: %v", err)
	}
	if rec.Code != stdhttp.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestDeleteEntry_Success(t *testing.T) {
	e := newEchoWithValidator()
	const entryID = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

	h := newEntryHandler(&entrymock.Repo{})
	req := httptest.NewRequest(stdhttp.MethodDelete, "/api/entries/"+entryID, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("entry_id")
	c.SetParamValues(entryID)

	if err := h.DeleteEntry(c); err != nil {
		t.Fatalf("DeleteEntry error: %v", err)
	}
	if rec.Code != stdhttp.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
}

func TestListActive_PassesFilters(t *testing.T) {
	e := newEchoWithValidator()

	var gotFilter domain.ListFilter
	h := newEntryHandler(&entrymock.Repo{
		ListActiveFn: func(ctx context.Context, f domain.ListFilter) ([]domain.Entry, error) {
			gotFilter = f
			return []domain.Entry{*sampleActive("e1")}, nil
		},
	})

	req := httptest.NewRequest(stdhttp.MethodGet, "/api/entries/active?date=2025-01-01&q=ramesh", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListActive(c); err != nil {
		t.Fatalf("ListActive error: %v", err)
	}
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gotFilter.Date == nil || !gotFilter.Date.Equal(day(2025, 1, 1)) {
		t.Fatalf("date filter not forwarded: %+v", gotFilter)
	}

	var dtos []entryUC.EntryDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &dtos); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(dtos) != 1 {
		t.Fatalf("dtos = %+v", dtos)
	}
}

func TestGetEntry_NotFound(t *testing.T) {
	e := newEchoWithValidator()
	h := newEntryHandler(&entrymock.Repo{})

	req := httptest.NewRequest(stdhttp.MethodGet, "/api/entries/unknown", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("entry_id")
	c.SetParamValues("unknown")

	if err := h.GetEntry(c); err != nil {
		t.Fatalf("GetEntry error: %v", err)
	}
	if rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestSuggestCustomers(t *testing.T) {
	e := newEchoWithValidator()
	h := newEntryHandler(&entrymock.Repo{
		SuggestCustomersFn: func(ctx context.Context, fragment string, limit int) ([]domain.CustomerSuggestion, error) {
			if fragment != "Ram" || limit != 5 {
				t.Fatalf("fragment=%q limit=%d", fragment, limit)
			}
			return []domain.CustomerSuggestion{{CustomerName: "Ramesh", CustomerAddress: "Main Bazaar"}}, nil
		},
	})

	req := httptest.NewRequest(stdhttp.MethodGet, "/api/customers/suggest?q=Ram", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.SuggestCustomers(c); err != nil {
		t.Fatalf("SuggestCustomers error: %v", err)
	}
	var out []domain.CustomerSuggestion
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(out) != 1 || out[0].CustomerName != "Ramesh" {
		t.Fatalf("out = %+v", out)
	}
}
