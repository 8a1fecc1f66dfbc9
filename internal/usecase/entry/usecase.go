package entry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"girvi-backend/internal/domain/entry"
	"girvi-backend/pkg/id"

	"github.com/redis/go-redis/v9"
)

// ErrInvalidInput marks business-rule validation failures (as opposed to
// store errors or status-guard conflicts).
var ErrInvalidInput = errors.New("invalid input")

const suggestLimit = 5

type Usecase struct {
	repo entry.Repository

	// Optional suggestion cache with a micro TTL: rapid repeats of the
	// same fragment collapse into one store query. Nil disables caching.
	rdb        *redis.Client
	suggestTTL time.Duration
}

func NewUsecase(r entry.Repository) *Usecase { return &Usecase{repo: r} }

func NewUsecaseWithCache(r entry.Repository, rdb *redis.Client, suggestTTL time.Duration) *Usecase {
	return &Usecase{repo: r, rdb: rdb, suggestTTL: suggestTTL}
}

type CreateEntryInput struct {
	EntryType       string  `json:"entry_type"`
	LoanDate        string  `json:"loan_date"`
	CustomerName    string  `json:"customer_name"`
	CustomerAddress string  `json:"customer_address"`
	CustomerMobile  string  `json:"customer_mobile"`
	Items           string  `json:"items"`
	GivenAmount     float64 `json:"given_amount"`
}

type SettleInput struct {
	TotalAmount float64 `json:"total_amount"`
	SettledDate string  `json:"settled_date"`
	Notes       string  `json:"notes"`
}

type RenewInput struct {
	SettlementAmount float64 `json:"settlement_amount"`
	RenewalDate      string  `json:"renewal_date"`
	NewLoanAmount    float64 `json:"new_loan_amount"`
}

type ListQuery struct {
	Date   string
	Search string
}

type EntryDTO struct {
	EntryID         string               `json:"entry_id"`
	EntryType       string               `json:"entry_type"`
	LoanDate        string               `json:"loan_date"`
	CustomerName    string               `json:"customer_name"`
	CustomerAddress string               `json:"customer_address"`
	CustomerMobile  string               `json:"customer_mobile,omitempty"`
	Items           string               `json:"items"`
	GivenAmount     float64              `json:"given_amount"`
	Status          string               `json:"status"`
	SettledAmount   *float64             `json:"settled_amount,omitempty"`
	SettledDate     *string              `json:"settled_date,omitempty"`
	SettlementNotes *string              `json:"settlement_notes,omitempty"`
	TotalAmount     float64              `json:"total_amount,omitempty"`
	RenewalHistory  entry.RenewalHistory `json:"renewal_history"`
	RenewalDate     *string              `json:"renewal_date,omitempty"`
	RenewalAmount   *float64             `json:"renewal_amount,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be yyyy-mm-dd", ErrInvalidInput, s)
	}
	return t, nil
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.DateOnly)
	return &s
}

func toDTO(e *entry.Entry) *EntryDTO {
	dto := &EntryDTO{
		EntryID:         e.EntryID,
		EntryType:       string(e.EntryType),
		LoanDate:        e.LoanDate.Format(time.DateOnly),
		CustomerName:    e.CustomerName,
		CustomerAddress: e.CustomerAddress,
		CustomerMobile:  e.CustomerMobile,
		Items:           e.Items,
		GivenAmount:     e.GivenAmount,
		Status:          string(e.Status),
		SettledAmount:   e.SettledAmount,
		SettledDate:     formatDate(e.SettledDate),
		SettlementNotes: e.SettlementNotes,
		RenewalHistory:  e.RenewalHistory,
		RenewalDate:     formatDate(e.RenewalDate),
		RenewalAmount:   e.RenewalAmount,
		CreatedAt:       e.CreatedAt,
	}
	if e.Status == entry.StatusSettled {
		dto.TotalAmount = e.TotalAmount()
	}
	if dto.RenewalHistory == nil {
		dto.RenewalHistory = entry.RenewalHistory{}
	}
	return dto
}

func (u *Usecase) Create(ctx context.Context, in CreateEntryInput) (*EntryDTO, error) {
	if !entry.ValidType(entry.Type(in.EntryType)) {
		return nil, fmt.Errorf("%w: entry_type %q not in {NR, R, Vyapari}", ErrInvalidInput, in.EntryType)
	}
	if strings.TrimSpace(in.CustomerName) == "" || strings.TrimSpace(in.CustomerAddress) == "" || strings.TrimSpace(in.Items) == "" {
		return nil, fmt.Errorf("%w: customer_name, customer_address and items are required", ErrInvalidInput)
	}
	if in.GivenAmount < 0 {
		return nil, fmt.Errorf("%w: given_amount must be >= 0", ErrInvalidInput)
	}
	loanDate, err := parseDate(in.LoanDate)
	if err != nil {
		return nil, err
	}

	e := &entry.Entry{
		EntryID:         id.NewID32(),
		EntryType:       entry.Type(in.EntryType),
		LoanDate:        loanDate,
		CustomerName:    strings.TrimSpace(in.CustomerName),
		CustomerAddress: strings.TrimSpace(in.CustomerAddress),
		CustomerMobile:  strings.TrimSpace(in.CustomerMobile),
		Items:           strings.TrimSpace(in.Items),
		GivenAmount:     in.GivenAmount,
		Status:          entry.StatusActive,
	}
	if err := u.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	return toDTO(e), nil
}

func (u *Usecase) Get(ctx context.Context, entryID string) (*EntryDTO, error) {
	e, err := u.repo.GetByEntryID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	return toDTO(e), nil
}

func (u *Usecase) ListActive(ctx context.Context, q ListQuery) ([]*EntryDTO, error) {
	f, err := listFilter(q)
	if err != nil {
		return nil, err
	}
	rows, err := u.repo.ListActive(ctx, f)
	if err != nil {
		return nil, err
	}
	return searchFiltered(rows, q.Search, false), nil
}

func (u *Usecase) ListSettled(ctx context.Context, q ListQuery) ([]*EntryDTO, error) {
	f, err := listFilter(q)
	if err != nil {
		return nil, err
	}
	rows, err := u.repo.ListSettled(ctx, f)
	if err != nil {
		return nil, err
	}
	return searchFiltered(rows, q.Search, true), nil
}

func listFilter(q ListQuery) (entry.ListFilter, error) {
	var f entry.ListFilter
	if q.Date != "" {
		d, err := parseDate(q.Date)
		if err != nil {
			return f, err
		}
		f.Date = &d
	}
	return f, nil
}

// searchFiltered applies the list search: substring match, case-insensitive,
// OR-combined across fields.
func searchFiltered(rows []entry.Entry, search string, settled bool) []*EntryDTO {
	search = strings.ToLower(strings.TrimSpace(search))
	out := make([]*EntryDTO, 0, len(rows))
	for i := range rows {
		e := &rows[i]
		if search != "" && !matchesSearch(e, search, settled) {
			continue
		}
		out = append(out, toDTO(e))
	}
	return out
}

func matchesSearch(e *entry.Entry, q string, settled bool) bool {
	fields := []string{
		strings.ToLower(e.CustomerName),
		strings.ToLower(e.CustomerMobile),
		strings.ToLower(string(e.EntryType)),
		strconv.FormatFloat(e.GivenAmount, 'f', -1, 64),
	}
	if settled && e.SettledAmount != nil {
		fields = append(fields, strconv.FormatFloat(*e.SettledAmount, 'f', -1, 64))
	}
	for _, f := range fields {
		if f != "" && strings.Contains(f, q) {
			return true
		}
	}
	return false
}

func (u *Usecase) Suggest(ctx context.Context, fragment string) ([]entry.CustomerSuggestion, error) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return []entry.CustomerSuggestion{}, nil
	}

	cacheKey := "suggest:" + strings.ToLower(fragment)
	if u.rdb != nil {
		if raw, err := u.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached []entry.CustomerSuggestion
			if json.Unmarshal(raw, &cached) == nil {
				return cached, nil
			}
		}
	}

	out, err := u.repo.SuggestCustomers(ctx, fragment, suggestLimit)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []entry.CustomerSuggestion{}
	}

	if u.rdb != nil {
		if raw, err := json.Marshal(out); err == nil {
			if err := u.rdb.Set(ctx, cacheKey, raw, u.suggestTTL).Err(); err != nil {
				log.Printf("suggest cache set failed: %v", err)
			}
		}
	}
	return out, nil
}

// Settle closes an entry. The stored settled_amount is the profit delta
// (gross total minus the principal), not the gross total itself.
func (u *Usecase) Settle(ctx context.Context, entryID string, in SettleInput) (*EntryDTO, error) {
	settledDate, err := parseDate(in.SettledDate)
	if err != nil {
		return nil, err
	}

	cur, err := u.repo.GetByEntryID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if cur.Status != entry.StatusActive {
		return nil, entry.ErrPreconditionFailed
	}
	if in.TotalAmount < cur.GivenAmount {
		return nil, fmt.Errorf("%w: total_amount %.2f below principal %.2f", ErrInvalidInput, in.TotalAmount, cur.GivenAmount)
	}

	s := entry.Settlement{
		Amount: in.TotalAmount - cur.GivenAmount,
		Date:   settledDate,
		Notes:  strings.TrimSpace(in.Notes),
	}
	if err := u.repo.Settle(ctx, entryID, s); err != nil {
		return nil, err
	}
	return u.Get(ctx, entryID)
}

func (u *Usecase) Renew(ctx context.Context, entryID string, in RenewInput) (*EntryDTO, error) {
	renewalDate, err := parseDate(in.RenewalDate)
	if err != nil {
		return nil, err
	}
	if in.NewLoanAmount < 0 {
		return nil, fmt.Errorf("%w: new_loan_amount must be >= 0", ErrInvalidInput)
	}

	cur, err := u.repo.GetByEntryID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if cur.Status != entry.StatusActive {
		return nil, entry.ErrPreconditionFailed
	}
	if in.SettlementAmount < cur.GivenAmount {
		return nil, fmt.Errorf("%w: settlement_amount %.2f below principal %.2f", ErrInvalidInput, in.SettlementAmount, cur.GivenAmount)
	}

	fresh, err := u.repo.Renew(ctx, entryID, entry.Renewal{
		SettlementAmount: in.SettlementAmount,
		Date:             renewalDate,
		NewAmount:        in.NewLoanAmount,
	})
	if err != nil {
		return nil, err
	}
	return toDTO(fresh), nil
}

func (u *Usecase) Revoke(ctx context.Context, entryID string) (*EntryDTO, error) {
	if err := u.repo.Revoke(ctx, entryID); err != nil {
		return nil, err
	}
	return u.Get(ctx, entryID)
}

func (u *Usecase) Delete(ctx context.Context, entryID string) error {
	return u.repo.DeleteActive(ctx, entryID)
}
