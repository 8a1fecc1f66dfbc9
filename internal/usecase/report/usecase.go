package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"girvi-backend/internal/domain/entry"
	"girvi-backend/pkg/id"
)

// ErrInvalidInput marks bad range, format or payload requests (as opposed to
// store failures, which pass through unwrapped).
var ErrInvalidInput = errors.New("invalid input")

type Usecase struct {
	repo entry.Repository
	now  func() time.Time
}

func NewUsecase(r entry.Repository) *Usecase {
	return &Usecase{repo: r, now: time.Now}
}

type Mode string

const (
	ModeMonthly Mode = "monthly"
	ModeYearly  Mode = "yearly"
	ModeCustom  Mode = "custom"
)

type RangeInput struct {
	Mode  string `json:"mode"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// ResolveRange turns a mode selection into inclusive [start, end] bounds.
// monthly and yearly derive from now; custom requires start <= end.
func ResolveRange(in RangeInput, now time.Time) (time.Time, time.Time, error) {
	switch Mode(in.Mode) {
	case ModeMonthly:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, -1)
		return start, end, nil
	case ModeYearly:
		start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(now.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)
		return start, end, nil
	case ModeCustom:
		start, err := time.Parse(time.DateOnly, in.Start)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid start date %q", ErrInvalidInput, in.Start)
		}
		end, err := time.Parse(time.DateOnly, in.End)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid end date %q", ErrInvalidInput, in.End)
		}
		if start.After(end) {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: start date after end date", ErrInvalidInput)
		}
		return start, end, nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("%w: mode %q must be monthly, yearly or custom", ErrInvalidInput, in.Mode)
	}
}

type TypeBreakdown struct {
	Total    int     `json:"total"`
	Active   int     `json:"active"`
	Settled  int     `json:"settled"`
	Invested float64 `json:"invested"`
	Earned   float64 `json:"earned"`
}

type Summary struct {
	TotalEntries  int                      `json:"total_entries"`
	TotalInvested float64                  `json:"total_invested"`
	TotalEarned   float64                  `json:"total_earned"`
	Profit        float64                  `json:"profit"`
	ByType        map[string]TypeBreakdown `json:"by_type"`
}

// Aggregate runs the single-pass report rollup. totalEarned sums the stored
// settled_amount values as-is (nil counts as 0), and profit is
// totalEarned − totalInvested: the historical report-view arithmetic,
// preserved byte-for-byte even though settled_amount is stored as a profit
// delta elsewhere (see DESIGN.md).
func Aggregate(entries []entry.Entry) Summary {
	s := Summary{ByType: make(map[string]TypeBreakdown)}
	for i := range entries {
		e := &entries[i]
		s.TotalEntries++
		s.TotalInvested += e.GivenAmount

		b := s.ByType[string(e.EntryType)]
		b.Total++
		b.Invested += e.GivenAmount
		if e.Status == entry.StatusSettled {
			b.Settled++
			earned := 0.0
			if e.SettledAmount != nil {
				earned = *e.SettledAmount
			}
			b.Earned += earned
			s.TotalEarned += earned
		} else {
			b.Active++
		}
		s.ByType[string(e.EntryType)] = b
	}
	s.Profit = s.TotalEarned - s.TotalInvested
	return s
}

type ReportDTO struct {
	StartDate string     `json:"start_date"`
	EndDate   string     `json:"end_date"`
	Summary   Summary    `json:"summary"`
	Entries   []EntryRow `json:"entries"`
}

// EntryRow is the full export/import shape of an entry.
type EntryRow struct {
	EntryID         string               `json:"entry_id,omitempty"`
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
	RenewalHistory  []entry.RenewalCycle `json:"renewal_history,omitempty"`
	RenewalDate     *string              `json:"renewal_date,omitempty"`
	RenewalAmount   *float64             `json:"renewal_amount,omitempty"`
}

func toRow(e *entry.Entry) EntryRow {
	row := EntryRow{
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
		SettlementNotes: e.SettlementNotes,
		RenewalHistory:  e.RenewalHistory,
		RenewalAmount:   e.RenewalAmount,
	}
	if e.SettledDate != nil {
		s := e.SettledDate.Format(time.DateOnly)
		row.SettledDate = &s
	}
	if e.RenewalDate != nil {
		s := e.RenewalDate.Format(time.DateOnly)
		row.RenewalDate = &s
	}
	return row
}

func (u *Usecase) fetch(ctx context.Context, in RangeInput) ([]entry.Entry, time.Time, time.Time, error) {
	start, end, err := ResolveRange(in, u.now().UTC())
	if err != nil {
		return nil, time.Time{}, time.Time{}, err
	}
	rows, err := u.repo.ListByLoanDateRange(ctx, start, end)
	if err != nil {
		return nil, time.Time{}, time.Time{}, err
	}
	return rows, start, end, nil
}

func (u *Usecase) Summarize(ctx context.Context, in RangeInput) (*ReportDTO, error) {
	rows, start, end, err := u.fetch(ctx, in)
	if err != nil {
		return nil, err
	}
	out := &ReportDTO{
		StartDate: start.Format(time.DateOnly),
		EndDate:   end.Format(time.DateOnly),
		Summary:   Aggregate(rows),
		Entries:   make([]EntryRow, 0, len(rows)),
	}
	for i := range rows {
		out.Entries = append(out.Entries, toRow(&rows[i]))
	}
	return out, nil
}

// Export renders the ranged record set as a downloadable file. Supported
// formats: "csv" (flattened column subset) and "json" (full shape).
func (u *Usecase) Export(ctx context.Context, in RangeInput, format string) (filename, contentType string, data []byte, err error) {
	rows, _, _, err := u.fetch(ctx, in)
	if err != nil {
		return "", "", nil, err
	}

	stamp := u.now().UTC().Format(time.DateOnly)
	switch format {
	case "csv":
		data, err = renderCSV(rows)
		return "entries-report-" + stamp + ".csv", "text/csv", data, err
	case "json":
		out := make([]EntryRow, 0, len(rows))
		for i := range rows {
			out = append(out, toRow(&rows[i]))
		}
		data, err = json.MarshalIndent(out, "", "  ")
		return "entries-report-" + stamp + ".json", "application/json", data, err
	default:
		return "", "", nil, fmt.Errorf("%w: format %q must be csv or json", ErrInvalidInput, format)
	}
}

func renderCSV(rows []entry.Entry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"Type", "Date", "Customer Name", "Given Amount", "Status", "Settled Amount", "Settled Date"}); err != nil {
		return nil, err
	}
	for i := range rows {
		e := &rows[i]
		settledAmount, settledDate := "", ""
		if e.SettledAmount != nil {
			settledAmount = strconv.FormatFloat(*e.SettledAmount, 'f', 2, 64)
		}
		if e.SettledDate != nil {
			settledDate = e.SettledDate.Format(time.DateOnly)
		}
		rec := []string{
			string(e.EntryType),
			e.LoanDate.Format(time.DateOnly),
			e.CustomerName,
			strconv.FormatFloat(e.GivenAmount, 'f', 2, 64),
			string(e.Status),
			settledAmount,
			settledDate,
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// Import validates a JSON array of entries and bulk-inserts it. The batch is
// all-or-nothing: any violation rejects every element.
func (u *Usecase) Import(ctx context.Context, raw []byte) (int, []Violation, error) {
	batch, violations, err := DecodeAndValidate(raw)
	if err != nil {
		return 0, nil, err
	}
	if len(violations) > 0 {
		return 0, violations, nil
	}

	entries := make([]*entry.Entry, 0, len(batch))
	for i := range batch {
		e, err := batch[i].toEntry()
		if err != nil {
			return 0, nil, fmt.Errorf("element %d: %w", i, err)
		}
		entries = append(entries, e)
	}
	if err := u.repo.BulkInsert(ctx, entries); err != nil {
		return 0, nil, err
	}
	return len(entries), nil, nil
}

func (r *ImportEntry) toEntry() (*entry.Entry, error) {
	loanDate, err := time.Parse(time.DateOnly, *r.LoanDate)
	if err != nil {
		return nil, err
	}
	e := &entry.Entry{
		EntryID:         id.NewID32(),
		EntryType:       entry.Type(*r.EntryType),
		LoanDate:        loanDate,
		CustomerName:    *r.CustomerName,
		CustomerAddress: *r.CustomerAddress,
		Items:           *r.Items,
		GivenAmount:     *r.GivenAmount,
		Status:          entry.Status(*r.Status),
		SettledAmount:   r.SettledAmount,
		SettlementNotes: r.SettlementNotes,
		RenewalHistory:  r.RenewalHistory,
		RenewalAmount:   r.RenewalAmount,
	}
	if r.CustomerMobile != nil {
		e.CustomerMobile = *r.CustomerMobile
	}
	if r.SettledDate != nil {
		d, err := time.Parse(time.DateOnly, *r.SettledDate)
		if err != nil {
			return nil, err
		}
		e.SettledDate = &d
	}
	if r.RenewalDate != nil {
		d, err := time.Parse(time.DateOnly, *r.RenewalDate)
		if err != nil {
			return nil, err
		}
		e.RenewalDate = &d
	}
	return e, nil
}
