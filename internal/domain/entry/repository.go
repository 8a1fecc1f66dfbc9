package entry

import (
	"context"
	"time"
)

// ListFilter narrows a status listing to an exact loan/settlement date.
// Zero value means no date filter.
type ListFilter struct {
	Date *time.Time
}

// Settlement carries the fields written by a settle transition. Amount is the
// profit delta (gross total minus principal), already computed by the caller.
type Settlement struct {
	Amount float64
	Date   time.Time
	Notes  string
}

// Renewal carries the fields of a renew transition. SettlementAmount closes
// the old cycle; NewAmount opens the next one.
type Renewal struct {
	SettlementAmount float64
	Date             time.Time
	NewAmount        float64
}

// CustomerSuggestion is a deduplicated autocomplete hit.
type CustomerSuggestion struct {
	CustomerName    string `json:"customer_name"`
	CustomerAddress string `json:"customer_address"`
	CustomerMobile  string `json:"customer_mobile,omitempty"`
}

// Repository is the full remote-store contract for entries. All transition
// methods are conditional on the expected prior status at write time and
// return ErrPreconditionFailed when the row exists but no longer matches,
// ErrNotFound when it does not exist at all.
type Repository interface {
	Create(ctx context.Context, e *Entry) error
	GetByEntryID(ctx context.Context, entryID string) (*Entry, error)

	// ListActive returns active entries, newest loan date first.
	ListActive(ctx context.Context, f ListFilter) ([]Entry, error)
	// ListSettled returns settled entries, newest settled date first.
	ListSettled(ctx context.Context, f ListFilter) ([]Entry, error)
	// ListByLoanDateRange returns entries with loan_date in [start, end]
	// inclusive, newest first, regardless of status.
	ListByLoanDateRange(ctx context.Context, start, end time.Time) ([]Entry, error)

	// SuggestCustomers matches name fragments case-insensitively,
	// deduplicated by customer name, capped at limit.
	SuggestCustomers(ctx context.Context, fragment string, limit int) ([]CustomerSuggestion, error)

	// Settle transitions active → settled.
	Settle(ctx context.Context, entryID string, s Settlement) error
	// Renew archives the current cycle and starts the next; status stays
	// active. Returns the refreshed entry.
	Renew(ctx context.Context, entryID string, r Renewal) (*Entry, error)
	// Revoke transitions settled → active and clears all settlement fields.
	Revoke(ctx context.Context, entryID string) error
	// DeleteActive removes an entry, permitted only while active.
	DeleteActive(ctx context.Context, entryID string) error

	// BulkInsert inserts a pre-validated batch in a single transaction.
	BulkInsert(ctx context.Context, entries []*Entry) error
}
