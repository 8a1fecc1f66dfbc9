package entry

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type Type string

const (
	TypeNR      Type = "NR"
	TypeR       Type = "R"
	TypeVyapari Type = "Vyapari"
)

// Types lists the closed set of entry categories.
var Types = []Type{TypeNR, TypeR, TypeVyapari}

func ValidType(t Type) bool {
	for _, v := range Types {
		if t == v {
			return true
		}
	}
	return false
}

type Status string

const (
	StatusActive  Status = "active"
	StatusSettled Status = "settled"
)

var (
	ErrNotFound = errors.New("entry not found")
	// ErrPreconditionFailed: the row exists but its status no longer matches
	// the expected prior status (another actor transitioned it first).
	ErrPreconditionFailed = errors.New("entry status changed since last read")
)

// RenewalCycle is one archived loan cycle. Dates are kept as yyyy-mm-dd
// strings so the stored JSON matches the exported/imported shape exactly.
type RenewalCycle struct {
	Date          string  `json:"date"`
	Amount        float64 `json:"amount"`
	SettledAmount float64 `json:"settled_amount"`
	RenewalDate   string  `json:"renewal_date"`
	NewAmount     float64 `json:"new_amount"`
}

// RenewalHistory is the append-only sequence of past cycles, persisted as a
// JSON column. Never truncated or rewritten, only appended.
type RenewalHistory []RenewalCycle

func (h RenewalHistory) Value() (driver.Value, error) {
	if len(h) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (h *RenewalHistory) Scan(src any) error {
	if src == nil {
		*h = nil
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("renewal_history: cannot scan %T", src)
	}
	if len(b) == 0 {
		*h = nil
		return nil
	}
	return json.Unmarshal(b, h)
}

type Entry struct {
	ID      uint64 `gorm:"primaryKey;column:id" json:"-"`
	EntryID string `gorm:"size:32;uniqueIndex:ux_entries_entry_id_active" json:"entry_id"`

	EntryType Type      `gorm:"column:entry_type;type:enum('NR','R','Vyapari');index" json:"entry_type"`
	LoanDate  time.Time `gorm:"column:loan_date;type:date;index" json:"loan_date"`

	CustomerName    string `gorm:"column:customer_name;size:255;index" json:"customer_name"`
	CustomerAddress string `gorm:"column:customer_address;type:text" json:"customer_address"`
	CustomerMobile  string `gorm:"column:customer_mobile;size:20" json:"customer_mobile,omitempty"`

	Items       string  `gorm:"column:items;type:text" json:"items"`
	GivenAmount float64 `gorm:"column:given_amount;type:decimal(18,2)" json:"given_amount"`

	Status Status `gorm:"column:status;type:enum('active','settled');default:'active';index" json:"status"`

	SettledAmount   *float64   `gorm:"column:settled_amount;type:decimal(18,2)" json:"settled_amount,omitempty"`
	SettledDate     *time.Time `gorm:"column:settled_date;type:date" json:"settled_date,omitempty"`
	SettlementNotes *string    `gorm:"column:settlement_notes;type:text" json:"settlement_notes,omitempty"`

	RenewalHistory RenewalHistory `gorm:"column:renewal_history;type:json" json:"renewal_history"`
	RenewalDate    *time.Time     `gorm:"column:renewal_date;type:date" json:"renewal_date,omitempty"`
	RenewalAmount  *float64       `gorm:"column:renewal_amount;type:decimal(18,2)" json:"renewal_amount,omitempty"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Entry) TableName() string { return "entries" }

// TotalAmount reconstructs the gross settled total from the stored profit
// delta. Zero for entries that are not settled.
func (e *Entry) TotalAmount() float64 {
	if e.SettledAmount == nil {
		return 0
	}
	return e.GivenAmount + *e.SettledAmount
}
