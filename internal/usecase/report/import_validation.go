package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"girvi-backend/internal/domain/entry"

	"github.com/go-playground/validator/v10"
)

// Violation is one structured per-field finding from import validation.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ImportEntry is the accepted wire shape of one imported record. Pointer
// fields distinguish absent from zero so optional fields can be
// typed-or-absent.
type ImportEntry struct {
	EntryType       *string              `json:"entry_type" validate:"required,oneof=NR R Vyapari"`
	LoanDate        *string              `json:"loan_date" validate:"required,dateonly"`
	CustomerName    *string              `json:"customer_name" validate:"required,notblank"`
	CustomerAddress *string              `json:"customer_address" validate:"required,notblank"`
	CustomerMobile  *string              `json:"customer_mobile"`
	Items           *string              `json:"items" validate:"required,notblank"`
	GivenAmount     *float64             `json:"given_amount" validate:"required,gte=0"`
	Status          *string              `json:"status" validate:"required,oneof=active settled"`
	SettledAmount   *float64             `json:"settled_amount" validate:"omitempty,gte=0"`
	SettledDate     *string              `json:"settled_date" validate:"omitempty,dateonly"`
	SettlementNotes *string              `json:"settlement_notes"`
	RenewalHistory  []entry.RenewalCycle `json:"renewal_history"`
	RenewalDate     *string              `json:"renewal_date" validate:"omitempty,dateonly"`
	RenewalAmount   *float64             `json:"renewal_amount" validate:"omitempty,gte=0"`
}

var importValidator = newImportValidator()

func newImportValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("dateonly", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(time.DateOnly, fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// DecodeAndValidate parses a JSON array and collects every violation across
// the batch. A type mismatch anywhere aborts the decode (and so the batch);
// field-level rule violations are gathered per element.
func DecodeAndValidate(raw []byte) ([]ImportEntry, []Violation, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var batch []ImportEntry
	if err := dec.Decode(&batch); err != nil {
		return nil, nil, fmt.Errorf("%w: invalid import payload: %v", ErrInvalidInput, err)
	}
	if batch == nil {
		return nil, nil, fmt.Errorf("%w: import payload must be a JSON array", ErrInvalidInput)
	}

	var violations []Violation
	for i := range batch {
		violations = append(violations, validateElement(i, &batch[i])...)
	}
	return batch, violations, nil
}

func validateElement(idx int, r *ImportEntry) []Violation {
	var out []Violation
	if err := importValidator.Struct(r); err != nil {
		ve, ok := err.(validator.ValidationErrors)
		if !ok {
			return []Violation{{Field: elemField(idx, "_"), Message: err.Error()}}
		}
		for _, fe := range ve {
			out = append(out, Violation{
				Field:   elemField(idx, jsonName(fe.StructField())),
				Message: ruleMessage(fe),
			})
		}
	}

	// cross-field pairing invariants
	settled := r.Status != nil && *r.Status == string(entry.StatusSettled)
	if settled && (r.SettledAmount == nil || r.SettledDate == nil) {
		out = append(out, Violation{Field: elemField(idx, "status"), Message: "settled entries require settled_amount and settled_date"})
	}
	if !settled && (r.SettledAmount != nil || r.SettledDate != nil || r.SettlementNotes != nil) {
		out = append(out, Violation{Field: elemField(idx, "status"), Message: "active entries must not carry settlement fields"})
	}
	if (r.RenewalDate == nil) != (r.RenewalAmount == nil) {
		out = append(out, Violation{Field: elemField(idx, "renewal_date"), Message: "renewal_date and renewal_amount must be set together"})
	}
	return out
}

func elemField(idx int, field string) string {
	return fmt.Sprintf("[%d].%s", idx, field)
}

var jsonNames = map[string]string{
	"EntryType":       "entry_type",
	"LoanDate":        "loan_date",
	"CustomerName":    "customer_name",
	"CustomerAddress": "customer_address",
	"CustomerMobile":  "customer_mobile",
	"Items":           "items",
	"GivenAmount":     "given_amount",
	"Status":          "status",
	"SettledAmount":   "settled_amount",
	"SettledDate":     "settled_date",
	"SettlementNotes": "settlement_notes",
	"RenewalHistory":  "renewal_history",
	"RenewalDate":     "renewal_date",
	"RenewalAmount":   "renewal_amount",
}

func jsonName(structField string) string {
	if n, ok := jsonNames[structField]; ok {
		return n
	}
	return structField
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "dateonly":
		return "must be a yyyy-mm-dd date"
	case "notblank":
		return "must not be blank"
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	default:
		return fe.Tag() + " validation failed"
	}
}
