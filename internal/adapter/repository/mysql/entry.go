package mysql

import (
	"context"
	"errors"
	"strings"
	"time"

	entryDomain "girvi-backend/internal/domain/entry"

	"gorm.io/gorm"
)

type EntryRepository struct{ db *gorm.DB }

func NewEntryRepository(db *gorm.DB) *EntryRepository { return &EntryRepository{db: db} }

func (r *EntryRepository) Create(ctx context.Context, e *entryDomain.Entry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *EntryRepository) GetByEntryID(ctx context.Context, entryID string) (*entryDomain.Entry, error) {
	var out entryDomain.Entry
	res := r.db.WithContext(ctx).Where("entry_id = ?", entryID).First(&out)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, entryDomain.ErrNotFound
		}
		return nil, res.Error
	}
	return &out, nil
}

func (r *EntryRepository) ListActive(ctx context.Context, f entryDomain.ListFilter) ([]entryDomain.Entry, error) {
	q := r.db.WithContext(ctx).
		Where("status = ?", entryDomain.StatusActive).
		Order("loan_date DESC, id DESC")
	if f.Date != nil {
		q = q.Where("loan_date = ?", *f.Date)
	}
	var out []entryDomain.Entry
	return out, q.Find(&out).Error
}

func (r *EntryRepository) ListSettled(ctx context.Context, f entryDomain.ListFilter) ([]entryDomain.Entry, error) {
	q := r.db.WithContext(ctx).
		Where("status = ?", entryDomain.StatusSettled).
		Order("settled_date DESC, id DESC")
	if f.Date != nil {
		q = q.Where("settled_date = ?", *f.Date)
	}
	var out []entryDomain.Entry
	return out, q.Find(&out).Error
}

func (r *EntryRepository) ListByLoanDateRange(ctx context.Context, start, end time.Time) ([]entryDomain.Entry, error) {
	var out []entryDomain.Entry
	err := r.db.WithContext(ctx).
		Where("loan_date >= ? AND loan_date <= ?", start, end).
		Order("loan_date DESC, id DESC").
		Find(&out).Error
	return out, err
}

// SuggestCustomers over-fetches recent matches and deduplicates by name in
// memory; the latest entry for a name wins its address/mobile.
func (r *EntryRepository) SuggestCustomers(ctx context.Context, fragment string, limit int) ([]entryDomain.CustomerSuggestion, error) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" || limit <= 0 {
		return nil, nil
	}

	var rows []entryDomain.CustomerSuggestion
	err := r.db.WithContext(ctx).
		Model(&entryDomain.Entry{}).
		Select("customer_name", "customer_address", "customer_mobile").
		Where("LOWER(customer_name) LIKE ?", "%"+strings.ToLower(fragment)+"%").
		Order("id DESC").
		Limit(limit * 20).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, limit)
	out := make([]entryDomain.CustomerSuggestion, 0, limit)
	for _, row := range rows {
		key := strings.ToLower(row.CustomerName)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, row)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *EntryRepository) Settle(ctx context.Context, entryID string, s entryDomain.Settlement) error {
	values := map[string]any{
		"status":         entryDomain.StatusSettled,
		"settled_amount": s.Amount,
		"settled_date":   s.Date,
	}
	if s.Notes != "" {
		values["settlement_notes"] = s.Notes
	}
	res := r.db.WithContext(ctx).
		Model(&entryDomain.Entry{}).
		Where("entry_id = ? AND status = ?", entryID, entryDomain.StatusActive).
		Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.conflictError(ctx, entryID)
	}
	return nil
}

func (r *EntryRepository) Renew(ctx context.Context, entryID string, rn entryDomain.Renewal) (*entryDomain.Entry, error) {
	var out *entryDomain.Entry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur entryDomain.Entry
		if err := tx.Where("entry_id = ?", entryID).First(&cur).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return entryDomain.ErrNotFound
			}
			return err
		}
		if cur.Status != entryDomain.StatusActive {
			return entryDomain.ErrPreconditionFailed
		}

		history := append(cur.RenewalHistory, entryDomain.RenewalCycle{
			Date:          cur.LoanDate.Format(time.DateOnly),
			Amount:        cur.GivenAmount,
			SettledAmount: rn.SettlementAmount,
			RenewalDate:   rn.Date.Format(time.DateOnly),
			NewAmount:     rn.NewAmount,
		})

		res := tx.Model(&entryDomain.Entry{}).
			Where("entry_id = ? AND status = ?", entryID, entryDomain.StatusActive).
			Updates(map[string]any{
				"loan_date":       rn.Date,
				"given_amount":    rn.NewAmount,
				"renewal_history": history,
				"renewal_date":    rn.Date,
				"renewal_amount":  rn.SettlementAmount,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return entryDomain.ErrPreconditionFailed
		}

		var fresh entryDomain.Entry
		if err := tx.Where("entry_id = ?", entryID).First(&fresh).Error; err != nil {
			return err
		}
		out = &fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *EntryRepository) Revoke(ctx context.Context, entryID string) error {
	res := r.db.WithContext(ctx).
		Model(&entryDomain.Entry{}).
		Where("entry_id = ? AND status = ?", entryID, entryDomain.StatusSettled).
		Updates(map[string]any{
			"status":           entryDomain.StatusActive,
			"settled_amount":   nil,
			"settled_date":     nil,
			"settlement_notes": nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.conflictError(ctx, entryID)
	}
	return nil
}

func (r *EntryRepository) DeleteActive(ctx context.Context, entryID string) error {
	res := r.db.WithContext(ctx).
		Where("entry_id = ? AND status = ?", entryID, entryDomain.StatusActive).
		Delete(&entryDomain.Entry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.conflictError(ctx, entryID)
	}
	return nil
}

func (r *EntryRepository) BulkInsert(ctx context.Context, entries []*entryDomain.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(entries, 100).Error
	})
}

// conflictError distinguishes "row gone" from "row exists with a different
// status" after a conditional write touched zero rows.
func (r *EntryRepository) conflictError(ctx context.Context, entryID string) error {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&entryDomain.Entry{}).
		Where("entry_id = ?", entryID).
		Count(&cnt).Error; err != nil {
		return err
	}
	if cnt == 0 {
		return entryDomain.ErrNotFound
	}
	return entryDomain.ErrPreconditionFailed
}
