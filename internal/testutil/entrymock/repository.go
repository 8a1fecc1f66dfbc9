package entrymock

import (
	"context"
	"time"

	domain "girvi-backend/internal/domain/entry"
)

// Repo is a function-backed mock that satisfies domain.Repository.
// Unset hooks return zero values so tests only wire what they assert on.
type Repo struct {
	CreateFn              func(ctx context.Context, e *domain.Entry) error
	GetByEntryIDFn        func(ctx context.Context, entryID string) (*domain.Entry, error)
	ListActiveFn          func(ctx context.Context, f domain.ListFilter) ([]domain.Entry, error)
	ListSettledFn         func(ctx context.Context, f domain.ListFilter) ([]domain.Entry, error)
	ListByLoanDateRangeFn func(ctx context.Context, start, end time.Time) ([]domain.Entry, error)
	SuggestCustomersFn    func(ctx context.Context, fragment string, limit int) ([]domain.CustomerSuggestion, error)
	SettleFn              func(ctx context.Context, entryID string, s domain.Settlement) error
	RenewFn               func(ctx context.Context, entryID string, r domain.Renewal) (*domain.Entry, error)
	RevokeFn              func(ctx context.Context, entryID string) error
	DeleteActiveFn        func(ctx context.Context, entryID string) error
	BulkInsertFn          func(ctx context.Context, entries []*domain.Entry) error
}

func (m *Repo) Create(ctx context.Context, e *domain.Entry) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, e)
	}
	return nil
}

func (m *Repo) GetByEntryID(ctx context.Context, entryID string) (*domain.Entry, error) {
	if m.GetByEntryIDFn != nil {
		return m.GetByEntryIDFn(ctx, entryID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) ListActive(ctx context.Context, f domain.ListFilter) ([]domain.Entry, error) {
	if m.ListActiveFn != nil {
		return m.ListActiveFn(ctx, f)
	}
	return nil, nil
}

func (m *Repo) ListSettled(ctx context.Context, f domain.ListFilter) ([]domain.Entry, error) {
	if m.ListSettledFn != nil {
		return m.ListSettledFn(ctx, f)
	}
	return nil, nil
}

func (m *Repo) ListByLoanDateRange(ctx context.Context, start, end time.Time) ([]domain.Entry, error) {
	if m.ListByLoanDateRangeFn != nil {
		return m.ListByLoanDateRangeFn(ctx, start, end)
	}
	return nil, nil
}

func (m *Repo) SuggestCustomers(ctx context.Context, fragment string, limit int) ([]domain.CustomerSuggestion, error) {
	if m.SuggestCustomersFn != nil {
		return m.SuggestCustomersFn(ctx, fragment, limit)
	}
	return nil, nil
}

func (m *Repo) Settle(ctx context.Context, entryID string, s domain.Settlement) error {
	if m.SettleFn != nil {
		return m.SettleFn(ctx, entryID, s)
	}
	return nil
}

func (m *Repo) Renew(ctx context.Context, entryID string, r domain.Renewal) (*domain.Entry, error) {
	if m.RenewFn != nil {
		return m.RenewFn(ctx, entryID, r)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) Revoke(ctx context.Context, entryID string) error {
	if m.RevokeFn != nil {
		return m.RevokeFn(ctx, entryID)
	}
	return nil
}

func (m *Repo) DeleteActive(ctx context.Context, entryID string) error {
	if m.DeleteActiveFn != nil {
		return m.DeleteActiveFn(ctx, entryID)
	}
	return nil
}

func (m *Repo) BulkInsert(ctx context.Context, entries []*domain.Entry) error {
	if m.BulkInsertFn != nil {
		return m.BulkInsertFn(ctx, entries)
	}
	return nil
}
