package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"residora/internal/ledger/models"
	id "residora/pkg/domain"
)

// InMemoryStore is the test and development implementation of Store.
type InMemoryStore struct {
	mu       sync.RWMutex
	payments map[uuid.UUID]*models.Payment
	fees     map[uuid.UUID]*models.Fee
	expenses map[uuid.UUID]*models.Expense
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		payments: make(map[uuid.UUID]*models.Payment),
		fees:     make(map[uuid.UUID]*models.Fee),
		expenses: make(map[uuid.UUID]*models.Expense),
	}
}

func (s *InMemoryStore) CreatePayment(_ context.Context, p *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.payments[p.ID] = &cp
	return nil
}

func (s *InMemoryStore) CreateFee(_ context.Context, f *models.Fee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *f
	s.fees[f.ID] = &cp
	return nil
}

func (s *InMemoryStore) CreateExpense(_ context.Context, e *models.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	if e.RecordedBy != nil {
		recorder := *e.RecordedBy
		cp.RecordedBy = &recorder
	}
	s.expenses[e.ID] = &cp
	return nil
}

func (s *InMemoryStore) ListPayments(_ context.Context, residenceID id.ResidenceID, year int) ([]*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Payment
	for _, p := range s.payments {
		if p.ResidenceID == residenceID && p.Year == year {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaidAt.Before(out[j].PaidAt) })
	return out, nil
}

func (s *InMemoryStore) ListFees(_ context.Context, residenceID id.ResidenceID, year int) ([]*models.Fee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Fee
	for _, f := range s.fees {
		if f.ResidenceID == residenceID && f.Year == year {
			cp := *f
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueAt.Before(out[j].DueAt) })
	return out, nil
}

func (s *InMemoryStore) ListExpenses(_ context.Context, residenceID id.ResidenceID, year int) ([]*models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Expense
	for _, e := range s.expenses {
		if e.ResidenceID == residenceID && e.IncurredAt.Year() == year {
			cp := *e
			if e.RecordedBy != nil {
				recorder := *e.RecordedBy
				cp.RecordedBy = &recorder
			}
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IncurredAt.Before(out[j].IncurredAt) })
	return out, nil
}

func (s *InMemoryStore) DeletePaymentsByAccount(_ context.Context, accountID id.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for pID, p := range s.payments {
		if p.AccountID == accountID {
			delete(s.payments, pID)
		}
	}
	return nil
}

func (s *InMemoryStore) DeleteFeesByAccount(_ context.Context, accountID id.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for fID, f := range s.fees {
		if f.AccountID == accountID {
			delete(s.fees, fID)
		}
	}
	return nil
}

func (s *InMemoryStore) NullifyExpenseRecorder(_ context.Context, accountID id.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.expenses {
		if e.RecordedBy != nil && *e.RecordedBy == accountID {
			e.RecordedBy = nil
		}
	}
	return nil
}

// Counts reports remaining payments and fees; used by cascade tests.
func (s *InMemoryStore) Counts() (payments, fees int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.payments), len(s.fees)
}

// ExpenseByID returns an expense for test assertions.
func (s *InMemoryStore) ExpenseByID(expenseID uuid.UUID) (*models.Expense, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.expenses[expenseID]
	if !ok {
		return nil, false
	}
	cp := *e
	return &cp, true
}
