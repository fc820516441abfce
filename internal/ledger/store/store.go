// Package store persists payments, fees and expenses.
package store

import (
	"context"

	"residora/internal/ledger/models"
	id "residora/pkg/domain"
)

// Store is the persistence surface for ledger records.
type Store interface {
	CreatePayment(ctx context.Context, p *models.Payment) error
	CreateFee(ctx context.Context, f *models.Fee) error
	CreateExpense(ctx context.Context, e *models.Expense) error

	ListPayments(ctx context.Context, residenceID id.ResidenceID, year int) ([]*models.Payment, error)
	ListFees(ctx context.Context, residenceID id.ResidenceID, year int) ([]*models.Fee, error)
	ListExpenses(ctx context.Context, residenceID id.ResidenceID, year int) ([]*models.Expense, error)

	// Cascade operations: payments and fees require their account and are
	// deleted with it; expenses merely record who entered them.
	DeletePaymentsByAccount(ctx context.Context, accountID id.AccountID) error
	DeleteFeesByAccount(ctx context.Context, accountID id.AccountID) error
	NullifyExpenseRecorder(ctx context.Context, accountID id.AccountID) error
}
