// Package ledger builds the read-side contribution and expense views: a
// per-apartment status matrix of monthly dues and an expense report with
// totals.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"residora/internal/ledger/models"
	ledgerstore "residora/internal/ledger/store"
	residencemodels "residora/internal/residence/models"
	residencestore "residora/internal/residence/store"
	id "residora/pkg/domain"
	dErrors "residora/pkg/domain-errors"
	"residora/pkg/platform/sentinel"
	"residora/pkg/requestcontext"
)

// Service serves ledger views and the syndic's write path behind them.
type Service struct {
	ledger      ledgerstore.Store
	residences  residencestore.ResidenceStore
	memberships residencestore.MembershipStore
	logger      *slog.Logger
}

// Option configures optional service collaborators.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func NewService(ledger ledgerstore.Store, residences residencestore.ResidenceStore, memberships residencestore.MembershipStore, opts ...Option) *Service {
	s := &Service{
		ledger:      ledger,
		residences:  residences,
		memberships: memberships,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MatrixRow is one apartment's year of contribution statuses, keyed by month
// 1 through 12.
type MatrixRow struct {
	Apartment string                              `json:"apartment"`
	Months    map[time.Month]models.ContributionStatus `json:"months"`
}

// Matrix is the per-apartment contribution status view for one year.
type Matrix struct {
	ResidenceID    id.ResidenceID  `json:"residence_id"`
	Year           int             `json:"year"`
	Rows           []MatrixRow     `json:"rows"`
	TotalCollected decimal.Decimal `json:"total_collected"`
}

// StatusMatrix aggregates payments and fees into the apartment-by-month
// status view. Apartments come from the residence's memberships; the guard
// apartment is excluded because it owes no dues.
func (s *Service) StatusMatrix(ctx context.Context, residenceID id.ResidenceID, year int) (*Matrix, error) {
	residence, err := s.authorize(ctx, residenceID)
	if err != nil {
		return nil, err
	}

	memberships, err := s.memberships.ListByResidence(ctx, residenceID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "listing memberships")
	}
	payments, err := s.ledger.ListPayments(ctx, residenceID, year)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "listing payments")
	}
	fees, err := s.ledger.ListFees(ctx, residenceID, year)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "listing fees")
	}

	paid := make(map[string]map[time.Month]bool)
	total := decimal.Zero
	for _, p := range payments {
		if paid[p.Apartment] == nil {
			paid[p.Apartment] = make(map[time.Month]bool)
		}
		paid[p.Apartment][p.Month] = true
		total = total.Add(p.Amount)
	}
	due := make(map[string]map[time.Month]bool)
	for _, f := range fees {
		if due[f.Apartment] == nil {
			due[f.Apartment] = make(map[time.Month]bool)
		}
		due[f.Apartment][f.Month] = true
	}

	matrix := &Matrix{ResidenceID: residence.ID, Year: year, TotalCollected: total}
	for _, membership := range memberships {
		if membership.Apartment == residencemodels.GuardApartment {
			continue
		}
		row := MatrixRow{Apartment: membership.Apartment, Months: make(map[time.Month]models.ContributionStatus, 12)}
		for month := time.January; month <= time.December; month++ {
			switch {
			case paid[membership.Apartment][month]:
				row.Months[month] = models.StatusPaid
			case due[membership.Apartment][month]:
				row.Months[month] = models.StatusPending
			default:
				row.Months[month] = models.StatusNone
			}
		}
		matrix.Rows = append(matrix.Rows, row)
	}
	return matrix, nil
}

// ExpenseReport is the expense list plus its total for one year.
type ExpenseReport struct {
	ResidenceID id.ResidenceID    `json:"residence_id"`
	Year        int               `json:"year"`
	Expenses    []*models.Expense `json:"expenses"`
	Total       decimal.Decimal   `json:"total"`
}

// Expenses returns a residence's expenses for the year with their sum.
func (s *Service) Expenses(ctx context.Context, residenceID id.ResidenceID, year int) (*ExpenseReport, error) {
	if _, err := s.authorize(ctx, residenceID); err != nil {
		return nil, err
	}
	expenses, err := s.ledger.ListExpenses(ctx, residenceID, year)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "listing expenses")
	}
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return &ExpenseReport{ResidenceID: residenceID, Year: year, Expenses: expenses, Total: total}, nil
}

// RecordPayment registers a received contribution. Syndic only.
func (s *Service) RecordPayment(ctx context.Context, residenceID id.ResidenceID, accountID id.AccountID, apartment string, amount decimal.Decimal, year int, month time.Month) (*models.Payment, error) {
	if err := s.authorizeSyndic(ctx, residenceID); err != nil {
		return nil, err
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}
	payment := &models.Payment{
		ID:          uuid.New(),
		ResidenceID: residenceID,
		AccountID:   accountID,
		Apartment:   apartment,
		Amount:      amount,
		Year:        year,
		Month:       month,
		PaidAt:      requestcontext.Now(ctx),
	}
	if err := s.ledger.CreatePayment(ctx, payment); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "storing payment")
	}
	return payment, nil
}

// RecordExpense registers money spent, attributed to the acting syndic.
func (s *Service) RecordExpense(ctx context.Context, residenceID id.ResidenceID, label string, amount decimal.Decimal) (*models.Expense, error) {
	if err := s.authorizeSyndic(ctx, residenceID); err != nil {
		return nil, err
	}
	if label == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "label is required")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}
	actor := requestcontext.ActorID(ctx)
	expense := &models.Expense{
		ID:          uuid.New(),
		ResidenceID: residenceID,
		Label:       label,
		Amount:      amount,
		RecordedBy:  &actor,
		IncurredAt:  requestcontext.Now(ctx),
	}
	if err := s.ledger.CreateExpense(ctx, expense); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "storing expense")
	}
	return expense, nil
}

// authorize admits the managing syndic and any member of the residence.
func (s *Service) authorize(ctx context.Context, residenceID id.ResidenceID) (*residencemodels.Residence, error) {
	residence, err := s.residences.FindByID(ctx, residenceID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "residence not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "loading residence")
	}
	actor := requestcontext.ActorID(ctx)
	if actor == residence.SyndicID {
		return residence, nil
	}
	memberships, err := s.memberships.ListByAccountAndResidence(ctx, actor, residenceID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "checking membership")
	}
	if len(memberships) == 0 {
		return nil, dErrors.New(dErrors.CodeForbidden, "not a member of this residence")
	}
	return residence, nil
}

func (s *Service) authorizeSyndic(ctx context.Context, residenceID id.ResidenceID) error {
	residence, err := s.residences.FindByID(ctx, residenceID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "residence not found")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "loading residence")
	}
	if requestcontext.ActorID(ctx) != residence.SyndicID {
		return dErrors.New(dErrors.CodeForbidden, "only the managing syndic may write ledger records")
	}
	return nil
}
