package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"residora/internal/ledger/models"
	id "residora/pkg/domain"
)

// PostgresStore implements Store on top of database/sql. Amounts are NUMERIC
// columns scanned through decimal.Decimal.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreatePayment(ctx context.Context, p *models.Payment) error {
	const query = `
		INSERT INTO payments (id, residence_id, account_id, apartment, amount, year, month, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := s.db.ExecContext(ctx, query,
		p.ID.String(), p.ResidenceID.String(), p.AccountID.String(), p.Apartment,
		p.Amount, p.Year, int(p.Month), p.PaidAt); err != nil {
		return fmt.Errorf("inserting payment: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateFee(ctx context.Context, f *models.Fee) error {
	const query = `
		INSERT INTO fees (id, residence_id, account_id, apartment, amount, year, month, due_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := s.db.ExecContext(ctx, query,
		f.ID.String(), f.ResidenceID.String(), f.AccountID.String(), f.Apartment,
		f.Amount, f.Year, int(f.Month), f.DueAt); err != nil {
		return fmt.Errorf("inserting fee: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateExpense(ctx context.Context, e *models.Expense) error {
	const query = `
		INSERT INTO expenses (id, residence_id, label, amount, recorded_by, incurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	var recordedBy any
	if e.RecordedBy != nil {
		recordedBy = e.RecordedBy.String()
	}
	if _, err := s.db.ExecContext(ctx, query,
		e.ID.String(), e.ResidenceID.String(), e.Label, e.Amount, recordedBy, e.IncurredAt); err != nil {
		return fmt.Errorf("inserting expense: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListPayments(ctx context.Context, residenceID id.ResidenceID, year int) ([]*models.Payment, error) {
	const query = `
		SELECT id, residence_id, account_id, apartment, amount, year, month, paid_at
		FROM payments WHERE residence_id = $1 AND year = $2 ORDER BY paid_at`
	rows, err := s.db.QueryContext(ctx, query, residenceID.String(), year)
	if err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}
	defer rows.Close()

	var out []*models.Payment
	for rows.Next() {
		var (
			p          models.Payment
			rawRes     string
			rawAccount string
			month      int
		)
		if err := rows.Scan(&p.ID, &rawRes, &rawAccount, &p.Apartment, &p.Amount, &p.Year, &month, &p.PaidAt); err != nil {
			return nil, fmt.Errorf("scanning payment: %w", err)
		}
		if p.ResidenceID, err = id.ParseResidenceID(rawRes); err != nil {
			return nil, fmt.Errorf("parsing residence id: %w", err)
		}
		if p.AccountID, err = id.ParseAccountID(rawAccount); err != nil {
			return nil, fmt.Errorf("parsing account id: %w", err)
		}
		p.Month = timeMonth(month)
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListFees(ctx context.Context, residenceID id.ResidenceID, year int) ([]*models.Fee, error) {
	const query = `
		SELECT id, residence_id, account_id, apartment, amount, year, month, due_at
		FROM fees WHERE residence_id = $1 AND year = $2 ORDER BY due_at`
	rows, err := s.db.QueryContext(ctx, query, residenceID.String(), year)
	if err != nil {
		return nil, fmt.Errorf("listing fees: %w", err)
	}
	defer rows.Close()

	var out []*models.Fee
	for rows.Next() {
		var (
			f          models.Fee
			rawRes     string
			rawAccount string
			month      int
		)
		if err := rows.Scan(&f.ID, &rawRes, &rawAccount, &f.Apartment, &f.Amount, &f.Year, &month, &f.DueAt); err != nil {
			return nil, fmt.Errorf("scanning fee: %w", err)
		}
		if f.ResidenceID, err = id.ParseResidenceID(rawRes); err != nil {
			return nil, fmt.Errorf("parsing residence id: %w", err)
		}
		if f.AccountID, err = id.ParseAccountID(rawAccount); err != nil {
			return nil, fmt.Errorf("parsing account id: %w", err)
		}
		f.Month = timeMonth(month)
		out = append(out, &f)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListExpenses(ctx context.Context, residenceID id.ResidenceID, year int) ([]*models.Expense, error) {
	const query = `
		SELECT id, residence_id, label, amount, recorded_by, incurred_at
		FROM expenses
		WHERE residence_id = $1 AND date_part('year', incurred_at) = $2
		ORDER BY incurred_at`
	rows, err := s.db.QueryContext(ctx, query, residenceID.String(), year)
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	defer rows.Close()

	var out []*models.Expense
	for rows.Next() {
		var (
			e           models.Expense
			rawRes      string
			rawRecorder sql.NullString
		)
		if err := rows.Scan(&e.ID, &rawRes, &e.Label, &e.Amount, &rawRecorder, &e.IncurredAt); err != nil {
			return nil, fmt.Errorf("scanning expense: %w", err)
		}
		if e.ResidenceID, err = id.ParseResidenceID(rawRes); err != nil {
			return nil, fmt.Errorf("parsing residence id: %w", err)
		}
		if rawRecorder.Valid {
			recorder, err := id.ParseAccountID(rawRecorder.String)
			if err != nil {
				return nil, fmt.Errorf("parsing recorder id: %w", err)
			}
			e.RecordedBy = &recorder
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeletePaymentsByAccount(ctx context.Context, accountID id.AccountID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM payments WHERE account_id = $1`, accountID.String()); err != nil {
		return fmt.Errorf("deleting payments: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteFeesByAccount(ctx context.Context, accountID id.AccountID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM fees WHERE account_id = $1`, accountID.String()); err != nil {
		return fmt.Errorf("deleting fees: %w", err)
	}
	return nil
}

func (s *PostgresStore) NullifyExpenseRecorder(ctx context.Context, accountID id.AccountID) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE expenses SET recorded_by = NULL WHERE recorded_by = $1`, accountID.String()); err != nil {
		return fmt.Errorf("clearing expense recorder: %w", err)
	}
	return nil
}

func timeMonth(m int) time.Month {
	if m < 1 || m > 12 {
		return time.January
	}
	return time.Month(m)
}
