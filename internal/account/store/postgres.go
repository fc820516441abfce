package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"residora/internal/account/models"
	"residora/internal/platform/postgres"
	id "residora/pkg/domain"
	"residora/pkg/platform/sentinel"
)

// PostgresStore implements AccountStore on top of database/sql.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const accountColumns = `id, full_name, email, phone, role, email_verified, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, account *models.Account) error {
	const query = `
		INSERT INTO accounts (id, full_name, email, phone, role, email_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.db.ExecContext(ctx, query,
		account.ID.String(), account.FullName, strings.ToLower(account.Email), account.Phone,
		string(account.Role), account.EmailVerified, account.CreatedAt, account.UpdatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("inserting account: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, account *models.Account) error {
	const query = `
		UPDATE accounts
		SET full_name = $2, email = $3, phone = $4, role = $5, email_verified = $6, updated_at = $7
		WHERE id = $1`
	res, err := s.db.ExecContext(ctx, query,
		account.ID.String(), account.FullName, strings.ToLower(account.Email), account.Phone,
		string(account.Role), account.EmailVerified, account.UpdatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("updating account: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}

func (s *PostgresStore) FindByID(ctx context.Context, accountID id.AccountID) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, accountID.String()))
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(email))))
}

func (s *PostgresStore) Delete(ctx context.Context, accountID id.AccountID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, accountID.String())
	if err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}

func (s *PostgresStore) CreateCredential(ctx context.Context, email, secretHash string) error {
	const query = `INSERT INTO credentials (email, secret_hash, created_at) VALUES ($1, $2, now())`
	if _, err := s.db.ExecContext(ctx, query, strings.ToLower(email), secretHash); err != nil {
		return fmt.Errorf("inserting credential: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteCredentialsByEmail(ctx context.Context, email string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE email = $1`, strings.ToLower(email)); err != nil {
		return fmt.Errorf("deleting credentials: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateSession(ctx context.Context, accountID id.AccountID, token string) error {
	const query = `INSERT INTO sessions (account_id, token, created_at) VALUES ($1, $2, now())`
	if _, err := s.db.ExecContext(ctx, query, accountID.String(), token); err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteSessionsByAccount(ctx context.Context, accountID id.AccountID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE account_id = $1`, accountID.String()); err != nil {
		return fmt.Errorf("deleting sessions: %w", err)
	}
	return nil
}

func (s *PostgresStore) scanOne(row *sql.Row) (*models.Account, error) {
	var (
		account models.Account
		rawID   string
		rawRole string
	)
	err := row.Scan(&rawID, &account.FullName, &account.Email, &account.Phone,
		&rawRole, &account.EmailVerified, &account.CreatedAt, &account.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning account: %w", err)
	}
	account.ID, err = id.ParseAccountID(rawID)
	if err != nil {
		return nil, fmt.Errorf("parsing account id: %w", err)
	}
	account.Role = models.Role(rawRole)
	return &account, nil
}

func rowsAffectedOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
