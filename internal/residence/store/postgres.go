package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"residora/internal/platform/postgres"
	"residora/internal/residence/models"
	id "residora/pkg/domain"
	"residora/pkg/platform/sentinel"
)

// PostgresResidenceStore implements ResidenceStore on top of database/sql.
type PostgresResidenceStore struct {
	db *sql.DB
}

func NewPostgresResidenceStore(db *sql.DB) *PostgresResidenceStore {
	return &PostgresResidenceStore{db: db}
}

const residenceColumns = `id, name, address, city, syndic_id, guard_id, bank_account, created_at, updated_at`

func (s *PostgresResidenceStore) Create(ctx context.Context, residence *models.Residence) error {
	const query = `
		INSERT INTO residences (id, name, address, city, syndic_id, guard_id, bank_account, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := s.db.ExecContext(ctx, query,
		residence.ID.String(), residence.Name, residence.Address, residence.City,
		residence.SyndicID.String(), guardParam(residence.GuardID), residence.BankAccount,
		residence.CreatedAt, residence.UpdatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("inserting residence: %w", err)
	}
	return nil
}

func (s *PostgresResidenceStore) Update(ctx context.Context, residence *models.Residence) error {
	const query = `
		UPDATE residences
		SET name = $2, address = $3, city = $4, syndic_id = $5, guard_id = $6, bank_account = $7, updated_at = $8
		WHERE id = $1`
	res, err := s.db.ExecContext(ctx, query,
		residence.ID.String(), residence.Name, residence.Address, residence.City,
		residence.SyndicID.String(), guardParam(residence.GuardID), residence.BankAccount,
		residence.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updating residence: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}

func (s *PostgresResidenceStore) FindByID(ctx context.Context, residenceID id.ResidenceID) (*models.Residence, error) {
	query := `SELECT ` + residenceColumns + ` FROM residences WHERE id = $1`
	return scanResidence(s.db.QueryRowContext(ctx, query, residenceID.String()))
}

func (s *PostgresResidenceStore) ListBySyndic(ctx context.Context, syndicID id.AccountID) ([]*models.Residence, error) {
	query := `SELECT ` + residenceColumns + ` FROM residences WHERE syndic_id = $1 ORDER BY created_at`
	rows, err := s.db.QueryContext(ctx, query, syndicID.String())
	if err != nil {
		return nil, fmt.Errorf("listing residences: %w", err)
	}
	defer rows.Close()

	var out []*models.Residence
	for rows.Next() {
		residence, err := scanResidenceRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, residence)
	}
	return out, rows.Err()
}

func (s *PostgresResidenceStore) Delete(ctx context.Context, residenceID id.ResidenceID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM residences WHERE id = $1`, residenceID.String())
	if err != nil {
		return fmt.Errorf("deleting residence: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}

func (s *PostgresResidenceStore) ClearGuard(ctx context.Context, accountID id.AccountID) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE residences SET guard_id = NULL WHERE guard_id = $1`, accountID.String()); err != nil {
		return fmt.Errorf("clearing guard references: %w", err)
	}
	return nil
}

// PostgresMembershipStore implements MembershipStore on top of database/sql.
// Occupancy conflicts are enforced by two unique indexes: (account_id,
// residence_id, lower(apartment)) and a partial index on (residence_id,
// lower(apartment)) excluding the guard apartment.
type PostgresMembershipStore struct {
	db *sql.DB
}

func NewPostgresMembershipStore(db *sql.DB) *PostgresMembershipStore {
	return &PostgresMembershipStore{db: db}
}

const membershipColumns = `id, account_id, residence_id, apartment, verified, created_at`

func (s *PostgresMembershipStore) Create(ctx context.Context, membership *models.Membership) error {
	const query = `
		INSERT INTO memberships (id, account_id, residence_id, apartment, verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.db.ExecContext(ctx, query,
		membership.ID.String(), membership.AccountID.String(), membership.ResidenceID.String(),
		membership.Apartment, membership.Verified, membership.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("inserting membership: %w", err)
	}
	return nil
}

func (s *PostgresMembershipStore) FindByID(ctx context.Context, membershipID id.MembershipID) (*models.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE id = $1`
	return scanMembership(s.db.QueryRowContext(ctx, query, membershipID.String()))
}

func (s *PostgresMembershipStore) ListByAccountAndResidence(ctx context.Context, accountID id.AccountID, residenceID id.ResidenceID) ([]*models.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE account_id = $1 AND residence_id = $2 ORDER BY created_at`
	return s.list(ctx, query, accountID.String(), residenceID.String())
}

func (s *PostgresMembershipStore) ListByResidence(ctx context.Context, residenceID id.ResidenceID) ([]*models.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE residence_id = $1 ORDER BY created_at`
	return s.list(ctx, query, residenceID.String())
}

func (s *PostgresMembershipStore) ListByAccount(ctx context.Context, accountID id.AccountID) ([]*models.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE account_id = $1 ORDER BY created_at`
	return s.list(ctx, query, accountID.String())
}

func (s *PostgresMembershipStore) Verify(ctx context.Context, membershipID id.MembershipID) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE memberships SET verified = TRUE WHERE id = $1`, membershipID.String())
	if err != nil {
		return fmt.Errorf("verifying membership: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}

func (s *PostgresMembershipStore) Delete(ctx context.Context, membershipID id.MembershipID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM memberships WHERE id = $1`, membershipID.String())
	if err != nil {
		return fmt.Errorf("deleting membership: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}

func (s *PostgresMembershipStore) DeleteByAccount(ctx context.Context, accountID id.AccountID) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM memberships WHERE account_id = $1`, accountID.String()); err != nil {
		return fmt.Errorf("deleting memberships: %w", err)
	}
	return nil
}

func (s *PostgresMembershipStore) ApartmentOccupied(ctx context.Context, residenceID id.ResidenceID, apartment string, includeUnverified bool) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM memberships
			WHERE residence_id = $1 AND lower(apartment) = lower($2) AND (verified OR $3)
		)`
	var occupied bool
	if err := s.db.QueryRowContext(ctx, query, residenceID.String(), apartment, includeUnverified).Scan(&occupied); err != nil {
		return false, fmt.Errorf("checking apartment occupancy: %w", err)
	}
	return occupied, nil
}

func (s *PostgresMembershipStore) list(ctx context.Context, query string, args ...any) ([]*models.Membership, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing memberships: %w", err)
	}
	defer rows.Close()

	var out []*models.Membership
	for rows.Next() {
		membership, err := scanMembershipRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, membership)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResidence(row *sql.Row) (*models.Residence, error) {
	residence, err := scanResidenceRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return residence, err
}

func scanResidenceRow(row rowScanner) (*models.Residence, error) {
	var (
		residence   models.Residence
		rawID       string
		rawSyndic   string
		rawGuard    sql.NullString
		bankAccount sql.NullString
	)
	err := row.Scan(&rawID, &residence.Name, &residence.Address, &residence.City,
		&rawSyndic, &rawGuard, &bankAccount, &residence.CreatedAt, &residence.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning residence: %w", err)
	}
	if residence.ID, err = id.ParseResidenceID(rawID); err != nil {
		return nil, fmt.Errorf("parsing residence id: %w", err)
	}
	if residence.SyndicID, err = id.ParseAccountID(rawSyndic); err != nil {
		return nil, fmt.Errorf("parsing syndic id: %w", err)
	}
	if rawGuard.Valid {
		guardID, err := id.ParseAccountID(rawGuard.String)
		if err != nil {
			return nil, fmt.Errorf("parsing guard id: %w", err)
		}
		residence.GuardID = &guardID
	}
	residence.BankAccount = bankAccount.String
	return &residence, nil
}

func scanMembership(row *sql.Row) (*models.Membership, error) {
	membership, err := scanMembershipRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return membership, err
}

func scanMembershipRow(row rowScanner) (*models.Membership, error) {
	var (
		membership   models.Membership
		rawID        string
		rawAccount   string
		rawResidence string
	)
	err := row.Scan(&rawID, &rawAccount, &rawResidence,
		&membership.Apartment, &membership.Verified, &membership.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning membership: %w", err)
	}
	if membership.ID, err = id.ParseMembershipID(rawID); err != nil {
		return nil, fmt.Errorf("parsing membership id: %w", err)
	}
	if membership.AccountID, err = id.ParseAccountID(rawAccount); err != nil {
		return nil, fmt.Errorf("parsing account id: %w", err)
	}
	if membership.ResidenceID, err = id.ParseResidenceID(rawResidence); err != nil {
		return nil, fmt.Errorf("parsing residence id: %w", err)
	}
	return &membership, nil
}

func guardParam(guardID *id.AccountID) any {
	if guardID == nil {
		return nil
	}
	return guardID.String()
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
