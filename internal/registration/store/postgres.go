package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"residora/internal/platform/postgres"
	"residora/internal/registration/models"
	id "residora/pkg/domain"
	"residora/pkg/platform/sentinel"
)

// PostgresStore implements RequestStore on top of database/sql. The pending
// uniqueness invariants are partial unique indexes on (residence_id, email)
// and (residence_id, lower(apartment)) WHERE status = 'pending'.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const requestColumns = `id, residence_id, full_name, email, phone, phone_normalized, apartment,
	id_number, id_document_url, status, client_ip, user_agent, device, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, request *models.Request) error {
	const query = `
		INSERT INTO registration_requests
			(id, residence_id, full_name, email, phone, phone_normalized, apartment,
			 id_number, id_document_url, status, client_ip, user_agent, device, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := s.db.ExecContext(ctx, query,
		request.ID.String(), request.ResidenceID.String(), request.FullName, request.Email,
		request.Phone, request.PhoneNormalized, request.Apartment,
		request.IDNumber, request.IDDocumentURL, string(request.Status),
		request.ClientIP, request.UserAgent, request.Device, request.CreatedAt, request.UpdatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("inserting registration request: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, requestID id.RegistrationID) (*models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM registration_requests WHERE id = $1`
	request, err := scanRequest(s.db.QueryRowContext(ctx, query, requestID.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return request, err
}

func (s *PostgresStore) ListByResidence(ctx context.Context, residenceID id.ResidenceID, status models.Status) ([]*models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM registration_requests WHERE residence_id = $1`
	args := []any{residenceID.String()}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing registration requests: %w", err)
	}
	defer rows.Close()

	var out []*models.Request
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, request)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, requestID id.RegistrationID, status models.Status) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE registration_requests SET status = $2, updated_at = now() WHERE id = $1`,
		requestID.String(), string(status))
	if err != nil {
		return fmt.Errorf("updating registration request status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteByEmail(ctx context.Context, email string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM registration_requests WHERE email = $1`, strings.ToLower(email)); err != nil {
		return fmt.Errorf("deleting registration requests: %w", err)
	}
	return nil
}

func (s *PostgresStore) HasPendingWithEmail(ctx context.Context, residenceID id.ResidenceID, email string) (bool, error) {
	return s.exists(ctx,
		`SELECT EXISTS (SELECT 1 FROM registration_requests
		 WHERE residence_id = $1 AND status = 'pending' AND email = $2)`,
		residenceID.String(), strings.ToLower(email))
}

func (s *PostgresStore) HasPendingWithPhone(ctx context.Context, residenceID id.ResidenceID, phoneNormalized string) (bool, error) {
	if phoneNormalized == "" {
		return false, nil
	}
	return s.exists(ctx,
		`SELECT EXISTS (SELECT 1 FROM registration_requests
		 WHERE residence_id = $1 AND status = 'pending' AND phone_normalized = $2)`,
		residenceID.String(), phoneNormalized)
}

func (s *PostgresStore) HasPendingWithApartment(ctx context.Context, residenceID id.ResidenceID, apartment string) (bool, error) {
	return s.exists(ctx,
		`SELECT EXISTS (SELECT 1 FROM registration_requests
		 WHERE residence_id = $1 AND status = 'pending' AND lower(apartment) = lower($2))`,
		residenceID.String(), apartment)
}

func (s *PostgresStore) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var found bool
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&found); err != nil {
		return false, fmt.Errorf("checking pending registration requests: %w", err)
	}
	return found, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*models.Request, error) {
	var (
		request   models.Request
		rawID     string
		rawRes    string
		rawStatus string
		idNumber  sql.NullString
		docURL    sql.NullString
		clientIP  sql.NullString
		userAgent sql.NullString
		device    sql.NullString
	)
	err := row.Scan(&rawID, &rawRes, &request.FullName, &request.Email, &request.Phone,
		&request.PhoneNormalized, &request.Apartment, &idNumber, &docURL, &rawStatus,
		&clientIP, &userAgent, &device, &request.CreatedAt, &request.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning registration request: %w", err)
	}
	if request.ID, err = id.ParseRegistrationID(rawID); err != nil {
		return nil, fmt.Errorf("parsing registration request id: %w", err)
	}
	if request.ResidenceID, err = id.ParseResidenceID(rawRes); err != nil {
		return nil, fmt.Errorf("parsing residence id: %w", err)
	}
	request.Status = models.Status(rawStatus)
	request.IDNumber = idNumber.String
	request.IDDocumentURL = docURL.String
	request.ClientIP = clientIP.String
	request.UserAgent = userAgent.String
	request.Device = device.String
	return &request, nil
}
