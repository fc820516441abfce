package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"residora/internal/platform/postgres"
	"residora/internal/review/models"
	id "residora/pkg/domain"
	"residora/pkg/platform/sentinel"
)

// PostgresStore implements SubmissionStore on top of database/sql. Attachment
// keys live in a text[] column.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const submissionColumns = `id, syndic_id, status, residence_id, rejection_reason, attachments, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, submission *models.Submission) error {
	const query = `
		INSERT INTO submissions (id, syndic_id, status, residence_id, rejection_reason, attachments, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.db.ExecContext(ctx, query,
		submission.ID.String(), submission.SyndicID.String(), string(submission.Status),
		residenceParam(submission.ResidenceID), nullIfEmpty(submission.RejectionReason),
		pq.Array(submission.Attachments), submission.CreatedAt, submission.UpdatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("inserting submission: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, submission *models.Submission) error {
	const query = `
		UPDATE submissions
		SET status = $2, residence_id = $3, rejection_reason = $4, attachments = $5, updated_at = $6
		WHERE id = $1`
	res, err := s.db.ExecContext(ctx, query,
		submission.ID.String(), string(submission.Status),
		residenceParam(submission.ResidenceID), nullIfEmpty(submission.RejectionReason),
		pq.Array(submission.Attachments), submission.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updating submission: %w", err)
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

func (s *PostgresStore) FindByID(ctx context.Context, submissionID id.SubmissionID) (*models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`
	submission, err := scanSubmission(s.db.QueryRowContext(ctx, query, submissionID.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return submission, err
}

func (s *PostgresStore) ListByStatus(ctx context.Context, status models.Status) ([]*models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at`
	return s.queryList(ctx, query, args...)
}

func (s *PostgresStore) ListBySyndic(ctx context.Context, syndicID id.AccountID) ([]*models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE syndic_id = $1 ORDER BY created_at`
	return s.queryList(ctx, query, syndicID.String())
}

func (s *PostgresStore) DeleteBySyndic(ctx context.Context, syndicID id.AccountID) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM submissions WHERE syndic_id = $1`, syndicID.String()); err != nil {
		return fmt.Errorf("deleting submissions: %w", err)
	}
	return nil
}

func (s *PostgresStore) queryList(ctx context.Context, query string, args ...any) ([]*models.Submission, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing submissions: %w", err)
	}
	defer rows.Close()

	var out []*models.Submission
	for rows.Next() {
		submission, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, submission)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (*models.Submission, error) {
	var (
		submission models.Submission
		rawID      string
		rawSyndic  string
		rawStatus  string
		rawRes     sql.NullString
		reason     sql.NullString
	)
	err := row.Scan(&rawID, &rawSyndic, &rawStatus, &rawRes, &reason,
		pq.Array(&submission.Attachments), &submission.CreatedAt, &submission.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning submission: %w", err)
	}
	if submission.ID, err = id.ParseSubmissionID(rawID); err != nil {
		return nil, fmt.Errorf("parsing submission id: %w", err)
	}
	if submission.SyndicID, err = id.ParseAccountID(rawSyndic); err != nil {
		return nil, fmt.Errorf("parsing syndic id: %w", err)
	}
	submission.Status = models.Status(rawStatus)
	submission.RejectionReason = reason.String
	if rawRes.Valid {
		residenceID, err := id.ParseResidenceID(rawRes.String)
		if err != nil {
			return nil, fmt.Errorf("parsing residence id: %w", err)
		}
		submission.ResidenceID = &residenceID
	}
	return &submission, nil
}

func residenceParam(residenceID *id.ResidenceID) any {
	if residenceID == nil {
		return nil
	}
	return residenceID.String()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
