package store

import (
	"context"
	"database/sql"
	"fmt"

	"residora/internal/community/models"
	id "residora/pkg/domain"
)

// PostgresStore implements Store on top of database/sql.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	const query = `
		INSERT INTO notifications (id, account_id, title, body, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := s.db.ExecContext(ctx, query,
		n.ID.String(), n.AccountID.String(), n.Title, n.Body, n.Read, n.CreatedAt); err != nil {
		return fmt.Errorf("inserting notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateVote(ctx context.Context, v *models.Vote) error {
	const query = `
		INSERT INTO votes (id, account_id, residence_id, topic, choice, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := s.db.ExecContext(ctx, query,
		v.ID.String(), v.AccountID.String(), v.ResidenceID.String(), v.Topic, v.Choice, v.CreatedAt); err != nil {
		return fmt.Errorf("inserting vote: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateIncidentReport(ctx context.Context, r *models.IncidentReport) error {
	const query = `
		INSERT INTO incident_reports (id, residence_id, reported_by, resolved_by, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	var resolvedBy any
	if r.ResolvedBy != nil {
		resolvedBy = r.ResolvedBy.String()
	}
	if _, err := s.db.ExecContext(ctx, query,
		r.ID.String(), r.ResidenceID.String(), r.ReportedBy.String(), resolvedBy, r.Description, r.CreatedAt); err != nil {
		return fmt.Errorf("inserting incident report: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateAccessLog(ctx context.Context, l *models.AccessLog) error {
	const query = `
		INSERT INTO access_logs (id, residence_id, account_id, gate, occurred_at)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := s.db.ExecContext(ctx, query,
		l.ID.String(), l.ResidenceID.String(), l.AccountID.String(), l.Gate, l.OccurredAt); err != nil {
		return fmt.Errorf("inserting access log: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListIncidentsByResidence(ctx context.Context, residenceID id.ResidenceID) ([]*models.IncidentReport, error) {
	const query = `
		SELECT id, residence_id, reported_by, resolved_by, description, created_at
		FROM incident_reports WHERE residence_id = $1 ORDER BY created_at`
	rows, err := s.db.QueryContext(ctx, query, residenceID.String())
	if err != nil {
		return nil, fmt.Errorf("listing incident reports: %w", err)
	}
	defer rows.Close()

	var out []*models.IncidentReport
	for rows.Next() {
		var (
			incident    models.IncidentReport
			rawRes      string
			rawReporter string
			rawResolver sql.NullString
		)
		if err := rows.Scan(&incident.ID, &rawRes, &rawReporter, &rawResolver,
			&incident.Description, &incident.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning incident report: %w", err)
		}
		if incident.ResidenceID, err = id.ParseResidenceID(rawRes); err != nil {
			return nil, fmt.Errorf("parsing residence id: %w", err)
		}
		if incident.ReportedBy, err = id.ParseAccountID(rawReporter); err != nil {
			return nil, fmt.Errorf("parsing reporter id: %w", err)
		}
		if rawResolver.Valid {
			resolver, err := id.ParseAccountID(rawResolver.String)
			if err != nil {
				return nil, fmt.Errorf("parsing resolver id: %w", err)
			}
			incident.ResolvedBy = &resolver
		}
		out = append(out, &incident)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeleteNotificationsByAccount(ctx context.Context, accountID id.AccountID) error {
	return s.exec(ctx, `DELETE FROM notifications WHERE account_id = $1`, accountID)
}

func (s *PostgresStore) DeleteVotesByAccount(ctx context.Context, accountID id.AccountID) error {
	return s.exec(ctx, `DELETE FROM votes WHERE account_id = $1`, accountID)
}

func (s *PostgresStore) NullifyIncidentResolver(ctx context.Context, accountID id.AccountID) error {
	return s.exec(ctx, `UPDATE incident_reports SET resolved_by = NULL WHERE resolved_by = $1`, accountID)
}

func (s *PostgresStore) DeleteIncidentsByReporter(ctx context.Context, accountID id.AccountID) error {
	return s.exec(ctx, `DELETE FROM incident_reports WHERE reported_by = $1`, accountID)
}

func (s *PostgresStore) DeleteAccessLogsByAccount(ctx context.Context, accountID id.AccountID) error {
	return s.exec(ctx, `DELETE FROM access_logs WHERE account_id = $1`, accountID)
}

func (s *PostgresStore) exec(ctx context.Context, query string, accountID id.AccountID) error {
	if _, err := s.db.ExecContext(ctx, query, accountID.String()); err != nil {
		return fmt.Errorf("community cascade step: %w", err)
	}
	return nil
}
