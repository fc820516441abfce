package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	id "residora/pkg/domain"
	"residora/pkg/platform/sentinel"
)

// PostgresStore implements MappingStore on top of database/sql.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, mapping *Mapping) error {
	const query = `
		INSERT INTO billing_mappings (account_id, customer_id, subscription_id, plan, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (account_id) DO UPDATE
		SET customer_id = EXCLUDED.customer_id, subscription_id = EXCLUDED.subscription_id,
		    plan = EXCLUDED.plan, updated_at = EXCLUDED.updated_at`
	_, err := s.db.ExecContext(ctx, query,
		mapping.AccountID.String(), mapping.CustomerID,
		nullIfEmpty(mapping.SubscriptionID), nullIfEmpty(mapping.Plan),
		mapping.CreatedAt, mapping.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving billing mapping: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByAccount(ctx context.Context, accountID id.AccountID) (*Mapping, error) {
	const query = `
		SELECT account_id, customer_id, subscription_id, plan, created_at, updated_at
		FROM billing_mappings WHERE account_id = $1`
	var (
		mapping      Mapping
		rawAccount   string
		subscription sql.NullString
		plan         sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, accountID.String()).Scan(
		&rawAccount, &mapping.CustomerID, &subscription, &plan, &mapping.CreatedAt, &mapping.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading billing mapping: %w", err)
	}
	if mapping.AccountID, err = id.ParseAccountID(rawAccount); err != nil {
		return nil, fmt.Errorf("parsing account id: %w", err)
	}
	mapping.SubscriptionID = subscription.String
	mapping.Plan = plan.String
	return &mapping, nil
}

func (s *PostgresStore) DeleteByAccount(ctx context.Context, accountID id.AccountID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM billing_mappings WHERE account_id = $1`, accountID.String())
	if err != nil {
		return fmt.Errorf("deleting billing mapping: %w", err)
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

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
