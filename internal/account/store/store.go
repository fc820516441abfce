// Package store persists accounts and the auth-adjacent rows keyed to them
// (credentials by email, sessions by account id). Stores are pure I/O: role
// policy and validation belong to services.
package store

import (
	"context"

	"residora/internal/account/models"
	id "residora/pkg/domain"
)

// AccountStore is the persistence surface for global profiles.
// Implementations return sentinel errors (ErrNotFound, ErrConflict);
// services translate them into domain errors.
type AccountStore interface {
	Create(ctx context.Context, account *models.Account) error
	Update(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, accountID id.AccountID) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	Delete(ctx context.Context, accountID id.AccountID) error

	// Auth-adjacent rows. Credentials are keyed by email (the deletion
	// cascade looks the email up first for exactly this reason); sessions
	// are keyed by account id.
	CreateCredential(ctx context.Context, email, secretHash string) error
	DeleteCredentialsByEmail(ctx context.Context, email string) error
	CreateSession(ctx context.Context, accountID id.AccountID, token string) error
	DeleteSessionsByAccount(ctx context.Context, accountID id.AccountID) error
}
