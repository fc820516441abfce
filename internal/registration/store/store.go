// Package store persists registration requests.
package store

import (
	"context"

	"residora/internal/registration/models"
	id "residora/pkg/domain"
)

// RequestStore is the persistence surface for registration requests. Create
// fails with sentinel.ErrConflict when a pending request already holds the
// same (residence, email) or (residence, apartment) pair.
type RequestStore interface {
	Create(ctx context.Context, request *models.Request) error
	FindByID(ctx context.Context, requestID id.RegistrationID) (*models.Request, error)
	ListByResidence(ctx context.Context, residenceID id.ResidenceID, status models.Status) ([]*models.Request, error)
	UpdateStatus(ctx context.Context, requestID id.RegistrationID, status models.Status) error
	DeleteByEmail(ctx context.Context, email string) error

	// Pending-match probes used by the validator; each field is checked
	// separately so every collision can be reported, not just the first.
	HasPendingWithEmail(ctx context.Context, residenceID id.ResidenceID, email string) (bool, error)
	HasPendingWithPhone(ctx context.Context, residenceID id.ResidenceID, phoneNormalized string) (bool, error)
	HasPendingWithApartment(ctx context.Context, residenceID id.ResidenceID, apartment string) (bool, error)
}
