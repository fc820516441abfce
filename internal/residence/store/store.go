// Package store persists residences and memberships. Occupancy rules are
// enforced here (unique indexes in postgres, explicit checks in memory) and
// surface as sentinel.ErrConflict.
package store

import (
	"context"

	"residora/internal/residence/models"
	id "residora/pkg/domain"
)

// ResidenceStore is the persistence surface for buildings.
type ResidenceStore interface {
	Create(ctx context.Context, residence *models.Residence) error
	Update(ctx context.Context, residence *models.Residence) error
	FindByID(ctx context.Context, residenceID id.ResidenceID) (*models.Residence, error)
	ListBySyndic(ctx context.Context, syndicID id.AccountID) ([]*models.Residence, error)
	Delete(ctx context.Context, residenceID id.ResidenceID) error

	// ClearGuard nullifies the guard reference on every residence guarded
	// by the account. Part of the deletion cascade.
	ClearGuard(ctx context.Context, accountID id.AccountID) error
}

// MembershipStore is the persistence surface for account-apartment bindings.
// Create fails with sentinel.ErrConflict when the apartment is already
// reserved (verified or pending, guard apartment exempt) or when the account
// already holds that exact apartment. One account may hold several apartments
// in the same residence.
type MembershipStore interface {
	Create(ctx context.Context, membership *models.Membership) error
	FindByID(ctx context.Context, membershipID id.MembershipID) (*models.Membership, error)
	ListByAccountAndResidence(ctx context.Context, accountID id.AccountID, residenceID id.ResidenceID) ([]*models.Membership, error)
	ListByResidence(ctx context.Context, residenceID id.ResidenceID) ([]*models.Membership, error)
	ListByAccount(ctx context.Context, accountID id.AccountID) ([]*models.Membership, error)
	Verify(ctx context.Context, membershipID id.MembershipID) error
	Delete(ctx context.Context, membershipID id.MembershipID) error
	DeleteByAccount(ctx context.Context, accountID id.AccountID) error

	// ApartmentOccupied reports whether an apartment is taken. Registration
	// pre-validation checks verified occupants only; full registration also
	// counts pending ones.
	ApartmentOccupied(ctx context.Context, residenceID id.ResidenceID, apartment string, includeUnverified bool) (bool, error)
}
