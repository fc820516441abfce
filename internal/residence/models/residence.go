// Package models defines residences and the memberships binding accounts to
// apartments within them.
package models

import (
	"strings"
	"time"

	id "residora/pkg/domain"
	dErrors "residora/pkg/domain-errors"
)

// GuardApartment is the reserved apartment label for the building guard.
// Only guard-role accounts may occupy it, and it is exempt from the one
// occupant per apartment rule that applies to regular units.
const GuardApartment = "0"

// Residence is a managed building. SyndicID is the owning manager; GuardID is
// nil until a guard is assigned and at most one guard exists per residence.
type Residence struct {
	ID          id.ResidenceID `json:"id"`
	Name        string         `json:"name"`
	Address     string         `json:"address"`
	City        string         `json:"city"`
	SyndicID    id.AccountID   `json:"syndic_id"`
	GuardID     *id.AccountID  `json:"guard_id,omitempty"`
	BankAccount string         `json:"bank_account,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NewResidence constructs a residence owned by the given syndic.
func NewResidence(residenceID id.ResidenceID, name, address, city string, syndicID id.AccountID, now time.Time) (*Residence, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "residence name cannot be empty")
	}
	if syndicID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "residence must have a managing syndic")
	}
	return &Residence{
		ID:        residenceID,
		Name:      name,
		Address:   strings.TrimSpace(address),
		City:      strings.TrimSpace(city),
		SyndicID:  syndicID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Membership ties an account to one apartment in one residence. Unverified
// memberships still reserve the apartment: a pending resident blocks a second
// registration for the same unit.
type Membership struct {
	ID          id.MembershipID `json:"id"`
	AccountID   id.AccountID    `json:"account_id"`
	ResidenceID id.ResidenceID  `json:"residence_id"`
	Apartment   string          `json:"apartment"`
	Verified    bool            `json:"verified"`
	CreatedAt   time.Time       `json:"created_at"`
}

// NewMembership constructs a membership. Apartment labels are free-form but
// never empty.
func NewMembership(membershipID id.MembershipID, accountID id.AccountID, residenceID id.ResidenceID, apartment string, verified bool, now time.Time) (*Membership, error) {
	apartment = strings.TrimSpace(apartment)
	if apartment == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "apartment cannot be empty")
	}
	if accountID.IsNil() || residenceID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "membership must reference an account and a residence")
	}
	return &Membership{
		ID:          membershipID,
		AccountID:   accountID,
		ResidenceID: residenceID,
		Apartment:   apartment,
		Verified:    verified,
		CreatedAt:   now,
	}, nil
}
