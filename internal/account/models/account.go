package models

import (
	"strings"
	"time"

	id "residora/pkg/domain"
	dErrors "residora/pkg/domain-errors"
)

// Role is an account's global role. Syndic is sticky: once a manager, an
// account keeps that role even when added as a plain resident elsewhere.
type Role string

const (
	RoleResident Role = "resident"
	RoleSyndic   Role = "syndic"
	RoleGuard    Role = "guard"
)

// ParseRole validates a role name. Empty input defaults to resident, which is
// what registration forms submit.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return RoleResident, nil
	case RoleResident:
		return RoleResident, nil
	case RoleSyndic:
		return RoleSyndic, nil
	case RoleGuard:
		return RoleGuard, nil
	default:
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown role %q", s)
	}
}

// roleTransitions is the decision table for reusing an existing account under
// a newly requested role: current role × requested role → resulting role.
// Encoded as data, not control flow, so the policy is auditable on its own.
var roleTransitions = map[Role]map[Role]Role{
	RoleSyndic: {
		RoleResident: RoleSyndic, // a manager added as resident elsewhere stays a manager
		RoleSyndic:   RoleSyndic,
		RoleGuard:    RoleSyndic,
	},
	RoleResident: {
		RoleResident: RoleResident,
		RoleSyndic:   RoleSyndic, // promotion via document approval
		RoleGuard:    RoleResident, // an existing resident is never silently demoted to guard
	},
	RoleGuard: {
		RoleResident: RoleGuard,
		RoleSyndic:   RoleSyndic,
		RoleGuard:    RoleGuard,
	},
}

// ResolveRole applies the role-preservation policy when an account that
// already exists is enrolled again under a requested role.
func ResolveRole(current, requested Role) Role {
	if byRequested, ok := roleTransitions[current]; ok {
		if resolved, ok := byRequested[requested]; ok {
			return resolved
		}
	}
	return current
}

// Account is the global profile shared across residences.
//
// Invariants:
//   - Email is non-empty and unique across accounts
//   - Role is one of resident|syndic|guard
//   - CreatedAt is immutable after construction
type Account struct {
	ID            id.AccountID `json:"id"`
	FullName      string       `json:"full_name"`
	Email         string       `json:"email"`
	Phone         string       `json:"phone"`
	Role          Role         `json:"role"`
	EmailVerified bool         `json:"email_verified"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// NewAccount constructs an account, validating invariants.
func NewAccount(accountID id.AccountID, fullName, email, phone string, role Role, now time.Time) (*Account, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.ToLower(strings.TrimSpace(email))
	if fullName == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "full name cannot be empty")
	}
	if !ValidEmail(email) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "email address is not valid")
	}
	return &Account{
		ID:        accountID,
		FullName:  fullName,
		Email:     email,
		Phone:     strings.TrimSpace(phone),
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ValidEmail performs shape validation only; deliverability is proven by the
// one-time code flow, not by parsing.
func ValidEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	if strings.IndexByte(domain, '.') <= 0 || strings.HasSuffix(domain, ".") {
		return false
	}
	return !strings.ContainsAny(email, " \t\n")
}
