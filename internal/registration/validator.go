// Package registration implements self-service registration: duplicate
// validation across members and pending requests, request capture with client
// metadata, and notification fan-out.
package registration

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	accountstore "residora/internal/account/store"
	registrationstore "residora/internal/registration/store"
	residencemodels "residora/internal/residence/models"
	residencestore "residora/internal/residence/store"
	id "residora/pkg/domain"
	"residora/pkg/phone"
)

// Scope selects which membership states count as occupants during
// validation. Pre-validation checks verified members only; full registration
// also counts pending (unverified) ones. The difference is deliberate and
// preserved per call site.
type Scope int

const (
	ScopeVerifiedOnly Scope = iota
	ScopeAllMembers
)

// Violation is one violated registration constraint.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error satisfies the error interface so a slice of violations can travel as
// a value without losing its structure.
func (v Violation) Error() string { return v.Message }

// CandidateInput are the fields checked for collisions.
type CandidateInput struct {
	ResidenceID id.ResidenceID
	Email       string
	Phone       string
	Apartment   string
}

// Validator evaluates every constraint and reports the complete set of
// violations, never just the first.
type Validator struct {
	accounts    accountstore.AccountStore
	memberships residencestore.MembershipStore
	requests    registrationstore.RequestStore
	tracer      trace.Tracer
}

func NewValidator(accounts accountstore.AccountStore, memberships residencestore.MembershipStore, requests registrationstore.RequestStore) *Validator {
	return &Validator{
		accounts:    accounts,
		memberships: memberships,
		requests:    requests,
		tracer:      otel.Tracer("registration.validator"),
	}
}

// Validate runs all checks against the candidate. A non-nil error means a
// check could not be evaluated; violations are the business outcome.
func (v *Validator) Validate(ctx context.Context, candidate CandidateInput, scope Scope) ([]Violation, error) {
	ctx, span := v.tracer.Start(ctx, "registration.validate",
		trace.WithAttributes(attribute.String("residence_id", candidate.ResidenceID.String())))
	defer span.End()

	email := strings.ToLower(strings.TrimSpace(candidate.Email))
	normalizedPhone := phone.Normalize(candidate.Phone)
	includeUnverified := scope == ScopeAllMembers

	var violations []Violation

	memberships, err := v.memberships.ListByResidence(ctx, candidate.ResidenceID)
	if err != nil {
		return nil, fmt.Errorf("listing memberships: %w", err)
	}
	emailTaken, phoneTaken := false, false
	for _, membership := range memberships {
		if !membership.Verified && !includeUnverified {
			continue
		}
		if emailTaken && phoneTaken {
			break
		}
		account, err := v.accounts.FindByID(ctx, membership.AccountID)
		if err != nil {
			return nil, fmt.Errorf("loading member account: %w", err)
		}
		if account.Email == email {
			emailTaken = true
		}
		if normalizedPhone != "" && phone.Equal(account.Phone, candidate.Phone) {
			phoneTaken = true
		}
	}
	if emailTaken {
		violations = append(violations, Violation{
			Field:   "email",
			Message: "email is already used by a resident of this residence",
		})
	}
	if phoneTaken {
		violations = append(violations, Violation{
			Field:   "phone_number",
			Message: "phone number is already used by a resident of this residence",
		})
	}

	// Self-service registrants are always residents; the guard apartment is
	// assigned by the syndic through onboarding.
	if strings.TrimSpace(candidate.Apartment) == residencemodels.GuardApartment {
		violations = append(violations, Violation{
			Field:   "apartment_number",
			Message: "apartment 0 is reserved for the building guard",
		})
	} else {
		occupied, err := v.memberships.ApartmentOccupied(ctx, candidate.ResidenceID, candidate.Apartment, includeUnverified)
		if err != nil {
			return nil, fmt.Errorf("checking apartment occupancy: %w", err)
		}
		if occupied {
			violations = append(violations, Violation{
				Field:   "apartment_number",
				Message: fmt.Sprintf("apartment %s is already reserved", candidate.Apartment),
			})
		}
	}

	pendingEmail, err := v.requests.HasPendingWithEmail(ctx, candidate.ResidenceID, email)
	if err != nil {
		return nil, fmt.Errorf("checking pending requests by email: %w", err)
	}
	if pendingEmail {
		violations = append(violations, Violation{
			Field:   "email",
			Message: "a pending registration request already uses this email",
		})
	}
	pendingPhone, err := v.requests.HasPendingWithPhone(ctx, candidate.ResidenceID, normalizedPhone)
	if err != nil {
		return nil, fmt.Errorf("checking pending requests by phone: %w", err)
	}
	if pendingPhone {
		violations = append(violations, Violation{
			Field:   "phone_number",
			Message: "a pending registration request already uses this phone number",
		})
	}
	pendingApartment, err := v.requests.HasPendingWithApartment(ctx, candidate.ResidenceID, candidate.Apartment)
	if err != nil {
		return nil, fmt.Errorf("checking pending requests by apartment: %w", err)
	}
	if pendingApartment {
		violations = append(violations, Violation{
			Field:   "apartment_number",
			Message: "a pending registration request already claims this apartment",
		})
	}

	span.SetAttributes(attribute.Int("violations", len(violations)))
	return violations, nil
}
