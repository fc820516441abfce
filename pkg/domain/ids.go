// Package domain defines typed identifiers shared across modules.
//
// Every entity ID is a distinct type over uuid.UUID so that the compiler
// rejects cross-entity assignment (passing an AccountID where a ResidenceID
// is expected). Parse helpers enforce the invariant that IDs are valid,
// non-empty, non-nil UUIDs at trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "residora/pkg/domain-errors"
)

type (
	// AccountID identifies an account (resident, syndic, or guard).
	AccountID uuid.UUID
	// ResidenceID identifies a residence building.
	ResidenceID uuid.UUID
	// MembershipID identifies an (account, residence, apartment) association.
	MembershipID uuid.UUID
	// RegistrationID identifies a pending registration request.
	RegistrationID uuid.UUID
	// SubmissionID identifies a document-verification submission.
	SubmissionID uuid.UUID
)

func (id AccountID) String() string      { return uuid.UUID(id).String() }
func (id ResidenceID) String() string    { return uuid.UUID(id).String() }
func (id MembershipID) String() string   { return uuid.UUID(id).String() }
func (id RegistrationID) String() string { return uuid.UUID(id).String() }
func (id SubmissionID) String() string   { return uuid.UUID(id).String() }

func (id AccountID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id ResidenceID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id MembershipID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id RegistrationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id SubmissionID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }

// NewAccountID returns a fresh random AccountID.
func NewAccountID() AccountID { return AccountID(uuid.New()) }

// NewResidenceID returns a fresh random ResidenceID.
func NewResidenceID() ResidenceID { return ResidenceID(uuid.New()) }

// NewMembershipID returns a fresh random MembershipID.
func NewMembershipID() MembershipID { return MembershipID(uuid.New()) }

// NewRegistrationID returns a fresh random RegistrationID.
func NewRegistrationID() RegistrationID { return RegistrationID(uuid.New()) }

// NewSubmissionID returns a fresh random SubmissionID.
func NewSubmissionID() SubmissionID { return SubmissionID(uuid.New()) }

// ParseAccountID parses and validates an account ID.
func ParseAccountID(s string) (AccountID, error) {
	u, err := parseUUID(s)
	return AccountID(u), err
}

// ParseResidenceID parses and validates a residence ID.
func ParseResidenceID(s string) (ResidenceID, error) {
	u, err := parseUUID(s)
	return ResidenceID(u), err
}

// ParseMembershipID parses and validates a membership ID.
func ParseMembershipID(s string) (MembershipID, error) {
	u, err := parseUUID(s)
	return MembershipID(u), err
}

// ParseRegistrationID parses and validates a registration request ID.
func ParseRegistrationID(s string) (RegistrationID, error) {
	u, err := parseUUID(s)
	return RegistrationID(u), err
}

// ParseSubmissionID parses and validates a submission ID.
func ParseSubmissionID(s string) (SubmissionID, error) {
	u, err := parseUUID(s)
	return SubmissionID(u), err
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return u, nil
}
