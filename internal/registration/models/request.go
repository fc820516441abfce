// Package models defines registration requests: candidate resident fields
// captured before any account exists.
package models

import (
	"strings"
	"time"

	"residora/internal/account/models"
	id "residora/pkg/domain"
	dErrors "residora/pkg/domain-errors"
	"residora/pkg/phone"
)

// Status is the review status of a registration request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Request is a pending registration. Invariants: at most one pending request
// per (residence, email) and per (residence, apartment); both are enforced by
// the store.
type Request struct {
	ID          id.RegistrationID `json:"id"`
	ResidenceID id.ResidenceID    `json:"residence_id"`
	FullName    string            `json:"full_name"`
	Email       string            `json:"email"`
	Phone       string            `json:"phone"`
	// PhoneNormalized is Phone with separators stripped; stores compare on
	// it so "+212 600-000001" and "+212600000001" collide.
	PhoneNormalized string    `json:"-"`
	Apartment       string    `json:"apartment"`
	IDNumber        string    `json:"id_number,omitempty"`
	IDDocumentURL   string    `json:"id_document_url,omitempty"`
	Status          Status    `json:"status"`
	ClientIP        string    `json:"client_ip,omitempty"`
	UserAgent       string    `json:"user_agent,omitempty"`
	Device          string    `json:"device,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewRequest constructs a pending registration request.
func NewRequest(requestID id.RegistrationID, residenceID id.ResidenceID, fullName, email, phoneNumber, apartment string, now time.Time) (*Request, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.ToLower(strings.TrimSpace(email))
	apartment = strings.TrimSpace(apartment)
	if fullName == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "full name cannot be empty")
	}
	if !models.ValidEmail(email) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "email address is not valid")
	}
	if apartment == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "apartment cannot be empty")
	}
	return &Request{
		ID:              requestID,
		ResidenceID:     residenceID,
		FullName:        fullName,
		Email:           email,
		Phone:           strings.TrimSpace(phoneNumber),
		PhoneNormalized: phone.Normalize(phoneNumber),
		Apartment:       apartment,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}
