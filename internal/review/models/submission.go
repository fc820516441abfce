// Package models defines document submissions: the identity and ownership
// paperwork a syndic files to be granted a managed residence.
package models

import (
	"time"

	id "residora/pkg/domain"
	dErrors "residora/pkg/domain-errors"
)

// Status is the review status of a submission.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Submission is one review case. ResidenceID is set on approval and cleared
// again by a reset; Attachments are object-store keys, never raw bytes.
type Submission struct {
	ID              id.SubmissionID `json:"id"`
	SyndicID        id.AccountID    `json:"syndic_id"`
	Status          Status          `json:"status"`
	ResidenceID     *id.ResidenceID `json:"residence_id,omitempty"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	Attachments     []string        `json:"attachments,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// NewSubmission constructs a pending submission.
func NewSubmission(submissionID id.SubmissionID, syndicID id.AccountID, attachments []string, now time.Time) (*Submission, error) {
	if syndicID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "submission must belong to an account")
	}
	return &Submission{
		ID:          submissionID,
		SyndicID:    syndicID,
		Status:      StatusPending,
		Attachments: append([]string{}, attachments...),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// CanTransition reports whether the submission may move to the target status.
// Approve and reject require pending; reset to pending is allowed from any
// state, including pending itself (idempotent).
func (s *Submission) CanTransition(target Status) bool {
	switch target {
	case StatusPending:
		return true
	case StatusApproved, StatusRejected:
		return s.Status == StatusPending
	default:
		return false
	}
}
