// Package store persists document submissions.
package store

import (
	"context"

	"residora/internal/review/models"
	id "residora/pkg/domain"
)

// SubmissionStore is the persistence surface for review cases.
type SubmissionStore interface {
	Create(ctx context.Context, submission *models.Submission) error
	Update(ctx context.Context, submission *models.Submission) error
	FindByID(ctx context.Context, submissionID id.SubmissionID) (*models.Submission, error)
	ListByStatus(ctx context.Context, status models.Status) ([]*models.Submission, error)
	ListBySyndic(ctx context.Context, syndicID id.AccountID) ([]*models.Submission, error)
	DeleteBySyndic(ctx context.Context, syndicID id.AccountID) error
}
