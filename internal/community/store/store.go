// Package store persists community records. The write surface is what the
// deletion cascade needs; creation exists for seeding and the notification
// fan-out.
package store

import (
	"context"

	"residora/internal/community/models"
	id "residora/pkg/domain"
)

// Store is the persistence surface for community records.
type Store interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	CreateVote(ctx context.Context, v *models.Vote) error
	CreateIncidentReport(ctx context.Context, r *models.IncidentReport) error
	CreateAccessLog(ctx context.Context, l *models.AccessLog) error

	ListIncidentsByResidence(ctx context.Context, residenceID id.ResidenceID) ([]*models.IncidentReport, error)

	// Cascade operations, one per reference kind.
	DeleteNotificationsByAccount(ctx context.Context, accountID id.AccountID) error
	DeleteVotesByAccount(ctx context.Context, accountID id.AccountID) error
	NullifyIncidentResolver(ctx context.Context, accountID id.AccountID) error
	DeleteIncidentsByReporter(ctx context.Context, accountID id.AccountID) error
	DeleteAccessLogsByAccount(ctx context.Context, accountID id.AccountID) error
}
