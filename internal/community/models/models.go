// Package models defines the community records hanging off accounts:
// notifications, votes, incident reports and access logs. They matter to the
// deletion cascade, which must know for each whether the account reference is
// owning (row deleted), required (row deleted) or incidental (nullified).
package models

import (
	"time"

	"github.com/google/uuid"

	id "residora/pkg/domain"
)

// Notification is a message delivered to one account. Owned by the account:
// deleted with it.
type Notification struct {
	ID        uuid.UUID    `json:"id"`
	AccountID id.AccountID `json:"account_id"`
	Title     string       `json:"title"`
	Body      string       `json:"body"`
	Read      bool         `json:"read"`
	CreatedAt time.Time    `json:"created_at"`
}

// Vote is one account's choice in a residence poll. Owned by the account.
type Vote struct {
	ID          uuid.UUID      `json:"id"`
	AccountID   id.AccountID   `json:"account_id"`
	ResidenceID id.ResidenceID `json:"residence_id"`
	Topic       string         `json:"topic"`
	Choice      string         `json:"choice"`
	CreatedAt   time.Time      `json:"created_at"`
}

// IncidentReport is a problem reported in a residence. ReportedBy is
// required, so the row dies with the reporter; ResolvedBy is incidental and
// is nullified when the resolver's account goes away.
type IncidentReport struct {
	ID          uuid.UUID      `json:"id"`
	ResidenceID id.ResidenceID `json:"residence_id"`
	ReportedBy  id.AccountID   `json:"reported_by"`
	ResolvedBy  *id.AccountID  `json:"resolved_by,omitempty"`
	Description string         `json:"description"`
	CreatedAt   time.Time      `json:"created_at"`
}

// AccessLog records a building entry. AccountID is required.
type AccessLog struct {
	ID          uuid.UUID      `json:"id"`
	ResidenceID id.ResidenceID `json:"residence_id"`
	AccountID   id.AccountID   `json:"account_id"`
	Gate        string         `json:"gate"`
	OccurredAt  time.Time      `json:"occurred_at"`
}
