// Package models defines the contribution and expense records behind the
// ledger views. Amounts are decimals, never floats.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	id "residora/pkg/domain"
)

// Payment is a contribution received for an apartment's monthly dues.
type Payment struct {
	ID          uuid.UUID       `json:"id"`
	ResidenceID id.ResidenceID  `json:"residence_id"`
	AccountID   id.AccountID    `json:"account_id"`
	Apartment   string          `json:"apartment"`
	Amount      decimal.Decimal `json:"amount"`
	Year        int             `json:"year"`
	Month       time.Month      `json:"month"`
	PaidAt      time.Time       `json:"paid_at"`
}

// Fee is a due levied on an apartment for a month. An unpaid fee shows as
// pending in the status matrix.
type Fee struct {
	ID          uuid.UUID       `json:"id"`
	ResidenceID id.ResidenceID  `json:"residence_id"`
	AccountID   id.AccountID    `json:"account_id"`
	Apartment   string          `json:"apartment"`
	Amount      decimal.Decimal `json:"amount"`
	Year        int             `json:"year"`
	Month       time.Month      `json:"month"`
	DueAt       time.Time       `json:"due_at"`
}

// Expense is money spent by the residence. RecordedBy is incidental: it is
// nullified, not deleted, when the recording account goes away.
type Expense struct {
	ID          uuid.UUID       `json:"id"`
	ResidenceID id.ResidenceID  `json:"residence_id"`
	Label       string          `json:"label"`
	Amount      decimal.Decimal `json:"amount"`
	RecordedBy  *id.AccountID   `json:"recorded_by,omitempty"`
	IncurredAt  time.Time       `json:"incurred_at"`
}

// ContributionStatus is one cell of the status matrix.
type ContributionStatus string

const (
	StatusPaid    ContributionStatus = "paid"
	StatusPending ContributionStatus = "pending"
	StatusNone    ContributionStatus = "none"
)
