// Package store persists the account-to-provider-customer mapping.
package store

import (
	"context"
	"time"

	id "residora/pkg/domain"
)

// Mapping ties one account to its provider customer and, optionally, an
// active subscription.
type Mapping struct {
	AccountID      id.AccountID `json:"account_id"`
	CustomerID     string       `json:"customer_id"`
	SubscriptionID string       `json:"subscription_id,omitempty"`
	Plan           string       `json:"plan,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// MappingStore is the persistence surface for billing mappings.
type MappingStore interface {
	Save(ctx context.Context, mapping *Mapping) error
	FindByAccount(ctx context.Context, accountID id.AccountID) (*Mapping, error)
	DeleteByAccount(ctx context.Context, accountID id.AccountID) error
}
