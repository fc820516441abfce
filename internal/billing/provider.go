// Package billing bridges accounts to the hosted subscription provider. The
// service owns the account-to-customer mapping; everything money-related
// happens on the provider's side.
package billing

import (
	"context"

	"github.com/shopspring/decimal"
)

// Provider is the hosted payment API surface the bridge consumes.
//
//go:generate mockgen -source=provider.go -destination=mocks/provider_mock.go -package=mocks
type Provider interface {
	CreateCustomer(ctx context.Context, email, name string) (customerID string, err error)
	CreateSubscription(ctx context.Context, customerID, plan string) (subscriptionID string, err error)
	CancelSubscription(ctx context.Context, subscriptionID string) error
	Refund(ctx context.Context, paymentRef string, amount decimal.Decimal) (refundID string, err error)
	DeleteCustomer(ctx context.Context, customerID string) error
}
