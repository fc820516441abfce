package billing

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LogProvider is the development stand-in for the hosted payment provider.
// Every call succeeds and is logged; returned identifiers are random.
type LogProvider struct {
	Logger *slog.Logger
}

func (p *LogProvider) CreateCustomer(ctx context.Context, email, name string) (string, error) {
	customerID := "cus_" + uuid.NewString()[:8]
	p.Logger.InfoContext(ctx, "billing customer created (log provider)",
		"customer_id", customerID, "email", email, "name", name)
	return customerID, nil
}

func (p *LogProvider) CreateSubscription(ctx context.Context, customerID, plan string) (string, error) {
	subscriptionID := "sub_" + uuid.NewString()[:8]
	p.Logger.InfoContext(ctx, "subscription created (log provider)",
		"subscription_id", subscriptionID, "customer_id", customerID, "plan", plan)
	return subscriptionID, nil
}

func (p *LogProvider) CancelSubscription(ctx context.Context, subscriptionID string) error {
	p.Logger.InfoContext(ctx, "subscription cancelled (log provider)", "subscription_id", subscriptionID)
	return nil
}

func (p *LogProvider) Refund(ctx context.Context, paymentRef string, amount decimal.Decimal) (string, error) {
	refundID := "re_" + uuid.NewString()[:8]
	p.Logger.InfoContext(ctx, "refund issued (log provider)",
		"refund_id", refundID, "payment_ref", paymentRef, "amount", amount.String())
	return refundID, nil
}

func (p *LogProvider) DeleteCustomer(ctx context.Context, customerID string) error {
	p.Logger.InfoContext(ctx, "billing customer deleted (log provider)", "customer_id", customerID)
	return nil
}
