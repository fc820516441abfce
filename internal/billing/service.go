package billing

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	accountstore "residora/internal/account/store"
	billingstore "residora/internal/billing/store"
	id "residora/pkg/domain"
	dErrors "residora/pkg/domain-errors"
	"residora/pkg/platform/audit"
	"residora/pkg/platform/sentinel"
	"residora/pkg/requestcontext"
)

// Service translates account ids to provider customer ids and forwards
// subscription operations.
type Service struct {
	provider Provider
	mappings billingstore.MappingStore
	accounts accountstore.AccountStore
	logger   *slog.Logger
	audit    audit.Publisher
}

// Option configures optional service collaborators.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) { s.audit = publisher }
}

func NewService(provider Provider, mappings billingstore.MappingStore, accounts accountstore.AccountStore, opts ...Option) *Service {
	s := &Service{
		provider: provider,
		mappings: mappings,
		accounts: accounts,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureCustomer returns the provider customer for an account, creating it on
// first use.
func (s *Service) EnsureCustomer(ctx context.Context, accountID id.AccountID) (*billingstore.Mapping, error) {
	mapping, err := s.mappings.FindByAccount(ctx, accountID)
	if err == nil {
		return mapping, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "loading billing mapping")
	}

	account, err := s.accounts.FindByID(ctx, accountID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "loading account")
	}

	customerID, err := s.provider.CreateCustomer(ctx, account.Email, account.FullName)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "creating provider customer")
	}

	now := requestcontext.Now(ctx)
	mapping = &billingstore.Mapping{
		AccountID:  accountID,
		CustomerID: customerID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.mappings.Save(ctx, mapping); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "saving billing mapping")
	}

	s.publishAudit(ctx, audit.EventBillingCustomerCreated, audit.Event{
		AccountID: accountID,
		Subject:   customerID,
	})
	return mapping, nil
}

// Subscribe creates a subscription on the given plan for the acting account.
func (s *Service) Subscribe(ctx context.Context, plan string) (*billingstore.Mapping, error) {
	if plan == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "plan is required")
	}
	actor := requestcontext.ActorID(ctx)
	if actor.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	mapping, err := s.EnsureCustomer(ctx, actor)
	if err != nil {
		return nil, err
	}
	if mapping.SubscriptionID != "" {
		return nil, dErrors.New(dErrors.CodeConflict, "account already has an active subscription")
	}

	subscriptionID, err := s.provider.CreateSubscription(ctx, mapping.CustomerID, plan)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "creating subscription")
	}

	mapping.SubscriptionID = subscriptionID
	mapping.Plan = plan
	mapping.UpdatedAt = requestcontext.Now(ctx)
	if err := s.mappings.Save(ctx, mapping); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "saving billing mapping")
	}

	s.publishAudit(ctx, audit.EventSubscriptionCreated, audit.Event{
		AccountID: actor,
		Subject:   subscriptionID,
	})
	return mapping, nil
}

// Cancel cancels the acting account's subscription.
func (s *Service) Cancel(ctx context.Context) error {
	actor := requestcontext.ActorID(ctx)
	if actor.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	mapping, err := s.mappings.FindByAccount(ctx, actor)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "no billing record for this account")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "loading billing mapping")
	}
	if mapping.SubscriptionID == "" {
		return dErrors.New(dErrors.CodeConflict, "account has no active subscription")
	}

	if err := s.provider.CancelSubscription(ctx, mapping.SubscriptionID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "cancelling subscription")
	}

	subscriptionID := mapping.SubscriptionID
	mapping.SubscriptionID = ""
	mapping.Plan = ""
	mapping.UpdatedAt = requestcontext.Now(ctx)
	if err := s.mappings.Save(ctx, mapping); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "saving billing mapping")
	}

	s.publishAudit(ctx, audit.EventSubscriptionCancelled, audit.Event{
		AccountID: actor,
		Subject:   subscriptionID,
	})
	return nil
}

// Refund forwards a refund for a provider payment reference.
func (s *Service) Refund(ctx context.Context, accountID id.AccountID, paymentRef string, amount decimal.Decimal) (string, error) {
	if paymentRef == "" {
		return "", dErrors.New(dErrors.CodeValidation, "payment reference is required")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return "", dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}
	if _, err := s.mappings.FindByAccount(ctx, accountID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeNotFound, "no billing record for this account")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "loading billing mapping")
	}

	refundID, err := s.provider.Refund(ctx, paymentRef, amount)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "issuing refund")
	}

	s.publishAudit(ctx, audit.EventRefundIssued, audit.Event{
		AccountID: accountID,
		Subject:   refundID,
	})
	return refundID, nil
}

// RemoveCustomer deletes the provider customer and the mapping row. Called by
// the account deletion cascade; a missing mapping is not an error.
func (s *Service) RemoveCustomer(ctx context.Context, accountID id.AccountID) error {
	mapping, err := s.mappings.FindByAccount(ctx, accountID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "loading billing mapping")
	}

	if mapping.SubscriptionID != "" {
		if err := s.provider.CancelSubscription(ctx, mapping.SubscriptionID); err != nil {
			s.logger.Warn("subscription cancel during removal failed",
				"account_id", accountID.String(), "error", err)
		}
	}
	if err := s.provider.DeleteCustomer(ctx, mapping.CustomerID); err != nil {
		s.logger.Warn("provider customer delete failed",
			"account_id", accountID.String(), "error", err)
	}
	if err := s.mappings.DeleteByAccount(ctx, accountID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "deleting billing mapping")
	}
	return nil
}

func (s *Service) publishAudit(ctx context.Context, action audit.AuditEvent, event audit.Event) {
	if s.audit == nil {
		return
	}
	event.Action = string(action)
	event.Category = action.Category()
	event.Timestamp = requestcontext.Now(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	if actor := requestcontext.ActorID(ctx); !actor.IsNil() {
		event.ActorID = actor.String()
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.Warn("audit event publish failed", "action", string(action), "error", err)
	}
}
