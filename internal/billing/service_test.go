package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	accountmodels "residora/internal/account/models"
	accountstore "residora/internal/account/store"
	"residora/internal/billing/mocks"
	billingstore "residora/internal/billing/store"
	id "residora/pkg/domain"
	dErrors "residora/pkg/domain-errors"
	"residora/pkg/platform/audit"
	"residora/pkg/requestcontext"
)

type billingFixture struct {
	service  *Service
	provider *mocks.MockProvider
	mappings *billingstore.InMemoryStore
	accounts *accountstore.InMemoryStore
	auditLog *audit.InMemoryStore

	account *accountmodels.Account
}

func newBillingFixture(t *testing.T) *billingFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &billingFixture{
		provider: mocks.NewMockProvider(ctrl),
		mappings: billingstore.NewInMemoryStore(),
		accounts: accountstore.NewInMemoryStore(),
		auditLog: audit.NewInMemoryStore(),
	}
	f.service = NewService(f.provider, f.mappings, f.accounts,
		WithAuditPublisher(audit.NewStorePublisher(f.auditLog)),
	)

	now := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	account, err := accountmodels.NewAccount(id.NewAccountID(), "Karim Bennis", "karim@example.com", "+212600222333", accountmodels.RoleSyndic, now)
	require.NoError(t, err)
	require.NoError(t, f.accounts.Create(context.Background(), account))
	f.account = account
	return f
}

func (f *billingFixture) actorCtx() context.Context {
	return requestcontext.WithActorID(context.Background(), f.account.ID)
}

func TestEnsureCustomerCreatesOnce(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()

	f.provider.EXPECT().
		CreateCustomer(gomock.Any(), "karim@example.com", "Karim Bennis").
		Return("cus_123", nil).
		Times(1)

	first, err := f.service.EnsureCustomer(ctx, f.account.ID)
	require.NoError(t, err)
	assert.Equal(t, "cus_123", first.CustomerID)

	// Second call hits the stored mapping, not the provider.
	second, err := f.service.EnsureCustomer(ctx, f.account.ID)
	require.NoError(t, err)
	assert.Equal(t, "cus_123", second.CustomerID)
}

func TestEnsureCustomerUnknownAccount(t *testing.T) {
	f := newBillingFixture(t)

	_, err := f.service.EnsureCustomer(context.Background(), id.NewAccountID())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestSubscribeCreatesCustomerAndSubscription(t *testing.T) {
	f := newBillingFixture(t)

	f.provider.EXPECT().
		CreateCustomer(gomock.Any(), "karim@example.com", "Karim Bennis").
		Return("cus_123", nil)
	f.provider.EXPECT().
		CreateSubscription(gomock.Any(), "cus_123", "standard").
		Return("sub_456", nil)

	mapping, err := f.service.Subscribe(f.actorCtx(), "standard")
	require.NoError(t, err)
	assert.Equal(t, "sub_456", mapping.SubscriptionID)
	assert.Equal(t, "standard", mapping.Plan)

	actions := map[string]bool{}
	for _, e := range f.auditLog.All() {
		actions[e.Action] = true
	}
	assert.True(t, actions[string(audit.EventSubscriptionCreated)])
}

func TestSubscribeRejectsSecondSubscription(t *testing.T) {
	f := newBillingFixture(t)

	f.provider.EXPECT().CreateCustomer(gomock.Any(), gomock.Any(), gomock.Any()).Return("cus_123", nil)
	f.provider.EXPECT().CreateSubscription(gomock.Any(), "cus_123", "standard").Return("sub_456", nil)

	_, err := f.service.Subscribe(f.actorCtx(), "standard")
	require.NoError(t, err)

	_, err = f.service.Subscribe(f.actorCtx(), "premium")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestSubscribeRequiresActor(t *testing.T) {
	f := newBillingFixture(t)

	_, err := f.service.Subscribe(context.Background(), "standard")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestCancelClearsSubscription(t *testing.T) {
	f := newBillingFixture(t)

	f.provider.EXPECT().CreateCustomer(gomock.Any(), gomock.Any(), gomock.Any()).Return("cus_123", nil)
	f.provider.EXPECT().CreateSubscription(gomock.Any(), "cus_123", "standard").Return("sub_456", nil)
	f.provider.EXPECT().CancelSubscription(gomock.Any(), "sub_456").Return(nil)

	_, err := f.service.Subscribe(f.actorCtx(), "standard")
	require.NoError(t, err)
	require.NoError(t, f.service.Cancel(f.actorCtx()))

	mapping, err := f.mappings.FindByAccount(context.Background(), f.account.ID)
	require.NoError(t, err)
	assert.Empty(t, mapping.SubscriptionID)
	assert.Empty(t, mapping.Plan)

	// Nothing left to cancel.
	err = f.service.Cancel(f.actorCtx())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestRefundValidation(t *testing.T) {
	f := newBillingFixture(t)

	_, err := f.service.Refund(context.Background(), f.account.ID, "", decimal.NewFromInt(10))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = f.service.Refund(context.Background(), f.account.ID, "pay_1", decimal.Zero)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	// No billing record yet.
	_, err = f.service.Refund(context.Background(), f.account.ID, "pay_1", decimal.NewFromInt(10))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestRefundForwardsToProvider(t *testing.T) {
	f := newBillingFixture(t)

	f.provider.EXPECT().CreateCustomer(gomock.Any(), gomock.Any(), gomock.Any()).Return("cus_123", nil)
	_, err := f.service.EnsureCustomer(context.Background(), f.account.ID)
	require.NoError(t, err)

	amount := decimal.RequireFromString("149.50")
	f.provider.EXPECT().Refund(gomock.Any(), "pay_1", amount).Return("re_789", nil)

	refundID, err := f.service.Refund(context.Background(), f.account.ID, "pay_1", amount)
	require.NoError(t, err)
	assert.Equal(t, "re_789", refundID)
}

func TestRemoveCustomerBestEffort(t *testing.T) {
	f := newBillingFixture(t)

	f.provider.EXPECT().CreateCustomer(gomock.Any(), gomock.Any(), gomock.Any()).Return("cus_123", nil)
	f.provider.EXPECT().CreateSubscription(gomock.Any(), "cus_123", "standard").Return("sub_456", nil)
	_, err := f.service.Subscribe(f.actorCtx(), "standard")
	require.NoError(t, err)

	// Provider failures do not block the removal; the mapping still goes.
	f.provider.EXPECT().CancelSubscription(gomock.Any(), "sub_456").Return(errors.New("provider down"))
	f.provider.EXPECT().DeleteCustomer(gomock.Any(), "cus_123").Return(errors.New("provider down"))

	require.NoError(t, f.service.RemoveCustomer(context.Background(), f.account.ID))
	assert.Equal(t, 0, f.mappings.Len())
}

func TestRemoveCustomerMissingMapping(t *testing.T) {
	f := newBillingFixture(t)
	require.NoError(t, f.service.RemoveCustomer(context.Background(), f.account.ID))
}
