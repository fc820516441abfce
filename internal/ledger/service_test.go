package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"residora/internal/ledger/models"
	ledgerstore "residora/internal/ledger/store"
	residencemodels "residora/internal/residence/models"
	residencestore "residora/internal/residence/store"
	id "residora/pkg/domain"
	dErrors "residora/pkg/domain-errors"
	"residora/pkg/requestcontext"
)

type fixture struct {
	service     *Service
	ledger      *ledgerstore.InMemoryStore
	memberships *residencestore.InMemoryMembershipStore

	residence *residencemodels.Residence
	syndicID  id.AccountID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	residences := residencestore.NewInMemoryResidenceStore()
	f := &fixture{
		ledger:      ledgerstore.NewInMemoryStore(),
		memberships: residencestore.NewInMemoryMembershipStore(),
		syndicID:    id.NewAccountID(),
	}
	f.service = NewService(f.ledger, residences, f.memberships)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	residence, err := residencemodels.NewResidence(id.NewResidenceID(), "Les Oliviers", "12 Rue des Fleurs", "Casablanca", f.syndicID, now)
	require.NoError(t, err)
	require.NoError(t, residences.Create(context.Background(), residence))
	f.residence = residence
	return f
}

func (f *fixture) ctx() context.Context {
	return requestcontext.WithActorID(context.Background(), f.syndicID)
}

func (f *fixture) addApartment(t *testing.T, apartment string) id.AccountID {
	t.Helper()
	accountID := id.NewAccountID()
	membership, err := residencemodels.NewMembership(id.NewMembershipID(), accountID, f.residence.ID, apartment, true, time.Now())
	require.NoError(t, err)
	require.NoError(t, f.memberships.Create(context.Background(), membership))
	return accountID
}

func TestStatusMatrix(t *testing.T) {
	f := newFixture(t)
	acct5 := f.addApartment(t, "5")
	f.addApartment(t, "6")

	_, err := f.service.RecordPayment(f.ctx(), f.residence.ID, acct5, "5", decimal.NewFromInt(300), 2026, time.February)
	require.NoError(t, err)
	require.NoError(t, f.ledger.CreateFee(context.Background(), &models.Fee{
		ResidenceID: f.residence.ID, AccountID: acct5, Apartment: "5",
		Amount: decimal.NewFromInt(300), Year: 2026, Month: time.March,
	}))

	matrix, err := f.service.StatusMatrix(f.ctx(), f.residence.ID, 2026)
	require.NoError(t, err)
	require.Len(t, matrix.Rows, 2)

	byApartment := map[string]MatrixRow{}
	for _, row := range matrix.Rows {
		byApartment[row.Apartment] = row
	}
	assert.Equal(t, models.StatusPaid, byApartment["5"].Months[time.February])
	assert.Equal(t, models.StatusPending, byApartment["5"].Months[time.March])
	assert.Equal(t, models.StatusNone, byApartment["5"].Months[time.April])
	assert.Equal(t, models.StatusNone, byApartment["6"].Months[time.February])
	assert.True(t, matrix.TotalCollected.Equal(decimal.NewFromInt(300)))
}

func TestStatusMatrixExcludesGuardApartment(t *testing.T) {
	f := newFixture(t)
	f.addApartment(t, "5")
	f.addApartment(t, residencemodels.GuardApartment)

	matrix, err := f.service.StatusMatrix(f.ctx(), f.residence.ID, 2026)
	require.NoError(t, err)
	require.Len(t, matrix.Rows, 1)
	assert.Equal(t, "5", matrix.Rows[0].Apartment)
}

func TestStatusMatrixForbiddenForStrangers(t *testing.T) {
	f := newFixture(t)
	ctx := requestcontext.WithActorID(context.Background(), id.NewAccountID())

	_, err := f.service.StatusMatrix(ctx, f.residence.ID, 2026)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestStatusMatrixAllowsMembers(t *testing.T) {
	f := newFixture(t)
	member := f.addApartment(t, "5")

	_, err := f.service.StatusMatrix(requestcontext.WithActorID(context.Background(), member), f.residence.ID, 2026)
	assert.NoError(t, err)
}

func TestExpensesTotal(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.RecordExpense(f.ctx(), f.residence.ID, "elevator maintenance", decimal.RequireFromString("1250.50"))
	require.NoError(t, err)
	_, err = f.service.RecordExpense(f.ctx(), f.residence.ID, "cleaning", decimal.RequireFromString("300.25"))
	require.NoError(t, err)

	report, err := f.service.Expenses(f.ctx(), f.residence.ID, time.Now().Year())
	require.NoError(t, err)
	require.Len(t, report.Expenses, 2)
	assert.True(t, report.Total.Equal(decimal.RequireFromString("1550.75")))
}

func TestRecordPaymentRejectsNonPositiveAmount(t *testing.T) {
	f := newFixture(t)
	acct := f.addApartment(t, "5")

	_, err := f.service.RecordPayment(f.ctx(), f.residence.ID, acct, "5", decimal.Zero, 2026, time.January)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestRecordExpenseSyndicOnly(t *testing.T) {
	f := newFixture(t)
	member := f.addApartment(t, "5")

	_, err := f.service.RecordExpense(requestcontext.WithActorID(context.Background(), member),
		f.residence.ID, "cleaning", decimal.NewFromInt(100))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}
