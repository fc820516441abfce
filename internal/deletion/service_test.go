package deletion

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	accountmodels "residora/internal/account/models"
	accountstore "residora/internal/account/store"
	"residora/internal/billing"
	"residora/internal/billing/mocks"
	billingstore "residora/internal/billing/store"
	communitymodels "residora/internal/community/models"
	communitystore "residora/internal/community/store"
	ledgermodels "residora/internal/ledger/models"
	ledgerstore "residora/internal/ledger/store"
	registrationmodels "residora/internal/registration/models"
	registrationstore "residora/internal/registration/store"
	residencemodels "residora/internal/residence/models"
	residencestore "residora/internal/residence/store"
	reviewmodels "residora/internal/review/models"
	reviewstore "residora/internal/review/store"
	"residora/internal/storage/objects"
	id "residora/pkg/domain"
	dErrors "residora/pkg/domain-errors"
	"residora/pkg/platform/audit"
	"residora/pkg/requestcontext"
)

var seedTime = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	service  *Service
	provider *mocks.MockProvider

	accounts      *accountstore.InMemoryStore
	residences    *residencestore.InMemoryResidenceStore
	memberships   *residencestore.InMemoryMembershipStore
	registrations *registrationstore.InMemoryStore
	submissions   *reviewstore.InMemoryStore
	community     *communitystore.InMemoryStore
	ledger        *ledgerstore.InMemoryStore
	objects       *objects.InMemoryStore
	mappings      *billingstore.InMemoryStore
	auditLog      *audit.InMemoryStore

	syndic    *accountmodels.Account
	residence *residencemodels.Residence
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		provider:      mocks.NewMockProvider(ctrl),
		accounts:      accountstore.NewInMemoryStore(),
		residences:    residencestore.NewInMemoryResidenceStore(),
		memberships:   residencestore.NewInMemoryMembershipStore(),
		registrations: registrationstore.NewInMemoryStore(),
		submissions:   reviewstore.NewInMemoryStore(),
		community:     communitystore.NewInMemoryStore(),
		ledger:        ledgerstore.NewInMemoryStore(),
		objects:       objects.NewInMemoryStore(),
		mappings:      billingstore.NewInMemoryStore(),
		auditLog:      audit.NewInMemoryStore(),
	}
	billingService := billing.NewService(f.provider, f.mappings, f.accounts)
	f.service = NewService(
		f.accounts, f.residences, f.memberships, f.registrations,
		f.submissions, f.community, f.ledger, f.objects, billingService,
		WithAuditPublisher(audit.NewStorePublisher(f.auditLog)),
	)

	f.syndic = f.seedAccount(t, "Salma Idrissi", "syndic@example.com", "+212600000001", accountmodels.RoleSyndic)
	residence, err := residencemodels.NewResidence(id.NewResidenceID(), "Les Oliviers", "12 Rue des Fleurs", "Casablanca", f.syndic.ID, seedTime)
	require.NoError(t, err)
	require.NoError(t, f.residences.Create(context.Background(), residence))
	f.residence = residence
	return f
}

func (f *fixture) seedAccount(t *testing.T, name, email, phoneNumber string, role accountmodels.Role) *accountmodels.Account {
	t.Helper()
	account, err := accountmodels.NewAccount(id.NewAccountID(), name, email, phoneNumber, role, seedTime)
	require.NoError(t, err)
	require.NoError(t, f.accounts.Create(context.Background(), account))
	return account
}

func (f *fixture) seedMembership(t *testing.T, accountID id.AccountID, residenceID id.ResidenceID, apartment string) *residencemodels.Membership {
	t.Helper()
	membership, err := residencemodels.NewMembership(id.NewMembershipID(), accountID, residenceID, apartment, true, seedTime)
	require.NoError(t, err)
	require.NoError(t, f.memberships.Create(context.Background(), membership))
	return membership
}

func (f *fixture) syndicCtx() context.Context {
	return requestcontext.WithActorID(context.Background(), f.syndic.ID)
}

// seedDependents hangs one of every dependent record off the account.
func (f *fixture) seedDependents(t *testing.T, account *accountmodels.Account) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, f.community.CreateNotification(ctx, &communitymodels.Notification{
		ID: uuid.New(), AccountID: account.ID, Title: "Water cut", CreatedAt: seedTime,
	}))
	require.NoError(t, f.community.CreateVote(ctx, &communitymodels.Vote{
		ID: uuid.New(), AccountID: account.ID, ResidenceID: f.residence.ID,
		Topic: "facade repaint", Choice: "yes", CreatedAt: seedTime,
	}))
	// One incident filed by the account, one merely resolved by it.
	require.NoError(t, f.community.CreateIncidentReport(ctx, &communitymodels.IncidentReport{
		ID: uuid.New(), ResidenceID: f.residence.ID, ReportedBy: account.ID,
		Description: "broken elevator", CreatedAt: seedTime,
	}))
	resolved := account.ID
	require.NoError(t, f.community.CreateIncidentReport(ctx, &communitymodels.IncidentReport{
		ID: uuid.New(), ResidenceID: f.residence.ID, ReportedBy: f.syndic.ID,
		ResolvedBy: &resolved, Description: "leaking roof", CreatedAt: seedTime,
	}))
	require.NoError(t, f.community.CreateAccessLog(ctx, &communitymodels.AccessLog{
		ID: uuid.New(), ResidenceID: f.residence.ID, AccountID: account.ID,
		Gate: "main", OccurredAt: seedTime,
	}))

	require.NoError(t, f.ledger.CreatePayment(ctx, &ledgermodels.Payment{
		ID: uuid.New(), ResidenceID: f.residence.ID, AccountID: account.ID,
		Apartment: "5", Amount: decimal.NewFromInt(300), Year: 2026, Month: time.May, PaidAt: seedTime,
	}))
	require.NoError(t, f.ledger.CreateFee(ctx, &ledgermodels.Fee{
		ID: uuid.New(), ResidenceID: f.residence.ID, AccountID: account.ID,
		Apartment: "5", Amount: decimal.NewFromInt(300), Year: 2026, Month: time.June, DueAt: seedTime,
	}))
	recorder := account.ID
	require.NoError(t, f.ledger.CreateExpense(ctx, &ledgermodels.Expense{
		ID: uuid.New(), ResidenceID: f.residence.ID, Label: "gardening",
		Amount: decimal.NewFromInt(120), RecordedBy: &recorder, IncurredAt: seedTime,
	}))

	request, err := registrationmodels.NewRequest(id.NewRegistrationID(), f.residence.ID,
		"Old Request", account.Email, "+212600999888", "9", seedTime)
	require.NoError(t, err)
	require.NoError(t, f.registrations.Create(ctx, request))

	key := "submissions/" + account.ID.String() + "/0-id-card.pdf"
	_, err = f.objects.Put(ctx, key, []byte("scan"), "application/pdf")
	require.NoError(t, err)
	submission, err := reviewmodels.NewSubmission(id.NewSubmissionID(), account.ID, []string{key}, seedTime)
	require.NoError(t, err)
	require.NoError(t, f.submissions.Create(ctx, submission))
}

func TestRemoveResidentRunsFullCascade(t *testing.T) {
	f := newFixture(t)
	ctx := f.syndicCtx()

	resident := f.seedAccount(t, "Karim Bennis", "karim@example.com", "+212600222333", accountmodels.RoleResident)
	f.seedMembership(t, resident.ID, f.residence.ID, "5")
	f.seedDependents(t, resident)
	require.NoError(t, f.accounts.CreateCredential(context.Background(), resident.Email, "hash"))
	require.NoError(t, f.accounts.CreateSession(context.Background(), resident.ID, "tok"))

	f.provider.EXPECT().CreateCustomer(gomock.Any(), resident.Email, resident.FullName).Return("cus_1", nil)
	_, err := billing.NewService(f.provider, f.mappings, f.accounts).EnsureCustomer(context.Background(), resident.ID)
	require.NoError(t, err)
	f.provider.EXPECT().DeleteCustomer(gomock.Any(), "cus_1").Return(nil)

	result, err := f.service.RemoveResident(ctx, resident.ID, f.residence.ID)
	require.NoError(t, err)
	assert.True(t, result.AccountDeleted)
	assert.False(t, result.MembershipRemoved)

	// Owned and required rows are gone.
	memberships, err := f.memberships.ListByAccount(context.Background(), resident.ID)
	require.NoError(t, err)
	assert.Empty(t, memberships)
	notifications, votes, incidents, accessLogs := f.community.Counts()
	assert.Zero(t, notifications)
	assert.Zero(t, votes)
	assert.Equal(t, 1, incidents, "the incident the resident merely resolved survives")
	assert.Zero(t, accessLogs)
	payments, fees := f.ledger.Counts()
	assert.Zero(t, payments)
	assert.Zero(t, fees)

	// Incidental references are nullified, not deleted.
	remaining, err := f.community.ListIncidentsByResidence(context.Background(), f.residence.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Nil(t, remaining[0].ResolvedBy)

	// Pending registration sharing the email is swept.
	pending, err := f.registrations.HasPendingWithEmail(context.Background(), f.residence.ID, resident.Email)
	require.NoError(t, err)
	assert.False(t, pending)

	// Documents, submissions, billing mapping.
	assert.Zero(t, f.objects.Len())
	subs, err := f.submissions.ListBySyndic(context.Background(), resident.ID)
	require.NoError(t, err)
	assert.Empty(t, subs)
	assert.Zero(t, f.mappings.Len())

	// Profile and auth rows.
	_, err = f.accounts.FindByID(context.Background(), resident.ID)
	require.Error(t, err)
	assert.Zero(t, f.accounts.CredentialCount(resident.Email))
	assert.Zero(t, f.accounts.SessionCount(resident.ID))

	deleted := false
	for _, e := range f.auditLog.All() {
		if e.Action == string(audit.EventAccountDeleted) {
			deleted = true
			assert.Equal(t, resident.Email, e.Email)
		}
	}
	assert.True(t, deleted)
}

func TestRemoveGuardClearsResidenceReference(t *testing.T) {
	f := newFixture(t)
	ctx := f.syndicCtx()

	guard := f.seedAccount(t, "Hassan Guard", "guard@example.com", "+212600333444", accountmodels.RoleGuard)
	f.seedMembership(t, guard.ID, f.residence.ID, residencemodels.GuardApartment)
	f.residence.GuardID = &guard.ID
	require.NoError(t, f.residences.Update(context.Background(), f.residence))

	result, err := f.service.RemoveResident(ctx, guard.ID, f.residence.ID)
	require.NoError(t, err)
	assert.True(t, result.AccountDeleted)

	updated, err := f.residences.FindByID(context.Background(), f.residence.ID)
	require.NoError(t, err)
	assert.Nil(t, updated.GuardID)
}

func TestManagingSyndicKeepsAccount(t *testing.T) {
	f := newFixture(t)
	ctx := f.syndicCtx()

	// A syndic with their own residence who also rents in ours.
	other := f.seedAccount(t, "Yassine Tazi", "yassine@example.com", "+212600444555", accountmodels.RoleSyndic)
	theirs, err := residencemodels.NewResidence(id.NewResidenceID(), "Al Manar", "3 Avenue Hassan II", "Rabat", other.ID, seedTime)
	require.NoError(t, err)
	require.NoError(t, f.residences.Create(context.Background(), theirs))
	f.seedMembership(t, other.ID, f.residence.ID, "7")

	result, err := f.service.RemoveResident(ctx, other.ID, f.residence.ID)
	require.NoError(t, err)
	assert.False(t, result.AccountDeleted)
	assert.True(t, result.MembershipRemoved)

	_, err = f.accounts.FindByID(context.Background(), other.ID)
	require.NoError(t, err, "account survives while residences are managed")
	left, err := f.memberships.ListByAccountAndResidence(context.Background(), other.ID, f.residence.ID)
	require.NoError(t, err)
	assert.Empty(t, left, "current-residence membership is removed")

	removed := false
	for _, e := range f.auditLog.All() {
		if e.Action == string(audit.EventMembershipRemoved) {
			removed = true
		}
	}
	assert.True(t, removed)
}

func TestMemberElsewhereKeepsAccount(t *testing.T) {
	f := newFixture(t)
	ctx := f.syndicCtx()

	elsewhere, err := residencemodels.NewResidence(id.NewResidenceID(), "Dar Salam", "8 Rue Atlas", "Marrakech", f.syndic.ID, seedTime)
	require.NoError(t, err)
	require.NoError(t, f.residences.Create(context.Background(), elsewhere))

	// Two apartments here, one in the other residence.
	resident := f.seedAccount(t, "Karim Bennis", "karim@example.com", "+212600222333", accountmodels.RoleResident)
	f.seedMembership(t, resident.ID, f.residence.ID, "5")
	f.seedMembership(t, resident.ID, f.residence.ID, "6")
	other := f.seedMembership(t, resident.ID, elsewhere.ID, "2")

	result, err := f.service.RemoveResident(ctx, resident.ID, f.residence.ID)
	require.NoError(t, err)
	assert.False(t, result.AccountDeleted)
	assert.True(t, result.MembershipRemoved)

	_, err = f.accounts.FindByID(context.Background(), resident.ID)
	require.NoError(t, err)
	left, err := f.memberships.ListByAccountAndResidence(context.Background(), resident.ID, f.residence.ID)
	require.NoError(t, err)
	assert.Empty(t, left, "every apartment in the current residence is released")
	kept, err := f.memberships.FindByID(context.Background(), other.ID)
	require.NoError(t, err)
	assert.Equal(t, elsewhere.ID, kept.ResidenceID)
}

func TestDepartingGuardReleasesGuardSlot(t *testing.T) {
	f := newFixture(t)
	ctx := f.syndicCtx()

	// The guard also rents in another residence, so only the membership goes.
	elsewhere, err := residencemodels.NewResidence(id.NewResidenceID(), "Dar Salam", "8 Rue Atlas", "Marrakech", f.syndic.ID, seedTime)
	require.NoError(t, err)
	require.NoError(t, f.residences.Create(context.Background(), elsewhere))

	guard := f.seedAccount(t, "Hassan Guard", "guard@example.com", "+212600333444", accountmodels.RoleGuard)
	f.seedMembership(t, guard.ID, f.residence.ID, residencemodels.GuardApartment)
	f.seedMembership(t, guard.ID, elsewhere.ID, "3")
	f.residence.GuardID = &guard.ID
	require.NoError(t, f.residences.Update(context.Background(), f.residence))

	result, err := f.service.RemoveResident(ctx, guard.ID, f.residence.ID)
	require.NoError(t, err)
	assert.False(t, result.AccountDeleted)
	assert.True(t, result.MembershipRemoved)

	// The slot opens up for a replacement even though the account survives.
	updated, err := f.residences.FindByID(context.Background(), f.residence.ID)
	require.NoError(t, err)
	assert.Nil(t, updated.GuardID)
	_, err = f.accounts.FindByID(context.Background(), guard.ID)
	require.NoError(t, err)
}

func TestRemoveResidentForbiddenForNonSyndic(t *testing.T) {
	f := newFixture(t)

	resident := f.seedAccount(t, "Karim Bennis", "karim@example.com", "+212600222333", accountmodels.RoleResident)
	f.seedMembership(t, resident.ID, f.residence.ID, "5")

	ctx := requestcontext.WithActorID(context.Background(), resident.ID)
	_, err := f.service.RemoveResident(ctx, resident.ID, f.residence.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestDeleteAccountRejectsManagingSyndic(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.DeleteAccount(context.Background(), f.syndic.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	_, err = f.accounts.FindByID(context.Background(), f.syndic.ID)
	require.NoError(t, err)
}

func TestDeleteAccountUnknown(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.DeleteAccount(context.Background(), id.NewAccountID())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestBulkRemoveReportsPerRow(t *testing.T) {
	f := newFixture(t)
	ctx := f.syndicCtx()

	first := f.seedAccount(t, "Karim Bennis", "karim@example.com", "+212600222333", accountmodels.RoleResident)
	f.seedMembership(t, first.ID, f.residence.ID, "5")
	missing := id.NewAccountID()
	second := f.seedAccount(t, "Nadia Alaoui", "nadia@example.com", "+212600555666", accountmodels.RoleResident)
	f.seedMembership(t, second.ID, f.residence.ID, "6")

	results := f.service.BulkRemoveResidents(ctx, []id.AccountID{first.ID, missing, second.ID}, f.residence.ID)
	require.Len(t, results, 3)

	assert.True(t, results[0].Success)
	assert.Equal(t, 0, results[0].Index)
	assert.False(t, results[1].Success)
	assert.Equal(t, "account not found", results[1].Error)
	assert.True(t, results[2].Success)
	assert.Equal(t, 2, results[2].Index)
}
