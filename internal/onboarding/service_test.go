package onboarding

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accountmodels "residora/internal/account/models"
	"residora/internal/account/otp"
	accountstore "residora/internal/account/store"
	"residora/internal/notification"
	residencemodels "residora/internal/residence/models"
	residencestore "residora/internal/residence/store"
	id "residora/pkg/domain"
	dErrors "residora/pkg/domain-errors"
	"residora/pkg/requestcontext"
)

type fixture struct {
	service     *Service
	accounts    *accountstore.InMemoryStore
	residences  *residencestore.InMemoryResidenceStore
	memberships *residencestore.InMemoryMembershipStore
	sender      *notification.Recorder

	residence *residencemodels.Residence
	syndic    *accountmodels.Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		accounts:    accountstore.NewInMemoryStore(),
		residences:  residencestore.NewInMemoryResidenceStore(),
		memberships: residencestore.NewInMemoryMembershipStore(),
		sender:      &notification.Recorder{},
	}
	issuer := otp.NewIssuer(otp.NewInMemoryStore(), 15*time.Minute)
	f.service = NewService(f.accounts, f.residences, f.memberships, issuer, WithSender(f.sender))

	now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	syndic, err := accountmodels.NewAccount(id.NewAccountID(), "Salma Idrissi", "syndic@example.com", "+212600000099", accountmodels.RoleSyndic, now)
	require.NoError(t, err)
	require.NoError(t, f.accounts.Create(context.Background(), syndic))
	f.syndic = syndic

	residence, err := residencemodels.NewResidence(id.NewResidenceID(), "Les Oliviers", "12 Rue des Fleurs", "Casablanca", syndic.ID, now)
	require.NoError(t, err)
	require.NoError(t, f.residences.Create(context.Background(), residence))
	f.residence = residence
	return f
}

func (f *fixture) ctx() context.Context {
	return requestcontext.WithActorID(context.Background(), f.syndic.ID)
}

func (f *fixture) input(email, apartment string, role accountmodels.Role) AddResidentInput {
	return AddResidentInput{
		ResidenceID: f.residence.ID,
		FullName:    "Nadia Alaoui",
		Email:       email,
		Phone:       "+212600111222",
		Apartment:   apartment,
		Role:        role,
	}
}

func TestAddResidentCreatesAccountAndSendsCode(t *testing.T) {
	f := newFixture(t)

	result, err := f.service.AddResident(f.ctx(), f.input("nadia@example.com", "5", accountmodels.RoleResident))
	require.NoError(t, err)

	assert.Equal(t, "nadia@example.com", result.Account.Email)
	assert.Equal(t, accountmodels.RoleResident, result.Account.Role)
	assert.False(t, result.Membership.Verified, "membership starts unverified until the code is redeemed")
	assert.True(t, result.CodeSent)

	sent := f.sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "nadia@example.com", sent[0].To)
	assert.Contains(t, sent[0].Subject, "verification code")
}

func TestAddResidentSelfAddAutoVerifies(t *testing.T) {
	f := newFixture(t)

	result, err := f.service.AddResident(f.ctx(), f.input("syndic@example.com", "1", accountmodels.RoleResident))
	require.NoError(t, err)

	assert.Equal(t, f.syndic.ID, result.Account.ID, "reuses the acting syndic's account")
	assert.True(t, result.Membership.Verified)
	assert.False(t, result.CodeSent)
	assert.Empty(t, f.sender.Sent(), "no code email for a self-add")
}

func TestAddResidentPreservesSyndicRole(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	otherSyndic, err := accountmodels.NewAccount(id.NewAccountID(), "Karim Tazi", "karim@example.com", "+212600222333", accountmodels.RoleSyndic, now)
	require.NoError(t, err)
	require.NoError(t, f.accounts.Create(context.Background(), otherSyndic))

	result, err := f.service.AddResident(f.ctx(), f.input("karim@example.com", "9", accountmodels.RoleResident))
	require.NoError(t, err)

	assert.Equal(t, otherSyndic.ID, result.Account.ID)
	assert.Equal(t, accountmodels.RoleSyndic, result.Account.Role, "a manager elsewhere remains a manager")
}

func TestAddResidentMembershipOnlyWhenAccountLivesElsewhere(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	existing, err := accountmodels.NewAccount(id.NewAccountID(), "Original Name", "moved@example.com", "+212600444555", accountmodels.RoleResident, now)
	require.NoError(t, err)
	require.NoError(t, f.accounts.Create(context.Background(), existing))
	elsewhere, err := residencemodels.NewMembership(id.NewMembershipID(), existing.ID, id.NewResidenceID(), "3", true, now)
	require.NoError(t, err)
	require.NoError(t, f.memberships.Create(context.Background(), elsewhere))

	input := f.input("moved@example.com", "5", accountmodels.RoleResident)
	input.FullName = "Different Name"
	result, err := f.service.AddResident(f.ctx(), input)
	require.NoError(t, err)

	stored, err := f.accounts.FindByID(context.Background(), existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Original Name", stored.FullName, "profile fields owned by another manager are untouched")
	assert.Equal(t, f.residence.ID, result.Membership.ResidenceID)
}

func TestAddResidentApartmentZeroGuardOnly(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.AddResident(f.ctx(), f.input("nadia@example.com", "0", accountmodels.RoleResident))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	assert.Contains(t, dErrors.MessageOf(err), "apartment 0")
}

func TestAddResidentGuardExclusivity(t *testing.T) {
	f := newFixture(t)

	first, err := f.service.AddResident(f.ctx(), f.input("guard@example.com", "", accountmodels.RoleGuard))
	require.NoError(t, err)
	assert.Equal(t, residencemodels.GuardApartment, first.Membership.Apartment)

	stored, err := f.residences.FindByID(context.Background(), f.residence.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.GuardID)
	assert.Equal(t, first.Account.ID, *stored.GuardID)

	_, err = f.service.AddResident(f.ctx(), f.input("guard2@example.com", "", accountmodels.RoleGuard))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	assert.Contains(t, dErrors.MessageOf(err), "already has a guard")
}

func TestAddResidentSecondApartment(t *testing.T) {
	f := newFixture(t)

	first, err := f.service.AddResident(f.ctx(), f.input("nadia@example.com", "5", accountmodels.RoleResident))
	require.NoError(t, err)

	second, err := f.service.AddResident(f.ctx(), f.input("nadia@example.com", "6", accountmodels.RoleResident))
	require.NoError(t, err, "one account may rent several apartments in a residence")
	assert.Equal(t, first.Account.ID, second.Account.ID)

	held, err := f.memberships.ListByAccountAndResidence(context.Background(), first.Account.ID, f.residence.ID)
	require.NoError(t, err)
	require.Len(t, held, 2)
}

func TestAddResidentDuplicateApartment(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.AddResident(f.ctx(), f.input("nadia@example.com", "5", accountmodels.RoleResident))
	require.NoError(t, err)

	_, err = f.service.AddResident(f.ctx(), f.input("nadia@example.com", "5", accountmodels.RoleResident))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	assert.Contains(t, dErrors.MessageOf(err), "already occupies")
}

func TestAddResidentOccupiedApartment(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.AddResident(f.ctx(), f.input("first@example.com", "5", accountmodels.RoleResident))
	require.NoError(t, err)

	_, err = f.service.AddResident(f.ctx(), f.input("second@example.com", "5", accountmodels.RoleResident))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	assert.Contains(t, dErrors.MessageOf(err), "already reserved")
}

func TestAddResidentForbiddenForNonSyndic(t *testing.T) {
	f := newFixture(t)
	ctx := requestcontext.WithActorID(context.Background(), id.NewAccountID())

	_, err := f.service.AddResident(ctx, f.input("nadia@example.com", "5", accountmodels.RoleResident))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestVerifyCodeFlow(t *testing.T) {
	f := newFixture(t)

	result, err := f.service.AddResident(f.ctx(), f.input("nadia@example.com", "5", accountmodels.RoleResident))
	require.NoError(t, err)

	sent := f.sender.Sent()
	require.Len(t, sent, 1)
	code := extractCode(t, sent[0].TextBody)

	t.Run("wrong code rejected", func(t *testing.T) {
		wrong := "000000"
		if wrong == code {
			wrong = "000001"
		}
		err := f.service.VerifyCode(context.Background(), result.Account.ID, wrong)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("correct code verifies membership and email", func(t *testing.T) {
		require.NoError(t, f.service.VerifyCode(context.Background(), result.Account.ID, code))

		account, err := f.accounts.FindByID(context.Background(), result.Account.ID)
		require.NoError(t, err)
		assert.True(t, account.EmailVerified)

		membership, err := f.memberships.FindByID(context.Background(), result.Membership.ID)
		require.NoError(t, err)
		assert.True(t, membership.Verified)
	})

	t.Run("code is single use", func(t *testing.T) {
		err := f.service.VerifyCode(context.Background(), result.Account.ID, code)
		require.Error(t, err)
		assert.Contains(t, dErrors.MessageOf(err), "expired")
	})
}

func TestBulkAddResidentsPartialFailure(t *testing.T) {
	f := newFixture(t)

	inputs := []AddResidentInput{
		f.input("ok1@example.com", "5", accountmodels.RoleResident),
		f.input("clash@example.com", "5", accountmodels.RoleResident),
		f.input("ok2@example.com", "6", accountmodels.RoleResident),
	}
	results := f.service.BulkAddResidents(f.ctx(), inputs)

	require.Len(t, results, len(inputs), "one result per input row")
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Contains(t, results[1].Error, "already reserved")
	assert.True(t, results[2].Success, "a failed row does not abort later rows")

	for i, r := range results {
		assert.Equal(t, i, r.Index)
	}
}

// extractCode pulls the 6-digit code out of the onboarding email body.
func extractCode(t *testing.T, body string) string {
	t.Helper()
	for _, word := range strings.Fields(body) {
		if len(word) == 6 && strings.Trim(word, "0123456789") == "" {
			return word
		}
	}
	t.Fatalf("no code found in email body: %q", body)
	return ""
}
