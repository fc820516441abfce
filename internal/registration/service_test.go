package registration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accountmodels "residora/internal/account/models"
	accountstore "residora/internal/account/store"
	"residora/internal/notification"
	registrationstore "residora/internal/registration/store"
	residencemodels "residora/internal/residence/models"
	residencestore "residora/internal/residence/store"
	id "residora/pkg/domain"
	dErrors "residora/pkg/domain-errors"
	"residora/pkg/platform/audit"
	"residora/pkg/requestcontext"
)

type fixture struct {
	service     *Service
	accounts    *accountstore.InMemoryStore
	residences  *residencestore.InMemoryResidenceStore
	memberships *residencestore.InMemoryMembershipStore
	requests    *registrationstore.InMemoryStore
	sender      *notification.Recorder
	auditLog    *audit.InMemoryStore

	residence *residencemodels.Residence
	syndic    *accountmodels.Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		accounts:    accountstore.NewInMemoryStore(),
		residences:  residencestore.NewInMemoryResidenceStore(),
		memberships: residencestore.NewInMemoryMembershipStore(),
		requests:    registrationstore.NewInMemoryStore(),
		sender:      &notification.Recorder{},
		auditLog:    audit.NewInMemoryStore(),
	}
	f.service = NewService(f.residences, f.accounts, f.memberships, f.requests,
		WithSender(f.sender),
		WithAuditPublisher(audit.NewStorePublisher(f.auditLog)),
	)

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

// seedMember creates an account plus a membership in the fixture residence.
func (f *fixture) seedMember(t *testing.T, email, phoneNumber, apartment string, verified bool) *accountmodels.Account {
	t.Helper()
	now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	account, err := accountmodels.NewAccount(id.NewAccountID(), "Existing Resident", email, phoneNumber, accountmodels.RoleResident, now)
	require.NoError(t, err)
	require.NoError(t, f.accounts.Create(context.Background(), account))
	membership, err := residencemodels.NewMembership(id.NewMembershipID(), account.ID, f.residence.ID, apartment, verified, now)
	require.NoError(t, err)
	require.NoError(t, f.memberships.Create(context.Background(), membership))
	return account
}

func (f *fixture) submitInput() SubmitInput {
	return SubmitInput{
		ResidenceID: f.residence.ID,
		FullName:    "Nadia Alaoui",
		Email:       "nadia@example.com",
		Phone:       "+212 600-111 222",
		Apartment:   "5",
	}
}

func TestSubmitCleanRequest(t *testing.T) {
	f := newFixture(t)
	ctx := requestcontext.WithClientMetadata(context.Background(), "203.0.113.9",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	created, violations, err := f.service.Submit(ctx, f.submitInput())
	require.NoError(t, err)
	require.Empty(t, violations)
	require.NotNil(t, created)

	assert.Equal(t, "nadia@example.com", created.Email)
	assert.Equal(t, "203.0.113.9", created.ClientIP)
	assert.Contains(t, created.Device, "Chrome")

	// Applicant confirmation plus syndic alert.
	sent := f.sender.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "nadia@example.com", sent[0].To)
	assert.Equal(t, "syndic@example.com", sent[1].To)
}

func TestSubmitAggregatesAllViolations(t *testing.T) {
	f := newFixture(t)
	f.seedMember(t, "nadia@example.com", "+212600111222", "5", true)

	_, violations, err := f.service.Submit(context.Background(), f.submitInput())
	require.NoError(t, err)
	require.Len(t, violations, 3, "email, phone and apartment all collide")

	fields := map[string]bool{}
	for _, v := range violations {
		fields[v.Field] = true
	}
	assert.True(t, fields["email"])
	assert.True(t, fields["phone_number"])
	assert.True(t, fields["apartment_number"])
}

func TestSubmitOccupiedApartmentMessage(t *testing.T) {
	f := newFixture(t)
	f.seedMember(t, "someone.else@example.com", "+212600999999", "5", true)

	_, violations, err := f.service.Submit(context.Background(), f.submitInput())
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0].Message, "already reserved")
}

func TestSubmitGuardApartmentRejected(t *testing.T) {
	f := newFixture(t)

	input := f.submitInput()
	input.Apartment = residencemodels.GuardApartment
	created, violations, err := f.service.Submit(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Nil(t, created)
	assert.Equal(t, "apartment_number", violations[0].Field)
	assert.Contains(t, violations[0].Message, "reserved for the building guard")

	// Nothing is recorded for a rejected candidate.
	pending, err := f.requests.HasPendingWithEmail(context.Background(), f.residence.ID, input.Email)
	require.NoError(t, err)
	assert.False(t, pending)
	assert.Empty(t, f.sender.Sent())
}

func TestSubmitCountsUnverifiedMembers(t *testing.T) {
	f := newFixture(t)
	f.seedMember(t, "pending@example.com", "+212600888888", "5", false)

	_, violations, err := f.service.Submit(context.Background(), f.submitInput())
	require.NoError(t, err)
	require.Len(t, violations, 1, "full registration counts unverified occupants")
}

func TestPrevalidateIgnoresUnverifiedMembers(t *testing.T) {
	f := newFixture(t)
	f.seedMember(t, "pending@example.com", "+212600888888", "5", false)

	violations, err := f.service.Prevalidate(context.Background(), CandidateInput{
		ResidenceID: f.residence.ID,
		Email:       "nadia@example.com",
		Phone:       "+212600111222",
		Apartment:   "5",
	})
	require.NoError(t, err)
	assert.Empty(t, violations, "pre-validation only sees verified occupants")
}

func TestSubmitDetectsPendingRequestCollisions(t *testing.T) {
	f := newFixture(t)
	_, violations, err := f.service.Submit(context.Background(), f.submitInput())
	require.NoError(t, err)
	require.Empty(t, violations)

	second := f.submitInput()
	second.Email = "other@example.com"
	second.Phone = "+212600333444"
	_, violations, err = f.service.Submit(context.Background(), second)
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, "apartment_number", violations[0].Field)
}

func TestSubmitPhoneNormalization(t *testing.T) {
	f := newFixture(t)
	f.seedMember(t, "other@example.com", "+212600111222", "7", true)

	input := f.submitInput()
	input.Phone = "(+212) 600 111-222"
	_, violations, err := f.service.Submit(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, "phone_number", violations[0].Field)
}

func TestSubmitUnknownResidence(t *testing.T) {
	f := newFixture(t)
	input := f.submitInput()
	input.ResidenceID = id.NewResidenceID()

	_, _, err := f.service.Submit(context.Background(), input)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestSubmitEmailFailureDoesNotFailRequest(t *testing.T) {
	f := newFixture(t)
	f.sender.Fail = assert.AnError

	created, violations, err := f.service.Submit(context.Background(), f.submitInput())
	require.NoError(t, err)
	require.Empty(t, violations)
	require.NotNil(t, created)
}

func TestSubmitEmitsAuditEvent(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.service.Submit(context.Background(), f.submitInput())
	require.NoError(t, err)

	events := f.auditLog.All()
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventRegistrationRequested), events[0].Action)
	assert.Equal(t, f.residence.ID.String(), events[0].ResidenceID)
}

func TestListRequiresManagingSyndic(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.service.Submit(context.Background(), f.submitInput())
	require.NoError(t, err)

	stranger := id.NewAccountID()
	_, err = f.service.List(requestcontext.WithActorID(context.Background(), stranger), f.residence.ID, "")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

	requests, err := f.service.List(requestcontext.WithActorID(context.Background(), f.syndic.ID), f.residence.ID, "")
	require.NoError(t, err)
	assert.Len(t, requests, 1)
}
