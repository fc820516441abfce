package review

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accountmodels "residora/internal/account/models"
	accountstore "residora/internal/account/store"
	residencemodels "residora/internal/residence/models"
	residencestore "residora/internal/residence/store"
	"residora/internal/review/models"
	reviewstore "residora/internal/review/store"
	"residora/internal/storage/objects"
	id "residora/pkg/domain"
	dErrors "residora/pkg/domain-errors"
	"residora/pkg/requestcontext"
)

type fixture struct {
	service     *Service
	submissions *reviewstore.InMemoryStore
	residences  *residencestore.InMemoryResidenceStore
	accounts    *accountstore.InMemoryStore
	objects     *objects.InMemoryStore

	submitter *accountmodels.Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		submissions: reviewstore.NewInMemoryStore(),
		residences:  residencestore.NewInMemoryResidenceStore(),
		accounts:    accountstore.NewInMemoryStore(),
		objects:     objects.NewInMemoryStore(),
	}
	f.service = NewService(f.submissions, f.residences, f.accounts, f.objects)

	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	submitter, err := accountmodels.NewAccount(id.NewAccountID(), "Karim Tazi", "karim@example.com", "+212600222333", accountmodels.RoleResident, now)
	require.NoError(t, err)
	require.NoError(t, f.accounts.Create(context.Background(), submitter))
	f.submitter = submitter
	return f
}

func (f *fixture) ctx() context.Context {
	return requestcontext.WithActorID(context.Background(), f.submitter.ID)
}

func (f *fixture) file(t *testing.T) *models.Submission {
	t.Helper()
	submission, err := f.service.Submit(f.ctx(), []Document{
		{Name: "id-card.pdf", ContentType: "application/pdf", Data: []byte("doc")},
	})
	require.NoError(t, err)
	return submission
}

func newResidenceInput() ApproveInput {
	return ApproveInput{NewResidence: &NewResidenceInput{
		Name:    "Les Oliviers",
		Address: "12 Rue des Fleurs",
		City:    "Casablanca",
	}}
}

func TestSubmitStoresAttachments(t *testing.T) {
	f := newFixture(t)
	submission := f.file(t)

	assert.Equal(t, models.StatusPending, submission.Status)
	require.Len(t, submission.Attachments, 1)
	assert.Equal(t, 1, f.objects.Len())
}

func TestApproveWithNewResidence(t *testing.T) {
	f := newFixture(t)
	submission := f.file(t)

	approved, err := f.service.Approve(f.ctx(), submission.ID, newResidenceInput())
	require.NoError(t, err)

	assert.Equal(t, models.StatusApproved, approved.Status)
	require.NotNil(t, approved.ResidenceID)

	residence, err := f.residences.FindByID(context.Background(), *approved.ResidenceID)
	require.NoError(t, err)
	assert.Equal(t, f.submitter.ID, residence.SyndicID)

	account, err := f.accounts.FindByID(context.Background(), f.submitter.ID)
	require.NoError(t, err)
	assert.Equal(t, accountmodels.RoleSyndic, account.Role, "approval promotes the submitter")
}

func TestApproveWithExistingResidence(t *testing.T) {
	f := newFixture(t)
	submission := f.file(t)

	now := time.Now()
	residence, err := residencemodels.NewResidence(id.NewResidenceID(), "Existing", "1 Main St", "Rabat", f.submitter.ID, now)
	require.NoError(t, err)
	require.NoError(t, f.residences.Create(context.Background(), residence))

	approved, err := f.service.Approve(f.ctx(), submission.ID, ApproveInput{ExistingResidenceID: &residence.ID})
	require.NoError(t, err)
	require.NotNil(t, approved.ResidenceID)
	assert.Equal(t, residence.ID, *approved.ResidenceID)
}

func TestApproveRejectsForeignResidence(t *testing.T) {
	f := newFixture(t)
	submission := f.file(t)

	now := time.Now()
	other, err := residencemodels.NewResidence(id.NewResidenceID(), "Other", "2 Main St", "Rabat", id.NewAccountID(), now)
	require.NoError(t, err)
	require.NoError(t, f.residences.Create(context.Background(), other))

	_, err = f.service.Approve(f.ctx(), submission.ID, ApproveInput{ExistingResidenceID: &other.ID})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestApproveRequiresExactlyOneDestination(t *testing.T) {
	f := newFixture(t)
	submission := f.file(t)

	_, err := f.service.Approve(f.ctx(), submission.ID, ApproveInput{})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestApproveRequiresPendingState(t *testing.T) {
	f := newFixture(t)
	submission := f.file(t)

	_, err := f.service.Approve(f.ctx(), submission.ID, newResidenceInput())
	require.NoError(t, err)

	_, err = f.service.Approve(f.ctx(), submission.ID, newResidenceInput())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestRejectRequiresReasonBeforeMutation(t *testing.T) {
	f := newFixture(t)
	submission := f.file(t)

	_, err := f.service.Reject(f.ctx(), submission.ID, "   ")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	stored, err := f.submissions.FindByID(context.Background(), submission.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status, "validation failure leaves state untouched")

	rejected, err := f.service.Reject(f.ctx(), submission.ID, "blurry id document")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)
	assert.Equal(t, "blurry id document", rejected.RejectionReason)
}

func TestResetIsIdempotent(t *testing.T) {
	f := newFixture(t)
	submission := f.file(t)

	_, err := f.service.Approve(f.ctx(), submission.ID, newResidenceInput())
	require.NoError(t, err)

	first, err := f.service.Reset(f.ctx(), submission.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, first.Status)
	assert.Nil(t, first.ResidenceID, "reset unwinds the residence association")

	second, err := f.service.Reset(f.ctx(), submission.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, second.Status)
	assert.Nil(t, second.ResidenceID)
	assert.Empty(t, second.RejectionReason)
}

func TestResetKeepsResidenceRow(t *testing.T) {
	f := newFixture(t)
	submission := f.file(t)

	approved, err := f.service.Approve(f.ctx(), submission.ID, newResidenceInput())
	require.NoError(t, err)
	residenceID := *approved.ResidenceID

	_, err = f.service.Reset(f.ctx(), submission.ID)
	require.NoError(t, err)

	_, err = f.residences.FindByID(context.Background(), residenceID)
	assert.NoError(t, err, "reset clears the link, not the residence itself")
}
