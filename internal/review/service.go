// Package review implements the document review state machine: submissions
// move between pending, approved and rejected, and approval provisions the
// residence the submitting syndic will manage.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	accountmodels "residora/internal/account/models"
	accountstore "residora/internal/account/store"
	residencemodels "residora/internal/residence/models"
	residencestore "residora/internal/residence/store"
	"residora/internal/review/models"
	reviewstore "residora/internal/review/store"
	"residora/internal/storage/objects"
	id "residora/pkg/domain"
	dErrors "residora/pkg/domain-errors"
	"residora/pkg/platform/audit"
	"residora/pkg/platform/sentinel"
	"residora/pkg/requestcontext"
)

// Service coordinates submission review transitions.
type Service struct {
	submissions reviewstore.SubmissionStore
	residences  residencestore.ResidenceStore
	accounts    accountstore.AccountStore
	objects     objects.Store
	logger      *slog.Logger
	audit       audit.Publisher
}

// Option configures optional service collaborators.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) { s.audit = publisher }
}

func NewService(
	submissions reviewstore.SubmissionStore,
	residences residencestore.ResidenceStore,
	accounts accountstore.AccountStore,
	objectStore objects.Store,
	opts ...Option,
) *Service {
	s := &Service{
		submissions: submissions,
		residences:  residences,
		accounts:    accounts,
		objects:     objectStore,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Document is one uploaded attachment.
type Document struct {
	Name        string
	ContentType string
	Data        []byte
}

// Submit files a new pending submission for the acting account, uploading
// each attachment to object storage and keeping only the keys.
func (s *Service) Submit(ctx context.Context, docs []Document) (*models.Submission, error) {
	actorID := requestcontext.ActorID(ctx)
	if actorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if len(docs) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one document is required")
	}

	now := requestcontext.Now(ctx)
	submissionID := id.NewSubmissionID()
	keys := make([]string, 0, len(docs))
	for i, doc := range docs {
		key := fmt.Sprintf("submissions/%s/%d-%s", submissionID.String(), i, sanitizeName(doc.Name))
		if _, err := s.objects.Put(ctx, key, doc.Data, doc.ContentType); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "uploading document")
		}
		keys = append(keys, key)
	}

	submission, err := models.NewSubmission(submissionID, actorID, keys, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid submission")
	}
	if err := s.submissions.Create(ctx, submission); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "storing submission")
	}

	s.publishAudit(ctx, audit.EventSubmissionCreated, audit.Event{
		AccountID: actorID,
		Subject:   submission.ID.String(),
	})
	return submission, nil
}

// NewResidenceInput are the fields for a residence provisioned at approval.
type NewResidenceInput struct {
	Name        string
	Address     string
	City        string
	BankAccount string
}

// ApproveInput selects the destination residence: exactly one of an existing
// residence already managed by the submitter, or fields for a new one.
type ApproveInput struct {
	ExistingResidenceID *id.ResidenceID
	NewResidence        *NewResidenceInput
}

// Approve moves a pending submission to approved, creating or re-linking the
// residence and promoting the submitter to syndic.
func (s *Service) Approve(ctx context.Context, submissionID id.SubmissionID, input ApproveInput) (*models.Submission, error) {
	if (input.ExistingResidenceID == nil) == (input.NewResidence == nil) {
		return nil, dErrors.New(dErrors.CodeValidation, "approval requires either an existing residence or new residence fields")
	}

	submission, err := s.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if !submission.CanTransition(models.StatusApproved) {
		return nil, dErrors.Newf(dErrors.CodeConflict, "submission is %s, only pending submissions can be approved", submission.Status)
	}

	now := requestcontext.Now(ctx)
	var residence *residencemodels.Residence
	created := false
	if input.ExistingResidenceID != nil {
		residence, err = s.residences.FindByID(ctx, *input.ExistingResidenceID)
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "residence not found")
		}
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "loading residence")
		}
		if residence.SyndicID != submission.SyndicID {
			return nil, dErrors.New(dErrors.CodeForbidden, "residence is managed by another syndic")
		}
	} else {
		residence, err = residencemodels.NewResidence(id.NewResidenceID(),
			input.NewResidence.Name, input.NewResidence.Address, input.NewResidence.City,
			submission.SyndicID, now)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid residence fields")
		}
		residence.BankAccount = strings.TrimSpace(input.NewResidence.BankAccount)
		if err := s.residences.Create(ctx, residence); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "creating residence")
		}
		created = true
	}

	submitter, err := s.accounts.FindByID(ctx, submission.SyndicID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "loading submitter")
	}
	if promoted := accountmodels.ResolveRole(submitter.Role, accountmodels.RoleSyndic); promoted != submitter.Role {
		submitter.Role = promoted
		submitter.UpdatedAt = now
		if err := s.accounts.Update(ctx, submitter); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "promoting submitter")
		}
	}

	residenceID := residence.ID
	submission.Status = models.StatusApproved
	submission.ResidenceID = &residenceID
	submission.RejectionReason = ""
	submission.UpdatedAt = now
	if err := s.submissions.Update(ctx, submission); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "updating submission")
	}

	if created {
		s.publishAudit(ctx, audit.EventResidenceCreated, audit.Event{
			AccountID:   submission.SyndicID,
			ResidenceID: residence.ID.String(),
		})
	}
	s.publishAudit(ctx, audit.EventSubmissionApproved, audit.Event{
		AccountID:   submission.SyndicID,
		ResidenceID: residence.ID.String(),
		Subject:     submission.ID.String(),
	})
	return submission, nil
}

// Reject moves a pending submission to rejected. The reason is validated
// before any state is touched.
func (s *Service) Reject(ctx context.Context, submissionID id.SubmissionID, reason string) (*models.Submission, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "a rejection reason is required")
	}

	submission, err := s.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if !submission.CanTransition(models.StatusRejected) {
		return nil, dErrors.Newf(dErrors.CodeConflict, "submission is %s, only pending submissions can be rejected", submission.Status)
	}

	submission.Status = models.StatusRejected
	submission.RejectionReason = reason
	submission.UpdatedAt = requestcontext.Now(ctx)
	if err := s.submissions.Update(ctx, submission); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "updating submission")
	}

	s.publishAudit(ctx, audit.EventSubmissionRejected, audit.Event{
		AccountID: submission.SyndicID,
		Subject:   submission.ID.String(),
		Reason:    reason,
	})
	return submission, nil
}

// Reset returns a submission to pending from any state, clearing the
// residence association and any rejection reason. It unwinds the link, not
// the residence row itself, and is idempotent: resetting an already-pending
// submission is a no-op with the same outcome.
func (s *Service) Reset(ctx context.Context, submissionID id.SubmissionID) (*models.Submission, error) {
	submission, err := s.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	submission.Status = models.StatusPending
	submission.ResidenceID = nil
	submission.RejectionReason = ""
	submission.UpdatedAt = requestcontext.Now(ctx)
	if err := s.submissions.Update(ctx, submission); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "updating submission")
	}

	s.publishAudit(ctx, audit.EventSubmissionReset, audit.Event{
		AccountID: submission.SyndicID,
		Subject:   submission.ID.String(),
	})
	return submission, nil
}

// Get returns one submission.
func (s *Service) Get(ctx context.Context, submissionID id.SubmissionID) (*models.Submission, error) {
	return s.load(ctx, submissionID)
}

// List returns submissions filtered by status; an empty status means all.
func (s *Service) List(ctx context.Context, status models.Status) ([]*models.Submission, error) {
	submissions, err := s.submissions.ListByStatus(ctx, status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "listing submissions")
	}
	return submissions, nil
}

func (s *Service) load(ctx context.Context, submissionID id.SubmissionID) (*models.Submission, error) {
	submission, err := s.submissions.FindByID(ctx, submissionID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "submission not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "loading submission")
	}
	return submission, nil
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

func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "document"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '-'
		}
	}, name)
}
