// Package deletion implements the account removal cascade. Guardrails run
// before any write: a syndic still managing residences, or an account with
// memberships elsewhere, only loses the current-residence membership. The
// full cascade then walks dependent tables leaves-first so no step orphans a
// row a later step needs to find.
package deletion

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	accountstore "residora/internal/account/store"
	communitystore "residora/internal/community/store"
	ledgerstore "residora/internal/ledger/store"
	registrationstore "residora/internal/registration/store"
	residencemodels "residora/internal/residence/models"
	residencestore "residora/internal/residence/store"
	reviewstore "residora/internal/review/store"
	"residora/internal/storage/objects"
	id "residora/pkg/domain"
	dErrors "residora/pkg/domain-errors"
	"residora/pkg/platform/audit"
	"residora/pkg/platform/sentinel"
	"residora/pkg/requestcontext"
)

// Billing is the slice of the billing service the cascade needs.
type Billing interface {
	RemoveCustomer(ctx context.Context, accountID id.AccountID) error
}

// Result reports what a deletion request actually did.
type Result struct {
	AccountDeleted    bool            `json:"account_deleted"`
	MembershipRemoved bool            `json:"membership_removed"`
	ResidenceID       *id.ResidenceID `json:"residence_id,omitempty"`
}

// Service orchestrates membership removal and the full account cascade.
type Service struct {
	accounts      accountstore.AccountStore
	residences    residencestore.ResidenceStore
	memberships   residencestore.MembershipStore
	registrations registrationstore.RequestStore
	submissions   reviewstore.SubmissionStore
	community     communitystore.Store
	ledger        ledgerstore.Store
	objects       objects.Store
	billing       Billing

	logger *slog.Logger
	audit  audit.Publisher
	tracer trace.Tracer
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
	accounts accountstore.AccountStore,
	residences residencestore.ResidenceStore,
	memberships residencestore.MembershipStore,
	registrations registrationstore.RequestStore,
	submissions reviewstore.SubmissionStore,
	community communitystore.Store,
	ledger ledgerstore.Store,
	objectStore objects.Store,
	billing Billing,
	opts ...Option,
) *Service {
	s := &Service{
		accounts:      accounts,
		residences:    residences,
		memberships:   memberships,
		registrations: registrations,
		submissions:   submissions,
		community:     community,
		ledger:        ledger,
		objects:       objectStore,
		billing:       billing,
		logger:        slog.Default(),
		tracer:        otel.Tracer("deletion.service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RemoveResident removes an account from a residence, escalating to the full
// cascade when no guardrail holds the account back. Called by a syndic for
// their own residence.
func (s *Service) RemoveResident(ctx context.Context, accountID id.AccountID, residenceID id.ResidenceID) (*Result, error) {
	residence, err := s.residences.FindByID(ctx, residenceID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "residence not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "loading residence")
	}
	actor := requestcontext.ActorID(ctx)
	if actor != residence.SyndicID {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the residence syndic can remove residents")
	}

	account, err := s.loadAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	keep, err := s.mustKeepAccount(ctx, accountID, residenceID)
	if err != nil {
		return nil, err
	}
	if keep {
		return s.removeMembership(ctx, account, residence)
	}
	return s.cascade(ctx, account)
}

// DeleteAccount is the admin entry point. There is no current-residence
// context here, so the only guardrail that applies is the managed-residence
// one: a syndic must hand over their residences before the account can go.
// Memberships are plain child rows on this path and fall in step 2.
func (s *Service) DeleteAccount(ctx context.Context, accountID id.AccountID) (*Result, error) {
	account, err := s.loadAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	managed, err := s.residences.ListBySyndic(ctx, accountID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "listing managed residences")
	}
	if len(managed) > 0 {
		return nil, dErrors.New(dErrors.CodeConflict, "account still manages a residence")
	}
	return s.cascade(ctx, account)
}

// BulkItemResult is the per-row outcome of a bulk removal. Rows are processed
// strictly sequentially and failures never abort the batch.
type BulkItemResult struct {
	Index     int     `json:"index"`
	AccountID string  `json:"account_id"`
	Success   bool    `json:"success"`
	Error     string  `json:"error,omitempty"`
	Result    *Result `json:"result,omitempty"`
}

// BulkRemoveResidents removes each account in order and reports one result
// per input row, successes and failures interleaved in input order.
func (s *Service) BulkRemoveResidents(ctx context.Context, accountIDs []id.AccountID, residenceID id.ResidenceID) []BulkItemResult {
	results := make([]BulkItemResult, 0, len(accountIDs))
	for i, accountID := range accountIDs {
		item := BulkItemResult{Index: i, AccountID: accountID.String()}
		result, err := s.RemoveResident(ctx, accountID, residenceID)
		if err != nil {
			item.Error = dErrors.MessageOf(err)
			if item.Error == "" {
				item.Error = "removal failed"
			}
		} else {
			item.Success = true
			item.Result = result
		}
		results = append(results, item)
	}
	return results
}

func (s *Service) loadAccount(ctx context.Context, accountID id.AccountID) (*account, error) {
	acc, err := s.accounts.FindByID(ctx, accountID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "loading account")
	}
	return &account{ID: acc.ID, Email: acc.Email}, nil
}

// account is the slice of the profile the cascade works from. The email is
// captured up front because credential rows are keyed by it and the profile
// row is gone by the time they are deleted.
type account struct {
	ID    id.AccountID
	Email string
}

// mustKeepAccount evaluates the guardrails. True means only the membership in
// the current residence may be removed.
func (s *Service) mustKeepAccount(ctx context.Context, accountID id.AccountID, current id.ResidenceID) (bool, error) {
	managed, err := s.residences.ListBySyndic(ctx, accountID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "listing managed residences")
	}
	if len(managed) > 0 {
		return true, nil
	}

	all, err := s.memberships.ListByAccount(ctx, accountID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "listing memberships")
	}
	for _, m := range all {
		if m.ResidenceID != current {
			return true, nil
		}
	}
	return false, nil
}

// removeMembership takes the account out of one residence: every membership
// row there is deleted (an account may hold several apartments) and a
// departing guard releases the residence's guard slot so a replacement can be
// assigned.
func (s *Service) removeMembership(ctx context.Context, acc *account, residence *residencemodels.Residence) (*Result, error) {
	memberships, err := s.memberships.ListByAccountAndResidence(ctx, acc.ID, residence.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "listing memberships")
	}
	if len(memberships) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "account is not a member of this residence")
	}
	for _, membership := range memberships {
		if err := s.memberships.Delete(ctx, membership.ID); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "deleting membership")
		}
	}
	if residence.GuardID != nil && *residence.GuardID == acc.ID {
		residence.GuardID = nil
		residence.UpdatedAt = requestcontext.Now(ctx)
		if err := s.residences.Update(ctx, residence); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "releasing guard slot")
		}
	}

	s.publishAudit(ctx, audit.EventMembershipRemoved, audit.Event{
		AccountID:   acc.ID,
		ResidenceID: residence.ID.String(),
	})
	rid := residence.ID
	return &Result{MembershipRemoved: true, ResidenceID: &rid}, nil
}

// cascade walks the dependent tables leaves-first. Steps are sequential and
// not transactional; the ordering keeps any partial failure recoverable by
// rerunning the whole cascade.
func (s *Service) cascade(ctx context.Context, acc *account) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "deletion.cascade",
		trace.WithAttributes(attribute.String("account_id", acc.ID.String())))
	defer span.End()

	// Sole-owner child rows.
	if err := s.memberships.DeleteByAccount(ctx, acc.ID); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "deleting memberships")
	}
	if err := s.community.DeleteNotificationsByAccount(ctx, acc.ID); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "deleting notifications")
	}
	if err := s.community.DeleteVotesByAccount(ctx, acc.ID); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "deleting votes")
	}

	// Actor references survive without the account.
	if err := s.residences.ClearGuard(ctx, acc.ID); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "clearing guard references")
	}
	if err := s.ledger.NullifyExpenseRecorder(ctx, acc.ID); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "nullifying expense recorder")
	}
	if err := s.community.NullifyIncidentResolver(ctx, acc.ID); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "nullifying incident resolver")
	}

	// Rows that require the account.
	if err := s.ledger.DeletePaymentsByAccount(ctx, acc.ID); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "deleting payments")
	}
	if err := s.ledger.DeleteFeesByAccount(ctx, acc.ID); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "deleting fees")
	}
	if err := s.community.DeleteIncidentsByReporter(ctx, acc.ID); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "deleting incident reports")
	}
	if err := s.community.DeleteAccessLogsByAccount(ctx, acc.ID); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "deleting access logs")
	}
	if err := s.registrations.DeleteByEmail(ctx, acc.Email); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "deleting registration requests")
	}

	// Uploaded documents, then the submissions referencing them.
	if err := s.deleteSubmissionFiles(ctx, acc.ID); err != nil {
		return nil, err
	}
	if err := s.submissions.DeleteBySyndic(ctx, acc.ID); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "deleting submissions")
	}

	// Provider customer and mapping.
	if err := s.billing.RemoveCustomer(ctx, acc.ID); err != nil {
		return nil, err
	}

	// Profile last; credentials are keyed by the email captured up front.
	if err := s.accounts.Delete(ctx, acc.ID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "deleting account")
	}
	if err := s.accounts.DeleteCredentialsByEmail(ctx, acc.Email); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "deleting credentials")
	}
	if err := s.accounts.DeleteSessionsByAccount(ctx, acc.ID); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "deleting sessions")
	}

	s.publishAudit(ctx, audit.EventAccountDeleted, audit.Event{
		AccountID: acc.ID,
		Email:     acc.Email,
	})
	s.logger.InfoContext(ctx, "account deleted",
		"account_id", acc.ID.String(), "request_id", requestcontext.RequestID(ctx))
	return &Result{AccountDeleted: true}, nil
}

func (s *Service) deleteSubmissionFiles(ctx context.Context, accountID id.AccountID) error {
	submissions, err := s.submissions.ListBySyndic(ctx, accountID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "listing submissions")
	}
	for _, submission := range submissions {
		for _, key := range submission.Attachments {
			err := s.objects.Delete(ctx, key)
			if err == nil || errors.Is(err, sentinel.ErrNotFound) {
				continue
			}
			// Storage hiccups must not leave the rest of the cascade undone.
			s.logger.WarnContext(ctx, "document delete failed",
				"key", key, "account_id", accountID.String(), "error", err)
		}
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
