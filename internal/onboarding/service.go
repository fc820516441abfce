// Package onboarding creates or reuses accounts when a syndic adds residents
// and guards to a residence, issues one-time sign-in codes, and verifies
// memberships when codes are redeemed.
package onboarding

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	accountmodels "residora/internal/account/models"
	"residora/internal/account/otp"
	accountstore "residora/internal/account/store"
	"residora/internal/notification"
	residencemodels "residora/internal/residence/models"
	residencestore "residora/internal/residence/store"
	id "residora/pkg/domain"
	dErrors "residora/pkg/domain-errors"
	"residora/pkg/platform/audit"
	"residora/pkg/platform/sentinel"
	"residora/pkg/requestcontext"
)

// Service implements the resident onboarding workflow.
type Service struct {
	accounts    accountstore.AccountStore
	residences  residencestore.ResidenceStore
	memberships residencestore.MembershipStore
	otp         *otp.Issuer
	sender      notification.Sender
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

func WithSender(sender notification.Sender) Option {
	return func(s *Service) { s.sender = sender }
}

func NewService(
	accounts accountstore.AccountStore,
	residences residencestore.ResidenceStore,
	memberships residencestore.MembershipStore,
	issuer *otp.Issuer,
	opts ...Option,
) *Service {
	s := &Service{
		accounts:    accounts,
		residences:  residences,
		memberships: memberships,
		otp:         issuer,
		sender:      &notification.LogSender{Logger: slog.Default()},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddResidentInput are the fields for one onboarding attempt.
type AddResidentInput struct {
	ResidenceID id.ResidenceID
	FullName    string
	Email       string
	Phone       string
	Apartment   string
	Role        accountmodels.Role
}

// Result describes a completed onboarding.
type Result struct {
	Account    *accountmodels.Account      `json:"account"`
	Membership *residencemodels.Membership `json:"membership"`
	// CodeSent reports whether a one-time code was issued and emailed.
	// False for self-adds, which are auto-verified.
	CodeSent bool `json:"code_sent"`
}

// AddResident runs the onboarding policy for one candidate. Only the managing
// syndic may add members. There is no transaction around the multi-step
// write, so the account is always created before the membership: a failure
// leaves a reusable account rather than a dangling membership.
func (s *Service) AddResident(ctx context.Context, input AddResidentInput) (*Result, error) {
	residence, err := s.residences.FindByID(ctx, input.ResidenceID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "residence not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "loading residence")
	}

	actorID := requestcontext.ActorID(ctx)
	if actorID != residence.SyndicID {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the managing syndic may add members")
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	apartment := strings.TrimSpace(input.Apartment)

	if apartment == residencemodels.GuardApartment && input.Role != accountmodels.RoleGuard {
		return nil, dErrors.New(dErrors.CodeValidation, "apartment 0 is reserved for the building guard")
	}
	if input.Role == accountmodels.RoleGuard {
		if residence.GuardID != nil {
			return nil, dErrors.New(dErrors.CodeConflict, "residence already has a guard")
		}
		if apartment == "" {
			apartment = residencemodels.GuardApartment
		}
	}

	actor, err := s.accounts.FindByID(ctx, actorID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "loading acting syndic")
	}
	selfAdd := actor.Email == email

	now := requestcontext.Now(ctx)
	var account *accountmodels.Account
	accountCreated := false

	switch {
	case selfAdd:
		account = actor
	default:
		existing, err := s.accounts.FindByEmail(ctx, email)
		switch {
		case err == nil:
			account = existing
			resolved := accountmodels.ResolveRole(existing.Role, input.Role)
			elsewhere, err := s.memberships.ListByAccount(ctx, existing.ID)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "checking existing memberships")
			}
			// An account already living in another residence belongs to
			// another manager: its profile fields stay untouched, only a
			// membership row is added.
			if resolved != existing.Role && len(elsewhere) == 0 {
				account.Role = resolved
				account.UpdatedAt = now
				if err := s.accounts.Update(ctx, account); err != nil {
					return nil, dErrors.Wrap(err, dErrors.CodeInternal, "updating account role")
				}
			}
		case errors.Is(err, sentinel.ErrNotFound):
			account, err = accountmodels.NewAccount(id.NewAccountID(), input.FullName, email, input.Phone, input.Role, now)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid resident fields")
			}
			if err := s.accounts.Create(ctx, account); err != nil {
				if errors.Is(err, sentinel.ErrConflict) {
					return nil, dErrors.New(dErrors.CodeConflict, "an account with this email already exists")
				}
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "creating account")
			}
			accountCreated = true
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "looking up account by email")
		}
	}

	// An account may hold several apartments in the residence, but never the
	// same one twice.
	held, err := s.memberships.ListByAccountAndResidence(ctx, account.ID, input.ResidenceID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "checking memberships")
	}
	for _, m := range held {
		if strings.EqualFold(m.Apartment, apartment) {
			return nil, dErrors.Newf(dErrors.CodeConflict, "this person already occupies apartment %s", apartment)
		}
	}

	membership, err := residencemodels.NewMembership(id.NewMembershipID(), account.ID, input.ResidenceID, apartment, selfAdd, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid membership fields")
	}
	if err := s.memberships.Create(ctx, membership); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Newf(dErrors.CodeConflict, "apartment %s is already reserved", apartment)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "creating membership")
	}

	if input.Role == accountmodels.RoleGuard {
		guardID := account.ID
		residence.GuardID = &guardID
		residence.UpdatedAt = now
		if err := s.residences.Update(ctx, residence); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "assigning guard")
		}
		s.publishAudit(ctx, audit.EventGuardAssigned, audit.Event{
			AccountID:   account.ID,
			ResidenceID: residence.ID.String(),
		})
	}

	codeSent := false
	if !selfAdd {
		code, err := s.otp.Issue(ctx, account.ID)
		if err != nil {
			s.logger.Warn("one-time code issuance failed",
				"account_id", account.ID.String(), "error", err)
		} else {
			codeSent = true
			if err := s.sender.Send(ctx, notification.OnboardingCode(account.Email, account.FullName, residence.Name, code)); err != nil {
				s.logger.Warn("one-time code email failed",
					"account_id", account.ID.String(), "error", err)
			}
		}
	}

	if accountCreated {
		s.publishAudit(ctx, audit.EventAccountCreated, audit.Event{
			AccountID: account.ID,
			Email:     account.Email,
		})
	}
	s.publishAudit(ctx, audit.EventResidentOnboarded, audit.Event{
		AccountID:   account.ID,
		ResidenceID: residence.ID.String(),
		Subject:     membership.ID.String(),
	})

	return &Result{Account: account, Membership: membership, CodeSent: codeSent}, nil
}

// VerifyCode redeems a resident's one-time code: the account's email is
// marked verified and every still-unverified membership becomes verified.
func (s *Service) VerifyCode(ctx context.Context, accountID id.AccountID, code string) error {
	account, err := s.accounts.FindByID(ctx, accountID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "account not found")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "loading account")
	}

	if err := s.otp.Redeem(ctx, accountID, code); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrExpired):
			return dErrors.New(dErrors.CodeValidation, "verification code has expired")
		case errors.Is(err, sentinel.ErrInvalidState):
			return dErrors.New(dErrors.CodeValidation, "verification code is not valid")
		default:
			return dErrors.Wrap(err, dErrors.CodeInternal, "redeeming code")
		}
	}

	now := requestcontext.Now(ctx)
	if !account.EmailVerified {
		account.EmailVerified = true
		account.UpdatedAt = now
		if err := s.accounts.Update(ctx, account); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "marking email verified")
		}
	}

	memberships, err := s.memberships.ListByAccount(ctx, accountID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "listing memberships")
	}
	for _, membership := range memberships {
		if membership.Verified {
			continue
		}
		if err := s.memberships.Verify(ctx, membership.ID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "verifying membership")
		}
	}

	s.publishAudit(ctx, audit.EventResidentVerified, audit.Event{AccountID: accountID})
	return nil
}

// BulkItemResult is the per-row outcome of a bulk onboarding. Rows are
// processed strictly sequentially and failures never abort the batch.
type BulkItemResult struct {
	Index   int     `json:"index"`
	Email   string  `json:"email"`
	Success bool    `json:"success"`
	Error   string  `json:"error,omitempty"`
	Result  *Result `json:"result,omitempty"`
}

// BulkAddResidents onboards each candidate in order and reports one result
// per input row, successes and failures interleaved in input order.
func (s *Service) BulkAddResidents(ctx context.Context, inputs []AddResidentInput) []BulkItemResult {
	results := make([]BulkItemResult, 0, len(inputs))
	for i, input := range inputs {
		item := BulkItemResult{Index: i, Email: strings.ToLower(strings.TrimSpace(input.Email))}
		result, err := s.AddResident(ctx, input)
		if err != nil {
			item.Error = dErrors.MessageOf(err)
			if item.Error == "" {
				item.Error = "onboarding failed"
			}
		} else {
			item.Success = true
			item.Result = result
		}
		results = append(results, item)
	}
	return results
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
