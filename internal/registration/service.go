package registration

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/mssola/useragent"

	accountstore "residora/internal/account/store"
	"residora/internal/notification"
	"residora/internal/registration/metrics"
	"residora/internal/registration/models"
	registrationstore "residora/internal/registration/store"
	residencestore "residora/internal/residence/store"
	id "residora/pkg/domain"
	dErrors "residora/pkg/domain-errors"
	"residora/pkg/platform/audit"
	"residora/pkg/platform/sentinel"
	"residora/pkg/requestcontext"
)

// Service coordinates registration validation, request capture and
// notification fan-out.
type Service struct {
	residences residencestore.ResidenceStore
	accounts   accountstore.AccountStore
	requests   registrationstore.RequestStore
	validator  *Validator
	sender     notification.Sender
	logger     *slog.Logger
	metrics    *metrics.Metrics
	audit      audit.Publisher
}

// Option configures optional service collaborators.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) { s.audit = publisher }
}

func WithSender(sender notification.Sender) Option {
	return func(s *Service) { s.sender = sender }
}

func NewService(
	residences residencestore.ResidenceStore,
	accounts accountstore.AccountStore,
	memberships residencestore.MembershipStore,
	requests registrationstore.RequestStore,
	opts ...Option,
) *Service {
	s := &Service{
		residences: residences,
		accounts:   accounts,
		requests:   requests,
		validator:  NewValidator(accounts, memberships, requests),
		sender:     &notification.LogSender{Logger: slog.Default()},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitInput are the candidate fields from the public registration form.
type SubmitInput struct {
	ResidenceID   id.ResidenceID
	FullName      string
	Email         string
	Phone         string
	Apartment     string
	IDNumber      string
	IDDocumentURL string
}

// Submit validates the candidate against the full-registration scope and, if
// clean, records a pending request with captured client metadata and fires
// best-effort notification emails. Violations are a business outcome, not an
// error: callers receive the complete list.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (*models.Request, []Violation, error) {
	residence, err := s.residences.FindByID(ctx, input.ResidenceID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil, dErrors.New(dErrors.CodeNotFound, "residence not found")
	}
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "loading residence")
	}

	start := time.Now()
	violations, err := s.validator.Validate(ctx, CandidateInput{
		ResidenceID: input.ResidenceID,
		Email:       input.Email,
		Phone:       input.Phone,
		Apartment:   input.Apartment,
	}, ScopeAllMembers)
	if s.metrics != nil {
		s.metrics.ObserveValidation(start)
	}
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "validating registration")
	}
	if len(violations) > 0 {
		if s.metrics != nil {
			s.metrics.IncrementRejected()
		}
		return nil, violations, nil
	}

	now := requestcontext.Now(ctx)
	request, err := models.NewRequest(id.NewRegistrationID(), input.ResidenceID,
		input.FullName, input.Email, input.Phone, input.Apartment, now)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid registration fields")
	}
	request.IDNumber = strings.TrimSpace(input.IDNumber)
	request.IDDocumentURL = strings.TrimSpace(input.IDDocumentURL)
	request.ClientIP = requestcontext.ClientIP(ctx)
	request.UserAgent = requestcontext.UserAgent(ctx)
	request.Device = deviceSummary(request.UserAgent)

	if err := s.requests.Create(ctx, request); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// Lost a race with a concurrent submission for the same
			// email or apartment.
			return nil, nil, dErrors.New(dErrors.CodeConflict, "a pending registration request already exists")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "storing registration request")
	}

	if s.metrics != nil {
		s.metrics.IncrementSubmitted()
	}
	s.publishAudit(ctx, audit.EventRegistrationRequested, audit.Event{
		ResidenceID: residence.ID.String(),
		Subject:     request.ID.String(),
		Email:       request.Email,
	})
	s.notify(ctx, residence.SyndicID, residence.Name, request)

	return request, nil, nil
}

// Prevalidate runs the verified-members-only variant used by the public
// availability check before the form is submitted.
func (s *Service) Prevalidate(ctx context.Context, candidate CandidateInput) ([]Violation, error) {
	if _, err := s.residences.FindByID(ctx, candidate.ResidenceID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "residence not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "loading residence")
	}
	violations, err := s.validator.Validate(ctx, candidate, ScopeVerifiedOnly)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "validating registration")
	}
	return violations, nil
}

// Get returns one registration request.
func (s *Service) Get(ctx context.Context, requestID id.RegistrationID) (*models.Request, error) {
	request, err := s.requests.FindByID(ctx, requestID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "registration request not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "loading registration request")
	}
	return request, nil
}

// List returns a residence's registration requests, optionally filtered by
// status. Only the managing syndic may list them.
func (s *Service) List(ctx context.Context, residenceID id.ResidenceID, status models.Status) ([]*models.Request, error) {
	residence, err := s.residences.FindByID(ctx, residenceID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "residence not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "loading residence")
	}
	if requestcontext.ActorID(ctx) != residence.SyndicID {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the managing syndic may list registration requests")
	}
	requests, err := s.requests.ListByResidence(ctx, residenceID, status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "listing registration requests")
	}
	return requests, nil
}

func (s *Service) notify(ctx context.Context, syndicID id.AccountID, residenceName string, request *models.Request) {
	if err := s.sender.Send(ctx, notification.ApplicantConfirmation(request.Email, request.FullName, residenceName)); err != nil {
		s.logger.Warn("applicant confirmation email failed",
			"request_id", request.ID.String(), "error", err)
	}
	syndic, err := s.accounts.FindByID(ctx, syndicID)
	if err != nil {
		s.logger.Warn("syndic lookup for alert email failed",
			"request_id", request.ID.String(), "error", err)
		return
	}
	if err := s.sender.Send(ctx, notification.SyndicAlert(syndic.Email, request.FullName, request.Apartment, residenceName)); err != nil {
		s.logger.Warn("syndic alert email failed",
			"request_id", request.ID.String(), "error", err)
	}
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

// deviceSummary condenses a raw user-agent header into a short label kept
// with the request for the syndic's review screen.
func deviceSummary(rawUA string) string {
	if rawUA == "" {
		return ""
	}
	ua := useragent.New(rawUA)
	name, version := ua.Browser()
	parts := make([]string, 0, 3)
	if name != "" {
		if version != "" {
			name = name + " " + version
		}
		parts = append(parts, name)
	}
	if os := ua.OS(); os != "" {
		parts = append(parts, "on "+os)
	}
	if ua.Mobile() {
		parts = append(parts, "(mobile)")
	}
	return strings.Join(parts, " ")
}
