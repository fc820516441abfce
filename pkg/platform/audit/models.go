package audit

import (
	"context"
	"time"

	id "residora/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and routing downstream.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance
	// (account deletion, registration decisions). Long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring
	// (failed verifications, admin actions on other accounts).
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity useful for debugging.
	// Can be sampled with shorter retention.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category    EventCategory `json:"category"`
	Timestamp   time.Time     `json:"timestamp"`
	AccountID   id.AccountID  `json:"account_id,omitempty"`
	ResidenceID string        `json:"residence_id,omitempty"`
	Subject     string        `json:"subject,omitempty"`
	Action      string        `json:"action"`
	Reason      string        `json:"reason,omitempty"`
	// Email enriches deletion events where the account row is already gone.
	Email     string `json:"email,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	// ActorID tracks who performed the action when different from AccountID
	// (a syndic onboarding a resident, an admin deleting an account).
	ActorID string `json:"actor_id,omitempty"`
}

// AuditEvent names every action the service records.
type AuditEvent string

const (
	// Registration events
	EventRegistrationRequested AuditEvent = "registration_requested"
	EventRegistrationRejected  AuditEvent = "registration_rejected"

	// Onboarding events
	EventAccountCreated    AuditEvent = "account_created"
	EventResidentOnboarded AuditEvent = "resident_onboarded"
	EventResidentVerified  AuditEvent = "resident_verified"
	EventGuardAssigned     AuditEvent = "guard_assigned"

	// Review events
	EventSubmissionCreated  AuditEvent = "submission_created"
	EventSubmissionApproved AuditEvent = "submission_approved"
	EventSubmissionRejected AuditEvent = "submission_rejected"
	EventSubmissionReset    AuditEvent = "submission_reset"
	EventResidenceCreated   AuditEvent = "residence_created"

	// Deletion events
	EventMembershipRemoved AuditEvent = "membership_removed"
	EventAccountDeleted    AuditEvent = "account_deleted"

	// Billing events
	EventBillingCustomerCreated AuditEvent = "billing_customer_created"
	EventSubscriptionCreated    AuditEvent = "subscription_created"
	EventSubscriptionCancelled  AuditEvent = "subscription_cancelled"
	EventRefundIssued           AuditEvent = "refund_issued"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventRegistrationRequested: CategoryCompliance,
	EventRegistrationRejected:  CategorySecurity,

	EventAccountCreated:    CategoryCompliance,
	EventResidentOnboarded: CategoryOperations,
	EventResidentVerified:  CategoryOperations,
	EventGuardAssigned:     CategoryOperations,

	EventSubmissionCreated:  CategoryOperations,
	EventSubmissionApproved: CategoryCompliance,
	EventSubmissionRejected: CategoryCompliance,
	EventSubmissionReset:    CategorySecurity,
	EventResidenceCreated:   CategoryOperations,

	EventMembershipRemoved: CategorySecurity,
	EventAccountDeleted:    CategoryCompliance,

	EventBillingCustomerCreated: CategoryOperations,
	EventSubscriptionCreated:    CategoryOperations,
	EventSubscriptionCancelled:  CategoryOperations,
	EventRefundIssued:           CategoryCompliance,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Publisher is the sink services emit through. Implementations: the Kafka
// publisher, the channel worker feeding a store, or a test recorder.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// Store persists audit events for listing and test assertions.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByAccount(ctx context.Context, accountID id.AccountID) ([]Event, error)
}
