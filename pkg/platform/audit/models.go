package audit

import (
	"context"
	"time"

	id "portcullis/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose so sinks can
// apply different retention and routing.
type EventCategory string

const (
	// CategoryCompliance covers account lifecycle changes with long retention.
	CategoryCompliance EventCategory = "compliance"
	// CategorySecurity covers failures and revocations that feed alerting.
	CategorySecurity EventCategory = "security"
	// CategoryOperations covers routine activity that can be sampled.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	UserID    id.UserID
	Subject   string
	Action    string
	Reason    string
	Email     string
	IP        string
	RequestID string
	// ActorID is set when an administrator acts on someone else's account.
	ActorID string
}

type AuditEvent string

const (
	// Account lifecycle
	EventUserCreated            AuditEvent = "user_created"
	EventEmailVerified          AuditEvent = "email_verified"
	EventPasswordResetRequested AuditEvent = "password_reset_requested"
	EventPasswordReset          AuditEvent = "password_reset"

	// Sessions and tokens
	EventSessionCreated   AuditEvent = "session_created"
	EventSessionRefreshed AuditEvent = "session_refreshed"
	EventSessionRevoked   AuditEvent = "session_revoked"
	EventSessionsRevoked  AuditEvent = "sessions_revoked"
	EventSessionsSwept    AuditEvent = "sessions_swept"
	EventTokenIssued      AuditEvent = "token_issued"
	EventLogout           AuditEvent = "logout"
	EventAuthFailed       AuditEvent = "auth_failed"

	// Authorization administration
	EventRoleCreated        AuditEvent = "role_created"
	EventRoleUpdated        AuditEvent = "role_updated"
	EventRoleSoftDeleted    AuditEvent = "role_soft_deleted"
	EventRoleDeleted        AuditEvent = "role_deleted"
	EventPermissionCreated  AuditEvent = "permission_created"
	EventPermissionDeleted  AuditEvent = "permission_deleted"
	EventRolePermissionSet  AuditEvent = "role_permission_assigned"
	EventRolePermissionDrop AuditEvent = "role_permission_removed"
	EventUserRoleAssigned   AuditEvent = "user_role_assigned"
	EventUserRoleRemoved    AuditEvent = "user_role_removed"
	EventUserOverrideSet    AuditEvent = "user_permission_override_set"
	EventUserOverrideClear  AuditEvent = "user_permission_override_removed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventUserCreated:   CategoryCompliance,
	EventEmailVerified: CategoryCompliance,
	EventPasswordReset: CategoryCompliance,
	EventRoleDeleted:   CategoryCompliance,

	EventAuthFailed:             CategorySecurity,
	EventPasswordResetRequested: CategorySecurity,
	EventSessionRevoked:         CategorySecurity,
	EventSessionsRevoked:        CategorySecurity,
	EventUserRoleAssigned:       CategorySecurity,
	EventUserRoleRemoved:        CategorySecurity,
	EventUserOverrideSet:        CategorySecurity,
	EventUserOverrideClear:      CategorySecurity,
	EventRolePermissionSet:      CategorySecurity,
	EventRolePermissionDrop:     CategorySecurity,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
}

// Sink receives a copy of every event after it is stored, e.g. a Kafka topic.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}
