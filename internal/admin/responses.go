package admin

import (
	"time"

	id "portcullis/pkg/domain"
)

// UserInfoResponse is the operator view of one account.
type UserInfoResponse struct {
	ID           id.UserID  `json:"id"`
	Email        string     `json:"email"`
	Verified     bool       `json:"verified"`
	SessionCount int        `json:"session_count"`
	LastActive   *time.Time `json:"last_active,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type AuditEventResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Category  string    `json:"category"`
	Action    string    `json:"action"`
	Subject   string    `json:"subject,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	IP        string    `json:"ip,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

type AuditTrailResponse struct {
	UserID id.UserID            `json:"user_id"`
	Events []AuditEventResponse `json:"events"`
	Total  int                  `json:"total"`
}
