package models

import (
	"time"

	id "portcullis/pkg/domain"
)

// ProviderCredentials is the provider name for email/password accounts.
const ProviderCredentials = "credentials"

// User is the identity aggregate root. DeletedAt is owned by account
// administration; auth flows never set it.
type User struct {
	ID            id.UserID
	Email         string
	EmailVerified bool
	AvatarURL     *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time
}

// CredentialAccount holds the password hash for one (user, provider) pair.
// It never leaves the service layer.
type CredentialAccount struct {
	ID           id.AccountID
	UserID       id.UserID
	Provider     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session is a logged-in browser or device, referenced by an opaque token.
type Session struct {
	ID        id.SessionID
	UserID    id.UserID
	Token     string
	ExpiresAt time.Time
	IPAddress string
	UserAgent string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsExpired reports whether the session is inert at now. A session is valid
// only while now is strictly before ExpiresAt.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Extend moves the expiry to now+ttl. Callers must check IsExpired first.
func (s *Session) Extend(now time.Time, ttl time.Duration) {
	s.ExpiresAt = now.Add(ttl)
	s.UpdatedAt = now
}

type VerificationIdentifier string

const (
	IdentifierEmailVerification VerificationIdentifier = "email_verification"
	IdentifierPasswordReset     VerificationIdentifier = "password_reset"
	// IdentifierTwoFactor is reserved; no workflow issues it yet.
	IdentifierTwoFactor VerificationIdentifier = "two_factor_auth"
)

func (v VerificationIdentifier) IsValid() bool {
	switch v {
	case IdentifierEmailVerification, IdentifierPasswordReset, IdentifierTwoFactor:
		return true
	}
	return false
}

func (v VerificationIdentifier) String() string { return string(v) }

// Verification is a single-use, time-limited grant for one follow-up action.
type Verification struct {
	ID         id.VerificationID
	UserID     id.UserID
	Identifier VerificationIdentifier
	Value      string
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

func (v *Verification) IsExpired(now time.Time) bool {
	return now.After(v.ExpiresAt)
}
