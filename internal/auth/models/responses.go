package models

import (
	"time"

	id "portcullis/pkg/domain"
)

// AuthResult is what login, register and refresh hand back to the transport
// layer: the session (for the cookie) and a bearer access token.
type AuthResult struct {
	User                 *User
	Session              *Session
	AccessToken          string
	AccessTokenExpiresAt time.Time
}

type AuthUser struct {
	ID            id.UserID `json:"id"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"email_verified"`
}

type AuthSession struct {
	ID        id.SessionID `json:"id"`
	ExpiresAt time.Time    `json:"expires_at"`
}

type AuthResponse struct {
	User        AuthUser    `json:"user"`
	Session     AuthSession `json:"session"`
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// NewAuthResponse never includes the session token; it travels only in the cookie.
func NewAuthResponse(res *AuthResult) AuthResponse {
	return AuthResponse{
		User:        ToAuthUser(res.User),
		Session:     AuthSession{ID: res.Session.ID, ExpiresAt: res.Session.ExpiresAt},
		AccessToken: res.AccessToken,
		TokenType:   "bearer",
	}
}

func ToAuthUser(u *User) AuthUser {
	return AuthUser{ID: u.ID, Email: u.Email, EmailVerified: u.EmailVerified}
}

type SessionSummary struct {
	SessionID id.SessionID `json:"session_id"`
	Device    string       `json:"device"`
	IPAddress string       `json:"ip_address,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	ExpiresAt time.Time    `json:"expires_at"`
	IsCurrent bool         `json:"is_current"`
}

type SessionsResult struct {
	Sessions []SessionSummary `json:"sessions"`
}

type UserResponse struct {
	User AuthUser `json:"user"`
}
