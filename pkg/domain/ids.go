// Package domain holds typed identifiers shared across the auth and authz packages.
//
// Each identifier is a distinct named UUID type so a SessionID can never be passed
// where a UserID is expected. Parse functions are the trust boundary for IDs that
// arrive from URLs, cookies and token claims.
package domain

import (
	"github.com/google/uuid"

	dErrors "portcullis/pkg/domain-errors"
)

type (
	UserID           uuid.UUID
	AccountID        uuid.UUID
	SessionID        uuid.UUID
	VerificationID   uuid.UUID
	RoleID           uuid.UUID
	PermissionID     uuid.UUID
	UserPermissionID uuid.UUID
)

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id AccountID) String() string      { return uuid.UUID(id).String() }
func (id SessionID) String() string      { return uuid.UUID(id).String() }
func (id VerificationID) String() string { return uuid.UUID(id).String() }
func (id RoleID) String() string         { return uuid.UUID(id).String() }
func (id PermissionID) String() string   { return uuid.UUID(id).String() }

// MarshalText renders identifiers as canonical UUID strings in JSON.
func (id UserID) MarshalText() ([]byte, error)       { return uuid.UUID(id).MarshalText() }
func (id SessionID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id RoleID) MarshalText() ([]byte, error)       { return uuid.UUID(id).MarshalText() }
func (id PermissionID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error       { return unmarshalID((*uuid.UUID)(id), b) }
func (id *SessionID) UnmarshalText(b []byte) error    { return unmarshalID((*uuid.UUID)(id), b) }
func (id *RoleID) UnmarshalText(b []byte) error       { return unmarshalID((*uuid.UUID)(id), b) }
func (id *PermissionID) UnmarshalText(b []byte) error { return unmarshalID((*uuid.UUID)(id), b) }

func unmarshalID(dst *uuid.UUID, b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid identifier")
	}
	*dst = u
	return nil
}

func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id AccountID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id VerificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id RoleID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id PermissionID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }

func NewUserID() UserID                 { return UserID(uuid.New()) }
func NewAccountID() AccountID           { return AccountID(uuid.New()) }
func NewSessionID() SessionID           { return SessionID(uuid.New()) }
func NewVerificationID() VerificationID { return VerificationID(uuid.New()) }
func NewRoleID() RoleID                 { return RoleID(uuid.New()) }
func NewPermissionID() PermissionID     { return PermissionID(uuid.New()) }

// UserPermissionID identifies a per-user permission override row.
func (id UserPermissionID) String() string { return uuid.UUID(id).String() }

func NewUserPermissionID() UserPermissionID { return UserPermissionID(uuid.New()) }

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user ID")
	return UserID(u), err
}

func ParseSessionID(s string) (SessionID, error) {
	u, err := parseUUID(s, "session ID")
	return SessionID(u), err
}

func ParseRoleID(s string) (RoleID, error) {
	u, err := parseUUID(s, "role ID")
	return RoleID(u), err
}

func ParsePermissionID(s string) (PermissionID, error) {
	u, err := parseUUID(s, "permission ID")
	return PermissionID(u), err
}

// parseUUID rejects empty, malformed and nil UUIDs.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return u, nil
}
