package models

import (
	"net/url"
	"strings"

	"github.com/asaskevich/govalidator"

	dErrors "portcullis/pkg/domain-errors"
	"portcullis/pkg/email"
)

const (
	minPasswordLength = 8
	// bcrypt ignores input beyond 72 bytes.
	maxPasswordBytes = 72
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Normalize() {
	r.Email = email.Normalize(r.Email)
}

func (r *LoginRequest) Validate() error {
	if !email.IsValid(r.Email) {
		return dErrors.New(dErrors.CodeValidation, "A valid email is required")
	}
	if r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "Password is required")
	}
	return nil
}

type RegisterRequest struct {
	Email                 string `json:"email"`
	Password              string `json:"password"`
	ConfirmPassword       string `json:"confirm_password"`
	SendVerificationEmail *bool  `json:"send_verification_email,omitempty"`
}

func (r *RegisterRequest) Normalize() {
	r.Email = email.Normalize(r.Email)
}

// ShouldSendVerification defaults to true when the field is omitted.
func (r *RegisterRequest) ShouldSendVerification() bool {
	return r.SendVerificationEmail == nil || *r.SendVerificationEmail
}

func (r *RegisterRequest) Validate() error {
	if !email.IsValid(r.Email) {
		return dErrors.New(dErrors.CodeValidation, "A valid email is required")
	}
	if err := ValidatePassword(r.Password); err != nil {
		return err
	}
	if r.Password != r.ConfirmPassword {
		return dErrors.New(dErrors.CodeValidation, "Passwords do not match")
	}
	return nil
}

type VerifyEmailRequest struct {
	Token       string `json:"token"`
	CallbackURL string `json:"callback_url,omitempty"`
}

func (r *VerifyEmailRequest) Validate(allowed CallbackOrigins) error {
	if strings.TrimSpace(r.Token) == "" {
		return dErrors.New(dErrors.CodeValidation, "Token is required")
	}
	return validateCallback(r.CallbackURL, allowed)
}

// EmailRequest is the body of forgot-password and resend-verification.
type EmailRequest struct {
	Email       string `json:"email"`
	CallbackURL string `json:"callback_url,omitempty"`
}

func (r *EmailRequest) Normalize() {
	r.Email = email.Normalize(r.Email)
}

func (r *EmailRequest) Validate(allowed CallbackOrigins) error {
	if !email.IsValid(r.Email) {
		return dErrors.New(dErrors.CodeValidation, "A valid email is required")
	}
	return validateCallback(r.CallbackURL, allowed)
}

type ResetPasswordRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (r *ResetPasswordRequest) Validate() error {
	if strings.TrimSpace(r.Token) == "" {
		return dErrors.New(dErrors.CodeValidation, "Token is required")
	}
	if err := ValidatePassword(r.Password); err != nil {
		return err
	}
	if r.Password != r.ConfirmPassword {
		return dErrors.New(dErrors.CodeValidation, "Passwords do not match")
	}
	return nil
}

// ValidatePassword enforces the length bounds bcrypt can honour.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return dErrors.New(dErrors.CodeValidation, "Password must be at least 8 characters")
	}
	if len(password) > maxPasswordBytes {
		return dErrors.New(dErrors.CodeValidation, "Password must be at most 72 bytes")
	}
	return nil
}

func validateCallback(callback string, allowed CallbackOrigins) error {
	if callback == "" {
		return nil
	}
	if !govalidator.IsRequestURL(callback) {
		return dErrors.New(dErrors.CodeValidation, "callback_url must be an absolute URL")
	}
	if !allowed.Allows(callback) {
		return dErrors.New(dErrors.CodeValidation, "callback_url origin is not allowed")
	}
	return nil
}

// CallbackOrigins is the set of scheme://host[:port] origins that emailed
// links and post-verification redirects may point at.
type CallbackOrigins map[string]struct{}

// NewCallbackOrigins keeps the origin of each URL and skips anything that
// does not parse as an absolute http(s) URL.
func NewCallbackOrigins(urls ...string) CallbackOrigins {
	o := make(CallbackOrigins, len(urls))
	for _, raw := range urls {
		if origin, ok := originOf(raw); ok {
			o[origin] = struct{}{}
		}
	}
	return o
}

// Allows reports whether callback lives on one of the origins. A nil set
// allows nothing.
func (o CallbackOrigins) Allows(callback string) bool {
	origin, ok := originOf(callback)
	if !ok {
		return false
	}
	_, ok = o[origin]
	return ok
}

func originOf(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || u.User != nil {
		return "", false
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", false
	}
	return scheme + "://" + strings.ToLower(u.Host), true
}
