package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "portcullis/pkg/domain-errors"
)

func TestSessionExpiryBoundary(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &Session{ExpiresAt: now}

	assert.True(t, s.IsExpired(now), "expiry instant is already inert")
	assert.False(t, s.IsExpired(now.Add(-time.Nanosecond)))

	s.Extend(now.Add(-time.Minute), time.Hour)
	assert.Equal(t, now.Add(59*time.Minute), s.ExpiresAt)
}

func TestVerificationExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	v := &Verification{ExpiresAt: now}
	assert.False(t, v.IsExpired(now))
	assert.True(t, v.IsExpired(now.Add(time.Second)))
}

func TestRegisterRequestValidate(t *testing.T) {
	valid := RegisterRequest{Email: "a@x.com", Password: "Secret123!", ConfirmPassword: "Secret123!"}
	require.NoError(t, valid.Validate())
	assert.True(t, valid.ShouldSendVerification())

	t.Run("mismatched confirmation", func(t *testing.T) {
		r := valid
		r.ConfirmPassword = "Secret123?"
		require.ErrorIs(t, r.Validate(), dErrors.New(dErrors.CodeValidation, "Passwords do not match"))
	})

	t.Run("short password", func(t *testing.T) {
		r := valid
		r.Password, r.ConfirmPassword = "short", "short"
		assert.True(t, dErrors.HasCode(r.Validate(), dErrors.CodeValidation))
	})

	t.Run("password over bcrypt limit", func(t *testing.T) {
		r := valid
		r.Password = strings.Repeat("a", 73)
		r.ConfirmPassword = r.Password
		assert.True(t, dErrors.HasCode(r.Validate(), dErrors.CodeValidation))
	})

	t.Run("bad email", func(t *testing.T) {
		r := valid
		r.Email = "nope"
		assert.True(t, dErrors.HasCode(r.Validate(), dErrors.CodeValidation))
	})

	t.Run("explicit opt out of verification", func(t *testing.T) {
		no := false
		r := valid
		r.SendVerificationEmail = &no
		assert.False(t, r.ShouldSendVerification())
	})
}

func TestEmailRequestValidate(t *testing.T) {
	origins := NewCallbackOrigins("https://app.example.com")
	r := EmailRequest{Email: " A@X.com "}
	r.Normalize()
	assert.Equal(t, "a@x.com", r.Email)
	require.NoError(t, r.Validate(origins))

	r.CallbackURL = "not a url"
	assert.True(t, dErrors.HasCode(r.Validate(origins), dErrors.CodeValidation))

	r.CallbackURL = "https://app.example.com/verified"
	require.NoError(t, r.Validate(origins))

	t.Run("callback on a foreign origin is rejected", func(t *testing.T) {
		r := EmailRequest{Email: "a@x.com", CallbackURL: "https://evil.example/steal"}
		err := r.Validate(origins)
		require.ErrorIs(t, err, dErrors.New(dErrors.CodeValidation, "callback_url origin is not allowed"))
	})

	t.Run("no configured origins rejects every callback", func(t *testing.T) {
		r := EmailRequest{Email: "a@x.com", CallbackURL: "https://app.example.com/verified"}
		assert.True(t, dErrors.HasCode(r.Validate(nil), dErrors.CodeValidation))
	})
}

func TestVerifyEmailRequestValidate(t *testing.T) {
	origins := NewCallbackOrigins("https://app.example.com")
	r := VerifyEmailRequest{Token: "tok", CallbackURL: "https://app.example.com/welcome"}
	require.NoError(t, r.Validate(origins))

	r.CallbackURL = "https://evil.example/welcome"
	assert.True(t, dErrors.HasCode(r.Validate(origins), dErrors.CodeValidation))
}

func TestCallbackOrigins(t *testing.T) {
	origins := NewCallbackOrigins("https://App.Example.com/base", "http://localhost:3000", "not a url", "ftp://files.example.com")

	cases := []struct {
		url     string
		allowed bool
	}{
		{"https://app.example.com/reset?x=1", true},
		{"HTTPS://APP.EXAMPLE.COM/reset", true},
		{"http://localhost:3000/verify", true},
		{"http://app.example.com/reset", false},
		{"https://app.example.com:8443/reset", false},
		{"https://app.example.com.evil.example/reset", false},
		{"https://app.example.com@evil.example/reset", false},
		{"http://localhost:3001/verify", false},
		{"ftp://files.example.com/reset", false},
		{"/relative/path", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, origins.Allows(tc.url), tc.url)
	}
	assert.Len(t, origins, 2)
}
