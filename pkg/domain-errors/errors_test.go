package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portcullis/pkg/platform/sentinel"
)

func TestHasCode(t *testing.T) {
	t.Run("matches outermost code", func(t *testing.T) {
		err := New(CodeValidation, "Email already registered")
		assert.True(t, HasCode(err, CodeValidation))
		assert.False(t, HasCode(err, CodeConflict))
	})

	t.Run("matches wrapped domain error", func(t *testing.T) {
		inner := New(CodeUnavailable, "pool exhausted")
		err := Wrap(inner, CodeDatabase, "failed to load user")
		assert.True(t, HasCode(err, CodeDatabase))
		assert.True(t, HasCode(err, CodeUnavailable))
		assert.True(t, IsRetryable(err))
	})

	t.Run("survives fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("login: %w", New(CodeUnauthorized, "Invalid credentials"))
		assert.True(t, HasCode(err, CodeUnauthorized))
		assert.Equal(t, CodeUnauthorized, CodeOf(err))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		err := errors.New("boom")
		assert.False(t, HasCode(err, CodeInternal))
		assert.Equal(t, CodeInternal, CodeOf(err))
	})
}

func TestErrorsIsComparesCodeAndMessage(t *testing.T) {
	err := Wrap(errors.New("driver"), CodeNotFound, "role not found")
	require.ErrorIs(t, err, New(CodeNotFound, "role not found"))
	assert.NotErrorIs(t, err, New(CodeNotFound, "permission not found"))
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:      http.StatusBadRequest,
		CodeUnauthorized:    http.StatusUnauthorized,
		CodeForbidden:       http.StatusForbidden,
		CodeNotFound:        http.StatusNotFound,
		CodeConflict:        http.StatusConflict,
		CodeExternalService: http.StatusBadGateway,
		CodeDatabase:        http.StatusInternalServerError,
		CodeNotImplemented:  http.StatusNotImplemented,
		CodeUnavailable:     http.StatusServiceUnavailable,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), string(code))
	}
}

func TestFromStore(t *testing.T) {
	cases := []struct {
		err  error
		code Code
	}{
		{fmt.Errorf("user: %w", sentinel.ErrNotFound), CodeNotFound},
		{fmt.Errorf("user: %w", sentinel.ErrConflict), CodeConflict},
		{fmt.Errorf("pool: %w", sentinel.ErrUnavailable), CodeUnavailable},
		{errors.New("syntax error at or near"), CodeDatabase},
	}
	for _, tc := range cases {
		err := FromStore(tc.err, "failed")
		assert.Equal(t, tc.code, CodeOf(err), tc.err.Error())
		assert.ErrorIs(t, err, tc.err)
	}
	assert.NoError(t, FromStore(nil, "unused"))
}
