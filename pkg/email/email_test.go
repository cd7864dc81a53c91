package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "a@x.com", Normalize("  A@X.com "))
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("a@x.com"))
	assert.False(t, IsValid(""))
	assert.False(t, IsValid("not-an-email"))
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"jane.doe@x.com":    "Jane",
		"bob_smith@x.com":   "Bob",
		"ops+alerts@x.com":  "Ops",
		"@x.com":            "there",
		"...@x.com":         "there",
	}
	for in, want := range tests {
		assert.Equal(t, want, DisplayName(in), in)
	}
}
