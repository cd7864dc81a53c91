package jwttoken

import (
	"crypto/rand"
	"encoding/base64"

	dErrors "portcullis/pkg/domain-errors"
)

// RandomTokenBytes is the entropy behind session tokens and verification values.
const RandomTokenBytes = 32

// RandomToken returns a URL-safe token drawn from crypto/rand.
func RandomToken() (string, error) {
	b := make([]byte, RandomTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate random token")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
