// Package revocation tracks access-token JTIs that were revoked before their
// natural expiry (logout). Entries live only as long as the token could.
package revocation

import (
	"fmt"
	"time"

	"portcullis/pkg/platform/sentinel"
)

// Clock returns the current time.
type Clock func() time.Time

func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive: %w", sentinel.ErrInvalidState)
	}
	return nil
}
