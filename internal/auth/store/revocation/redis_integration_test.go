//go:build integration

package revocation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"portcullis/internal/auth/store/revocation"
	"portcullis/pkg/testutil/containers"
)

type RedisTRLSuite struct {
	suite.Suite
	trl *revocation.RedisTRL
}

func TestRedisTRLSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisTRLSuite))
}

func (s *RedisTRLSuite) SetupSuite() {
	s.trl = revocation.NewRedisTRL(containers.StartRedis(s.T()))
}

func (s *RedisTRLSuite) TestRevocationLifecycle() {
	ctx := context.Background()

	revoked, err := s.trl.IsRevoked(ctx, "jti-a")
	s.Require().NoError(err)
	s.False(revoked)

	s.Require().NoError(s.trl.RevokeToken(ctx, "jti-a", time.Second))
	revoked, err = s.trl.IsRevoked(ctx, "jti-a")
	s.Require().NoError(err)
	s.True(revoked)

	s.Eventually(func() bool {
		revoked, err := s.trl.IsRevoked(ctx, "jti-a")
		return err == nil && !revoked
	}, 5*time.Second, 100*time.Millisecond)
}
