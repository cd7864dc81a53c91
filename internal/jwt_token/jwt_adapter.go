package jwttoken

import (
	authmw "portcullis/pkg/platform/middleware/auth"
)

// ValidateAccessToken lets JWTService back the bearer middleware.
func (s *JWTService) ValidateAccessToken(tokenString string) (*authmw.Claims, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &authmw.Claims{
		UserID:    claims.UserID(),
		JTI:       claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
