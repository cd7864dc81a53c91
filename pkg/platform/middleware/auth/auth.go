// Package auth authenticates bearer access tokens and places the caller's
// identity in the request context.
package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	id "portcullis/pkg/domain"
	dErrors "portcullis/pkg/domain-errors"
	"portcullis/pkg/platform/httputil"
	"portcullis/pkg/requestcontext"
)

// Claims is what the middleware needs from a validated access token.
type Claims struct {
	UserID    id.UserID
	JTI       string
	ExpiresAt time.Time
}

// TokenValidator validates a raw bearer token.
type TokenValidator interface {
	ValidateAccessToken(token string) (*Claims, error)
}

// RevocationChecker reports whether a token's JTI was revoked (e.g. on logout).
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

const bearerPrefix = "Bearer "

// BearerToken returns the token from the Authorization header, if any.
func BearerToken(r *http.Request) (string, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// RequireAuth rejects requests without a valid, unrevoked bearer token.
func RequireAuth(validator TokenValidator, revocation RevocationChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := BearerToken(r)
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Missing or invalid Authorization header"))
				return
			}

			authCtx, err := authenticate(ctx, token, validator, revocation)
			if err != nil {
				if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
					logger.WarnContext(ctx, "unauthorized access", "error", err, "request_id", requestcontext.RequestID(ctx))
				} else {
					logger.ErrorContext(ctx, "failed to authenticate token", "error", err, "request_id", requestcontext.RequestID(ctx))
				}
				httputil.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(authCtx))
		})
	}
}

// OptionalAuth attaches the caller's identity when a valid bearer token is
// present and otherwise passes the request through untouched.
func OptionalAuth(validator TokenValidator, revocation RevocationChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token, ok := BearerToken(r); ok {
				if authCtx, err := authenticate(r.Context(), token, validator, revocation); err == nil {
					r = r.WithContext(authCtx)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func authenticate(ctx context.Context, token string, validator TokenValidator, revocation RevocationChecker) (context.Context, error) {
	claims, err := validator.ValidateAccessToken(token)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "Invalid or expired token")
	}
	if revocation != nil {
		if claims.JTI == "" {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "Invalid or expired token")
		}
		revoked, err := revocation.IsRevoked(ctx, claims.JTI)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "Failed to validate token")
		}
		if revoked {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "Token has been revoked")
		}
	}
	ctx = requestcontext.WithUserID(ctx, claims.UserID)
	ctx = requestcontext.WithTokenJTI(ctx, claims.JTI)
	ctx = requestcontext.WithTokenExpiry(ctx, claims.ExpiresAt)
	return ctx, nil
}
