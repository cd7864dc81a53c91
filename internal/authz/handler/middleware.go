package handler

import (
	"context"
	"log/slog"
	"net/http"

	"portcullis/internal/authz/models"
	id "portcullis/pkg/domain"
	dErrors "portcullis/pkg/domain-errors"
	"portcullis/pkg/platform/httputil"
	"portcullis/pkg/requestcontext"
)

// Checker answers whether a user holds a permission.
type Checker interface {
	Check(ctx context.Context, userID id.UserID, resource string, action models.Action) (bool, error)
}

// RequirePermission admits requests whose authenticated user holds
// "{action}:{resource}". It must run after bearer authentication.
func RequirePermission(checker Checker, resource string, action models.Action, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID := requestcontext.UserID(ctx)
			if userID.IsNil() {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
				return
			}
			allowed, err := checker.Check(ctx, userID, resource, action)
			if err != nil {
				logger.ErrorContext(ctx, "permission check failed",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				httputil.WriteError(w, err)
				return
			}
			if !allowed {
				logger.WarnContext(ctx, "permission denied",
					"request_id", requestcontext.RequestID(ctx),
					"user_id", userID.String(),
					"permission", models.PermissionName(resource, action),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "missing permission "+models.PermissionName(resource, action)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
