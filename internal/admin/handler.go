package admin

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "portcullis/pkg/domain"
	dErrors "portcullis/pkg/domain-errors"
	"portcullis/pkg/platform/httputil"
	"portcullis/pkg/requestcontext"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the account overview behind adminGuard and the audit trail
// behind auditGuard, which lets permitted bearer users read it too.
func (h *Handler) Register(r chi.Router, adminGuard, auditGuard func(http.Handler) http.Handler) {
	r.With(adminGuard).Get("/admin/users/{userID}", h.HandleGetUser)
	r.With(auditGuard).Get("/audit/users/{userID}/events", h.HandleAuditTrail)
}

func (h *Handler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		h.fail(w, r, "invalid user id", err)
		return
	}
	info, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		h.fail(w, r, "failed to load user", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, info)
}

func (h *Handler) HandleAuditTrail(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		h.fail(w, r, "invalid user id", err)
		return
	}
	trail, err := h.service.AuditTrail(r.Context(), userID)
	if err != nil {
		h.fail(w, r, "failed to load audit trail", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, trail)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	attrs := []any{"request_id", requestcontext.RequestID(ctx), "error", err}
	if dErrors.ToHTTPStatus(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg, attrs...)
	} else {
		h.logger.WarnContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}
