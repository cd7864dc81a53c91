// Package handler exposes the account flows under /auth.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"portcullis/internal/auth/models"
	id "portcullis/pkg/domain"
	dErrors "portcullis/pkg/domain-errors"
	"portcullis/pkg/platform/httputil"
	"portcullis/pkg/requestcontext"
)

// Service is the account orchestrator behind the handlers.
type Service interface {
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResult, error)
	Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResult, error)
	VerifyEmail(ctx context.Context, req *models.VerifyEmailRequest) (*models.User, error)
	SendVerificationEmail(ctx context.Context, req *models.EmailRequest) error
	ForgotPassword(ctx context.Context, req *models.EmailRequest) error
	ResetPassword(ctx context.Context, req *models.ResetPasswordRequest) error
	Logout(ctx context.Context, sessionToken string) error
	RefreshToken(ctx context.Context, sessionToken string) (*models.AuthResult, error)
	SocialLogin(ctx context.Context, provider string) error
	Me(ctx context.Context, userID id.UserID) (*models.User, error)
	ListSessions(ctx context.Context, userID id.UserID, currentToken string) (*models.SessionsResult, error)
	RevokeSession(ctx context.Context, userID id.UserID, sessionID id.SessionID) error
}

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

const defaultCookieName = "session_token"

type Handler struct {
	auth   Service
	logger *slog.Logger
	cookie CookieConfig
}

func New(auth Service, logger *slog.Logger, cookie CookieConfig) *Handler {
	if cookie.Name == "" {
		cookie.Name = defaultCookieName
	}
	return &Handler{auth: auth, logger: logger, cookie: cookie}
}

// Register mounts the public routes on r and the bearer-protected ones behind
// requireAuth. optionalAuth lets logout revoke the caller's access token when
// one is presented.
func (h *Handler) Register(r chi.Router, requireAuth, optionalAuth func(http.Handler) http.Handler) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.HandleLogin)
		r.Post("/register", h.HandleRegister)
		r.Post("/refresh", h.HandleRefresh)
		r.Post("/verify-email", h.HandleVerifyEmail)
		r.Post("/send-verification-email", h.HandleSendVerificationEmail)
		r.Post("/forgot-password", h.HandleForgotPassword)
		r.Post("/reset-password", h.HandleResetPassword)
		r.Get("/social/{provider}", h.HandleSocialLogin)
		r.With(optionalAuth).Post("/logout", h.HandleLogout)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", h.HandleMe)
			r.Get("/sessions", h.HandleListSessions)
			r.Delete("/sessions/{id}", h.HandleRevokeSession)
		})
	})
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.auth.Login(r.Context(), &req)
	if err != nil {
		h.fail(w, r, "login failed", err)
		return
	}
	h.setSessionCookie(w, res.Session)
	httputil.WriteJSON(w, http.StatusOK, models.NewAuthResponse(res))
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.auth.Register(r.Context(), &req)
	if err != nil {
		h.fail(w, r, "registration failed", err)
		return
	}
	h.setSessionCookie(w, res.Session)
	httputil.WriteJSON(w, http.StatusCreated, models.NewAuthResponse(res))
}

func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	res, err := h.auth.RefreshToken(r.Context(), h.sessionToken(r))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeExpired) || dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.clearSessionCookie(w)
		}
		h.fail(w, r, "refresh failed", err)
		return
	}
	h.setSessionCookie(w, res.Session)
	httputil.WriteJSON(w, http.StatusOK, models.NewAuthResponse(res))
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), h.sessionToken(r)); err != nil {
		h.fail(w, r, "logout failed", err)
		return
	}
	h.clearSessionCookie(w)
	httputil.WriteJSON(w, http.StatusOK, models.MessageResponse{Message: "Logged out"})
}

func (h *Handler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyEmailRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.auth.VerifyEmail(r.Context(), &req)
	if err != nil {
		h.fail(w, r, "email verification failed", err)
		return
	}
	if req.CallbackURL != "" {
		http.Redirect(w, r, req.CallbackURL, http.StatusFound)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.UserResponse{User: models.ToAuthUser(user)})
}

func (h *Handler) HandleSendVerificationEmail(w http.ResponseWriter, r *http.Request) {
	var req models.EmailRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.auth.SendVerificationEmail(r.Context(), &req); err != nil {
		h.fail(w, r, "verification email failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.MessageResponse{Message: "Verification email sent"})
}

func (h *Handler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.EmailRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.auth.ForgotPassword(r.Context(), &req); err != nil {
		h.fail(w, r, "forgot password failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.MessageResponse{Message: "Password reset email sent"})
}

func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.auth.ResetPassword(r.Context(), &req); err != nil {
		h.fail(w, r, "password reset failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.MessageResponse{Message: "Password has been reset"})
}

func (h *Handler) HandleSocialLogin(w http.ResponseWriter, r *http.Request) {
	err := h.auth.SocialLogin(r.Context(), chi.URLParam(r, "provider"))
	httputil.WriteError(w, err)
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.Me(r.Context(), requestcontext.UserID(r.Context()))
	if err != nil {
		h.fail(w, r, "me lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.UserResponse{User: models.ToAuthUser(user)})
}

func (h *Handler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := h.auth.ListSessions(ctx, requestcontext.UserID(ctx), h.sessionToken(r))
	if err != nil {
		h.fail(w, r, "list sessions failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleRevokeSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, err := id.ParseSessionID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.auth.RevokeSession(ctx, requestcontext.UserID(ctx), sessionID); err != nil {
		h.fail(w, r, "revoke session failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httputil.DecodeJSON(r, dst); err != nil {
		ctx := r.Context()
		h.logger.WarnContext(ctx, "invalid request body",
			"request_id", requestcontext.RequestID(ctx),
			"path", r.URL.Path,
			"error", err,
		)
		httputil.WriteError(w, err)
		return false
	}
	return true
}

// fail logs at warn for client errors and at error for server-side ones.
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
