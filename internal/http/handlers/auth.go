package handlers

import (
	"net/http"
	"time"

	"github.com/Mojtabakargaran/identity-service/internal/auth"
	"github.com/Mojtabakargaran/identity-service/internal/http/helpers"
	"github.com/Mojtabakargaran/identity-service/internal/http/middlewares"
	"github.com/Mojtabakargaran/identity-service/internal/observability/logger"
)

// Auth expone los flujos de autenticación por HTTP.
type Auth struct {
	Svc *auth.Service
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	SessionID string   `json:"session_id"`
	CSRFToken string   `json:"csrf_token"`
	ExpiresAt string   `json:"expires_at"`
	User      userView `json:"user"`
}

type userView struct {
	ID       string   `json:"id"`
	TenantID string   `json:"tenant_id"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	Roles    []string `json:"roles"`
}

// Login maneja POST /api/v1/auth/login
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("email and password are required"))
		return
	}

	sess, err := h.Svc.Login(ctx, auth.LoginRequest{
		Email:     req.Email,
		Password:  req.Password,
		IP:        helpers.ClientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		logger.From(ctx).Debug("login rejected", logger.Err(err))
		helpers.WriteError(w, helpers.FromDomain(err))
		return
	}

	roles := make([]string, 0, len(sess.Roles))
	for _, role := range sess.Roles {
		roles = append(roles, string(role))
	}

	w.Header().Set("Cache-Control", "no-store")
	helpers.WriteJSON(w, http.StatusOK, loginResponse{
		SessionID: sess.ID,
		CSRFToken: sess.CSRFToken,
		ExpiresAt: sess.ExpiresAt.UTC().Format(time.RFC3339),
		User: userView{
			ID:       sess.AccountID.String(),
			TenantID: sess.TenantID.String(),
			Email:    sess.Email,
			FullName: sess.FullName,
			Roles:    roles,
		},
	})
}

// Logout maneja POST /api/v1/auth/logout (requiere sesión)
func (h *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	sess := middlewares.GetSession(r.Context())
	if sess == nil {
		helpers.WriteError(w, helpers.ErrUnauthorized)
		return
	}
	if err := h.Svc.Logout(r.Context(), sess.ID); err != nil {
		helpers.WriteError(w, helpers.FromDomain(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// VerifyEmail maneja GET /api/v1/auth/verify-email?token=...
// El token viaja en el query string porque el link del correo es un GET.
func (h *Auth) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("token is required"))
		return
	}
	if err := h.Svc.VerifyEmail(r.Context(), token); err != nil {
		helpers.WriteError(w, helpers.FromDomain(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}

type resendRequest struct {
	Email string `json:"email"`
}

// ResendVerification maneja POST /api/v1/auth/resend-verification
func (h *Auth) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req resendRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.Email == "" {
		helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("email is required"))
		return
	}
	if err := h.Svc.ResendVerification(r.Context(), req.Email, helpers.ClientIP(r)); err != nil {
		helpers.WriteError(w, helpers.FromDomain(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

type forgotRequest struct {
	Email string `json:"email"`
}

// ForgotPassword maneja POST /api/v1/auth/forgot-password
func (h *Auth) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.Email == "" {
		helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("email is required"))
		return
	}
	err := h.Svc.RequestPasswordReset(r.Context(), auth.ForgotRequest{
		Email:     req.Email,
		IP:        helpers.ClientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		helpers.WriteError(w, helpers.FromDomain(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

// ValidateResetToken maneja GET /api/v1/auth/reset-password?token=...
func (h *Auth) ValidateResetToken(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("token is required"))
		return
	}
	if err := h.Svc.ValidateResetToken(r.Context(), token); err != nil {
		helpers.WriteError(w, helpers.FromDomain(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "valid"})
}

type resetRequest struct {
	Token           string `json:"token"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// ResetPassword maneja POST /api/v1/auth/reset-password
func (h *Auth) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.Token == "" || req.NewPassword == "" {
		helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("token and new_password are required"))
		return
	}
	err := h.Svc.ResetPassword(r.Context(), auth.ResetRequest{
		Token:       req.Token,
		NewPassword: req.NewPassword,
		Confirm:     req.ConfirmPassword,
	})
	if err != nil {
		helpers.WriteError(w, helpers.FromDomain(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "password_updated"})
}

// Me maneja GET /api/v1/auth/me (requiere sesión)
func (h *Auth) Me(w http.ResponseWriter, r *http.Request) {
	sess := middlewares.GetSession(r.Context())
	if sess == nil {
		helpers.WriteError(w, helpers.ErrUnauthorized)
		return
	}
	roles := make([]string, 0, len(sess.Roles))
	for _, role := range sess.Roles {
		roles = append(roles, string(role))
	}
	helpers.WriteJSON(w, http.StatusOK, userView{
		ID:       sess.AccountID.String(),
		TenantID: sess.TenantID.String(),
		Email:    sess.Email,
		FullName: sess.FullName,
		Roles:    roles,
	})
}
