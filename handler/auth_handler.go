package handler

import (
	"encoding/json"
	"errors"
	"go-clinic-auth/common"
	"go-clinic-auth/logger"
	"go-clinic-auth/model"
	"go-clinic-auth/service"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	service       *service.AuthService
	secureCookies bool
}

func NewAuthHandler(service *service.AuthService, secureCookies bool) *AuthHandler {
	return &AuthHandler{service: service, secureCookies: secureCookies}
}

// SignIn authenticates a principal and opens a session. The tokens travel
// both in the JSON body and in HTTP-only cookies.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.SignInRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	tokens, err := h.service.SignIn(req.Email, req.Password, req.AccountType, req.RememberMe)
	if err != nil {
		return toAppError(err)
	}

	h.setSessionCookies(w, tokens)
	writeJSON(w, http.StatusOK, tokens.Access)
	return nil
}

// Logout revokes whichever session tokens the request carries and clears
// their cookies. Calling it without a session is not an error.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) *common.AppError {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		if cookie, err := r.Cookie(name); err == nil && cookie.Value != "" {
			if err := h.service.Logout(cookie.Value); err != nil {
				return common.NewAppError(http.StatusInternalServerError, "Could not revoke session", err)
			}
		}
		h.clearTokenCookie(w, name)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// Refresh rotates the session named by the refresh cookie.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) *common.AppError {
	cookie, err := r.Cookie(RefreshTokenCookie)
	if err != nil || cookie.Value == "" {
		return common.Unauthorized("missing token", nil)
	}

	tokens, err := h.service.Refresh(cookie.Value)
	if err != nil {
		return toAppError(err)
	}

	h.setSessionCookies(w, tokens)
	writeJSON(w, http.StatusOK, tokens.Access)
	return nil
}

// RecoverPassword starts the reset flow. The response is structurally
// identical whether or not the email is known.
func (h *AuthHandler) RecoverPassword(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RecoverPasswordRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	token, err := h.service.RecoverPassword(req.Email, req.AccountType)
	if err != nil {
		return toAppError(err)
	}

	// Handing the token to an out-of-band delivery channel (mailer) is the
	// caller's job; this API only mints it.
	writeJSON(w, http.StatusOK, token)
	return nil
}

// ResetPassword redeems a reset token and signs the caller in with the
// new password already in effect.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.ResetPasswordRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	tokens, err := h.service.ResetPassword(req.Token, req.NewPassword)
	if err != nil {
		return toAppError(err)
	}

	h.setSessionCookies(w, tokens)
	writeJSON(w, http.StatusOK, tokens.Access)
	return nil
}

// ChangePassword replaces the authenticated principal's password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) *common.AppError {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		return common.Unauthorized("missing token", nil)
	}

	var req model.ChangePasswordRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	if err := h.service.ChangePassword(principal.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return toAppError(err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// CreateInvite issues a staff invite. Restricted by the router to
// elevated roles.
func (h *AuthHandler) CreateInvite(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.CreateInviteRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	principal, _ := PrincipalFromContext(r.Context())
	log := logger.Log.WithFields(logrus.Fields{
		"invited_email": req.Email,
		"invited_role":  req.Role,
		"issued_by":     principal.ID,
	})
	log.Info("Create invite request received")

	token, err := h.service.CreateInvite(req.Email, req.Role)
	if err != nil {
		return toAppError(err)
	}

	writeJSON(w, http.StatusCreated, token)
	return nil
}

// Register redeems an invite token, creating the principal and opening
// its first session.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RegisterRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	tokens, err := h.service.RegisterWithInvite(req.Token, req.Name, req.Password)
	if err != nil {
		return toAppError(err)
	}

	h.setSessionCookies(w, tokens)
	writeJSON(w, http.StatusCreated, tokens.Access)
	return nil
}

// Me returns the principal the guard resolved for this request.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) *common.AppError {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		return common.Unauthorized("missing token", nil)
	}

	writeJSON(w, http.StatusOK, principal)
	return nil
}

func (h *AuthHandler) setSessionCookies(w http.ResponseWriter, tokens *service.SessionTokens) {
	h.setTokenCookie(w, AccessTokenCookie, tokens.Access)
	h.setTokenCookie(w, RefreshTokenCookie, tokens.Refresh)
}

// setTokenCookie writes an HTTP-only, same-site cookie whose lifetime
// matches the issued TTL.
func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, name string, token *model.IssuedToken) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token.Token,
		Path:     "/",
		MaxAge:   int(time.Until(token.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearTokenCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

// toAppError translates service sentinels into the engine's four error
// kinds. Anything unrecognized is an infrastructure failure.
func toAppError(err error) *common.AppError {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken):
		return common.Unauthorized(err.Error(), nil)
	case errors.Is(err, service.ErrPrincipalNotFound):
		return common.NotFound(err.Error(), nil)
	case errors.Is(err, service.ErrSamePassword):
		return common.BadRequest(err.Error(), nil)
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrActiveInviteExists):
		return common.Conflict(err.Error(), nil)
	default:
		return common.NewAppError(http.StatusInternalServerError, "Internal server error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
