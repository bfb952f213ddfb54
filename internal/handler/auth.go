package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/fotoden/fotoden/internal/auth"
	"github.com/fotoden/fotoden/internal/domain"
	"github.com/fotoden/fotoden/internal/service"
)

// AuthHandler serves registration, login and logout.
type AuthHandler struct {
	users    service.UserService
	logger   *slog.Logger
	isSecure bool
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(users service.UserService, logger *slog.Logger, isSecure bool) *AuthHandler {
	return &AuthHandler{
		users:    users,
		logger:   logger,
		isSecure: isSecure,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User      userJSON  `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Register handles POST /auth/register.
//
// On success the new account is logged in immediately and the session
// cookie is set, so clients need no follow-up login call.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	user, err := h.users.Register(r.Context(), domain.RegisterParams{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	result, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		// The account exists but the session could not be opened.
		// Report success; the client can log in explicitly.
		h.logger.Error("post-register login failed", "error", err, "user_id", user.ID)
		writeJSON(w, http.StatusCreated, map[string]userJSON{"user": renderUser(user)})
		return
	}

	auth.SetSessionCookie(w, result.Token, h.isSecure)
	writeJSON(w, http.StatusCreated, sessionResponse{
		User:      renderUser(user),
		ExpiresAt: result.ExpiresAt,
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	result, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	auth.SetSessionCookie(w, result.Token, h.isSecure)
	writeJSON(w, http.StatusOK, sessionResponse{
		User:      renderUser(result.User),
		ExpiresAt: result.ExpiresAt,
	})
}

// Logout handles POST /auth/logout. Idempotent: logging out without a
// session still clears the cookie and returns 204.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.SessionCookieName); err == nil {
		if err := h.users.Logout(r.Context(), cookie.Value); err != nil {
			h.logger.Warn("logout failed", "error", err)
		}
	}

	auth.ClearSessionCookie(w, h.isSecure)
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /auth/me, returning the authenticated account.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]userJSON{"user": renderUser(user)})
}
