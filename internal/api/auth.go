package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/openleague/openleague-go/internal/identity"
	"github.com/openleague/openleague-go/internal/org"
	"github.com/openleague/openleague-go/internal/store"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "openleague.session_token"

// ErrMissingHeaders indicates the request carries no header map at all.
// That is a hosting misconfiguration, not a client error.
var ErrMissingHeaders = errors.New("request environment does not expose headers")

// ReadSessionToken extracts the session token from the cookie, falling
// back to an Authorization bearer header. An empty string means the
// request is unauthenticated.
func ReadSessionToken(r *http.Request) (string, error) {
	if r.Header == nil {
		return "", ErrMissingHeaders
	}

	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer "), nil
	}

	return "", nil
}

// SetSessionCookie persists the session token back to the caller.
func SetSessionCookie(w http.ResponseWriter, token string, expires time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// AuthHandler serves the /api/auth endpoints.
type AuthHandler struct {
	provider     *identity.Provider
	orgs         *org.Service
	cookieSecure bool
	logger       *slog.Logger
}

func NewAuthHandler(provider *identity.Provider, orgs *org.Service, cookieSecure bool, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		provider:     provider,
		orgs:         orgs,
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

// Router returns the chi router for the auth endpoint group.
func (h *AuthHandler) Router() chi.Router {
	r := chi.NewRouter()
	r.Post("/signup", h.handleSignUp)
	r.Post("/signin", h.handleSignIn)
	r.Post("/signout", h.handleSignOut)
	r.Get("/session", h.handleSession)
	r.Post("/forget-password", h.handleForgetPassword)
	r.Post("/reset-password", h.handleResetPassword)
	r.Get("/verify-email", h.handleVerifyEmail)
	return r
}

type signUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, ReasonBadRequest, "invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		WriteBadRequest(w, ReasonMissingField, "email and password are required")
		return
	}

	user, err := h.provider.SignUpEmail(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"user":    user,
	})
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, ReasonBadRequest, "invalid JSON body")
		return
	}

	session, _, err := h.provider.SignInEmail(r.Context(), req.Email, req.Password, remoteAddr(r), r.UserAgent())
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	SetSessionCookie(w, session.Token, session.ExpiresAt, h.cookieSecure)
	WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *AuthHandler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	token, err := ReadSessionToken(r)
	if err != nil {
		WriteInternalError(w, "request headers unavailable")
		return
	}

	if err := h.provider.SignOut(r.Context(), token); err != nil {
		h.logger.Warn("sign-out failed", "error", err)
	}

	ClearSessionCookie(w, h.cookieSecure)
	WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

// sessionResponse is the body of GET /api/auth/session. Organization is
// the session's active organization, or null.
type sessionResponse struct {
	Session      *store.Session        `json:"session"`
	User         *store.User           `json:"user"`
	Organization *org.FullOrganization `json:"organization"`
}

func (h *AuthHandler) handleSession(w http.ResponseWriter, r *http.Request) {
	token, err := ReadSessionToken(r)
	if err != nil {
		WriteInternalError(w, "request headers unavailable")
		return
	}

	session, user, err := h.provider.GetSession(r.Context(), token)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	if session == nil {
		WriteJSON(w, http.StatusOK, sessionResponse{})
		return
	}

	resp := sessionResponse{Session: session, User: user}
	if session.ActiveOrganizationID != "" {
		full, err := h.orgs.GetFullOrganization(r.Context(), session.ActiveOrganizationID)
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		resp.Organization = full
	}

	WriteJSON(w, http.StatusOK, resp)
}

type forgetPasswordRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) handleForgetPassword(w http.ResponseWriter, r *http.Request) {
	var req forgetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, ReasonBadRequest, "invalid JSON body")
		return
	}
	if req.Email == "" {
		WriteBadRequest(w, ReasonMissingField, "email is required")
		return
	}

	// Always succeeds so callers cannot probe for registered addresses.
	if err := h.provider.ForgetPassword(r.Context(), req.Email); err != nil {
		h.logger.Warn("forget-password failed", "error", err)
	}

	WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *AuthHandler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, ReasonBadRequest, "invalid JSON body")
		return
	}
	if req.Token == "" || req.Password == "" {
		WriteBadRequest(w, ReasonMissingField, "token and password are required")
		return
	}

	if err := h.provider.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *AuthHandler) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		WriteBadRequest(w, ReasonMissingField, "token is required")
		return
	}

	if err := h.provider.VerifyEmail(r.Context(), token); err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func remoteAddr(r *http.Request) string {
	addr := r.RemoteAddr
	if i := strings.LastIndex(addr, ":"); i > 0 {
		addr = addr[:i]
	}
	return addr
}
