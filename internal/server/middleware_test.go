package server_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/openleague/openleague-go/internal/api"
	"github.com/openleague/openleague-go/internal/email"
	"github.com/openleague/openleague-go/internal/identity"
	"github.com/openleague/openleague-go/internal/server"
	"github.com/openleague/openleague-go/internal/store"
	storememory "github.com/openleague/openleague-go/internal/store/memory"
)

func newAuthGate(t *testing.T, s *storememory.Driver, requireAuth bool) func(http.Handler) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	provider, err := identity.NewProvider(identity.ProviderOpts{
		Store:   s,
		Sender:  email.NewLogSender(logger),
		Logger:  logger,
		BaseURL: "http://localhost:9400",
	})
	require.NoError(t, err)

	return server.NewAuthGate(server.AuthGateConfig{
		RequireAuth: func(string) bool { return requireAuth },
		Provider:    provider,
		Log:         logger,
	})
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthGate_PublicPathPassesThrough(t *testing.T) {
	gate := newAuthGate(t, storememory.New(), false)

	req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	rec := httptest.NewRecorder()
	gate(okHandler()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthGate_MissingToken(t *testing.T) {
	gate := newAuthGate(t, storememory.New(), true)

	req := httptest.NewRequest(http.MethodGet, "/api/orgs", nil)
	rec := httptest.NewRecorder()
	gate(okHandler()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthGate_NilHeadersIsServerError(t *testing.T) {
	gate := newAuthGate(t, storememory.New(), true)

	// A request without a header map is a hosting misconfiguration.
	req := &http.Request{
		Method: http.MethodGet,
		URL:    &url.URL{Path: "/api/orgs"},
		Header: nil,
	}
	rec := httptest.NewRecorder()
	gate(okHandler()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAuthGate_ExpiredSessionRejected(t *testing.T) {
	s := storememory.New()
	gate := newAuthGate(t, s, true)

	user := &store.User{ID: "u-1", Name: "Sam", Email: "sam@example.com", EmailVerified: true}
	require.NoError(t, s.CreateUser(t.Context(), user))
	require.NoError(t, s.CreateSession(t.Context(), &store.Session{
		ID:        "s-1",
		Token:     "expired-token",
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(-time.Hour),
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/orgs", nil)
	req.AddCookie(&http.Cookie{Name: api.SessionCookieName, Value: "expired-token"})
	rec := httptest.NewRecorder()
	gate(okHandler()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthGate_ValidSessionEnrichesContext(t *testing.T) {
	s := storememory.New()
	gate := newAuthGate(t, s, true)

	user := &store.User{ID: "u-2", Name: "Riley", Email: "riley@example.com", EmailVerified: true}
	require.NoError(t, s.CreateUser(t.Context(), user))
	require.NoError(t, s.CreateSession(t.Context(), &store.Session{
		ID:        "s-2",
		Token:     "live-token",
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	var gotUserID string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u := api.UserFromContext(r.Context()); u != nil {
			gotUserID = u.ID
		}
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/orgs", nil)
	req.AddCookie(&http.Cookie{Name: api.SessionCookieName, Value: "live-token"})
	rec := httptest.NewRecorder()
	gate(inner).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "u-2", gotUserID)
}
