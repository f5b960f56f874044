package server_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/openleague/openleague-go/internal/cache/memory"
	"github.com/openleague/openleague-go/internal/config"
	"github.com/openleague/openleague-go/internal/email"
	"github.com/openleague/openleague-go/internal/identity"
	"github.com/openleague/openleague-go/internal/league"
	"github.com/openleague/openleague-go/internal/org"
	"github.com/openleague/openleague-go/internal/ratelimit"
	"github.com/openleague/openleague-go/internal/server"
	storememory "github.com/openleague/openleague-go/internal/store/memory"
)

func newTestServer(t *testing.T, limiter *ratelimit.Limiter) (*server.Server, *storememory.Driver) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	s := storememory.New()
	sender := email.NewLogSender(logger)

	provider, err := identity.NewProvider(identity.ProviderOpts{
		Store:   s,
		Sender:  sender,
		Logger:  logger,
		BaseURL: "http://localhost:9400",
	})
	require.NoError(t, err)

	orgs, err := org.NewService(org.ServiceOpts{
		Store:   s,
		Sender:  sender,
		Logger:  logger,
		BaseURL: "http://localhost:9400",
	})
	require.NoError(t, err)

	leagues, err := league.NewService(s, logger)
	require.NoError(t, err)

	cfg := config.DevConfig()
	srv, err := server.New(cfg, logger, server.Deps{
		Identity: provider,
		Orgs:     orgs,
		Leagues:  leagues,
		Sessions: s,
		Limiter:  limiter,
	})
	require.NoError(t, err)

	return srv, s
}

func postJSON(t *testing.T, handler http.Handler, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthzIsPublic(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	for _, path := range []string{"/api/orgs", "/api/leagues", "/api/referees"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code, "path %s", path)
	}
}

func TestSignUpSignInAndOrgFlow(t *testing.T) {
	srv, s := newTestServer(t, nil)
	handler := srv.Handler()

	rec := postJSON(t, handler, "/api/auth/signup", map[string]string{
		"name":     "Dana",
		"email":    "dana@example.com",
		"password": "correct-horse",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Signing in before verification is rejected.
	rec = postJSON(t, handler, "/api/auth/signin", map[string]string{
		"email":    "dana@example.com",
		"password": "correct-horse",
	}, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Verify directly through the store.
	user, err := s.GetUserByEmail(t.Context(), "dana@example.com")
	require.NoError(t, err)
	user.EmailVerified = true
	require.NoError(t, s.UpdateUser(t.Context(), user))

	rec = postJSON(t, handler, "/api/auth/signin", map[string]string{
		"email":    "dana@example.com",
		"password": "correct-horse",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	var sessionCookie *http.Cookie
	for _, c := range cookies {
		if c.Name == "openleague.session_token" {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie)
	require.True(t, sessionCookie.HttpOnly)

	rec = postJSON(t, handler, "/api/orgs", map[string]string{
		"name": "Thursday Ultimate",
		"slug": "thursday-ultimate",
	}, []*http.Cookie{sessionCookie})
	require.Equal(t, http.StatusCreated, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/orgs", nil)
	req.AddCookie(sessionCookie)
	listRec := httptest.NewRecorder()
	handler.ServeHTTP(listRec, req)
	require.Equal(t, http.StatusOK, listRec.Code)

	var orgs []map[string]any
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &orgs))
	require.Len(t, orgs, 1)
	require.Equal(t, "thursday-ultimate", orgs[0]["slug"])
}

func TestSessionEndpointDegradesToNull(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Nil(t, body["session"])
	require.Nil(t, body["user"])
	require.Nil(t, body["organization"])
}

func TestSignInRateLimited(t *testing.T) {
	c := memory.New(time.Minute, 0)
	defer c.Close()

	limiter := ratelimit.New(c, &ratelimit.Config{
		RequestsPerWindow: 2,
		Window:            time.Minute,
		KeyPrefix:         "test:",
	})
	srv, _ := newTestServer(t, limiter)
	handler := srv.Handler()

	body := map[string]string{"email": "nobody@example.com", "password": "wrong"}
	for i := 0; i < 2; i++ {
		rec := postJSON(t, handler, "/api/auth/signin", body, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := postJSON(t, handler, "/api/auth/signin", body, nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestIsAuthRequired(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/api/healthz", false},
		{"/api/auth/signin", false},
		{"/api/auth/session", false},
		{"/api/orgs", true},
		{"/api/orgs/active/roster", true},
		{"/api/leagues", true},
		{"/api/games/1/stats", true},
		{"/unknown", true},
	}

	for _, tt := range tests {
		if got := server.IsAuthRequired(tt.path); got != tt.want {
			t.Errorf("IsAuthRequired(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
