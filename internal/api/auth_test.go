package api_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/openleague/openleague-go/internal/api"
)

func TestReadSessionToken_Cookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: api.SessionCookieName, Value: "tok-from-cookie"})

	token, err := api.ReadSessionToken(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "tok-from-cookie" {
		t.Errorf("expected cookie token, got %q", token)
	}
}

func TestReadSessionToken_BearerFallback(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok-from-header")

	token, err := api.ReadSessionToken(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "tok-from-header" {
		t.Errorf("expected bearer token, got %q", token)
	}
}

func TestReadSessionToken_CookieBeatsBearer(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: api.SessionCookieName, Value: "tok-from-cookie"})
	req.Header.Set("Authorization", "Bearer tok-from-header")

	token, _ := api.ReadSessionToken(req)
	if token != "tok-from-cookie" {
		t.Errorf("cookie should win, got %q", token)
	}
}

func TestReadSessionToken_Unauthenticated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	token, err := api.ReadSessionToken(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "" {
		t.Errorf("expected empty token, got %q", token)
	}
}

func TestReadSessionToken_MissingHeaders(t *testing.T) {
	req := &http.Request{Header: nil}

	_, err := api.ReadSessionToken(req)
	if !errors.Is(err, api.ErrMissingHeaders) {
		t.Errorf("expected ErrMissingHeaders, got %v", err)
	}
}

func TestSessionCookieFlags(t *testing.T) {
	rec := httptest.NewRecorder()
	api.SetSessionCookie(rec, "tok", time.Now().Add(time.Hour), true)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}

	c := cookies[0]
	if c.Name != api.SessionCookieName {
		t.Errorf("unexpected cookie name %q", c.Name)
	}
	if !c.HttpOnly {
		t.Error("cookie must be HttpOnly")
	}
	if !c.Secure {
		t.Error("cookie must be Secure when requested")
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Error("cookie must be SameSite=Lax")
	}
}

func TestClearSessionCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	api.ClearSessionCookie(rec, false)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	if cookies[0].MaxAge >= 0 {
		t.Error("clearing must set a negative MaxAge")
	}
}
