package tls_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/openleague/openleague-go/internal/config"
	tlspkg "github.com/openleague/openleague-go/internal/tls"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestManager_Off(t *testing.T) {
	mgr := tlspkg.NewManager(&config.TLSConfig{Mode: "off"}, testLogger())

	tlsCfg, err := mgr.ConfigFor("localhost")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tlsCfg != nil {
		t.Error("expected nil TLS config for 'off' mode")
	}
}

func TestManager_InvalidMode(t *testing.T) {
	mgr := tlspkg.NewManager(&config.TLSConfig{Mode: "bogus"}, testLogger())

	if _, err := mgr.ConfigFor("localhost"); err == nil {
		t.Fatal("expected error for invalid mode")
	}
}

func TestManager_Static_MissingFiles(t *testing.T) {
	cfg := &config.TLSConfig{
		Mode:     "static",
		CertFile: "",
		KeyFile:  "",
	}
	mgr := tlspkg.NewManager(cfg, testLogger())

	if _, err := mgr.ConfigFor("localhost"); err != tlspkg.ErrMissingCert {
		t.Errorf("expected ErrMissingCert, got %v", err)
	}
}

func TestManager_SelfSigned_Generate(t *testing.T) {
	tempDir := t.TempDir()

	cfg := &config.TLSConfig{
		Mode:          "selfsigned",
		SelfSignedDir: tempDir,
	}
	mgr := tlspkg.NewManager(cfg, testLogger())

	tlsCfg, err := mgr.ConfigFor("localhost")
	if err != nil {
		t.Fatalf("ConfigFor failed: %v", err)
	}
	if tlsCfg == nil || len(tlsCfg.Certificates) != 1 {
		t.Fatal("expected a generated certificate")
	}

	for _, name := range []string{"server.crt", "server.key"} {
		if _, err := os.Stat(filepath.Join(tempDir, name)); err != nil {
			t.Errorf("expected %s to be written: %v", name, err)
		}
	}

	// Second manager reuses the persisted pair.
	mgr2 := tlspkg.NewManager(cfg, testLogger())
	tlsCfg2, err := mgr2.ConfigFor("localhost")
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if string(tlsCfg2.Certificates[0].Certificate[0]) != string(tlsCfg.Certificates[0].Certificate[0]) {
		t.Error("expected second load to reuse the generated certificate")
	}
}

func TestManager_ACME_ModeWiresManager(t *testing.T) {
	cfg := &config.TLSConfig{
		Mode: "acme",
		ACME: config.ACMEConfig{Domain: "league.example.org"},
	}
	mgr := tlspkg.NewManager(cfg, testLogger())

	tlsCfg, err := mgr.ConfigFor("league.example.org")
	if err != nil {
		t.Fatalf("ConfigFor failed: %v", err)
	}
	if tlsCfg == nil || tlsCfg.GetCertificate == nil {
		t.Fatal("expected a certificate resolver")
	}
	if mgr.ACME() == nil {
		t.Fatal("expected an ACME manager in acme mode")
	}
}

func TestHTTP01Provider_ChallengeHandler(t *testing.T) {
	provider := &tlspkg.HTTP01Provider{}
	handler := provider.ChallengeHandler()

	if err := provider.Present("league.example.org", "tok123", "tok123.keyauth"); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/.well-known/acme-challenge/tok123", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "tok123.keyauth" {
		t.Errorf("unexpected key authorization: %q", rec.Body.String())
	}

	// Unknown and cleaned-up tokens both 404.
	req = httptest.NewRequest(http.MethodGet, "/.well-known/acme-challenge/unknown", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown token, got %d", rec.Code)
	}

	if err := provider.CleanUp("league.example.org", "tok123", "tok123.keyauth"); err != nil {
		t.Fatal(err)
	}
	req = httptest.NewRequest(http.MethodGet, "/.well-known/acme-challenge/tok123", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after cleanup, got %d", rec.Code)
	}
}
