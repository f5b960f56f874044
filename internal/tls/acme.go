package tls

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	cryptotls "crypto/tls"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-acme/lego/v4/certcrypto"
	"github.com/go-acme/lego/v4/certificate"
	"github.com/go-acme/lego/v4/lego"
	"github.com/go-acme/lego/v4/registration"

	"github.com/openleague/openleague-go/internal/config"
)

// LetsEncryptStaging is the ACME directory used when use_staging is set.
const LetsEncryptStaging = "https://acme-staging-v02.api.letsencrypt.org/directory"

// ACMEUser implements registration.User for lego.
type ACMEUser struct {
	Email        string
	Registration *registration.Resource
	key          crypto.PrivateKey
}

func (u *ACMEUser) GetEmail() string                        { return u.Email }
func (u *ACMEUser) GetRegistration() *registration.Resource { return u.Registration }
func (u *ACMEUser) GetPrivateKey() crypto.PrivateKey        { return u.key }

// HTTP01Provider serves HTTP-01 challenge tokens from memory.
type HTTP01Provider struct {
	tokens sync.Map
}

func (p *HTTP01Provider) Present(domain, token, keyAuth string) error {
	p.tokens.Store(token, keyAuth)
	return nil
}

func (p *HTTP01Provider) CleanUp(domain, token, keyAuth string) error {
	p.tokens.Delete(token)
	return nil
}

// ChallengeHandler answers /.well-known/acme-challenge/ requests.
func (p *HTTP01Provider) ChallengeHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.URL.Path, "/.well-known/acme-challenge/")
		if token == "" || token == r.URL.Path {
			http.NotFound(w, r)
			return
		}
		keyAuth, ok := p.tokens.Load(token)
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, keyAuth)
	})
}

// ACMEManager obtains and serves certificates via the ACME HTTP-01 flow.
type ACMEManager struct {
	cfg      *config.ACMEConfig
	logger   *slog.Logger
	provider *HTTP01Provider

	mu   sync.RWMutex
	cert *cryptotls.Certificate
}

func NewACMEManager(cfg *config.ACMEConfig, logger *slog.Logger) *ACMEManager {
	return &ACMEManager{
		cfg:      cfg,
		logger:   logger,
		provider: &HTTP01Provider{},
	}
}

// ChallengeHandler returns the handler the plain-HTTP listener must mount
// for /.well-known/acme-challenge/.
func (m *ACMEManager) ChallengeHandler() http.Handler {
	return m.provider.ChallengeHandler()
}

// TLSConfig returns a tls.Config that resolves certificates from the
// manager. Init must complete before the first handshake.
func (m *ACMEManager) TLSConfig() *cryptotls.Config {
	return &cryptotls.Config{
		GetCertificate: m.getCertificate,
		MinVersion:     cryptotls.VersionTLS12,
	}
}

func (m *ACMEManager) getCertificate(*cryptotls.ClientHelloInfo) (*cryptotls.Certificate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cert == nil {
		return nil, fmt.Errorf("no certificate available for %s", m.cfg.Domain)
	}
	return m.cert, nil
}

// Init loads a cached certificate or obtains a new one from the ACME
// directory. It blocks until a certificate is available.
func (m *ACMEManager) Init() error {
	if m.cfg.Domain == "" {
		return fmt.Errorf("ACME mode requires a domain")
	}

	storageDir := m.cfg.StorageDir
	if storageDir == "" {
		storageDir = ".openleague/acme"
	}
	if err := os.MkdirAll(storageDir, 0700); err != nil {
		return fmt.Errorf("failed to create ACME storage dir: %w", err)
	}

	if cert, err := m.loadCertificate(storageDir); err == nil {
		m.logger.Info("loaded cached ACME certificate", "domain", m.cfg.Domain)
		m.mu.Lock()
		m.cert = cert
		m.mu.Unlock()
		return nil
	}

	user, err := m.loadOrCreateUser(storageDir)
	if err != nil {
		return err
	}

	directory := m.cfg.Directory
	if m.cfg.UseStaging {
		directory = LetsEncryptStaging
	}
	if directory == "" {
		directory = lego.LEDirectoryProduction
	}

	legoCfg := lego.NewConfig(user)
	legoCfg.CADirURL = directory
	legoCfg.Certificate.KeyType = certcrypto.EC256

	client, err := lego.NewClient(legoCfg)
	if err != nil {
		return fmt.Errorf("failed to create ACME client: %w", err)
	}

	if err := client.Challenge.SetHTTP01Provider(m.provider); err != nil {
		return fmt.Errorf("failed to set HTTP-01 provider: %w", err)
	}

	if user.Registration == nil {
		reg, err := client.Registration.Register(registration.RegisterOptions{TermsOfServiceAgreed: true})
		if err != nil {
			return fmt.Errorf("ACME registration failed: %w", err)
		}
		user.Registration = reg
		if err := m.saveUser(storageDir, user); err != nil {
			m.logger.Warn("failed to persist ACME account", "error", err)
		}
	}

	m.logger.Info("requesting ACME certificate", "domain", m.cfg.Domain, "directory", directory)

	cert, err := m.obtainCertificate(client, storageDir)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.cert = cert
	m.mu.Unlock()

	m.logger.Info("obtained ACME certificate", "domain", m.cfg.Domain)
	return nil
}

func (m *ACMEManager) loadOrCreateUser(storageDir string) (*ACMEUser, error) {
	accountFile := filepath.Join(storageDir, "account.json")
	keyFile := filepath.Join(storageDir, "account.key")

	keyPEM, keyErr := os.ReadFile(keyFile)
	accountJSON, accErr := os.ReadFile(accountFile)

	if keyErr == nil && accErr == nil {
		block, _ := pem.Decode(keyPEM)
		if block == nil {
			return nil, fmt.Errorf("invalid ACME account key")
		}
		key, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse ACME account key: %w", err)
		}
		user := &ACMEUser{key: key}
		if err := json.Unmarshal(accountJSON, user); err != nil {
			return nil, fmt.Errorf("failed to parse ACME account: %w", err)
		}
		return user, nil
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ACME account key: %w", err)
	}

	user := &ACMEUser{
		Email: m.cfg.Email,
		key:   key,
	}

	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ACME account key: %w", err)
	}
	keyOut := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
	if err := os.WriteFile(keyFile, keyOut, 0600); err != nil {
		return nil, fmt.Errorf("failed to write ACME account key: %w", err)
	}

	if err := m.saveUser(storageDir, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (m *ACMEManager) saveUser(storageDir string, user *ACMEUser) error {
	data, err := json.MarshalIndent(user, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ACME account: %w", err)
	}
	if err := os.WriteFile(filepath.Join(storageDir, "account.json"), data, 0600); err != nil {
		return fmt.Errorf("failed to write ACME account: %w", err)
	}
	return nil
}

func (m *ACMEManager) obtainCertificate(client *lego.Client, storageDir string) (*cryptotls.Certificate, error) {
	request := certificate.ObtainRequest{
		Domains: []string{m.cfg.Domain},
		Bundle:  true,
	}

	res, err := client.Certificate.Obtain(request)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain certificate: %w", err)
	}

	certFile := filepath.Join(storageDir, "cert.pem")
	keyFile := filepath.Join(storageDir, "key.pem")
	if err := os.WriteFile(certFile, res.Certificate, 0644); err != nil {
		return nil, fmt.Errorf("failed to write certificate: %w", err)
	}
	if err := os.WriteFile(keyFile, res.PrivateKey, 0600); err != nil {
		return nil, fmt.Errorf("failed to write certificate key: %w", err)
	}

	cert, err := cryptotls.X509KeyPair(res.Certificate, res.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse obtained certificate: %w", err)
	}
	return &cert, nil
}

func (m *ACMEManager) loadCertificate(storageDir string) (*cryptotls.Certificate, error) {
	certFile := filepath.Join(storageDir, "cert.pem")
	keyFile := filepath.Join(storageDir, "key.pem")

	cert, err := cryptotls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, err
	}

	// Refuse certificates in their last renewal window.
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return nil, err
	}
	if !withinRenewalWindow(leaf) {
		return nil, fmt.Errorf("cached certificate for %s needs renewal", m.cfg.Domain)
	}

	return &cert, nil
}

// withinRenewalWindow reports whether the certificate is still valid
// with at least 30 days of headroom.
func withinRenewalWindow(leaf *x509.Certificate) bool {
	return time.Now().Add(30 * 24 * time.Hour).Before(leaf.NotAfter)
}
