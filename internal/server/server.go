// Package server provides HTTP server wiring and lifecycle management.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/openleague/openleague-go/internal/config"
	"github.com/openleague/openleague-go/internal/identity"
	"github.com/openleague/openleague-go/internal/league"
	"github.com/openleague/openleague-go/internal/org"
	"github.com/openleague/openleague-go/internal/ratelimit"
	"github.com/openleague/openleague-go/internal/store"
	tlspkg "github.com/openleague/openleague-go/internal/tls"
)

// Deps carries the services the HTTP layer depends on. Everything is
// constructed in main and injected; no package-level state.
type Deps struct {
	Identity *identity.Provider
	Orgs     *org.Service
	Leagues  *league.Service
	Sessions store.SessionStore
	Limiter  *ratelimit.Limiter
}

func (d Deps) validate() error {
	if d.Identity == nil {
		return errors.New("server: identity provider is required")
	}
	if d.Orgs == nil {
		return errors.New("server: org service is required")
	}
	if d.Leagues == nil {
		return errors.New("server: league service is required")
	}
	if d.Sessions == nil {
		return errors.New("server: session store is required")
	}
	return nil
}

// Server wraps the HTTP server and its dependencies.
type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	deps       Deps
	httpServer *http.Server

	// challengeServer is the HTTP listener for ACME HTTP-01 challenges
	// and HTTPS redirects. Nil except in ACME mode.
	challengeServer *http.Server
}

// New creates a new Server with the given configuration.
func New(cfg *config.Config, logger *slog.Logger, deps Deps) (*Server, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:    cfg,
		logger: logger,
		deps:   deps,
	}

	s.httpServer = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.setupRoutes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the root HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server. It blocks until the server is shut down.
func (s *Server) Start() error {
	s.logger.Info("starting server",
		"addr", s.cfg.ListenAddr,
		"external_origin", s.cfg.ExternalOrigin,
		"tls_mode", s.cfg.TLS.Mode,
	)

	switch s.cfg.TLS.Mode {
	case "off":
		return s.httpServer.ListenAndServe()

	case "acme":
		return s.startACME()

	case "static", "selfsigned":
		manager := tlspkg.NewManager(&s.cfg.TLS, s.logger)
		tlsConfig, err := manager.ConfigFor(s.hostname())
		if err != nil {
			return fmt.Errorf("failed to configure TLS: %w", err)
		}
		s.httpServer.TLSConfig = tlsConfig

		// Certificates live in TLSConfig; empty file args are expected.
		return s.httpServer.ListenAndServeTLS("", "")

	default:
		return fmt.Errorf("%w: %s", tlspkg.ErrInvalidMode, s.cfg.TLS.Mode)
	}
}

// startACME runs two listeners: plain HTTP for HTTP-01 challenges and
// HTTPS redirects, and HTTPS for the application router.
func (s *Server) startACME() error {
	host, _, err := net.SplitHostPort(s.cfg.ListenAddr)
	if err != nil {
		// ListenAddr may be a bare host without a port.
		host = s.cfg.ListenAddr
	}

	if s.cfg.TLS.HTTPPort == 0 {
		return errors.New("tls.http_port must be set for ACME mode")
	}
	if s.cfg.TLS.HTTPSPort == 0 {
		return errors.New("tls.https_port must be set for ACME mode")
	}

	manager := tlspkg.NewManager(&s.cfg.TLS, s.logger)
	tlsConfig, err := manager.ConfigFor(s.hostname())
	if err != nil {
		return fmt.Errorf("failed to configure TLS: %w", err)
	}
	acmeMgr := manager.ACME()

	challengeMux := http.NewServeMux()
	challengeMux.Handle("/.well-known/acme-challenge/", acmeMgr.ChallengeHandler())
	challengeMux.Handle("/", newHTTPSRedirectHandler(s.cfg.TLS.HTTPSPort))

	httpAddr := net.JoinHostPort(host, strconv.Itoa(s.cfg.TLS.HTTPPort))
	s.challengeServer = &http.Server{
		Addr:         httpAddr,
		Handler:      challengeMux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	challengeListener, err := net.Listen("tcp", httpAddr)
	if err != nil {
		return fmt.Errorf("challenge listener bind failed on %s: %w", httpAddr, err)
	}

	closeChallengeServer := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if shutdownErr := s.challengeServer.Shutdown(shutdownCtx); shutdownErr != nil && !errors.Is(shutdownErr, http.ErrServerClosed) {
			_ = s.challengeServer.Close()
		}
	}

	challengeErrCh := make(chan error, 1)
	go func() {
		challengeErrCh <- s.challengeServer.Serve(challengeListener)
	}()

	// Init loads cached certs (fast path) or contacts the ACME server.
	if initErr := acmeMgr.Init(); initErr != nil {
		closeChallengeServer()
		return fmt.Errorf("ACME initialization failed: %w", initErr)
	}

	s.httpServer.Addr = net.JoinHostPort(host, strconv.Itoa(s.cfg.TLS.HTTPSPort))
	s.httpServer.TLSConfig = tlsConfig

	httpsListener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		closeChallengeServer()
		return fmt.Errorf("https listener bind failed on %s: %w", s.httpServer.Addr, err)
	}

	httpsErrCh := make(chan error, 1)
	go func() {
		httpsErrCh <- s.httpServer.ServeTLS(httpsListener, "", "")
	}()

	s.logger.Info("starting ACME server",
		"http_addr", httpAddr,
		"https_addr", s.httpServer.Addr,
		"domain", s.cfg.TLS.ACME.Domain,
	)

	select {
	case httpsErr := <-httpsErrCh:
		closeChallengeServer()
		return httpsErr
	case challengeErr := <-challengeErrCh:
		if errors.Is(challengeErr, http.ErrServerClosed) {
			return <-httpsErrCh
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(shutdownCtx)
		return fmt.Errorf("challenge server exited unexpectedly: %w", challengeErr)
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	var errs []error
	if s.challengeServer != nil {
		if err := s.challengeServer.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// hostname derives the TLS hostname from the external origin, falling
// back to localhost.
func (s *Server) hostname() string {
	if s.cfg.ExternalOrigin != "" {
		if u, err := url.Parse(s.cfg.ExternalOrigin); err == nil && u.Hostname() != "" {
			return u.Hostname()
		}
	}
	return "localhost"
}

// newHTTPSRedirectHandler issues HTTP 308 Permanent Redirect to the
// HTTPS equivalent of the request URL.
func newHTTPSRedirectHandler(httpsPort int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hostOnly := r.Host
		if h, _, err := net.SplitHostPort(hostOnly); err == nil {
			hostOnly = h
		}
		if strings.Contains(hostOnly, ":") && !(strings.HasPrefix(hostOnly, "[") && strings.HasSuffix(hostOnly, "]")) {
			hostOnly = "[" + hostOnly + "]"
		}

		var target string
		if httpsPort == 443 {
			target = "https://" + hostOnly + r.URL.RequestURI()
		} else {
			target = "https://" + net.JoinHostPort(strings.Trim(hostOnly, "[]"), strconv.Itoa(httpsPort)) + r.URL.RequestURI()
		}

		http.Redirect(w, r, target, http.StatusPermanentRedirect)
	})
}
