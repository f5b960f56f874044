// Package main is the entrypoint for the openleague-go server.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openleague/openleague-go/internal/cache"
	"github.com/openleague/openleague-go/internal/config"
	"github.com/openleague/openleague-go/internal/email"
	"github.com/openleague/openleague-go/internal/identity"
	"github.com/openleague/openleague-go/internal/league"
	"github.com/openleague/openleague-go/internal/org"
	"github.com/openleague/openleague-go/internal/ratelimit"
	"github.com/openleague/openleague-go/internal/server"
	"github.com/openleague/openleague-go/internal/store"

	// Register cache drivers
	_ "github.com/openleague/openleague-go/internal/cache/loader"

	// Register store drivers
	_ "github.com/openleague/openleague-go/internal/store/loader"
)

func main() {
	configPath := flag.String("config", "", "Path to TOML config file (optional)")
	modeFlag := flag.String("mode", "", "Operating mode: prod or dev (overrides config)")
	listenAddr := flag.String("listen", "", "Listen address (overrides config)")
	externalOrigin := flag.String("external-origin", "", "External origin (overrides config)")
	tlsMode := flag.String("tls-mode", "", "TLS mode: off, static, selfsigned, or acme (overrides config)")
	storeDriver := flag.String("store-driver", "", "Store driver: memory or sqlite (overrides config)")
	dataDir := flag.String("data-dir", "", "Data directory (overrides config)")
	cacheDriver := flag.String("cache-driver", "", "Cache driver: memory or valkey (overrides config)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	adminEmail := flag.String("admin-email", "", "Bootstrap admin email (overrides config)")
	adminPassword := flag.String("admin-password", "", "Bootstrap admin password (overrides config)")
	flag.Parse()

	// Bootstrap logger for config loading errors.
	bootstrapLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPath: *configPath,
		ModeFlag:   *modeFlag,
		FlagOverrides: config.FlagOverrides{
			ListenAddr:     listenAddr,
			ExternalOrigin: externalOrigin,
			TLSMode:        tlsMode,
			StoreDriver:    storeDriver,
			DataDir:        dataDir,
			CacheDriver:    cacheDriver,
			LogLevel:       logLevel,
			AdminEmail:     adminEmail,
			AdminPassword:  adminPassword,
		},
		Logger: bootstrapLogger,
	})
	if err != nil {
		bootstrapLogger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	var level slog.Level
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	logger.Info("effective configuration", "config", cfg.Redacted())

	// Persistence layer.
	storeOpts, _ := cfg.Store.Drivers[cfg.Store.Driver].(map[string]any)
	st, err := store.New(&store.DriverConfig{
		Driver:  cfg.Store.Driver,
		DataDir: cfg.Store.DataDir,
		Options: storeOpts,
	})
	if err != nil {
		logger.Error("failed to create store", "error", err, "available", store.AvailableDrivers())
		os.Exit(1)
	}
	if err := st.Init(context.Background()); err != nil {
		logger.Error("failed to initialize store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	// Cache layer, defaults to in-memory.
	cacheName := cfg.Cache.Driver
	if cacheName == "" {
		cacheName = "memory"
	}
	cacheOpts, _ := cfg.Cache.Drivers[cacheName].(map[string]any)
	cacheInstance, err := cache.New(cacheName, cacheOpts)
	if err != nil {
		logger.Error("failed to create cache", "error", err, "available", cache.AvailableDrivers())
		os.Exit(1)
	}
	defer cacheInstance.Close()

	sender := email.NewLogSender(logger)

	provider, err := identity.NewProvider(identity.ProviderOpts{
		Store:           st,
		Sender:          sender,
		Logger:          logger,
		BaseURL:         cfg.ExternalOrigin,
		SessionTTL:      time.Duration(cfg.Auth.SessionTTLHours) * time.Hour,
		VerificationTTL: time.Duration(cfg.Auth.VerificationTTLMinutes) * time.Minute,
	})
	if err != nil {
		logger.Error("failed to create identity provider", "error", err)
		os.Exit(1)
	}

	orgs, err := org.NewService(org.ServiceOpts{
		Store:         st,
		Cache:         cacheInstance,
		Sender:        sender,
		Logger:        logger,
		BaseURL:       cfg.ExternalOrigin,
		InvitationTTL: time.Duration(cfg.Auth.InvitationTTLHours) * time.Hour,
	})
	if err != nil {
		logger.Error("failed to create org service", "error", err)
		os.Exit(1)
	}

	leagues, err := league.NewService(st, logger)
	if err != nil {
		logger.Error("failed to create league service", "error", err)
		os.Exit(1)
	}

	admin := cfg.Server.BootstrapAdmin
	if err := identity.EnsureAdmin(context.Background(), st, logger, admin.Name, admin.Email, admin.Password); err != nil {
		logger.Error("failed to bootstrap admin", "error", err)
		os.Exit(1)
	}

	limiter := ratelimit.New(cacheInstance, nil)

	srv, err := server.New(cfg, logger, server.Deps{
		Identity: provider,
		Orgs:     orgs,
		Leagues:  leagues,
		Sessions: st,
		Limiter:  limiter,
	})
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go expiryJanitor(ctx, st, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}

// expiryJanitor periodically removes expired sessions and verification
// tokens.
func expiryJanitor(ctx context.Context, st store.Store, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := st.DeleteExpiredSessions(ctx); err != nil {
				logger.Warn("failed to delete expired sessions", "error", err)
			} else if n > 0 {
				logger.Info("deleted expired sessions", "count", n)
			}
			if _, err := st.DeleteExpiredVerifications(ctx); err != nil {
				logger.Warn("failed to delete expired verifications", "error", err)
			}
		}
	}
}
