package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Mode represents the server operating mode.
type Mode string

const (
	ModeProd Mode = "prod"
	ModeDev  Mode = "dev"
)

// ParseMode parses a mode string, returning an error for invalid
// values.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "prod", "":
		return ModeProd, nil
	case "dev":
		return ModeDev, nil
	default:
		return "", fmt.Errorf("invalid mode %q: must be one of prod, dev", s)
	}
}

// LoaderOptions controls how configuration is loaded.
type LoaderOptions struct {
	// ConfigPath is the path to a TOML config file (optional).
	// If provided but the file is missing or invalid, loading fails.
	ConfigPath string

	// ModeFlag is the --mode flag value (overrides config file mode).
	ModeFlag string

	// FlagOverrides are CLI flag values that override config file values.
	FlagOverrides FlagOverrides

	// Logger is used for warning messages (e.g., undecoded keys).
	// If nil, slog.Default() is used.
	Logger *slog.Logger
}

// FlagOverrides holds CLI flag values that override config file values.
type FlagOverrides struct {
	ListenAddr     *string
	ExternalOrigin *string
	TLSMode        *string
	StoreDriver    *string
	DataDir        *string
	CacheDriver    *string
	LogLevel       *string
	AdminEmail     *string
	AdminPassword  *string
}

// fileConfig mirrors Config with pointer sections to detect presence.
type fileConfig struct {
	Mode           string `toml:"mode"`
	ExternalOrigin string `toml:"external_origin"`
	ListenAddr     string `toml:"listen_addr"`

	Server  *serverConfig  `toml:"server"`
	TLS     *TLSConfig     `toml:"tls"`
	Store   *StoreConfig   `toml:"store"`
	Cache   *CacheConfig   `toml:"cache"`
	Auth    *AuthConfig    `toml:"auth"`
	Logging *LoggingConfig `toml:"logging"`
}

type serverConfig struct {
	TrustedProxies []string        `toml:"trusted_proxies"`
	BootstrapAdmin *BootstrapAdmin `toml:"bootstrap_admin"`
}

// Load loads configuration with the following precedence:
//  1. Determine effective mode: --mode flag > mode in config file > default (prod)
//  2. Start from mode preset defaults
//  3. Overlay TOML config file values
//  4. Overlay CLI flags
//  5. Validate enum fields
//
// If ConfigPath is provided but the file is missing, unreadable, or
// invalid TOML, Load returns an error (fail fast). Unknown TOML keys
// produce a warning but do not fail the load.
func Load(opts LoaderOptions) (*Config, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var fc fileConfig

	if opts.ConfigPath != "" {
		data, err := os.ReadFile(opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", opts.ConfigPath, err)
		}
		md, err := toml.Decode(string(data), &fc)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", opts.ConfigPath, err)
		}

		// Warn about undecoded keys (do not fail)
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			logger.Warn("config file contains undecoded keys", "path", opts.ConfigPath, "keys", keys)
		}
	}

	modeStr := string(ModeProd)
	if fc.Mode != "" {
		modeStr = fc.Mode
	}
	if opts.ModeFlag != "" {
		modeStr = opts.ModeFlag
	}
	mode, err := ParseMode(modeStr)
	if err != nil {
		return nil, err
	}

	cfg := presetForMode(mode)

	if opts.ConfigPath != "" {
		overlayFileConfig(cfg, &fc)
	}
	overlayFlags(cfg, opts.FlagOverrides)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func presetForMode(mode Mode) *Config {
	if mode == ModeDev {
		return DevConfig()
	}
	return ProdConfig()
}

// ProdConfig returns production-safe defaults.
func ProdConfig() *Config {
	return &Config{
		Mode:           string(ModeProd),
		ExternalOrigin: "https://localhost:9400",
		ListenAddr:     ":9400",
		Server: ServerConfig{
			TrustedProxies: []string{"127.0.0.0/8", "::1/128"},
		},
		TLS: TLSConfig{
			Mode:          "selfsigned",
			HTTPPort:      9480,
			HTTPSPort:     9400,
			SelfSignedDir: ".openleague/certs",
			ACME: ACMEConfig{
				Directory:  "https://acme-v02.api.letsencrypt.org/directory",
				StorageDir: ".openleague/acme",
				UseStaging: false,
			},
		},
		Store: StoreConfig{
			Driver:  "sqlite",
			DataDir: ".openleague/data",
		},
		Cache: CacheConfig{
			Driver: "memory",
		},
		Auth: AuthConfig{
			SessionTTLHours:        168, // 7 days
			VerificationTTLMinutes: 60,
			InvitationTTLHours:     48,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DevConfig returns development defaults: plain HTTP, debug logging.
func DevConfig() *Config {
	cfg := ProdConfig()
	cfg.Mode = string(ModeDev)
	cfg.ExternalOrigin = "http://localhost:9400"
	cfg.TLS.Mode = "off"
	cfg.TLS.ACME.Directory = "https://acme-staging-v02.api.letsencrypt.org/directory"
	cfg.TLS.ACME.UseStaging = true
	cfg.Logging.Level = "debug"
	return cfg
}

func overlayFileConfig(cfg *Config, fc *fileConfig) {
	if fc.ExternalOrigin != "" {
		cfg.ExternalOrigin = fc.ExternalOrigin
	}
	if fc.ListenAddr != "" {
		cfg.ListenAddr = fc.ListenAddr
	}

	if fc.Server != nil {
		if len(fc.Server.TrustedProxies) > 0 {
			cfg.Server.TrustedProxies = fc.Server.TrustedProxies
		}
		if fc.Server.BootstrapAdmin != nil {
			cfg.Server.BootstrapAdmin = *fc.Server.BootstrapAdmin
		}
	}

	if fc.TLS != nil {
		if fc.TLS.Mode != "" {
			cfg.TLS.Mode = fc.TLS.Mode
		}
		if fc.TLS.CertFile != "" {
			cfg.TLS.CertFile = fc.TLS.CertFile
		}
		if fc.TLS.KeyFile != "" {
			cfg.TLS.KeyFile = fc.TLS.KeyFile
		}
		if fc.TLS.HTTPPort != 0 {
			cfg.TLS.HTTPPort = fc.TLS.HTTPPort
		}
		if fc.TLS.HTTPSPort != 0 {
			cfg.TLS.HTTPSPort = fc.TLS.HTTPSPort
		}
		if fc.TLS.SelfSignedDir != "" {
			cfg.TLS.SelfSignedDir = fc.TLS.SelfSignedDir
		}
		if fc.TLS.ACME.Email != "" {
			cfg.TLS.ACME.Email = fc.TLS.ACME.Email
		}
		if fc.TLS.ACME.Domain != "" {
			cfg.TLS.ACME.Domain = fc.TLS.ACME.Domain
		}
		if fc.TLS.ACME.Directory != "" {
			cfg.TLS.ACME.Directory = fc.TLS.ACME.Directory
		}
		if fc.TLS.ACME.StorageDir != "" {
			cfg.TLS.ACME.StorageDir = fc.TLS.ACME.StorageDir
		}
		// UseStaging is a bool, overlay when the TLS section is present
		cfg.TLS.ACME.UseStaging = fc.TLS.ACME.UseStaging
	}

	if fc.Store != nil {
		if fc.Store.Driver != "" {
			cfg.Store.Driver = fc.Store.Driver
		}
		if fc.Store.DataDir != "" {
			cfg.Store.DataDir = fc.Store.DataDir
		}
		if len(fc.Store.Drivers) > 0 {
			cfg.Store.Drivers = fc.Store.Drivers
		}
	}

	if fc.Cache != nil {
		if fc.Cache.Driver != "" {
			cfg.Cache.Driver = fc.Cache.Driver
		}
		if len(fc.Cache.Drivers) > 0 {
			cfg.Cache.Drivers = fc.Cache.Drivers
		}
	}

	if fc.Auth != nil {
		if fc.Auth.SessionTTLHours > 0 {
			cfg.Auth.SessionTTLHours = fc.Auth.SessionTTLHours
		}
		if fc.Auth.VerificationTTLMinutes > 0 {
			cfg.Auth.VerificationTTLMinutes = fc.Auth.VerificationTTLMinutes
		}
		if fc.Auth.InvitationTTLHours > 0 {
			cfg.Auth.InvitationTTLHours = fc.Auth.InvitationTTLHours
		}
		if fc.Auth.CookieSecure != nil {
			cfg.Auth.CookieSecure = fc.Auth.CookieSecure
		}
	}

	if fc.Logging != nil {
		if fc.Logging.Level != "" {
			cfg.Logging.Level = fc.Logging.Level
		}
	}
}

func overlayFlags(cfg *Config, f FlagOverrides) {
	if f.ListenAddr != nil && *f.ListenAddr != "" {
		cfg.ListenAddr = *f.ListenAddr
	}
	if f.ExternalOrigin != nil && *f.ExternalOrigin != "" {
		cfg.ExternalOrigin = *f.ExternalOrigin
	}
	if f.TLSMode != nil && *f.TLSMode != "" {
		cfg.TLS.Mode = *f.TLSMode
	}
	if f.StoreDriver != nil && *f.StoreDriver != "" {
		cfg.Store.Driver = *f.StoreDriver
	}
	if f.DataDir != nil && *f.DataDir != "" {
		cfg.Store.DataDir = *f.DataDir
	}
	if f.CacheDriver != nil && *f.CacheDriver != "" {
		cfg.Cache.Driver = *f.CacheDriver
	}
	if f.LogLevel != nil && *f.LogLevel != "" {
		cfg.Logging.Level = *f.LogLevel
	}
	if f.AdminEmail != nil && *f.AdminEmail != "" {
		cfg.Server.BootstrapAdmin.Email = *f.AdminEmail
	}
	if f.AdminPassword != nil && *f.AdminPassword != "" {
		cfg.Server.BootstrapAdmin.Password = *f.AdminPassword
	}
}

// validate checks enum-like config fields, failing fast on invalid
// values.
func validate(cfg *Config) error {
	switch cfg.TLS.Mode {
	case "off", "static", "selfsigned", "acme":
	default:
		return fmt.Errorf("invalid tls.mode %q: must be one of off, static, selfsigned, acme", cfg.TLS.Mode)
	}

	if cfg.TLS.Mode == "static" && (cfg.TLS.CertFile == "" || cfg.TLS.KeyFile == "") {
		return fmt.Errorf("tls.cert_file and tls.key_file are required when tls.mode is static")
	}
	if cfg.TLS.Mode == "acme" && cfg.TLS.ACME.Domain == "" {
		return fmt.Errorf("tls.acme.domain is required when tls.mode is acme")
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level %q: must be one of debug, info, warn, error", cfg.Logging.Level)
	}

	if cfg.Store.Driver == "" {
		return fmt.Errorf("store.driver is required")
	}
	return nil
}
