// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"strings"
)

// Config holds the full server configuration.
type Config struct {
	// Mode is the resolved operating mode (prod, dev).
	Mode string `toml:"mode"`

	// ExternalOrigin is the public origin (scheme + host + port) used
	// in emailed links. Example: "https://league.example.com"
	ExternalOrigin string `toml:"external_origin"`

	// ListenAddr is the address to listen on. Example: ":9400"
	ListenAddr string `toml:"listen_addr"`

	Server  ServerConfig  `toml:"server"`
	TLS     TLSConfig     `toml:"tls"`
	Store   StoreConfig   `toml:"store"`
	Cache   CacheConfig   `toml:"cache"`
	Auth    AuthConfig    `toml:"auth"`
	Logging LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// TrustedProxies are CIDRs whose X-Forwarded-For is honored.
	TrustedProxies []string `toml:"trusted_proxies"`

	// BootstrapAdmin, when set, is created verified at startup.
	BootstrapAdmin BootstrapAdmin `toml:"bootstrap_admin"`
}

// BootstrapAdmin holds startup admin credentials.
type BootstrapAdmin struct {
	Name     string `toml:"name"`
	Email    string `toml:"email"`
	Password string `toml:"password"`
}

// TLSConfig holds TLS-related settings.
type TLSConfig struct {
	// Mode is one of: off, static, selfsigned, acme
	Mode string `toml:"mode"`

	// CertFile and KeyFile for static mode
	CertFile string `toml:"cert_file"`
	KeyFile  string `toml:"key_file"`

	// HTTPPort serves ACME challenges and redirects
	HTTPPort int `toml:"http_port"`

	// HTTPSPort for the TLS listener
	HTTPSPort int `toml:"https_port"`

	// SelfSignedDir stores generated dev certificates
	SelfSignedDir string `toml:"self_signed_dir"`

	ACME ACMEConfig `toml:"acme"`
}

// ACMEConfig holds ACME certificate settings.
type ACMEConfig struct {
	Email      string `toml:"email"`
	Domain     string `toml:"domain"`
	Directory  string `toml:"directory"`
	StorageDir string `toml:"storage_dir"`
	UseStaging bool   `toml:"use_staging"`
}

// StoreConfig selects and configures the persistence driver.
type StoreConfig struct {
	Driver  string         `toml:"driver"`
	DataDir string         `toml:"data_dir"`
	Drivers map[string]any `toml:"drivers"`
}

// CacheConfig selects and configures the cache driver.
type CacheConfig struct {
	Driver  string         `toml:"driver"`
	Drivers map[string]any `toml:"drivers"`
}

// AuthConfig holds session and token lifetimes.
type AuthConfig struct {
	SessionTTLHours        int `toml:"session_ttl_hours"`
	VerificationTTLMinutes int `toml:"verification_ttl_minutes"`
	InvitationTTLHours     int `toml:"invitation_ttl_hours"`

	// CookieSecure forces the Secure attribute on the session cookie.
	// Defaults to true outside dev mode.
	CookieSecure *bool `toml:"cookie_secure"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is one of: debug, info, warn, error
	Level string `toml:"level"`
}

// CookieSecureEnabled resolves the tri-state cookie_secure setting.
func (c *Config) CookieSecureEnabled() bool {
	if c.Auth.CookieSecure != nil {
		return *c.Auth.CookieSecure
	}
	return c.Mode != string(ModeDev)
}

// Redacted returns a string representation of the config with secrets
// redacted, suitable for startup logging.
func (c *Config) Redacted() string {
	var sb strings.Builder
	sb.WriteString("Config{\n")
	sb.WriteString(fmt.Sprintf("  Mode: %q,\n", c.Mode))
	sb.WriteString(fmt.Sprintf("  ExternalOrigin: %q,\n", c.ExternalOrigin))
	sb.WriteString(fmt.Sprintf("  ListenAddr: %q,\n", c.ListenAddr))
	sb.WriteString("  Server: {\n")
	sb.WriteString(fmt.Sprintf("    TrustedProxies: %v,\n", c.Server.TrustedProxies))
	sb.WriteString("    BootstrapAdmin: {\n")
	sb.WriteString(fmt.Sprintf("      Name: %q,\n", c.Server.BootstrapAdmin.Name))
	sb.WriteString(fmt.Sprintf("      Email: %q,\n", c.Server.BootstrapAdmin.Email))
	sb.WriteString("      Password: [REDACTED],\n")
	sb.WriteString("    },\n")
	sb.WriteString("  },\n")
	sb.WriteString("  TLS: {\n")
	sb.WriteString(fmt.Sprintf("    Mode: %q,\n", c.TLS.Mode))
	sb.WriteString(fmt.Sprintf("    CertFile: %q,\n", c.TLS.CertFile))
	sb.WriteString(fmt.Sprintf("    KeyFile: %q,\n", c.TLS.KeyFile))
	sb.WriteString(fmt.Sprintf("    HTTPPort: %d,\n", c.TLS.HTTPPort))
	sb.WriteString(fmt.Sprintf("    HTTPSPort: %d,\n", c.TLS.HTTPSPort))
	sb.WriteString(fmt.Sprintf("    SelfSignedDir: %q,\n", c.TLS.SelfSignedDir))
	sb.WriteString(fmt.Sprintf("    ACME: {Email: %q, Domain: %q, UseStaging: %v},\n", c.TLS.ACME.Email, c.TLS.ACME.Domain, c.TLS.ACME.UseStaging))
	sb.WriteString("  },\n")
	sb.WriteString("  Store: {\n")
	sb.WriteString(fmt.Sprintf("    Driver: %q,\n", c.Store.Driver))
	sb.WriteString(fmt.Sprintf("    DataDir: %q,\n", c.Store.DataDir))
	sb.WriteString("  },\n")
	sb.WriteString("  Cache: {\n")
	sb.WriteString(fmt.Sprintf("    Driver: %q,\n", c.Cache.Driver))
	sb.WriteString("  },\n")
	sb.WriteString("  Auth: {\n")
	sb.WriteString(fmt.Sprintf("    SessionTTLHours: %d,\n", c.Auth.SessionTTLHours))
	sb.WriteString(fmt.Sprintf("    VerificationTTLMinutes: %d,\n", c.Auth.VerificationTTLMinutes))
	sb.WriteString(fmt.Sprintf("    InvitationTTLHours: %d,\n", c.Auth.InvitationTTLHours))
	sb.WriteString(fmt.Sprintf("    CookieSecure: %v,\n", c.CookieSecureEnabled()))
	sb.WriteString("  },\n")
	sb.WriteString("  Logging: {\n")
	sb.WriteString(fmt.Sprintf("    Level: %q,\n", c.Logging.Level))
	sb.WriteString("  },\n")
	sb.WriteString("}")
	return sb.String()
}
