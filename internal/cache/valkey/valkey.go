// Package valkey provides a Valkey/Redis cache driver.
package valkey

import (
	"context"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/valkey-io/valkey-go"

	"github.com/openleague/openleague-go/internal/cache"
)

func init() {
	cache.RegisterDriver("valkey", func(config map[string]any) (cache.CacheWithCounter, error) {
		cfg := DefaultConfig()
		if config != nil {
			var opts options
			if err := mapstructure.Decode(config, &opts); err != nil {
				return nil, fmt.Errorf("invalid valkey driver options: %w", err)
			}
			if opts.Addr != "" {
				cfg.Addr = opts.Addr
			}
			cfg.Password = opts.Password
			cfg.DB = opts.DB
		}
		return New(cfg)
	})
}

// options holds settings from [cache.drivers.valkey].
type options struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Config holds Valkey connection configuration.
type Config struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
}

// DefaultConfig returns sensible defaults for a local Valkey.
func DefaultConfig() *Config {
	return &Config{
		Addr:        "localhost:6379",
		DialTimeout: 5 * time.Second,
	}
}

// Cache wraps a valkey client.
type Cache struct {
	client valkey.Client
}

// New connects to Valkey and verifies the connection with a PING.
// Fails fast when the server is unreachable.
func New(cfg *Config) (*Cache, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:      []string{cfg.Addr},
		Password:         cfg.Password,
		SelectDB:         cfg.DB,
		ConnWriteTimeout: cfg.DialTimeout,
		// Server-assisted client caching is not supported by all
		// deployments (miniredis included).
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create valkey client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("valkey health check failed: %w", err)
	}

	return &Cache{client: client}, nil
}

// Get retrieves a value by key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := c.client.Do(ctx, c.client.B().Get().Key(key).Build()).AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, cache.ErrNotFound
		}
		return nil, err
	}
	return value, nil
}

// Set stores a value with the given TTL.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = cache.TTLRoster
	}
	cmd := c.client.B().Set().Key(key).Value(valkey.BinaryString(value)).Ex(ttl).Build()
	return c.client.Do(ctx, cmd).Error()
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Do(ctx, c.client.B().Del().Key(key).Build()).Error()
}

// Exists checks if a key exists.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Do(ctx, c.client.B().Exists().Key(key).Build()).AsInt64()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Increment adds delta to a counter and returns the new value and the
// window reset time. The TTL is set only when the counter is created,
// so the window does not slide.
func (c *Cache) Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, time.Time, error) {
	if ttl == 0 {
		ttl = cache.TTLRateLimit
	}

	count, err := c.client.Do(ctx, c.client.B().Incrby().Key(key).Increment(delta).Build()).AsInt64()
	if err != nil {
		return 0, time.Time{}, err
	}

	if count == delta {
		// First write in this window establishes the expiry.
		cmd := c.client.B().Expire().Key(key).Seconds(int64(ttl / time.Second)).Build()
		if err := c.client.Do(ctx, cmd).Error(); err != nil {
			return 0, time.Time{}, err
		}
		return count, time.Now().Add(ttl), nil
	}

	ms, err := c.client.Do(ctx, c.client.B().Pttl().Key(key).Build()).AsInt64()
	if err != nil || ms < 0 {
		return count, time.Now().Add(ttl), nil
	}
	return count, time.Now().Add(time.Duration(ms) * time.Millisecond), nil
}

// GetCount returns the current counter value.
func (c *Cache) GetCount(ctx context.Context, key string) (int64, error) {
	count, err := c.client.Do(ctx, c.client.B().Get().Key(key).Build()).AsInt64()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}

// Reset sets a counter to 0.
func (c *Cache) Reset(ctx context.Context, key string) error {
	return c.Delete(ctx, key)
}

// Close releases the client connections.
func (c *Cache) Close() error {
	c.client.Close()
	return nil
}

var _ cache.CacheWithCounter = (*Cache)(nil)
