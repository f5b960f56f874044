// Package ratelimit provides rate limiting using the cache subsystem.
package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/openleague/openleague-go/internal/cache"
)

var ErrRateLimited = errors.New("rate limit exceeded")

// Config defines rate limiting parameters.
type Config struct {
	// RequestsPerWindow is the maximum requests allowed per window.
	RequestsPerWindow int64

	// Window is the time window for rate limiting.
	Window time.Duration

	// KeyPrefix is prepended to all rate limit keys.
	KeyPrefix string
}

// DefaultConfig returns sensible rate limiting defaults.
func DefaultConfig() *Config {
	return &Config{
		RequestsPerWindow: 100,
		Window:            cache.TTLRateLimit,
		KeyPrefix:         "ratelimit:",
	}
}

// Limiter provides rate limiting using a cache backend.
type Limiter struct {
	cache  cache.Counter
	config *Config
}

// New creates a new rate limiter.
func New(c cache.Counter, cfg *Config) *Limiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Limiter{cache: c, config: cfg}
}

// Result contains the rate limit check result.
type Result struct {
	Allowed   bool
	Remaining int64
	ResetAt   time.Time
}

// Allow records a request for the given key and reports whether it is
// within the window's quota.
func (l *Limiter) Allow(ctx context.Context, key string) (*Result, error) {
	fullKey := l.config.KeyPrefix + key

	count, resetAt, err := l.cache.Increment(ctx, fullKey, 1, l.config.Window)
	if err != nil {
		return nil, err
	}

	remaining := l.config.RequestsPerWindow - count
	if remaining < 0 {
		remaining = 0
	}

	return &Result{
		Allowed:   count <= l.config.RequestsPerWindow,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}

// Check reads the current quota without recording a request.
func (l *Limiter) Check(ctx context.Context, key string) (*Result, error) {
	fullKey := l.config.KeyPrefix + key

	count, err := l.cache.GetCount(ctx, fullKey)
	if err != nil {
		return nil, err
	}

	remaining := l.config.RequestsPerWindow - count
	if remaining < 0 {
		remaining = 0
	}

	return &Result{
		Allowed:   count < l.config.RequestsPerWindow,
		Remaining: remaining,
		ResetAt:   time.Now().Add(l.config.Window),
	}, nil
}

// Reset clears the rate limit for a key.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	return l.cache.Reset(ctx, l.config.KeyPrefix+key)
}
