// Package cache provides TTL key-value storage used for roster
// projections and rate limiting.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

var (
	ErrNotFound = errors.New("key not found")
	ErrExpired  = errors.New("key expired")
)

// Cache provides TTL-based key-value storage.
type Cache interface {
	// Get retrieves a value by key. Returns ErrNotFound if not present.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL. If TTL is 0, use default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key.
	Delete(ctx context.Context, key string) error

	// Exists checks if a key exists and is not expired.
	Exists(ctx context.Context, key string) (bool, error)

	// Close releases resources.
	Close() error
}

// Counter provides atomic increment operations for rate limiting.
type Counter interface {
	// Increment adds delta to the counter and returns the new value and
	// the window reset time. A missing key is created with the given TTL.
	Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, time.Time, error)

	// GetCount returns the current counter value, 0 if not found.
	GetCount(ctx context.Context, key string) (int64, error)

	// Reset sets the counter to 0.
	Reset(ctx context.Context, key string) error
}

// CacheWithCounter combines Cache and Counter.
type CacheWithCounter interface {
	Cache
	Counter
}

// Default TTLs for the cache categories we use.
const (
	TTLRoster    = 30 * time.Second // roster projections
	TTLRateLimit = 1 * time.Minute  // rate limit window
)

// DriverFactory constructs a cache from its driver-specific options.
type DriverFactory func(config map[string]any) (CacheWithCounter, error)

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]DriverFactory)
)

// RegisterDriver makes a cache driver available by name. Called from
// driver package init functions.
func RegisterDriver(name string, factory DriverFactory) {
	driversMu.Lock()
	defer driversMu.Unlock()

	if _, dup := drivers[name]; dup {
		panic(fmt.Sprintf("cache: driver %q registered twice", name))
	}
	drivers[name] = factory
}

// New creates a cache using the named registered driver.
func New(name string, config map[string]any) (CacheWithCounter, error) {
	driversMu.RLock()
	factory, ok := drivers[name]
	driversMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown cache driver %q (available: %v)", name, AvailableDrivers())
	}
	return factory(config)
}

// AvailableDrivers returns the registered driver names, sorted.
func AvailableDrivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()

	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
