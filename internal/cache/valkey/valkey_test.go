package valkey_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/openleague/openleague-go/internal/cache"
	"github.com/openleague/openleague-go/internal/cache/valkey"
)

func newTestCache(t *testing.T) (*valkey.Cache, *miniredis.Miniredis) {
	t.Helper()

	s := miniredis.RunT(t)
	c, err := valkey.New(&valkey.Config{
		Addr:        s.Addr(),
		DialTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("valkey.New: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c, s
}

func TestNewFailFastUnreachable(t *testing.T) {
	_, err := valkey.New(&valkey.Config{
		Addr:        "localhost:59999",
		DialTimeout: 100 * time.Millisecond,
	})
	if err == nil {
		t.Fatal("expected error for unreachable server")
	}
}

func TestGetSetDelete(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	if _, err := c.Get(ctx, "missing"); !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("Get missing: got %v, want ErrNotFound", err)
	}

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "v" {
		t.Errorf("Get = %q, want v", got)
	}

	exists, err := c.Exists(ctx, "k")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !exists {
		t.Error("Exists = false for set key")
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(ctx, "k"); !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("Get deleted: got %v, want ErrNotFound", err)
	}
}

func TestExpiry(t *testing.T) {
	c, s := newTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	s.FastForward(2 * time.Minute)

	if _, err := c.Get(ctx, "k"); !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("Get after expiry: got %v, want ErrNotFound", err)
	}
}

func TestCounter(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		count, resetAt, err := c.Increment(ctx, "ctr", 1, time.Minute)
		if err != nil {
			t.Fatalf("Increment %d: %v", i, err)
		}
		if count != i {
			t.Errorf("count = %d, want %d", count, i)
		}
		if resetAt.Before(time.Now()) {
			t.Errorf("resetAt in the past: %v", resetAt)
		}
	}

	got, err := c.GetCount(ctx, "ctr")
	if err != nil {
		t.Fatalf("GetCount: %v", err)
	}
	if got != 5 {
		t.Errorf("GetCount = %d, want 5", got)
	}

	if err := c.Reset(ctx, "ctr"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	got, _ = c.GetCount(ctx, "ctr")
	if got != 0 {
		t.Errorf("GetCount after reset = %d, want 0", got)
	}
}

func TestRegisteredDriver(t *testing.T) {
	s := miniredis.RunT(t)

	c, err := cache.New("valkey", map[string]any{"addr": s.Addr()})
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	defer c.Close()

	if err := c.Set(context.Background(), "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
}
