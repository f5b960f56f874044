package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/openleague/openleague-go/internal/cache"
	"github.com/openleague/openleague-go/internal/cache/memory"
)

func TestGetSet(t *testing.T) {
	c := memory.New(time.Minute, 0)
	defer c.Close()
	ctx := context.Background()

	if _, err := c.Get(ctx, "missing"); !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("Get missing: got %v, want ErrNotFound", err)
	}

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "v" {
		t.Errorf("Get = %q, want v", got)
	}

	// Mutating the returned slice must not affect the stored value.
	got[0] = 'x'
	got, _ = c.Get(ctx, "k")
	if string(got) != "v" {
		t.Error("returned slice aliases stored value")
	}
}

func TestExpiry(t *testing.T) {
	c := memory.New(time.Minute, 0)
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	if _, err := c.Get(ctx, "k"); !errors.Is(err, cache.ErrExpired) {
		t.Errorf("Get expired: got %v, want ErrExpired", err)
	}
	exists, err := c.Exists(ctx, "k")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Error("expired key reported as existing")
	}
}

func TestDelete(t *testing.T) {
	c := memory.New(time.Minute, 0)
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(ctx, "k"); !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("Get deleted: got %v, want ErrNotFound", err)
	}
}

func TestCounter(t *testing.T) {
	c := memory.New(time.Minute, 0)
	defer c.Close()
	ctx := context.Background()

	count, resetAt, err := c.Increment(ctx, "ctr", 1, 30*time.Second)
	if err != nil {
		t.Fatalf("Increment: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
	if time.Until(resetAt) > 31*time.Second {
		t.Errorf("resetAt too far out: %v", resetAt)
	}

	// Same window: value grows, reset time stays put.
	count2, resetAt2, err := c.Increment(ctx, "ctr", 2, 30*time.Second)
	if err != nil {
		t.Fatalf("Increment: %v", err)
	}
	if count2 != 3 {
		t.Errorf("count = %d, want 3", count2)
	}
	if !resetAt2.Equal(resetAt) {
		t.Errorf("resetAt changed within window: %v vs %v", resetAt, resetAt2)
	}

	got, err := c.GetCount(ctx, "ctr")
	if err != nil {
		t.Fatalf("GetCount: %v", err)
	}
	if got != 3 {
		t.Errorf("GetCount = %d, want 3", got)
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
	c, err := cache.New("memory", map[string]any{
		"default_ttl_seconds": 10,
	})
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	defer c.Close()

	if err := c.Set(context.Background(), "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
}
