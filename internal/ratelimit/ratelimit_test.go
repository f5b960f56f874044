package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/openleague/openleague-go/internal/cache/memory"
	"github.com/openleague/openleague-go/internal/ratelimit"
)

func TestLimiter_Allow(t *testing.T) {
	cache := memory.New(time.Minute, 0)
	defer cache.Close()

	cfg := &ratelimit.Config{
		RequestsPerWindow: 5,
		Window:            time.Minute,
		KeyPrefix:         "test:",
	}
	limiter := ratelimit.New(cache, cfg)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		result, err := limiter.Allow(ctx, "client1")
		if err != nil {
			t.Fatalf("Allow failed: %v", err)
		}
		if !result.Allowed {
			t.Errorf("request %d should be allowed", i+1)
		}
		expectedRemaining := int64(4 - i)
		if result.Remaining != expectedRemaining {
			t.Errorf("request %d: expected remaining %d, got %d", i+1, expectedRemaining, result.Remaining)
		}
	}

	result, err := limiter.Allow(ctx, "client1")
	if err != nil {
		t.Fatalf("Allow failed: %v", err)
	}
	if result.Allowed {
		t.Error("6th request should be denied")
	}
	if result.Remaining != 0 {
		t.Errorf("expected remaining 0, got %d", result.Remaining)
	}
}

func TestLimiter_DifferentKeys(t *testing.T) {
	cache := memory.New(time.Minute, 0)
	defer cache.Close()

	cfg := &ratelimit.Config{
		RequestsPerWindow: 2,
		Window:            time.Minute,
		KeyPrefix:         "test:",
	}
	limiter := ratelimit.New(cache, cfg)
	ctx := context.Background()

	limiter.Allow(ctx, "client1")
	limiter.Allow(ctx, "client1")
	result, _ := limiter.Allow(ctx, "client1")
	if result.Allowed {
		t.Error("client1 should be over quota")
	}

	// client2 has its own quota.
	result, err := limiter.Allow(ctx, "client2")
	if err != nil {
		t.Fatalf("Allow failed: %v", err)
	}
	if !result.Allowed {
		t.Error("client2 should be allowed")
	}
}

func TestLimiter_Check(t *testing.T) {
	cache := memory.New(time.Minute, 0)
	defer cache.Close()

	limiter := ratelimit.New(cache, &ratelimit.Config{
		RequestsPerWindow: 2,
		Window:            time.Minute,
		KeyPrefix:         "test:",
	})
	ctx := context.Background()

	// Check does not consume quota.
	for i := 0; i < 5; i++ {
		result, err := limiter.Check(ctx, "client1")
		if err != nil {
			t.Fatalf("Check failed: %v", err)
		}
		if !result.Allowed {
			t.Error("Check should not consume quota")
		}
	}

	limiter.Allow(ctx, "client1")
	result, _ := limiter.Check(ctx, "client1")
	if result.Remaining != 1 {
		t.Errorf("expected remaining 1, got %d", result.Remaining)
	}
}

func TestLimiter_Reset(t *testing.T) {
	cache := memory.New(time.Minute, 0)
	defer cache.Close()

	limiter := ratelimit.New(cache, &ratelimit.Config{
		RequestsPerWindow: 1,
		Window:            time.Minute,
		KeyPrefix:         "test:",
	})
	ctx := context.Background()

	limiter.Allow(ctx, "client1")
	if result, _ := limiter.Allow(ctx, "client1"); result.Allowed {
		t.Error("client1 should be over quota")
	}

	if err := limiter.Reset(ctx, "client1"); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if result, _ := limiter.Allow(ctx, "client1"); !result.Allowed {
		t.Error("client1 should be allowed after reset")
	}
}
