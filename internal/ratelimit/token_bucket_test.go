package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func newLimiter(t *testing.T) *TokenBucketLimiter {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewTokenBucketLimiter(rdb)
}

func TestTokenBucketLimiter_Allow_Disabled(t *testing.T) {
	lim := newLimiter(t)
	dec, err := lim.Allow(context.Background(), "backend", "r8_token", Bucket{})
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !dec.Allowed {
		t.Fatalf("expected allowed when bucket disabled")
	}
}

func TestTokenBucketLimiter_Allow_BlocksAfterBurst(t *testing.T) {
	lim := newLimiter(t)
	bucket := Bucket{RequestsPerMinute: 60, BurstSize: 1}

	dec1, err := lim.Allow(context.Background(), "backend", "token-1", bucket)
	if err != nil {
		t.Fatalf("allow 1: %v", err)
	}
	if !dec1.Allowed {
		t.Fatalf("expected first request to be allowed")
	}

	dec2, err := lim.Allow(context.Background(), "backend", "token-1", bucket)
	if err != nil {
		t.Fatalf("allow 2: %v", err)
	}
	if dec2.Allowed {
		t.Fatalf("expected second request to be rate limited")
	}
	if dec2.RetryAfter <= 0 || dec2.RetryAfter > time.Second {
		t.Fatalf("expected retryAfter in (0, 1s], got %s", dec2.RetryAfter)
	}

	decOther, err := lim.Allow(context.Background(), "backend", "token-2", bucket)
	if err != nil {
		t.Fatalf("allow other: %v", err)
	}
	if !decOther.Allowed {
		t.Fatalf("expected other subject to be allowed (independent bucket)")
	}
}

func TestWait_RefillsWithClock(t *testing.T) {
	lim := newLimiter(t)
	base := time.Now()
	calls := 0
	lim.now = func() time.Time {
		calls++
		// every call advances the clock by one refill period
		return base.Add(time.Duration(calls) * time.Second)
	}
	bucket := Bucket{RequestsPerMinute: 60, BurstSize: 1}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Wait(ctx, lim, "backend", "t", bucket); err != nil {
		t.Fatalf("first wait: %v", err)
	}
	if err := Wait(ctx, lim, "backend", "t", bucket); err != nil {
		t.Fatalf("second wait: %v", err)
	}
}

func TestWait_ContextCanceled(t *testing.T) {
	lim := newLimiter(t)
	bucket := Bucket{RequestsPerMinute: 1, BurstSize: 1}
	if err := Wait(context.Background(), lim, "backend", "t", bucket); err != nil {
		t.Fatalf("first wait: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := Wait(ctx, lim, "backend", "t", bucket); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestWait_NilLimiter(t *testing.T) {
	if err := Wait(context.Background(), nil, "backend", "t", Bucket{RequestsPerMinute: 1, BurstSize: 1}); err != nil {
		t.Fatalf("nil limiter should admit: %v", err)
	}
}
