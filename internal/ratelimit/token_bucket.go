package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "imagegenie:rl"

type Bucket struct {
	RequestsPerMinute int `yaml:"requestsPerMinute"`
	BurstSize         int `yaml:"burstSize"`
}

func (b Bucket) Enabled() bool {
	return b.RequestsPerMinute > 0 && b.BurstSize > 0
}

type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, scope string, subject string, bucket Bucket) (Decision, error)
}

// TokenBucketLimiter keeps one bucket per (scope, subject) in Redis, so several
// processes sharing an API token share its budget.
type TokenBucketLimiter struct {
	rdb *redis.Client
	now func() time.Time
}

func NewTokenBucketLimiter(rdb *redis.Client) *TokenBucketLimiter {
	return &TokenBucketLimiter{rdb: rdb, now: time.Now}
}

var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local ttl_ms = tonumber(ARGV[4])

local tokens = tonumber(redis.call("HGET", key, "tokens"))
local ts = tonumber(redis.call("HGET", key, "ts"))
if not tokens then tokens = capacity end
if not ts or now < ts then ts = now end

tokens = math.min(capacity, tokens + (now - ts) * (rate / 1000.0))

local allowed = 0
local wait_ms = 0
if tokens >= 1.0 then
  allowed = 1
  tokens = tokens - 1.0
elseif rate > 0 then
  wait_ms = math.ceil((1.0 - tokens) / rate * 1000.0)
else
  wait_ms = 60000
end

redis.call("HSET", key, "tokens", tokens, "ts", now)
redis.call("PEXPIRE", key, ttl_ms)
return {allowed, wait_ms}
`)

func (l *TokenBucketLimiter) Allow(ctx context.Context, scope string, subject string, bucket Bucket) (Decision, error) {
	if l == nil || l.rdb == nil || !bucket.Enabled() {
		return Decision{Allowed: true}, nil
	}
	scope = strings.TrimSpace(scope)
	if scope == "" {
		scope = "default"
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = "unknown"
	}
	key := fmt.Sprintf("%s:%s:%s", keyPrefix, scope, sha256Hex(subject))

	ratePerSec := float64(bucket.RequestsPerMinute) / 60.0
	capacity := float64(bucket.BurstSize)
	ttlMS := computeTTLMS(ratePerSec, capacity)

	res, err := tokenBucketScript.Run(ctx, l.rdb, []string{key}, ratePerSec, capacity, l.now().UTC().UnixMilli(), ttlMS).Result()
	if err != nil {
		return Decision{}, err
	}
	vals, ok := res.([]interface{})
	if !ok || len(vals) < 2 {
		return Decision{}, fmt.Errorf("unexpected redis ratelimit response: %T", res)
	}

	allowed, _ := vals[0].(int64)
	waitMS, _ := vals[1].(int64)
	if allowed == 1 {
		return Decision{Allowed: true}, nil
	}
	if waitMS <= 0 {
		waitMS = 1
	}
	return Decision{Allowed: false, RetryAfter: time.Duration(waitMS) * time.Millisecond}, nil
}

// Wait blocks until the bucket admits one request or ctx ends. Limiter errors
// are returned to the caller, who decides whether to fail open.
func Wait(ctx context.Context, lim Limiter, scope, subject string, bucket Bucket) error {
	if lim == nil || !bucket.Enabled() {
		return nil
	}
	for {
		dec, err := lim.Allow(ctx, scope, subject, bucket)
		if err != nil {
			return err
		}
		if dec.Allowed {
			return nil
		}
		t := time.NewTimer(dec.RetryAfter)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// computeTTLMS keeps bucket state for about two refill cycles, bounded to [30s, 1h].
func computeTTLMS(ratePerSec float64, capacity float64) int64 {
	const minTTL = 30 * time.Second
	const maxTTL = 1 * time.Hour

	if ratePerSec <= 0 || capacity <= 0 {
		return int64((2 * time.Minute).Milliseconds())
	}
	ttl := time.Duration(math.Ceil(capacity/ratePerSec*2.0))*time.Second + 5*time.Second
	if ttl < minTTL {
		ttl = minTTL
	}
	if ttl > maxTTL {
		ttl = maxTTL
	}
	return ttl.Milliseconds()
}
