package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/osvaldoandrade/imagegenie/internal/ratelimit"
	"github.com/osvaldoandrade/imagegenie/pkg/config"

	"github.com/gin-gonic/gin"
)

// mockLimiter implements ratelimit.Limiter for testing
type mockLimiter struct {
	decision ratelimit.Decision
	err      error
	subject  string
	calls    int
}

func (m *mockLimiter) Allow(ctx context.Context, scope string, subject string, bucket ratelimit.Bucket) (ratelimit.Decision, error) {
	m.calls++
	m.subject = subject
	return m.decision, m.err
}

func enabledConfig() *config.Config {
	return &config.Config{APILimit: config.RateLimitBucketConfig{RequestsPerMinute: 60, BurstSize: 5}}
}

func newLimitContext(authz string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)
	ctx.Request = httptest.NewRequest(http.MethodPost, "/v1/imagegenie/batches", nil)
	ctx.Request.RemoteAddr = "10.0.0.7:5555"
	if authz != "" {
		ctx.Request.Header.Set("Authorization", authz)
	}
	return ctx, rec
}

func TestRateLimitAPI_DisabledBucket(t *testing.T) {
	limiter := &mockLimiter{decision: ratelimit.Decision{Allowed: false}}
	ctx, _ := newLimitContext("Bearer t")

	RateLimitAPI(limiter, &config.Config{}, "submit_batch")(ctx)

	if ctx.IsAborted() || limiter.calls != 0 {
		t.Fatal("expected request to pass through for disabled bucket")
	}
}

func TestRateLimitAPI_Allowed(t *testing.T) {
	limiter := &mockLimiter{decision: ratelimit.Decision{Allowed: true}}
	ctx, _ := newLimitContext("Bearer tok")

	RateLimitAPI(limiter, enabledConfig(), "submit_batch")(ctx)

	if ctx.IsAborted() {
		t.Fatal("expected request to pass through when rate limit allows")
	}
	if limiter.subject != "tok" {
		t.Fatalf("expected bearer token as subject, got %q", limiter.subject)
	}
}

func TestRateLimitAPI_FallsBackToClientIP(t *testing.T) {
	limiter := &mockLimiter{decision: ratelimit.Decision{Allowed: true}}
	ctx, _ := newLimitContext("")

	RateLimitAPI(limiter, enabledConfig(), "submit_batch")(ctx)

	if limiter.subject != "10.0.0.7" {
		t.Fatalf("expected client ip subject, got %q", limiter.subject)
	}
}

func TestRateLimitAPI_Denied(t *testing.T) {
	limiter := &mockLimiter{decision: ratelimit.Decision{Allowed: false, RetryAfter: 3 * time.Second}}
	ctx, rec := newLimitContext("Bearer tok")

	RateLimitAPI(limiter, enabledConfig(), "submit_batch")(ctx)

	if !ctx.IsAborted() {
		t.Fatal("expected request to be aborted")
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "3" {
		t.Fatalf("expected Retry-After 3, got %q", got)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["operation"] != "submit_batch" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestRateLimitAPI_FailsOpen(t *testing.T) {
	limiter := &mockLimiter{err: errors.New("redis down")}
	ctx, _ := newLimitContext("Bearer tok")

	RateLimitAPI(limiter, enabledConfig(), "submit_batch")(ctx)

	if ctx.IsAborted() {
		t.Fatal("expected fail-open on limiter error")
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"":              "",
		"Bearer abc":    "abc",
		"bearer  abc  ": "abc",
		"Basic abc":     "",
		"Bearerabc":     "",
	}
	for in, want := range cases {
		if got := bearerToken(in); got != want {
			t.Errorf("bearerToken(%q) = %q, want %q", in, got, want)
		}
	}
}
