package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/osvaldoandrade/imagegenie/internal/metrics"
	"github.com/osvaldoandrade/imagegenie/internal/ratelimit"
	"github.com/osvaldoandrade/imagegenie/pkg/config"

	"github.com/gin-gonic/gin"
)

// RateLimitAPI throttles mutating calls per bearer token, or per client IP when
// auth is open.
func RateLimitAPI(lim ratelimit.Limiter, cfg *config.Config, operation string) gin.HandlerFunc {
	return rateLimit(lim, "api", operation, cfg.APILimit)
}

func rateLimit(lim ratelimit.Limiter, scope string, operation string, bcfg config.RateLimitBucketConfig) gin.HandlerFunc {
	bucket := ratelimit.Bucket{RequestsPerMinute: bcfg.RequestsPerMinute, BurstSize: bcfg.BurstSize}
	return func(c *gin.Context) {
		if lim == nil || !bucket.Enabled() {
			c.Next()
			return
		}

		subject := bearerToken(c.GetHeader("Authorization"))
		if subject == "" {
			subject = c.ClientIP()
		}

		dec, err := lim.Allow(c.Request.Context(), scope, subject, bucket)
		if err != nil {
			slog.Default().Warn("rate limit check failed", "scope", scope, "op", operation, "err", err)
			c.Next()
			return
		}
		if dec.Allowed {
			c.Next()
			return
		}

		retryAfterSeconds := int(dec.RetryAfter.Seconds())
		if retryAfterSeconds <= 0 {
			retryAfterSeconds = 1
		}
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
		metrics.RateLimitHitsTotal.WithLabelValues(scope, operation).Inc()
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":             "rate limit exceeded",
			"scope":             scope,
			"operation":         operation,
			"retryAfterSeconds": retryAfterSeconds,
		})
	}
}

func bearerToken(authHeader string) string {
	authHeader = strings.TrimSpace(authHeader)
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
