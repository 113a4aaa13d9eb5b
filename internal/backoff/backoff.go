package backoff

import (
	"math"
	"math/rand"
	"time"
)

// Policies understood by Delay.
const (
	Fixed          = "fixed"
	Linear         = "linear"
	Exponential    = "exponential"
	ExpEqualJitter = "exp_equal_jitter"
	ExpFullJitter  = "exp_full_jitter"
)

// Delay returns how long to wait before poll number attempt (0-based).
func Delay(policy string, base, limit time.Duration, attempt int, rng *rand.Rand) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	if limit <= 0 {
		limit = base
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	switch policy {
	case Fixed:
		return minDur(base, limit)
	case Linear:
		return minDur(base*time.Duration(maxInt(1, attempt)), limit)
	case ExpEqualJitter:
		ceil := expDelay(base, limit, attempt)
		half := ceil / 2
		return half + time.Duration(rng.Int63n(int64(half)+1))
	case ExpFullJitter:
		ceil := expDelay(base, limit, attempt)
		if ceil <= 0 {
			return 0
		}
		return time.Duration(rng.Int63n(int64(ceil) + 1))
	default: // exponential
		return expDelay(base, limit, attempt)
	}
}

func expDelay(base, limit time.Duration, attempt int) time.Duration {
	f := float64(base) * math.Pow(2, float64(attempt))
	if f >= float64(limit) {
		return limit
	}
	return time.Duration(f)
}

func minDur(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
