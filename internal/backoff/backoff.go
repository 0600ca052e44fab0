package backoff

import (
	"math"
	"math/rand"
	"time"
)

// Compute returns a delay in seconds based on attempts and policy.
// attempts is expected to be >= 0.
func Compute(policy string, baseSeconds int, maxSeconds int, attempts int, rng *rand.Rand) int {
	if attempts < 0 {
		attempts = 0
	}
	if baseSeconds <= 0 {
		baseSeconds = 1
	}
	if maxSeconds <= 0 {
		maxSeconds = baseSeconds
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	switch policy {
	case "fixed":
		return min(baseSeconds, maxSeconds)
	case "linear":
		return min(baseSeconds*max(1, attempts), maxSeconds)
	case "exponential":
		return min(int(float64(baseSeconds)*math.Pow(2, float64(attempts))), maxSeconds)
	case "exp_equal_jitter":
		maxDelay := min(int(float64(baseSeconds)*math.Pow(2, float64(attempts))), maxSeconds)
		half := maxDelay / 2
		return half + rng.Intn(half+1)
	default: // exp_full_jitter
		maxDelay := min(int(float64(baseSeconds)*math.Pow(2, float64(attempts))), maxSeconds)
		if maxDelay <= 0 {
			return 0
		}
		return rng.Intn(maxDelay + 1)
	}
}

// ReconnectDelay implements the worker channel's reconnect formula:
// delay_n = base * 2^n, uncapped and unjittered, reset to attempt 0 on a
// successful open. It is the "exponential" policy of Compute specialized
// to millisecond base units with no max cap (the caller decides whether to
// cap it), since a channel reconnect loop has no natural maxSeconds the way
// a job retry does.
func ReconnectDelay(baseMs int, attempt int) time.Duration {
	if baseMs <= 0 {
		baseMs = 1
	}
	if attempt < 0 {
		attempt = 0
	}
	ms := float64(baseMs) * math.Pow(2, float64(attempt))
	return time.Duration(ms) * time.Millisecond
}
