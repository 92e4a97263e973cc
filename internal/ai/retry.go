package ai

import (
	"math/rand"
	"strings"
	"time"
)

const maxAttempts = 3

// sleep is swapped out in tests so backoff does not slow the suite.
var sleep = time.Sleep

// withRetry runs fn up to maxAttempts times. Only transient upstream
// failures are retried; anything else surfaces immediately. Backoff is
// exponential starting at one second with up to a second of jitter.
func withRetry[T any](fn func() (T, error)) (T, error) {
	var (
		out     T
		lastErr error
	)
	for i := 0; i < maxAttempts; i++ {
		out, lastErr = fn()
		if lastErr == nil {
			return out, nil
		}
		if !retryable(lastErr) || i == maxAttempts-1 {
			return out, lastErr
		}
		delay := time.Duration(1<<i)*time.Second + time.Duration(rand.Int63n(int64(time.Second)))
		sleep(delay)
	}
	return out, lastErr
}

func retryable(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED") ||
		strings.Contains(msg, "500") ||
		strings.Contains(msg, "503")
}
