// Package backoff computes capped exponential retry delays
package backoff

import (
	"math"
	"time"
)

// Delay returns minDelay doubled once per prior failure, capped at maxDelay
func Delay(failures int, minDelay, maxDelay time.Duration) time.Duration {
	if failures <= 0 {
		return minDelay
	}
	d := float64(minDelay) * math.Pow(2, float64(failures))
	if d >= float64(maxDelay) || math.IsInf(d, 0) {
		return maxDelay
	}
	return time.Duration(d)
}
