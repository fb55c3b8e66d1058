package uploader

import (
	"errors"
	"fmt"
	"time"
)

// ErrIsFreeTier stops the queue when the plan or credential no longer allows uploads
var ErrIsFreeTier = errors.New("backup plan does not include media uploads")

// RateLimitedError defers a record until the server's Retry-After has passed
type RateLimitedError struct {
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s: %v", e.RetryAfter, e.Err)
}

func (e *RateLimitedError) Unwrap() error { return e.Err }

// NetworkRetryError backs a record off exponentially after a network failure or 5xx
type NetworkRetryError struct {
	Err error
}

func (e *NetworkRetryError) Error() string {
	return fmt.Sprintf("network retry: %v", e.Err)
}

func (e *NetworkRetryError) Unwrap() error { return e.Err }
