package transfer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

var (
	// ErrSourceObjectNotFound means the object to copy onto the media tier is not on the transit tier
	ErrSourceObjectNotFound = errors.New("source object not found")
	// ErrOutOfCapacity means the account has used up its media tier storage
	ErrOutOfCapacity = errors.New("out of remote capacity")
	// ErrMissingFile means the local file to upload no longer exists
	ErrMissingFile = errors.New("missing local file")
)

// Error is a classified transfer failure
type Error struct {
	// StatusCode is the HTTP status, zero for failures without a response
	StatusCode int
	// RetryAfter is the server requested delay, zero if none was sent
	RetryAfter time.Duration
	// Network is set for timeouts and connectivity failures
	Network bool
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Network:
		return fmt.Sprintf("network failure: %v", e.Err)
	case e.Err != nil:
		return fmt.Sprintf("http %d: %v", e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("http %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPError builds an Error for a non-2xx response
func HTTPError(statusCode int, retryAfter time.Duration) *Error {
	return &Error{StatusCode: statusCode, RetryAfter: retryAfter}
}

// NetworkError builds an Error for a failure that never produced a response
func NetworkError(err error) *Error {
	return &Error{Network: true, Err: err}
}

// StatusCode returns the HTTP status carried by err, or zero
func StatusCode(err error) int {
	var te *Error
	if errors.As(err, &te) {
		return te.StatusCode
	}
	return 0
}

// IsNotFound reports whether the remote object is gone
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsNetworkFailureOrTimeout reports whether err is a connectivity problem
func IsNetworkFailureOrTimeout(err error) bool {
	if err == nil {
		return false
	}
	var te *Error
	if errors.As(err, &te) && te.Network {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// Is5xx reports whether err carries a server error status
func Is5xx(err error) bool {
	code := StatusCode(err)
	return code >= 500 && code <= 599
}

// IsNetworkOr5xx reports whether err is worth retrying after a delay
func IsNetworkOr5xx(err error) bool {
	return IsNetworkFailureOrTimeout(err) || Is5xx(err)
}

// RetryAfter returns the server requested delay, if any
func RetryAfter(err error) (time.Duration, bool) {
	var te *Error
	if errors.As(err, &te) && te.RetryAfter > 0 {
		return te.RetryAfter, true
	}
	return 0, false
}
