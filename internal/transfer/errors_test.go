package transfer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassification(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantCode     int
		wantNotFound bool
		wantNetwork  bool
		wantRetry    bool
	}{
		{name: "nil", err: nil},
		{name: "404", err: HTTPError(http.StatusNotFound, 0), wantCode: 404, wantNotFound: true},
		{name: "wrapped 404", err: fmt.Errorf("download: %w", HTTPError(404, 0)), wantCode: 404, wantNotFound: true},
		{name: "503", err: HTTPError(503, 0), wantCode: 503, wantRetry: true},
		{name: "403", err: HTTPError(403, 0), wantCode: 403},
		{name: "network", err: NetworkError(errors.New("connection reset")), wantNetwork: true, wantRetry: true},
		{name: "deadline", err: fmt.Errorf("get: %w", context.DeadlineExceeded), wantNetwork: true, wantRetry: true},
		{name: "net timeout", err: timeoutErr{}, wantNetwork: true, wantRetry: true},
		{name: "cancelled is not network", err: context.Canceled},
		{name: "domain error", err: ErrOutOfCapacity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.wantCode, StatusCode(tt.err))
			require.Equal(t, tt.wantNotFound, IsNotFound(tt.err))
			require.Equal(t, tt.wantNetwork, IsNetworkFailureOrTimeout(tt.err))
			require.Equal(t, tt.wantRetry, IsNetworkOr5xx(tt.err))
		})
	}
}

func TestRetryAfter(t *testing.T) {
	d, ok := RetryAfter(HTTPError(429, 3*time.Second))
	require.True(t, ok)
	require.Equal(t, 3*time.Second, d)

	_, ok = RetryAfter(HTTPError(429, 0))
	require.False(t, ok)

	_, ok = RetryAfter(errors.New("plain"))
	require.False(t, ok)
}

func TestError_Message(t *testing.T) {
	require.Equal(t, "http 404: Not Found", HTTPError(404, 0).Error())
	require.Equal(t, "network failure: boom", NetworkError(errors.New("boom")).Error())

	wrapped := &Error{StatusCode: 500, Err: ErrSourceObjectNotFound}
	require.ErrorIs(t, wrapped, ErrSourceObjectNotFound)
	require.Contains(t, wrapped.Error(), "source object not found")
}

func TestSinks(t *testing.T) {
	var got int64
	var s Sink = SinkFunc(func(n int64) { got = n })
	s.Update(42)
	require.Equal(t, int64(42), got)
	require.NotPanics(t, func() { NopSink.Update(1) })
}
