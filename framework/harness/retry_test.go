package harness

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/fastmcp4j/mcp-test-harness/framework"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failingEstablish(failures int, calls *int) func(context.Context) (*Session, error) {
	return func(context.Context) (*Session, error) {
		*calls++
		if *calls <= failures {
			return nil, fmt.Errorf("failure %d", *calls)
		}
		return &Session{}, nil
	}
}

func TestConnectWithRetrySucceedsAfterFailures(t *testing.T) {
	for k := 0; k < 4; k++ {
		t.Run(fmt.Sprintf("%d failures", k), func(t *testing.T) {
			calls := 0
			session, attempts, err := ConnectWithRetry(context.Background(),
				RetryPolicy{MaxAttempts: 5, Delay: time.Millisecond}, "stdio", failingEstablish(k, &calls), nil)
			require.NoError(t, err)
			assert.NotNil(t, session)
			assert.Equal(t, k+1, attempts)
			assert.Equal(t, k+1, calls)
		})
	}
}

func TestConnectWithRetryReturnsLastError(t *testing.T) {
	calls := 0
	_, attempts, err := ConnectWithRetry(context.Background(),
		RetryPolicy{MaxAttempts: 3, Delay: time.Millisecond}, "stdio", failingEstablish(100, &calls), nil)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 3, calls)

	var ce framework.ConnectionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 3, ce.Attempts)
	assert.EqualError(t, ce.Err, "failure 3")
	assert.True(t, framework.IsFatal(err))
}

func TestConnectWithRetryKeepsTransportOfLastError(t *testing.T) {
	establish := func(context.Context) (*Session, error) {
		return nil, framework.ConnectionError{Transport: "sse", Err: errors.New("refused")}
	}
	_, _, err := ConnectWithRetry(context.Background(), RetryPolicy{MaxAttempts: 2}, "stdio", establish, nil)
	assert.EqualError(t, err, "could not connect over sse after 2 attempts: refused")
}

func TestConnectWithRetryNamesTransportForOtherErrors(t *testing.T) {
	establish := func(context.Context) (*Session, error) {
		return nil, framework.ProtocolError{Message: "handshake failed"}
	}
	_, _, err := ConnectWithRetry(context.Background(), RetryPolicy{MaxAttempts: 2}, "streamable", establish, nil)
	var ce framework.ConnectionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "streamable", ce.Transport)
	assert.Contains(t, err.Error(), "could not connect over streamable after 2 attempts")

	_, _, err = ConnectWithRetry(context.Background(), RetryPolicy{}, "", establish, nil)
	assert.Contains(t, err.Error(), "could not connect over tool host")
}

func TestConnectWithRetryWaitsBetweenAttemptsOnly(t *testing.T) {
	calls := 0
	delay := 50 * time.Millisecond
	start := time.Now()
	_, _, err := ConnectWithRetry(context.Background(),
		RetryPolicy{MaxAttempts: 3, Delay: delay}, "stdio", failingEstablish(100, &calls), nil)
	elapsed := time.Since(start)
	require.Error(t, err)
	assert.GreaterOrEqual(t, elapsed, 2*delay)
	assert.Less(t, elapsed, 3*delay)
}

func TestConnectWithRetryZeroAttemptsMeansOne(t *testing.T) {
	calls := 0
	_, attempts, err := ConnectWithRetry(context.Background(), RetryPolicy{}, "stdio", failingEstablish(100, &calls), nil)
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestConnectWithRetryStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	establish := func(context.Context) (*Session, error) {
		calls++
		cancel()
		return nil, errors.New("no")
	}
	start := time.Now()
	_, _, err := ConnectWithRetry(ctx, RetryPolicy{MaxAttempts: 5, Delay: time.Hour}, "stdio", establish, nil)
	assert.Equal(t, context.Canceled, err)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDefaultRetryPolicy(t *testing.T) {
	assert.Equal(t, RetryPolicy{MaxAttempts: 5, Delay: 2 * time.Second}, DefaultRetryPolicy())
}
