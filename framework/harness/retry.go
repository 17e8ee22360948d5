package harness

import (
	"context"
	"errors"
	"time"

	"github.com/fastmcp4j/mcp-test-harness/framework"
)

const (
	DefaultMaxAttempts = 5
	DefaultRetryDelay  = 2 * time.Second
)

// RetryPolicy controls how session establishment is retried. Only establishment is retried;
// operation calls never are.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: DefaultMaxAttempts, Delay: DefaultRetryDelay}
}

// ConnectWithRetry calls establish over the named transport until it succeeds or policy.MaxAttempts attempts have failed,
// pausing policy.Delay between attempts. It returns the session and the number of attempts made.
//
// If every attempt fails, the error is a framework.ConnectionError for transportName carrying the
// attempt count and the error from the last attempt. If ctx is cancelled, ctx.Err() is returned right away.
func ConnectWithRetry(
	ctx context.Context,
	policy RetryPolicy,
	transportName string,
	establish func(context.Context) (*Session, error),
	logger framework.Logger,
) (*Session, int, error) {
	if logger == nil {
		logger = framework.NullLogger()
	}
	maxAttempts := policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, attempt - 1, err
		}
		session, err := establish(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Printf("Connected on attempt %d", attempt)
			}
			return session, attempt, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, attempt, ctxErr
		}
		lastErr = err
		logger.Printf("Attempt %d of %d failed: %s", attempt, maxAttempts, err)
		if attempt == maxAttempts {
			break
		}
		if policy.Delay > 0 {
			timer := time.NewTimer(policy.Delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return nil, attempt, ctx.Err()
			}
		}
	}
	return nil, maxAttempts, retryFailure(transportName, maxAttempts, lastErr)
}

func retryFailure(transportName string, attempts int, lastErr error) error {
	if transportName == "" {
		transportName = "tool host"
	}
	ret := framework.ConnectionError{Transport: transportName, Attempts: attempts, Err: lastErr}
	var ce framework.ConnectionError
	if errors.As(lastErr, &ce) {
		ret.Transport = ce.Transport
		if ce.Attempts <= 1 && ce.Err != nil {
			ret.Err = ce.Err
		}
	}
	return ret
}
