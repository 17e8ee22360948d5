package helpers

import (
	"time"

	"github.com/fastmcp4j/mcp-test-harness/framework/opt"
)

// ReceiveWithin waits up to timeout for a value from ch. A closed channel yields nothing.
func ReceiveWithin[V any](ch <-chan V, timeout time.Duration) opt.Maybe[V] {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case v, ok := <-ch:
		if ok {
			return opt.Some(v)
		}
	case <-timer.C:
	}
	return opt.None[V]()
}

// MustReceive returns the next value from ch. If none arrives within the timeout, it fails and
// stops the test, naming what was awaited.
func MustReceive[V any](t TestContext, ch <-chan V, timeout time.Duration, what string) V {
	t.Helper()
	v, ok := ReceiveWithin(ch, timeout).Get()
	if !ok {
		t.Errorf("no %s within %s", what, timeout)
		t.FailNow()
	}
	return v
}
