package transport

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/fastmcp4j/mcp-test-harness/framework"
	"github.com/fastmcp4j/mcp-test-harness/protodef"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingCallsDeliverMatchesByID(t *testing.T) {
	p := newPendingCalls()
	id1, ch1, err := p.register()
	require.NoError(t, err)
	id2, ch2, err := p.register()
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	// A peer may echo an integer ID in a different numeric form.
	assert.True(t, p.deliver(protodef.Message{ID: json.RawMessage(`2.0`), Result: json.RawMessage(`"two"`)}))
	assert.True(t, p.deliver(protodef.Message{ID: json.RawMessage(`1`), Result: json.RawMessage(`"one"`)}))
	assert.False(t, p.deliver(protodef.Message{ID: json.RawMessage(`1`)}))
	assert.False(t, p.deliver(protodef.Message{ID: json.RawMessage(`"1"`)}))

	r1, err := p.await(context.Background(), id1, ch1, "m", time.Second)
	require.NoError(t, err)
	assert.Equal(t, `"one"`, string(r1))
	r2, err := p.await(context.Background(), id2, ch2, "m", time.Second)
	require.NoError(t, err)
	assert.Equal(t, `"two"`, string(r2))
}

func TestPendingCallsRPCError(t *testing.T) {
	p := newPendingCalls()
	id, ch, _ := p.register()
	p.deliver(protodef.Message{ID: json.RawMessage(`1`), Error: &protodef.RPCError{Code: -32601, Message: "nope"}})
	_, err := p.await(context.Background(), id, ch, "m", time.Second)
	var rpcErr *protodef.RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, -32601, rpcErr.Code)
}

func TestPendingCallsTimeout(t *testing.T) {
	p := newPendingCalls()
	id, ch, _ := p.register()
	_, err := p.await(context.Background(), id, ch, "tools/call", 10*time.Millisecond)
	assert.True(t, errors.Is(err, framework.ErrTimeout))
	// A late response is discarded.
	assert.False(t, p.deliver(protodef.Message{ID: json.RawMessage(`1`)}))
}

func TestPendingCallsFailAll(t *testing.T) {
	p := newPendingCalls()
	id, ch, _ := p.register()
	go p.failAll(framework.ErrClosed)
	_, err := p.await(context.Background(), id, ch, "m", time.Second)
	assert.True(t, errors.Is(err, framework.ErrClosed))

	_, _, err = p.register()
	assert.True(t, errors.Is(err, framework.ErrClosed))

	p.failAll(errors.New("second failure is ignored"))
	assert.Equal(t, framework.ErrClosed, p.err())
}

func TestPendingCallsContextCancel(t *testing.T) {
	p := newPendingCalls()
	id, ch, _ := p.register()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.await(ctx, id, ch, "m", time.Second)
	assert.True(t, errors.Is(err, context.Canceled))
}
