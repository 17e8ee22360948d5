package harness

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/fastmcp4j/mcp-test-harness/framework"
	"github.com/fastmcp4j/mcp-test-harness/protodef"
)

type fakeCallHandler func(params json.RawMessage) (json.RawMessage, error)

// fakeConn is a scripted transport.Conn.
type fakeConn struct {
	handlers      map[string]fakeCallHandler
	delay         time.Duration
	calls         []string
	notifications []string
	closed        bool
	inFlight      int
	maxInFlight   int
	lock          sync.Mutex
}

func newFakeConn() *fakeConn {
	c := &fakeConn{handlers: make(map[string]fakeCallHandler)}
	c.handlers[protodef.MethodInitialize] = func(json.RawMessage) (json.RawMessage, error) {
		return json.RawMessage(`{"protocolVersion":"2025-03-26","capabilities":{"tools":{}},` +
			`"serverInfo":{"name":"fake","version":"1.0"}}`), nil
	}
	return c
}

func (c *fakeConn) on(method string, handler fakeCallHandler) *fakeConn {
	c.handlers[method] = handler
	return c
}

func (c *fakeConn) onResult(method, result string) *fakeConn {
	return c.on(method, func(json.RawMessage) (json.RawMessage, error) { return json.RawMessage(result), nil })
}

func (c *fakeConn) Call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	c.lock.Lock()
	if c.closed {
		c.lock.Unlock()
		return nil, framework.ErrClosed
	}
	c.calls = append(c.calls, method)
	c.inFlight++
	if c.inFlight > c.maxInFlight {
		c.maxInFlight = c.inFlight
	}
	handler := c.handlers[method]
	c.lock.Unlock()

	defer func() {
		c.lock.Lock()
		c.inFlight--
		c.lock.Unlock()
	}()
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	if handler == nil {
		return nil, &protodef.RPCError{Code: protodef.CodeMethodNotFound, Message: "method not found: " + method}
	}
	data, _ := json.Marshal(params)
	return handler(data)
}

func (c *fakeConn) Notify(ctx context.Context, method string, params interface{}) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.notifications = append(c.notifications, method)
	return nil
}

func (c *fakeConn) Close() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.closed
}
