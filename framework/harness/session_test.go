package harness

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fastmcp4j/mcp-test-harness/framework"
	"github.com/fastmcp4j/mcp-test-harness/framework/transport"
	"github.com/fastmcp4j/mcp-test-harness/protodef"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testClientInfo = mcp.Implementation{Name: "harness-test", Version: "0.0.1"}

type rawArgs string

func (a rawArgs) MarshalJSON() ([]byte, error) { return []byte(a), nil }

func readySession(t *testing.T, conn *fakeConn) *Session {
	s := NewSession(NewSessionHandle(transport.KindStdio, "fake"), conn, testClientInfo, nil)
	_, err := s.Initialize(context.Background())
	require.NoError(t, err)
	return s
}

func TestInitialize(t *testing.T) {
	var sentParams protodef.InitializeParams
	conn := newFakeConn()
	conn.on(protodef.MethodInitialize, func(params json.RawMessage) (json.RawMessage, error) {
		require.NoError(t, json.Unmarshal(params, &sentParams))
		return json.RawMessage(`{"protocolVersion":"2025-03-26","capabilities":{"tools":{},"prompts":{}},` +
			`"serverInfo":{"name":"fake","version":"1.0"}}`), nil
	})
	s := NewSession(NewSessionHandle(transport.KindSSE, "http://host/sse"), conn, testClientInfo, nil)
	assert.Equal(t, StateDisconnected, s.Handle().State())

	info, err := s.Initialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateReady, s.Handle().State())
	assert.Equal(t, "fake", info.Name)
	assert.Equal(t, framework.Capabilities{"tools", "prompts"}, info.Capabilities)
	assert.Equal(t, info, s.ServerInfo())

	assert.Equal(t, protodef.ProtocolVersion, sentParams.ProtocolVersion)
	assert.Equal(t, testClientInfo, sentParams.ClientInfo)
	assert.Equal(t, []string{protodef.NotificationInitialized}, conn.notifications)
}

func TestInitializeFailures(t *testing.T) {
	t.Run("error response", func(t *testing.T) {
		conn := newFakeConn().on(protodef.MethodInitialize, func(json.RawMessage) (json.RawMessage, error) {
			return nil, &protodef.RPCError{Code: -32600, Message: "unsupported version"}
		})
		s := NewSession(NewSessionHandle(transport.KindStdio, "fake"), conn, testClientInfo, nil)
		_, err := s.Initialize(context.Background())
		var pe framework.ProtocolError
		require.True(t, errors.As(err, &pe), "expected ProtocolError, got %v", err)
		assert.Equal(t, StateFailed, s.Handle().State())
	})

	t.Run("malformed result", func(t *testing.T) {
		conn := newFakeConn().onResult(protodef.MethodInitialize, `{"serverInfo":{}}`)
		s := NewSession(NewSessionHandle(transport.KindStdio, "fake"), conn, testClientInfo, nil)
		_, err := s.Initialize(context.Background())
		var pe framework.ProtocolError
		assert.True(t, errors.As(err, &pe), "expected ProtocolError, got %v", err)
	})

	t.Run("channel failure stays a connection error", func(t *testing.T) {
		conn := newFakeConn().on(protodef.MethodInitialize, func(json.RawMessage) (json.RawMessage, error) {
			return nil, framework.ConnectionError{Transport: "sse", Err: framework.ErrClosed}
		})
		s := NewSession(NewSessionHandle(transport.KindSSE, "fake"), conn, testClientInfo, nil)
		_, err := s.Initialize(context.Background())
		var ce framework.ConnectionError
		assert.True(t, errors.As(err, &ce), "expected ConnectionError, got %v", err)
	})

	t.Run("second initialize", func(t *testing.T) {
		s := readySession(t, newFakeConn())
		_, err := s.Initialize(context.Background())
		var pe framework.ProtocolError
		assert.True(t, errors.As(err, &pe))
		assert.Equal(t, StateReady, s.Handle().State())
	})
}

func TestInvokeBeforeReady(t *testing.T) {
	s := NewSession(NewSessionHandle(transport.KindStdio, "fake"), newFakeConn(), testClientInfo, nil)
	outcome := s.Invoke(context.Background(), "add", nil)
	var pe framework.ProtocolError
	assert.True(t, errors.As(outcome.Err(), &pe))

	_, err := s.ListOperations(context.Background())
	assert.True(t, errors.As(err, &pe))
}

func TestInvokeSendsArgumentsInOrder(t *testing.T) {
	var sent protodef.CallToolParams
	conn := newFakeConn().on(protodef.MethodToolsCall, func(params json.RawMessage) (json.RawMessage, error) {
		require.NoError(t, json.Unmarshal(params, &sent))
		return json.RawMessage(`{"content":[{"type":"text","text":"8"}]}`), nil
	})
	s := readySession(t, conn)

	outcome := s.Invoke(context.Background(), "add", rawArgs(`{"b":3,"a":5}`))
	require.NoError(t, outcome.Err())
	assert.Equal(t, ldvalue.Int(8), outcome.Value())
	assert.Equal(t, "add", sent.Name)
	assert.Equal(t, `{"b":3,"a":5}`, string(sent.Arguments))
}

func TestInvokeResultInterpretation(t *testing.T) {
	for _, p := range []struct {
		name     string
		result   string
		expected ldvalue.Value
	}{
		{"text that is a number", `{"content":[{"type":"text","text":"2.5"}]}`, ldvalue.Float64(2.5)},
		{"text that is an object", `{"content":[{"type":"text","text":"{\"a\":1}"}]}`,
			ldvalue.ObjectBuild().Set("a", ldvalue.Int(1)).Build()},
		{"plain text", `{"content":[{"type":"text","text":"Echo: hi"}]}`, ldvalue.String("Echo: hi")},
		{"only the first block is used", `{"content":[{"type":"text","text":"1"},{"type":"text","text":"2"}]}`,
			ldvalue.Int(1)},
		{"data block", `{"content":[{"type":"json","data":{"x":true}}]}`,
			ldvalue.ObjectBuild().Set("x", ldvalue.Bool(true)).Build()},
		{"structured content wins", `{"content":[{"type":"text","text":"1"}],"structuredContent":{"result":2}}`,
			ldvalue.ObjectBuild().Set("result", ldvalue.Int(2)).Build()},
		{"null structured content", `{"content":[{"type":"text","text":"7"}],"structuredContent":null}`,
			ldvalue.Int(7)},
		{"empty content", `{"content":[]}`, ldvalue.Null()},
		{"direct value", `42`, ldvalue.Int(42)},
		{"direct object", `{"sum":3}`, ldvalue.ObjectBuild().Set("sum", ldvalue.Int(3)).Build()},
	} {
		t.Run(p.name, func(t *testing.T) {
			s := readySession(t, newFakeConn().onResult(protodef.MethodToolsCall, p.result))
			outcome := s.Invoke(context.Background(), "tool", nil)
			require.NoError(t, outcome.Err())
			assert.Equal(t, p.expected, outcome.Value())
		})
	}
}

func TestInvokeErrors(t *testing.T) {
	t.Run("isError result", func(t *testing.T) {
		s := readySession(t, newFakeConn().onResult(protodef.MethodToolsCall,
			`{"content":[{"type":"text","text":"Division by zero"}],"isError":true}`))
		outcome := s.Invoke(context.Background(), "calculate", nil)
		assert.True(t, outcome.IsError())
		assert.Equal(t, framework.ToolInvocationError{Operation: "calculate", Message: "Division by zero"}, outcome.Err())
		assert.Equal(t, ldvalue.Null(), outcome.Value())
		assert.Equal(t, StateReady, s.Handle().State())
	})

	t.Run("error response", func(t *testing.T) {
		s := readySession(t, newFakeConn())
		outcome := s.Invoke(context.Background(), "missing", nil)
		var tie framework.ToolInvocationError
		require.True(t, errors.As(outcome.Err(), &tie))
		assert.Equal(t, "missing", tie.Operation)
		assert.False(t, framework.IsFatal(outcome.Err()))
	})

	t.Run("timeout is not fatal", func(t *testing.T) {
		s := readySession(t, newFakeConn().on(protodef.MethodToolsCall, func(json.RawMessage) (json.RawMessage, error) {
			return nil, framework.ErrTimeout
		}))
		outcome := s.Invoke(context.Background(), "slow", nil)
		assert.True(t, errors.Is(outcome.Err(), framework.ErrTimeout))
		assert.False(t, framework.IsFatal(outcome.Err()))
		assert.Equal(t, StateReady, s.Handle().State())
	})

	t.Run("closed channel fails the session", func(t *testing.T) {
		conn := newFakeConn()
		s := readySession(t, conn)
		_ = conn.Close()
		outcome := s.Invoke(context.Background(), "add", nil)
		var ce framework.ConnectionError
		require.True(t, errors.As(outcome.Err(), &ce))
		assert.Equal(t, "stdio", ce.Transport)
		assert.Equal(t, StateFailed, s.Handle().State())
	})
}

func TestInvokeCallsAreSerialized(t *testing.T) {
	conn := newFakeConn().onResult(protodef.MethodToolsCall, `{"content":[{"type":"text","text":"ok"}]}`)
	conn.delay = 5 * time.Millisecond
	s := readySession(t, conn)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Invoke(context.Background(), "echo", nil)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, conn.maxInFlight)
}

func TestListOperationsFollowsCursor(t *testing.T) {
	conn := newFakeConn().on(protodef.MethodToolsList, func(params json.RawMessage) (json.RawMessage, error) {
		var p protodef.PaginatedParams
		_ = json.Unmarshal(params, &p)
		switch p.Cursor {
		case "":
			return json.RawMessage(`{"tools":[{"name":"a"},{"name":"b"}],"nextCursor":"page2"}`), nil
		case "page2":
			return json.RawMessage(`{"tools":[{"name":"c"}]}`), nil
		default:
			return nil, &protodef.RPCError{Code: protodef.CodeInvalidParams, Message: "bad cursor"}
		}
	})
	s := readySession(t, conn)

	first, err := s.ListOperations(context.Background())
	require.NoError(t, err)
	second, err := s.ListOperations(context.Background())
	require.NoError(t, err)

	var names []string
	for _, tool := range first {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)
	assert.Equal(t, first, second)
}

func TestListRepeatedCursorIsProtocolError(t *testing.T) {
	conn := newFakeConn().onResult(protodef.MethodPromptsList, `{"prompts":[],"nextCursor":"same"}`)
	s := readySession(t, conn)
	_, err := s.ListPrompts(context.Background())
	var pe framework.ProtocolError
	assert.True(t, errors.As(err, &pe), "expected ProtocolError, got %v", err)
}

func TestListResourcesEmpty(t *testing.T) {
	s := readySession(t, newFakeConn().onResult(protodef.MethodResourcesList, `{"resources":[]}`))
	resources, err := s.ListResources(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []protodef.Resource{}, resources)
}

func TestCloseAlwaysClosesChannel(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		conn := newFakeConn()
		s := readySession(t, conn)
		require.NoError(t, s.Close())
		assert.True(t, conn.isClosed())
		assert.Equal(t, StateClosed, s.Handle().State())
	})

	t.Run("failed", func(t *testing.T) {
		conn := newFakeConn().onResult(protodef.MethodInitialize, `{}`)
		s := NewSession(NewSessionHandle(transport.KindStdio, "fake"), conn, testClientInfo, nil)
		_, err := s.Initialize(context.Background())
		require.Error(t, err)
		require.NoError(t, s.Close())
		assert.True(t, conn.isClosed())
		assert.Equal(t, StateFailed, s.Handle().State())
	})

	t.Run("never initialized", func(t *testing.T) {
		conn := newFakeConn()
		s := NewSession(NewSessionHandle(transport.KindStdio, "fake"), conn, testClientInfo, nil)
		require.NoError(t, s.Close())
		assert.True(t, conn.isClosed())
		assert.Equal(t, StateDisconnected, s.Handle().State())
	})
}
