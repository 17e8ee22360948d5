package transport_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fastmcp4j/mcp-test-harness/framework"
	"github.com/fastmcp4j/mcp-test-harness/framework/transport"
	"github.com/fastmcp4j/mcp-test-harness/mockhost"
	"github.com/fastmcp4j/mcp-test-harness/protodef"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withMockHost(t *testing.T, options []mockhost.Option, action func(*mockhost.HTTPHandler, *httptest.Server)) {
	h, err := mockhost.New(options...)
	require.NoError(t, err)
	handler := h.HTTPHandler()
	defer handler.Close()
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		action(handler, server)
	})
}

func echoText(t *testing.T, conn transport.Conn, message string) string {
	result, err := conn.Call(context.Background(), protodef.MethodToolsCall, protodef.CallToolParams{
		Name:      "echo",
		Arguments: json.RawMessage(`{"message":"` + message + `"}`),
	})
	require.NoError(t, err)
	var toolResult protodef.CallToolResult
	require.NoError(t, json.Unmarshal(result, &toolResult))
	require.Len(t, toolResult.Content, 1)
	return *toolResult.Content[0].Text
}

func TestSSERejectsInvalidURL(t *testing.T) {
	_, err := transport.NewSSE("not a url")
	assert.Error(t, err)
}

func TestSSECallWithCustomHeader(t *testing.T) {
	withMockHost(t, nil, func(_ *mockhost.HTTPHandler, server *httptest.Server) {
		b, err := transport.NewSSE(server.URL+"/sse", transport.WithHeader("X-Harness-Test", "yes"))
		require.NoError(t, err)
		assert.Equal(t, server.URL+"/sse", b.Describe())

		conn, err := b.Connect(context.Background())
		require.NoError(t, err)
		defer func() { _ = conn.Close() }()

		_, err = conn.Call(context.Background(), protodef.MethodInitialize, protodef.InitializeParams{
			ProtocolVersion: protodef.ProtocolVersion,
		})
		require.NoError(t, err)
		require.NoError(t, conn.Notify(context.Background(), protodef.NotificationInitialized, nil))

		text := echoText(t, conn, "hello")
		assert.Contains(t, text, "Echo: hello")
		assert.Contains(t, text, "X-Harness-Test")
	})
}

func TestSSETimeoutWhenHostIsSilent(t *testing.T) {
	withMockHost(t, []mockhost.Option{mockhost.WithSilence()}, func(_ *mockhost.HTTPHandler, server *httptest.Server) {
		b, err := transport.NewSSE(server.URL+"/sse", transport.WithTimeout(200*time.Millisecond))
		require.NoError(t, err)
		conn, err := b.Connect(context.Background())
		require.NoError(t, err)
		defer func() { _ = conn.Close() }()

		_, err = conn.Call(context.Background(), protodef.MethodPing, nil)
		assert.True(t, errors.Is(err, framework.ErrTimeout), "expected timeout, got %v", err)
	})
}

func TestSSEStreamDropFailsPendingCall(t *testing.T) {
	withMockHost(t, []mockhost.Option{mockhost.WithSilence()}, func(handler *mockhost.HTTPHandler, server *httptest.Server) {
		b, err := transport.NewSSE(server.URL + "/sse")
		require.NoError(t, err)
		conn, err := b.Connect(context.Background())
		require.NoError(t, err)
		defer func() { _ = conn.Close() }()

		errCh := make(chan error, 1)
		go func() {
			_, err := conn.Call(context.Background(), protodef.MethodPing, nil)
			errCh <- err
		}()
		time.Sleep(100 * time.Millisecond)
		handler.Close()

		select {
		case err := <-errCh:
			assert.True(t, errors.Is(err, framework.ErrClosed), "expected ErrClosed, got %v", err)
		case <-time.After(5 * time.Second):
			t.Fatal("pending call did not fail after the stream dropped")
		}
	})
}

func TestSSECloseStopsStreamThatKeepsSendingEvents(t *testing.T) {
	chatty := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprint(w, "event: endpoint\ndata: /messages\n\n")
		w.(http.Flusher).Flush()
		ticker := time.NewTicker(time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_, _ = fmt.Fprint(w, "event: message\ndata: {\"jsonrpc\":\"2.0\",\"method\":\"notifications/progress\"}\n\n")
				w.(http.Flusher).Flush()
			case <-r.Context().Done():
				return
			}
		}
	})
	httphelpers.WithServer(chatty, func(server *httptest.Server) {
		b, err := transport.NewSSE(server.URL)
		require.NoError(t, err)
		conn, err := b.Connect(context.Background())
		require.NoError(t, err)
		time.Sleep(50 * time.Millisecond)

		require.NoError(t, conn.Close())
		select {
		case <-transport.EventStreamDone(conn):
		case <-time.After(5 * time.Second):
			t.Fatal("event stream goroutine was still running after Close")
		}
	})
}

func TestSSEConnectFailsWithoutEndpointEvent(t *testing.T) {
	silentStream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	})
	httphelpers.WithServer(silentStream, func(server *httptest.Server) {
		b, err := transport.NewSSE(server.URL, transport.WithTimeout(200*time.Millisecond))
		require.NoError(t, err)
		_, err = b.Connect(context.Background())
		var ce framework.ConnectionError
		require.True(t, errors.As(err, &ce), "expected ConnectionError, got %v", err)
		assert.True(t, errors.Is(err, framework.ErrTimeout))
	})
}

func TestSSEConnectFailsOnHTTPError(t *testing.T) {
	httphelpers.WithServer(httphelpers.HandlerWithStatus(http.StatusNotFound), func(server *httptest.Server) {
		b, err := transport.NewSSE(server.URL + "/sse")
		require.NoError(t, err)
		_, err = b.Connect(context.Background())
		var ce framework.ConnectionError
		assert.True(t, errors.As(err, &ce), "expected ConnectionError, got %v", err)
	})
}
