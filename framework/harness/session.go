package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/fastmcp4j/mcp-test-harness/framework"
	"github.com/fastmcp4j/mcp-test-harness/framework/transport"
	"github.com/fastmcp4j/mcp-test-harness/protodef"
	"github.com/fastmcp4j/mcp-test-harness/serviceinfo"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/mark3labs/mcp-go/mcp"
)

// maxListPages bounds pagination so that a host that keeps returning a cursor cannot hang a run.
const maxListPages = 1000

// Session is an initialized conversation with a tool host over one channel. All calls on it
// are made one at a time.
type Session struct {
	handle     *SessionHandle
	conn       transport.Conn
	clientInfo mcp.Implementation
	info       serviceinfo.ServerInfo
	logger     framework.Logger
	lock       sync.Mutex
}

// NewSession wraps an open channel. The session is not usable until Initialize succeeds.
func NewSession(handle *SessionHandle, conn transport.Conn, clientInfo mcp.Implementation, logger framework.Logger) *Session {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &Session{handle: handle, conn: conn, clientInfo: clientInfo, logger: logger}
}

func (s *Session) Handle() *SessionHandle { return s.handle }

// ServerInfo returns what the host reported in the handshake, or an empty value before it.
func (s *Session) ServerInfo() serviceinfo.ServerInfo {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.info
}

// Initialize performs the handshake: the initialize request followed by the initialized
// notification. Any failure is a framework.ProtocolError, except for a channel failure, which
// stays a framework.ConnectionError.
func (s *Session) Initialize(ctx context.Context) (serviceinfo.ServerInfo, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.handle.State() == StateDisconnected {
		if err := s.handle.Transition(StateConnecting); err != nil {
			return serviceinfo.Empty(), err
		}
	}
	if state := s.handle.State(); state != StateConnecting {
		return serviceinfo.Empty(), framework.ProtocolError{Message: "cannot initialize a session that is " + state.String()}
	}

	fail := func(err error) (serviceinfo.ServerInfo, error) {
		_ = s.handle.Transition(StateFailed)
		var ce framework.ConnectionError
		var pe framework.ProtocolError
		if errors.As(err, &ce) || errors.As(err, &pe) {
			return serviceinfo.Empty(), err
		}
		return serviceinfo.Empty(), framework.ProtocolError{Message: "handshake failed", Err: err}
	}

	params := protodef.InitializeParams{
		ProtocolVersion: protodef.ProtocolVersion,
		ClientInfo:      s.clientInfo,
	}
	s.logger.Printf("Initializing session with %s", s.handle.Target())
	raw, err := s.conn.Call(ctx, protodef.MethodInitialize, params)
	if err != nil {
		return fail(err)
	}
	info, err := serviceinfo.FromInitializeResult(raw)
	if err != nil {
		return fail(err)
	}
	if err := s.conn.Notify(ctx, protodef.NotificationInitialized, nil); err != nil {
		return fail(err)
	}
	if err := s.handle.Transition(StateReady); err != nil {
		return fail(err)
	}
	s.info = info
	s.logger.Printf("Session ready: %s", info)
	return info, nil
}

// Invoke calls one operation on the host. The arguments are encoded by args itself so that
// their order is preserved; nil sends no arguments.
func (s *Session) Invoke(ctx context.Context, tool string, args json.Marshaler) InvocationOutcome {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.requireReady(); err != nil {
		return ErrorOutcome(err)
	}
	params := protodef.CallToolParams{Name: tool}
	if args != nil {
		data, err := args.MarshalJSON()
		if err != nil {
			return ErrorOutcome(fmt.Errorf("encoding arguments for %q: %w", tool, err))
		}
		params.Arguments = data
	}

	raw, err := s.conn.Call(ctx, protodef.MethodToolsCall, params)
	if err != nil {
		return ErrorOutcome(s.classifyCallError(tool, err))
	}
	return interpretToolResult(tool, raw)
}

// interpretToolResult turns a tools/call result into an outcome. Structured content wins over
// content blocks; of the content blocks only the first one is used.
func interpretToolResult(tool string, raw json.RawMessage) InvocationOutcome {
	if !protodef.IsEnvelope(raw) {
		return SuccessOutcome(ldvalue.Parse(raw))
	}
	var result protodef.CallToolResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return ErrorOutcome(framework.ProtocolError{Message: "malformed tools/call result", Err: err})
	}
	if result.IsError {
		message := "host reported an error"
		if len(result.Content) != 0 && result.Content[0].Text != nil {
			message = *result.Content[0].Text
		}
		return ErrorOutcome(framework.ToolInvocationError{Operation: tool, Message: message})
	}
	// A null structuredContent counts as absent.
	if structured := ldvalue.Parse(result.StructuredContent); !structured.IsNull() {
		return SuccessOutcome(structured)
	}
	if len(result.Content) == 0 {
		return SuccessOutcome(ldvalue.Null())
	}
	block := result.Content[0]
	switch {
	case block.Text != nil:
		return SuccessOutcome(parseJSONOrString(*block.Text))
	case len(block.Data) != 0:
		return SuccessOutcome(ldvalue.Parse(block.Data))
	default:
		data, _ := json.Marshal(block)
		return SuccessOutcome(ldvalue.Parse(data))
	}
}

// ListOperations returns every tool the host offers, in the host's order.
func (s *Session) ListOperations(ctx context.Context) ([]protodef.Tool, error) {
	return listAll(ctx, s, protodef.MethodToolsList, func(raw json.RawMessage) ([]protodef.Tool, string, error) {
		var page protodef.ListToolsResult
		err := json.Unmarshal(raw, &page)
		return page.Tools, page.NextCursor, err
	})
}

func (s *Session) ListResources(ctx context.Context) ([]protodef.Resource, error) {
	return listAll(ctx, s, protodef.MethodResourcesList, func(raw json.RawMessage) ([]protodef.Resource, string, error) {
		var page protodef.ListResourcesResult
		err := json.Unmarshal(raw, &page)
		return page.Resources, page.NextCursor, err
	})
}

func (s *Session) ListPrompts(ctx context.Context) ([]protodef.Prompt, error) {
	return listAll(ctx, s, protodef.MethodPromptsList, func(raw json.RawMessage) ([]protodef.Prompt, string, error) {
		var page protodef.ListPromptsResult
		err := json.Unmarshal(raw, &page)
		return page.Prompts, page.NextCursor, err
	})
}

func listAll[V any](
	ctx context.Context,
	s *Session,
	method string,
	decode func(json.RawMessage) ([]V, string, error),
) ([]V, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.requireReady(); err != nil {
		return nil, err
	}
	ret := []V{}
	cursor := ""
	seen := make(map[string]bool)
	for page := 0; ; page++ {
		if page == maxListPages {
			return nil, framework.ProtocolError{Message: fmt.Sprintf("%s did not finish after %d pages", method, page)}
		}
		var params interface{}
		if cursor != "" {
			params = protodef.PaginatedParams{Cursor: cursor}
		}
		raw, err := s.conn.Call(ctx, method, params)
		if err != nil {
			return nil, s.classifyCallError(method, err)
		}
		items, next, err := decode(raw)
		if err != nil {
			return nil, framework.ProtocolError{Message: "malformed " + method + " result", Err: err}
		}
		ret = append(ret, items...)
		if next == "" {
			return ret, nil
		}
		if seen[next] {
			return nil, framework.ProtocolError{Message: fmt.Sprintf("%s repeated cursor %q", method, next)}
		}
		seen[next] = true
		cursor = next
	}
}

func (s *Session) requireReady() error {
	if state := s.handle.State(); state != StateReady {
		return framework.ProtocolError{Message: "session is " + state.String() + ", not ready"}
	}
	return nil
}

// classifyCallError maps a channel error for one call. A JSON-RPC error is the host rejecting
// this operation; a closed or failed channel fails the session, since no later call can succeed
// either.
func (s *Session) classifyCallError(operation string, err error) error {
	var rpcErr *protodef.RPCError
	if errors.As(err, &rpcErr) {
		return framework.ToolInvocationError{Operation: operation, Message: rpcErr.Message}
	}
	var ce framework.ConnectionError
	var pe framework.ProtocolError
	if errors.As(err, &ce) || errors.As(err, &pe) {
		_ = s.handle.Transition(StateFailed)
		return err
	}
	if errors.Is(err, framework.ErrClosed) {
		_ = s.handle.Transition(StateFailed)
		return framework.ConnectionError{Transport: string(s.handle.Kind()), Err: err}
	}
	return err
}

// Close ends the session and always closes the channel, whatever state the session is in.
func (s *Session) Close() error {
	s.handle.closeState()
	err := s.conn.Close()
	s.logger.Printf("Session with %s closed", s.handle.Target())
	return err
}
