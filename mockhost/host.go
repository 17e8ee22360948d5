package mockhost

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/fastmcp4j/mcp-test-harness/framework"
	"github.com/fastmcp4j/mcp-test-harness/framework/helpers"
	"github.com/fastmcp4j/mcp-test-harness/protodef"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	DefaultName    = "mock-tool-host"
	DefaultVersion = "1.0.0"
)

// Host is an in-memory tool host. It answers JSON-RPC messages handed to it by one of the
// front ends (stdio, event stream, streamable HTTP) and keeps the state of the stateful tools.
type Host struct {
	config    hostConfig
	tools     []mcp.Tool
	handlers  map[string]toolHandler
	resources []mcp.Resource
	prompts   []mcp.Prompt
	state     *toolState
}

type hostConfig struct {
	name            string
	version         string
	responseDelay   time.Duration
	silent          bool
	streamResponses bool
	pageSize        int
	debugLogger     framework.Logger
}

// Option is a configuration option for New.
type Option helpers.ConfigOption[hostConfig]

// WithResponseDelay makes the host sleep before answering each request.
func WithResponseDelay(d time.Duration) Option {
	return helpers.OptionFunc[hostConfig](func(c *hostConfig) error {
		c.responseDelay = d
		return nil
	})
}

// WithSilence makes the host read every request and never answer.
func WithSilence() Option {
	return helpers.OptionFunc[hostConfig](func(c *hostConfig) error {
		c.silent = true
		return nil
	})
}

// WithStreamedResponses makes the streamable front end answer with an event stream instead of a
// JSON body whenever the client accepts one.
func WithStreamedResponses() Option {
	return helpers.OptionFunc[hostConfig](func(c *hostConfig) error {
		c.streamResponses = true
		return nil
	})
}

// WithPageSize makes the list methods return at most n entries per page, with a nextCursor.
func WithPageSize(n int) Option {
	return helpers.OptionFunc[hostConfig](func(c *hostConfig) error {
		if n < 0 {
			return fmt.Errorf("page size must not be negative, got %d", n)
		}
		c.pageSize = n
		return nil
	})
}

func WithName(name, version string) Option {
	return helpers.OptionFunc[hostConfig](func(c *hostConfig) error {
		c.name, c.version = name, version
		return nil
	})
}

func WithDebugLogger(logger framework.Logger) Option {
	return helpers.OptionFunc[hostConfig](func(c *hostConfig) error {
		c.debugLogger = logger
		return nil
	})
}

func New(options ...Option) (*Host, error) {
	config, err := helpers.BuildConfig(
		hostConfig{name: DefaultName, version: DefaultVersion, debugLogger: framework.NullLogger()},
		options...,
	)
	if err != nil {
		return nil, err
	}
	h := &Host{
		config:   config,
		handlers: make(map[string]toolHandler),
		state:    newToolState(),
	}
	h.registerTools()
	h.resources = []mcp.Resource{
		mcp.NewResource("server://info", "Server info",
			mcp.WithResourceDescription("Name and version of this host"),
			mcp.WithMIMEType("application/json")),
		mcp.NewResource("memory://files", "Memory files",
			mcp.WithResourceDescription("Paths stored by the memory tool"),
			mcp.WithMIMEType("application/json")),
	}
	h.prompts = []mcp.Prompt{
		mcp.NewPrompt("greeting",
			mcp.WithPromptDescription("Greets someone by name"),
			mcp.WithArgument("name", mcp.ArgumentDescription("who to greet"), mcp.RequiredArgument())),
	}
	return h, nil
}

// Handle answers one message. It returns nil for notifications, and for everything when the
// host is silent. The headers are those of the HTTP request that carried the message, or nil.
func (h *Host) Handle(ctx context.Context, m protodef.Message, headers http.Header) *protodef.Response {
	h.config.debugLogger.Printf("Host received %q", m.Method)
	if h.config.silent || len(m.ID) == 0 {
		return nil
	}
	if h.config.responseDelay > 0 {
		select {
		case <-time.After(h.config.responseDelay):
		case <-ctx.Done():
			return nil
		}
	}
	result, rpcErr := h.dispatch(m, headers)
	resp := &protodef.Response{JSONRPC: protodef.Version, ID: m.ID}
	if rpcErr != nil {
		resp.Error = rpcErr
		return resp
	}
	data, err := json.Marshal(result)
	if err != nil {
		resp.Error = &protodef.RPCError{Code: protodef.CodeInternalError, Message: err.Error()}
		return resp
	}
	resp.Result = data
	return resp
}

func (h *Host) dispatch(m protodef.Message, headers http.Header) (interface{}, *protodef.RPCError) {
	switch m.Method {
	case protodef.MethodInitialize:
		return h.initialize(m.Params)
	case protodef.MethodPing:
		return struct{}{}, nil
	case protodef.MethodToolsList:
		return listPage(h.tools, "tools", m.Params, h.config.pageSize)
	case protodef.MethodResourcesList:
		return listPage(h.resources, "resources", m.Params, h.config.pageSize)
	case protodef.MethodPromptsList:
		return listPage(h.prompts, "prompts", m.Params, h.config.pageSize)
	case protodef.MethodToolsCall:
		return h.callTool(m.Params, headers)
	default:
		return nil, &protodef.RPCError{Code: protodef.CodeMethodNotFound, Message: "method not found: " + m.Method}
	}
}

func (h *Host) initialize(params json.RawMessage) (interface{}, *protodef.RPCError) {
	var p protodef.InitializeParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, &protodef.RPCError{Code: protodef.CodeInvalidParams, Message: err.Error()}
	}
	version := p.ProtocolVersion
	if version == "" {
		version = protodef.ProtocolVersion
	}
	return map[string]interface{}{
		"protocolVersion": version,
		"capabilities": map[string]interface{}{
			"tools":     map[string]interface{}{"listChanged": false},
			"resources": map[string]interface{}{},
			"prompts":   map[string]interface{}{},
		},
		"serverInfo": mcp.Implementation{Name: h.config.name, Version: h.config.version},
	}, nil
}

func (h *Host) callTool(params json.RawMessage, headers http.Header) (interface{}, *protodef.RPCError) {
	var p struct {
		Name      string                 `json:"name"`
		Arguments map[string]interface{} `json:"arguments"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, &protodef.RPCError{Code: protodef.CodeInvalidParams, Message: err.Error()}
	}
	handler, ok := h.handlers[p.Name]
	if !ok {
		return nil, &protodef.RPCError{Code: protodef.CodeInvalidParams, Message: "unknown tool: " + p.Name}
	}
	return handler(toolCall{args: p.Arguments, headers: headers}), nil
}

func listPage[V any](items []V, key string, params json.RawMessage, pageSize int) (interface{}, *protodef.RPCError) {
	page, next, err := paginate(items, params, pageSize)
	if err != nil {
		return nil, err
	}
	result := map[string]interface{}{key: page}
	if next != "" {
		result["nextCursor"] = next
	}
	return result, nil
}

// paginate splits items into pages of pageSize, with the cursor being the decimal offset of the
// next page. A pageSize of zero returns everything at once.
func paginate[V any](items []V, params json.RawMessage, pageSize int) ([]V, string, *protodef.RPCError) {
	var p protodef.PaginatedParams
	if len(params) != 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, "", &protodef.RPCError{Code: protodef.CodeInvalidParams, Message: err.Error()}
		}
	}
	start := 0
	if p.Cursor != "" {
		if _, err := fmt.Sscanf(p.Cursor, "%d", &start); err != nil || start < 0 || start > len(items) {
			return nil, "", &protodef.RPCError{Code: protodef.CodeInvalidParams, Message: "invalid cursor " + p.Cursor}
		}
	}
	if pageSize == 0 || start+pageSize >= len(items) {
		return items[start:], "", nil
	}
	return items[start : start+pageSize], fmt.Sprint(start + pageSize), nil
}

// toolState is shared by every session of a Host, so a second run against the same host sees
// what the first one left behind.
type toolState struct {
	memory   map[string]string
	todos    []todoItem
	nextTodo int
	plans    []*plan
	files    *virtualFS
	lock     sync.Mutex
}

func newToolState() *toolState {
	return &toolState{memory: make(map[string]string), files: newVirtualFS()}
}
