package protodef

import "github.com/mark3labs/mcp-go/mcp"

var (
	MethodInitialize    = string(mcp.MethodInitialize)
	MethodPing          = string(mcp.MethodPing)
	MethodToolsList     = string(mcp.MethodToolsList)
	MethodToolsCall     = string(mcp.MethodToolsCall)
	MethodResourcesList = string(mcp.MethodResourcesList)
	MethodPromptsList   = string(mcp.MethodPromptsList)
)

const (
	NotificationInitialized = "notifications/initialized"

	// HeaderSessionID carries the session token on the streamable transport.
	HeaderSessionID = "Mcp-Session-Id"

	// EventEndpoint is the name of the first event on an event-stream channel; its data is the URL
	// that requests must be POSTed to.
	EventEndpoint = "endpoint"

	// EventMessage is the name of the events that carry JSON-RPC envelopes.
	EventMessage = "message"
)

// ProtocolVersion is the protocol revision that the harness requests in the handshake.
const ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
