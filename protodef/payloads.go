package protodef

import (
	"bytes"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

type InitializeParams struct {
	ProtocolVersion string                 `json:"protocolVersion"`
	Capabilities    mcp.ClientCapabilities `json:"capabilities"`
	ClientInfo      mcp.Implementation     `json:"clientInfo"`
}

// ServerCapabilities records which capability groups a host declared. The contents of each
// group are kept opaque; only presence matters to the harness.
type ServerCapabilities struct {
	Tools        json.RawMessage `json:"tools,omitempty"`
	Resources    json.RawMessage `json:"resources,omitempty"`
	Prompts      json.RawMessage `json:"prompts,omitempty"`
	Logging      json.RawMessage `json:"logging,omitempty"`
	Experimental json.RawMessage `json:"experimental,omitempty"`
}

// Names returns the names of the declared capability groups in a fixed order.
func (c ServerCapabilities) Names() []string {
	var ret []string
	for _, e := range []struct {
		name string
		raw  json.RawMessage
	}{
		{"tools", c.Tools},
		{"resources", c.Resources},
		{"prompts", c.Prompts},
		{"logging", c.Logging},
	} {
		if isPresent(e.raw) {
			ret = append(ret, e.name)
		}
	}
	return ret
}

type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      mcp.Implementation `json:"serverInfo"`
	Instructions    string             `json:"instructions,omitempty"`
}

type PaginatedParams struct {
	Cursor string `json:"cursor,omitempty"`
}

type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

type ListToolsResult struct {
	Tools      []Tool `json:"tools"`
	NextCursor string `json:"nextCursor,omitempty"`
}

type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MIMEType    string `json:"mimeType,omitempty"`
}

type ListResourcesResult struct {
	Resources  []Resource `json:"resources"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

type Prompt struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`
}

type ListPromptsResult struct {
	Prompts    []Prompt `json:"prompts"`
	NextCursor string   `json:"nextCursor,omitempty"`
}

// CallToolParams is the payload of a tools/call request. Arguments are pre-encoded so that the
// caller controls the key order.
type CallToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// ContentBlock is one element of a tool result's content list.
type ContentBlock struct {
	Type     string          `json:"type"`
	Text     *string         `json:"text,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
	MIMEType string          `json:"mimeType,omitempty"`
}

// CallToolResult is the lenient form of a tools/call result. A host may send an envelope with
// content blocks, structured content, or neither.
type CallToolResult struct {
	Content           []ContentBlock  `json:"content,omitempty"`
	StructuredContent json.RawMessage `json:"structuredContent,omitempty"`
	IsError           bool            `json:"isError,omitempty"`
}

// IsEnvelope returns true if the raw result has any of the envelope properties.
func IsEnvelope(raw json.RawMessage) bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return false
	}
	for _, k := range []string{"content", "structuredContent", "isError"} {
		if _, ok := fields[k]; ok {
			return true
		}
	}
	return false
}

func isPresent(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}
