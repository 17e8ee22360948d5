package protodef

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
)

// Version is the value of the "jsonrpc" property in every envelope.
const Version = mcp.JSONRPC_VERSION

// Standard JSON-RPC error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Request is an outbound request or notification. A notification has no ID.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int64          `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is the reply to a Request.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return "rpc error " + strconv.Itoa(e.Code) + ": " + e.Message
}

// Message is any envelope read from a peer. It can be a response, a request, or a
// notification; see IsResponse.
type Message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// IsResponse returns true if the message is the reply to one of our requests.
func (m Message) IsResponse() bool {
	return m.Method == "" && len(m.ID) > 0 && !bytes.Equal(m.ID, []byte("null"))
}

// NewRequest builds a request envelope. Params are marshaled with encoding/json unless they are
// already a json.RawMessage.
func NewRequest(id int64, method string, params interface{}) (Request, error) {
	raw, err := marshalParams(params)
	if err != nil {
		return Request{}, err
	}
	return Request{JSONRPC: Version, ID: &id, Method: method, Params: raw}, nil
}

// NewNotification builds a request envelope with no ID.
func NewNotification(method string, params interface{}) (Request, error) {
	raw, err := marshalParams(params)
	if err != nil {
		return Request{}, err
	}
	return Request{JSONRPC: Version, Method: method, Params: raw}, nil
}

func marshalParams(params interface{}) (json.RawMessage, error) {
	switch p := params.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return p, nil
	default:
		return json.Marshal(p)
	}
}

// IDKey returns a canonical string for a JSON-RPC id so that a request ID and the ID echoed in
// a response compare equal even if the peer re-encoded it (for instance 7 as 7.0).
func IDKey(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return "s:" + s
		}
		return string(raw)
	}
	if f, err := strconv.ParseFloat(string(raw), 64); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return string(raw)
}

// RequestIDKey is the IDKey of a numeric request ID.
func RequestIDKey(id int64) string {
	return strconv.FormatInt(id, 10)
}
