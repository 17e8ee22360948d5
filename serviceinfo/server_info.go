// Package serviceinfo provides a data model for what a tool host reports about itself during the
// handshake.
package serviceinfo

import (
	"encoding/json"
	"fmt"

	"github.com/fastmcp4j/mcp-test-harness/framework"
	"github.com/fastmcp4j/mcp-test-harness/protodef"
)

// ServerInfo is the information returned by the tool host in its initialize result.
type ServerInfo struct {
	ServerInfoBase

	// FullData is the entire initialize result, which might contain additional properties
	// beyond ServerInfoBase.
	FullData []byte
}

// ServerInfoBase is the basic set of properties that the harness reads from the handshake.
type ServerInfoBase struct {
	Name            string
	Version         string
	ProtocolVersion string
	Instructions    string

	// Capabilities lists the capability groups the host declared, such as "tools" or "prompts".
	Capabilities framework.Capabilities
}

func Empty() ServerInfo {
	return ServerInfo{}
}

// FromInitializeResult decodes an initialize result. A result without a protocol version is
// rejected because the handshake is then not known to have succeeded.
func FromInitializeResult(raw json.RawMessage) (ServerInfo, error) {
	var result protodef.InitializeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return ServerInfo{}, fmt.Errorf("malformed initialize result: %w", err)
	}
	if result.ProtocolVersion == "" {
		return ServerInfo{}, fmt.Errorf("initialize result has no protocolVersion: %s", string(raw))
	}
	return ServerInfo{
		ServerInfoBase: ServerInfoBase{
			Name:            result.ServerInfo.Name,
			Version:         result.ServerInfo.Version,
			ProtocolVersion: result.ProtocolVersion,
			Instructions:    result.Instructions,
			Capabilities:    result.Capabilities.Names(),
		},
		FullData: append([]byte(nil), raw...),
	}, nil
}

func (s ServerInfo) String() string {
	if s.Name == "" {
		return "unknown host"
	}
	return fmt.Sprintf("%s %s (protocol %s)", s.Name, s.Version, s.ProtocolVersion)
}
