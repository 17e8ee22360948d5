// Package protodef contains the wire definitions shared by the harness transports and the mock
// tool host: JSON-RPC 2.0 envelopes, method names, and the payloads of the handshake, catalog
// listing, and operation invocation.
//
// Where the mcp-go module already defines a type with the right JSON shape, it is reused;
// payloads that the harness must decode leniently from arbitrary hosts are defined here.
package protodef
