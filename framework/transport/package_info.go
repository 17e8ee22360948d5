// Package transport contains the bindings that carry JSON-RPC messages between the harness and a
// remote tool host: a spawned process speaking Content-Length framed messages on its standard
// streams, an event-stream channel with a separate POST endpoint, and a single streamable HTTP
// endpoint.
//
// A Binding only knows how to move envelopes and correlate responses with requests. The
// handshake and the meaning of each method live in package harness.
package transport
