// Package mockhost is a small in-memory tool host that the harness can be pointed at. It
// serves the same catalog over all three transports and is used by the package tests and by
// the "mockhost" subcommand for checking a harness setup without a real host.
//
// It offers arithmetic, echo, memory, and todo tools, one prompt, and two resources. Its
// behavior is deliberately simple; it is not a reference implementation of any host.
package mockhost
