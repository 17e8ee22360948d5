// Package toolsuites contains the built-in catalog of test cases that the harness runs against a
// tool host: arithmetic, echo, memory, and todo tools, plus discovery of the host's tools,
// resources, and prompts.
//
// The memory and todo groups are stateful and expect a host that has not been used since it
// started; their cases must run in the order they are defined.
package toolsuites
