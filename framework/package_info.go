// Package framework contains the low-level pieces of the tool-host test harness that are shared
// by every transport and test suite. The base package contains shared types such as Logger and
// the error taxonomy; other components are in subpackages.
//
// The general model is:
//
// 1. A transport binding (package transport) opens a channel to a remote tool host, either by
// spawning a process or by connecting to an HTTP endpoint.
//
// 2. A session (package harness) performs the protocol handshake over that channel and exposes
// operation invocation and catalog listing. Session establishment is retried a bounded number of
// times; nothing after that is.
//
// 3. The executor (package suite) runs an ordered list of declarative test cases against the
// session, and each outcome is classified by an expectation rule (package matchers) into a
// result that goes into an aggregator (package report).
package framework
