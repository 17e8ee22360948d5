// Package suite defines test cases for a tool host and runs them against a session.
//
// Cases are registered in a Registry and run in registration order by an Executor, which
// evaluates each outcome with a matchers.Expectation and adds the result to a report.Aggregator.
package suite
