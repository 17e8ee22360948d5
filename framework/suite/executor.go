package suite

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/fastmcp4j/mcp-test-harness/framework"
	"github.com/fastmcp4j/mcp-test-harness/framework/harness"
	"github.com/fastmcp4j/mcp-test-harness/framework/matchers"
	"github.com/fastmcp4j/mcp-test-harness/framework/report"
	"github.com/fastmcp4j/mcp-test-harness/protodef"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// Session is the part of harness.Session that the executor uses.
type Session interface {
	Invoke(ctx context.Context, tool string, args Args) harness.InvocationOutcome
	ListOperations(ctx context.Context) ([]protodef.Tool, error)
	ListResources(ctx context.Context) ([]protodef.Resource, error)
	ListPrompts(ctx context.Context) ([]protodef.Prompt, error)
}

type sessionAdapter struct {
	*harness.Session
}

func (s sessionAdapter) Invoke(ctx context.Context, tool string, args Args) harness.InvocationOutcome {
	return s.Session.Invoke(ctx, tool, args)
}

// ForSession adapts a harness.Session for the executor.
func ForSession(s *harness.Session) Session {
	return sessionAdapter{s}
}

// Executor runs test cases against a session, one at a time and in order.
type Executor struct {
	// Transport is the name of the transport being tested; it selects transport-specific cases.
	Transport string

	// Filter is an optional filter for deciding which cases to run.
	Filter Filter

	// TestLogger receives the status of each case. If nil, nothing is logged.
	TestLogger TestLogger

	// SkipUnavailable skips invoke cases whose tool the host does not list.
	SkipUnavailable bool

	// DebugLogger is the logger that the session writes to. While a case runs, its output is
	// captured and passed to the TestLogger with the result.
	DebugLogger *framework.CapturingLogger
}

// Run runs every case and adds a result for each one to the aggregator.
//
// A failing case does not stop the run. Run returns early only if ctx is cancelled, in which case
// it returns ctx.Err(), or if a case fails with a connection or protocol error, which it returns
// after recording the failure.
func (e Executor) Run(ctx context.Context, session Session, cases []TestCase, aggregator *report.Aggregator) error {
	testLogger := e.TestLogger
	if testLogger == nil {
		testLogger = nullTestLogger{}
	}

	var available map[string]bool
	if e.SkipUnavailable {
		tools, err := session.ListOperations(ctx)
		if err != nil {
			if framework.IsFatal(err) || ctx.Err() != nil {
				return err
			}
		} else {
			available = make(map[string]bool)
			for _, t := range tools {
				available[t.Name] = true
			}
		}
	}

	selected := e.groupsWithSelectedCases(cases)
	var captured capturedValues
	group := ""
	for i, c := range cases {
		if err := ctx.Err(); err != nil {
			return err
		}
		if i == 0 || c.Group != group {
			group = c.Group
			captured = make(capturedValues)
		}
		if c.Setup {
			if !selected[c.Group] || !c.AppliesTo(e.Transport) ||
				(available != nil && c.kind() == KindInvoke && !available[c.tool()]) {
				continue
			}
			if err := e.runSetup(ctx, session, c, captured); err != nil {
				return err
			}
			continue
		}
		id := c.ID()
		testLogger.TestStarted(id)
		if e.Filter != nil && !e.Filter.Match(id) {
			testLogger.TestSkipped(id, "excluded by filter parameters")
			continue
		}
		if !c.AppliesTo(e.Transport) {
			testLogger.TestSkipped(id, "not applicable to "+e.Transport)
			continue
		}
		if available != nil && c.kind() == KindInvoke && !available[c.tool()] {
			testLogger.TestSkipped(id, fmt.Sprintf("host does not offer %q", c.tool()))
			continue
		}

		var caseLogger framework.CapturingLogger
		restore := func() {}
		if e.DebugLogger != nil {
			restore = e.DebugLogger.Divert(&caseLogger)
		}
		verdict, outcome := e.runCase(ctx, session, c, captured)
		restore()

		result := report.NewTestResult(c.Group, c.Operation, c.Name, verdict.Expected, verdict.Actual, verdict.Err)
		if verdict.Err != nil {
			testLogger.TestError(id, verdict.Err)
		}
		testLogger.TestFinished(id, result, caseLogger.Output())
		aggregator.Add(result)

		if err := outcome.Err(); err != nil && framework.IsFatal(err) {
			return err
		}
	}
	return nil
}

// runCase is the recover boundary for a single case: a panic becomes a failed result.
func (e Executor) runCase(
	ctx context.Context,
	session Session,
	c TestCase,
	captured capturedValues,
) (verdict matchers.Verdict, outcome harness.InvocationOutcome) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("unexpected panic in test case: %+v\n%s", r, string(debug.Stack()))
			outcome = harness.ErrorOutcome(err)
			verdict = matchers.Verdict{Expected: c.Expect.String(), Actual: outcome.String(), Err: err}
		}
	}()
	args, err := captured.resolve(c.Args)
	if err != nil {
		// This is a failure even for a case that expects one, since the call was never made.
		outcome = harness.ErrorOutcome(err)
		return matchers.Verdict{Expected: c.Expect.String(), Actual: outcome.String(), Err: err}, outcome
	}
	c.Args = args
	outcome = execute(ctx, session, c)
	verdict = c.Expect.Evaluate(outcome)
	if verdict.Passed && !outcome.IsError() {
		if err := captured.save(c.Captures, outcome.Value()); err != nil {
			verdict = matchers.Verdict{Expected: verdict.Expected, Actual: verdict.Actual, Err: err}
		}
	}
	return verdict, outcome
}

// runSetup runs a setup step. Only a connection or protocol failure is returned; anything else
// is just logged, since the step may fail simply because there was nothing to clean up.
func (e Executor) runSetup(ctx context.Context, session Session, c TestCase, captured capturedValues) error {
	logger := framework.NullLogger()
	if e.DebugLogger != nil {
		logger = e.DebugLogger
	}
	args, err := captured.resolve(c.Args)
	if err != nil {
		logger.Printf("Skipping setup step %q: %s", c.Name, err)
		return nil
	}
	c.Args = args
	outcome := execute(ctx, session, c)
	logger.Printf("Setup step %q in %s: %s", c.Name, c.Group, outcome)
	if err := outcome.Err(); err != nil {
		if framework.IsFatal(err) {
			return err
		}
		return nil
	}
	if err := captured.save(c.Captures, outcome.Value()); err != nil {
		logger.Printf("Setup step %q: %s", c.Name, err)
	}
	return nil
}

// groupsWithSelectedCases returns the groups that have at least one non-setup case that the
// filter and transport allow.
func (e Executor) groupsWithSelectedCases(cases []TestCase) map[string]bool {
	ret := make(map[string]bool)
	for _, c := range cases {
		if c.Setup || !c.AppliesTo(e.Transport) {
			continue
		}
		if e.Filter == nil || e.Filter.Match(c.ID()) {
			ret[c.Group] = true
		}
	}
	return ret
}

func execute(ctx context.Context, session Session, c TestCase) harness.InvocationOutcome {
	switch c.kind() {
	case KindListOperations:
		tools, err := session.ListOperations(ctx)
		return listOutcome(tools, err, func(t protodef.Tool) string { return t.Name })
	case KindListResources:
		resources, err := session.ListResources(ctx)
		return listOutcome(resources, err, func(r protodef.Resource) string { return r.URI })
	case KindListPrompts:
		prompts, err := session.ListPrompts(ctx)
		return listOutcome(prompts, err, func(p protodef.Prompt) string { return p.Name })
	default:
		return session.Invoke(ctx, c.tool(), c.Args)
	}
}

func listOutcome[V any](items []V, err error, name func(V) string) harness.InvocationOutcome {
	if err != nil {
		return harness.ErrorOutcome(err)
	}
	b := ldvalue.ArrayBuildWithCapacity(len(items))
	for _, item := range items {
		b.Add(ldvalue.String(name(item)))
	}
	return harness.SuccessOutcome(b.Build())
}
