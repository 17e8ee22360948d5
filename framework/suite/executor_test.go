package suite

import (
	"context"
	"testing"

	"github.com/fastmcp4j/mcp-test-harness/framework"
	"github.com/fastmcp4j/mcp-test-harness/framework/harness"
	"github.com/fastmcp4j/mcp-test-harness/framework/matchers"
	"github.com/fastmcp4j/mcp-test-harness/framework/report"
	"github.com/fastmcp4j/mcp-test-harness/protodef"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	tools   []string
	invoke  func(ctx context.Context, tool string, args Args) harness.InvocationOutcome
	invoked []string
}

func (f *fakeSession) Invoke(ctx context.Context, tool string, args Args) harness.InvocationOutcome {
	f.invoked = append(f.invoked, tool)
	return f.invoke(ctx, tool, args)
}

func (f *fakeSession) ListOperations(context.Context) ([]protodef.Tool, error) {
	var ret []protodef.Tool
	for _, name := range f.tools {
		ret = append(ret, protodef.Tool{Name: name})
	}
	return ret, nil
}

func (f *fakeSession) ListResources(context.Context) ([]protodef.Resource, error) {
	return []protodef.Resource{{URI: "server://info"}}, nil
}

func (f *fakeSession) ListPrompts(context.Context) ([]protodef.Prompt, error) {
	return nil, framework.ToolInvocationError{Operation: "prompts/list", Message: "not supported"}
}

// adder answers "add" with the sum of a and b, and everything else with the args as JSON.
func adder(ctx context.Context, tool string, args Args) harness.InvocationOutcome {
	if tool == "add" {
		return harness.SuccessOutcome(ldvalue.Float64(args.Get("a").Float64Value() + args.Get("b").Float64Value()))
	}
	return harness.SuccessOutcome(ldvalue.String(args.String()))
}

type recordingTestLogger struct {
	events  []string
	outputs map[string]framework.CapturedOutput
}

func (r *recordingTestLogger) TestStarted(id CaseID) { r.events = append(r.events, "start "+id.Name) }
func (r *recordingTestLogger) TestError(id CaseID, err error) {
	r.events = append(r.events, "error "+id.Name)
}
func (r *recordingTestLogger) TestFinished(id CaseID, result report.TestResult, out framework.CapturedOutput) {
	if r.outputs == nil {
		r.outputs = make(map[string]framework.CapturedOutput)
	}
	r.outputs[id.Name] = out
	r.events = append(r.events, "finish "+id.Name)
}
func (r *recordingTestLogger) TestSkipped(id CaseID, reason string) {
	r.events = append(r.events, "skip "+id.Name+": "+reason)
}

func addCase(name string, a, b float64, expect matchers.Expectation) TestCase {
	return TestCase{
		Name: name, Group: "calculate", Operation: "add",
		Args: ArgsOf(A("a", a), A("b", b)), Expect: expect,
	}
}

func TestExecutorRunsCasesInOrder(t *testing.T) {
	session := &fakeSession{invoke: adder}
	agg := report.NewAggregator("stdio", nil)
	logger := &recordingTestLogger{}
	cases := []TestCase{
		addCase("one", 1, 2, matchers.Numeric(3)),
		addCase("two", 2, 2, matchers.Numeric(5)),
		addCase("three", 0.1, 0.2, matchers.Numeric(0.3)),
	}

	err := Executor{TestLogger: logger}.Run(context.Background(), session, cases, agg)
	require.NoError(t, err)

	assert.Equal(t, []string{"add", "add", "add"}, session.invoked)
	r := agg.Snapshot()
	require.Len(t, r.Results, 3)
	assert.Equal(t, []string{"one", "two", "three"},
		[]string{r.Results[0].Name(), r.Results[1].Name(), r.Results[2].Name()})
	assert.True(t, r.Results[0].Passed())
	assert.False(t, r.Results[1].Passed())
	assert.Equal(t, "5", r.Results[1].Expected())
	assert.Equal(t, "4", r.Results[1].Actual())
	assert.True(t, r.Results[2].Passed())
	assert.Equal(t, []string{
		"start one", "finish one", "start two", "error two", "finish two", "start three", "finish three",
	}, logger.events)
}

func TestExecutorRecoversFromPanic(t *testing.T) {
	session := &fakeSession{invoke: func(ctx context.Context, tool string, args Args) harness.InvocationOutcome {
		if tool == "boom" {
			panic("kaboom")
		}
		return adder(ctx, tool, args)
	}}
	agg := report.NewAggregator("stdio", nil)
	cases := []TestCase{
		{Name: "panics", Group: "g", Operation: "boom", Expect: matchers.Succeeds()},
		addCase("after", 1, 1, matchers.Numeric(2)),
	}

	require.NoError(t, Executor{}.Run(context.Background(), session, cases, agg))
	r := agg.Snapshot()
	require.Len(t, r.Results, 2)
	assert.False(t, r.Results[0].Passed())
	assert.Contains(t, r.Results[0].Error(), "kaboom")
	assert.True(t, r.Results[1].Passed())
}

func TestExecutorStopsOnFatalError(t *testing.T) {
	lost := framework.ConnectionError{Transport: "stdio", Err: framework.ErrClosed}
	session := &fakeSession{invoke: func(ctx context.Context, tool string, args Args) harness.InvocationOutcome {
		return harness.ErrorOutcome(lost)
	}}
	agg := report.NewAggregator("stdio", nil)
	cases := []TestCase{
		addCase("one", 1, 1, matchers.Numeric(2)),
		addCase("two", 1, 1, matchers.Numeric(2)),
	}

	err := Executor{}.Run(context.Background(), session, cases, agg)
	assert.Equal(t, lost, err)
	assert.Len(t, session.invoked, 1)
	r := agg.Snapshot()
	require.Len(t, r.Results, 1)
	assert.False(t, r.Results[0].Passed())
	assert.Contains(t, r.Results[0].Error(), "could not connect over stdio")
}

func TestExecutorContinuesAfterToolError(t *testing.T) {
	session := &fakeSession{invoke: func(ctx context.Context, tool string, args Args) harness.InvocationOutcome {
		if tool == "divide" {
			return harness.ErrorOutcome(framework.ToolInvocationError{Operation: tool, Message: "Division by zero"})
		}
		return adder(ctx, tool, args)
	}}
	agg := report.NewAggregator("stdio", nil)
	cases := []TestCase{
		{Name: "divide by zero", Group: "calculate", Operation: "divide", Expect: matchers.FailureExpected()},
		{Name: "divide again", Group: "calculate", Operation: "divide", Expect: matchers.Numeric(1)},
		addCase("add", 1, 1, matchers.Numeric(2)),
	}

	require.NoError(t, Executor{}.Run(context.Background(), session, cases, agg))
	r := agg.Snapshot()
	require.Len(t, r.Results, 3)
	assert.True(t, r.Results[0].Passed())
	assert.False(t, r.Results[1].Passed())
	assert.Contains(t, r.Results[1].Error(), "Division by zero")
	assert.True(t, r.Results[2].Passed())
}

func TestExecutorStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	session := &fakeSession{invoke: func(ctx context.Context, tool string, args Args) harness.InvocationOutcome {
		cancel()
		return adder(ctx, tool, args)
	}}
	agg := report.NewAggregator("stdio", nil)
	cases := []TestCase{
		addCase("one", 1, 1, matchers.Numeric(2)),
		addCase("two", 1, 1, matchers.Numeric(2)),
	}

	err := Executor{}.Run(ctx, session, cases, agg)
	assert.Equal(t, context.Canceled, err)
	assert.Len(t, session.invoked, 1)
	assert.Equal(t, 1, agg.Totals().Total)
}

func TestExecutorSkips(t *testing.T) {
	session := &fakeSession{tools: []string{"add"}, invoke: adder}
	agg := report.NewAggregator("stdio", nil)
	logger := &recordingTestLogger{}
	var filters RegexFilters
	require.NoError(t, filters.MustNotMatch.Set("calculate/add/filtered"))
	cases := []TestCase{
		addCase("filtered", 1, 1, matchers.Numeric(2)),
		{Name: "unavailable", Group: "echo", Operation: "echo", Expect: matchers.Succeeds()},
		{Name: "http only", Group: "echo", Operation: "add", Expect: matchers.Succeeds(), Transports: []string{"sse"}},
		addCase("runs", 1, 1, matchers.Numeric(2)),
	}

	e := Executor{Transport: "stdio", Filter: filters, TestLogger: logger, SkipUnavailable: true}
	require.NoError(t, e.Run(context.Background(), session, cases, agg))
	assert.Equal(t, []string{"add"}, session.invoked)
	assert.Equal(t, 1, agg.Totals().Total)
	assert.Equal(t, []string{
		"start filtered", "skip filtered: excluded by filter parameters",
		"start unavailable", `skip unavailable: host does not offer "echo"`,
		"start http only", "skip http only: not applicable to stdio",
		"start runs", "finish runs",
	}, logger.events)
}

func TestExecutorListCases(t *testing.T) {
	session := &fakeSession{tools: []string{"calculate", "echo"}, invoke: adder}
	agg := report.NewAggregator("stdio", nil)
	cases := []TestCase{
		{Name: "tools", Group: "discovery", Operation: "tools/list", Kind: KindListOperations,
			Expect: matchers.CountAtLeast(2).And(matchers.Contains(`"echo"`))},
		{Name: "resources", Group: "discovery", Operation: "resources/list", Kind: KindListResources,
			Expect: matchers.Contains("server://info")},
		{Name: "prompts", Group: "discovery", Operation: "prompts/list", Kind: KindListPrompts,
			Expect: matchers.FailureExpected()},
	}

	require.NoError(t, Executor{}.Run(context.Background(), session, cases, agg))
	r := agg.Snapshot()
	require.Len(t, r.Results, 3)
	for _, result := range r.Results {
		assert.True(t, result.Passed(), result.Name())
	}
	assert.Equal(t, `["calculate","echo"]`, r.Results[0].Actual())
	assert.Empty(t, session.invoked)
}

func TestExecutorCapturesDebugOutputPerCase(t *testing.T) {
	var sessionLogger framework.CapturingLogger
	session := &fakeSession{invoke: func(ctx context.Context, tool string, args Args) harness.InvocationOutcome {
		sessionLogger.Printf("calling %s with %s", tool, args)
		return adder(ctx, tool, args)
	}}
	agg := report.NewAggregator("stdio", nil)
	logger := &recordingTestLogger{}
	cases := []TestCase{
		addCase("one", 1, 2, matchers.Numeric(3)),
		addCase("two", 2, 2, matchers.Numeric(4)),
	}

	e := Executor{TestLogger: logger, DebugLogger: &sessionLogger}
	require.NoError(t, e.Run(context.Background(), session, cases, agg))

	require.Len(t, logger.outputs["one"], 1)
	assert.Equal(t, `calling add with {"a":1,"b":2}`, logger.outputs["one"][0].Message)
	require.Len(t, logger.outputs["two"], 1)
	assert.Equal(t, `calling add with {"a":2,"b":2}`, logger.outputs["two"][0].Message)
	assert.Empty(t, sessionLogger.Output())
}

func TestForSessionIsASession(t *testing.T) {
	var s Session = ForSession(&harness.Session{})
	assert.NotNil(t, s)
}

// todoSession keeps the ids the host handed out, so that a test can see which id a call used.
func todoSession() *fakeSession {
	return &fakeSession{invoke: func(ctx context.Context, tool string, args Args) harness.InvocationOutcome {
		switch tool {
		case "clear":
			return harness.ErrorOutcome(framework.ToolInvocationError{Operation: tool, Message: "nothing to clear"})
		case "create":
			return harness.SuccessOutcome(ldvalue.Parse([]byte(`{"added":true,"todo":{"id":"7"}}`)))
		default:
			return harness.SuccessOutcome(ldvalue.String(args.String()))
		}
	}}
}

func TestExecutorRunsSetupStepsAndUsesCapturedValues(t *testing.T) {
	session := todoSession()
	agg := report.NewAggregator("stdio", nil)
	logger := &recordingTestLogger{}
	var debugOutput framework.CapturingLogger
	cases := []TestCase{
		{Name: "clear", Group: "todo", Operation: "clear", Setup: true},
		{Name: "add", Group: "todo", Operation: "create", Expect: matchers.HasKeyRule("todo"),
			Captures: []Capture{C("todo_id", "todo.id")}},
		{Name: "update", Group: "todo", Operation: "update", Args: ArgsOf(A("id", "${todo_id}")),
			Expect: matchers.Contains(`{"id":"7"}`)},
	}

	e := Executor{TestLogger: logger, DebugLogger: &debugOutput}
	require.NoError(t, e.Run(context.Background(), session, cases, agg))

	assert.Equal(t, []string{"clear", "create", "update"}, session.invoked)
	r := agg.Snapshot()
	require.Len(t, r.Results, 2)
	assert.True(t, r.Results[0].Passed())
	assert.True(t, r.Results[1].Passed(), r.Results[1].Error())
	assert.Equal(t, []string{"start add", "finish add", "start update", "finish update"}, logger.events)
	require.Len(t, debugOutput.Output(), 1)
	assert.Contains(t, debugOutput.Output()[0].Message, `Setup step "clear" in todo`)
}

func TestExecutorSkipsSetupForGroupWithNothingSelected(t *testing.T) {
	session := todoSession()
	agg := report.NewAggregator("stdio", nil)
	var filters RegexFilters
	require.NoError(t, filters.MustNotMatch.Set("todo"))
	cases := []TestCase{
		{Name: "clear", Group: "todo", Operation: "clear", Setup: true},
		{Name: "add", Group: "todo", Operation: "create", Expect: matchers.Succeeds()},
		addCase("sum", 1, 1, matchers.Numeric(2)),
	}

	require.NoError(t, Executor{Filter: filters}.Run(context.Background(), session, cases, agg))
	assert.Equal(t, []string{"add"}, session.invoked)
}

func TestExecutorSetupRunsEvenIfFilterExcludesIt(t *testing.T) {
	session := todoSession()
	agg := report.NewAggregator("stdio", nil)
	var filters RegexFilters
	require.NoError(t, filters.MustMatch.Set("todo/create"))
	cases := []TestCase{
		{Name: "clear", Group: "todo", Operation: "clear", Setup: true},
		{Name: "add", Group: "todo", Operation: "create", Expect: matchers.Succeeds()},
	}

	require.NoError(t, Executor{Filter: filters}.Run(context.Background(), session, cases, agg))
	assert.Equal(t, []string{"clear", "create"}, session.invoked)
}

func TestExecutorCapturedValuesStayInTheirGroup(t *testing.T) {
	session := todoSession()
	agg := report.NewAggregator("stdio", nil)
	cases := []TestCase{
		{Name: "add", Group: "todo", Operation: "create", Expect: matchers.Succeeds(),
			Captures: []Capture{C("todo_id", "todo.id")}},
		{Name: "update elsewhere", Group: "planner", Operation: "update", Args: ArgsOf(A("id", "${todo_id}")),
			Expect: matchers.FailureExpected()},
	}

	require.NoError(t, Executor{}.Run(context.Background(), session, cases, agg))
	assert.Equal(t, []string{"create"}, session.invoked)
	r := agg.Snapshot()
	require.Len(t, r.Results, 2)
	assert.False(t, r.Results[1].Passed())
	assert.Contains(t, r.Results[1].Error(), "no value was captured for todo_id")
}

func TestExecutorFailsCaseWhoseCaptureIsMissing(t *testing.T) {
	session := &fakeSession{invoke: adder}
	agg := report.NewAggregator("stdio", nil)
	c := addCase("sum", 1, 1, matchers.Numeric(2))
	c.Captures = []Capture{C("id", "todo.id")}

	require.NoError(t, Executor{}.Run(context.Background(), session, []TestCase{c}, agg))
	r := agg.Snapshot()
	require.Len(t, r.Results, 1)
	assert.False(t, r.Results[0].Passed())
	assert.Contains(t, r.Results[0].Error(), `cannot capture "id"`)
}
