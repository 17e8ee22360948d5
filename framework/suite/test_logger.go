package suite

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fastmcp4j/mcp-test-harness/framework"
	"github.com/fastmcp4j/mcp-test-harness/framework/report"

	"github.com/fatih/color"
)

var consoleTestErrorColor = color.New(color.FgYellow)              //nolint:gochecknoglobals
var consoleTestFailedColor = color.New(color.FgRed)                //nolint:gochecknoglobals
var consoleTestSkippedColor = color.New(color.Faint, color.FgBlue) //nolint:gochecknoglobals
var consoleDebugOutputColor = color.New(color.Faint)               //nolint:gochecknoglobals
var allTestsPassedColor = color.New(color.FgGreen)                 //nolint:gochecknoglobals

// TestLogger receives the status of each test case as the executor runs it.
type TestLogger interface {
	TestStarted(id CaseID)
	TestError(id CaseID, err error)
	TestFinished(id CaseID, result report.TestResult, debugOutput framework.CapturedOutput)
	TestSkipped(id CaseID, reason string)
}

type nullTestLogger struct{}

func (n nullTestLogger) TestStarted(CaseID)                                               {}
func (n nullTestLogger) TestError(CaseID, error)                                          {}
func (n nullTestLogger) TestFinished(CaseID, report.TestResult, framework.CapturedOutput) {}
func (n nullTestLogger) TestSkipped(CaseID, string)                                       {}

type multiTestLogger []TestLogger

// MultiTestLogger sends every event to all of the given loggers.
func MultiTestLogger(loggers ...TestLogger) TestLogger {
	return multiTestLogger(loggers)
}

func (m multiTestLogger) TestStarted(id CaseID) {
	for _, l := range m {
		l.TestStarted(id)
	}
}

func (m multiTestLogger) TestError(id CaseID, err error) {
	for _, l := range m {
		l.TestError(id, err)
	}
}

func (m multiTestLogger) TestFinished(id CaseID, result report.TestResult, debugOutput framework.CapturedOutput) {
	for _, l := range m {
		l.TestFinished(id, result, debugOutput)
	}
}

func (m multiTestLogger) TestSkipped(id CaseID, reason string) {
	for _, l := range m {
		l.TestSkipped(id, reason)
	}
}

type ConsoleTestLogger struct {
	DebugOutputOnFailure bool
	DebugOutputOnSuccess bool
}

func (c ConsoleTestLogger) TestStarted(id CaseID) {
	fmt.Printf("[%s]\n", id)
}

func (c ConsoleTestLogger) TestError(id CaseID, err error) {
	for _, line := range strings.Split(err.Error(), "\n") {
		_, _ = consoleTestErrorColor.Printf("  %s\n", line)
	}
}

func (c ConsoleTestLogger) TestFinished(id CaseID, result report.TestResult, debugOutput framework.CapturedOutput) {
	failed := !result.Passed()
	if failed {
		_, _ = consoleTestFailedColor.Printf("  FAILED: %s\n", id)
		_, _ = consoleTestFailedColor.Printf("    expected: %s\n    actual: %s\n", result.Expected(), result.Actual())
	}
	if len(debugOutput) > 0 &&
		((failed && c.DebugOutputOnFailure) || (!failed && c.DebugOutputOnSuccess)) {
		_, _ = consoleDebugOutputColor.Println(debugOutput.ToString("    DEBUG "))
	}
}

func (c ConsoleTestLogger) TestSkipped(id CaseID, reason string) {
	if reason == "" {
		_, _ = consoleTestSkippedColor.Printf("  SKIPPED: %s\n", id)
	} else {
		_, _ = consoleTestSkippedColor.Printf("  SKIPPED: %s (%s)\n", id, reason)
	}
}

// PrintResults writes the summary of a finished run: the per-group counts, then either a success
// line or the list of failed cases.
func PrintResults(r report.AggregateReport) {
	printResults(os.Stdout, os.Stderr, r)
}

func printResults(out, errOut io.Writer, r report.AggregateReport) {
	_, _ = fmt.Fprintf(out, "Results for %s (run %s): %d passed, %d failed, %d total\n",
		r.Transport, r.RunID, r.Passed, r.Failed, r.Total)
	for _, g := range r.Groups {
		_, _ = fmt.Fprintf(out, "  %-12s %d/%d passed\n", g.Group, g.Passed, g.Total)
	}
	if r.OK() {
		_, _ = allTestsPassedColor.Fprintln(out, "All tests passed")
		return
	}
	_, _ = consoleTestFailedColor.Fprintf(errOut, "FAILED TESTS (%d):\n", len(r.Failures))
	for _, f := range r.Failures {
		_, _ = consoleTestFailedColor.Fprintf(errOut, "  * %s: %s\n", f.ID(), f.Error())
	}
}
