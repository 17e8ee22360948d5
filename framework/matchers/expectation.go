package matchers

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fastmcp4j/mcp-test-harness/framework"
	"github.com/fastmcp4j/mcp-test-harness/framework/harness"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// Expectation is the rule that the outcome of a test case's operation call must satisfy.
//
// Every rule except FailureExpected treats an error outcome as a failure, and records the error
// text rather than a mismatch description.
type Expectation struct {
	description  string
	matcher      Matcher[ldvalue.Value]
	acceptsError bool
}

// Verdict is the result of applying an Expectation to an outcome.
type Verdict struct {
	Passed   bool
	Expected string
	Actual   string
	// Err is nil when Passed is true. Otherwise it is either the error from the outcome or an
	// ExpectationMismatch.
	Err error
}

// Numeric expects a number, or a numeric string, within NumericTolerance of expected.
func Numeric(expected float64) Expectation {
	return Expectation{description: formatNumber(expected), matcher: NumericallyEqual(expected)}
}

// Contains expects the rendered value to contain substr.
func Contains(substr string) Expectation {
	return Expectation{
		description: fmt.Sprintf("contains %q", substr),
		matcher:     RenderedText().Should(StringContains(substr)),
	}
}

// DoesNotContain expects the rendered value not to contain substr.
func DoesNotContain(substr string) Expectation {
	return Expectation{
		description: fmt.Sprintf("does not contain %q", substr),
		matcher:     Not(RenderedText().Should(StringContains(substr))),
	}
}

// Matches expects the rendered value to contain a match for rx. It is the way to check the
// order of things in a value.
func Matches(rx *regexp.Regexp) Expectation {
	return Expectation{
		description: fmt.Sprintf("matches /%s/", rx),
		matcher:     RenderedText().Should(StringMatches(rx)),
	}
}

// HasKeyRule expects an object with the named property.
func HasKeyRule(key string) Expectation {
	return Expectation{description: fmt.Sprintf("has key %q", key), matcher: HasKey(key)}
}

// Equals expects a value equal to expected.
func Equals(expected ldvalue.Value) Expectation {
	return Expectation{description: Render(expected), matcher: Equal(expected)}
}

// Succeeds accepts any outcome that is not an error.
func Succeeds() Expectation {
	return Expectation{description: "success", matcher: Matcher[ldvalue.Value]{}}
}

// CountAtLeast expects an array with at least n items.
func CountAtLeast(n int) Expectation {
	return Expectation{
		description: fmt.Sprintf("at least %d item(s)", n),
		matcher:     ItemCount().Should(AtLeast(n)),
	}
}

// FailureExpected passes exactly when the outcome is an error or a sentinel failure value as
// defined by IsSentinelFailure.
func FailureExpected() Expectation {
	return Expectation{description: "failure", matcher: IsSentinelFailure(), acceptsError: true}
}

// And combines expectations so that all of them must pass. Combining with FailureExpected is
// not meaningful, and the combined rule treats error outcomes as failures.
func (e Expectation) And(others ...Expectation) Expectation {
	if len(others) == 0 {
		return e
	}
	descriptions := []string{e.description}
	all := []Matcher[ldvalue.Value]{e.matcher}
	for _, o := range others {
		descriptions = append(descriptions, o.description)
		all = append(all, o.matcher)
	}
	return Expectation{
		description: strings.Join(descriptions, " and "),
		matcher:     AllOf(all...),
	}
}

// AcceptsError returns true for FailureExpected.
func (e Expectation) AcceptsError() bool { return e.acceptsError }

// String is the "expected" column of a report.
func (e Expectation) String() string { return e.description }

// Evaluate applies the rule to an outcome.
func (e Expectation) Evaluate(outcome harness.InvocationOutcome) Verdict {
	v := Verdict{Expected: e.description, Actual: outcome.String()}
	if outcome.IsError() {
		if e.acceptsError {
			v.Passed = true
		} else {
			v.Err = outcome.Err()
		}
		return v
	}
	pass, desc := e.matcher.Test(outcome.Value())
	if pass {
		v.Passed = true
		return v
	}
	v.Err = framework.ExpectationMismatch{Expected: v.Expected, Actual: v.Actual, Description: desc}
	return v
}
