package data

import (
	"fmt"
	"regexp"

	"github.com/fastmcp4j/mcp-test-harness/framework/matchers"
	"github.com/fastmcp4j/mcp-test-harness/framework/suite"

	"github.com/launchdarkly/go-jsonstream/v3/jreader"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// SuiteFile is the content of a suite file. See data-files/suites/smoke.yaml for an example.
type SuiteFile struct {
	Name  string     `json:"name"`
	Cases []CaseData `json:"cases"`
}

// CaseData is one test case as written in a suite file.
type CaseData struct {
	Name       string          `json:"name"`
	Group      string          `json:"group"`
	Operation  string          `json:"operation"`
	Tool       string          `json:"tool"`
	Kind       string          `json:"kind"`
	Transports []string        `json:"transports"`
	Args       suite.Args      `json:"args"`
	Expect     ExpectationData `json:"expect"`
	// Setup marks a step that prepares the host for the rest of the group; it needs no "expect".
	Setup bool `json:"setup"`
	// Capture maps a name to a dotted path into the outcome, for example {todo_id: todo.id}.
	// Later cases in the group can write "${todo_id}" in their arguments.
	Capture map[string]string `json:"capture"`
}

// ExpectationData is the "expect" property of a case: an object whose keys name rules. More
// than one key means that all of the rules must pass, checked in the order they are written.
//
//	expect: {numeric: 8}
//	expect: {hasKey: todos, contains: ship}
//	expect: {failureExpected: true}
type ExpectationData struct {
	matchers.Expectation
}

// UnmarshalJSON reads the rules in order.
func (e *ExpectationData) UnmarshalJSON(data []byte) error {
	var rules []matchers.Expectation
	r := jreader.NewReader(data)
	for obj := r.Object(); obj.Next(); {
		name := string(obj.Name())
		var v ldvalue.Value
		v.ReadFromJSONReader(&r)
		if r.Error() != nil {
			break
		}
		rule, err := parseRule(name, v)
		if err != nil {
			return err
		}
		rules = append(rules, rule)
	}
	if err := r.Error(); err != nil {
		return fmt.Errorf("malformed expectation: %w", err)
	}
	if len(rules) == 0 {
		return fmt.Errorf("expectation has no rules")
	}
	e.Expectation = rules[0].And(rules[1:]...)
	return nil
}

func parseRule(name string, v ldvalue.Value) (matchers.Expectation, error) {
	switch name {
	case "numeric":
		if !v.IsNumber() {
			return matchers.Expectation{}, fmt.Errorf("numeric expectation needs a number, got %s", v.JSONString())
		}
		return matchers.Numeric(v.Float64Value()), nil
	case "contains":
		return matchers.Contains(ruleText(v)), nil
	case "matches":
		rx, err := regexp.Compile(ruleText(v))
		if err != nil {
			return matchers.Expectation{}, fmt.Errorf("matches expectation: %w", err)
		}
		return matchers.Matches(rx), nil
	case "doesNotContain":
		return matchers.DoesNotContain(ruleText(v)), nil
	case "hasKey":
		if !v.IsString() {
			return matchers.Expectation{}, fmt.Errorf("hasKey expectation needs a string, got %s", v.JSONString())
		}
		return matchers.HasKeyRule(v.StringValue()), nil
	case "equals":
		return matchers.Equals(v), nil
	case "countAtLeast":
		if !v.IsInt() {
			return matchers.Expectation{}, fmt.Errorf("countAtLeast expectation needs an integer, got %s", v.JSONString())
		}
		return matchers.CountAtLeast(v.IntValue()), nil
	case "succeeds", "failureExpected":
		if !v.BoolValue() {
			return matchers.Expectation{}, fmt.Errorf("%s can only be true", name)
		}
		if name == "succeeds" {
			return matchers.Succeeds(), nil
		}
		return matchers.FailureExpected(), nil
	default:
		return matchers.Expectation{}, fmt.Errorf("unknown expectation %q", name)
	}
}

func ruleText(v ldvalue.Value) string {
	if v.IsString() {
		return v.StringValue()
	}
	return v.JSONString()
}

// TestCases converts the file's cases. Cases with no group get the suite name as their group.
func (f SuiteFile) TestCases() ([]suite.TestCase, error) {
	ret := make([]suite.TestCase, 0, len(f.Cases))
	for _, c := range f.Cases {
		kind, err := suite.ParseKind(c.Kind)
		if err != nil {
			return nil, fmt.Errorf("case %q: %w", c.Name, err)
		}
		group := c.Group
		if group == "" {
			group = f.Name
		}
		names := maps.Keys(c.Capture)
		slices.Sort(names)
		var captures []suite.Capture
		for _, name := range names {
			captures = append(captures, suite.C(name, c.Capture[name]))
		}
		ret = append(ret, suite.TestCase{
			Name:       c.Name,
			Group:      group,
			Operation:  c.Operation,
			Tool:       c.Tool,
			Kind:       kind,
			Args:       c.Args,
			Expect:     c.Expect.Expectation,
			Transports: c.Transports,
			Captures:   captures,
			Setup:      c.Setup,
		})
	}
	return ret, nil
}
