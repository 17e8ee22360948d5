package toolsuites

import (
	"github.com/fastmcp4j/mcp-test-harness/framework/matchers"
	"github.com/fastmcp4j/mcp-test-harness/framework/suite"
)

func calculateCases() []suite.TestCase {
	calc := func(name, op string, a, b float64, expect matchers.Expectation) suite.TestCase {
		return invoke(GroupCalculate, "calculate", op, name,
			suite.ArgsOf(suite.A("a", a), suite.A("operation", op), suite.A("b", b)), expect)
	}
	return []suite.TestCase{
		calc("ADD positive", "ADD", 10, 5, matchers.Numeric(15)),
		calc("Add zero", "ADD", 0, 0, matchers.Numeric(0)),
		calc("ADD negative", "ADD", -10, -5, matchers.Numeric(-15)),
		calc("SUBTRACT", "SUBTRACT", 100, 25, matchers.Numeric(75)),
		calc("MULTIPLY", "MULTIPLY", 7, 8, matchers.Numeric(56)),
		calc("DIVIDE exact", "DIVIDE", 144, 12, matchers.Numeric(12)),
		calc("DIVIDE decimal", "DIVIDE", 10, 3, matchers.Numeric(10.0/3)),
		calc("Multiply by zero", "MULTIPLY", 5, 0, matchers.Numeric(0)),
		calc("Large numbers", "ADD", 999999, 1, matchers.Numeric(1000000)),
		calc("Negative multiply", "MULTIPLY", -5, 4, matchers.Numeric(-20)),
		calc("DIVIDE by zero", "DIVIDE", 1, 0, matchers.FailureExpected()),
	}
}
