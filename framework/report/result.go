package report

// TestResult is the outcome of one test case. It is built only by NewTestResult, which is the
// one place where pass/fail is decided.
type TestResult struct {
	group     string
	operation string
	name      string
	passed    bool
	expected  string
	actual    string
	errText   string
}

// NewTestResult creates a TestResult. The case passed exactly when err is nil.
func NewTestResult(group, operation, name, expected, actual string, err error) TestResult {
	r := TestResult{
		group:     group,
		operation: operation,
		name:      name,
		passed:    err == nil,
		expected:  expected,
		actual:    actual,
	}
	if err != nil {
		r.errText = err.Error()
	}
	return r
}

func (r TestResult) Group() string     { return r.group }
func (r TestResult) Operation() string { return r.operation }
func (r TestResult) Name() string      { return r.name }
func (r TestResult) Passed() bool      { return r.passed }
func (r TestResult) Expected() string  { return r.expected }
func (r TestResult) Actual() string    { return r.actual }

// Error is the error text of a failed case, or "" if it passed.
func (r TestResult) Error() string { return r.errText }

// ID is "group/operation/name".
func (r TestResult) ID() string {
	return r.group + "/" + r.operation + "/" + r.name
}
