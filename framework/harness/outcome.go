package harness

import (
	"encoding/json"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// InvocationOutcome is the result of one operation call: either a value or an error, never both.
type InvocationOutcome struct {
	value ldvalue.Value
	err   error
}

func SuccessOutcome(value ldvalue.Value) InvocationOutcome {
	return InvocationOutcome{value: value}
}

// ErrorOutcome returns an outcome holding err. A nil err is treated as a null success value.
func ErrorOutcome(err error) InvocationOutcome {
	return InvocationOutcome{err: err}
}

func (o InvocationOutcome) IsError() bool { return o.err != nil }

// Value returns the successful value, or ldvalue.Null() for an error outcome.
func (o InvocationOutcome) Value() ldvalue.Value {
	if o.err != nil {
		return ldvalue.Null()
	}
	return o.value
}

func (o InvocationOutcome) Err() error { return o.err }

// String renders the outcome for a report: the JSON of the value, or "error: " and the message.
func (o InvocationOutcome) String() string {
	if o.err != nil {
		return "error: " + o.err.Error()
	}
	if s, ok := o.value.AsOptionalString().Get(); ok {
		return s
	}
	return o.value.JSONString()
}

// parseJSONOrString turns the text of a content block into a value. Text that is valid JSON,
// such as "8" or `{"a":1}`, becomes the decoded value; anything else stays a string.
func parseJSONOrString(text string) ldvalue.Value {
	if json.Valid([]byte(text)) {
		return ldvalue.Parse([]byte(text))
	}
	return ldvalue.String(text)
}
