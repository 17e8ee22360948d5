// Package matchers contains the expectation rules that decide whether a test case passed.
//
// Rules are assembled from Matchers. A Matcher is built separately from the value it tests, can
// be negated or combined with others, and can be applied to a Projection of a richer value. When
// a test fails it reports what it wanted along with the value it got.
package matchers

import (
	"fmt"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/stretchr/testify/assert"
)

// Matcher tests values of type V.
//
// The zero Matcher accepts everything.
type Matcher[V any] struct {
	test   func(V) bool
	want   func(V) string
	render func(V) string
}

// New creates a Matcher. The want function returns a short phrase for what a failing value
// should have been, such as "at least 3"; it is given the failing value in case the phrase
// depends on it.
func New[V any](test func(V) bool, want func(V) string) Matcher[V] {
	return Matcher[V]{test: test, want: want}
}

// Rendering returns a copy of the Matcher that shows tested values with render in failure
// messages, instead of DefaultRendering.
func (m Matcher[V]) Rendering(render func(V) string) Matcher[V] {
	m.render = render
	return m
}

// Test applies the Matcher. On failure the message has the form
// "expected: <want>\nactual value was: <value>".
func (m Matcher[V]) Test(value V) (pass bool, failure string) {
	if m.passes(value) {
		return true, ""
	}
	return false, fmt.Sprintf("expected: %s\nactual value was: %s", m.expectation(value), m.show(value))
}

// Assert fails t with the failure message if value does not pass.
func (m Matcher[V]) Assert(t assert.TestingT, value V) bool {
	pass, failure := m.Test(value)
	if !pass {
		assert.Fail(t, failure)
	}
	return pass
}

func (m Matcher[V]) passes(value V) bool {
	return m.test == nil || m.test(value)
}

func (m Matcher[V]) expectation(value V) string {
	if m.want == nil {
		return "anything"
	}
	return m.want(value)
}

func (m Matcher[V]) show(value V) string {
	if m.render == nil {
		return DefaultRendering(value)
	}
	return m.render(value)
}

// DefaultRendering uses the value's String method if it has one, or else the "%+v" format.
func DefaultRendering(value interface{}) string {
	if s, ok := value.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%+v", value)
}

// Render is the text form of a value used for containment checks, for the "actual" column of
// a report, and for values in failure messages: a string is shown as-is and anything else as
// JSON.
func Render(v ldvalue.Value) string {
	if s, ok := v.AsOptionalString().Get(); ok {
		return s
	}
	return v.JSONString()
}

func valueMatcher(test func(ldvalue.Value) bool, want func(ldvalue.Value) string) Matcher[ldvalue.Value] {
	return New(test, want).Rendering(Render)
}
