package matchers

// Projection derives an Out from an In, so that a Matcher[Out] can be used to test an In.
// Failure messages prefix the inner expectation with the projection's name and show the
// original input, for instance:
//
//	expected: item count at least 2
//	actual value was: ["a"]
type Projection[In, Out any] struct {
	name   string
	get    func(In) Out
	render func(In) string
}

// Project creates a Projection. The name says what the output is in relation to the input.
func Project[In, Out any](name string, get func(In) Out) Projection[In, Out] {
	return Projection[In, Out]{name: name, get: get}
}

// Rendering sets how inputs are shown in failure messages.
func (p Projection[In, Out]) Rendering(render func(In) string) Projection[In, Out] {
	p.render = render
	return p
}

// Should returns a Matcher that projects its input and applies m to the result.
func (p Projection[In, Out]) Should(m Matcher[Out]) Matcher[In] {
	return Matcher[In]{
		test:   func(value In) bool { return m.passes(p.get(value)) },
		want:   func(value In) string { return p.name + " " + m.expectation(p.get(value)) },
		render: p.render,
	}
}
