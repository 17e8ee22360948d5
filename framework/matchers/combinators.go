package matchers

import "strings"

// Not passes when m fails.
func Not[V any](m Matcher[V]) Matcher[V] {
	return Matcher[V]{
		test:   func(value V) bool { return !m.passes(value) },
		want:   func(value V) string { return "not (" + m.expectation(value) + ")" },
		render: m.render,
	}
}

// AllOf passes when every one of ms passes. A failure lists only the matchers that failed.
func AllOf[V any](ms ...Matcher[V]) Matcher[V] {
	return combine(ms, true, " and ")
}

// AnyOf passes when at least one of ms passes.
func AnyOf[V any](ms ...Matcher[V]) Matcher[V] {
	return combine(ms, false, " or ")
}

// combine stops at the first matcher whose result differs from requireAll.
func combine[V any](ms []Matcher[V], requireAll bool, separator string) Matcher[V] {
	ret := Matcher[V]{
		test: func(value V) bool {
			for _, m := range ms {
				if m.passes(value) != requireAll {
					return !requireAll
				}
			}
			return requireAll
		},
		want: func(value V) string {
			var failed []string
			for _, m := range ms {
				if !m.passes(value) {
					failed = append(failed, m.expectation(value))
				}
			}
			if len(failed) == 1 {
				return failed[0]
			}
			for i, f := range failed {
				failed[i] = "(" + f + ")"
			}
			return strings.Join(failed, separator)
		},
	}
	if len(ms) != 0 {
		ret.render = ms[0].render
	}
	return ret
}
