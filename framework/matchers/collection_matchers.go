package matchers

import (
	"fmt"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// HasKey passes for an object that has the named property.
func HasKey(key string) Matcher[ldvalue.Value] {
	return valueMatcher(
		func(v ldvalue.Value) bool {
			if v.Type() != ldvalue.ObjectType {
				return false
			}
			_, found := v.TryGetByKey(key)
			return found
		},
		func(ldvalue.Value) string { return fmt.Sprintf("an object with key %q", key) },
	)
}

// ItemCount projects an array onto its length. Anything that is not an array counts as -1, so
// it fails any length check.
func ItemCount() Projection[ldvalue.Value, int] {
	return Project("item count", func(v ldvalue.Value) int {
		if v.Type() != ldvalue.ArrayType {
			return -1
		}
		return v.Count()
	}).Rendering(Render)
}

// RenderedText projects a value onto its Render form.
func RenderedText() Projection[ldvalue.Value, string] {
	return Project("rendered text", Render).Rendering(Render)
}

// AtLeast passes for an int no less than n.
func AtLeast(n int) Matcher[int] {
	return New(
		func(i int) bool { return i >= n },
		func(int) string { return fmt.Sprintf("at least %d", n) },
	)
}
