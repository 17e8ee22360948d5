package matchers

import (
	"strings"
	"testing"
)

func mentions(word string) Matcher[string] {
	return New(
		func(s string) bool { return strings.Contains(s, word) },
		func(string) string { return "mentions " + word },
	)
}

func TestNot(t *testing.T) {
	assertPasses(t, 3, Not(isEven()))
	assertFails(t, 4, Not(isEven()), "expected: not (an even number)\nactual value was: 4")
}

func TestAllOf(t *testing.T) {
	m := AllOf(mentions("add"), mentions("echo"))
	assertPasses(t, "add, echo, todo", m)
	assertFails(t, "echo", m, "expected: mentions add\nactual value was: echo")
	assertFails(t, "add", m, "expected: mentions echo\nactual value was: add")
	assertFails(t, "todo", m, "expected: (mentions add) and (mentions echo)\nactual value was: todo")
	assertPasses(t, "anything", AllOf[string]())
}

func TestAnyOf(t *testing.T) {
	m := AnyOf(mentions("add"), mentions("echo"))
	assertPasses(t, "add, echo", m)
	assertPasses(t, "echo", m)
	assertPasses(t, "add", m)
	assertFails(t, "todo", m, "expected: (mentions add) or (mentions echo)\nactual value was: todo")
	assertFails(t, "anything", AnyOf[string](), "expected: \nactual value was: anything")
}

func TestCombinatorsKeepRendering(t *testing.T) {
	quoted := mentions("add").Rendering(func(s string) string { return "'" + s + "'" })
	assertFails(t, "echo", AllOf(quoted, mentions("echo")), "expected: mentions add\nactual value was: 'echo'")
	assertFails(t, "add", Not(quoted), "expected: not (mentions add)\nactual value was: 'add'")
}
