// Package opt provides an optional value type for values that may legitimately be absent, such
// as the session ID of a streamable channel before the host has assigned one.
package opt

import "fmt"

// Maybe holds either a value or nothing. The zero value holds nothing.
type Maybe[V any] struct {
	value   V
	present bool
}

func Some[V any](value V) Maybe[V] { return Maybe[V]{value: value, present: true} }

func None[V any]() Maybe[V] { return Maybe[V]{} }

func (m Maybe[V]) IsDefined() bool { return m.present }

// Value returns the value, or the zero value of V if there is none.
func (m Maybe[V]) Value() V { return m.value }

// Get returns the value and whether there is one, in the style of a map lookup.
func (m Maybe[V]) Get() (V, bool) { return m.value, m.present }

// String formats the value with %v, or returns "none".
func (m Maybe[V]) String() string {
	if v, ok := m.Get(); ok {
		return fmt.Sprint(v)
	}
	return "none"
}
