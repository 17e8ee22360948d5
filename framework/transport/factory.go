package transport

import "fmt"

// Target holds the connection parameters for every kind; each kind reads only its own.
type Target struct {
	Command       []string
	SSEURL        string
	StreamableURL string
}

// New creates the binding for kind from the matching field of target.
func New(kind Kind, target Target, options ...Option) (Binding, error) {
	switch kind {
	case KindStdio:
		return NewStdio(target.Command, options...)
	case KindSSE:
		return NewSSE(target.SSEURL, options...)
	case KindStreamable:
		return NewStreamable(target.StreamableURL, options...)
	default:
		return nil, fmt.Errorf("unknown transport %q", kind)
	}
}
