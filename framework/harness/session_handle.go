package harness

import (
	"fmt"
	"sync"

	"github.com/fastmcp4j/mcp-test-harness/framework"
	"github.com/fastmcp4j/mcp-test-harness/framework/transport"
)

// State is the lifecycle state of a SessionHandle.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateReady
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var allowedTransitions = map[State][]State{ //nolint:gochecknoglobals
	StateDisconnected: {StateConnecting},
	StateConnecting:   {StateReady, StateFailed},
	StateReady:        {StateClosed, StateFailed},
}

// SessionHandle identifies one attempt to talk to a tool host: which transport, with what
// connection parameters, and how far the attempt has got. A handle is never reused; a retry
// starts from a new one.
type SessionHandle struct {
	kind   transport.Kind
	target string
	state  State
	lock   sync.Mutex
}

func NewSessionHandle(kind transport.Kind, target string) *SessionHandle {
	return &SessionHandle{kind: kind, target: target}
}

func (h *SessionHandle) Kind() transport.Kind { return h.kind }

// Target is the human-readable connection parameters, such as a URL or command line.
func (h *SessionHandle) Target() string { return h.target }

func (h *SessionHandle) State() State {
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.state
}

// Transition moves the handle to a new state. A transition that the lifecycle does not allow
// leaves the state unchanged and returns a framework.ProtocolError.
func (h *SessionHandle) Transition(to State) error {
	h.lock.Lock()
	defer h.lock.Unlock()
	for _, allowed := range allowedTransitions[h.state] {
		if allowed == to {
			h.state = to
			return nil
		}
	}
	return framework.ProtocolError{Message: fmt.Sprintf("session cannot go from %s to %s", h.state, to)}
}

// closeState applies the state change for closing a session: Ready becomes Closed, Connecting
// becomes Failed, and anything else stays as it is.
func (h *SessionHandle) closeState() {
	h.lock.Lock()
	defer h.lock.Unlock()
	switch h.state {
	case StateReady:
		h.state = StateClosed
	case StateConnecting:
		h.state = StateFailed
	}
}

func (h *SessionHandle) String() string {
	return fmt.Sprintf("%s %s (%s)", h.kind, h.target, h.State())
}
