package framework

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is wrapped by any error caused by a bounded wait elapsing.
	ErrTimeout = errors.New("timed out waiting for response")

	// ErrClosed is wrapped by any error caused by using a channel after it was closed.
	ErrClosed = errors.New("channel is closed")
)

// ConnectionError means that a transport channel or session could not be established. When it
// comes from the retry controller, Attempts is the number of attempts that were made and Err is
// the error from the last one.
type ConnectionError struct {
	Transport string
	Attempts  int
	Err       error
}

func (e ConnectionError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("could not connect over %s after %d attempts: %s", e.Transport, e.Attempts, e.Err)
	}
	return fmt.Sprintf("could not connect over %s: %s", e.Transport, e.Err)
}

func (e ConnectionError) Unwrap() error { return e.Err }

// ProtocolError means that the handshake failed or that the peer violated the wire format.
type ProtocolError struct {
	Message string
	Err     error
}

func (e ProtocolError) Error() string {
	if e.Err == nil {
		return "protocol error: " + e.Message
	}
	return fmt.Sprintf("protocol error: %s: %s", e.Message, e.Err)
}

func (e ProtocolError) Unwrap() error { return e.Err }

// ToolInvocationError means that the remote host reported a failure for one operation call.
type ToolInvocationError struct {
	Operation string
	Message   string
}

func (e ToolInvocationError) Error() string {
	return fmt.Sprintf("operation %q failed: %s", e.Operation, e.Message)
}

// ExpectationMismatch means that an operation returned a value that did not satisfy the
// expectation of the test case.
type ExpectationMismatch struct {
	Expected    string
	Actual      string
	Description string
}

func (e ExpectationMismatch) Error() string {
	return e.Description
}

// IsFatal returns true for the errors that end a whole transport run: connection and protocol
// failures. Anything else only affects the current test case.
func IsFatal(err error) bool {
	var ce ConnectionError
	var pe ProtocolError
	return errors.As(err, &ce) || errors.As(err, &pe)
}
