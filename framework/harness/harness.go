package harness

import (
	"context"
	"fmt"
	"io"

	"github.com/fastmcp4j/mcp-test-harness/framework"
	"github.com/fastmcp4j/mcp-test-harness/framework/transport"

	"github.com/mark3labs/mcp-go/mcp"
)

// Harness opens sessions with a tool host. It contains no test logic; suites build on the
// sessions it returns.
type Harness struct {
	clientInfo    mcp.Implementation
	policy        RetryPolicy
	logger        framework.Logger
	startupOutput io.Writer
}

// NewHarness creates a Harness. Progress of each connection attempt is written to startupOutput;
// traffic goes to debugLogger.
func NewHarness(
	clientInfo mcp.Implementation,
	policy RetryPolicy,
	debugLogger framework.Logger,
	startupOutput io.Writer,
) *Harness {
	if debugLogger == nil {
		debugLogger = framework.NullLogger()
	}
	if startupOutput == nil {
		startupOutput = io.Discard
	}
	return &Harness{clientInfo: clientInfo, policy: policy, logger: debugLogger, startupOutput: startupOutput}
}

// Open connects over binding and completes the handshake, retrying according to the policy.
// Each attempt uses a fresh channel and SessionHandle.
func (h *Harness) Open(ctx context.Context, binding transport.Binding) (*Session, error) {
	fmt.Fprintf(h.startupOutput, "Connecting to tool host over %s at %s", binding.Kind(), binding.Describe())
	session, attempts, err := ConnectWithRetry(ctx, h.policy, string(binding.Kind()), func(ctx context.Context) (*Session, error) {
		fmt.Fprint(h.startupOutput, ".")
		return h.establish(ctx, binding)
	}, h.logger)
	fmt.Fprintln(h.startupOutput)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(h.startupOutput, "Connected after %d attempt(s): %s\n", attempts, session.ServerInfo())
	fmt.Fprintf(h.startupOutput, "Capabilities: %s\n", session.ServerInfo().Capabilities)
	return session, nil
}

func (h *Harness) establish(ctx context.Context, binding transport.Binding) (*Session, error) {
	handle := NewSessionHandle(binding.Kind(), binding.Describe())
	if err := handle.Transition(StateConnecting); err != nil {
		return nil, err
	}
	conn, err := binding.Connect(ctx)
	if err != nil {
		_ = handle.Transition(StateFailed)
		return nil, err
	}
	session := NewSession(handle, conn, h.clientInfo, h.logger)
	if _, err := session.Initialize(ctx); err != nil {
		_ = session.Close()
		return nil, err
	}
	return session, nil
}
