package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/fastmcp4j/mcp-test-harness/framework"
	"github.com/fastmcp4j/mcp-test-harness/protodef"

	"github.com/alessio/shellescape"
)

const (
	// processExitWait bounds how long Close waits for a killed host process to be reaped.
	processExitWait = 5 * time.Second

	// stderrDrainWait bounds how long Close waits for the host's last stderr lines to be logged.
	stderrDrainWait = 500 * time.Millisecond
)

// Stdio spawns the tool host as a child process and exchanges framed messages over its
// standard input and output. Every Connect starts a new process.
type Stdio struct {
	command []string
	config  Config
}

// NewStdio creates a process binding. The first element of command is the executable.
func NewStdio(command []string, options ...Option) (*Stdio, error) {
	if len(command) == 0 || command[0] == "" {
		return nil, errors.New("a host command is required for the stdio transport")
	}
	config, err := makeConfig(options)
	if err != nil {
		return nil, err
	}
	return &Stdio{command: append([]string(nil), command...), config: config}, nil
}

func (s *Stdio) Kind() Kind { return KindStdio }

func (s *Stdio) Describe() string {
	return shellescape.QuoteCommand(s.command)
}

func (s *Stdio) Connect(ctx context.Context) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, framework.ConnectionError{Transport: string(KindStdio), Err: err}
	}
	fail := func(err error) (Conn, error) {
		return nil, framework.ConnectionError{Transport: string(KindStdio), Err: err}
	}

	// The process lifetime is bound to Close rather than to ctx, which only covers establishment.
	cmd := exec.Command(s.command[0], s.command[1:]...) //nolint:gosec
	cmd.Dir = s.config.Dir
	startInOwnGroup(cmd)
	if len(s.config.Env) != 0 {
		cmd.Env = append(os.Environ(), s.config.Env...)
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fail(err)
	}
	// Output pipes are created by hand so that cmd.Wait never closes or drains them; the read
	// loop owns the read ends.
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return fail(err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		_ = stdoutR.Close()
		_ = stdoutW.Close()
		return fail(err)
	}
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	s.config.Logger.Printf("Starting host process: %s", s.Describe())
	if err := cmd.Start(); err != nil {
		for _, f := range []*os.File{stdoutR, stdoutW, stderrR, stderrW} {
			_ = f.Close()
		}
		return fail(err)
	}
	_ = stdoutW.Close()
	_ = stderrW.Close()

	c := &stdioConn{
		cmd:        cmd,
		stdin:      stdin,
		stdout:     stdoutR,
		stderr:     stderrR,
		config:     s.config,
		pending:    newPendingCalls(),
		exited:     make(chan struct{}),
		stderrDone: make(chan struct{}),
	}
	go c.wait()
	go c.readLoop()
	go c.logStderr()
	return c, nil
}

type stdioConn struct {
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	stdout     *os.File
	stderr     *os.File
	config     Config
	pending    *pendingCalls
	exited     chan struct{}
	exitErr    error
	stderrDone chan struct{}
	writeLock  sync.Mutex
	closeOnce  sync.Once
}

func (c *stdioConn) Call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	id, ch, err := c.pending.register()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	req, err := protodef.NewRequest(id, method, params)
	if err != nil {
		c.pending.cancel(id)
		return nil, err
	}
	if err := c.send(req); err != nil {
		c.pending.cancel(id)
		// A failed write means the process is gone or going.
		return nil, fmt.Errorf("sending %s request: %s: %w", method, err, framework.ErrClosed)
	}
	return c.pending.await(ctx, id, ch, method, c.config.Timeout)
}

func (c *stdioConn) Notify(ctx context.Context, method string, params interface{}) error {
	if err := c.pending.err(); err != nil {
		return err
	}
	note, err := protodef.NewNotification(method, params)
	if err != nil {
		return err
	}
	return c.send(note)
}

func (c *stdioConn) send(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	c.config.Logger.Printf(">> %s", data)
	c.writeLock.Lock()
	defer c.writeLock.Unlock()
	return WriteFrame(c.stdin, data)
}

func (c *stdioConn) readLoop() {
	reader := NewFrameReader(c.stdout)
	for {
		payload, err := reader.ReadFrame()
		if err != nil {
			var pe framework.ProtocolError
			switch {
			case errors.As(err, &pe):
				c.config.Logger.Printf("Framing error from host: %s", err)
				c.pending.failAll(pe)
			case errors.Is(err, io.EOF):
				c.pending.failAll(fmt.Errorf("host process closed its output: %w", framework.ErrClosed))
			default:
				c.pending.failAll(fmt.Errorf("reading from host process: %s: %w", err, framework.ErrClosed))
			}
			return
		}
		c.config.Logger.Printf("<< %s", payload)
		var m protodef.Message
		if err := json.Unmarshal(payload, &m); err != nil {
			c.pending.failAll(framework.ProtocolError{Message: "host sent a payload that is not JSON", Err: err})
			return
		}
		if !m.IsResponse() {
			c.handleHostMessage(m)
			continue
		}
		if !c.pending.deliver(m) {
			c.config.Logger.Printf("Discarding response with unknown id %s", string(m.ID))
		}
	}
}

// handleHostMessage answers pings from the host; other requests and notifications are only
// logged.
func (c *stdioConn) handleHostMessage(m protodef.Message) {
	if m.Method == protodef.MethodPing && len(m.ID) != 0 {
		_ = c.send(protodef.Response{JSONRPC: protodef.Version, ID: m.ID, Result: json.RawMessage(`{}`)})
		return
	}
	c.config.Logger.Printf("Ignoring %q message from host", m.Method)
}

func (c *stdioConn) logStderr() {
	defer close(c.stderrDone)
	scanner := bufio.NewScanner(c.stderr)
	for scanner.Scan() {
		c.config.Logger.Printf("[host stderr] %s", scanner.Text())
	}
}

func (c *stdioConn) wait() {
	c.exitErr = c.cmd.Wait()
	close(c.exited)
}

// Close stops the host process, along with anything it started, and releases the pipes. When
// it returns, the process has been reaped unless it could not be killed within processExitWait.
func (c *stdioConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.pending.failAll(fmt.Errorf("connection closed: %w", framework.ErrClosed))
		_ = c.stdin.Close()
		killProcessTree(c.cmd)
		select {
		case <-c.exited:
		case <-time.After(processExitWait):
			err = fmt.Errorf("host process %d did not exit after kill", c.cmd.Process.Pid)
		}
		// A host that fails at startup usually says why on stderr just before it exits.
		select {
		case <-c.stderrDone:
		case <-time.After(stderrDrainWait):
		}
		// Closing the read ends unblocks the reader goroutines even if a process outside the
		// group still holds the write ends.
		_ = c.stdout.Close()
		_ = c.stderr.Close()
		c.config.Logger.Printf("Host process stopped")
	})
	return err
}

// pid is used by tests to check that the process is gone after Close.
func (c *stdioConn) pid() int {
	if c.cmd.Process == nil {
		return 0
	}
	return c.cmd.Process.Pid
}
