package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fastmcp4j/mcp-test-harness/framework"
	"github.com/fastmcp4j/mcp-test-harness/protodef"

	"github.com/launchdarkly/eventsource"
)

// SSE connects to a host that pushes responses over a long-lived event stream. The stream's
// first "endpoint" event says where requests are to be POSTed; responses then arrive as
// "message" events and are matched to requests by ID.
//
// A dropped stream is not resumed: every pending and later call fails, and the session has to
// be re-established.
type SSE struct {
	streamURL *url.URL
	config    Config
}

func NewSSE(streamURL string, options ...Option) (*SSE, error) {
	u, err := url.Parse(streamURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid event-stream URL %q", streamURL)
	}
	config, err := makeConfig(options)
	if err != nil {
		return nil, err
	}
	return &SSE{streamURL: u, config: config}, nil
}

func (s *SSE) Kind() Kind { return KindSSE }

func (s *SSE) Describe() string { return s.streamURL.String() }

func (s *SSE) Connect(ctx context.Context) (Conn, error) {
	fail := func(err error) (Conn, error) {
		return nil, framework.ConnectionError{Transport: string(KindSSE), Err: err}
	}

	c := &sseConn{
		config:     s.config,
		pending:    newPendingCalls(),
		closed:     make(chan struct{}),
		streamDone: make(chan struct{}),
	}
	// The stream must outlive ctx, so it gets its own context that Close cancels.
	c.life, c.cancel = context.WithCancel(context.Background())

	req, err := http.NewRequestWithContext(c.life, http.MethodGet, s.streamURL.String(), nil)
	if err != nil {
		c.cancel()
		return fail(err)
	}
	req.Header.Set("Accept", "text/event-stream")
	s.config.applyHeaders(req)

	type subscribed struct {
		stream *eventsource.Stream
		err    error
	}
	subscribeCh := make(chan subscribed, 1)
	go func() {
		stream, err := eventsource.SubscribeWithRequestAndOptions(req,
			eventsource.StreamOptionHTTPClient(s.config.HTTPClient),
			eventsource.StreamOptionErrorHandler(c.streamError),
			eventsource.StreamOptionLogger(framework.LoggerWithPrefix(s.config.Logger, "[eventsource] ")),
		)
		subscribeCh <- subscribed{stream, err}
	}()

	deadline := time.NewTimer(s.config.Timeout)
	defer deadline.Stop()
	var stream *eventsource.Stream
	select {
	case result := <-subscribeCh:
		if result.err != nil {
			c.cancel()
			return fail(result.err)
		}
		stream = result.stream
	case <-deadline.C:
		c.cancel()
		return fail(fmt.Errorf("no response to stream request after %s: %w", s.config.Timeout, framework.ErrTimeout))
	case <-ctx.Done():
		c.cancel()
		return fail(ctx.Err())
	}
	c.stream = stream
	s.config.Logger.Printf("Event stream opened at %s", s.streamURL)

	endpoint, err := c.awaitEndpoint(ctx, deadline.C)
	if err != nil {
		_ = c.Close()
		return fail(err)
	}
	endpointURL, err := s.streamURL.Parse(endpoint)
	if err != nil {
		_ = c.Close()
		return fail(fmt.Errorf("host sent invalid endpoint %q: %w", endpoint, err))
	}
	c.endpoint = endpointURL.String()
	s.config.Logger.Printf("Requests will be posted to %s", c.endpoint)

	go c.dispatch()
	return c, nil
}

type sseConn struct {
	stream    *eventsource.Stream
	endpoint  string
	config    Config
	pending   *pendingCalls
	life      context.Context //nolint:containedctx
	cancel    context.CancelFunc
	closed    chan struct{}
	closeOnce sync.Once

	// streamDone is closed once the eventsource goroutine has exited.
	streamDone chan struct{}
}

func (c *sseConn) awaitEndpoint(ctx context.Context, deadline <-chan time.Time) (string, error) {
	for {
		select {
		case ev, ok := <-c.stream.Events:
			if !ok {
				return "", errors.New("event stream ended before the endpoint event")
			}
			if ev.Event() == protodef.EventEndpoint {
				return strings.TrimSpace(ev.Data()), nil
			}
			c.config.Logger.Printf("Ignoring %q event before endpoint event", ev.Event())
		case <-deadline:
			return "", fmt.Errorf("no endpoint event received: %w", framework.ErrTimeout)
		case <-ctx.Done():
			return "", ctx.Err()
		case <-c.closed:
			return "", framework.ErrClosed
		}
	}
}

func (c *sseConn) dispatch() {
	for {
		select {
		case ev, ok := <-c.stream.Events:
			if !ok {
				c.pending.failAll(fmt.Errorf("event stream ended: %w", framework.ErrClosed))
				return
			}
			c.handleEvent(ev)
		case <-c.closed:
			return
		}
	}
}

func (c *sseConn) handleEvent(ev eventsource.Event) {
	if name := ev.Event(); name != protodef.EventMessage && name != "" {
		c.config.Logger.Printf("Ignoring %q event", name)
		return
	}
	c.config.Logger.Printf("<< %s", ev.Data())
	var m protodef.Message
	if err := json.Unmarshal([]byte(ev.Data()), &m); err != nil {
		c.config.Logger.Printf("Discarding event that is not a JSON-RPC message: %s", err)
		return
	}
	if !m.IsResponse() {
		c.config.Logger.Printf("Ignoring %q message from host", m.Method)
		return
	}
	if !c.pending.deliver(m) {
		c.config.Logger.Printf("Discarding response with unknown id %s", string(m.ID))
	}
}

// streamError is called by the eventsource client when the stream fails after it was opened.
func (c *sseConn) streamError(err error) eventsource.StreamErrorHandlerResult {
	c.config.Logger.Printf("Event stream failed: %s", err)
	c.pending.failAll(framework.ConnectionError{
		Transport: string(KindSSE),
		Err:       fmt.Errorf("event stream dropped: %s: %w", err, framework.ErrClosed),
	})
	return eventsource.StreamErrorHandlerResult{CloseNow: true}
}

func (c *sseConn) Call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	id, ch, err := c.pending.register()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	req, err := protodef.NewRequest(id, method, params)
	if err != nil {
		c.pending.cancel(id)
		return nil, err
	}
	if err := c.post(ctx, req); err != nil {
		c.pending.cancel(id)
		return nil, fmt.Errorf("sending %s request: %w", method, err)
	}
	return c.pending.await(ctx, id, ch, method, c.config.Timeout)
}

func (c *sseConn) Notify(ctx context.Context, method string, params interface{}) error {
	if err := c.pending.err(); err != nil {
		return err
	}
	note, err := protodef.NewNotification(method, params)
	if err != nil {
		return err
	}
	return c.post(ctx, note)
}

func (c *sseConn) post(ctx context.Context, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	c.config.Logger.Printf(">> %s", data)

	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()
	stop := context.AfterFunc(c.life, cancel)
	defer stop()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.config.applyHeaders(req)
	resp, err := c.config.HTTPClient.Do(req)
	if err != nil {
		if c.life.Err() != nil {
			return framework.ErrClosed
		}
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("%s: %w", err, framework.ErrTimeout)
		}
		if ctx.Err() == nil {
			return framework.ConnectionError{Transport: string(KindSSE), Err: err}
		}
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("host returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	// Some hosts answer on the POST itself as well as, or instead of, on the stream.
	if mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mediaType == "application/json" &&
		len(bytes.TrimSpace(body)) != 0 {
		var m protodef.Message
		if json.Unmarshal(body, &m) == nil && m.IsResponse() {
			c.pending.deliver(m)
		}
	}
	return nil
}

func (c *sseConn) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.pending.failAll(fmt.Errorf("connection closed: %w", framework.ErrClosed))
		c.cancel()
		if c.stream == nil {
			close(c.streamDone)
		} else {
			c.stream.Close()
			// The stream's goroutine only notices Close between events, and it may already be
			// blocked handing one over now that dispatch has stopped reading.
			go func() {
				for range c.stream.Events { //nolint:revive
				}
				close(c.streamDone)
			}()
		}
		c.config.Logger.Printf("Event stream closed")
	})
	return nil
}
