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
	"sync/atomic"
	"time"

	"github.com/fastmcp4j/mcp-test-harness/framework"
	"github.com/fastmcp4j/mcp-test-harness/framework/opt"
	"github.com/fastmcp4j/mcp-test-harness/protodef"

	"github.com/launchdarkly/eventsource"
)

const (
	mediaTypeJSON        = "application/json"
	mediaTypeEventStream = "text/event-stream"

	sessionDeleteTimeout = 2 * time.Second
)

// Streamable POSTs every message to a single endpoint. The response body is either a JSON
// envelope or an event stream that carries the envelope. If the host assigns a session token in
// the Mcp-Session-Id header, it is echoed on every later request.
type Streamable struct {
	endpoint *url.URL
	config   Config
}

func NewStreamable(endpoint string, options ...Option) (*Streamable, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid streamable endpoint URL %q", endpoint)
	}
	config, err := makeConfig(options)
	if err != nil {
		return nil, err
	}
	return &Streamable{endpoint: u, config: config}, nil
}

func (s *Streamable) Kind() Kind { return KindStreamable }

func (s *Streamable) Describe() string { return s.endpoint.String() }

// Connect does not touch the network: the channel is established by the first request, which
// is the handshake.
func (s *Streamable) Connect(ctx context.Context) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, framework.ConnectionError{Transport: string(KindStreamable), Err: err}
	}
	c := &streamableConn{endpoint: s.endpoint.String(), config: s.config}
	c.life, c.cancel = context.WithCancel(context.Background())
	return c, nil
}

type streamableConn struct {
	endpoint  string
	config    Config
	nextID    atomic.Int64
	sessionID opt.Maybe[string]
	life      context.Context //nolint:containedctx
	cancel    context.CancelFunc
	closed    atomic.Bool
	lock      sync.Mutex
}

// SessionID returns the token assigned by the host, if any.
func (c *streamableConn) SessionID() opt.Maybe[string] {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.sessionID
}

func (c *streamableConn) Call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	id := c.nextID.Add(1)
	req, err := protodef.NewRequest(id, method, params)
	if err != nil {
		return nil, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()
	stop := context.AfterFunc(c.life, cancel)
	defer stop()

	resp, err := c.post(reqCtx, req)
	if err != nil {
		return nil, c.wrapError(ctx, method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%s: host returned HTTP %d: %s", method, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	key := protodef.RequestIDKey(id)
	var m protodef.Message
	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType == mediaTypeEventStream {
		m, err = c.readStreamedResponse(resp.Body, key)
	} else {
		m, err = c.readImmediateResponse(resp.Body, key)
	}
	if err != nil {
		return nil, c.wrapError(ctx, method, err)
	}
	if m.Error != nil {
		return nil, m.Error
	}
	return m.Result, nil
}

func (c *streamableConn) Notify(ctx context.Context, method string, params interface{}) error {
	note, err := protodef.NewNotification(method, params)
	if err != nil {
		return err
	}
	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()
	resp, err := c.post(reqCtx, note)
	if err != nil {
		return c.wrapError(ctx, method, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s: host returned HTTP %d", method, resp.StatusCode)
	}
	return nil
}

func (c *streamableConn) post(ctx context.Context, message interface{}) (*http.Response, error) {
	if c.closed.Load() {
		return nil, framework.ErrClosed
	}
	data, err := json.Marshal(message)
	if err != nil {
		return nil, err
	}
	c.config.Logger.Printf(">> %s", data)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mediaTypeJSON)
	req.Header.Set("Accept", mediaTypeJSON+", "+mediaTypeEventStream)
	c.config.applyHeaders(req)
	if sid := c.SessionID(); sid.IsDefined() {
		req.Header.Set(protodef.HeaderSessionID, sid.Value())
	}

	resp, err := c.config.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	c.captureSessionID(resp)
	return resp, nil
}

func (c *streamableConn) captureSessionID(resp *http.Response) {
	sid := resp.Header.Get(protodef.HeaderSessionID)
	if sid == "" {
		return
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	if !c.sessionID.IsDefined() {
		c.sessionID = opt.Some(sid)
		c.config.Logger.Printf("Host assigned session %s", sid)
	}
}

func (c *streamableConn) readImmediateResponse(body io.Reader, key string) (protodef.Message, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return protodef.Message{}, err
	}
	c.config.Logger.Printf("<< %s", data)
	data = bytes.TrimSpace(data)
	var candidates []protodef.Message
	if len(data) > 0 && data[0] == '[' {
		err = json.Unmarshal(data, &candidates)
	} else {
		var m protodef.Message
		err = json.Unmarshal(data, &m)
		candidates = append(candidates, m)
	}
	if err != nil {
		return protodef.Message{}, framework.ProtocolError{Message: "host sent a response body that is not JSON-RPC", Err: err}
	}
	for _, m := range candidates {
		if m.IsResponse() && protodef.IDKey(m.ID) == key {
			return m, nil
		}
	}
	return protodef.Message{}, framework.ProtocolError{Message: "response body has no reply with id " + key}
}

func (c *streamableConn) readStreamedResponse(body io.Reader, key string) (protodef.Message, error) {
	decoder := eventsource.NewDecoder(body)
	for {
		ev, err := decoder.Decode()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return protodef.Message{}, framework.ProtocolError{Message: "event stream ended before reply with id " + key}
			}
			return protodef.Message{}, err
		}
		if name := ev.Event(); name != "" && name != protodef.EventMessage {
			continue
		}
		c.config.Logger.Printf("<< %s", ev.Data())
		var m protodef.Message
		if err := json.Unmarshal([]byte(ev.Data()), &m); err != nil {
			c.config.Logger.Printf("Discarding event that is not a JSON-RPC message: %s", err)
			continue
		}
		if m.IsResponse() && protodef.IDKey(m.ID) == key {
			return m, nil
		}
		c.config.Logger.Printf("Ignoring message in response stream: %s", ev.Data())
	}
}

func (c *streamableConn) wrapError(ctx context.Context, method string, err error) error {
	switch {
	case c.closed.Load():
		return fmt.Errorf("%s: %w", method, framework.ErrClosed)
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		return fmt.Errorf("%s: no response after %s: %w", method, c.config.Timeout, framework.ErrTimeout)
	case ctx.Err() != nil:
		return fmt.Errorf("%s: %w", method, ctx.Err())
	default:
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return framework.ConnectionError{Transport: string(KindStreamable), Err: fmt.Errorf("%s: %w", method, err)}
		}
		return fmt.Errorf("%s: %w", method, err)
	}
}

// Close cancels any request in flight and, if the host assigned a session, tells the host to
// end it.
func (c *streamableConn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.cancel()
	sid := c.SessionID()
	if !sid.IsDefined() {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), sessionDeleteTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.endpoint, nil)
	if err != nil {
		return nil
	}
	req.Header.Set(protodef.HeaderSessionID, sid.Value())
	c.config.applyHeaders(req)
	if resp, err := c.config.HTTPClient.Do(req); err == nil {
		_ = resp.Body.Close()
	}
	c.config.Logger.Printf("Session %s closed", sid.Value())
	return nil
}
