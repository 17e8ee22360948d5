package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fastmcp4j/mcp-test-harness/framework"
	"github.com/fastmcp4j/mcp-test-harness/framework/helpers"
)

// Kind identifies one of the transport variants.
type Kind string

const (
	KindStdio      Kind = "stdio"
	KindSSE        Kind = "sse"
	KindStreamable Kind = "streamable"
)

// AllKinds lists the transport variants in the order they are run by "-transport all".
func AllKinds() []Kind {
	return []Kind{KindStdio, KindSSE, KindStreamable}
}

// ParseKind accepts the canonical names plus a few aliases.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stdio", "process":
		return KindStdio, nil
	case "sse", "event-stream":
		return KindSSE, nil
	case "streamable", "http", "streamable-http":
		return KindStreamable, nil
	default:
		return "", fmt.Errorf("unknown transport %q", s)
	}
}

// DefaultTimeout bounds every request/response exchange unless WithTimeout is used.
const DefaultTimeout = 30 * time.Second

// Binding establishes channels of one transport kind.
type Binding interface {
	Kind() Kind

	// Describe returns the connection parameters in human-readable form, such as a URL or a
	// command line.
	Describe() string

	// Connect opens a new channel. A failure to establish it is a framework.ConnectionError.
	Connect(ctx context.Context) (Conn, error)
}

// Conn is an open channel to a tool host.
//
// Call blocks until the response with the matching request ID arrives, the configured timeout
// elapses (the error wraps framework.ErrTimeout), the context is cancelled, or the channel is
// closed (the error wraps framework.ErrClosed). A JSON-RPC error response is returned as a
// *protodef.RPCError.
//
// Close releases everything the channel holds. It is safe to call more than once and from any
// goroutine, including while a Call is in flight.
type Conn interface {
	Call(ctx context.Context, method string, params interface{}) (json.RawMessage, error)
	Notify(ctx context.Context, method string, params interface{}) error
	Close() error
}

// Config holds the options shared by all bindings.
type Config struct {
	Timeout    time.Duration
	Headers    http.Header
	HTTPClient *http.Client
	Logger     framework.Logger

	// Env and Dir only apply to the process binding.
	Env []string
	Dir string
}

// Option is a configuration option for NewStdio, NewSSE, or NewStreamable.
type Option helpers.ConfigOption[Config]

// WithTimeout sets the bound on each request/response exchange.
func WithTimeout(timeout time.Duration) Option {
	return helpers.OptionFunc[Config](func(c *Config) error {
		if timeout <= 0 {
			return fmt.Errorf("timeout must be positive, got %s", timeout)
		}
		c.Timeout = timeout
		return nil
	})
}

// WithHeader adds a header to every HTTP request made by the binding.
func WithHeader(name, value string) Option {
	return helpers.OptionFunc[Config](func(c *Config) error {
		if c.Headers == nil {
			c.Headers = make(http.Header)
		}
		c.Headers.Add(name, value)
		return nil
	})
}

// WithHeaders adds all of the given headers to every HTTP request made by the binding.
func WithHeaders(headers http.Header) Option {
	return helpers.OptionFunc[Config](func(c *Config) error {
		for name, values := range headers {
			for _, v := range values {
				if c.Headers == nil {
					c.Headers = make(http.Header)
				}
				c.Headers.Add(name, v)
			}
		}
		return nil
	})
}

func WithHTTPClient(client *http.Client) Option {
	return helpers.OptionFunc[Config](func(c *Config) error {
		c.HTTPClient = client
		return nil
	})
}

// WithLogger sets the logger that receives a line for every message sent or received.
func WithLogger(logger framework.Logger) Option {
	return helpers.OptionFunc[Config](func(c *Config) error {
		c.Logger = logger
		return nil
	})
}

// WithEnv adds "KEY=value" entries to the environment of a spawned host process.
func WithEnv(env ...string) Option {
	return helpers.OptionFunc[Config](func(c *Config) error {
		c.Env = append(c.Env, env...)
		return nil
	})
}

// WithDir sets the working directory of a spawned host process.
func WithDir(dir string) Option {
	return helpers.OptionFunc[Config](func(c *Config) error {
		c.Dir = dir
		return nil
	})
}

func makeConfig(options []Option) (Config, error) {
	c, err := helpers.BuildConfig(Config{Timeout: DefaultTimeout}, options...)
	if err != nil {
		return Config{}, err
	}
	if c.Logger == nil {
		c.Logger = framework.NullLogger()
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{}
	}
	return c, nil
}

func (c Config) applyHeaders(req *http.Request) {
	for name, values := range c.Headers {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
}
