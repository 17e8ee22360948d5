package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fastmcp4j/mcp-test-harness/framework/harness"
	"github.com/fastmcp4j/mcp-test-harness/framework/suite"
	"github.com/fastmcp4j/mcp-test-harness/framework/transport"
)

const (
	defaultSSEURL        = "http://localhost:3001/sse"
	defaultStreamableURL = "http://localhost:3002/mcp"
)

type commandParams struct {
	transports      []transport.Kind
	command         []string
	sseURL          string
	streamableURL   string
	timeout         time.Duration
	retries         int
	retryDelay      time.Duration
	cooldown        time.Duration
	headers         headerList
	groups          stringList
	suites          stringList
	suiteFiles      stringList
	filters         suite.RegexFilters
	skipUnavailable bool
	reportDir       string
	reportStores    stringList
	redisURL        string
	consulAddr      string
	dynamoDBTable   string
	dynamoDBRegion  string
	dynamoDBURL     string
	jUnitFile       string
	debug           bool
	debugAll        bool
	logFile         string
	configFile      string
	envFile         string
	showVersion     bool
}

// Read parses the command line. Values that were not given as flags are then taken from the
// config file, if any, and from MCPH_* environment variables.
func (c *commandParams) Read(args []string) bool {
	return c.read(args, os.Stderr)
}

func (c *commandParams) read(args []string, errOut io.Writer) bool {
	var transportList string
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.Usage = func() {
		fmt.Fprintf(errOut, "usage: %s [flags] [host command...]\n       %s mockhost [flags]\n", args[0], args[0])
		fs.PrintDefaults()
	}
	fs.StringVar(&transportList, "transport", string(transport.KindStreamable),
		`transport(s) to test: stdio, sse, streamable, or "all" (comma-separated)`)
	fs.StringVar(&c.sseURL, "sse-url", defaultSSEURL, "event stream URL for the sse transport")
	fs.StringVar(&c.streamableURL, "streamable-url", defaultStreamableURL, "endpoint URL for the streamable transport")
	fs.DurationVar(&c.timeout, "timeout", transport.DefaultTimeout, "timeout for each request")
	fs.IntVar(&c.retries, "retries", harness.DefaultMaxAttempts, "number of attempts to establish a session")
	fs.DurationVar(&c.retryDelay, "retry-delay", harness.DefaultRetryDelay, "pause between connection attempts")
	fs.DurationVar(&c.cooldown, "cooldown", harness.DefaultCooldown, "pause between transports")
	fs.Var(&c.headers, "header", `extra HTTP header "Name: value" (repeatable)`)
	fs.Var(&c.groups, "group", "only run this tool group (repeatable)")
	fs.Var(&c.suites, "suite", "also run this built-in suite file, such as smoke (repeatable)")
	fs.Var(&c.suiteFiles, "suite-file", "also run the cases in this YAML or JSON file (repeatable)")
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	fs.BoolVar(&c.skipUnavailable, "skip-unavailable", false, "skip cases for tools that the host does not list")
	fs.StringVar(&c.reportDir, "report-dir", ".", "directory for the JSON report")
	fs.Var(&c.reportStores, "report-store", "where to save the report: file, redis, consul, dynamodb (repeatable)")
	fs.StringVar(&c.redisURL, "redis-url", "redis://localhost:6379", "Redis URL for the redis report store")
	fs.StringVar(&c.consulAddr, "consul-addr", "localhost:8500", "Consul address for the consul report store")
	fs.StringVar(&c.dynamoDBTable, "dynamodb-table", "", "table for the dynamodb report store")
	fs.StringVar(&c.dynamoDBRegion, "dynamodb-region", "", "AWS region for the dynamodb report store")
	fs.StringVar(&c.dynamoDBURL, "dynamodb-endpoint", "", "endpoint URL override for the dynamodb report store")
	fs.StringVar(&c.jUnitFile, "junit", "", "write JUnit XML output to the specified path")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging for failed tests")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging for all tests")
	fs.StringVar(&c.logFile, "log-file", "", "also write debug logging to this file, rotated by size")
	fs.StringVar(&c.configFile, "config", "", "read defaults from this YAML, JSON, or TOML file")
	fs.StringVar(&c.envFile, "env-file", ".env", "load environment variables from this file if it exists")
	fs.BoolVar(&c.showVersion, "version", false, "print the version and exit")

	if err := fs.Parse(args[1:]); err != nil {
		return false
	}
	if c.showVersion {
		return true
	}
	explicit := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
	if err := applyConfig(fs, explicit, c.configFile, c.envFile); err != nil {
		fmt.Fprintln(errOut, err)
		return false
	}

	c.command = fs.Args()
	if err := c.validate(transportList); err != nil {
		fmt.Fprintln(errOut, err)
		fs.Usage()
		return false
	}
	return true
}

func (c *commandParams) validate(transportList string) error {
	kinds, err := parseTransports(transportList)
	if err != nil {
		return err
	}
	c.transports = kinds
	for _, k := range kinds {
		if k == transport.KindStdio && len(c.command) == 0 {
			return errors.New("a host command is required for the stdio transport")
		}
	}
	if c.retries < 1 {
		return fmt.Errorf("-retries must be at least 1, got %d", c.retries)
	}
	if c.timeout <= 0 {
		return fmt.Errorf("-timeout must be positive, got %s", c.timeout)
	}
	if len(c.reportStores) == 0 {
		c.reportStores = stringList{"file"}
	}
	for _, s := range c.reportStores {
		switch s {
		case "file", "redis", "consul", "dynamodb":
		default:
			return fmt.Errorf("unknown report store %q", s)
		}
	}
	return nil
}

// parseTransports reads a comma-separated list, where "all" stands for every kind. Repeats are
// dropped.
func parseTransports(s string) ([]transport.Kind, error) {
	var ret []transport.Kind
	seen := make(map[transport.Kind]bool)
	for _, name := range strings.Split(s, ",") {
		var kinds []transport.Kind
		if strings.TrimSpace(strings.ToLower(name)) == "all" {
			kinds = transport.AllKinds()
		} else {
			k, err := transport.ParseKind(name)
			if err != nil {
				return nil, err
			}
			kinds = []transport.Kind{k}
		}
		for _, k := range kinds {
			if !seen[k] {
				seen[k] = true
				ret = append(ret, k)
			}
		}
	}
	return ret, nil
}

func (c *commandParams) target() transport.Target {
	return transport.Target{Command: c.command, SSEURL: c.sseURL, StreamableURL: c.streamableURL}
}

type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(value string) error {
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			*l = append(*l, v)
		}
	}
	return nil
}

type headerList struct {
	http.Header
}

func (h *headerList) String() string {
	var parts []string
	for name, values := range h.Header {
		for _, v := range values {
			parts = append(parts, name+": "+v)
		}
	}
	return strings.Join(parts, ", ")
}

func (h *headerList) Set(value string) error {
	name, v, ok := strings.Cut(value, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return fmt.Errorf(`header must be "Name: value", got %q`, value)
	}
	if h.Header == nil {
		h.Header = make(http.Header)
	}
	h.Header.Add(name, strings.TrimSpace(v))
	return nil
}
