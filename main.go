package main

import (
	"context"
	_ "embed" // this is required in order for go:embed to work
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fastmcp4j/mcp-test-harness/data"
	"github.com/fastmcp4j/mcp-test-harness/framework"
	"github.com/fastmcp4j/mcp-test-harness/framework/harness"
	"github.com/fastmcp4j/mcp-test-harness/framework/report"
	"github.com/fastmcp4j/mcp-test-harness/framework/suite"
	"github.com/fastmcp4j/mcp-test-harness/framework/transport"
	"github.com/fastmcp4j/mcp-test-harness/toolsuites"

	"github.com/mark3labs/mcp-go/mcp"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	exitOK          = 0
	exitFailed      = 1
	exitInterrupted = 130

	// reportSaveTimeout bounds saving the report, which still happens after an interrupt.
	reportSaveTimeout = 30 * time.Second
)

//go:embed VERSION
var versionString string // comes from the VERSION file which we update for each release

func version() string { return strings.TrimSpace(versionString) }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	if len(os.Args) > 1 && os.Args[1] == "mockhost" {
		code := runMockHost(ctx, os.Args[1:])
		stop()
		os.Exit(code)
	}

	fmt.Printf("mcp-test-harness v%s\n", version())

	var params commandParams
	if !params.Read(os.Args) {
		stop()
		os.Exit(exitFailed)
	}
	if params.showVersion {
		stop()
		os.Exit(exitOK)
	}

	ok, err := run(ctx, params)
	code := exitCode(ctx, ok, err)
	stop()
	os.Exit(code)
}

func exitCode(ctx context.Context, ok bool, err error) int {
	if ctx.Err() != nil {
		fmt.Fprintln(os.Stderr, "Interrupted")
		return exitInterrupted
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFailed
	}
	if !ok {
		return exitFailed
	}
	return exitOK
}

// run tests every requested transport in turn. It returns false if any case failed.
func run(ctx context.Context, params commandParams) (bool, error) {
	// With -debug-all, traffic goes straight to the console. Otherwise it is captured, and the
	// executor hands each case's share to the test logger.
	var debugOutput *framework.CapturingLogger
	var debugLogger framework.Logger
	if params.debugAll {
		debugLogger = log.New(os.Stdout, "[debug] ", log.LstdFlags|log.Lmicroseconds)
	} else {
		debugOutput = new(framework.CapturingLogger)
		debugLogger = debugOutput
	}
	if params.logFile != "" {
		logFile := &lumberjack.Logger{Filename: params.logFile, MaxSize: 10, MaxBackups: 3}
		defer func() { _ = logFile.Close() }()
		debugLogger = framework.MultiLogger(debugLogger, log.New(logFile, "", log.LstdFlags|log.Lmicroseconds))
	}

	extraCases, err := loadExtraCases(params)
	if err != nil {
		return false, err
	}

	stores, closeStores, err := makeStores(ctx, params)
	if err != nil {
		return false, err
	}
	defer closeStores()

	consoleLogger := suite.ConsoleTestLogger{
		DebugOutputOnFailure: params.debug || params.debugAll,
		DebugOutputOnSuccess: params.debugAll,
	}
	var testLogger suite.TestLogger = consoleLogger
	var jUnitLogger *suite.JUnitTestLogger
	if params.jUnitFile != "" {
		jUnitLogger = suite.NewJUnitTestLogger(params.jUnitFile, params.filters)
		testLogger = suite.MultiTestLogger(consoleLogger, jUnitLogger)
	}

	h := harness.NewHarness(
		mcp.Implementation{Name: "mcp-test-harness", Version: version()},
		harness.RetryPolicy{MaxAttempts: params.retries, Delay: params.retryDelay},
		debugLogger,
		os.Stdout,
	)
	options := []transport.Option{
		transport.WithTimeout(params.timeout),
		transport.WithHeaders(params.headers.Header),
		transport.WithLogger(debugLogger),
	}
	if params.filters.IsDefined() {
		fmt.Printf("Filters: %s\n", params.filters)
	}

	allPassed := true
	runErr := harness.RunTransports(ctx, params.transports, params.cooldown,
		func(ctx context.Context, kind transport.Kind) error {
			fmt.Printf("\n=== %s ===\n", kind)
			binding, err := transport.New(kind, params.target(), options...)
			if err != nil {
				return err
			}
			session, err := openSession(ctx, h, binding, debugOutput, os.Stdout)
			if err != nil {
				allPassed = false
				return err
			}
			defer func() { _ = session.Close() }()
			if jUnitLogger != nil {
				jUnitLogger.BeginTransport(string(kind), session.ServerInfo())
			}

			registry := suite.NewRegistry()
			if err := toolsuites.Register(registry, session.ServerInfo().Capabilities); err != nil {
				return err
			}
			if err := registry.Add(extraCases...); err != nil {
				return err
			}

			aggregator := report.NewAggregator(string(kind), framework.NewWriterLogger(os.Stdout))
			executor := suite.Executor{
				Transport:       string(kind),
				Filter:          params.filters,
				TestLogger:      testLogger,
				SkipUnavailable: params.skipUnavailable,
				DebugLogger:     debugOutput,
			}
			execErr := executor.Run(ctx, suite.ForSession(session), registry.Select(params.groups, string(kind)), aggregator)

			saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reportSaveTimeout)
			defer cancel()
			results, saveErr := aggregator.Finalize(saveCtx, stores...)
			fmt.Println()
			suite.PrintResults(results)
			if !results.OK() || execErr != nil {
				allPassed = false
			}
			return errors.Join(execErr, saveErr)
		})

	if jUnitLogger != nil {
		if err := jUnitLogger.EndLog(); err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("error writing log: %w", err))
		}
	}
	return allPassed, runErr
}

// openSession connects over binding. Anything captured in startupOutput while connecting is
// written to out if the connection fails, since no case will ever report it, and is discarded
// otherwise.
func openSession(
	ctx context.Context,
	h *harness.Harness,
	binding transport.Binding,
	startupOutput *framework.CapturingLogger,
	out io.Writer,
) (*harness.Session, error) {
	if startupOutput == nil {
		return h.Open(ctx, binding)
	}
	startupOutput.Flush()
	session, err := h.Open(ctx, binding)
	captured := startupOutput.Flush()
	if err != nil && len(captured) != 0 {
		fmt.Fprintf(out, "Debug output from connecting over %s:\n%s\n", binding.Kind(), captured.ToString("    "))
	}
	return session, err
}

func loadExtraCases(params commandParams) ([]suite.TestCase, error) {
	var ret []suite.TestCase
	for _, name := range params.suites {
		cases, err := data.LoadEmbeddedSuite(name)
		if err != nil {
			return nil, err
		}
		ret = append(ret, cases...)
	}
	for _, path := range params.suiteFiles {
		cases, err := data.LoadSuiteFile(path)
		if err != nil {
			return nil, err
		}
		ret = append(ret, cases...)
	}
	return ret, nil
}

func makeStores(ctx context.Context, params commandParams) ([]report.Store, func(), error) {
	var stores []report.Store
	var closers []func() error
	closeAll := func() {
		for _, c := range closers {
			_ = c()
		}
	}
	for _, name := range params.reportStores {
		switch name {
		case "file":
			stores = append(stores, report.FileStore{Dir: params.reportDir})
		case "redis":
			s, err := report.NewRedisStore(params.redisURL, report.DefaultRedisPrefix)
			if err != nil {
				closeAll()
				return nil, nil, err
			}
			stores = append(stores, s)
			closers = append(closers, s.Close)
		case "consul":
			s, err := report.NewConsulStore(params.consulAddr, report.DefaultConsulPrefix)
			if err != nil {
				closeAll()
				return nil, nil, err
			}
			stores = append(stores, s)
		case "dynamodb":
			s, err := report.NewDynamoDBStore(ctx, params.dynamoDBTable, params.dynamoDBRegion, params.dynamoDBURL)
			if err != nil {
				closeAll()
				return nil, nil, err
			}
			stores = append(stores, s)
		}
	}
	return stores, closeAll, nil
}
