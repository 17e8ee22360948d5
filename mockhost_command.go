package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/fastmcp4j/mcp-test-harness/framework"
	"github.com/fastmcp4j/mcp-test-harness/mockhost"
)

const mockHostShutdownTimeout = 5 * time.Second

// runMockHost implements "mcp-test-harness mockhost". Over HTTP, each address gets a host of its
// own, so that a run of every transport finds fresh tool state on each one.
func runMockHost(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	stdio := fs.Bool("stdio", false, "serve one session on standard input and output")
	sseAddr := fs.String("sse-addr", ":3001", "address to serve the event-stream transport on (empty to disable)")
	streamableAddr := fs.String("streamable-addr", ":3002", "address to serve the streamable transport on (empty to disable)")
	pageSize := fs.Int("page-size", 0, "maximum entries per page of a list result (0 for no paging)")
	delay := fs.Duration("response-delay", 0, "pause before answering each request")
	streamed := fs.Bool("streamed-responses", false, "answer streamable requests with an event stream")
	debug := fs.Bool("debug", false, "log every message to standard error")
	if err := fs.Parse(args[1:]); err != nil {
		return exitFailed
	}

	debugLogger := framework.NullLogger()
	if *debug {
		debugLogger = log.New(os.Stderr, "[mockhost] ", log.LstdFlags)
	}
	newHost := func() (*mockhost.Host, error) {
		options := []mockhost.Option{
			mockhost.WithPageSize(*pageSize),
			mockhost.WithResponseDelay(*delay),
			mockhost.WithDebugLogger(debugLogger),
		}
		if *streamed {
			options = append(options, mockhost.WithStreamedResponses())
		}
		return mockhost.New(options...)
	}

	if *stdio {
		host, err := newHost()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitFailed
		}
		if err := host.ServeStdio(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
			fmt.Fprintln(os.Stderr, err)
			return exitFailed
		}
		return exitOK
	}

	var servers []*http.Server
	var handlers []*mockhost.HTTPHandler
	for _, addr := range []string{*sseAddr, *streamableAddr} {
		if addr == "" {
			continue
		}
		host, err := newHost()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitFailed
		}
		handler := host.HTTPHandler()
		handlers = append(handlers, handler)
		servers = append(servers, &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second})
	}
	if len(servers) == 0 {
		fmt.Fprintln(os.Stderr, "nothing to serve: give -stdio, -sse-addr, or -streamable-addr")
		return exitFailed
	}

	errCh := make(chan error, len(servers))
	var wg sync.WaitGroup
	for _, server := range servers {
		fmt.Fprintf(os.Stderr, "Mock tool host listening on %s\n", server.Addr)
		wg.Add(1)
		go func(server *http.Server) {
			defer wg.Done()
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}(server)
	}

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), mockHostShutdownTimeout)
	defer cancel()
	for _, handler := range handlers {
		handler.Close()
	}
	for _, server := range servers {
		_ = server.Shutdown(shutdownCtx)
	}
	wg.Wait()

	if serveErr != nil {
		fmt.Fprintln(os.Stderr, serveErr)
		return exitFailed
	}
	return exitOK
}
