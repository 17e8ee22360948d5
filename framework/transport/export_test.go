package transport

// ProcessID returns the process ID behind a stdio connection.
func ProcessID(c Conn) int {
	return c.(*stdioConn).pid()
}

// EventStreamDone returns a channel that is closed once an SSE connection's stream has shut down.
func EventStreamDone(c Conn) <-chan struct{} {
	return c.(*sseConn).streamDone
}
