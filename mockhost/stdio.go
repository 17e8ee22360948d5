package mockhost

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"

	"github.com/fastmcp4j/mcp-test-harness/framework/transport"
	"github.com/fastmcp4j/mcp-test-harness/protodef"
)

// ServeStdio reads framed messages from r and writes framed responses to w until r reaches EOF
// or ctx is cancelled. Requests are answered in the order they arrive.
func (h *Host) ServeStdio(ctx context.Context, r io.Reader, w io.Writer) error {
	reader := transport.NewFrameReader(r)
	var writeLock sync.Mutex
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		payload, err := reader.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var m protodef.Message
		if err := json.Unmarshal(payload, &m); err != nil {
			h.config.debugLogger.Printf("Host discarding malformed message: %s", err)
			continue
		}
		resp := h.Handle(ctx, m, nil)
		if resp == nil {
			continue
		}
		data, err := json.Marshal(resp)
		if err != nil {
			return err
		}
		writeLock.Lock()
		err = transport.WriteFrame(w, data)
		writeLock.Unlock()
		if err != nil {
			return err
		}
	}
}
