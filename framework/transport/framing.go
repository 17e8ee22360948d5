package transport

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fastmcp4j/mcp-test-harness/framework"
)

const (
	contentLengthHeader = "Content-Length"

	// MaxFrameSize is the largest payload a FrameReader accepts.
	MaxFrameSize = 64 * 1024 * 1024
)

// WriteFrame writes payload preceded by a Content-Length header and a blank line, in a single
// Write call so that concurrent writers on an unsynchronized pipe cannot interleave.
func WriteFrame(w io.Writer, payload []byte) error {
	header := fmt.Sprintf("%s: %d\r\n\r\n", contentLengthHeader, len(payload))
	buf := make([]byte, 0, len(header)+len(payload))
	buf = append(buf, header...)
	buf = append(buf, payload...)
	_, err := w.Write(buf)
	return err
}

// FrameReader reads Content-Length framed payloads from a byte stream. The underlying reader may
// deliver data in arbitrarily small pieces; a frame is only returned once it is complete.
type FrameReader struct {
	r *bufio.Reader
}

func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: bufio.NewReader(r)}
}

// ReadFrame returns the next payload. It returns io.EOF if the stream ended cleanly between
// frames, a framework.ProtocolError if the data violates the framing, or the underlying read
// error otherwise.
//
// Header names are case-insensitive, lines may end in CRLF or LF, and headers other than
// Content-Length are ignored.
func (f *FrameReader) ReadFrame() ([]byte, error) {
	length := -1
	sawHeader := false
	for {
		line, err := f.r.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				if !sawHeader && strings.TrimSpace(line) == "" {
					return nil, io.EOF
				}
				return nil, framework.ProtocolError{Message: "stream ended inside a frame header", Err: io.ErrUnexpectedEOF}
			}
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if !sawHeader {
				continue
			}
			break
		}
		sawHeader = true
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, framework.ProtocolError{Message: fmt.Sprintf("malformed frame header %q", line)}
		}
		if strings.EqualFold(strings.TrimSpace(name), contentLengthHeader) {
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil || n < 0 {
				return nil, framework.ProtocolError{Message: fmt.Sprintf("invalid %s %q", contentLengthHeader, value)}
			}
			length = n
		}
	}
	if length < 0 {
		return nil, framework.ProtocolError{Message: "frame has no " + contentLengthHeader + " header"}
	}
	if length > MaxFrameSize {
		return nil, framework.ProtocolError{Message: fmt.Sprintf("frame of %d bytes exceeds limit", length)}
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(f.r, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, framework.ProtocolError{Message: "stream ended inside a frame payload", Err: io.ErrUnexpectedEOF}
		}
		return nil, err
	}
	return payload, nil
}
