package framework

import (
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"
)

const timestampFormat = "2006-01-02 15:04:05.000"

// Logger is the logging interface used throughout the harness. *log.Logger satisfies it, and any
// Logger can be handed to the eventsource package.
type Logger interface {
	Println(args ...interface{})
	Printf(format string, args ...interface{})
}

// LineLogger is a Logger that passes each formatted line, without a trailing newline, to a
// function.
type LineLogger func(line string)

func (f LineLogger) Println(args ...interface{}) {
	f(strings.TrimSuffix(fmt.Sprintln(args...), "\n"))
}

func (f LineLogger) Printf(format string, args ...interface{}) {
	f(fmt.Sprintf(format, args...))
}

func NullLogger() Logger { return LineLogger(func(string) {}) }

// NewWriterLogger returns a Logger that writes timestamped lines to w.
func NewWriterLogger(w io.Writer) Logger {
	return log.New(w, "", log.LstdFlags)
}

// MultiLogger returns a Logger that sends every line to each of the given loggers. Nil entries
// are ignored.
func MultiLogger(loggers ...Logger) Logger {
	var targets []Logger
	for _, l := range loggers {
		if l != nil {
			targets = append(targets, l)
		}
	}
	switch len(targets) {
	case 0:
		return NullLogger()
	case 1:
		return targets[0]
	}
	return LineLogger(func(line string) {
		for _, l := range targets {
			l.Println(line)
		}
	})
}

// LoggerWithPrefix returns a Logger that puts prefix at the start of each line.
func LoggerWithPrefix(base Logger, prefix string) Logger {
	return LineLogger(func(line string) { base.Println(prefix + line) })
}

type CapturedMessage struct {
	Time    time.Time
	Message string
}

type CapturedOutput []CapturedMessage

// ToString puts each message on its own line as "<prefix>[<time>] <message>".
func (output CapturedOutput) ToString(prefix string) string {
	lines := make([]string, 0, len(output))
	for _, m := range output {
		lines = append(lines, fmt.Sprintf("%s[%s] %s", prefix, m.Time.Format(timestampFormat), m.Message))
	}
	return strings.Join(lines, "\n")
}

// CapturingLogger keeps every line logged to it, along with the time it arrived.
//
// Output can be diverted to other CapturingLoggers for a while. The executor diverts the
// transport's debug output to a fresh logger for each case, so that a failing case shows only
// the traffic that happened during it.
type CapturingLogger struct {
	mu       sync.Mutex
	output   CapturedOutput
	diverted []*CapturingLogger
}

func (l *CapturingLogger) Println(args ...interface{}) {
	l.capture(CapturedMessage{Time: time.Now(), Message: strings.TrimSuffix(fmt.Sprintln(args...), "\n")})
}

func (l *CapturingLogger) Printf(format string, args ...interface{}) {
	l.capture(CapturedMessage{Time: time.Now(), Message: fmt.Sprintf(format, args...)})
}

func (l *CapturingLogger) capture(m CapturedMessage) {
	l.mu.Lock()
	targets := l.diverted
	if len(targets) == 0 {
		l.output = append(l.output, m)
	}
	l.mu.Unlock()
	for _, t := range targets {
		t.capture(m)
	}
}

// Output returns a copy of everything captured so far.
func (l *CapturingLogger) Output() CapturedOutput {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append(CapturedOutput(nil), l.output...)
}

// Flush returns everything captured so far and forgets it.
func (l *CapturingLogger) Flush() CapturedOutput {
	l.mu.Lock()
	defer l.mu.Unlock()
	ret := l.output
	l.output = nil
	return ret
}

// Divert sends further output to target, instead of keeping it here, until restore is called.
// Output captured before the call is not copied.
func (l *CapturingLogger) Divert(target *CapturingLogger) (restore func()) {
	l.mu.Lock()
	l.diverted = append(l.diverted[:len(l.diverted):len(l.diverted)], target)
	l.mu.Unlock()
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		kept := make([]*CapturingLogger, 0, len(l.diverted))
		for _, d := range l.diverted {
			if d != target {
				kept = append(kept, d)
			}
		}
		l.diverted = kept
	}
}
