package mockhost

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/fastmcp4j/mcp-test-harness/framework"
	"github.com/fastmcp4j/mcp-test-harness/protodef"

	"github.com/google/uuid"
	"github.com/launchdarkly/eventsource"
)

const (
	ssePath     = "/sse"
	messagePath = "/message"
)

// sseFrontEnd serves the event-stream transport. Each GET of the stream path gets its own
// eventsource channel named after a new session ID; the first event on it tells the client
// where to POST.
type sseFrontEnd struct {
	host        *Host
	streams     *eventsource.Server
	sessions    map[string]struct{}
	debugLogger framework.Logger
	closed      bool
	lock        sync.Mutex
}

type eventImpl struct {
	name string
	data string
}

func (e eventImpl) Event() string { return e.name }
func (e eventImpl) Id() string    { return "" } //nolint:stylecheck
func (e eventImpl) Data() string  { return e.data }

// endpointReplay is registered for each session channel so that the endpoint event is sent as
// soon as the client subscribes.
type endpointReplay struct {
	sessionID string
}

func (r endpointReplay) Replay(channel, id string) chan eventsource.Event {
	ch := make(chan eventsource.Event, 1)
	ch <- eventImpl{name: protodef.EventEndpoint, data: messagePath + "?sessionId=" + r.sessionID}
	close(ch)
	return ch
}

func newSSEFrontEnd(host *Host, debugLogger framework.Logger) *sseFrontEnd {
	streams := eventsource.NewServer()
	streams.ReplayAll = true
	streams.Logger = framework.LoggerWithPrefix(debugLogger, "[eventsource] ")
	return &sseFrontEnd{
		host:        host,
		streams:     streams,
		sessions:    make(map[string]struct{}),
		debugLogger: debugLogger,
	}
}

// The eventsource server stops servicing Register, Unregister, and Publish once it is closed, so
// those calls are made under the lock and only while the front end is open.
func (s *sseFrontEnd) serveStream(w http.ResponseWriter, r *http.Request) {
	sessionID := uuid.NewString()
	s.lock.Lock()
	if s.closed {
		s.lock.Unlock()
		http.Error(w, "host is shutting down", http.StatusServiceUnavailable)
		return
	}
	s.sessions[sessionID] = struct{}{}
	s.streams.Register(sessionID, endpointReplay{sessionID: sessionID})
	s.lock.Unlock()
	s.debugLogger.Printf("Event stream session %s started", sessionID)

	s.streams.Handler(sessionID)(w, r)

	s.lock.Lock()
	delete(s.sessions, sessionID)
	if !s.closed {
		s.streams.Unregister(sessionID, true)
	}
	s.lock.Unlock()
	s.debugLogger.Printf("Event stream session %s ended", sessionID)
}

func (s *sseFrontEnd) serveMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	s.lock.Lock()
	_, ok := s.sessions[sessionID]
	s.lock.Unlock()
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	var m protodef.Message
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusAccepted)

	headers := r.Header.Clone()
	go func() {
		resp := s.host.Handle(context.Background(), m, headers)
		if resp == nil {
			return
		}
		data, err := json.Marshal(resp)
		if err != nil {
			return
		}
		s.lock.Lock()
		defer s.lock.Unlock()
		if !s.closed {
			s.streams.Publish([]string{sessionID}, eventImpl{name: protodef.EventMessage, data: string(data)})
		}
	}()
}

func (s *sseFrontEnd) close() {
	s.lock.Lock()
	defer s.lock.Unlock()
	if !s.closed {
		s.closed = true
		s.streams.Close()
	}
}
