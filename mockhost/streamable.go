package mockhost

import (
	"encoding/json"
	"mime"
	"net/http"
	"strings"
	"sync"

	"github.com/fastmcp4j/mcp-test-harness/framework"
	"github.com/fastmcp4j/mcp-test-harness/protodef"

	"github.com/google/uuid"
	"github.com/launchdarkly/eventsource"
)

const streamablePath = "/mcp"

// streamableFrontEnd serves the streamable transport. The initialize request creates a
// session whose ID is returned in the Mcp-Session-Id header; every later request must carry it.
type streamableFrontEnd struct {
	host        *Host
	sessions    map[string]struct{}
	debugLogger framework.Logger
	lock        sync.Mutex
}

func newStreamableFrontEnd(host *Host, debugLogger framework.Logger) *streamableFrontEnd {
	return &streamableFrontEnd{host: host, sessions: make(map[string]struct{}), debugLogger: debugLogger}
}

func (s *streamableFrontEnd) servePost(w http.ResponseWriter, r *http.Request) {
	if mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mediaType != "application/json" {
		http.Error(w, "expected application/json", http.StatusUnsupportedMediaType)
		return
	}
	var m protodef.Message
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sessionID := r.Header.Get(protodef.HeaderSessionID)
	if m.Method == protodef.MethodInitialize {
		sessionID = uuid.NewString()
		s.lock.Lock()
		s.sessions[sessionID] = struct{}{}
		s.lock.Unlock()
		s.debugLogger.Printf("Streamable session %s started", sessionID)
	} else if !s.hasSession(sessionID) {
		if sessionID == "" {
			http.Error(w, "missing "+protodef.HeaderSessionID, http.StatusBadRequest)
		} else {
			http.Error(w, "unknown session", http.StatusNotFound)
		}
		return
	}
	w.Header().Set(protodef.HeaderSessionID, sessionID)

	resp := s.host.Handle(r.Context(), m, r.Header)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	data, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if s.host.config.streamResponses && strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		enc := eventsource.NewEncoder(w, false)
		// A log notification ahead of the reply, which clients must skip.
		_ = enc.Encode(eventImpl{
			name: protodef.EventMessage,
			data: `{"jsonrpc":"2.0","method":"notifications/message","params":{"level":"info","data":"working"}}`,
		})
		_ = enc.Encode(eventImpl{name: protodef.EventMessage, data: string(data)})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *streamableFrontEnd) serveDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(protodef.HeaderSessionID)
	s.lock.Lock()
	_, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.lock.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	s.debugLogger.Printf("Streamable session %s ended", sessionID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *streamableFrontEnd) hasSession(id string) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	_, ok := s.sessions[id]
	return ok
}

// SessionCount returns the number of open streamable sessions.
func (s *streamableFrontEnd) SessionCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.sessions)
}
