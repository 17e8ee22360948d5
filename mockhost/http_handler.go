package mockhost

import (
	"net/http"

	"github.com/gorilla/mux"
)

// HTTPHandler serves both network transports of a Host:
//
//	GET  /sse      event stream; the first event names the POST endpoint
//	POST /message  requests for an event-stream session
//	POST /mcp      streamable requests
//	DELETE /mcp    end a streamable session
type HTTPHandler struct {
	sse        *sseFrontEnd
	streamable *streamableFrontEnd
	router     *mux.Router
}

func (h *Host) HTTPHandler() *HTTPHandler {
	handler := &HTTPHandler{
		sse:        newSSEFrontEnd(h, h.config.debugLogger),
		streamable: newStreamableFrontEnd(h, h.config.debugLogger),
		router:     mux.NewRouter(),
	}
	handler.router.HandleFunc(ssePath, handler.sse.serveStream).Methods("GET")
	handler.router.HandleFunc(messagePath, handler.sse.serveMessage).Methods("POST")
	handler.router.HandleFunc(streamablePath, handler.streamable.servePost).Methods("POST")
	handler.router.HandleFunc(streamablePath, handler.streamable.serveDelete).Methods("DELETE")
	return handler
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// StreamableSessionCount returns the number of streamable sessions that have not been deleted.
func (h *HTTPHandler) StreamableSessionCount() int {
	return h.streamable.SessionCount()
}

// Close disconnects all event streams.
func (h *HTTPHandler) Close() {
	h.sse.close()
}
