package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// heartbeatInterval is how often an idle progress stream emits a comment
// line to keep intermediaries from closing the connection.
const heartbeatInterval = 15 * time.Second

// handleImportProgress streams import progress via Server-Sent Events.
// Each event is named import-progress, carries the progress JSON and an
// incrementing id, and is flushed immediately.
func (s *Server) handleImportProgress(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	id, events := s.session.SubscribeProgress()
	defer s.session.UnsubscribeProgress(id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	eventID := 0
	for {
		select {
		case progress, ok := <-events:
			if !ok {
				// Channel closed - session shutting down
				return
			}

			data, err := json.Marshal(progress)
			if err != nil {
				continue
			}

			eventID++
			fmt.Fprintf(w, "id: %d\nevent: import-progress\ndata: %s\n\n", eventID, data)
			flusher.Flush()

		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
