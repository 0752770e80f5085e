package web

// errors.go provides unified error response handling for the web layer.
//
// Every failing command is:
//   - Logged with full technical details for debugging (server-side)
//   - Mapped to an HTTP status code via its error kind
//   - Returned to the client as {"error": "..."}, enriched with a
//     friendlier message, action suggestion and stable code when the
//     failure matches a known engine pattern

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Beekeepers-Inc/rats/internal/engine"
	"github.com/Beekeepers-Inc/rats/internal/logging"
	"github.com/Beekeepers-Inc/rats/internal/session"
)

// ErrorResponse represents the JSON structure for command error replies.
// Error always carries the full error string; the remaining fields are
// only set when the failure matches a known pattern.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code,omitempty"`
}

// statusFor maps an error onto an HTTP status code by its kind.
func statusFor(err error) int {
	switch engine.KindOf(err) {
	case engine.KindInvalidArgument, engine.KindUnsupportedFormat:
		return http.StatusBadRequest
	case engine.KindNotFound:
		return http.StatusNotFound
	case engine.KindIO, engine.KindParse, engine.KindEngine:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes a failed command as a JSON error reply.
// It logs the technical error server-side with the request ID and
// attaches a user-facing hint when one is known for this failure.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	logging.FromContext(r.Context()).Error("command failed",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
	)

	resp := ErrorResponse{Error: err.Error()}
	if msg, ok := session.Hint(err); ok {
		resp.Message = msg.Message
		resp.Action = msg.Action
		resp.Code = msg.Code
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// writeError writes a bare JSON error response with the given status.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
