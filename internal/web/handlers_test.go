package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Beekeepers-Inc/rats/internal/config"
	"github.com/Beekeepers-Inc/rats/internal/engine"
	"github.com/Beekeepers-Inc/rats/internal/session"
)

// newTestServer builds a Server around a session with no engine handle.
// Tests drive only the paths that fail before the first engine call.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:           "127.0.0.1",
			Port:           8080,
			CommandTimeout: time.Minute,
		},
		Logging: config.LoggingConfig{Level: "error", Format: "text"},
	}
	return NewServer(session.New(nil, nil), cfg)
}

// postCommand sends a command request through the full router.
func postCommand(t *testing.T, srv *Server, name, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/command/"+name, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)
	return rr
}

// decodeError unpacks an ErrorResponse reply body.
func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("reply is not an error JSON: %v (body %q)", err, rr.Body.String())
	}
	return resp
}

func TestUnknownCommand_NotFound(t *testing.T) {
	srv := newTestServer(t)

	rr := postCommand(t, srv, "doesNotExist", `{}`)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
	resp := decodeError(t, rr)
	if !strings.Contains(resp.Error, "unknown route") {
		t.Errorf("error = %q, want mention of unknown route", resp.Error)
	}
}

func TestImportFile_UnsupportedFormat(t *testing.T) {
	srv := newTestServer(t)

	rr := postCommand(t, srv, "importFile", `{"filePath": "slides.pdf"}`)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	resp := decodeError(t, rr)
	if !strings.Contains(resp.Error, "Unsupported file format") {
		t.Errorf("error = %q, want unsupported format message", resp.Error)
	}
}

func TestCommand_MalformedArguments(t *testing.T) {
	srv := newTestServer(t)

	rr := postCommand(t, srv, "queryData", `{"tableName":`)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	resp := decodeError(t, rr)
	if !strings.Contains(resp.Error, "Invalid command arguments") {
		t.Errorf("error = %q, want invalid arguments message", resp.Error)
	}
}

func TestGetTableInfo_RejectsQuotedIdentifier(t *testing.T) {
	srv := newTestServer(t)

	rr := postCommand(t, srv, "getTableInfo", `{"tableName": "users\""}`)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	resp := decodeError(t, rr)
	if !strings.Contains(resp.Error, "Invalid identifier") {
		t.Errorf("error = %q, want invalid identifier message", resp.Error)
	}
}

func TestReorderRows_RequiresSortColumns(t *testing.T) {
	srv := newTestServer(t)

	rr := postCommand(t, srv, "reorderRows", `{"tableName": "t", "sortColumns": []}`)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	resp := decodeError(t, rr)
	if !strings.Contains(resp.Error, "No sort columns specified") {
		t.Errorf("error = %q, want missing sort columns message", resp.Error)
	}
}

func TestFilterData_UnknownOperator(t *testing.T) {
	srv := newTestServer(t)

	body := `{"tableName": "t", "conditions": [{"column": "age", "operator": "~", "value": 1}]}`
	rr := postCommand(t, srv, "filterData", body)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	resp := decodeError(t, rr)
	if !strings.Contains(resp.Error, "Unsupported operator") {
		t.Errorf("error = %q, want unsupported operator message", resp.Error)
	}
}

func TestAggregateColumn_UnknownFunction(t *testing.T) {
	srv := newTestServer(t)

	body := `{"tableName": "t", "columnName": "a", "function": "MEDIAN"}`
	rr := postCommand(t, srv, "aggregateColumn", body)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	resp := decodeError(t, rr)
	if !strings.Contains(resp.Error, "Unsupported aggregation function") {
		t.Errorf("error = %q, want unsupported aggregation message", resp.Error)
	}
}

func TestPreviewFile_CSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "people.csv")
	content := "name,age\nalice,30\nbob,25\ncarol,41\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp csv: %v", err)
	}

	srv := newTestServer(t)
	body, _ := json.Marshal(map[string]any{"filePath": path, "rows": 2})
	rr := postCommand(t, srv, "previewFile", string(body))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %q)", rr.Code, http.StatusOK, rr.Body.String())
	}

	var preview session.PreviewData
	if err := json.Unmarshal(rr.Body.Bytes(), &preview); err != nil {
		t.Fatalf("decode preview: %v", err)
	}
	if len(preview.Columns) != 2 || preview.Columns[0] != "name" {
		t.Errorf("columns = %v, want [name age]", preview.Columns)
	}
	if len(preview.Rows) != 2 {
		t.Errorf("sample rows = %d, want 2", len(preview.Rows))
	}
	if preview.TotalRows != 3 {
		t.Errorf("totalRows = %d, want 3", preview.TotalRows)
	}
}

func TestImportHistory_EmptyList(t *testing.T) {
	srv := newTestServer(t)

	rr := postCommand(t, srv, "importHistory", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	// A fresh session must reply with an empty array, not null.
	if !strings.Contains(rr.Body.String(), `"imports":[]`) {
		t.Errorf("body = %q, want empty imports array", rr.Body.String())
	}
}

func TestStatusFor_KindMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{engine.Errorf(engine.KindInvalidArgument, "bad arg"), http.StatusBadRequest},
		{engine.Errorf(engine.KindUnsupportedFormat, "bad format"), http.StatusBadRequest},
		{engine.Errorf(engine.KindNotFound, "missing"), http.StatusNotFound},
		{engine.Errorf(engine.KindIO, "io"), http.StatusUnprocessableEntity},
		{engine.Errorf(engine.KindParse, "parse"), http.StatusUnprocessableEntity},
		{engine.Errorf(engine.KindEngine, "engine"), http.StatusUnprocessableEntity},
		{engine.Errorf(engine.KindInternal, "internal"), http.StatusInternalServerError},
		{errors.New("unclassified"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		got := statusFor(tt.err)
		if got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestRespondError_AttachesHint(t *testing.T) {
	err := engine.Errorf(engine.KindEngine, "Query error: Catalog Error: Table with name missing does not exist")

	req := httptest.NewRequest("POST", "/api/command/queryData", nil)
	rr := httptest.NewRecorder()
	respondError(rr, req, err)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusUnprocessableEntity)
	}

	resp := decodeError(t, rr)
	if !strings.Contains(resp.Error, "Catalog Error") {
		t.Errorf("error = %q, want the raw engine error preserved", resp.Error)
	}
	if resp.Code != "ENG001" {
		t.Errorf("code = %q, want ENG001", resp.Code)
	}
	if resp.Message == "" || resp.Action == "" {
		t.Errorf("hint fields missing: message %q action %q", resp.Message, resp.Action)
	}
}

func TestRespondError_NoHintLeavesBareError(t *testing.T) {
	err := engine.Errorf(engine.KindInvalidArgument, "Unsupported operator: ~")

	req := httptest.NewRequest("POST", "/api/command/filterData", nil)
	rr := httptest.NewRecorder()
	respondError(rr, req, err)

	resp := decodeError(t, rr)
	if resp.Error != "Unsupported operator: ~" {
		t.Errorf("error = %q, want bare message", resp.Error)
	}
	if resp.Code != "" || resp.Action != "" {
		t.Errorf("unexpected hint fields: code %q action %q", resp.Code, resp.Action)
	}
}

func TestImportProgress_StopsOnClientCancel(t *testing.T) {
	srv := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", "/api/events/import-progress", nil).WithContext(ctx)
	rr := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		srv.Router().ServeHTTP(rr, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("progress stream did not stop after client cancel")
	}

	if ct := rr.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want %q", ct, "text/event-stream")
	}
}

func TestSecurityHeaders_Applied(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest("GET", "/nope", nil)
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)

	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rr.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}

func TestAPIRoutes_RequireTokenWhenConfigured(t *testing.T) {
	cfg := &config.Config{
		Server:   config.ServerConfig{Host: "127.0.0.1", Port: 8080, CommandTimeout: time.Minute},
		Security: config.SecurityConfig{APIToken: "hunter2"},
		Logging:  config.LoggingConfig{Level: "error", Format: "text"},
	}
	srv := NewServer(session.New(nil, nil), cfg)

	req := httptest.NewRequest("POST", "/api/command/importHistory", nil)
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}

	req = httptest.NewRequest("POST", "/api/command/importHistory", nil)
	req.Header.Set("Authorization", "Bearer hunter2")
	rr = httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("authenticated status = %d, want %d", rr.Code, http.StatusOK)
	}
}
