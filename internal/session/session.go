package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/Beekeepers-Inc/rats/internal/engine"
)

// progressBuffer bounds each subscriber channel; slow consumers drop
// events rather than stall the importing command.
const progressBuffer = 10

// Session owns the process-wide engine handle. Every command locks mu
// for its full duration, so engine statements never interleave. Progress
// listeners live behind their own lock and may be subscribed to while a
// command holds mu.
type Session struct {
	mu     sync.Mutex
	handle *engine.Handle
	log    *slog.Logger

	listenerMu sync.RWMutex
	listeners  map[string]chan ImportProgress

	historyMu sync.Mutex
	history   []ImportRecord
}

// New wraps an open engine handle in a session.
func New(handle *engine.Handle, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		handle:    handle,
		log:       log,
		listeners: make(map[string]chan ImportProgress),
	}
}

// Close tears the session down: listeners are closed and the engine
// handle is flushed and released.
func (s *Session) Close() error {
	s.listenerMu.Lock()
	for id, ch := range s.listeners {
		close(ch)
		delete(s.listeners, id)
	}
	s.listenerMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle.Close()
}

// Ping verifies the engine still answers.
func (s *Session) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle.Ping(ctx)
}

// SubscribeProgress registers a listener for import progress events.
// The returned id releases the listener via UnsubscribeProgress.
func (s *Session) SubscribeProgress() (string, <-chan ImportProgress) {
	id := uuid.New().String()
	ch := make(chan ImportProgress, progressBuffer)

	s.listenerMu.Lock()
	s.listeners[id] = ch
	s.listenerMu.Unlock()

	return id, ch
}

// UnsubscribeProgress removes a listener and closes its channel.
func (s *Session) UnsubscribeProgress(id string) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()

	if ch, ok := s.listeners[id]; ok {
		delete(s.listeners, id)
		close(ch)
	}
}

// emitProgress fans an event out to every listener without blocking.
func (s *Session) emitProgress(p ImportProgress) {
	s.listenerMu.RLock()
	defer s.listenerMu.RUnlock()

	for _, ch := range s.listeners {
		select {
		case ch <- p:
		default:
			// Listener is slow, skip this update
		}
	}
}

// ListTables returns the catalog of user tables and views.
func (s *Session) ListTables(ctx context.Context) ([]TableSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listTablesLocked(ctx)
}

func (s *Session) listTablesLocked(ctx context.Context) ([]TableSummary, error) {
	const q = `SELECT table_name, table_type FROM information_schema.tables WHERE table_schema = 'main' ORDER BY table_name`

	rows, err := s.handle.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("Failed to list tables: %w", err)
	}
	defer rows.Close()

	tables := make([]TableSummary, 0, 8)
	for rows.Next() {
		var t TableSummary
		if err := rows.Scan(&t.Name, &t.Type); err != nil {
			return nil, engine.Wrap(engine.KindEngine, err, "Failed to list tables")
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, engine.Wrap(engine.KindEngine, err, "Failed to list tables")
	}
	return tables, nil
}

// Reset drops every user table and view, returning the session to its
// initial empty state.
func (s *Session) Reset(ctx context.Context) (*ResetResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables, err := s.listTablesLocked(ctx)
	if err != nil {
		return nil, err
	}

	dropped := 0

	// Views go first so that dependent views never block a table drop.
	for _, t := range tables {
		if t.Type != "VIEW" {
			continue
		}
		ident, err := engine.QuoteIdentifier(t.Name)
		if err != nil {
			continue
		}
		if err := s.handle.Execute(ctx, "DROP VIEW IF EXISTS "+ident); err != nil {
			return nil, fmt.Errorf("Failed to drop view: %w", err)
		}
		dropped++
	}
	for _, t := range tables {
		if t.Type == "VIEW" {
			continue
		}
		ident, err := engine.QuoteIdentifier(t.Name)
		if err != nil {
			continue
		}
		if err := s.handle.Execute(ctx, "DROP TABLE IF EXISTS "+ident+" CASCADE"); err != nil {
			return nil, fmt.Errorf("Failed to drop table: %w", err)
		}
		dropped++
	}

	s.log.Info("session reset", "dropped", dropped)
	return &ResetResult{Success: true, TablesDropped: dropped}, nil
}

// countRows returns COUNT(*) for an already-quoted relation identifier.
func (s *Session) countRows(ctx context.Context, ident string) (int64, error) {
	var n int64
	row := s.handle.QueryRow(ctx, "SELECT COUNT(*) FROM "+ident)
	if err := row.Scan(&n); err != nil {
		return 0, engine.Wrap(engine.KindEngine, err, "Failed to count rows")
	}
	return n, nil
}

// collectRows runs a query and materialises every row into wire values.
// Eager materialisation releases the engine cursor before the next
// statement needs the connection.
func (s *Session) collectRows(ctx context.Context, query string, args ...any) (*QueryResult, error) {
	rows, err := s.handle.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, engine.Wrap(engine.KindEngine, err, "Failed to read columns")
	}

	out := make([][]engine.Value, 0, 16)
	raw := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, engine.Wrap(engine.KindEngine, err, "Failed to scan row")
		}
		rec := make([]engine.Value, len(cols))
		for i, cell := range raw {
			rec[i] = engine.FromCell(cell)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, engine.Wrap(engine.KindEngine, err, "Failed to read rows")
	}

	return &QueryResult{Columns: cols, Rows: out, TotalRows: len(out)}, nil
}
