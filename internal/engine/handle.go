package engine

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb"
)

// Config carries the settings applied when the engine opens.
type Config struct {
	MemoryLimit string
	Threads     int
}

// Handle owns the in-memory DuckDB instance. The pool is pinned to a
// single connection because DuckDB session settings (memory limit,
// thread count) do not propagate across pooled connections; higher
// layers serialise access anyway.
type Handle struct {
	db *sql.DB
}

// Open creates an in-memory engine and applies cfg.
func Open(cfg Config) (*Handle, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, Wrap(KindEngine, err, "open engine")
	}
	db.SetMaxOpenConns(1)

	if cfg.MemoryLimit != "" {
		stmt := fmt.Sprintf("SET memory_limit='%s'", EscapeStringLiteral(cfg.MemoryLimit))
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, Wrap(KindEngine, err, "set memory limit")
		}
	}
	if cfg.Threads > 0 {
		if _, err := db.Exec(fmt.Sprintf("SET threads=%d", cfg.Threads)); err != nil {
			db.Close()
			return nil, Wrap(KindEngine, err, "set threads")
		}
	}

	return &Handle{db: db}, nil
}

// Execute runs a statement that produces no rows.
func (h *Handle) Execute(ctx context.Context, query string, args ...any) error {
	if _, err := h.db.ExecContext(ctx, query, args...); err != nil {
		return &Error{Kind: KindEngine, cause: err}
	}
	return nil
}

// QueryRow runs a query expected to produce a single row. The error, if
// any, surfaces from Scan; sql.ErrNoRows means the row never came.
func (h *Handle) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return h.db.QueryRowContext(ctx, query, args...)
}

// Query runs a query and returns its forward-only cursor. The cursor
// borrows the sole connection, so callers drain or close it before the
// next statement runs.
func (h *Handle) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &Error{Kind: KindEngine, cause: err}
	}
	return rows, nil
}

// Begin opens a transaction on the engine connection.
func (h *Handle) Begin(ctx context.Context) (*sql.Tx, error) {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &Error{Kind: KindEngine, cause: err}
	}
	return tx, nil
}

// Prepare readies a statement for repeated execution.
func (h *Handle) Prepare(ctx context.Context, query string) (*sql.Stmt, error) {
	stmt, err := h.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, &Error{Kind: KindEngine, cause: err}
	}
	return stmt, nil
}

// CopyFromCSV bulk-loads the file at path into table, delegating
// delimiter detection, quoting and type inference to the engine.
func (h *Handle) CopyFromCSV(ctx context.Context, path, table string) error {
	ident, err := QuoteIdentifier(table)
	if err != nil {
		return err
	}
	stmt := fmt.Sprintf("CREATE TABLE %s AS FROM '%s'", ident, EscapeStringLiteral(path))
	return h.Execute(ctx, stmt)
}

// CopyToCSV bulk-exports the rows of selectSQL to the file at path.
func (h *Handle) CopyToCSV(ctx context.Context, selectSQL, path string, header bool) error {
	opts := "FORMAT CSV"
	if header {
		opts += ", HEADER"
	}
	stmt := fmt.Sprintf("COPY (%s) TO '%s' (%s)", selectSQL, EscapeStringLiteral(path), opts)
	return h.Execute(ctx, stmt)
}

// Ping verifies the engine still answers.
func (h *Handle) Ping(ctx context.Context) error {
	if err := h.db.PingContext(ctx); err != nil {
		return &Error{Kind: KindEngine, cause: err}
	}
	return nil
}

// Close flushes pending engine state and shuts the instance down.
func (h *Handle) Close() error {
	_, _ = h.db.Exec("CHECKPOINT")
	return h.db.Close()
}
