package session

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Beekeepers-Inc/rats/internal/engine"
)

// QueryData reads a bounded window of a table or view.
func (s *Session) QueryData(ctx context.Context, table string, limit, offset int) (*QueryResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ident, err := engine.QuoteIdentifier(table)
	if err != nil {
		return nil, err
	}
	if limit < 0 {
		limit = DefaultQueryLimit
	}
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf("SELECT * FROM %s LIMIT ? OFFSET ?", ident)
	result, err := s.collectRows(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("Query error: %w", err)
	}
	return result, nil
}

// GetTableInfo returns a table's column list and row count.
func (s *Session) GetTableInfo(ctx context.Context, table string) (*TableInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ident, err := engine.QuoteIdentifier(table)
	if err != nil {
		return nil, err
	}

	pragma := fmt.Sprintf("PRAGMA table_info('%s')", engine.EscapeStringLiteral(table))
	rows, err := s.handle.Query(ctx, pragma)
	if err != nil {
		return nil, fmt.Errorf("Failed to get table info: %w", err)
	}
	defer rows.Close()

	var columns []ColumnInfo
	for rows.Next() {
		var (
			cid      int64
			name     string
			dataType string
			notNull  bool
			dflt     sql.NullString
			pk       bool
		)
		if err := rows.Scan(&cid, &name, &dataType, &notNull, &dflt, &pk); err != nil {
			return nil, engine.Wrap(engine.KindEngine, err, "Failed to get table info")
		}
		columns = append(columns, ColumnInfo{Name: name, DataType: dataType})
	}
	if err := rows.Err(); err != nil {
		return nil, engine.Wrap(engine.KindEngine, err, "Failed to get table info")
	}
	rows.Close()

	count, err := s.countRows(ctx, ident)
	if err != nil {
		return nil, fmt.Errorf("Failed to get table info: %w", err)
	}

	return &TableInfo{Columns: columns, RowCount: count}, nil
}

// DropTable removes a table if it exists.
func (s *Session) DropTable(ctx context.Context, table string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ident, err := engine.QuoteIdentifier(table)
	if err != nil {
		return err
	}
	if err := s.handle.Execute(ctx, "DROP TABLE IF EXISTS "+ident); err != nil {
		return fmt.Errorf("Failed to drop table: %w", err)
	}
	s.log.Debug("table dropped", "table", table)
	return nil
}

// buildOrderBy renders sort keys as a comma-joined ORDER BY body.
func buildOrderBy(sortColumns []SortColumn) (string, error) {
	parts := make([]string, 0, len(sortColumns))
	for _, sc := range sortColumns {
		ident, err := engine.QuoteIdentifier(sc.Column)
		if err != nil {
			return "", err
		}
		dir := "DESC"
		if sc.Ascending {
			dir = "ASC"
		}
		parts = append(parts, ident+" "+dir)
	}
	return strings.Join(parts, ", "), nil
}

// ReorderRows materialises a sorted permutation of the table under its
// own name. The rebuild runs inside one transaction so a failure leaves
// the original table untouched.
func (s *Session) ReorderRows(ctx context.Context, table string, sortColumns []SortColumn) (*ReorderResult, error) {
	if len(sortColumns) == 0 {
		return nil, engine.Errorf(engine.KindInvalidArgument, "No sort columns specified")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ident, err := engine.QuoteIdentifier(table)
	if err != nil {
		return nil, err
	}
	tempIdent, err := engine.QuoteIdentifier(table + "_sorted_temp")
	if err != nil {
		return nil, err
	}
	orderBy, err := buildOrderBy(sortColumns)
	if err != nil {
		return nil, err
	}

	tx, err := s.handle.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("Failed to create sorted table: %w", err)
	}
	defer tx.Rollback()

	steps := []struct {
		stmt    string
		failMsg string
	}{
		{fmt.Sprintf("DROP TABLE IF EXISTS %s", tempIdent), "Failed to create sorted table"},
		{fmt.Sprintf("CREATE TABLE %s AS SELECT * FROM %s ORDER BY %s", tempIdent, ident, orderBy), "Failed to create sorted table"},
		{fmt.Sprintf("DROP TABLE %s", ident), "Failed to drop original table"},
		{fmt.Sprintf("ALTER TABLE %s RENAME TO %s", tempIdent, ident), "Failed to rename table"},
	}
	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, step.stmt); err != nil {
			return nil, engine.Wrap(engine.KindEngine, err, step.failMsg)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, engine.Wrap(engine.KindEngine, err, "Failed to rename table")
	}

	s.log.Debug("rows reordered", "table", table, "keys", len(sortColumns))
	return &ReorderResult{
		Success: true,
		Message: fmt.Sprintf("Rows reordered by %d column(s)", len(sortColumns)),
	}, nil
}
