package session

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/Beekeepers-Inc/rats/internal/engine"
)

// File formats recognised by extension.
const (
	formatCSV   = "csv"
	formatExcel = "excel"
)

// progressBatchRows is the spreadsheet insert cadence between progress
// events.
const progressBatchRows = 1000

// detectFormat maps a file extension (case-insensitive) onto an ingest
// path.
func detectFormat(path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "csv":
		return formatCSV, nil
	case "xlsx", "xlsm", "xlsb", "xls":
		return formatExcel, nil
	case "":
		return "", engine.Errorf(engine.KindUnsupportedFormat, "Unsupported file format")
	default:
		return "", engine.Errorf(engine.KindUnsupportedFormat, "Unsupported file format: %s", ext)
	}
}

// tableNameFromPath derives a table name from the file stem.
func tableNameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ImportFile ingests a CSV or spreadsheet file into a table. An empty
// tableName derives the name from the file stem; either way the name is
// sanitised before use. Any existing table of the same name is replaced.
//
// The session lock is held for the whole ingest. Progress events flow to
// subscribers as the load advances and are never allowed to block it.
func (s *Session) ImportFile(ctx context.Context, filePath, tableName string) (*ImportResult, error) {
	format, err := detectFormat(filePath)
	if err != nil {
		return nil, err
	}

	if tableName == "" {
		tableName = tableNameFromPath(filePath)
	}
	table := engine.SanitizeTableName(tableName)
	ident, err := engine.QuoteIdentifier(table)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	started := time.Now()
	s.emitProgress(ImportProgress{Status: "Starting import... Large files may take 1-2 minutes"})

	// Re-importing replaces the previous table of the same name.
	_ = s.handle.Execute(ctx, "DROP TABLE IF EXISTS "+ident)

	var rows int64
	switch format {
	case formatCSV:
		rows, err = s.importCSV(ctx, filePath, table)
	case formatExcel:
		rows, err = s.importSpreadsheet(ctx, filePath, table)
	}
	if err != nil {
		s.recordImport(ImportRecord{
			ID:         uuid.New().String(),
			FilePath:   filePath,
			TableName:  table,
			StartedAt:  started,
			DurationMs: time.Since(started).Milliseconds(),
			Status:     ImportStatusFailed,
			Error:      err.Error(),
		})
		s.log.Error("import failed", "path", filePath, "table", table, "error", err)
		return nil, err
	}

	s.emitProgress(ImportProgress{RowsImported: rows, TotalRows: &rows, Status: "Import complete!"})

	s.recordImport(ImportRecord{
		ID:           uuid.New().String(),
		FilePath:     filePath,
		TableName:    table,
		RowsImported: rows,
		StartedAt:    started,
		DurationMs:   time.Since(started).Milliseconds(),
		Status:       ImportStatusCompleted,
	})
	s.log.Info("import complete", "path", filePath, "table", table, "rows", rows, "format", format, "elapsed", time.Since(started))

	return &ImportResult{
		Success:      true,
		Message:      fmt.Sprintf("Successfully imported %d rows", rows),
		TableName:    table,
		RowsImported: rows,
	}, nil
}

// importCSV delegates the whole load to the engine, which infers the
// delimiter, header and column types itself.
func (s *Session) importCSV(ctx context.Context, path, table string) (int64, error) {
	s.emitProgress(ImportProgress{Status: "Starting CSV import..."})

	if err := s.handle.CopyFromCSV(ctx, path, table); err != nil {
		return 0, err
	}

	ident, err := engine.QuoteIdentifier(table)
	if err != nil {
		return 0, err
	}
	total, err := s.countRows(ctx, ident)
	if err != nil {
		return 0, err
	}

	s.emitProgress(ImportProgress{RowsImported: total, TotalRows: &total, Status: "Import complete!"})
	return total, nil
}

// importSpreadsheet loads the first sheet of a workbook. The header row
// names the columns, every column is declared as text, and rows stream
// through one prepared insert inside a single transaction.
func (s *Session) importSpreadsheet(ctx context.Context, path, table string) (int64, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return 0, engine.Wrap(engine.KindParse, err, "Excel error")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return 0, engine.Errorf(engine.KindParse, "No sheets found in Excel file")
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return 0, engine.Wrap(engine.KindParse, err, "Failed to read sheet")
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Error(); err != nil {
			return 0, engine.Wrap(engine.KindParse, err, "Failed to read sheet")
		}
		return 0, engine.Errorf(engine.KindParse, "Empty Excel file")
	}
	headerCells, err := rows.Columns()
	if err != nil {
		return 0, engine.Wrap(engine.KindParse, err, "Failed to read sheet")
	}
	if len(headerCells) == 0 {
		return 0, engine.Errorf(engine.KindParse, "Empty Excel file")
	}

	headers := make([]string, len(headerCells))
	for i, h := range headerCells {
		headers[i] = engine.SanitizeColumnName(h, i+1)
	}

	ident, err := engine.QuoteIdentifier(table)
	if err != nil {
		return 0, err
	}
	defs := make([]string, len(headers))
	for i, h := range headers {
		colIdent, err := engine.QuoteIdentifier(h)
		if err != nil {
			return 0, err
		}
		defs[i] = colIdent + " VARCHAR"
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", ident, strings.Join(defs, ", "))
	if err := s.handle.Execute(ctx, create); err != nil {
		return 0, err
	}

	tx, err := s.handle.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	placeholders := strings.Repeat("?, ", len(headers))
	insert := fmt.Sprintf("INSERT INTO %s VALUES (%s)", ident, strings.TrimSuffix(placeholders, ", "))
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return 0, engine.Wrap(engine.KindEngine, err, "")
	}
	defer stmt.Close()

	var total int64
	sinceEmit := 0
	for rows.Next() {
		cells, err := rows.Columns()
		if err != nil {
			return 0, engine.Wrap(engine.KindParse, err, "Failed to read sheet")
		}

		// Pad short rows with NULL and drop cells beyond the header.
		args := make([]any, len(headers))
		for i := range headers {
			if i < len(cells) && cells[i] != "" {
				args[i] = cells[i]
			}
		}

		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, engine.Wrap(engine.KindEngine, err, "")
		}
		total++
		sinceEmit++

		if sinceEmit >= progressBatchRows {
			s.emitProgress(ImportProgress{RowsImported: total, Status: fmt.Sprintf("Importing... %d rows", total)})
			sinceEmit = 0
		}
	}
	if err := rows.Error(); err != nil {
		return 0, engine.Wrap(engine.KindParse, err, "Failed to read sheet")
	}

	if err := tx.Commit(); err != nil {
		return 0, engine.Wrap(engine.KindEngine, err, "")
	}

	s.emitProgress(ImportProgress{RowsImported: total, TotalRows: &total, Status: "Finalizing import..."})
	return total, nil
}
