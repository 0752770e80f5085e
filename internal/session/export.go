package session

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/Beekeepers-Inc/rats/internal/engine"
)

// ExportToCSV bulk-copies a table to a CSV file on disk.
func (s *Session) ExportToCSV(ctx context.Context, table, filePath string, includeHeader bool) (*ExportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ident, err := engine.QuoteIdentifier(table)
	if err != nil {
		return nil, err
	}

	opts := "FORMAT CSV"
	if includeHeader {
		opts += ", HEADER"
	}
	stmt := fmt.Sprintf("COPY %s TO '%s' (%s)", ident, engine.EscapeStringLiteral(filePath), opts)
	if err := s.handle.Execute(ctx, stmt); err != nil {
		return nil, fmt.Errorf("Export error: %w", err)
	}

	rows, err := s.countRows(ctx, ident)
	if err != nil {
		return nil, err
	}

	s.log.Info("csv export complete", "table", table, "path", filePath, "rows", rows)
	return &ExportResult{
		Success:      true,
		Message:      fmt.Sprintf("Successfully exported %d rows to CSV", rows),
		FilePath:     filePath,
		RowsExported: rows,
	}, nil
}

// ExportQueryToCSV bulk-copies the result of an arbitrary query to a CSV
// file. The query text is trusted as-is; this command exists for the
// workbench's own saved queries.
func (s *Session) ExportQueryToCSV(ctx context.Context, query, filePath string, includeHeader bool) (*ExportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.handle.CopyToCSV(ctx, query, filePath, includeHeader); err != nil {
		return nil, fmt.Errorf("Export error: %w", err)
	}

	var rows int64
	row := s.handle.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM (%s)", query))
	if err := row.Scan(&rows); err != nil {
		return nil, engine.Wrap(engine.KindEngine, err, "Failed to count rows")
	}

	s.log.Info("csv query export complete", "path", filePath, "rows", rows)
	return &ExportResult{
		Success:      true,
		Message:      fmt.Sprintf("Successfully exported %d rows to CSV", rows),
		FilePath:     filePath,
		RowsExported: rows,
	}, nil
}

// ExportToExcel materialises a table and writes it to a workbook, header
// row first, dispatching each cell on its wire kind.
func (s *Session) ExportToExcel(ctx context.Context, table, filePath, sheetName string) (*ExportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sheetName == "" {
		sheetName = DefaultSheetName
	}

	ident, err := engine.QuoteIdentifier(table)
	if err != nil {
		return nil, err
	}
	result, err := s.collectRows(ctx, "SELECT * FROM "+ident)
	if err != nil {
		return nil, fmt.Errorf("Query error: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	// Rename the default sheet so the workbook holds exactly one sheet
	// under the requested name.
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, engine.Wrap(engine.KindIO, err, "Failed to add worksheet")
	}
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return nil, engine.Wrap(engine.KindIO, err, "Failed to add worksheet")
	}

	header := make([]any, len(result.Columns))
	for i, name := range result.Columns {
		header[i] = name
	}
	cell, _ := excelize.CoordinatesToCellName(1, 1)
	if err := sw.SetRow(cell, header); err != nil {
		return nil, engine.Wrap(engine.KindIO, err, "Failed to write header")
	}

	for i, row := range result.Rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = excelCell(v)
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, cells); err != nil {
			return nil, engine.Wrap(engine.KindIO, err, "Failed to write cell")
		}
	}

	if err := sw.Flush(); err != nil {
		return nil, engine.Wrap(engine.KindIO, err, "Failed to save workbook")
	}
	if err := f.SaveAs(filePath); err != nil {
		return nil, engine.Wrap(engine.KindIO, err, "Failed to save workbook")
	}

	rows := int64(result.TotalRows)
	s.log.Info("excel export complete", "table", table, "path", filePath, "rows", rows)
	return &ExportResult{
		Success:      true,
		Message:      fmt.Sprintf("Successfully exported %d rows to Excel", rows),
		FilePath:     filePath,
		RowsExported: rows,
	}, nil
}

// excelCell maps a wire value onto a cell value the workbook writer
// understands. Null leaves the cell blank.
func excelCell(v engine.Value) any {
	switch v.Type {
	case engine.TypeBool:
		return v.Bool
	case engine.TypeInt:
		return v.Int
	case engine.TypeFloat:
		return v.Float
	case engine.TypeText:
		return v.Str
	case engine.TypeNull:
		return nil
	default:
		return v.String()
	}
}
