package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Beekeepers-Inc/rats/internal/engine"
	"github.com/Beekeepers-Inc/rats/internal/session"
)

// decodeJSON reads the request body into v. An empty body decodes as an
// empty argument object so commands without arguments need no payload.
func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return engine.Wrap(engine.KindInvalidArgument, err, "Invalid command arguments")
}

// handleHealthz reports liveness, probing the engine with a trivial query.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "engine unavailable")
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleImportFile ingests a CSV or spreadsheet file into a table named
// after the file stem, replacing any previous table of the same name.
func (s *Server) handleImportFile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FilePath  string `json:"filePath"`
		TableName string `json:"tableName"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	result, err := s.session.ImportFile(r.Context(), req.FilePath, req.TableName)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, result)
}

// handlePreviewFile returns the leading rows of a file as raw strings
// without ingesting anything.
func (s *Server) handlePreviewFile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FilePath string `json:"filePath"`
		Rows     int    `json:"rows"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	preview, err := session.PreviewFile(req.FilePath, req.Rows)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, preview)
}

// handleListTables returns the user tables and views in the session.
func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	tables, err := s.session.ListTables(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, map[string]any{"tables": tables})
}

// handleGetTableInfo returns column metadata and the row count of a table.
func (s *Server) handleGetTableInfo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TableName string `json:"tableName"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	info, err := s.session.GetTableInfo(r.Context(), req.TableName)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, info)
}

// handleQueryData returns a bounded window of rows from a table.
func (s *Server) handleQueryData(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TableName string `json:"tableName"`
		Limit     *int   `json:"limit"`
		Offset    *int   `json:"offset"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	limit, offset := -1, 0
	if req.Limit != nil {
		limit = *req.Limit
	}
	if req.Offset != nil {
		offset = *req.Offset
	}

	result, err := s.session.QueryData(r.Context(), req.TableName, limit, offset)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, result)
}

// handleDropTable removes a table from the session.
func (s *Server) handleDropTable(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TableName string `json:"tableName"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.session.DropTable(r.Context(), req.TableName); err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, map[string]bool{"success": true})
}

// handleReorderRows physically rewrites a table in the given sort order.
func (s *Server) handleReorderRows(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TableName   string               `json:"tableName"`
		SortColumns []session.SortColumn `json:"sortColumns"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	result, err := s.session.ReorderRows(r.Context(), req.TableName, req.SortColumns)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, result)
}

// handleFilterData returns a bounded window of rows matching the
// conjunction of the given conditions.
func (s *Server) handleFilterData(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TableName  string                    `json:"tableName"`
		Conditions []session.FilterCondition `json:"conditions"`
		Limit      *int                      `json:"limit"`
		Offset     *int                      `json:"offset"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	limit, offset := -1, 0
	if req.Limit != nil {
		limit = *req.Limit
	}
	if req.Offset != nil {
		offset = *req.Offset
	}

	result, err := s.session.FilterData(r.Context(), req.TableName, req.Conditions, limit, offset)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, result)
}

// handleCreateFilteredView materialises a filter as a named view over the
// source table and replies with the sanitised view name.
func (s *Server) handleCreateFilteredView(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SourceTable string                    `json:"sourceTable"`
		ViewName    string                    `json:"viewName"`
		Conditions  []session.FilterCondition `json:"conditions"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	name, err := s.session.CreateFilteredView(r.Context(), req.SourceTable, req.ViewName, req.Conditions)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, name)
}

// handleGroupAndAggregate runs a grouped aggregation over a table.
func (s *Server) handleGroupAndAggregate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TableName      string                    `json:"tableName"`
		GroupByColumns []string                  `json:"groupByColumns"`
		Aggregations   []session.AggregationSpec `json:"aggregations"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	result, err := s.session.GroupAndAggregate(r.Context(), req.TableName, req.GroupByColumns, req.Aggregations)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, result)
}

// handleGetTableStatistics profiles every column of a table.
func (s *Server) handleGetTableStatistics(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TableName string `json:"tableName"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	stats, err := s.session.GetTableStatistics(r.Context(), req.TableName)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, stats)
}

// handleAggregateColumn applies a single aggregate function to one column.
func (s *Server) handleAggregateColumn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TableName  string `json:"tableName"`
		ColumnName string `json:"columnName"`
		Function   string `json:"function"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	result, err := s.session.AggregateColumn(r.Context(), req.TableName, req.ColumnName, req.Function)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, result)
}

// handleCalculateCorrelation returns the Pearson correlation of two columns.
func (s *Server) handleCalculateCorrelation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TableName string `json:"tableName"`
		ColumnX   string `json:"columnX"`
		ColumnY   string `json:"columnY"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	corr, err := s.session.CalculateCorrelation(r.Context(), req.TableName, req.ColumnX, req.ColumnY)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, corr)
}

// handleExportToCSV writes a table to a CSV file on the local filesystem.
func (s *Server) handleExportToCSV(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TableName     string `json:"tableName"`
		FilePath      string `json:"filePath"`
		IncludeHeader *bool  `json:"includeHeader"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	includeHeader := true
	if req.IncludeHeader != nil {
		includeHeader = *req.IncludeHeader
	}

	result, err := s.session.ExportToCSV(r.Context(), req.TableName, req.FilePath, includeHeader)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, result)
}

// handleExportQueryToCSV writes the result of an arbitrary query to a CSV
// file on the local filesystem.
func (s *Server) handleExportQueryToCSV(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query         string `json:"query"`
		FilePath      string `json:"filePath"`
		IncludeHeader *bool  `json:"includeHeader"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	includeHeader := true
	if req.IncludeHeader != nil {
		includeHeader = *req.IncludeHeader
	}

	result, err := s.session.ExportQueryToCSV(r.Context(), req.Query, req.FilePath, includeHeader)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, result)
}

// handleExportToExcel writes a table to a single-sheet xlsx workbook.
func (s *Server) handleExportToExcel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TableName string `json:"tableName"`
		FilePath  string `json:"filePath"`
		SheetName string `json:"sheetName"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	result, err := s.session.ExportToExcel(r.Context(), req.TableName, req.FilePath, req.SheetName)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, result)
}

// handleResetSession drops every user table and view.
func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	result, err := s.session.Reset(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, result)
}

// handleImportHistory returns the imports recorded in this session,
// oldest first.
func (s *Server) handleImportHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"imports": s.session.ImportHistory()})
}
