package session

import (
	"time"

	"github.com/Beekeepers-Inc/rats/internal/engine"
)

// Defaults applied when a caller leaves window or preview sizes unset.
const (
	DefaultQueryLimit  = 1000
	DefaultPreviewRows = 10
	DefaultSheetName   = "Data"
)

// ColumnInfo describes one column of a table.
type ColumnInfo struct {
	Name     string `json:"name"`
	DataType string `json:"dataType"`
}

// TableInfo describes a table's schema and cardinality.
type TableInfo struct {
	Columns  []ColumnInfo `json:"columns"`
	RowCount int64        `json:"rowCount"`
}

// TableSummary is one catalog entry, either a base table or a view.
type TableSummary struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// QueryResult is a windowed read. TotalRows counts the rows returned in
// this window, not the underlying relation.
type QueryResult struct {
	Columns   []string         `json:"columns"`
	Rows      [][]engine.Value `json:"rows"`
	TotalRows int              `json:"totalRows"`
}

// PreviewData is a raw-string glimpse of a file before any ingest.
// TotalRows counts every data row in the file, not just the sample.
type PreviewData struct {
	Columns   []string   `json:"columns"`
	Rows      [][]string `json:"rows"`
	TotalRows int        `json:"totalRows"`
}

// ImportResult reports a completed ingest.
type ImportResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	TableName    string `json:"tableName"`
	RowsImported int64  `json:"rowsImported"`
}

// ImportProgress is emitted while an ingest runs. TotalRows is null
// until the total is known.
type ImportProgress struct {
	RowsImported int64  `json:"rowsImported"`
	TotalRows    *int64 `json:"totalRows"`
	Status       string `json:"status"`
}

// FilterCondition restricts rows to those where Column relates to Value
// under Operator. IN takes an array value.
type FilterCondition struct {
	Column   string       `json:"column"`
	Operator string       `json:"operator"`
	Value    engine.Value `json:"value"`
}

// SortColumn orders rows by one column.
type SortColumn struct {
	Column    string `json:"column"`
	Ascending bool   `json:"ascending"`
}

// ReorderResult reports a completed sort materialisation.
type ReorderResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// AggregationSpec names one aggregate column of a grouped read.
type AggregationSpec struct {
	Column   string `json:"column"`
	Function string `json:"function"`
	Alias    string `json:"alias"`
}

// AggregationResult carries a single-column aggregate back to the caller.
type AggregationResult struct {
	ColumnName string       `json:"columnName"`
	Function   string       `json:"function"`
	Result     engine.Value `json:"result"`
}

// ColumnStatistics profiles one column. The numeric slots stay null for
// non-numeric columns; min and max render as text for lossless display.
type ColumnStatistics struct {
	ColumnName    string       `json:"columnName"`
	Count         int64        `json:"count"`
	NullCount     int64        `json:"nullCount"`
	DistinctCount int64        `json:"distinctCount"`
	Min           engine.Value `json:"min"`
	Max           engine.Value `json:"max"`
	Mean          *float64     `json:"mean"`
	Median        *float64     `json:"median"`
	StdDev        *float64     `json:"stdDev"`
	Variance      *float64     `json:"variance"`
	Q25           *float64     `json:"q25"`
	Q75           *float64     `json:"q75"`
	DataType      string       `json:"dataType"`
}

// TableStatistics profiles a whole table.
type TableStatistics struct {
	TableName    string             `json:"tableName"`
	TotalRows    int64              `json:"totalRows"`
	TotalColumns int                `json:"totalColumns"`
	ColumnStats  []ColumnStatistics `json:"columnStats"`
}

// ExportResult reports a completed export.
type ExportResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	FilePath     string `json:"filePath"`
	RowsExported int64  `json:"rowsExported"`
}

// ResetResult reports how much of the catalog a reset removed.
type ResetResult struct {
	Success       bool `json:"success"`
	TablesDropped int  `json:"tablesDropped"`
}

// ImportRecord is one entry of the session's recent-import history.
type ImportRecord struct {
	ID           string    `json:"id"`
	FilePath     string    `json:"filePath"`
	TableName    string    `json:"tableName"`
	RowsImported int64     `json:"rowsImported"`
	StartedAt    time.Time `json:"startedAt"`
	DurationMs   int64     `json:"durationMs"`
	Status       string    `json:"status"`
	Error        string    `json:"error,omitempty"`
}

// Import history statuses.
const (
	ImportStatusCompleted = "completed"
	ImportStatusFailed    = "failed"
)
