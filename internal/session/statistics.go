package session

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"

	"github.com/Beekeepers-Inc/rats/internal/engine"
)

// numericTypeMarkers is matched against the upper-cased column type
// reported by DESCRIBE. Columns of any other type only get the generic
// count/min/max statistics.
var numericTypeMarkers = []string{"INT", "DOUBLE", "FLOAT", "DECIMAL", "NUMERIC"}

func isNumericType(dataType string) bool {
	upper := strings.ToUpper(dataType)
	for _, marker := range numericTypeMarkers {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}

// GetTableStatistics profiles every column of the table. Numeric columns
// get the full distribution summary, everything else gets counts and the
// text-rendered min/max only.
func (s *Session) GetTableStatistics(ctx context.Context, table string) (*TableStatistics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ident, err := engine.QuoteIdentifier(table)
	if err != nil {
		return nil, err
	}

	totalRows, err := s.countRows(ctx, ident)
	if err != nil {
		return nil, err
	}

	columns, err := s.describeTable(ctx, ident)
	if err != nil {
		return nil, err
	}

	stats := make([]ColumnStatistics, 0, len(columns))
	for _, col := range columns {
		cs, err := s.columnStatistics(ctx, ident, col)
		if err != nil {
			return nil, err
		}
		stats = append(stats, cs)
	}

	return &TableStatistics{
		TableName:    table,
		TotalRows:    totalRows,
		TotalColumns: len(stats),
		ColumnStats:  stats,
	}, nil
}

// describeTable reads column names and types via DESCRIBE. DuckDB reports
// six columns; only the first two matter here.
func (s *Session) describeTable(ctx context.Context, quotedIdent string) ([]ColumnInfo, error) {
	rows, err := s.handle.Query(ctx, "DESCRIBE "+quotedIdent)
	if err != nil {
		return nil, engine.Wrap(engine.KindEngine, err, "Failed to describe table")
	}
	defer rows.Close()

	var columns []ColumnInfo
	for rows.Next() {
		var (
			name, dataType         string
			null, key, dflt, extra sql.NullString
		)
		if err := rows.Scan(&name, &dataType, &null, &key, &dflt, &extra); err != nil {
			return nil, engine.Wrap(engine.KindEngine, err, "Failed to describe table")
		}
		columns = append(columns, ColumnInfo{Name: name, DataType: dataType})
	}
	if err := rows.Err(); err != nil {
		return nil, engine.Wrap(engine.KindEngine, err, "Failed to describe table")
	}
	return columns, nil
}

func (s *Session) columnStatistics(ctx context.Context, tableIdent string, col ColumnInfo) (ColumnStatistics, error) {
	colIdent, err := engine.QuoteIdentifier(col.Name)
	if err != nil {
		return ColumnStatistics{}, err
	}

	var query string
	if isNumericType(col.DataType) {
		query = fmt.Sprintf(`SELECT
			COUNT(%[1]s),
			COUNT(*) - COUNT(%[1]s),
			COUNT(DISTINCT %[1]s),
			MIN(%[1]s)::VARCHAR,
			MAX(%[1]s)::VARCHAR,
			AVG(%[1]s),
			MEDIAN(%[1]s),
			STDDEV_POP(%[1]s),
			VAR_POP(%[1]s),
			PERCENTILE_CONT(0.25) WITHIN GROUP (ORDER BY %[1]s),
			PERCENTILE_CONT(0.75) WITHIN GROUP (ORDER BY %[1]s)
		FROM %[2]s`, colIdent, tableIdent)
	} else {
		query = fmt.Sprintf(`SELECT
			COUNT(%[1]s),
			COUNT(*) - COUNT(%[1]s),
			COUNT(DISTINCT %[1]s),
			MIN(%[1]s)::VARCHAR,
			MAX(%[1]s)::VARCHAR,
			NULL, NULL, NULL, NULL, NULL, NULL
		FROM %[2]s`, colIdent, tableIdent)
	}

	var (
		count, nullCount, distinct          int64
		minStr, maxStr                      sql.NullString
		mean, median, stdDev, variance      sql.NullFloat64
		q25, q75                            sql.NullFloat64
	)
	row := s.handle.QueryRow(ctx, query)
	if err := row.Scan(&count, &nullCount, &distinct, &minStr, &maxStr,
		&mean, &median, &stdDev, &variance, &q25, &q75); err != nil {
		return ColumnStatistics{}, engine.Wrap(engine.KindEngine, err, "Failed to calculate statistics")
	}

	return ColumnStatistics{
		ColumnName:    col.Name,
		Count:         count,
		NullCount:     nullCount,
		DistinctCount: distinct,
		Min:           textOrNull(minStr),
		Max:           textOrNull(maxStr),
		Mean:          floatPtr(mean),
		Median:        floatPtr(median),
		StdDev:        floatPtr(stdDev),
		Variance:      floatPtr(variance),
		Q25:           floatPtr(q25),
		Q75:           floatPtr(q75),
		DataType:      col.DataType,
	}, nil
}

func textOrNull(ns sql.NullString) engine.Value {
	if !ns.Valid {
		return engine.Null()
	}
	return engine.NewText(ns.String)
}

func floatPtr(nf sql.NullFloat64) *float64 {
	if !nf.Valid || math.IsNaN(nf.Float64) || math.IsInf(nf.Float64, 0) {
		return nil
	}
	f := nf.Float64
	return &f
}

// AggregateColumn applies a single aggregate function to one column.
func (s *Session) AggregateColumn(ctx context.Context, table, column, function string) (*AggregationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn, err := normalizeAggregate(function)
	if err != nil {
		return nil, err
	}
	tableIdent, err := engine.QuoteIdentifier(table)
	if err != nil {
		return nil, err
	}
	colIdent, err := engine.QuoteIdentifier(column)
	if err != nil {
		return nil, err
	}

	var raw any
	row := s.handle.QueryRow(ctx, fmt.Sprintf("SELECT %s(%s) FROM %s", fn, colIdent, tableIdent))
	if err := row.Scan(&raw); err != nil {
		return nil, engine.Wrap(engine.KindEngine, err, "Aggregation error")
	}

	return &AggregationResult{
		ColumnName: column,
		Function:   fn,
		Result:     engine.FromCell(raw),
	}, nil
}

// CalculateCorrelation computes the Pearson correlation of two columns.
// A NULL or non-finite result cannot be represented on the wire and is
// reported as an error.
func (s *Session) CalculateCorrelation(ctx context.Context, table, columnX, columnY string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tableIdent, err := engine.QuoteIdentifier(table)
	if err != nil {
		return 0, err
	}
	xIdent, err := engine.QuoteIdentifier(columnX)
	if err != nil {
		return 0, err
	}
	yIdent, err := engine.QuoteIdentifier(columnY)
	if err != nil {
		return 0, err
	}

	var corr sql.NullFloat64
	row := s.handle.QueryRow(ctx, fmt.Sprintf("SELECT CORR(%s, %s) FROM %s", xIdent, yIdent, tableIdent))
	if err := row.Scan(&corr); err != nil {
		return 0, engine.Wrap(engine.KindEngine, err, "Failed to calculate correlation")
	}
	if !corr.Valid || math.IsNaN(corr.Float64) || math.IsInf(corr.Float64, 0) {
		return 0, engine.Errorf(engine.KindEngine, "Correlation could not be computed")
	}
	return corr.Float64, nil
}
