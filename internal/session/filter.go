package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/Beekeepers-Inc/rats/internal/engine"
)

// Operators accepted by condition building. Anything else is rejected
// before SQL is composed.
var allowedOperators = map[string]bool{
	"=": true, "!=": true, ">": true, "<": true, ">=": true, "<=": true,
	"LIKE": true, "IN": true,
}

// Aggregate functions accepted by grouped reads and column aggregation.
var allowedAggregates = map[string]bool{
	"SUM": true, "AVG": true, "COUNT": true, "MIN": true, "MAX": true,
	"STDDEV": true, "VAR": true,
}

func normalizeOperator(op string) (string, error) {
	upper := strings.ToUpper(strings.TrimSpace(op))
	if !allowedOperators[upper] {
		return "", engine.Errorf(engine.KindInvalidArgument, "Unsupported operator: %s", op)
	}
	return upper, nil
}

func normalizeAggregate(fn string) (string, error) {
	upper := strings.ToUpper(strings.TrimSpace(fn))
	if !allowedAggregates[upper] {
		return "", engine.Errorf(engine.KindInvalidArgument, "Unsupported aggregation function: %s", fn)
	}
	return upper, nil
}

// buildCondition renders one condition with bound placeholders.
func buildCondition(c FilterCondition) (string, []any, error) {
	ident, err := engine.QuoteIdentifier(c.Column)
	if err != nil {
		return "", nil, err
	}
	op, err := normalizeOperator(c.Operator)
	if err != nil {
		return "", nil, err
	}

	if op == "IN" {
		if c.Value.Type != engine.TypeArray {
			return "", nil, engine.Errorf(engine.KindInvalidArgument, "IN requires an array value")
		}
		if len(c.Value.Arr) == 0 {
			// An empty candidate list matches nothing.
			return "FALSE", nil, nil
		}
		placeholders := make([]string, len(c.Value.Arr))
		args := make([]any, len(c.Value.Arr))
		for i, elem := range c.Value.Arr {
			placeholders[i] = "?"
			args[i] = elem.Bind()
		}
		return ident + " IN (" + strings.Join(placeholders, ", ") + ")", args, nil
	}

	// Null binds as SQL NULL: comparisons against it match nothing,
	// the same as the literal form.
	return ident + " " + op + " ?", []any{c.Value.Bind()}, nil
}

// buildWhere renders a conjunction of conditions with bound placeholders.
// The clause comes back empty when there are no conditions.
func buildWhere(conditions []FilterCondition) (string, []any, error) {
	if len(conditions) == 0 {
		return "", nil, nil
	}
	clauses := make([]string, 0, len(conditions))
	var args []any
	for _, c := range conditions {
		clause, cArgs, err := buildCondition(c)
		if err != nil {
			return "", nil, err
		}
		clauses = append(clauses, clause)
		args = append(args, cArgs...)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

// buildWhereLiteral renders the same conjunction with inlined literals.
// View bodies need this form because a view cannot hold bound parameters.
func buildWhereLiteral(conditions []FilterCondition) (string, error) {
	if len(conditions) == 0 {
		return "", nil
	}
	clauses := make([]string, 0, len(conditions))
	for _, c := range conditions {
		ident, err := engine.QuoteIdentifier(c.Column)
		if err != nil {
			return "", err
		}
		op, err := normalizeOperator(c.Operator)
		if err != nil {
			return "", err
		}
		if op == "IN" {
			if c.Value.Type != engine.TypeArray {
				return "", engine.Errorf(engine.KindInvalidArgument, "IN requires an array value")
			}
			if len(c.Value.Arr) == 0 {
				clauses = append(clauses, "FALSE")
				continue
			}
		}
		clauses = append(clauses, ident+" "+op+" "+engine.QuoteLiteral(c.Value))
	}
	return " WHERE " + strings.Join(clauses, " AND "), nil
}

// FilterData reads a bounded window of the rows satisfying every
// condition. Values are bound as parameters, never inlined.
func (s *Session) FilterData(ctx context.Context, table string, conditions []FilterCondition, limit, offset int) (*QueryResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ident, err := engine.QuoteIdentifier(table)
	if err != nil {
		return nil, err
	}
	where, args, err := buildWhere(conditions)
	if err != nil {
		return nil, err
	}
	if limit < 0 {
		limit = DefaultQueryLimit
	}
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf("SELECT * FROM %s%s LIMIT ? OFFSET ?", ident, where)
	args = append(args, limit, offset)

	result, err := s.collectRows(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("Filter error: %w", err)
	}
	return result, nil
}

// CreateFilteredView materialises the conditions as a named view over
// the source table and returns the view's sanitised name.
func (s *Session) CreateFilteredView(ctx context.Context, sourceTable, viewName string, conditions []FilterCondition) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sourceIdent, err := engine.QuoteIdentifier(sourceTable)
	if err != nil {
		return "", err
	}
	name := engine.SanitizeTableName(viewName)
	viewIdent, err := engine.QuoteIdentifier(name)
	if err != nil {
		return "", err
	}
	where, err := buildWhereLiteral(conditions)
	if err != nil {
		return "", err
	}

	if err := s.handle.Execute(ctx, "DROP VIEW IF EXISTS "+viewIdent); err != nil {
		return "", fmt.Errorf("Failed to drop view: %w", err)
	}
	create := fmt.Sprintf("CREATE VIEW %s AS SELECT * FROM %s%s", viewIdent, sourceIdent, where)
	if err := s.handle.Execute(ctx, create); err != nil {
		return "", fmt.Errorf("Failed to create filtered view: %w", err)
	}

	s.log.Debug("filtered view created", "view", name, "source", sourceTable, "conditions", len(conditions))
	return name, nil
}

// GroupAndAggregate runs a grouped read. Group columns come first in the
// SELECT list, followed by one aggregate per spec.
func (s *Session) GroupAndAggregate(ctx context.Context, table string, groupBy []string, aggregations []AggregationSpec) (*QueryResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ident, err := engine.QuoteIdentifier(table)
	if err != nil {
		return nil, err
	}

	groupIdents := make([]string, 0, len(groupBy))
	for _, col := range groupBy {
		colIdent, err := engine.QuoteIdentifier(col)
		if err != nil {
			return nil, err
		}
		groupIdents = append(groupIdents, colIdent)
	}

	aggParts := make([]string, 0, len(aggregations))
	for _, agg := range aggregations {
		fn, err := normalizeAggregate(agg.Function)
		if err != nil {
			return nil, err
		}
		colIdent, err := engine.QuoteIdentifier(agg.Column)
		if err != nil {
			return nil, err
		}
		alias := agg.Alias
		if alias == "" {
			alias = strings.ToLower(fn) + "_" + agg.Column
		}
		aliasIdent, err := engine.QuoteIdentifier(alias)
		if err != nil {
			return nil, err
		}
		aggParts = append(aggParts, fmt.Sprintf("%s(%s) AS %s", fn, colIdent, aliasIdent))
	}

	selectList := strings.Join(aggParts, ", ")
	if len(groupIdents) > 0 {
		selectList = strings.Join(groupIdents, ", ") + ", " + selectList
	}

	query := fmt.Sprintf("SELECT %s FROM %s", selectList, ident)
	if len(groupIdents) > 0 {
		query += " GROUP BY " + strings.Join(groupIdents, ", ")
	}

	result, err := s.collectRows(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("Aggregation error: %w", err)
	}
	return result, nil
}
