package session

import (
	"context"
	"strings"
	"testing"

	"github.com/Beekeepers-Inc/rats/internal/engine"
)

// ============================================================================
// Bound Condition Building Tests
// ============================================================================

func TestBuildWhere_Empty(t *testing.T) {
	clause, args, err := buildWhere(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clause != "" {
		t.Errorf("expected empty clause for no conditions, got %q", clause)
	}
	if args != nil {
		t.Errorf("expected nil args for no conditions, got %v", args)
	}
}

func TestBuildWhere_SingleCondition(t *testing.T) {
	clause, args, err := buildWhere([]FilterCondition{
		{Column: "age", Operator: ">", Value: engine.NewInt(30)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := ` WHERE "age" > ?`
	if clause != expected {
		t.Errorf("expected %q, got %q", expected, clause)
	}
	if len(args) != 1 {
		t.Fatalf("expected 1 arg, got %d", len(args))
	}
	if args[0] != int64(30) {
		t.Errorf("expected arg 30, got %v", args[0])
	}
}

func TestBuildWhere_MultipleConditions(t *testing.T) {
	clause, args, err := buildWhere([]FilterCondition{
		{Column: "age", Operator: ">=", Value: engine.NewInt(18)},
		{Column: "city", Operator: "=", Value: engine.NewText("Oslo")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := ` WHERE "age" >= ? AND "city" = ?`
	if clause != expected {
		t.Errorf("expected %q, got %q", expected, clause)
	}
	if len(args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(args))
	}
	if args[0] != int64(18) || args[1] != "Oslo" {
		t.Errorf("expected args [18 Oslo], got %v", args)
	}
}

func TestBuildWhere_INExpandsPlaceholders(t *testing.T) {
	clause, args, err := buildWhere([]FilterCondition{
		{Column: "city", Operator: "IN", Value: engine.NewArray([]engine.Value{
			engine.NewText("Oslo"),
			engine.NewText("Bergen"),
			engine.NewInt(7),
		})},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := ` WHERE "city" IN (?, ?, ?)`
	if clause != expected {
		t.Errorf("expected %q, got %q", expected, clause)
	}
	if len(args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(args))
	}
	if args[0] != "Oslo" || args[1] != "Bergen" || args[2] != int64(7) {
		t.Errorf("expected args [Oslo Bergen 7], got %v", args)
	}
}

func TestBuildWhere_EmptyINMatchesNothing(t *testing.T) {
	clause, args, err := buildWhere([]FilterCondition{
		{Column: "city", Operator: "IN", Value: engine.NewArray(nil)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := " WHERE FALSE"
	if clause != expected {
		t.Errorf("expected %q, got %q", expected, clause)
	}
	if len(args) != 0 {
		t.Errorf("expected no args, got %v", args)
	}
}

func TestBuildWhere_INRequiresArray(t *testing.T) {
	_, _, err := buildWhere([]FilterCondition{
		{Column: "city", Operator: "IN", Value: engine.NewText("Oslo")},
	})
	if err == nil {
		t.Fatal("expected error for scalar IN value")
	}
	if !strings.Contains(err.Error(), "IN requires an array value") {
		t.Errorf("unexpected message: %v", err)
	}
	if engine.KindOf(err) != engine.KindInvalidArgument {
		t.Errorf("expected invalid_argument kind, got %v", engine.KindOf(err))
	}
}

func TestBuildWhere_RejectsUnknownOperator(t *testing.T) {
	_, _, err := buildWhere([]FilterCondition{
		{Column: "age", Operator: "~", Value: engine.NewInt(1)},
	})
	if err == nil {
		t.Fatal("expected error for unknown operator")
	}
	if !strings.Contains(err.Error(), "Unsupported operator: ~") {
		t.Errorf("unexpected message: %v", err)
	}
	if engine.KindOf(err) != engine.KindInvalidArgument {
		t.Errorf("expected invalid_argument kind, got %v", engine.KindOf(err))
	}
}

func TestBuildWhere_OperatorCaseInsensitive(t *testing.T) {
	clause, _, err := buildWhere([]FilterCondition{
		{Column: "name", Operator: "like", Value: engine.NewText("A%")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := ` WHERE "name" LIKE ?`
	if clause != expected {
		t.Errorf("expected %q, got %q", expected, clause)
	}
}

func TestBuildWhere_NullBindsNil(t *testing.T) {
	clause, args, err := buildWhere([]FilterCondition{
		{Column: "note", Operator: "=", Value: engine.Null()},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := ` WHERE "note" = ?`
	if clause != expected {
		t.Errorf("expected %q, got %q", expected, clause)
	}
	if len(args) != 1 || args[0] != nil {
		t.Errorf("expected single nil arg, got %v", args)
	}
}

func TestBuildWhere_RejectsQuoteInColumn(t *testing.T) {
	_, _, err := buildWhere([]FilterCondition{
		{Column: `a"b`, Operator: "=", Value: engine.NewInt(1)},
	})
	if err == nil {
		t.Fatal("expected error for identifier containing a quote")
	}
	if engine.KindOf(err) != engine.KindInvalidArgument {
		t.Errorf("expected invalid_argument kind, got %v", engine.KindOf(err))
	}
}

// ============================================================================
// Literal Condition Building Tests (view bodies)
// ============================================================================

func TestBuildWhereLiteral_InlinesValues(t *testing.T) {
	clause, err := buildWhereLiteral([]FilterCondition{
		{Column: "name", Operator: "=", Value: engine.NewText("O'Brien")},
		{Column: "age", Operator: ">", Value: engine.NewInt(30)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := ` WHERE "name" = 'O''Brien' AND "age" > 30`
	if clause != expected {
		t.Errorf("expected %q, got %q", expected, clause)
	}
}

func TestBuildWhereLiteral_INList(t *testing.T) {
	clause, err := buildWhereLiteral([]FilterCondition{
		{Column: "n", Operator: "IN", Value: engine.NewArray([]engine.Value{
			engine.NewInt(1),
			engine.NewInt(2),
			engine.NewText("x"),
		})},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := ` WHERE "n" IN (1, 2, 'x')`
	if clause != expected {
		t.Errorf("expected %q, got %q", expected, clause)
	}
}

func TestBuildWhereLiteral_EmptyIN(t *testing.T) {
	clause, err := buildWhereLiteral([]FilterCondition{
		{Column: "n", Operator: "IN", Value: engine.NewArray(nil)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clause != " WHERE FALSE" {
		t.Errorf("expected FALSE clause, got %q", clause)
	}
}

func TestBuildWhereLiteral_Empty(t *testing.T) {
	clause, err := buildWhereLiteral(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clause != "" {
		t.Errorf("expected empty clause, got %q", clause)
	}
}

// ============================================================================
// Aggregate Validation Tests
// ============================================================================

func TestNormalizeAggregate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "sum", want: "SUM"},
		{in: "AVG", want: "AVG"},
		{in: "Count", want: "COUNT"},
		{in: "min", want: "MIN"},
		{in: "max", want: "MAX"},
		{in: "stddev", want: "STDDEV"},
		{in: "var", want: "VAR"},
		{in: "median", wantErr: true},
		{in: "DROP TABLE", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := normalizeAggregate(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				if !strings.Contains(err.Error(), "Unsupported aggregation function") {
					t.Errorf("unexpected message: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestGroupAndAggregate_RejectsUnknownFunction(t *testing.T) {
	s := New(nil, nil)

	_, err := s.GroupAndAggregate(context.Background(), "t", nil, []AggregationSpec{
		{Column: "x", Function: "EXPLODE"},
	})
	if err == nil {
		t.Fatal("expected error for unknown aggregation function")
	}
	if !strings.Contains(err.Error(), "Unsupported aggregation function: EXPLODE") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestFilterData_RejectsBadOperator(t *testing.T) {
	s := New(nil, nil)

	_, err := s.FilterData(context.Background(), "t", []FilterCondition{
		{Column: "a", Operator: "BETWEEN", Value: engine.NewInt(1)},
	}, 10, 0)
	if err == nil {
		t.Fatal("expected error for unsupported operator")
	}
	if !strings.Contains(err.Error(), "Unsupported operator: BETWEEN") {
		t.Errorf("unexpected message: %v", err)
	}
}
