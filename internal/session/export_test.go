package session

import (
	"context"
	"strings"
	"testing"

	"github.com/Beekeepers-Inc/rats/internal/engine"
)

// ============================================================================
// Workbook Cell Mapping Tests
// ============================================================================

func TestExcelCell(t *testing.T) {
	tests := []struct {
		name string
		in   engine.Value
		want any
	}{
		{name: "null leaves blank", in: engine.Null(), want: nil},
		{name: "bool", in: engine.NewBool(true), want: true},
		{name: "int", in: engine.NewInt(42), want: int64(42)},
		{name: "float", in: engine.NewFloat(3.5), want: 3.5},
		{name: "text", in: engine.NewText("hello"), want: "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := excelCell(tt.in)
			if got != tt.want {
				t.Errorf("expected %v (%T), got %v (%T)", tt.want, tt.want, got, got)
			}
		})
	}
}

// ============================================================================
// Export Identifier Validation Tests
// ============================================================================

func TestExportToCSV_RejectsBadIdentifier(t *testing.T) {
	s := New(nil, nil)

	_, err := s.ExportToCSV(context.Background(), `t"b`, "/tmp/out.csv", true)
	if err == nil {
		t.Fatal("expected error for identifier containing a quote")
	}
	if engine.KindOf(err) != engine.KindInvalidArgument {
		t.Errorf("expected invalid_argument kind, got %v", engine.KindOf(err))
	}
	if !strings.Contains(err.Error(), "Invalid identifier") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestExportToExcel_RejectsBadIdentifier(t *testing.T) {
	s := New(nil, nil)

	_, err := s.ExportToExcel(context.Background(), `t"b`, "/tmp/out.xlsx", "")
	if err == nil {
		t.Fatal("expected error for identifier containing a quote")
	}
	if engine.KindOf(err) != engine.KindInvalidArgument {
		t.Errorf("expected invalid_argument kind, got %v", engine.KindOf(err))
	}
}
