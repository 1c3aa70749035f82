package history

import (
	"testing"

	"typewalk/internal/pytype"
	"typewalk/internal/syntax"
)

func TestDiagnosticRows(t *testing.T) {
	rows := DiagnosticRows([]pytype.Diagnostic{
		{
			Kind:    "duplicate-base",
			Message: "duplicate base class B",
			Span:    syntax.Span{File: "pkg/a.py", StartLine: 3, StartCol: 7, EndLine: 3, EndCol: 8},
		},
	})
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	got := rows[0]
	if got.Kind != "duplicate-base" || got.File != "pkg/a.py" || got.Line != 3 || got.Col != 7 {
		t.Fatalf("unexpected row: %+v", got)
	}
	if got.RunID != "" {
		t.Fatalf("run id should be unset before save, got %q", got.RunID)
	}
}
