package history

import (
	"typewalk/internal/pytype"
)

// DiagnosticRows converts model findings to persistable rows. The run ID is
// filled in by SaveRun.
func DiagnosticRows(diags []pytype.Diagnostic) []Diagnostic {
	rows := make([]Diagnostic, 0, len(diags))
	for _, d := range diags {
		rows = append(rows, Diagnostic{
			Kind:    d.Kind,
			Message: d.Message,
			File:    d.Span.File,
			Line:    d.Span.StartLine,
			Col:     d.Span.StartCol,
		})
	}
	return rows
}
