package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"typewalk/internal/analyzer"
	"typewalk/internal/pytype"
)

func formatSummary(result analyzer.Result) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("typewalk: revision %d, %d files, %d classes, %d diagnostics (%s)\n",
		result.Revision, result.FileCount, result.ClassCount, len(result.Diagnostics), result.Duration.Round(time.Millisecond)))

	if len(result.Diagnostics) == 0 {
		return b.String()
	}

	diags := make([]pytype.Diagnostic, len(result.Diagnostics))
	copy(diags, result.Diagnostics)
	sort.Slice(diags, func(i, j int) bool {
		a, c := diags[i].Span, diags[j].Span
		if a.File != c.File {
			return a.File < c.File
		}
		if a.StartLine != c.StartLine {
			return a.StartLine < c.StartLine
		}
		return diags[i].Kind < diags[j].Kind
	})

	for _, d := range diags {
		b.WriteString(fmt.Sprintf("%s:%d:%d: %s: %s\n",
			d.Span.File, d.Span.StartLine, d.Span.StartCol, d.Kind, d.Message))
	}

	return b.String()
}

func describeClass(m *pytype.Model, name string) (string, error) {
	var lit *pytype.ClassLiteral
	for _, candidate := range m.Classes() {
		if candidate.Name == name {
			lit = candidate
			break
		}
	}
	if lit == nil {
		return "", fmt.Errorf("class %q not found", name)
	}

	ct := lit.AsClass()
	var b strings.Builder

	b.WriteString(fmt.Sprintf("class %s\n", name))
	b.WriteString("==============\n")

	mro, mroErr := m.TryMro(ct)
	b.WriteString("MRO:")
	for _, entry := range mro.Entries() {
		b.WriteString(" " + entry.String())
	}
	b.WriteString("\n")
	if mroErr != nil {
		b.WriteString(fmt.Sprintf("MRO error: %s\n", mroErr.Error()))
	}

	b.WriteString(fmt.Sprintf("Metaclass: %s\n", m.Metaclass(lit).String()))

	if m.IsProtocolClass(lit) {
		b.WriteString("Protocol: yes\n")
	}
	if solid, ok := m.NearestSolidBase(ct); ok {
		b.WriteString(fmt.Sprintf("Solid base: %s\n", solid.Class.Name))
	}

	if fields := m.Fields(ct); len(fields) > 0 {
		b.WriteString(fmt.Sprintf("Fields (%d)\n", len(fields)))
		for _, f := range fields {
			line := fmt.Sprintf("- %s: %s", f.Name, f.Type.String())
			if f.Default != nil {
				line += fmt.Sprintf(" = %s", f.Default.String())
			}
			if f.KeywordOnly {
				line += " (keyword-only)"
			}
			b.WriteString(line + "\n")
		}
	}

	if callable := m.IntoCallable(ct); callable != nil {
		b.WriteString(fmt.Sprintf("Constructor: %s\n", callable.String()))
	}

	return b.String(), nil
}
