package pytype

import (
	"testing"

	"github.com/stretchr/testify/require"

	"typewalk/internal/config"
	"typewalk/internal/semantic"
	"typewalk/internal/syntax"
)

func modelFor(t *testing.T, src string) *Model {
	t.Helper()
	mod, err := syntax.NewParser().ParseFile("test.py", []byte(src))
	require.NoError(t, err)
	m := NewModel(config.PythonVersion{Major: 3, Minor: 13})
	m.AddModule(semantic.Build(mod))
	return m
}

func classNamed(t *testing.T, m *Model, name string) *ClassLiteral {
	t.Helper()
	for _, lit := range m.Classes() {
		if lit.Name == name {
			return lit
		}
	}
	t.Fatalf("class %s not found", name)
	return nil
}

func mroNames(entries []ClassBase) []string {
	out := make([]string, len(entries))
	for i, b := range entries {
		out[i] = b.String()
	}
	return out
}
