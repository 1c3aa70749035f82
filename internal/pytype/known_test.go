package pytype

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"typewalk/internal/config"
	"typewalk/internal/semantic"
	"typewalk/internal/syntax"
)

func stubModel(t *testing.T, version config.PythonVersion, module, src string) *Model {
	t.Helper()
	mod, err := syntax.NewParser().ParseFile(module+".pyi", []byte(src))
	require.NoError(t, err)
	m := NewModel(version)
	m.SetStdlibModule(module, semantic.Build(mod))
	return m
}

func resetKnownWarning(k KnownClass) {
	knownWarnMu.Lock()
	delete(knownWarnSeen, k.Module()+"."+k.DisplayName())
	knownWarnMu.Unlock()
}

func TestStdlibStubProvidesKnownClass(t *testing.T) {
	m := stubModel(t, config.PythonVersion{Major: 3, Minor: 13}, "builtins", `
class int: ...
`)
	lit := m.KnownClass(KnownInt).Literal()
	require.NotNil(t, lit)
	require.NotNil(t, lit.Def)
	assert.Equal(t, KnownInt, lit.Known)
	// the registry tag is present from the moment the stub is indexed
	assert.Equal(t, KnownInt, classNamed(t, m, "int").Known)
}

func TestStdlibStubMissingSymbolFallsBack(t *testing.T) {
	m := stubModel(t, config.PythonVersion{Major: 3, Minor: 13}, "builtins", `
class int: ...
`)
	lit := m.KnownClass(KnownStr).Literal()
	require.NotNil(t, lit)
	assert.Nil(t, lit.Def)
	assert.Equal(t, "str", lit.Name)
	assert.Equal(t, KnownStr, lit.Known)
}

func TestStdlibStubNonClassSymbolFallsBack(t *testing.T) {
	m := stubModel(t, config.PythonVersion{Major: 3, Minor: 13}, "builtins", `
str = 1
`)
	lit := m.KnownClass(KnownStr).Literal()
	require.NotNil(t, lit)
	assert.Nil(t, lit.Def)
	assert.Equal(t, KnownStr, lit.Known)
}

func TestStdlibStubPossiblyUnboundClassStillUsed(t *testing.T) {
	m := stubModel(t, config.PythonVersion{Major: 3, Minor: 13}, "builtins", `
if flag:
    class float: ...
`)
	lit := m.KnownClass(KnownFloat).Literal()
	require.NotNil(t, lit)
	// non-fatal: the conditionally bound class is still preferred over
	// the synthetic stand-in
	assert.NotNil(t, lit.Def)
	assert.Equal(t, KnownFloat, lit.Known)
}

func TestKnownClassVersionGate(t *testing.T) {
	m := stubModel(t, config.PythonVersion{Major: 3, Minor: 9}, "types", `
class EllipsisType: ...
`)
	lit := m.KnownClass(KnownEllipsisType).Literal()
	require.NotNil(t, lit)
	// the class does not exist at 3.9, so the synthetic stand-in wins
	assert.Nil(t, lit.Def)
	// and the stub's definition stays untagged
	assert.Equal(t, KnownNone, classNamed(t, m, "EllipsisType").Known)
}

func TestKnownClassWarnsOncePerClass(t *testing.T) {
	resetKnownWarning(KnownStr)
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	src := "class int: ...\n"
	for i := 0; i < 2; i++ {
		m := stubModel(t, config.PythonVersion{Major: 3, Minor: 13}, "builtins", src)
		require.NotNil(t, m.KnownClass(KnownStr).Literal())
	}

	assert.Equal(t, 1, strings.Count(buf.String(), "builtins.str"))
}
