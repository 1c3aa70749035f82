package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"typewalk/internal/syntax"
)

func buildSource(t *testing.T, src string) *Index {
	t.Helper()
	mod, err := syntax.NewParser().ParseFile("test.py", []byte(src))
	require.NoError(t, err)
	return Build(mod)
}

func TestBuildClassScope(t *testing.T) {
	idx := buildSource(t, `
class A:
    x: int = 1
    y = 2

    def m(self):
        pass
`)
	require.Len(t, idx.Classes(), 1)
	cd := idx.Classes()[0]

	scope := idx.ScopeOf(cd)
	require.NotNil(t, scope)
	assert.Equal(t, ClassScope, scope.Kind)
	assert.Equal(t, []string{"x", "y", "m"}, scope.Names())

	x := scope.Symbol("x")
	require.NotNil(t, x)
	require.Len(t, x.Declarations, 1)
	assert.NotNil(t, x.Annotation())
	assert.True(t, x.DefinitelyBound())

	m := scope.Symbol("m")
	require.NotNil(t, m)
	require.Len(t, m.Bindings, 1)
	assert.NotNil(t, m.Bindings[0].Func)
}

func TestConditionalBinding(t *testing.T) {
	idx := buildSource(t, `
class A:
    if cond:
        x = 1
    y = 2
`)
	scope := idx.ScopeOf(idx.Classes()[0])

	x := scope.Symbol("x")
	require.NotNil(t, x)
	assert.False(t, x.DefinitelyBound())
	assert.True(t, x.PossiblyUnbound())

	y := scope.Symbol("y")
	assert.True(t, y.DefinitelyBound())
}

func TestUnreachableBindingExcluded(t *testing.T) {
	idx := buildSource(t, `
class A:
    if False:
        x = 1
`)
	scope := idx.ScopeOf(idx.Classes()[0])
	x := scope.Symbol("x")
	require.NotNil(t, x)
	assert.False(t, x.DefinitelyBound())
	assert.False(t, x.PossiblyUnbound())
}

func TestConstantTrueBranchUnconditional(t *testing.T) {
	idx := buildSource(t, `
class A:
    if True:
        x = 1
`)
	scope := idx.ScopeOf(idx.Classes()[0])
	assert.True(t, scope.Symbol("x").DefinitelyBound())
}

func TestLookupSkipsClassScopeFromFunction(t *testing.T) {
	idx := buildSource(t, `
g = 1

class A:
    c = 2

    def m(self):
        pass
`)
	cd := idx.Classes()[0]
	classScope := idx.ScopeOf(cd)
	m := classScope.Symbol("m")
	fnScope := idx.ScopeOf(m.Bindings[0].Func)
	require.NotNil(t, fnScope)

	// class-level names are not visible from the method body
	sym, _ := fnScope.Lookup("c")
	assert.Nil(t, sym)

	sym, owner := fnScope.Lookup("g")
	require.NotNil(t, sym)
	assert.Equal(t, ModuleScope, owner.Kind)
}

func TestNestedClassesIndexed(t *testing.T) {
	idx := buildSource(t, `
class Outer:
    class Inner:
        pass
`)
	require.Len(t, idx.Classes(), 2)
	assert.Equal(t, "Outer", idx.Classes()[0].Name)
	assert.Equal(t, "Inner", idx.Classes()[1].Name)
}

func TestReachabilityAfterReturn(t *testing.T) {
	idx := buildSource(t, `
def f(self):
    self.a = 1
    return
    self.b = 2
`)
	scope := idx.ModuleScope
	f := scope.Symbol("f")
	require.NotNil(t, f)
	fn := f.Bindings[0].Func

	r := ComputeReachability(fn)
	require.Len(t, fn.Body, 3)
	assert.True(t, r.Reachable(fn.Body[0]))
	assert.True(t, r.Reachable(fn.Body[1]))
	assert.False(t, r.Reachable(fn.Body[2]))
}

func TestReachabilityBothBranchesReturn(t *testing.T) {
	idx := buildSource(t, `
def f(self):
    if c:
        return 1
    else:
        return 2
    self.x = 3
`)
	fn := idx.ModuleScope.Symbol("f").Bindings[0].Func
	r := ComputeReachability(fn)
	require.Len(t, fn.Body, 2)
	assert.False(t, r.Reachable(fn.Body[1]))
}
