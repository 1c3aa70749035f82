package pytype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMroDiamond(t *testing.T) {
	m := modelFor(t, `
class A: ...
class B(A): ...
class C(A): ...
class D(B, C): ...
`)
	d := classNamed(t, m, "D")

	mro, err := m.TryMro(d.AsClass())
	require.Nil(t, err)
	assert.Equal(t, []string{"D", "B", "C", "A", "object"}, mroNames(mro.Entries()))
}

func TestMroInconsistentOrder(t *testing.T) {
	m := modelFor(t, `
class X: ...
class Y: ...
class B(X, Y): ...
class C(Y, X): ...
class D(B, C): ...
`)
	d := classNamed(t, m, "D")

	_, err := m.TryMro(d.AsClass())
	require.NotNil(t, err)
	assert.Equal(t, MroInconsistent, err.Kind)

	// the fallback still starts with the class itself
	entries := m.IterMro(d.AsClass())
	require.NotEmpty(t, entries)
	assert.Equal(t, "D", entries[0].String())
	assert.Equal(t, "Unknown", entries[1].String())
}

func TestMroSelfCycle(t *testing.T) {
	m := modelFor(t, `
class C(C): ...
`)
	c := classNamed(t, m, "C")

	_, err := m.TryMro(c.AsClass())
	require.NotNil(t, err)
	assert.Equal(t, MroCycle, err.Kind)
	assert.Equal(t, CycleParticipant, m.InheritanceCycleOf(c))

	entries := m.IterMro(c.AsClass())
	assert.Equal(t, []string{"C", "Unknown"}, mroNames(entries))
}

func TestMroMutualCycle(t *testing.T) {
	m := modelFor(t, `
class A(B): ...
class B(A): ...
class Sub(A): ...
`)
	a := classNamed(t, m, "A")
	sub := classNamed(t, m, "Sub")

	_, err := m.TryMro(a.AsClass())
	require.NotNil(t, err)
	assert.Equal(t, MroCycle, err.Kind)

	assert.Equal(t, CycleParticipant, m.InheritanceCycleOf(a))
	assert.Equal(t, CycleInherited, m.InheritanceCycleOf(sub))
}

func TestMroDuplicateFree(t *testing.T) {
	m := modelFor(t, `
class A: ...
class B(A): ...
class C(B, A): ...
`)
	c := classNamed(t, m, "C")

	entries := m.IterMro(c.AsClass())
	seen := make(map[string]bool)
	for _, e := range entries {
		name := e.String()
		assert.False(t, seen[name], "duplicate MRO entry %s", name)
		seen[name] = true
	}
	assert.Equal(t, []string{"C", "B", "A", "object"}, mroNames(entries))
}

func TestMroDuplicateExplicitBaseRefused(t *testing.T) {
	m := modelFor(t, `
class A: ...
class B(A, A): ...
`)
	b := classNamed(t, m, "B")

	// the repeated base blocks itself through the local-precedence tail,
	// matching CPython's refusal of duplicate base classes
	_, err := m.TryMro(b.AsClass())
	require.NotNil(t, err)
	assert.Equal(t, MroInconsistent, err.Kind)
}

func TestMroIdempotent(t *testing.T) {
	m := modelFor(t, `
class A: ...
class B(A): ...
`)
	b := classNamed(t, m, "B")

	first, err1 := m.TryMro(b.AsClass())
	second, err2 := m.TryMro(b.AsClass())
	assert.Equal(t, err1, err2)
	assert.Equal(t, mroNames(first.Entries()), mroNames(second.Entries()))
}

func TestMroProtocolMarkerRetained(t *testing.T) {
	m := modelFor(t, `
class P(Protocol):
    def m(self): ...
`)
	p := classNamed(t, m, "P")

	names := mroNames(m.IterMro(p.AsClass()))
	assert.Contains(t, names, "Protocol")
	assert.Equal(t, "P", names[0])
	assert.Equal(t, "object", names[len(names)-1])
}

func TestMroDynamicBase(t *testing.T) {
	m := modelFor(t, `
class C(unresolvable_import): ...
`)
	c := classNamed(t, m, "C")

	mro, err := m.TryMro(c.AsClass())
	require.Nil(t, err)
	names := mroNames(mro.Entries())
	assert.Equal(t, []string{"C", "Unknown", "object"}, names)
}

func TestIsSubclassOf(t *testing.T) {
	m := modelFor(t, `
class A: ...
class B(A): ...
class C: ...
`)
	a := classNamed(t, m, "A").AsClass()
	b := classNamed(t, m, "B").AsClass()
	c := classNamed(t, m, "C").AsClass()

	assert.True(t, m.IsSubclassOf(b, a))
	assert.False(t, m.IsSubclassOf(a, b))
	assert.False(t, m.IsSubclassOf(b, c))
	assert.True(t, m.IsSubclassOf(b, m.KnownClass(KnownObject)))
	assert.True(t, m.IsSubclassOf(m.KnownClass(KnownBool), m.KnownClass(KnownInt)))
}
