package pytype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetaclassDefault(t *testing.T) {
	m := modelFor(t, `
class A: ...
`)
	a := classNamed(t, m, "A")

	meta, ok := m.Metaclass(a).(ClassType)
	require.True(t, ok)
	assert.True(t, meta.IsKnown(KnownType))
}

func TestMetaclassExplicitKeyword(t *testing.T) {
	m := modelFor(t, `
class M(type): ...
class A(metaclass=M): ...
`)
	a := classNamed(t, m, "A")

	meta, params, err := m.TryMetaclass(a)
	require.Nil(t, err)
	assert.Nil(t, params)
	ct, ok := meta.(ClassType)
	require.True(t, ok)
	assert.Equal(t, "M", ct.Name())
}

func TestMetaclassInheritedFromBase(t *testing.T) {
	m := modelFor(t, `
class M(type): ...
class A(metaclass=M): ...
class B(A): ...
`)
	b := classNamed(t, m, "B")

	ct, ok := m.Metaclass(b).(ClassType)
	require.True(t, ok)
	assert.Equal(t, "M", ct.Name())
}

func TestMetaclassMostDerivedWins(t *testing.T) {
	m := modelFor(t, `
class M(type): ...
class M2(M): ...
class A(metaclass=M): ...
class B(metaclass=M2): ...
class C(A, B): ...
`)
	c := classNamed(t, m, "C")

	meta, _, err := m.TryMetaclass(c)
	require.Nil(t, err)
	ct, ok := meta.(ClassType)
	require.True(t, ok)
	assert.Equal(t, "M2", ct.Name())
}

func TestMetaclassConflictDetected(t *testing.T) {
	m := modelFor(t, `
class M1(type): ...
class M2(type): ...
class A(metaclass=M1): ...
class B(metaclass=M2): ...
class C(A, B): ...
`)
	c := classNamed(t, m, "C")

	meta, _, err := m.TryMetaclass(c)
	require.NotNil(t, err)
	assert.Equal(t, MetaclassConflict, err.Kind)
	assert.Equal(t, "M1", err.Candidate.Name())
	assert.Equal(t, "M2", err.Conflicting.Name())
	assert.Equal(t, Unknown, meta)

	kinds := make(map[string]bool)
	for _, d := range m.Diagnostics() {
		kinds[d.Kind] = true
	}
	assert.True(t, kinds["metaclass-conflict"])
}

func TestMetaclassReconciliationCommutative(t *testing.T) {
	build := func(order string) Type {
		m := modelFor(t, `
class M(type): ...
class M2(M): ...
class A(metaclass=M): ...
class B(metaclass=M2): ...
class C(`+order+`): ...
`)
		return m.Metaclass(classNamed(t, m, "C"))
	}

	first, ok := build("A, B").(ClassType)
	require.True(t, ok)
	second, ok := build("B, A").(ClassType)
	require.True(t, ok)
	assert.Equal(t, "M2", first.Name())
	assert.Equal(t, "M2", second.Name())
}

func TestMetaclassCycleShortCircuits(t *testing.T) {
	m := modelFor(t, `
class C(C): ...
`)
	c := classNamed(t, m, "C")

	meta, _, err := m.TryMetaclass(c)
	require.NotNil(t, err)
	assert.Equal(t, MetaclassCycle, err.Kind)
	assert.Equal(t, Unknown, meta)
}

func TestMetaclassInstanceType(t *testing.T) {
	m := modelFor(t, `
class M(type): ...
class A(metaclass=M): ...
`)
	a := classNamed(t, m, "A")

	inst, ok := m.MetaclassInstanceType(a).(*InstanceType)
	require.True(t, ok)
	assert.Equal(t, "M", inst.Class.Name())
}

func TestMetaclassTransformerParams(t *testing.T) {
	m := modelFor(t, `
@dataclass_transform(order_default=True)
class Meta(type): ...
class Model(metaclass=Meta):
    x: int
`)
	model := classNamed(t, m, "Model")

	_, params, err := m.TryMetaclass(model)
	require.Nil(t, err)
	require.NotNil(t, params)
	assert.True(t, params.Order)
	assert.True(t, params.Eq)
}
