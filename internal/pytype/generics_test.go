package pytype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLegacyGenericContext(t *testing.T) {
	m := modelFor(t, `
T = TypeVar("T")
U = TypeVar("U")

class Pair(Generic[T, U]):
    first: T
    second: U
`)
	pair := classNamed(t, m, "Pair")

	ctx := m.GenericContextOf(pair)
	require.NotNil(t, ctx)
	assert.Equal(t, SourceLegacyBase, ctx.Source)
	require.Equal(t, 2, ctx.Len())
	assert.Equal(t, "T", ctx.Vars[0].Name)
	assert.Equal(t, "U", ctx.Vars[1].Name)
}

func TestSyntacticContextWinsWithDiagnostic(t *testing.T) {
	m := modelFor(t, `
T = TypeVar("T")

class C[U](Generic[T]): ...
`)
	c := classNamed(t, m, "C")

	ctx := m.GenericContextOf(c)
	require.NotNil(t, ctx)
	assert.Equal(t, SourceSyntactic, ctx.Source)
	require.Equal(t, 1, ctx.Len())
	assert.Equal(t, "U", ctx.Vars[0].Name)

	kinds := make(map[string]bool)
	for _, d := range m.Diagnostics() {
		kinds[d.Kind] = true
	}
	assert.True(t, kinds["generic-context-conflict"])
}

func TestInferredContextFromSpecializedBase(t *testing.T) {
	m := modelFor(t, `
T = TypeVar("T")

class Box(Generic[T]): ...
class Wrapper(Box[T]): ...
`)
	wrapper := classNamed(t, m, "Wrapper")

	ctx := m.GenericContextOf(wrapper)
	require.NotNil(t, ctx)
	assert.Equal(t, SourceInferred, ctx.Source)
	require.Equal(t, 1, ctx.Len())
	assert.Equal(t, "T", ctx.Vars[0].Name)
}

func TestNonGenericHasNoContext(t *testing.T) {
	m := modelFor(t, `
class Plain: ...
`)
	assert.Nil(t, m.GenericContextOf(classNamed(t, m, "Plain")))
}

func TestDefaultSpecializationRoundTrip(t *testing.T) {
	m := modelFor(t, `
T = TypeVar("T")

class Box(Generic[T]): ...
`)
	box := classNamed(t, m, "Box")

	ct := box.AsClass()
	require.True(t, ct.IsGeneric())
	spec := ct.Specialization()
	require.NotNil(t, spec)

	defaults := m.GenericContextOf(box).DefaultSpecialization()
	assert.True(t, spec.EquivalentTo(defaults))
}

func TestAliasInterning(t *testing.T) {
	m := modelFor(t, `
T = TypeVar("T")

class Box(Generic[T]): ...
`)
	box := classNamed(t, m, "Box")
	ctx := m.GenericContextOf(box)
	intInst := InstanceOf(m.KnownClass(KnownInt))

	a := m.internAlias(box, ctx.Specialize([]Type{intInst}))
	b := m.internAlias(box, ctx.Specialize([]Type{intInst}))
	assert.True(t, a.Equals(b))
	assert.Same(t, a.Alias(), b.Alias())

	c := m.internAlias(box, ctx.Specialize([]Type{InstanceOf(m.KnownClass(KnownStr))}))
	assert.False(t, a.Equals(c))
}

func TestSpecializationThroughMro(t *testing.T) {
	m := modelFor(t, `
T = TypeVar("T")

class Box(Generic[T]):
    item: T

class IntBox(Box[int]): ...
`)
	intBox := classNamed(t, m, "IntBox").AsClass()

	place := m.ClassMember(intBox, "item", PolicyDefault)
	require.False(t, place.IsUnbound())
	assert.Equal(t, "int", place.Type.String())
}

func TestUnknownSpecialization(t *testing.T) {
	m := modelFor(t, `
T = TypeVar("T")

class Box(Generic[T]): ...
`)
	box := classNamed(t, m, "Box")

	ct := box.AsUnknownClass()
	require.True(t, ct.IsGeneric())
	for _, arg := range ct.Specialization().Args {
		assert.Equal(t, Unknown, arg)
	}
}

func TestTypeVarVariance(t *testing.T) {
	m := modelFor(t, `
T_co = TypeVar("T_co", covariant=True)
T_contra = TypeVar("T_contra", contravariant=True)

class Producer(Generic[T_co]): ...
class Consumer(Generic[T_contra]): ...
`)
	producer := m.GenericContextOf(classNamed(t, m, "Producer"))
	consumer := m.GenericContextOf(classNamed(t, m, "Consumer"))
	require.NotNil(t, producer)
	require.NotNil(t, consumer)

	assert.Equal(t, Covariant, producer.Vars[0].Variance)
	assert.Equal(t, Contravariant, consumer.Vars[0].Variance)
}

func TestVarianceRelation(t *testing.T) {
	m := modelFor(t, `
T_co = TypeVar("T_co", covariant=True)
T_inv = TypeVar("T_inv")

class Producer(Generic[T_co]): ...
class Cell(Generic[T_inv]): ...
`)
	producer := classNamed(t, m, "Producer")
	cell := classNamed(t, m, "Cell")
	pctx := m.GenericContextOf(producer)
	cctx := m.GenericContextOf(cell)

	boolInst := InstanceOf(m.KnownClass(KnownBool))
	intInst := InstanceOf(m.KnownClass(KnownInt))

	pBool := InstanceOf(m.internAlias(producer, pctx.Specialize([]Type{boolInst})))
	pInt := InstanceOf(m.internAlias(producer, pctx.Specialize([]Type{intInst})))
	assert.True(t, m.AssignableTo(pBool, pInt))
	assert.False(t, m.AssignableTo(pInt, pBool))

	cBool := InstanceOf(m.internAlias(cell, cctx.Specialize([]Type{boolInst})))
	cInt := InstanceOf(m.internAlias(cell, cctx.Specialize([]Type{intInst})))
	assert.False(t, m.AssignableTo(cBool, cInt))
	assert.True(t, m.AssignableTo(cBool, cBool))
}

func TestDifferentOriginsNeverRelated(t *testing.T) {
	m := modelFor(t, `
T = TypeVar("T")

class Box(Generic[T]): ...
class Crate(Generic[T]): ...
`)
	box := classNamed(t, m, "Box")
	crate := classNamed(t, m, "Crate")
	intInst := InstanceOf(m.KnownClass(KnownInt))

	a := InstanceOf(m.internAlias(box, m.GenericContextOf(box).Specialize([]Type{intInst})))
	b := InstanceOf(m.internAlias(crate, m.GenericContextOf(crate).Specialize([]Type{intInst})))
	assert.False(t, m.AssignableTo(a, b))
}

func TestApplyTypeMapping(t *testing.T) {
	m := modelFor(t, `
T = TypeVar("T")

class Box(Generic[T]): ...
`)
	box := classNamed(t, m, "Box")
	ctx := m.GenericContextOf(box)
	intInst := InstanceOf(m.KnownClass(KnownInt))
	spec := ctx.Specialize([]Type{intInst})

	mapped := spec.ApplyTypeMapping(&TypeVarType{Var: ctx.Vars[0]})
	assert.True(t, mapped.Equals(intInst))

	// variables from other contexts pass through untouched
	other := &TypeVar{Name: "X"}
	passthrough := spec.ApplyTypeMapping(&TypeVarType{Var: other})
	assert.Equal(t, "X", passthrough.String())
}

func TestMaterializeWidensCovariant(t *testing.T) {
	m := modelFor(t, `
T_co = TypeVar("T_co", covariant=True)

class Producer(Generic[T_co]): ...
`)
	producer := classNamed(t, m, "Producer")
	ctx := m.GenericContextOf(producer)

	spec := ctx.Specialize([]Type{IntLiteral(3)})
	mat := m.Materialize(spec)
	assert.Equal(t, "int", mat.Args[0].String())
}

func TestPep695Bound(t *testing.T) {
	m := modelFor(t, `
class C[T: int, U]: ...
`)
	c := classNamed(t, m, "C")

	ctx := m.GenericContextOf(c)
	require.NotNil(t, ctx)
	require.Equal(t, 2, ctx.Len())
	assert.Equal(t, "T", ctx.Vars[0].Name)
	require.NotNil(t, ctx.Vars[0].Bound)
	assert.Equal(t, "int", ctx.Vars[0].Bound.String())
	assert.Nil(t, ctx.Vars[1].Bound)

	defaults := ctx.DefaultSpecialization()
	assert.Equal(t, Unknown, defaults.Args[0])
	assert.Equal(t, Unknown, defaults.Args[1])
}
