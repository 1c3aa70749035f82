package pytype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataclassFields(t *testing.T) {
	m := modelFor(t, `
@dataclass
class Point:
    x: int
    y: int = 0
`)
	point := classNamed(t, m, "Point").AsClass()

	fields := m.Fields(point)
	require.Len(t, fields, 2)

	assert.Equal(t, "x", fields[0].Name)
	assert.Equal(t, "int", fields[0].Type.String())
	assert.Nil(t, fields[0].Default)

	assert.Equal(t, "y", fields[1].Name)
	assert.Equal(t, "int", fields[1].Type.String())
	require.NotNil(t, fields[1].Default)
	assert.True(t, fields[1].Default.Equals(IntLiteral(0)))
}

func TestDataclassConstructor(t *testing.T) {
	m := modelFor(t, `
@dataclass
class Point:
    x: int
    y: int = 0
`)
	point := classNamed(t, m, "Point").AsClass()

	place := m.ClassMember(point, "__init__", SkipObjectBase)
	require.Equal(t, DefinitelyBound, place.Boundness)
	call, ok := place.Type.(*CallableType)
	require.True(t, ok)
	require.Len(t, call.Signatures, 1)

	sig := call.Signatures[0]
	require.Len(t, sig.Params, 3)
	assert.Equal(t, "self", sig.Params[0].Name)
	assert.Equal(t, "x", sig.Params[1].Name)
	assert.Equal(t, "int", sig.Params[1].Type.String())
	assert.Nil(t, sig.Params[1].Default)
	assert.Equal(t, "y", sig.Params[2].Name)
	assert.NotNil(t, sig.Params[2].Default)
	assert.True(t, sig.Return.Equals(NoneValue))
}

func TestDataclassFieldInheritanceOverride(t *testing.T) {
	m := modelFor(t, `
@dataclass
class Base:
    x: int
    y: int
@dataclass
class Sub(Base):
    y: str = "s"
    z: int = 0
`)
	sub := classNamed(t, m, "Sub").AsClass()

	fields := m.Fields(sub)
	require.Len(t, fields, 3)
	// base-first order, the override stays in the base position
	assert.Equal(t, "x", fields[0].Name)
	assert.Equal(t, "y", fields[1].Name)
	assert.Equal(t, "str", fields[1].Type.String())
	assert.Equal(t, "z", fields[2].Name)
}

func TestDataclassKwOnlyMarker(t *testing.T) {
	m := modelFor(t, `
@dataclass
class C:
    a: int
    _: KW_ONLY
    b: int
`)
	c := classNamed(t, m, "C").AsClass()

	fields := m.Fields(c)
	require.Len(t, fields, 2)
	assert.Equal(t, "a", fields[0].Name)
	assert.False(t, fields[0].KeywordOnly)
	assert.Equal(t, "b", fields[1].Name)
	assert.True(t, fields[1].KeywordOnly)
}

func TestDataclassClassVarExcluded(t *testing.T) {
	m := modelFor(t, `
@dataclass
class C:
    shared: ClassVar[int] = 0
    own: int = 1
`)
	c := classNamed(t, m, "C").AsClass()

	fields := m.Fields(c)
	require.Len(t, fields, 1)
	assert.Equal(t, "own", fields[0].Name)
}

func TestDataclassOrderingOperators(t *testing.T) {
	m := modelFor(t, `
@dataclass(order=True)
class Ordered:
    v: int
@dataclass
class Plain:
    v: int
`)
	ordered := classNamed(t, m, "Ordered").AsClass()
	plain := classNamed(t, m, "Plain").AsClass()

	for _, op := range []string{"__lt__", "__le__", "__gt__", "__ge__"} {
		place := m.OwnClassMember(ordered, op)
		require.False(t, place.IsUnbound(), op)
		call, ok := place.Type.(*CallableType)
		require.True(t, ok, op)
		sig := call.Signatures[0]
		require.Len(t, sig.Params, 2)
		assert.True(t, sig.Params[0].Type.Equals(sig.Params[1].Type), op)
		assert.Equal(t, "bool", sig.Return.String(), op)

		assert.True(t, m.OwnClassMember(plain, op).IsUnbound(), op)
	}

	// eq defaults on for both
	assert.False(t, m.OwnClassMember(plain, "__eq__").IsUnbound())
}

func TestDataclassInitDisabled(t *testing.T) {
	m := modelFor(t, `
@dataclass(init=False)
class C:
    x: int
`)
	c := classNamed(t, m, "C").AsClass()

	assert.True(t, m.OwnClassMember(c, "__init__").IsUnbound())
	// fields are still observable
	assert.Len(t, m.Fields(c), 1)
}

func TestNamedTupleOwnFieldsOnly(t *testing.T) {
	m := modelFor(t, `
class Pt(NamedTuple):
    x: int
    y: int = 0
class Child(Pt):
    z: int = 1
`)
	pt := classNamed(t, m, "Pt").AsClass()

	fields := m.Fields(pt)
	require.Len(t, fields, 2)
	assert.Equal(t, "x", fields[0].Name)
	assert.Equal(t, "y", fields[1].Name)

	place := m.OwnClassMember(pt, "__new__")
	require.False(t, place.IsUnbound())
	call, ok := place.Type.(*CallableType)
	require.True(t, ok)
	sig := call.Signatures[0]
	require.Len(t, sig.Params, 3)
	assert.Equal(t, "cls", sig.Params[0].Name)
	inst, ok := sig.Return.(*InstanceType)
	require.True(t, ok)
	assert.Equal(t, "Pt", inst.Class.Name())
}

func TestNamedTupleInheritedRecordMembers(t *testing.T) {
	m := modelFor(t, `
class Point(NamedTuple):
    x: int
    y: int
`)
	point := classNamed(t, m, "Point").AsClass()

	replace := m.InstanceMember(point, "_replace")
	require.Equal(t, DefinitelyBound, replace.Boundness)
	_, ok := replace.Type.(*CallableType)
	assert.True(t, ok)

	fields := m.InstanceMember(point, "_fields")
	require.Equal(t, DefinitelyBound, fields.Boundness)
	assert.Equal(t, "tuple", fields.Type.String())

	asdict := m.InstanceMember(point, "_asdict")
	require.Equal(t, DefinitelyBound, asdict.Boundness)

	mk := m.ClassMember(point, "_make", PolicyDefault)
	require.Equal(t, DefinitelyBound, mk.Boundness)
}

func TestDescriptorField(t *testing.T) {
	m := modelFor(t, `
class Converter:
    def __set__(self, instance, value: str) -> None: ...
    def __get__(self, instance, owner) -> int: ...

@dataclass
class C:
    field: Converter = Converter()
`)
	c := classNamed(t, m, "C").AsClass()

	fields := m.Fields(c)
	require.Len(t, fields, 1)
	// the parameter takes what __set__ accepts
	assert.Equal(t, "str", fields[0].Type.String())
	// the default comes from simulating __get__
	require.NotNil(t, fields[0].Default)
	assert.Equal(t, "int", fields[0].Default.String())
}

func TestGenericDataclassFieldsSpecialized(t *testing.T) {
	m := modelFor(t, `
T = TypeVar("T")

@dataclass
class Box(Generic[T]):
    item: T
`)
	box := classNamed(t, m, "Box")
	ctx := m.GenericContextOf(box)
	require.NotNil(t, ctx)

	specialized := m.internAlias(box, ctx.Specialize([]Type{InstanceOf(m.KnownClass(KnownInt))}))
	fields := m.Fields(specialized)
	require.Len(t, fields, 1)
	assert.Equal(t, "int", fields[0].Type.String())
}
