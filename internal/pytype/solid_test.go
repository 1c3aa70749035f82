package pytype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotsMakeSolidBase(t *testing.T) {
	m := modelFor(t, `
class S:
    __slots__ = ("a",)
class Empty:
    __slots__ = ()
class Dynamic:
    __slots__ = make_slots()
class Plain: ...
`)
	s := classNamed(t, m, "S")

	sb, ok := m.ownSolidBase(s)
	require.True(t, ok)
	assert.Equal(t, SolidBaseSlots, sb.Reason)
	assert.Equal(t, s, sb.Class)

	_, ok = m.ownSolidBase(classNamed(t, m, "Empty"))
	assert.False(t, ok)
	_, ok = m.ownSolidBase(classNamed(t, m, "Dynamic"))
	assert.False(t, ok)
	_, ok = m.ownSolidBase(classNamed(t, m, "Plain"))
	assert.False(t, ok)
}

func TestBuiltinSolidBase(t *testing.T) {
	m := modelFor(t, `
class MyInt(int): ...
`)
	myInt := classNamed(t, m, "MyInt").AsClass()

	sb, ok := m.NearestSolidBase(myInt)
	require.True(t, ok)
	assert.Equal(t, SolidBaseBuiltin, sb.Reason)
	assert.Equal(t, "int", sb.Class.Name)
}

func TestDisjointSlots(t *testing.T) {
	m := modelFor(t, `
class S:
    __slots__ = ("a",)
class T:
    __slots__ = ("b",)
class U: ...
class SubS(S): ...
`)
	s := classNamed(t, m, "S").AsClass()
	tc := classNamed(t, m, "T").AsClass()
	u := classNamed(t, m, "U").AsClass()
	subS := classNamed(t, m, "SubS").AsClass()

	assert.False(t, m.CouldCoexistInMroWith(s, tc))
	assert.True(t, m.CouldCoexistInMroWith(s, u))
	assert.True(t, m.CouldCoexistInMroWith(s, subS))
}

func TestDisjointBuiltins(t *testing.T) {
	m := modelFor(t, "")
	intC := m.KnownClass(KnownInt)
	strC := m.KnownClass(KnownStr)
	boolC := m.KnownClass(KnownBool)
	obj := m.KnownClass(KnownObject)

	assert.False(t, m.CouldCoexistInMroWith(intC, strC))
	assert.True(t, m.CouldCoexistInMroWith(boolC, intC))
	assert.True(t, m.CouldCoexistInMroWith(intC, obj))
}

func TestFinalClassShortCircuits(t *testing.T) {
	m := modelFor(t, `
@final
class Sealed: ...
class Other: ...
class Base: ...
class Derived(Base): ...
`)
	sealed := classNamed(t, m, "Sealed").AsClass()
	other := classNamed(t, m, "Other").AsClass()

	assert.True(t, m.IsFinalClass(sealed.Literal()))
	assert.False(t, m.CouldCoexistInMroWith(sealed, other))
	assert.True(t, m.CouldCoexistInMroWith(sealed, m.KnownClass(KnownObject)))
	assert.True(t, m.IsFinalClass(m.KnownClass(KnownBool).Literal()))
}

func TestMetaclassDisjointness(t *testing.T) {
	m := modelFor(t, `
class M1(type): ...
class M2(type): ...
class A(metaclass=M1): ...
class B(metaclass=M2): ...
class C(metaclass=M1): ...
class Plain: ...
`)
	a := classNamed(t, m, "A").AsClass()
	b := classNamed(t, m, "B").AsClass()
	c := classNamed(t, m, "C").AsClass()
	plain := classNamed(t, m, "Plain").AsClass()

	assert.False(t, m.CouldCoexistInMroWith(a, b))
	assert.True(t, m.CouldCoexistInMroWith(a, c))
	// type-equivalent metaclasses never disjoin
	assert.True(t, m.CouldCoexistInMroWith(a, plain))
}

func TestProtocolDetection(t *testing.T) {
	m := modelFor(t, `
class P(Protocol):
    def m(self): ...
class Mixin1: ...
class Mixin2: ...
class Mixin3: ...
class Valid(Mixin1, Mixin2, Protocol): ...
class TooEarly(Protocol, Mixin1, Mixin2, Mixin3): ...
class Plain: ...
`)
	assert.True(t, m.IsProtocolClass(classNamed(t, m, "P")))
	assert.True(t, m.IsProtocolClass(classNamed(t, m, "Valid")))
	assert.False(t, m.IsProtocolClass(classNamed(t, m, "TooEarly")))
	assert.False(t, m.IsProtocolClass(classNamed(t, m, "Plain")))

	// hard-coded knowledge wins for well-known classes
	assert.True(t, m.IsProtocolClass(m.KnownClass(KnownSized).Literal()))
	assert.False(t, m.IsProtocolClass(m.KnownClass(KnownObject).Literal()))
}
