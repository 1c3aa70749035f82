package pytype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntoCallableDeclaredInit(t *testing.T) {
	m := modelFor(t, `
class C:
    def __init__(self, name: str, retries: int = 3) -> None: ...
`)
	c := classNamed(t, m, "C").AsClass()

	call := m.IntoCallable(c)
	require.Len(t, call.Signatures, 1)
	sig := call.Signatures[0]
	require.Len(t, sig.Params, 2)
	assert.Equal(t, "name", sig.Params[0].Name)
	assert.Equal(t, "str", sig.Params[0].Type.String())
	assert.Equal(t, "retries", sig.Params[1].Name)
	assert.NotNil(t, sig.Params[1].Default)

	inst, ok := sig.Return.(*InstanceType)
	require.True(t, ok)
	assert.Equal(t, "C", inst.Class.Name())
}

func TestIntoCallableSynthesizedInit(t *testing.T) {
	m := modelFor(t, `
@dataclass
class Point:
    x: int
    y: int = 0
`)
	point := classNamed(t, m, "Point").AsClass()

	call := m.IntoCallable(point)
	require.Len(t, call.Signatures, 1)
	sig := call.Signatures[0]
	require.Len(t, sig.Params, 2)
	assert.Equal(t, "x", sig.Params[0].Name)
	assert.Equal(t, "y", sig.Params[1].Name)
	inst, ok := sig.Return.(*InstanceType)
	require.True(t, ok)
	assert.Equal(t, "Point", inst.Class.Name())
}

func TestIntoCallableNewAndInitUnion(t *testing.T) {
	m := modelFor(t, `
class C:
    def __new__(cls, raw: str): ...
    def __init__(self, raw: str) -> None: ...
`)
	c := classNamed(t, m, "C").AsClass()

	call := m.IntoCallable(c)
	assert.Len(t, call.Signatures, 2)
	for _, sig := range call.Signatures {
		require.Len(t, sig.Params, 1)
		assert.Equal(t, "raw", sig.Params[0].Name)
	}
}

func TestIntoCallableMetaclassCall(t *testing.T) {
	m := modelFor(t, `
class Meta(type):
    def __call__(cls, token: int) -> None: ...

class C(metaclass=Meta):
    def __init__(self) -> None: ...
`)
	c := classNamed(t, m, "C").AsClass()

	call := m.IntoCallable(c)
	require.Len(t, call.Signatures, 1)
	sig := call.Signatures[0]
	require.Len(t, sig.Params, 1)
	assert.Equal(t, "token", sig.Params[0].Name)
}

func TestIntoCallableFallback(t *testing.T) {
	m := modelFor(t, `
class C: ...
`)
	c := classNamed(t, m, "C").AsClass()

	call := m.IntoCallable(c)
	require.Len(t, call.Signatures, 1)
	sig := call.Signatures[0]
	require.Len(t, sig.Params, 2)
	assert.True(t, sig.Params[0].Variadic)
	assert.True(t, sig.Params[1].KeywordVariadic)
}
