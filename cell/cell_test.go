package cell

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalEqual(t *testing.T) {
	a := NewLocal(5)
	b := NewLocal(5)
	c := NewLocal(6)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestRemoteUnknownEqualsAnything(t *testing.T) {
	unknown := UnknownCell[string]()
	known := KnownCell("foo")

	assert.True(t, unknown.Equal(known))
	assert.True(t, known.Equal(unknown))
	assert.True(t, unknown.Equal(UnknownCell[string]()))
}

func TestRemoteKnownEqualByValue(t *testing.T) {
	a := KnownCell(10)
	b := KnownCell(10)
	c := KnownCell(11)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestRemoteGet(t *testing.T) {
	unknown := UnknownCell[int]()
	_, ok := unknown.Get()
	assert.False(t, ok)

	known := KnownCell(42)
	v, ok := known.Get()
	require.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestRemoteMustGetPanicsWhenUnknown(t *testing.T) {
	assert.Panics(t, func() {
		UnknownCell[int]().MustGet()
	})
}

func TestRemoteJSONRoundTrip(t *testing.T) {
	known := KnownCell("hello")
	data, err := json.Marshal(known)
	require.NoError(t, err)

	var decoded Remote[string]
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.Equal(known))
	v, ok := decoded.Get()
	require.True(t, ok)
	assert.Equal(t, "hello", v)

	unknown := UnknownCell[string]()
	data, err = json.Marshal(unknown)
	require.NoError(t, err)

	var decodedUnknown Remote[string]
	require.NoError(t, json.Unmarshal(data, &decodedUnknown))
	assert.False(t, decodedUnknown.IsKnown())
}

func TestCompositeDeclaredKnownWins(t *testing.T) {
	c := Composite(KnownCell("new"), KnownCell("old"))
	v, ok := c.Get()
	require.True(t, ok)
	assert.Equal(t, "new", v)
}

func TestCompositeFallsBackToStoredWhenDeclaredUnknown(t *testing.T) {
	c := Composite(UnknownCell[string](), KnownCell("old"))
	v, ok := c.Get()
	require.True(t, ok)
	assert.Equal(t, "old", v)
}

func TestCompositeUnknownWhenBothUnknown(t *testing.T) {
	c := Composite(UnknownCell[int](), UnknownCell[int]())
	assert.False(t, c.IsKnown())
}

func TestCompositeIsIdempotent(t *testing.T) {
	declared := UnknownCell[int]()
	stored := KnownCell(7)

	once := Composite(declared, stored)
	twice := Composite(once, stored)

	assert.True(t, once.Equal(twice))
}
