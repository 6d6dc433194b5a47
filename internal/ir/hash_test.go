package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ageCheck(limit any) *Node {
	return &Node{
		Kind:  KindDyadic,
		Op:    "GT",
		Left:  &Node{Kind: KindPath, ID: "age"},
		Right: &Node{Kind: KindLiteral, Value: limit},
	}
}

func TestTreeIDDeterminism(t *testing.T) {
	id1, err := TreeID(ageCheck(18))
	require.NoError(t, err)
	id2, err := TreeID(ageCheck(18))
	require.NoError(t, err)

	assert.Equal(t, id1, id2, "TreeID must be deterministic")
	assert.Len(t, id1, 64, "SHA-256 hex is 64 characters")
}

func TestTreeIDNormalizesIntegerTypes(t *testing.T) {
	assert.Equal(t, MustTreeID(ageCheck(18)), MustTreeID(ageCheck(int64(18))))
	assert.Equal(t, MustTreeID(ageCheck(18)), MustTreeID(ageCheck(uint8(18))))
}

func TestTreeIDChangesWithInput(t *testing.T) {
	base := MustTreeID(ageCheck(18))

	assert.NotEqual(t, base, MustTreeID(ageCheck(19)))
	assert.NotEqual(t, base, MustTreeID(ageCheck("18")), "string and int literals differ")
	assert.NotEqual(t, base, MustTreeID(ageCheck(nil)))

	other := ageCheck(18)
	other.Op = "LT"
	assert.NotEqual(t, base, MustTreeID(other))
}

func TestTreeIDFloatVsString(t *testing.T) {
	assert.NotEqual(t, MustTreeID(ageCheck(2.5)), MustTreeID(ageCheck("2.5")))
}

func TestTreeIDDomainSeparation(t *testing.T) {
	n := ageCheck(18)
	c, err := Canonical(n)
	require.NoError(t, err)
	data, err := MarshalCanonical(c)
	require.NoError(t, err)

	assert.Equal(t, hashWithDomain(DomainTree, data), MustTreeID(n))
	assert.NotEqual(t, hashWithDomain(DomainRender, data), MustTreeID(n))
}

func TestTreeIDRejectsBadValue(t *testing.T) {
	_, err := TreeID(ageCheck(map[string]int{}))
	assert.Error(t, err)

	assert.Panics(t, func() { MustTreeID(nil) })
}

func TestRenderID(t *testing.T) {
	tree := MustTreeID(ageCheck(18))

	a, err := RenderID(tree, RendererVersion, "(age > 18)", "")
	require.NoError(t, err)
	b, err := RenderID(tree, RendererVersion, "(age > 18)", "")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := RenderID(tree, "9.9.9", "(age > 18)", "")
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}
