package opts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairs(t *testing.T) {
	entries, err := Pairs("width", 80, "color", "red")
	require.NoError(t, err)
	assert.Equal(t, []Entry{KV("width", 80), KV("color", "red")}, entries)

	entries, err = Pairs()
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = Pairs("width")
	assert.ErrorIs(t, err, ErrInvalidPairs)

	_, err = Pairs(1, "width")
	assert.ErrorIs(t, err, ErrInvalidPairs)
	assert.Contains(t, err.Error(), "int")
}

func TestBuildFromPairs(t *testing.T) {
	entries, err := Pairs("a", 1, "a", 2)
	require.NoError(t, err)

	_, err = Build(entries)
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestExtend(t *testing.T) {
	assert.ErrorIs(t, Extend(nil, KV("a", 1)), ErrNilContainer)

	c, err := Build([]Entry{KV("a", 1)})
	require.NoError(t, err)

	require.NoError(t, Extend(c))
	assert.Equal(t, []string{"a"}, c.Keys())

	require.NoError(t, Extend(c, KV("a", 2), KV("b", 3)))
	raw, err := c.Raw("a")
	require.NoError(t, err)
	assert.Equal(t, 2, raw)
	assert.True(t, c.Claimed("a"), "overwriting keeps the claim")
	assert.False(t, c.Claimed("b"))

	err = Extend(c, KV("c", 1), KV("", 2), KV("d", 3))
	assert.ErrorIs(t, err, ErrEmptyKey)
	assert.True(t, c.Has("c"))
	assert.False(t, c.Has("d"))
}

func TestExtendOverwriteStillCreditsCaller(t *testing.T) {
	c, err := Build([]Entry{KV("width", 80)})
	require.NoError(t, err)

	require.NoError(t, Extend(c, KV("width", 40)))
	assert.ErrorIs(t, Check(c), ErrUnusedOptions)

	vals, err := Bind(c, Decl("width", Value(0)))
	require.NoError(t, err)
	assert.Equal(t, 40, vals.Value("width"))
	assert.NoError(t, Check(c))
}
