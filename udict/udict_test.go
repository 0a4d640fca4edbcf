package udict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upipe.tools/upipe/umem"
)

func newDict(t *testing.T) *Dict {
	d, err := New(umem.NewDirect())
	require.NoError(t, err)
	return d
}

func TestRoundTripEveryType(t *testing.T) {
	d := newDict(t)

	require.NoError(t, d.SetOpaque("op", []byte{1, 2, 3}))
	require.NoError(t, d.SetString("str", "hello"))
	require.NoError(t, d.SetVoid("void"))
	require.NoError(t, d.SetBool("bool", true))
	require.NoError(t, d.SetSmallUnsigned("su", 200))
	require.NoError(t, d.SetSmallInt("si", -5))
	require.NoError(t, d.SetUnsigned("u", 1<<40))
	require.NoError(t, d.SetInt("i", -(1 << 40)))
	require.NoError(t, d.SetFloat("f", 3.25))
	require.NoError(t, d.SetRational("r", Rational{Num: 30000, Den: 1001}))

	op, err := d.GetOpaque("op")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, op)

	str, err := d.GetString("str")
	require.NoError(t, err)
	assert.Equal(t, "hello", str)

	require.NoError(t, d.GetVoid("void"))

	b, err := d.GetBool("bool")
	require.NoError(t, err)
	assert.True(t, b)

	su, err := d.GetSmallUnsigned("su")
	require.NoError(t, err)
	assert.EqualValues(t, 200, su)

	si, err := d.GetSmallInt("si")
	require.NoError(t, err)
	assert.EqualValues(t, -5, si)

	u, err := d.GetUnsigned("u")
	require.NoError(t, err)
	assert.EqualValues(t, 1<<40, u)

	i, err := d.GetInt("i")
	require.NoError(t, err)
	assert.EqualValues(t, -(1 << 40), i)

	f, err := d.GetFloat("f")
	require.NoError(t, err)
	assert.InDelta(t, 3.25, f, 0.0001)

	r, err := d.GetRational("r")
	require.NoError(t, err)
	assert.Equal(t, Rational{Num: 30000, Den: 1001}, r)
}

func TestSetOverwritesPreviousValue(t *testing.T) {
	d := newDict(t)
	require.NoError(t, d.SetInt("x", 1))
	require.NoError(t, d.SetInt("x", 2))

	v, err := d.GetInt("x")
	require.NoError(t, err)
	assert.EqualValues(t, 2, v)
}

func TestDeleteRemovesKey(t *testing.T) {
	d := newDict(t)
	require.NoError(t, d.SetString("k", "v"))
	d.Delete("k")
	_, err := d.GetString("k")
	assert.Equal(t, ErrNotFound, err)
}

func TestIterateVisitsEveryLiveKeyOnce(t *testing.T) {
	d := newDict(t)
	require.NoError(t, d.SetInt("a", 1))
	require.NoError(t, d.SetInt("b", 2))
	require.NoError(t, d.SetInt("a", 3)) // overwrite, should not duplicate
	d.Delete("b")

	var seen []string
	d.Iterate(func(e Entry) bool {
		seen = append(seen, e.Name)
		return true
	})
	assert.ElementsMatch(t, []string{"a"}, seen)
}

func TestCloneIsIndependent(t *testing.T) {
	d := newDict(t)
	require.NoError(t, d.SetInt("a", 1))

	clone, err := d.Clone()
	require.NoError(t, err)
	require.NoError(t, clone.SetInt("a", 2))

	orig, err := d.GetInt("a")
	require.NoError(t, err)
	assert.EqualValues(t, 1, orig)

	cloned, err := clone.GetInt("a")
	require.NoError(t, err)
	assert.EqualValues(t, 2, cloned)
}

func TestIterateStopsWhenCallbackReturnsFalse(t *testing.T) {
	d := newDict(t)
	require.NoError(t, d.SetInt("a", 1))
	require.NoError(t, d.SetInt("b", 2))

	count := 0
	d.Iterate(func(e Entry) bool {
		count++
		return false
	})
	assert.Equal(t, 1, count)
}
