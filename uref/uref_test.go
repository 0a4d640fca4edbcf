package uref

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upipe.tools/upipe/ubuf"
	"upipe.tools/upipe/umem"
)

func newMgr() *Mgr {
	return NewMgr(umem.NewDirect())
}

func TestAllocGivesEmptyDict(t *testing.T) {
	m := newMgr()
	u, err := m.Alloc()
	require.NoError(t, err)
	defer u.Free()

	_, ok := u.FlowDef()
	assert.False(t, ok)
}

func TestSetFlowDefMakesItReadable(t *testing.T) {
	m := newMgr()
	u, err := m.Alloc()
	require.NoError(t, err)
	defer u.Free()

	require.NoError(t, u.SetFlowDef("pic."))
	def, ok := u.FlowDef()
	require.True(t, ok)
	assert.Equal(t, "pic.", def)
}

func TestTimestampsRoundTrip(t *testing.T) {
	m := newMgr()
	u, err := m.Alloc()
	require.NoError(t, err)
	defer u.Free()

	_, ok := u.PtsSysGet()
	assert.False(t, ok)

	u.SetPtsSys(12345)
	v, ok := u.PtsSysGet()
	require.True(t, ok)
	assert.EqualValues(t, 12345, v)
}

func TestDupSharesUbufAndCopiesDict(t *testing.T) {
	m := newMgr()
	blockMgr := ubuf.NewBlockMgr(umem.NewDirect())
	b, err := blockMgr.Alloc(16)
	require.NoError(t, err)

	u, err := m.Alloc()
	require.NoError(t, err)
	u.Ubuf = b
	require.NoError(t, u.SetFlowDef("block."))
	u.SetPtsSys(42)
	defer u.Free()

	dup, err := u.Dup()
	require.NoError(t, err)
	defer dup.Free()

	def, ok := dup.FlowDef()
	require.True(t, ok)
	assert.Equal(t, "block.", def)

	v, ok := dup.PtsSysGet()
	require.True(t, ok)
	assert.EqualValues(t, 42, v)

	require.NoError(t, dup.SetFlowDef("sound."))
	original, _ := u.FlowDef()
	assert.Equal(t, "block.", original, "dup's dict must be independent of the original")
}

func TestUrefIsRecycledByThePool(t *testing.T) {
	m := newMgr()
	u, err := m.Alloc()
	require.NoError(t, err)
	u.SetPtsSys(99)
	u.Free()

	u2, err := m.Alloc()
	require.NoError(t, err)
	defer u2.Free()
	_, ok := u2.PtsSysGet()
	assert.False(t, ok, "a recycled Uref must not leak prior timestamps")
}
