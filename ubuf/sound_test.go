package ubuf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upipe.tools/upipe/umem"
)

func TestSoundPlanarChannelsAreIndependent(t *testing.T) {
	mgr := NewSoundMgr(umem.NewDirect(), 2, SampleS16, true, 0, 0)
	s, err := mgr.Alloc(4)
	require.NoError(t, err)
	defer s.Free()

	left, stride, err := s.WriteChannel(0, 0, 4)
	require.NoError(t, err)
	assert.Equal(t, 2, stride)
	for i := range left {
		left[i] = 0xaa
	}
	s.Unmap(0)

	right, _, err := s.ReadChannel(1, 0, 4)
	require.NoError(t, err)
	for _, b := range right {
		assert.EqualValues(t, 0, b)
	}
	s.Unmap(1)
}

func TestSoundInterleavedSharesOnePlane(t *testing.T) {
	mgr := NewSoundMgr(umem.NewDirect(), 2, SampleS16, false, 0, 0)
	s, err := mgr.Alloc(4)
	require.NoError(t, err)
	defer s.Free()

	_, stride, err := s.ReadChannel(0, 0, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, stride) // 2 channels * 2 bytes/sample
	s.Unmap(0)
}

func TestSoundSilenceZeroesAllChannels(t *testing.T) {
	mgr := NewSoundMgr(umem.NewDirect(), 2, SampleS16, true, 0, 0)
	s, err := mgr.Alloc(4)
	require.NoError(t, err)
	defer s.Free()

	data, _, err := s.WriteChannel(0, 0, 4)
	require.NoError(t, err)
	for i := range data {
		data[i] = 0xff
	}
	s.Unmap(0)

	require.NoError(t, s.Silence(0, 4))
	data, _, err = s.ReadChannel(0, 0, 4)
	require.NoError(t, err)
	for _, b := range data {
		assert.EqualValues(t, 0, b)
	}
	s.Unmap(0)
}

func TestSoundResizeRejectsPastMargin(t *testing.T) {
	mgr := NewSoundMgr(umem.NewDirect(), 1, SampleS16, true, 2, 2)
	s, err := mgr.Alloc(4)
	require.NoError(t, err)
	defer s.Free()

	require.NoError(t, s.Resize(6, -2))
	assert.Error(t, s.Resize(100, 0))
}

func TestSoundWritableCopiesSharedBuffer(t *testing.T) {
	mgr := NewSoundMgr(umem.NewDirect(), 1, SampleS16, true, 0, 0)
	s, err := mgr.Alloc(4)
	require.NoError(t, err)
	defer s.Free()

	dup := s.Dup().(*Sound)
	defer dup.Free()

	w, err := dup.Writable()
	require.NoError(t, err)
	assert.NotSame(t, dup, w)
	w.Free()
}
