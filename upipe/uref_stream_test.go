package upipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upipe.tools/upipe/ubuf"
	"upipe.tools/upipe/umem"
)

func TestUrefStreamExtractFixedSize(t *testing.T) {
	mgr := NewBlockMgrForTest(t)
	b, err := mgr.Alloc(4)
	require.NoError(t, err)
	copy(b.Bytes(), []byte("abcd"))

	s := NewUrefStream()
	require.NoError(t, s.Append(b))

	got, ok := s.Extract(2)
	require.True(t, ok)
	assert.Equal(t, []byte("ab"), got)
	assert.Equal(t, 2, s.Len())

	_, ok = s.Extract(10)
	assert.False(t, ok)
}

func TestUrefStreamExtractUntilDelimiter(t *testing.T) {
	mgr := NewBlockMgrForTest(t)
	b, err := mgr.Alloc(6)
	require.NoError(t, err)
	copy(b.Bytes(), []byte("ab\ncde"))

	s := NewUrefStream()
	require.NoError(t, s.Append(b))

	line, ok := s.ExtractUntil('\n')
	require.True(t, ok)
	assert.Equal(t, []byte("ab\n"), line)
	assert.Equal(t, []byte("cde"), s.Peek())
}

// NewBlockMgrForTest is a small helper so uref_stream_test.go doesn't need
// to duplicate umem.Mgr setup across cases.
func NewBlockMgrForTest(t *testing.T) *ubuf.BlockMgr {
	t.Helper()
	return ubuf.NewBlockMgr(umem.NewDirect())
}
