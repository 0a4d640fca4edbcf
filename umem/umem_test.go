package umem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectAllocRealloc(t *testing.T) {
	mgr := NewDirect()
	m, err := mgr.Alloc(16)
	require.NoError(t, err)
	assert.Equal(t, 16, m.Size())

	for i := range m.Buffer() {
		m.Buffer()[i] = byte(i)
	}

	require.NoError(t, m.Realloc(32))
	assert.Equal(t, 32, m.Size())
	for i := 0; i < 16; i++ {
		assert.Equal(t, byte(i), m.Buffer()[i])
	}

	m.Free()
	assert.Nil(t, m.Buffer())
}

func TestPooledRejectsNonPowerOfTwo(t *testing.T) {
	_, err := NewPooled(3, []int{1})
	assert.Equal(t, ErrPoolSizeNotPowerOfTwo, err)
}

func TestPooledReusesBuffers(t *testing.T) {
	mgr, err := NewPooled(64, []int{1, 1, 1})
	require.NoError(t, err)

	m, err := mgr.Alloc(64)
	require.NoError(t, err)
	buf := m.Buffer()
	buf[0] = 0xAB
	m.Free()

	m2, err := mgr.Alloc(64)
	require.NoError(t, err)
	// Same size class with room in the pool: we should get the buffer back.
	assert.Equal(t, byte(0xAB), m2.Buffer()[0])
}

func TestPooledOverflowBypassesPool(t *testing.T) {
	mgr, err := NewPooled(64, []int{1})
	require.NoError(t, err)
	m, err := mgr.Alloc(1 << 20)
	require.NoError(t, err)
	assert.Equal(t, 1<<20, m.Size())
	m.Free()
}

func TestPooledVacuumEmptiesPools(t *testing.T) {
	mgr, err := NewPooled(64, []int{4})
	require.NoError(t, err)
	m, err := mgr.Alloc(64)
	require.NoError(t, err)
	m.Free()

	pm := mgr.(*poolMgr)
	assert.Len(t, pm.pools[0].buffers, 1)
	mgr.Vacuum()
	assert.Len(t, pm.pools[0].buffers, 0)
}

func TestReallocAcrossSizeClass(t *testing.T) {
	mgr, err := NewPooled(16, []int{2, 2, 2})
	require.NoError(t, err)
	m, err := mgr.Alloc(16)
	require.NoError(t, err)
	copy(m.Buffer(), []byte("0123456789abcdef"))

	require.NoError(t, m.Realloc(64))
	assert.Equal(t, 64, m.Size())
	assert.Equal(t, []byte("0123456789abcdef"), m.Buffer()[:16])
}
