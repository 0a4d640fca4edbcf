package upump

import (
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMgr(t *testing.T) *Mgr {
	m, err := NewMgr()
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func TestIdlerPumpFiresRepeatedly(t *testing.T) {
	m := newMgr(t)
	var n int32
	p := m.AllocIdler(func(*Pump) { atomic.AddInt32(&n, 1) })
	defer p.Free()

	require.NoError(t, p.Start())
	require.Eventually(t, func() bool { return atomic.LoadInt32(&n) > 5 }, time.Second, time.Millisecond)
	require.NoError(t, p.Stop())
}

func TestTimerPumpFiresOnInterval(t *testing.T) {
	m := newMgr(t)
	var n int32
	p := m.AllocTimer(5*time.Millisecond, func(*Pump) { atomic.AddInt32(&n, 1) })
	defer p.Free()

	require.NoError(t, p.Start())
	require.Eventually(t, func() bool { return atomic.LoadInt32(&n) >= 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, p.Stop())
}

func TestFDReadPumpFiresOnReadability(t *testing.T) {
	m := newMgr(t)
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	fired := make(chan struct{}, 1)
	p := m.AllocFDRead(int(r.Fd()), func(*Pump) {
		var buf [1]byte
		r.Read(buf[:])
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	defer p.Free()

	require.NoError(t, p.Start())
	_, err = w.Write([]byte("x"))
	require.NoError(t, err)

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("fd-read pump never fired")
	}
}

func TestStartIsIdempotent(t *testing.T) {
	m := newMgr(t)
	p := m.AllocIdler(func(*Pump) {})
	defer p.Free()

	require.NoError(t, p.Start())
	require.NoError(t, p.Start())
	assert.True(t, p.IsRunning())
	require.NoError(t, p.Stop())
	assert.False(t, p.IsRunning())
}

func TestSinkBlockStopsSourcePumpsOnly(t *testing.T) {
	m := newMgr(t)
	var sourceFires, otherFires int32

	source := m.AllocIdler(func(*Pump) { atomic.AddInt32(&sourceFires, 1) })
	source.SetSource(true)
	other := m.AllocIdler(func(*Pump) { atomic.AddInt32(&otherFires, 1) })
	defer source.Free()
	defer other.Free()

	require.NoError(t, source.Start())
	require.NoError(t, other.Start())
	require.Eventually(t, func() bool { return atomic.LoadInt32(&sourceFires) > 0 }, time.Second, time.Millisecond)

	m.SinkBlock()
	assert.False(t, source.IsRunning())
	assert.True(t, other.IsRunning())

	atomic.StoreInt32(&sourceFires, 0)
	time.Sleep(20 * time.Millisecond)
	assert.EqualValues(t, 0, atomic.LoadInt32(&sourceFires))

	m.SinkUnblock()
	assert.True(t, source.IsRunning())
	require.Eventually(t, func() bool { return atomic.LoadInt32(&sourceFires) > 0 }, time.Second, time.Millisecond)
}

func TestSinkBlockIsReferenceCounted(t *testing.T) {
	m := newMgr(t)
	source := m.AllocIdler(func(*Pump) {})
	source.SetSource(true)
	defer source.Free()
	require.NoError(t, source.Start())

	m.SinkBlock()
	m.SinkBlock()
	m.SinkUnblock()
	assert.False(t, source.IsRunning(), "pump must stay blocked until every SinkBlock is matched")

	m.SinkUnblock()
	assert.True(t, source.IsRunning())
}
