package upipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upipe.tools/upipe/upump"
)

func TestInputHandlesImmediatelyWhenQueueEmpty(t *testing.T) {
	var got []any
	in := NewInput(func(u any, p *upump.Pump) bool {
		got = append(got, u)
		return true
	})
	require.NoError(t, in.Feed("a", nil))
	assert.Equal(t, []any{"a"}, got)
	assert.Equal(t, 0, in.Len())
}

func TestInputQueuesOnFalseHandle(t *testing.T) {
	ready := false
	var handled []any
	in := NewInput(func(u any, p *upump.Pump) bool {
		if !ready {
			return false
		}
		handled = append(handled, u)
		return true
	})

	require.NoError(t, in.Feed("a", nil))
	assert.Equal(t, 1, in.Len())

	ready = true
	in.Unblock()
	assert.Equal(t, 0, in.Len())
	assert.Equal(t, []any{"a"}, handled)
}

func TestInputRestartsBlockedPumpOnceDrained(t *testing.T) {
	mgr, err := upump.NewMgr()
	require.NoError(t, err)
	defer mgr.Close()

	ready := false
	in := NewInput(func(u any, p *upump.Pump) bool { return ready })

	p := mgr.AllocIdler(func(*upump.Pump) {})
	p.SetSource(true)
	require.NoError(t, p.Start())
	defer p.Free()

	require.NoError(t, in.Feed("a", p))
	assert.False(t, p.IsRunning(), "pump must be stopped while its uref is queued")

	ready = true
	in.Unblock()
	assert.True(t, p.IsRunning(), "pump must restart once its backlog drains")
}

func TestInputRejectsOverMaxLength(t *testing.T) {
	in := NewInput(func(u any, p *upump.Pump) bool { return false })
	in.SetMaxLength(1)
	require.NoError(t, in.Feed("a", nil))
	err := in.Feed("b", nil)
	assert.ErrorIs(t, err, ErrNoSpc)
}
