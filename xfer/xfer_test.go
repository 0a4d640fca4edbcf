package xfer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upipe.tools/upipe/upipe"
	"upipe.tools/upipe/upump"
)

type recordingPipe struct {
	urefs    []any
	controls []upipe.Cmd
	released bool
	ctrlErr  error
}

func (r *recordingPipe) InputUref(u any, p *upump.Pump) error {
	r.urefs = append(r.urefs, u)
	return nil
}

func (r *recordingPipe) Control(cmd upipe.Cmd, args ...any) error {
	r.controls = append(r.controls, cmd)
	return r.ctrlErr
}

func (r *recordingPipe) Release() { r.released = true }

func TestMgrInputUrefQueuesUntilDrain(t *testing.T) {
	m := NewMgr(4)
	require.NoError(t, m.InputUref("a", nil))
	require.NoError(t, m.InputUref("b", nil))

	real := &recordingPipe{}
	assert.Empty(t, real.urefs)

	m.Drain(real)
	assert.Equal(t, []any{"a", "b"}, real.urefs)
}

func TestMgrControlBlocksForAnswer(t *testing.T) {
	m := NewMgr(4)
	real := &recordingPipe{ctrlErr: upipe.ErrUnhandled}

	done := make(chan error, 1)
	go func() {
		done <- m.Control(upipe.CmdGetFlowDef)
	}()

	for len(real.controls) == 0 {
		m.Drain(real)
	}

	require.Equal(t, upipe.ErrUnhandled, <-done)
	assert.Equal(t, []upipe.Cmd{upipe.CmdGetFlowDef}, real.controls)
}

func TestMgrReleaseQueuesRelease(t *testing.T) {
	m := NewMgr(1)
	m.Release()

	real := &recordingPipe{}
	m.Drain(real)
	assert.True(t, real.released)
}

func TestMgrEnqueueFailsWhenQueueFull(t *testing.T) {
	m := NewMgr(1)
	require.NoError(t, m.InputUref("a", nil))
	err := m.InputUref("b", nil)
	assert.ErrorIs(t, err, upipe.ErrNoSpc)
}

func TestProxyRelaysToRealPipe(t *testing.T) {
	m := NewMgr(4)
	p := NewProxy(m)

	require.NoError(t, p.InputUref("x", nil))
	real := &recordingPipe{}
	m.Drain(real)
	assert.Equal(t, []any{"x"}, real.urefs)

	p.Release()
	m.Drain(real)
	assert.True(t, real.released)
}

func TestWorkerRoundTripsInputThroughProxy(t *testing.T) {
	real := &recordingPipe{}
	w, err := NewWorker(func(mgr *upump.Mgr) (upipe.Pipe, error) {
		return real, nil
	}, 8)
	require.NoError(t, err)
	defer w.Close()

	proxy := w.Proxy()
	require.NoError(t, proxy.InputUref("hello", nil))

	require.Eventually(t, func() bool {
		return len(real.urefs) == 1
	}, time.Second, time.Millisecond)
	assert.Equal(t, []any{"hello"}, real.urefs)
}

func TestWorkerControlRoundTrips(t *testing.T) {
	real := &recordingPipe{ctrlErr: upipe.ErrUnhandled}
	w, err := NewWorker(func(mgr *upump.Mgr) (upipe.Pipe, error) {
		return real, nil
	}, 8)
	require.NoError(t, err)
	defer w.Close()

	err = w.Proxy().Control(upipe.CmdGetFlowDef)
	assert.ErrorIs(t, err, upipe.ErrUnhandled)
	assert.Equal(t, []upipe.Cmd{upipe.CmdGetFlowDef}, real.controls)
}
