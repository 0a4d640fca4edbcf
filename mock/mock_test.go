package mock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upipe.tools/upipe/upipe"
	"upipe.tools/upipe/uprobe"
)

func TestPipeRecordsCallsAndDefaultsToUnhandled(t *testing.T) {
	p := New(Config{})
	err := p.Control(upipe.CmdGetFlowDef)
	assert.ErrorIs(t, err, upipe.ErrUnhandled)
	assert.Equal(t, []upipe.Cmd{upipe.CmdGetFlowDef}, p.Calls)

	require.NoError(t, p.InputUref("x", nil))
	assert.Equal(t, []any{"x"}, p.Urefs)

	p.Release()
	assert.True(t, p.Released)
}

func TestPipeConfigHooksOverrideDefaults(t *testing.T) {
	p := New(Config{
		Control: func(cmd upipe.Cmd, args ...any) error { return nil },
	})
	assert.NoError(t, p.Control(upipe.CmdGetFlowDef))
}

func TestManagerAllocReturnsPushedPipesInOrder(t *testing.T) {
	m := NewManager(upipe.Signature(0x1234))
	first, second := New(Config{}), New(Config{})
	m.Push(first)
	m.Push(second)

	got, err := m.Alloc(nil)
	require.NoError(t, err)
	assert.Same(t, first, got)

	got, err = m.Alloc(nil)
	require.NoError(t, err)
	assert.Same(t, second, got)

	_, err = m.Alloc(nil)
	assert.ErrorIs(t, err, upipe.ErrAlloc)
}

func TestProbeRecordsAndForwardsEvents(t *testing.T) {
	var forwarded []uprobe.Event
	next := uprobe.ThrowFunc(func(pipe any, event uprobe.Event, args ...any) bool {
		forwarded = append(forwarded, event)
		return true
	})

	p := NewProbe(next)
	assert.True(t, p.Throw(nil, uprobe.EventReady))
	assert.Equal(t, []uprobe.Event{uprobe.EventReady}, p.Events)
	assert.Equal(t, []uprobe.Event{uprobe.EventReady}, forwarded)
}
