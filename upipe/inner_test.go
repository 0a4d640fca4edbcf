package upipe

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"upipe.tools/upipe/uprobe"
)

func TestInnerProbeTranslateSuppressesForward(t *testing.T) {
	var forwarded bool
	next := uprobe.ThrowFunc(func(pipe any, event uprobe.Event, args ...any) bool {
		forwarded = true
		return true
	})
	p := NewInnerProbe(next)
	p.Translate = func(event uprobe.Event, args ...any) bool {
		return event == uprobe.EventReady
	}

	assert.True(t, p.Throw(nil, uprobe.EventReady))
	assert.False(t, forwarded)

	assert.True(t, p.Throw(nil, uprobe.EventDead))
	assert.True(t, forwarded)
}

func TestInnerTracksWrappedPipe(t *testing.T) {
	inner := &fakePipe{}
	probe := NewInnerProbe(nil)
	in := NewInner(inner, probe)
	assert.Same(t, inner, in.Pipe())

	other := &fakePipe{}
	in.Set(other)
	assert.Same(t, other, in.Pipe())
	assert.Same(t, other, probe.outer)
}
