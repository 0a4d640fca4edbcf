package upipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upipe.tools/upipe/uref"
	"upipe.tools/upipe/urequest"
)

type fakePipe struct {
	calls []Cmd
}

func (f *fakePipe) Control(cmd Cmd, args ...any) error {
	f.calls = append(f.calls, cmd)
	return nil
}
func (f *fakePipe) Release() {}

func TestOutputSetFlowDefFiresCallbackOnce(t *testing.T) {
	o := NewOutput()
	var calls int
	o.NewFlowDef = func(*uref.Uref) { calls++ }

	fd := &uref.Uref{}
	o.SetFlowDef(fd)
	assert.Equal(t, 1, calls)
	assert.Equal(t, OutputFlowDef, o.State())

	_, got := o.Get()
	assert.Same(t, fd, got)
}

func TestOutputRegisterRequestWithoutOutputReportsUnforwarded(t *testing.T) {
	o := NewOutput()
	r := urequest.New(urequest.TypeUbufMgr, nil, nil)
	assert.False(t, o.RegisterRequest(r))
}

func TestOutputSetOutputReregistersRequests(t *testing.T) {
	o := NewOutput()
	r := urequest.New(urequest.TypeFlowFormat, nil, nil)
	o.RegisterRequest(r)

	oldOut := &fakePipe{}
	o.SetOutput(oldOut)
	assert.Contains(t, oldOut.calls, CmdRegisterRequest)

	newOut := &fakePipe{}
	o.SetOutput(newOut)
	assert.Contains(t, oldOut.calls, CmdUnregisterRequest)
	assert.Contains(t, newOut.calls, CmdRegisterRequest)
}

func TestOutputMarkValidRequiresOutput(t *testing.T) {
	o := NewOutput()
	o.MarkValid()
	assert.Equal(t, OutputNone, o.State())

	o.SetOutput(&fakePipe{})
	o.MarkValid()
	assert.Equal(t, OutputValid, o.State())
}

func TestBinInputProxiesToFirstInner(t *testing.T) {
	inner := &fakePipe{}
	b := NewBinInput()
	assert.ErrorIs(t, b.SetFlowDef(&uref.Uref{}), ErrUnhandled)

	b.SetFirstInner(inner)
	require.NoError(t, b.SetFlowDef(&uref.Uref{}))
	assert.Contains(t, inner.calls, CmdSetFlowDef)
}

func TestBinOutputProxiesToLastInner(t *testing.T) {
	o := NewOutput()
	b := NewBinOutput(o)
	assert.ErrorIs(t, b.SetOutput(&fakePipe{}), ErrUnhandled)

	last := &fakePipe{}
	b.SetLastInner(last)
	require.NoError(t, b.SetOutput(&fakePipe{}))
	assert.Contains(t, last.calls, CmdSetOutput)
}
