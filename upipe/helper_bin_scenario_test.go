package upipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upipe.tools/upipe/mock"
	"upipe.tools/upipe/uref"
)

// TestBinProxiesFlowDefAndOutputToInnerPipeline exercises BinInput and
// BinOutput together the way a composite pipe (e.g. a demux bin wrapping
// several inner pipes) would: SetFlowDef reaches the first inner pipe,
// and SET_OUTPUT reaches the last one both when it is attached and on
// SetOutput.
func TestBinProxiesFlowDefAndOutputToInnerPipeline(t *testing.T) {
	first := mock.New(mock.Config{})
	last := mock.New(mock.Config{})

	in := NewBinInput()
	in.SetFirstInner(first)

	flowDef := &uref.Uref{}
	require.NoError(t, in.SetFlowDef(flowDef))
	assert.Equal(t, []Cmd{CmdSetFlowDef}, first.Calls)

	out := NewOutput()
	out.SetFlowDef(flowDef)

	bout := NewBinOutput(out)
	bout.SetLastInner(last)
	assert.Equal(t, []Cmd{CmdSetOutput}, last.Calls, "attaching a last inner pipe passes it the bin's current output")

	sink := mock.New(mock.Config{})
	require.NoError(t, bout.SetOutput(sink))
	assert.Equal(t, []Cmd{CmdSetOutput, CmdSetOutput}, last.Calls)
}

func TestBinInputWithNoFirstInnerIsUnhandled(t *testing.T) {
	in := NewBinInput()
	assert.ErrorIs(t, in.SetFlowDef(&uref.Uref{}), ErrUnhandled)
}
