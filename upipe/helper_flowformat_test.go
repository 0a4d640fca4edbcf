package upipe

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"upipe.tools/upipe/uref"
)

type answeringPipe struct {
	fakePipe
	answer *uref.Uref
}

func (a *answeringPipe) Control(cmd Cmd, args ...any) error {
	a.fakePipe.Control(cmd, args...)
	if cmd == CmdRegisterRequest {
		if r, ok := args[0].(interface{ Provide(*uref.Uref) error }); ok {
			r.Provide(a.answer)
		}
	}
	return nil
}

func TestFlowFormatRequestInvokesCallbackOnAnswer(t *testing.T) {
	o := NewOutput()
	answer := &uref.Uref{}
	o.SetOutput(&answeringPipe{answer: answer})

	ff := NewFlowFormat(o)
	var got *uref.Uref
	ff.Request(&uref.Uref{}, func(a *uref.Uref) { got = a })
	assert.Same(t, answer, got)
}
