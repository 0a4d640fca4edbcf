package upipe

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"upipe.tools/upipe/uref"
)

func TestUbufMgrRequestsOnIncompatibleChange(t *testing.T) {
	o := NewOutput()
	out := &fakePipe{}
	o.SetOutput(out)

	var gotMgr any
	u := NewUbufMgr(o, func(old, new *uref.Uref) bool { return false }, func(mgr any) { gotMgr = mgr })

	u.SetFlowDef(&uref.Uref{})
	u.mgr = "held" // simulate an answer having arrived
	u.SetFlowDef(&uref.Uref{})
	assert.Nil(t, u.Mgr())
	assert.Equal(t, []Cmd{CmdRegisterRequest, CmdRegisterRequest}, out.calls)
	_ = gotMgr
}

func TestUbufMgrSkipsRequestWhenCompatible(t *testing.T) {
	o := NewOutput()
	calls := 0
	compatible := func(old, new *uref.Uref) bool { calls++; return true }
	u := NewUbufMgr(o, compatible, nil)

	fd1 := &uref.Uref{}
	u.SetFlowDef(fd1) // first call: no held mgr yet, always re-requests
	u.mgr = "held"    // simulate an answer having arrived

	fd2 := &uref.Uref{}
	u.SetFlowDef(fd2)
	assert.Equal(t, "held", u.Mgr())
	assert.Equal(t, 1, calls)
}
