// {{{ Copyright (c) Upipe Authors, 2024
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE. }}}

package upipe

import (
	"upipe.tools/upipe/uref"
	"upipe.tools/upipe/urequest"
)

// UbufMgr requests a ubuf manager compatible with a flow format from the
// pipe's output, re-issuing the request whenever SetFlowDef is called with
// a flow format the currently held manager is no longer known to be
// compatible with.
type UbufMgr struct {
	out *Output

	mgr       any // the held ubuf manager, typed any to stay format-agnostic
	flowDef   *uref.Uref
	compatible func(old, new *uref.Uref) bool
	onMgr      func(mgr any)
}

// NewUbufMgr allocates a UbufMgr mixin bound to out. compatible decides
// whether a currently held manager remains valid for a newly announced
// flow def; onMgr is invoked whenever a fresh manager is obtained.
func NewUbufMgr(out *Output, compatible func(old, new *uref.Uref) bool, onMgr func(mgr any)) *UbufMgr {
	return &UbufMgr{out: out, compatible: compatible, onMgr: onMgr}
}

// Mgr returns the currently held ubuf manager, or nil if none has arrived
// yet.
func (u *UbufMgr) Mgr() any { return u.mgr }

// SetFlowDef is called whenever the pipe's input flow format changes; it
// re-requests a ubuf manager unless compatible(old, new) says the one
// already held still applies.
func (u *UbufMgr) SetFlowDef(flowDef *uref.Uref) {
	if u.flowDef != nil && u.mgr != nil && u.compatible != nil && u.compatible(u.flowDef, flowDef) {
		u.flowDef = flowDef
		return
	}
	u.flowDef = flowDef
	u.mgr = nil

	r := urequest.New(urequest.TypeUbufMgr, flowDef, func(answer *uref.Uref) error {
		var mgr any
		if answer != nil {
			mgr = answer.Priv
		}
		u.mgr = mgr
		if u.onMgr != nil {
			u.onMgr(mgr)
		}
		return nil
	})
	u.out.RegisterRequest(r)
}
