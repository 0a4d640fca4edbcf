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

// BinInput proxies SetFlowDef calls on a composite ("bin") pipe to the
// first inner pipe of its wrapped sub-pipeline, per upipe_helper_bin_input.
type BinInput struct {
	firstInner Pipe
}

// NewBinInput allocates a BinInput mixin with no inner pipe set yet.
func NewBinInput() *BinInput { return &BinInput{} }

// SetFirstInner changes which inner pipe receives proxied flow defs.
func (b *BinInput) SetFirstInner(p Pipe) { b.firstInner = p }

// SetFlowDef proxies to the first inner pipe's SET_FLOW_DEF control
// command.
func (b *BinInput) SetFlowDef(flowDef *uref.Uref) error {
	if b.firstInner == nil {
		return ErrUnhandled
	}
	return b.firstInner.Control(CmdSetFlowDef, flowDef)
}

// BinOutput proxies set_output and request forwarding to the last inner
// pipe of a bin's sub-pipeline, per upipe_helper_bin_output: every request
// already registered on the bin is re-registered on a newly attached last
// inner pipe, and the bin's own flow def is re-emitted exactly once
// whenever a new last inner pipe is attached.
type BinOutput struct {
	out       *Output
	lastInner Pipe
}

// NewBinOutput allocates a BinOutput mixin bound to out.
func NewBinOutput(out *Output) *BinOutput { return &BinOutput{out: out} }

// SetLastInner changes which inner pipe the bin's output proxies to,
// passing it the bin's current output pipe (nil if none), re-forwarding
// every currently pending request onto it and re-emitting the flow def the
// bin has announced so far (if any) through the Output's NewFlowDef hook.
func (b *BinOutput) SetLastInner(p Pipe) {
	b.lastInner = p
	if p == nil {
		return
	}
	b.out.mu.Lock()
	output, flowDef, cb := b.out.output, b.out.flowDef, b.out.NewFlowDef
	reqs := make([]*urequest.Request, 0, len(b.out.requests))
	for _, r := range b.out.requests {
		reqs = append(reqs, r)
	}
	b.out.mu.Unlock()
	p.Control(CmdSetOutput, output)
	for _, r := range reqs {
		p.Control(CmdRegisterRequest, r)
	}
	if flowDef != nil && cb != nil {
		cb(flowDef)
	}
}

// SetOutput proxies SET_OUTPUT to the last inner pipe.
func (b *BinOutput) SetOutput(output Pipe) error {
	if b.lastInner == nil {
		return ErrUnhandled
	}
	return b.lastInner.Control(CmdSetOutput, output)
}
