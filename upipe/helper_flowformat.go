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

// FlowFormat raises a urequest.TypeFlowFormat request on a pipe's output
// with a proposed flow, invoking a callback with the answered (possibly
// amended) flow once it comes back.
type FlowFormat struct {
	out *Output
	cb  func(answer *uref.Uref)
}

// NewFlowFormat allocates a FlowFormat mixin bound to out.
func NewFlowFormat(out *Output) *FlowFormat {
	return &FlowFormat{out: out}
}

// Request raises the flow-format negotiation with proposed, invoking cb
// with the answer once it arrives (possibly synchronously, if the output
// answers inline).
func (f *FlowFormat) Request(proposed *uref.Uref, cb func(answer *uref.Uref)) {
	r := urequest.New(urequest.TypeFlowFormat, proposed, func(answer *uref.Uref) error {
		cb(answer)
		return nil
	})
	output, _ := f.out.Get()
	if !f.out.RegisterRequest(r) && output == nil {
		// No output to answer; caller's pipe must throw EventProvideRequest
		// itself, since this mixin never touches the probe chain directly.
		return
	}
}
