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

package xfer

import (
	"upipe.tools/upipe/upipe"
	"upipe.tools/upipe/upump"
)

// Proxy stands in for a real pipe that lives on a different goroutine. It
// satisfies upipe.Input so callers on the local thread can use it exactly
// like the pipe it fronts; every call is relayed through a Mgr onto the
// owning thread's queue.
type Proxy struct {
	mgr *Mgr
}

// NewProxy wraps mgr (the input-side xfer manager returned by a Worker) as
// a upipe.Input.
func NewProxy(mgr *Mgr) *Proxy {
	return &Proxy{mgr: mgr}
}

// InputUref implements upipe.Input by queuing u for the owning thread.
func (p *Proxy) InputUref(u any, pump *upump.Pump) error {
	return p.mgr.InputUref(u, pump)
}

// Control implements upipe.Pipe by queuing cmd and blocking for the
// owning thread's answer.
func (p *Proxy) Control(cmd upipe.Cmd, args ...any) error {
	return p.mgr.Control(cmd, args...)
}

// Release implements upipe.Pipe by queuing a release on the owning
// thread; it does not wait for it to run.
func (p *Proxy) Release() {
	p.mgr.Release()
}

var _ upipe.Input = (*Proxy)(nil)
