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

import "upipe.tools/upipe/uprobe"

// Inner attaches and manages a wrapped pipe the outer (composite) pipe
// delegates work to, catching the inner pipe's events through an
// InnerProbe so the outer pipe can translate or forward them instead of
// exposing the inner pipe's identity to the caller's own probe chain.
type Inner struct {
	pipe  Pipe
	probe *InnerProbe
}

// NewInner wraps pipe, catching its events through probe.
func NewInner(pipe Pipe, probe *InnerProbe) *Inner {
	probe.outer = pipe
	return &Inner{pipe: pipe, probe: probe}
}

// Pipe returns the wrapped inner pipe.
func (i *Inner) Pipe() Pipe { return i.pipe }

// Set replaces the wrapped pipe, releasing the previous one.
func (i *Inner) Set(pipe Pipe) {
	if i.pipe != nil {
		i.pipe.Release()
	}
	i.pipe = pipe
	i.probe.outer = pipe
}

// Release releases the wrapped inner pipe.
func (i *Inner) Release() {
	if i.pipe != nil {
		i.pipe.Release()
		i.pipe = nil
	}
}

// InnerProbe sits between an inner pipe and the rest of a probe chain,
// letting the outer composite pipe intercept (Translate) or simply
// forward every event the inner pipe throws.
type InnerProbe struct {
	uprobe.Chain

	outer Pipe
	// Translate is called with every event the inner pipe throws; it
	// returns true if it handled the event itself (the default, nil,
	// forwards everything to Chain.Next()).
	Translate func(event uprobe.Event, args ...any) bool
}

// NewInnerProbe allocates an InnerProbe forwarding unhandled/untranslated
// events to next.
func NewInnerProbe(next uprobe.Probe) *InnerProbe {
	return &InnerProbe{Chain: uprobe.NewChain(next)}
}

// Throw implements uprobe.Probe.
func (p *InnerProbe) Throw(pipe any, event uprobe.Event, args ...any) bool {
	if p.Translate != nil && p.Translate(event, args...) {
		return true
	}
	return p.ThrowNext(pipe, event, args...)
}
