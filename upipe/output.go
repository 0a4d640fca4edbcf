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
	"sync"

	"upipe.tools/upipe/uref"
	"upipe.tools/upipe/urequest"
)

// OutputState is the lifecycle of an Output mixin's connection to its
// downstream pipe.
type OutputState int

const (
	// OutputNone means no flow def has been announced yet.
	OutputNone OutputState = iota
	// OutputFlowDef means a flow def has been set but no output pipe is
	// attached.
	OutputFlowDef
	// OutputRequest means an output pipe is attached and flow_format
	// negotiation is in flight.
	OutputRequest
	// OutputValid means the output is attached and negotiated.
	OutputValid
)

// Output stores a pipe's downstream connection: the output pipe itself,
// its announced flow def, the negotiation state, and every request
// forwarded to (or proxied through) that output so SetOutput can replay
// them onto a new one.
type Output struct {
	mu      sync.Mutex
	output  Pipe
	flowDef *uref.Uref
	state   OutputState
	// NewFlowDef is invoked whenever the flow def changes, so the owning
	// pipe can re-emit EventNewFlowDef exactly once per change.
	NewFlowDef func(flowDef *uref.Uref)

	requests map[urequest.Type]*urequest.Request
}

// NewOutput allocates an empty Output mixin.
func NewOutput() *Output {
	return &Output{requests: make(map[urequest.Type]*urequest.Request)}
}

// Get returns the current output pipe and flow def.
func (o *Output) Get() (Pipe, *uref.Uref) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.output, o.flowDef
}

// SetFlowDef records a new output flow def and advances state from None to
// FlowDef (or keeps it at Request/Valid if an output is already attached).
// NewFlowDef is invoked exactly once per distinct flow def, never for a
// no-op re-set of an identical one.
func (o *Output) SetFlowDef(flowDef *uref.Uref) {
	o.mu.Lock()
	if o.state == OutputNone {
		o.state = OutputFlowDef
	}
	same := o.flowDef == flowDef
	o.flowDef = flowDef
	cb := o.NewFlowDef
	o.mu.Unlock()
	if cb != nil && !same {
		cb(flowDef)
	}
}

// SetOutput attaches a new output pipe (or detaches with nil), unregistering
// every forwarded request from the old output and re-registering it on the
// new one, per spec.md §4.5 rule 4.
func (o *Output) SetOutput(output Pipe) {
	o.mu.Lock()
	old := o.output
	reqs := make([]*urequest.Request, 0, len(o.requests))
	for _, r := range o.requests {
		reqs = append(reqs, r)
	}
	o.output = output
	if output == nil {
		o.state = OutputFlowDef
	} else {
		o.state = OutputRequest
	}
	o.mu.Unlock()

	for _, r := range reqs {
		if old != nil {
			old.Control(CmdUnregisterRequest, r)
		}
		if output != nil {
			output.Control(CmdRegisterRequest, r)
		}
	}
}

// RegisterRequest records r as forwarded and, if an output is attached,
// forwards it there; otherwise it reports that the caller must throw
// EventProvideRequest so a probe can answer instead.
func (o *Output) RegisterRequest(r *urequest.Request) (forwarded bool) {
	o.mu.Lock()
	o.requests[r.Kind] = r
	output := o.output
	o.mu.Unlock()

	if output == nil {
		return false
	}
	output.Control(CmdRegisterRequest, r)
	return true
}

// UnregisterRequest frees the proxy chain for a previously registered
// request.
func (o *Output) UnregisterRequest(r *urequest.Request) {
	o.mu.Lock()
	delete(o.requests, r.Kind)
	output := o.output
	o.mu.Unlock()
	if output != nil {
		output.Control(CmdUnregisterRequest, r)
	}
}

// MarkValid transitions state to Valid once negotiation completes.
func (o *Output) MarkValid() {
	o.mu.Lock()
	if o.output != nil {
		o.state = OutputValid
	}
	o.mu.Unlock()
}

// State returns the mixin's current OutputState.
func (o *Output) State() OutputState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}
