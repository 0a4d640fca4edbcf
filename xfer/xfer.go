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

// Package xfer implements cross-thread pipe access: a Mgr bound to one
// target goroutine serializes Input/Control/Release calls made from any
// other goroutine into messages on a bounded queue, drained and applied to
// the real pipe only on the target goroutine. No pipe should be touched
// directly from outside the goroutine running its upump.Mgr except through
// a Mgr built this way.
package xfer

import (
	"upipe.tools/upipe/internal/bufpipe"
	"upipe.tools/upipe/upipe"
	"upipe.tools/upipe/upump"
)

// kind identifies what a queued message instructs the remote thread to do.
type kind int

const (
	kindInput kind = iota
	kindControl
	kindRelease
)

// msg is one queued instruction. Only the fields matching kind are
// meaningful.
type msg struct {
	kind kind

	uref any
	pump *upump.Pump

	cmd    upipe.Cmd
	args   []any
	result chan error
}

// Mgr is bound to one target goroutine and drains queued messages onto a
// real pipe allocated there. Mgr does not run a goroutine of its own: the
// target loop pumps it, typically from an upump.KindIdler pump a Worker
// allocates for this purpose, mirroring upipe_xfer's use of an event fd
// the destination upump_mgr watches.
type Mgr struct {
	queue *bufpipe.Pipe[msg]
}

// NewMgr allocates a Mgr whose queue holds up to depth messages before
// enqueue calls start failing with upipe.ErrNoSpc.
func NewMgr(depth int) *Mgr {
	return &Mgr{queue: bufpipe.New[msg](depth)}
}

// InputUref queues u for delivery to the real pipe's InputUref on the
// target goroutine. It never blocks.
func (m *Mgr) InputUref(u any, p *upump.Pump) error {
	return m.enqueue(msg{kind: kindInput, uref: u, pump: p})
}

// Control queues cmd for delivery to the real pipe's Control on the target
// goroutine, blocking the caller until the remote applies it and returns
// an error (mirroring upipe_xfer's synchronous control relay).
func (m *Mgr) Control(cmd upipe.Cmd, args ...any) error {
	result := make(chan error, 1)
	if err := m.enqueue(msg{kind: kindControl, cmd: cmd, args: args, result: result}); err != nil {
		return err
	}
	return <-result
}

// Release queues a release of the real pipe on the target goroutine. Any
// upipe.ErrNoSpc from a full queue is dropped: Release has no error return
// to report it through, matching upipe.Pipe.Release's own signature.
func (m *Mgr) Release() {
	_ = m.enqueue(msg{kind: kindRelease})
}

func (m *Mgr) enqueue(message msg) error {
	if err := m.queue.Write(message); err != nil {
		return upipe.ErrNoSpc
	}
	return nil
}

// Drain applies every message currently queued to real. It must be called
// from the goroutine that owns real; it never blocks, so it is safe to
// call from an idler pump on every iteration of the target event loop.
func (m *Mgr) Drain(real upipe.Pipe) {
	for {
		message, ok := m.queue.TryRead()
		if !ok {
			return
		}
		m.apply(real, message)
	}
}

func (m *Mgr) apply(real upipe.Pipe, message msg) {
	switch message.kind {
	case kindInput:
		if in, ok := real.(upipe.Input); ok {
			in.InputUref(message.uref, message.pump)
		}
	case kindControl:
		err := real.Control(message.cmd, message.args...)
		if message.result != nil {
			message.result <- err
		}
	case kindRelease:
		real.Release()
	}
}
