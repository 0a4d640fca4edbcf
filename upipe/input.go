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

	"upipe.tools/upipe/upump"
)

// HandleFunc processes one held uref; it returns false if the pipe cannot
// currently handle it (e.g. waiting on a ubuf manager), in which case Input
// re-queues the uref and blocks the delivering pump.
type HandleFunc func(u any, p *upump.Pump) bool

type heldUref struct {
	uref any
	pump *upump.Pump
}

// InputQueue is a bounded FIFO of held urefs, used by every pipe that
// accepts data: input urefs are queued if Handle returns false (the pipe
// isn't ready), and the delivering pump is blocked so its source stops
// producing until Unblock is called, at which point the queue is drained
// in order.
type InputQueue struct {
	mu         sync.Mutex
	queue      []heldUref
	maxLength  int // 0 means unbounded
	blocked    map[*upump.Pump]struct{}
	handle     HandleFunc
}

// NewInput allocates an InputQueue mixin. handle is called for every
// queued uref, in order, until one returns false.
func NewInput(handle HandleFunc) *InputQueue {
	return &InputQueue{handle: handle, blocked: make(map[*upump.Pump]struct{})}
}

// MaxLength returns the current queue length cap (0 = unbounded).
func (in *InputQueue) MaxLength() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.maxLength
}

// SetMaxLength changes the queue length cap.
func (in *InputQueue) SetMaxLength(max int) {
	in.mu.Lock()
	in.maxLength = max
	in.mu.Unlock()
}

// Feed delivers u to the pipe: if the queue is empty, Handle is tried
// immediately; otherwise (or on a false return) u is appended to the queue
// and, if p is non-nil, p itself is stopped until Unblock has drained every
// uref it delivered, then restarted. Returns ErrNoSpc if the queue is
// already at MaxLength.
func (in *InputQueue) Feed(u any, p *upump.Pump) error {
	in.mu.Lock()
	if len(in.queue) == 0 {
		in.mu.Unlock()
		if in.handle(u, p) {
			return nil
		}
		in.mu.Lock()
	}

	if in.maxLength > 0 && len(in.queue) >= in.maxLength {
		in.mu.Unlock()
		return ErrNoSpc
	}
	in.queue = append(in.queue, heldUref{uref: u, pump: p})
	blockedNow := p != nil
	if blockedNow {
		in.blocked[p] = struct{}{}
	}
	in.mu.Unlock()

	if blockedNow && p != nil {
		p.Stop()
	}
	return nil
}

// Unblock is called once the cause that made Handle return false has been
// resolved (e.g. a ubuf manager arrived): it retries every queued uref in
// order, stopping (and re-blocking) again at the first one that still
// fails, and restarts any pump whose entire backlog drained.
func (in *InputQueue) Unblock() {
	for {
		in.mu.Lock()
		if len(in.queue) == 0 {
			in.mu.Unlock()
			return
		}
		next := in.queue[0]
		in.mu.Unlock()

		if !in.handle(next.uref, next.pump) {
			return
		}

		in.mu.Lock()
		in.queue = in.queue[1:]
		stillQueued := false
		for _, h := range in.queue {
			if h.pump == next.pump {
				stillQueued = true
				break
			}
		}
		if !stillQueued && next.pump != nil {
			delete(in.blocked, next.pump)
		}
		in.mu.Unlock()

		if !stillQueued && next.pump != nil {
			next.pump.Start()
		}
	}
}

// Len reports how many urefs are currently queued.
func (in *InputQueue) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.queue)
}
