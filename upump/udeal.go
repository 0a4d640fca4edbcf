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

package upump

import "sync/atomic"

// Udeal deals efficient exclusive access to a non-reentrant resource
// between pumps on (potentially) different event loops: a waiter count, an
// access count, and an eventfd-style wakeup channel, exactly mirroring the
// upstream C implementation's two ucounters plus ueventfd (the channel
// stands in for the fd: Grab's double-check-on-contention retry loop is
// otherwise unchanged).
type Udeal struct {
	waiters int32 // atomic
	access  int32 // atomic
	wake    chan struct{}
}

// NewUdeal returns a ready-to-use Udeal.
func NewUdeal() *Udeal {
	return &Udeal{wake: make(chan struct{}, 1)}
}

func (d *Udeal) eventRead() {
	select {
	case <-d.wake:
	default:
	}
}

func (d *Udeal) eventWrite() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Start registers one waiter. If it is the only waiter, the caller may
// proceed immediately without contention.
func (d *Udeal) Start() {
	atomic.AddInt32(&d.waiters, 1)
}

// Grab takes exclusive access to the resource, blocking until it succeeds.
// Where the original event-driven udeal_grab returns false to ask its
// caller to retry on the next upump wakeup, Grab folds that retry into one
// blocking call, since Go can afford to park the calling goroutine directly
// on the wake channel instead of re-entering via a callback.
func (d *Udeal) Grab() {
	for {
		if atomic.AddInt32(&d.access, 1) <= 1 {
			return
		}

		<-d.wake

		// double-check: if access is still contested after removing our
		// own speculative increment, someone else holds it; go back to
		// sleep and retry from scratch.
		if atomic.AddInt32(&d.access, -1) > 0 {
			continue
		}

		// clear: wake the next waiter, if any, then retry acquiring.
		d.eventWrite()
	}
}

// Yield releases access previously obtained from Grab and deregisters one
// waiter, waking the next contender if any remain.
func (d *Udeal) Yield() {
	atomic.AddInt32(&d.access, -1)
	if atomic.AddInt32(&d.waiters, -1) > 0 {
		d.eventWrite()
	}
}

// Abort deregisters a waiter registered by Start without having called
// Grab; it must only be used in that circumstance, since Yield already
// performs the same bookkeeping after a successful Grab.
func (d *Udeal) Abort() {
	atomic.AddInt32(&d.waiters, -1)
}
