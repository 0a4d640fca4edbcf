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

import "sync/atomic"

// Refcount is the external reference count every pipe embeds: Use
// increments it, Release decrements it and invokes noRef exactly once when
// it reaches zero. noRef typically stops the pipe's input and releases its
// output, but the pipe may still hold internal references (RefcountReal)
// keeping it alive for in-flight events.
type Refcount struct {
	count int32 // atomic, starts at 1 from NewRefcount
	noRef func()
}

// NewRefcount returns a Refcount starting at one reference, invoking noRef
// when Release brings it to zero.
func NewRefcount(noRef func()) *Refcount {
	return &Refcount{count: 1, noRef: noRef}
}

// Use adds one external reference.
func (r *Refcount) Use() { atomic.AddInt32(&r.count, 1) }

// Release drops one external reference, invoking noRef if this was the
// last one.
func (r *Refcount) Release() {
	if atomic.AddInt32(&r.count, -1) == 0 && r.noRef != nil {
		r.noRef()
	}
}

// Count returns the current number of external references (for tests and
// diagnostics only; production code must not branch on it).
func (r *Refcount) Count() int32 { return atomic.LoadInt32(&r.count) }

// RefcountReal is the second refcount layer: it additionally counts
// internal holders (e.g. an inner pipe's output still feeding events back
// to this one) so the pipe survives after Refcount reaches zero as long as
// something is still using it. Free is invoked exactly once when both
// layers have dropped to zero.
type RefcountReal struct {
	external *Refcount
	internal int32 // atomic
	free     func()
	freed    int32 // atomic bool, guards against double-free
}

// NewRefcountReal wraps external (the pipe's normal refcount) with an
// internal counter; free is called once both are at zero.
func NewRefcountReal(external *Refcount, free func()) *RefcountReal {
	r := &RefcountReal{external: external, free: free}
	realNoRef := external.noRef
	external.noRef = func() {
		if realNoRef != nil {
			realNoRef()
		}
		r.maybeFree()
	}
	return r
}

// UseReal adds one internal reference.
func (r *RefcountReal) UseReal() { atomic.AddInt32(&r.internal, 1) }

// ReleaseReal drops one internal reference.
func (r *RefcountReal) ReleaseReal() {
	atomic.AddInt32(&r.internal, -1)
	r.maybeFree()
}

func (r *RefcountReal) maybeFree() {
	if r.external.Count() != 0 || atomic.LoadInt32(&r.internal) != 0 {
		return
	}
	if atomic.CompareAndSwapInt32(&r.freed, 0, 1) && r.free != nil {
		r.free()
	}
}
