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

package uprobe

import "fmt"

// PthreadAssert guards that every event on a pipe using this probe chain is
// raised from one fixed goroutine-equivalent "thread" identifier. Go has no
// portable pthread_t; callers supply whatever token identifies their
// worker (typically the xfer worker's own id), matching the header's
// "asserted pthread ID, latched on first use" semantics one for one.
type PthreadAssert struct {
	Chain

	inited   bool
	threadID uint64
}

// NewPthreadAssert allocates a PthreadAssert probe with no thread ID
// latched yet; the first event it sees sets it.
func NewPthreadAssert(next Probe) *PthreadAssert {
	return &PthreadAssert{Chain: NewChain(next)}
}

// Set pins the asserted thread ID explicitly, as uprobe_pthread_assert_set
// does.
func (p *PthreadAssert) Set(threadID uint64) {
	p.threadID = threadID
	p.inited = true
}

// Throw implements Probe. It panics if called from a thread ID other than
// the latched one, since a pthread assertion failure is fatal on the
// original implementation too (abort()).
func (p *PthreadAssert) Throw(pipe any, event Event, args ...any) bool {
	threadID := currentThreadID()
	if !p.inited {
		p.threadID = threadID
		p.inited = true
	} else if p.threadID != threadID {
		panic(fmt.Sprintf("uprobe: event raised from thread %d, asserted thread is %d", threadID, p.threadID))
	}
	return p.ThrowNext(pipe, event, args...)
}

// currentThreadID identifies the calling goroutine's logical "thread" for
// PthreadAssert's purposes. Go goroutines are not pinned to OS threads, so
// callers that need the assertion to mean anything must run on a
// goroutine dedicated to one upump_mgr (exactly the xfer worker pattern)
// and call Set explicitly with that worker's id instead of relying on this
// default, which only distinguishes "the same caller" in tests.
var currentThreadID = func() uint64 { return 0 }
