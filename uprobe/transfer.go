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

// Transfer marshals events raised on a remote (xfer worker) thread into a
// message the caller thread's own probe chain re-enters. It takes a plain
// Enqueue function rather than a concrete queue type so this package never
// needs to import xfer; the xfer package's worker wires a Transfer probe's
// Enqueue to its outbound bufpipe.
type Transfer struct {
	Chain

	// Enqueue is called with a thunk that replays the event against the
	// caller thread's real probe chain; it must not block the remote
	// thread for long, matching the original xfer queue's role.
	Enqueue func(replay func())
}

// NewTransfer allocates a Transfer probe. enqueue must not be nil.
func NewTransfer(next Probe, enqueue func(replay func())) *Transfer {
	return &Transfer{Chain: NewChain(next), Enqueue: enqueue}
}

// Throw implements Probe: every event is queued for replay on the caller
// thread instead of being handled locally, then treated as handled here
// (the caller thread's chain decides whether to defer further).
func (t *Transfer) Throw(pipe any, event Event, args ...any) bool {
	if t.Enqueue == nil {
		return t.ThrowNext(pipe, event, args...)
	}
	t.Enqueue(func() {
		t.ThrowNext(pipe, event, args...)
	})
	return true
}
