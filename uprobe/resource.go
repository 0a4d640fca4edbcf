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

// Resource is a generic stand-in for the five single-manager provider
// probes the original declares as separate types (uprobe_uref_mgr,
// uprobe_ubuf_mem, uprobe_upump_mgr, uprobe_uclock, uprobe_source_mgr):
// each just stores one manager and answers exactly one NEED_* event with
// it. Go generics collapse the five C structs into one implementation
// parameterized by the event they answer and the manager type they hold.
type Resource[T any] struct {
	Chain

	event Event
	mgr   T
}

// NewResource allocates a Resource probe that answers `event` with mgr.
func NewResource[T any](next Probe, event Event, mgr T) *Resource[T] {
	return &Resource[T]{Chain: NewChain(next), event: event, mgr: mgr}
}

// Set replaces the manager this probe answers with.
func (r *Resource[T]) Set(mgr T) { r.mgr = mgr }

// Get returns the manager this probe currently answers with.
func (r *Resource[T]) Get() T { return r.mgr }

// Throw implements Probe.
func (r *Resource[T]) Throw(pipe any, event Event, args ...any) bool {
	if event != r.event {
		return r.ThrowNext(pipe, event, args...)
	}
	if cb, ok := firstCallback[T](args); ok {
		cb(r.mgr)
	}
	return true
}

func firstCallback[T any](args []any) (func(T), bool) {
	if len(args) == 0 {
		return nil, false
	}
	cb, ok := args[0].(func(T))
	return cb, ok
}
