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

import "sync"

// PthreadUpumpMgr resolves EventNeedUpumpMgr from a thread-local slot: each
// worker thread (goroutine, in this port) registers its own upump.Mgr under
// a key it controls, the way the original keys a pthread_key_t off of
// pthread_self(). It also answers EventFreezeUpumpMgr/EventThawUpumpMgr by
// suppressing NeedUpumpMgr answers while frozen, which a pipe's owner uses
// to walk a remote graph without a manager being handed out mid-walk.
type PthreadUpumpMgr struct {
	Chain

	mu     sync.Mutex
	byKey  map[any]any // key -> *upump.Mgr, typed any to avoid an import cycle
	frozen bool
}

// NewPthreadUpumpMgr allocates a PthreadUpumpMgr probe with no managers
// registered.
func NewPthreadUpumpMgr(next Probe) *PthreadUpumpMgr {
	return &PthreadUpumpMgr{Chain: NewChain(next), byKey: make(map[any]any)}
}

// Set registers mgr as the upump manager to hand out for key (typically
// the calling worker's own identity token).
func (p *PthreadUpumpMgr) Set(key any, mgr any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byKey[key] = mgr
}

// Throw implements Probe.
func (p *PthreadUpumpMgr) Throw(pipe any, event Event, args ...any) bool {
	switch event {
	case EventFreezeUpumpMgr:
		p.mu.Lock()
		p.frozen = true
		p.mu.Unlock()
		return true
	case EventThawUpumpMgr:
		p.mu.Lock()
		p.frozen = false
		p.mu.Unlock()
		return true
	case EventNeedUpumpMgr:
		p.mu.Lock()
		frozen := p.frozen
		p.mu.Unlock()
		if frozen || len(args) < 2 {
			return p.ThrowNext(pipe, event, args...)
		}
		key := args[0]
		p.mu.Lock()
		mgr, ok := p.byKey[key]
		p.mu.Unlock()
		if !ok {
			return p.ThrowNext(pipe, event, args...)
		}
		if cb, ok := args[1].(func(any)); ok {
			cb(mgr)
			return true
		}
		return p.ThrowNext(pipe, event, args...)
	default:
		return p.ThrowNext(pipe, event, args...)
	}
}
