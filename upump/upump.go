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

// Package upump implements the event-loop abstraction every pipe schedules
// its I/O through: idler, timer, fd-read/write, and signal pumps, all bound
// to exactly one Mgr. Pumps are stopped by default and not refcounted; a
// caller Frees them explicitly. Source pumps may be blocked by any number
// of downstream sinks, the way a sink applies backpressure to everything
// upstream of it.
package upump

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// ErrAlreadyRunning is returned by Start on a pump that is already started.
var ErrAlreadyRunning = fmt.Errorf("upump: pump already running")

// Kind identifies what triggers a Pump's callback.
type Kind int

const (
	// KindIdler fires its callback repeatedly whenever the loop is idle.
	KindIdler Kind = iota
	// KindTimer fires on a fixed interval.
	KindTimer
	// KindFDRead fires when a file descriptor becomes readable.
	KindFDRead
	// KindFDWrite fires when a file descriptor becomes writable.
	KindFDWrite
	// KindSignal fires when a Unix signal is delivered.
	KindSignal
)

// Callback is invoked by the owning Mgr's loop when a Pump triggers.
type Callback func(p *Pump)

// Pump is bound to exactly one Mgr for its lifetime. It is stopped by
// default (Alloc does not imply Start), and is not reference-counted: Free
// releases it unconditionally.
type Pump struct {
	mgr     *Mgr
	kind    Kind
	cb      Callback
	Opaque  any
	source  bool // true if downstream sinks may block this pump

	running int32 // atomic bool
	stop    chan struct{}

	fd       int
	sig      int
	interval time.Duration
}

// Kind returns this pump's kind.
func (p *Pump) Kind() Kind { return p.kind }

// SetSource marks this pump as a source: the manager will stop it while
// any downstream sink has called SinkBlock and not yet matched it with
// SinkUnblock.
func (p *Pump) SetSource(source bool) { p.source = source }

// IsSource reports whether this pump is marked as a source.
func (p *Pump) IsSource() bool { return p.source }

// IsRunning reports whether Start has been called without a matching Stop.
func (p *Pump) IsRunning() bool { return atomic.LoadInt32(&p.running) == 1 }

// Start begins dispatching this pump's callback. Starting an
// already-running pump is a no-op.
func (p *Pump) Start() error {
	if !atomic.CompareAndSwapInt32(&p.running, 0, 1) {
		return nil
	}
	p.mgr.start(p)
	return nil
}

// Stop halts dispatch without freeing the pump; Start may be called again
// later.
func (p *Pump) Stop() error {
	if !atomic.CompareAndSwapInt32(&p.running, 1, 0) {
		return nil
	}
	p.mgr.stop(p)
	return nil
}

// Free stops the pump (if running) and releases any resources the manager
// holds for it (epoll registration, signalfd, ticker). p must not be used
// afterward.
func (p *Pump) Free() {
	p.Stop()
	p.mgr.free(p)
}

// Mgr owns every Pump allocated from it and runs the reactor loop that
// dispatches their callbacks. Source pumps are collectively paused while
// nbBlockedSinks is nonzero.
type Mgr struct {
	mu             sync.Mutex
	nbBlockedSinks int32 // atomic
	pumps          map[*Pump]struct{} // every pump allocated from this manager
	stoppedByBlock map[*Pump]struct{} // source pumps this manager itself stopped
	backend        backend
}

// NewMgr creates a Mgr with its reactor backend (epoll-based fd/signal
// dispatch, goroutine-based idler/timer dispatch) ready to use.
func NewMgr() (*Mgr, error) {
	b, err := newBackend()
	if err != nil {
		return nil, err
	}
	return &Mgr{
		pumps:          make(map[*Pump]struct{}),
		stoppedByBlock: make(map[*Pump]struct{}),
		backend:        b,
	}, nil
}

func (m *Mgr) register(p *Pump) *Pump {
	m.mu.Lock()
	m.pumps[p] = struct{}{}
	m.mu.Unlock()
	return p
}

// AllocIdler allocates a stopped idler pump.
func (m *Mgr) AllocIdler(cb Callback) *Pump {
	return m.register(&Pump{mgr: m, kind: KindIdler, cb: cb, stop: make(chan struct{})})
}

// AllocTimer allocates a stopped timer pump that fires every interval.
func (m *Mgr) AllocTimer(interval time.Duration, cb Callback) *Pump {
	return m.register(&Pump{mgr: m, kind: KindTimer, cb: cb, interval: interval, stop: make(chan struct{})})
}

// AllocFDRead allocates a stopped pump that fires when fd is readable.
func (m *Mgr) AllocFDRead(fd int, cb Callback) *Pump {
	return m.register(&Pump{mgr: m, kind: KindFDRead, cb: cb, fd: fd, stop: make(chan struct{})})
}

// AllocFDWrite allocates a stopped pump that fires when fd is writable.
func (m *Mgr) AllocFDWrite(fd int, cb Callback) *Pump {
	return m.register(&Pump{mgr: m, kind: KindFDWrite, cb: cb, fd: fd, stop: make(chan struct{})})
}

// AllocSignal allocates a stopped pump that fires when Unix signal sig is
// delivered to the process.
func (m *Mgr) AllocSignal(sig int, cb Callback) *Pump {
	return m.register(&Pump{mgr: m, kind: KindSignal, cb: cb, sig: sig, stop: make(chan struct{})})
}

func (m *Mgr) start(p *Pump) { m.backend.start(p) }
func (m *Mgr) stop(p *Pump)  { m.backend.stop(p) }

func (m *Mgr) free(p *Pump) {
	m.backend.free(p)
	m.mu.Lock()
	delete(m.pumps, p)
	delete(m.stoppedByBlock, p)
	m.mu.Unlock()
}

// SinkBlock registers that one downstream sink requires every source pump
// on this manager to stop; the first call (0 -> 1 transition) stops every
// running pump marked as a source, remembering exactly those so
// SinkUnblock can restore them.
func (m *Mgr) SinkBlock() {
	if atomic.AddInt32(&m.nbBlockedSinks, 1) != 1 {
		return
	}
	m.mu.Lock()
	var toStop []*Pump
	for p := range m.pumps {
		if p.source && p.IsRunning() {
			m.stoppedByBlock[p] = struct{}{}
			toStop = append(toStop, p)
		}
	}
	m.mu.Unlock()
	for _, p := range toStop {
		p.Stop()
	}
}

// SinkUnblock reverses one SinkBlock call; the last matching call (1 -> 0
// transition) restarts every source pump that SinkBlock had stopped.
func (m *Mgr) SinkUnblock() {
	if atomic.AddInt32(&m.nbBlockedSinks, -1) != 0 {
		return
	}
	m.mu.Lock()
	toStart := make([]*Pump, 0, len(m.stoppedByBlock))
	for p := range m.stoppedByBlock {
		toStart = append(toStart, p)
	}
	m.stoppedByBlock = make(map[*Pump]struct{})
	m.mu.Unlock()
	for _, p := range toStart {
		p.Start()
	}
}

// Close shuts down the manager's reactor loop and releases its backend
// resources. Pumps must be freed (or will simply stop dispatching) before
// or after Close.
func (m *Mgr) Close() error {
	return m.backend.close()
}
