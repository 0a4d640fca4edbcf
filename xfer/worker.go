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

package xfer

import (
	"upipe.tools/upipe/internal/bufpipe"
	"upipe.tools/upipe/upipe"
	"upipe.tools/upipe/upump"
	"upipe.tools/upipe/uprobe"
)

// Factory builds the real pipe once it is running on the worker's own
// goroutine, given that goroutine's own upump.Mgr so the pipe can attach
// it the normal way (CmdAttachUpumpMgr).
type Factory func(mgr *upump.Mgr) (upipe.Pipe, error)

// Worker runs one real pipe on a dedicated goroutine ("thread" in upipe's
// terms) and gives callers on other goroutines a Proxy to reach it through.
// It mirrors upipe_pthread_transfer's pairing of a pthread, a upump_mgr
// bound to it, and the transfer queues feeding it.
type Worker struct {
	mgr      *upump.Mgr
	input    *Mgr
	outbound *bufpipe.Pipe[func()]
	drainer  *upump.Pump
	done     chan struct{}
}

// NewWorker spawns the worker goroutine, builds its upump.Mgr, calls
// build to allocate the real pipe on that goroutine, and starts an idler
// pump draining queued messages into it. queueDepth bounds how many
// in-flight messages the input side may hold before Proxy calls start
// failing with upipe.ErrNoSpc.
func NewWorker(build Factory, queueDepth int) (*Worker, error) {
	mgr, err := upump.NewMgr()
	if err != nil {
		return nil, err
	}

	w := &Worker{
		mgr:      mgr,
		input:    NewMgr(queueDepth),
		outbound: bufpipe.New[func()](queueDepth),
		done:     make(chan struct{}),
	}

	ready := make(chan error, 1)
	go w.run(build, ready)
	if err := <-ready; err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Worker) run(build Factory, ready chan<- error) {
	real, err := build(w.mgr)
	if err != nil {
		ready <- err
		close(w.done)
		return
	}

	w.drainer = w.mgr.AllocIdler(func(*upump.Pump) {
		w.input.Drain(real)
	})
	if err := w.drainer.Start(); err != nil {
		ready <- err
		close(w.done)
		return
	}
	ready <- nil
}

// Proxy returns a upipe.Input that relays calls to the real pipe running
// on this worker's goroutine.
func (w *Worker) Proxy() *Proxy {
	return NewProxy(w.input)
}

// Close stops the draining idler pump and closes the worker's upump.Mgr.
// It does not wait for already-queued messages to drain; call Proxy's
// Release first and drain manually if that ordering matters.
func (w *Worker) Close() error {
	if w.drainer != nil {
		w.drainer.Free()
	}
	return w.mgr.Close()
}

// TransferProbe returns a uprobe.Transfer that queues every event thrown
// on the worker's goroutine for replay against next once DrainEvents runs
// on the caller's own goroutine. Pass this as the probe a Factory hands
// to upipe.Manager.Alloc so events cross the thread boundary the same way
// data does.
func (w *Worker) TransferProbe(next uprobe.Probe) *uprobe.Transfer {
	return uprobe.NewTransfer(next, w.enqueueEvent)
}

func (w *Worker) enqueueEvent(replay func()) {
	_ = w.outbound.Write(replay)
}

// DrainEvents replays every probe event currently queued from the worker
// goroutine against the probe chain TransferProbe was built with. Call it
// from the caller's own goroutine, e.g. from its own idler pump.
func (w *Worker) DrainEvents() {
	for {
		replay, ok := w.outbound.TryRead()
		if !ok {
			return
		}
		replay()
	}
}
