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

// The pipe types in this file are deliberately minimal: they exist to give
// the demo manifest something real to wire together (Alloc, Control,
// InputUref, the probe chain), not to be a general-purpose file source.
package main

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"upipe.tools/upipe/ubuf"
	"upipe.tools/upipe/upipe"
	"upipe.tools/upipe/upump"
	"upipe.tools/upipe/uprobe"
	"upipe.tools/upipe/uref"
)

// fileSource reads a file in fixed-size chunks and pushes one uref per
// chunk downstream, driven by an idler pump marked as a source (so a
// manager-wide SinkBlock stops it); a downstream InputQueue that has to
// queue a chunk stops that pump itself until the queue drains.
type fileSource struct {
	*upipe.Refcount
	out   *upipe.Output
	probe uprobe.Probe

	f         *os.File
	chunkSize int
	blockMgr  *ubuf.BlockMgr
	urefMgr   *uref.Mgr

	pump  *upump.Pump
	count int
}

func newFileSource(path string, chunkSize int, urefMgr *uref.Mgr, blockMgr *ubuf.BlockMgr, probe uprobe.Probe) (*fileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("upipedemo: opening source: %w", err)
	}
	s := &fileSource{
		out:       upipe.NewOutput(),
		probe:     probe,
		f:         f,
		chunkSize: chunkSize,
		blockMgr:  blockMgr,
		urefMgr:   urefMgr,
	}
	s.Refcount = upipe.NewRefcount(s.noRef)
	probe.Throw(s, uprobe.EventReady)
	return s, nil
}

func (s *fileSource) noRef() {
	s.f.Close()
	if s.pump != nil {
		s.pump.Free()
	}
	s.probe.Throw(s, uprobe.EventDead)
}

// Start attaches the source to mgr and begins reading.
func (s *fileSource) Start(mgr *upump.Mgr) {
	s.pump = mgr.AllocIdler(func(p *upump.Pump) { s.tick(p) })
	s.pump.SetSource(true)
	s.pump.Start()
}

func (s *fileSource) tick(p *upump.Pump) {
	buf := make([]byte, s.chunkSize)
	n, err := s.f.Read(buf)
	if n > 0 {
		s.emit(buf[:n], p)
	}
	if err != nil {
		p.Stop()
		s.probe.Throw(s, uprobe.EventSourceEnd)
		if err != io.EOF {
			s.probe.Throw(s, uprobe.EventError, upipe.ErrExternal)
		}
	}
}

func (s *fileSource) emit(data []byte, p *upump.Pump) {
	b, err := s.blockMgr.Alloc(len(data))
	if err != nil {
		s.probe.Throw(s, uprobe.EventError, upipe.ErrAlloc)
		return
	}
	copy(b.Bytes(), data)

	u, err := s.urefMgr.Alloc()
	if err != nil {
		b.Free()
		s.probe.Throw(s, uprobe.EventError, upipe.ErrAlloc)
		return
	}
	u.Ubuf = b
	s.count++

	output, _ := s.out.Get()
	if in, ok := output.(upipe.Input); ok {
		in.InputUref(u, p)
	}
}

func (s *fileSource) Control(cmd upipe.Cmd, args ...any) error {
	switch cmd {
	case upipe.CmdSetOutput:
		if len(args) != 1 {
			return upipe.ErrInvalid
		}
		out, _ := args[0].(upipe.Pipe)
		s.out.SetOutput(out)
		return nil
	case upipe.CmdGetOutput:
		out, _ := s.out.Get()
		return assignOut(args, out)
	}
	return upipe.ErrUnhandled
}

var _ upipe.Pipe = (*fileSource)(nil)

// nullFilter passes every uref straight through unless configured to drop,
// mirroring upipe_null's two modes.
type nullFilter struct {
	*upipe.Refcount
	*upipe.InputQueue
	out   *upipe.Output
	probe uprobe.Probe
	drop  bool
}

func newNullFilter(drop bool, probe uprobe.Probe) *nullFilter {
	f := &nullFilter{
		out:   upipe.NewOutput(),
		probe: probe,
		drop:  drop,
	}
	f.Refcount = upipe.NewRefcount(func() { probe.Throw(f, uprobe.EventDead) })
	f.InputQueue = upipe.NewInput(f.handle)
	probe.Throw(f, uprobe.EventReady)
	return f
}

// InputUref implements upipe.Input by handing u to the InputQueue mixin,
// which either runs handle immediately or queues it under backpressure.
func (f *nullFilter) InputUref(u any, p *upump.Pump) error {
	return f.Feed(u, p)
}

func (f *nullFilter) handle(u any, p *upump.Pump) bool {
	if f.drop {
		if ur, ok := u.(*uref.Uref); ok {
			ur.Free()
		}
		return true
	}
	output, _ := f.out.Get()
	in, ok := output.(upipe.Input)
	if !ok {
		return false
	}
	in.InputUref(u, p)
	return true
}

func (f *nullFilter) Control(cmd upipe.Cmd, args ...any) error {
	switch cmd {
	case upipe.CmdSetOutput:
		if len(args) != 1 {
			return upipe.ErrInvalid
		}
		out, _ := args[0].(upipe.Pipe)
		f.out.SetOutput(out)
		return nil
	case upipe.CmdGetOutput:
		out, _ := f.out.Get()
		return assignOut(args, out)
	}
	return upipe.ErrUnhandled
}

var (
	_ upipe.Pipe  = (*nullFilter)(nil)
	_ upipe.Input = (*nullFilter)(nil)
)

// countingSink counts every uref delivered to it, releasing each one
// immediately, and optionally throws a log notice every LogEvery urefs.
type countingSink struct {
	*upipe.Refcount
	*upipe.InputQueue
	probe    uprobe.Probe
	logEvery int
	count    int32 // atomic: read from Count without the owning goroutine
}

func newCountingSink(logEvery int, probe uprobe.Probe) *countingSink {
	s := &countingSink{probe: probe, logEvery: logEvery}
	s.Refcount = upipe.NewRefcount(func() { probe.Throw(s, uprobe.EventDead) })
	s.InputQueue = upipe.NewInput(s.handle)
	probe.Throw(s, uprobe.EventReady)
	return s
}

// InputUref implements upipe.Input by handing u to the InputQueue mixin.
func (s *countingSink) InputUref(u any, p *upump.Pump) error {
	return s.Feed(u, p)
}

func (s *countingSink) handle(u any, p *upump.Pump) bool {
	if ur, ok := u.(*uref.Uref); ok {
		ur.Free()
	}
	n := atomic.AddInt32(&s.count, 1)
	if s.logEvery > 0 && int(n)%s.logEvery == 0 {
		s.probe.Throw(s, uprobe.EventLog, uprobe.LogEvent{
			Level:   uprobe.LogNotice,
			Message: fmt.Sprintf("received %d urefs", n),
		})
	}
	return true
}

func (s *countingSink) Control(cmd upipe.Cmd, args ...any) error {
	return upipe.ErrUnhandled
}

// Count returns the number of urefs this sink has received so far; safe
// to call from any goroutine while the source pump is still running.
func (s *countingSink) Count() int { return int(atomic.LoadInt32(&s.count)) }

var (
	_ upipe.Pipe  = (*countingSink)(nil)
	_ upipe.Input = (*countingSink)(nil)
)

// assignOut writes out into the single *upipe.Pipe destination pointer
// passed as args[0], matching the GET_* control command convention used
// throughout upipe (the caller supplies the pointer to fill in).
func assignOut(args []any, out upipe.Pipe) error {
	if len(args) != 1 {
		return upipe.ErrInvalid
	}
	dst, ok := args[0].(*upipe.Pipe)
	if !ok {
		return upipe.ErrInvalid
	}
	*dst = out
	return nil
}
