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

package main

import (
	"time"

	"upipe.tools/upipe/ubuf"
	"upipe.tools/upipe/umem"
	"upipe.tools/upipe/upipe"
	"upipe.tools/upipe/upump"
	"upipe.tools/upipe/uprobe"
	"upipe.tools/upipe/uref"
)

// graph holds every allocated pipe and the upump.Mgr driving them, so Run
// can pump the event loop and Close can release everything in the right
// order (source first, so it stops feeding before its downstream is torn
// down).
type graph struct {
	mgr    *upump.Mgr
	source *fileSource
	filter *nullFilter
	sink   *countingSink
}

// buildGraph allocates one file source, one null filter, and one counting
// sink per manifest, wires source -> filter -> sink, and starts the
// source's read pump. probe is shared by every pipe, the way a real
// deployment shares one log/resource-provider probe chain across a
// pipeline.
func buildGraph(m *Manifest, probe uprobe.Probe) (*graph, error) {
	mgr, err := upump.NewMgr()
	if err != nil {
		return nil, err
	}

	blockMgr := ubuf.NewBlockMgr(umem.NewDirect())
	urefMgr := uref.NewMgr(umem.NewDirect())

	source, err := newFileSource(m.Source.Path, m.Source.ChunkSize, urefMgr, blockMgr, probe)
	if err != nil {
		mgr.Close()
		return nil, err
	}
	filter := newNullFilter(m.Filter.Drop, probe)
	sink := newCountingSink(m.Sink.LogEvery, probe)

	source.Control(upipe.CmdSetOutput, filter)
	filter.Control(upipe.CmdSetOutput, sink)

	source.Start(mgr)

	return &graph{mgr: mgr, source: source, filter: filter, sink: sink}, nil
}

// Wait blocks until the source pump stops (end of file or error), polling
// at pollEvery since upump.Mgr exposes no blocking "run until done" call
// for idler-only graphs.
func (g *graph) Wait(pollEvery time.Duration) {
	for g.source.pump.IsRunning() {
		time.Sleep(pollEvery)
	}
}

// Close releases every pipe, source first.
func (g *graph) Close() {
	g.source.Release()
	g.filter.Release()
	g.sink.Release()
	g.mgr.Close()
}
