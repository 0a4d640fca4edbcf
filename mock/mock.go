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

// Package mock provides fake pipes, probes, and managers shared by tests
// across this module, the same role the teacher's mock package played for
// a fake SDR device: a small, configurable stand-in other packages' tests
// build scenarios around instead of each redeclaring its own fake.
package mock

import (
	"upipe.tools/upipe/upipe"
	"upipe.tools/upipe/uprobe"
	"upipe.tools/upipe/upump"
)

// Pipe is a configurable fake upipe.Pipe/upipe.Input. Every call is
// recorded; behavior is driven by the Config it was built from so tests
// read as data rather than a bespoke type per case.
type Pipe struct {
	config Config

	Calls    []upipe.Cmd
	Urefs    []any
	Released bool
}

// Config holds the optional hooks a Pipe consults when called. A nil hook
// falls back to the zero-cost default noted on the field.
type Config struct {
	// Control, if not nil, is called for every Control; otherwise Control
	// returns upipe.ErrUnhandled.
	Control func(cmd upipe.Cmd, args ...any) error

	// InputUref, if not nil, is called for every InputUref; otherwise
	// InputUref always accepts (returns nil).
	InputUref func(u any, p *upump.Pump) error
}

// New builds a Pipe from cfg.
func New(cfg Config) *Pipe {
	return &Pipe{config: cfg}
}

// Control implements upipe.Pipe.
func (p *Pipe) Control(cmd upipe.Cmd, args ...any) error {
	p.Calls = append(p.Calls, cmd)
	if p.config.Control != nil {
		return p.config.Control(cmd, args...)
	}
	return upipe.ErrUnhandled
}

// Release implements upipe.Pipe.
func (p *Pipe) Release() { p.Released = true }

// InputUref implements upipe.Input.
func (p *Pipe) InputUref(u any, pump *upump.Pump) error {
	p.Urefs = append(p.Urefs, u)
	if p.config.InputUref != nil {
		return p.config.InputUref(u, pump)
	}
	return nil
}

var (
	_ upipe.Pipe  = (*Pipe)(nil)
	_ upipe.Input = (*Pipe)(nil)
)

// Manager is a fake upipe.Manager that always returns the pipes queued
// into it via Push, in order, regardless of the args Alloc is called
// with. It is useful for testing code that allocates sub-pipes (bin
// pipes, helper mixins) without depending on a real subtype.
type Manager struct {
	sig   upipe.Signature
	queue []upipe.Pipe
}

// NewManager builds a Manager reporting sig from Signature.
func NewManager(sig upipe.Signature) *Manager {
	return &Manager{sig: sig}
}

// Push enqueues p to be returned by the next Alloc call.
func (m *Manager) Push(p upipe.Pipe) { m.queue = append(m.queue, p) }

// Signature implements upipe.Manager.
func (m *Manager) Signature() upipe.Signature { return m.sig }

// Alloc implements upipe.Manager, popping the next pushed pipe. It
// returns upipe.ErrAlloc if the queue is empty.
func (m *Manager) Alloc(probe uprobe.Probe, args ...any) (upipe.Pipe, error) {
	if len(m.queue) == 0 {
		return nil, upipe.ErrAlloc
	}
	p := m.queue[0]
	m.queue = m.queue[1:]
	return p, nil
}

var _ upipe.Manager = (*Manager)(nil)

// Probe is a fake uprobe.Probe recording every event thrown at it,
// optionally forwarding to a wrapped Chain.
type Probe struct {
	uprobe.Chain
	Events []uprobe.Event
}

// NewProbe builds a Probe chained in front of next (nil is fine).
func NewProbe(next uprobe.Probe) *Probe {
	return &Probe{Chain: uprobe.NewChain(next)}
}

// Throw implements uprobe.Probe, recording event and forwarding it down
// the chain.
func (p *Probe) Throw(pipe any, event uprobe.Event, args ...any) bool {
	p.Events = append(p.Events, event)
	return p.ThrowNext(pipe, event, args...)
}

var _ uprobe.Probe = (*Probe)(nil)

// vim: foldmethod=marker
