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

// Package uprobe implements the event chain every pipe is given at alloc
// time: a linked list of probes, each either handling an event or deferring
// to the next one. Probes take an opaque pipe handle (any) rather than a
// concrete pipe type, so this package never needs to import upipe.
package uprobe

// Event identifies what a pipe is reporting to its probe chain.
type Event int

const (
	// EventLog carries a LogEvent: level, message, prefix tags.
	EventLog Event = iota
	// EventFatal carries an error code; the pipe cannot continue.
	EventFatal
	// EventError carries an error code; the pipe hit a recoverable problem.
	EventError
	// EventReady signals a pipe has finished initializing.
	EventReady
	// EventDead signals a pipe is about to be destroyed.
	EventDead
	// EventNeedUrefMgr asks a probe to provide a uref.Mgr.
	EventNeedUrefMgr
	// EventNeedUbufMgr asks a probe to provide a ubuf manager.
	EventNeedUbufMgr
	// EventNeedUpumpMgr asks a probe to provide a upump.Mgr.
	EventNeedUpumpMgr
	// EventNeedUclock asks a probe to provide a uclock.Clock.
	EventNeedUclock
	// EventNeedSourceMgr asks a probe to provide a source manager.
	EventNeedSourceMgr
	// EventFreezeUpumpMgr asks pump-mgr-providing probes to stop answering
	// NeedUpumpMgr temporarily.
	EventFreezeUpumpMgr
	// EventThawUpumpMgr reverses EventFreezeUpumpMgr.
	EventThawUpumpMgr
	// EventProvideRequest carries a *urequest.Request an output could not
	// forward because it has no output of its own.
	EventProvideRequest
	// EventNewFlowDef announces a pipe's new output flow definition.
	EventNewFlowDef
	// EventSourceEnd signals end of stream on a source.
	EventSourceEnd
	// EventSinkEnd signals end of stream on a sink.
	EventSinkEnd
	// EventNeedOutput tells a split pipe's watcher a new flow is ready to be
	// connected to a sub-pipe.
	EventNeedOutput
	// EventSplitUpdate signals a split pipe's flow set changed.
	EventSplitUpdate
	// EventClockRef carries a program clock reference for dejittering.
	EventClockRef
	// EventClockTs carries a uref whose timestamps should be dejittered.
	EventClockTs
	// EventNewFlow (demux) declares a new elementary stream.
	EventNewFlow
	// EventLocal is the base for subsystem-private event numbers, namespaced
	// by the pipe's own signature the way the C implementation namespaces
	// local events by a 32-bit FOURCC plus an offset.
	EventLocal
)

// LogLevel orders uprobe's log severities from most to least verbose.
type LogLevel int

const (
	LogVerbose LogLevel = iota
	LogDebug
	LogInfo
	LogNotice
	LogWarning
	LogError
)

func (l LogLevel) String() string {
	switch l {
	case LogVerbose:
		return "verbose"
	case LogDebug:
		return "debug"
	case LogInfo:
		return "info"
	case LogNotice:
		return "notice"
	case LogWarning:
		return "warning"
	case LogError:
		return "error"
	default:
		return "unknown"
	}
}

// LogEvent is the payload of EventLog.
type LogEvent struct {
	Level   LogLevel
	Message string
	// Tags are prefixes applied (outermost first) by every prefix probe the
	// event passed through on its way up the chain.
	Tags []string
}

// Probe is one link in a pipe's event chain. Throw is called with the pipe
// raising the event, the event itself, and its type-specific arguments; it
// returns true if the event was handled (whether or not by this probe).
type Probe interface {
	Throw(pipe any, event Event, args ...any) bool
}

// ThrowFunc adapts a plain function to the Probe interface.
type ThrowFunc func(pipe any, event Event, args ...any) bool

// Throw implements Probe.
func (f ThrowFunc) Throw(pipe any, event Event, args ...any) bool {
	return f(pipe, event, args...)
}

// ThrowNext forwards an event to next, treating a nil next as "unhandled".
func ThrowNext(next Probe, pipe any, event Event, args ...any) bool {
	if next == nil {
		return false
	}
	return next.Throw(pipe, event, args...)
}

// Chain is a cons-list base every standard probe embeds: it stores the next
// probe to defer to and exposes Next/SetNext the way helper mixins expose
// their own local state.
type Chain struct {
	next Probe
}

// NewChain returns a Chain pointing at next (possibly nil).
func NewChain(next Probe) Chain { return Chain{next: next} }

// Next returns the next probe to test if this one doesn't catch an event.
func (c *Chain) Next() Probe { return c.next }

// SetNext changes the next probe in the chain.
func (c *Chain) SetNext(next Probe) { c.next = next }

// ThrowNext defers to the chain's next probe.
func (c *Chain) ThrowNext(pipe any, event Event, args ...any) bool {
	return ThrowNext(c.next, pipe, event, args...)
}
