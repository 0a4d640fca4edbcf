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

// Package upipe implements the pipe/manager runtime: the FOURCC signature
// scheme subtypes use to validate control arguments, the standard control
// command set every pipe recognises or proxies, and the Error codes every
// synchronous call returns.
package upipe

import (
	"fmt"

	"upipe.tools/upipe/upump"
	"upipe.tools/upipe/uprobe"
)

// Signature is a 32-bit FOURCC tag identifying a pipe subtype's control
// command ABI, the way the original disambiguates variadic control
// arguments belonging to different pipe kinds sharing the same dispatcher.
type Signature uint32

// NewSignature packs four ASCII bytes into a Signature, matching the
// original's FOURCC convention (e.g. NewSignature('f','s','r','c') for a
// file source).
func NewSignature(a, b, c, d byte) Signature {
	return Signature(a)<<24 | Signature(b)<<16 | Signature(c)<<8 | Signature(d)
}

func (s Signature) String() string {
	return string([]byte{byte(s >> 24), byte(s >> 16), byte(s >> 8), byte(s)})
}

// Error is the result of a synchronous pipe operation (control, SetFlowDef,
// …). The zero value, ErrNone, means success.
type Error int

const (
	// ErrNone means the operation succeeded.
	ErrNone Error = iota
	// ErrUnknown is an unspecified failure.
	ErrUnknown
	// ErrAlloc is an allocation failure.
	ErrAlloc
	// ErrUpump is an event-loop failure.
	ErrUpump
	// ErrUnhandled means the pipe does not recognise the command; callers
	// usually try a proxy chain or treat this as "keep going".
	ErrUnhandled
	// ErrInvalid means the arguments were well-formed but rejected (e.g. an
	// incompatible SET_FLOW_DEF); a normal negotiation failure, not fatal.
	ErrInvalid
	// ErrExternal is a failure in an external resource (disk, network, …).
	ErrExternal
	// ErrBusy means the pipe cannot currently service the request.
	ErrBusy
	// ErrNoSpc means a fixed-capacity structure (queue, buffer) is full.
	ErrNoSpc
)

func (e Error) String() string {
	switch e {
	case ErrNone:
		return "none"
	case ErrUnknown:
		return "unknown"
	case ErrAlloc:
		return "alloc"
	case ErrUpump:
		return "upump"
	case ErrUnhandled:
		return "unhandled"
	case ErrInvalid:
		return "invalid"
	case ErrExternal:
		return "external"
	case ErrBusy:
		return "busy"
	case ErrNoSpc:
		return "no space"
	default:
		return "?"
	}
}

// Error implements the error interface so an Error can be returned (and
// compared with errors.Is) from any Go function, not just Control.
func (e Error) Error() string { return "upipe: " + e.String() }

// IsFatal reports whether e should be treated as fatal by most callers; the
// original's convention is that e >= ErrUnhandled is non-fatal (negotiation
// failure, unsupported command, transient busy/no-space) while anything
// below it (alloc, upump, unknown) is not something a caller can usually
// route around.
func (e Error) IsFatal() bool { return e != ErrNone && e < ErrUnhandled }

// Cmd identifies a control command. Values below CmdLocal are owned by this
// package; subtypes register their own commands starting at CmdLocal,
// namespaced by their own Signature the way the dispatcher validates it.
type Cmd int

const (
	CmdAttachUpumpMgr Cmd = iota
	CmdAttachUrefMgr
	CmdAttachUbufMgr
	CmdAttachUclock
	CmdGetFlowDef
	CmdSetFlowDef
	CmdGetOutput
	CmdSetOutput
	CmdGetSubMgr
	CmdIterateSub
	CmdSplitIterate
	CmdRegisterRequest
	CmdUnregisterRequest
	CmdGetURI
	CmdSetURI
	CmdGetMaxLength
	CmdSetMaxLength
	CmdGetOutputSize
	CmdSetOutputSize
	// CmdLocal is the first command number available to pipe subtypes.
	CmdLocal
)

// Pipe is the minimal surface every allocated pipe exposes. Non-source
// pipes additionally accept data through Input; subtype-specific behavior
// (codec parameters, filter settings, …) is reached through Control with a
// Cmd >= CmdLocal and the manager's own Signature leading the args.
type Pipe interface {
	// Control dispatches cmd with its arguments, returning ErrUnhandled if
	// this pipe (and anything it proxies to) doesn't recognise it.
	Control(cmd Cmd, args ...any) error
	// Release drops one external reference (urefcount); see the Refcount
	// mixin.
	Release()
}

// Input is implemented by pipes that accept data: sources and pure sinks
// that take no input are not required to implement it.
type Input interface {
	Pipe
	// InputUref pushes a uref into the pipe, along with the upump (if any)
	// whose callback is delivering it, so the pipe can block that pump if
	// it cannot currently accept more data.
	InputUref(u any, p *upump.Pump) error
}

// Manager allocates pipes of one subtype and owns that subtype's Signature.
type Manager interface {
	Signature() Signature
	// Alloc allocates and initializes a new pipe, with probe as its event
	// chain.
	Alloc(probe uprobe.Probe, args ...any) (Pipe, error)
}

// CheckSignature validates that the leading element of args is the
// Signature want, per the dispatcher's FOURCC validation rule for any
// command at or beyond CmdLocal. It returns the remaining arguments.
func CheckSignature(want Signature, args []any) ([]any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: missing signature, want %s", ErrInvalid, want)
	}
	got, ok := args[0].(Signature)
	if !ok || got != want {
		return nil, fmt.Errorf("%w: signature mismatch, want %s", ErrInvalid, want)
	}
	return args[1:], nil
}
