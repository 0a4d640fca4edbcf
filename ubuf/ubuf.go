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

// Package ubuf implements the three typed, reference-counted,
// copy-on-write buffer views (block, picture, sound) every uref carries its
// payload in. A ubuf never mutates another uref's view: callers must call
// Writable before writing, which returns the same ubuf if it is unshared, or
// a deep copy otherwise.
package ubuf

import (
	"fmt"
	"sync/atomic"

	"upipe.tools/upipe/umem"
)

var (
	// ErrNotWritable is returned by a write operation attempted without
	// first calling Writable.
	ErrNotWritable = fmt.Errorf("ubuf: buffer is shared; call Writable first")

	// ErrMapped is returned by an operation that conflicts with an
	// outstanding Read/Write map session on the ubuf.
	ErrMapped = fmt.Errorf("ubuf: plane is still mapped")

	// ErrOutOfRange is returned when a requested rectangle or offset falls
	// outside the allocated (including margin) area.
	ErrOutOfRange = fmt.Errorf("ubuf: rectangle out of range")

	// ErrChromaUnknown is returned when a plane is addressed by a chroma
	// name the manager does not carry.
	ErrChromaUnknown = fmt.Errorf("ubuf: unknown chroma plane")
)

// shared is the refcounted handle wrapping one or more umem.Mem regions.
// Every ubuf variant embeds a *shared; Dup increments refs, Free decrements
// it and frees the backing umem at zero.
type shared struct {
	refs int32 // atomic
}

func newShared() *shared {
	return &shared{refs: 1}
}

// dup increments the refcount and returns the same shared handle, to be
// attached to the new ubuf's struct.
func (s *shared) dup() *shared {
	atomic.AddInt32(&s.refs, 1)
	return s
}

// single reports whether this ubuf is the only reference to its storage.
// writable(ubuf) returning the same pointer implies this was true (P2).
func (s *shared) single() bool {
	return atomic.LoadInt32(&s.refs) == 1
}

// release decrements the refcount and reports whether it reached zero (the
// caller should then free the backing umem.Mem(s)).
func (s *shared) release() bool {
	return atomic.AddInt32(&s.refs, -1) == 0
}

// Ubuf is the common interface satisfied by Block, Picture, and Sound. Most
// callers type-assert to the concrete variant to access format-specific
// operations; this interface exists so generic code (uref, xfer) can hold
// and release any ubuf without knowing its kind.
type Ubuf interface {
	// Dup returns a new Ubuf sharing the same backing storage, incrementing
	// its reference count.
	Dup() Ubuf

	// Free releases this reference; when the last reference is released,
	// the backing umem is returned to its manager.
	Free()
}

// mgrWithUmem is implemented by every *Mgr type (BlockMgr, PictureMgr, SoundMgr) so
// helper code that only needs the umem.Mgr can extract it generically.
type mgrWithUmem interface {
	umemMgr() umem.Mgr
}
