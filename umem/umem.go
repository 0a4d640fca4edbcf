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

// Package umem implements the raw buffer allocators that every ubuf sits on
// top of: a direct (malloc-backed) manager and a pooled manager that keeps
// freed buffers in power-of-2 size classes.
package umem

import "fmt"

var (
	// ErrPoolSizeNotPowerOfTwo is returned when a pooled manager is created
	// with a pool0 size that is not a power of 2.
	ErrPoolSizeNotPowerOfTwo = fmt.Errorf("umem: pool0 size must be a power of 2")

	// ErrNilBuf is returned by operations on a released umem.
	ErrNilBuf = fmt.Errorf("umem: buffer is nil or already freed")
)

// Mem is one raw allocation: a buffer plus a back-pointer to the manager
// that owns it. A Mem is never shared between two ubufs; sharing happens one
// level up, at the ubuf layer, via reference counting.
type Mem struct {
	mgr Mgr
	buf []byte
}

// Buffer returns the current backing slice. It is invalidated by Realloc.
func (m *Mem) Buffer() []byte {
	if m == nil {
		return nil
	}
	return m.buf
}

// Size returns the length of the current backing slice.
func (m *Mem) Size() int {
	if m == nil {
		return 0
	}
	return len(m.buf)
}

// Realloc resizes m in place (from the caller's point of view): Buffer may
// afterwards return a different underlying array. Old data is preserved up
// to min(oldSize, newSize).
func (m *Mem) Realloc(newSize int) error {
	if m == nil {
		return ErrNilBuf
	}
	return m.mgr.realloc(m, newSize)
}

// Free releases m back to its manager. m must not be used afterwards.
func (m *Mem) Free() {
	if m == nil {
		return
	}
	m.mgr.free(m)
}

// Mgr is the umem manager interface: a factory for Mem buffers, optionally
// backed by pools. Implementations must be safe for concurrent use, since a
// umem manager may be shared across threads (it is one of the refcounted,
// atomically-managed objects in spec.md §5).
type Mgr interface {
	// Alloc returns a new Mem whose buffer is at least size bytes long.
	Alloc(size int) (*Mem, error)

	// Vacuum empties any pools held by this manager, returning their memory
	// to the Go runtime. It is a no-op for managers that do not pool.
	Vacuum()

	realloc(m *Mem, newSize int) error
	free(m *Mem)
}
