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

package umem

// directMgr is a thin wrapper over the Go allocator: every Alloc is a fresh
// make([]byte, size), every Free just drops the reference. It corresponds to
// umem_alloc.h in the original library.
type directMgr struct{}

// NewDirect returns a Mgr that allocates directly from the Go heap with no
// pooling. Use this when buffer lifetimes are long or unpredictable enough
// that pooling would not pay for itself.
func NewDirect() Mgr {
	return directMgr{}
}

func (directMgr) Alloc(size int) (*Mem, error) {
	return &Mem{mgr: directMgr{}, buf: make([]byte, size)}, nil
}

func (directMgr) Vacuum() {}

func (directMgr) realloc(m *Mem, newSize int) error {
	if newSize <= cap(m.buf) {
		m.buf = m.buf[:newSize]
		return nil
	}
	newBuf := make([]byte, newSize)
	copy(newBuf, m.buf)
	m.buf = newBuf
	return nil
}

func (directMgr) free(m *Mem) {
	m.buf = nil
}
