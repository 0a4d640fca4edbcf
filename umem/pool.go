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

import "sync"

// pool holds buffers of exactly one size class, with a cap on how many
// released buffers it will keep before it starts freeing directly to the Go
// GC.
type pool struct {
	mu      sync.Mutex
	size    int
	max     int
	buffers [][]byte
}

func (p *pool) get() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.buffers)
	if n == 0 {
		return make([]byte, p.size)
	}
	b := p.buffers[n-1]
	p.buffers = p.buffers[:n-1]
	return b[:p.size]
}

func (p *pool) put(b []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.buffers) >= p.max {
		return
	}
	p.buffers = append(p.buffers, b)
}

func (p *pool) vacuum() {
	p.mu.Lock()
	p.buffers = nil
	p.mu.Unlock()
}

// poolMgr is the pooled implementation of Mgr. It mirrors umem_pool.h:
// pools are indexed by power-of-2 size class starting at pool0Size, up to
// nbPools classes; anything smaller than pool0Size is rounded up into the
// first pool, anything larger than the biggest pool's size is allocated and
// freed directly.
type poolMgr struct {
	pool0Size int
	pools     []*pool
}

// PoolDepth describes the retention cap of a single size class: Depth is how
// many released buffers of that size the pool will hold onto.
type PoolDepth struct {
	Depth int
}

// NewPooled allocates a new pooled Mgr. pool0Size is the size (in bytes) of
// the smallest size class and must be a power of 2; depths gives, for each
// of len(depths) size classes (pool0Size, pool0Size*2, pool0Size*4, ...),
// the maximum number of freed buffers to retain. Allocations bigger than the
// largest configured size class bypass the pool entirely.
func NewPooled(pool0Size int, depths []int) (Mgr, error) {
	if pool0Size <= 0 || pool0Size&(pool0Size-1) != 0 {
		return nil, ErrPoolSizeNotPowerOfTwo
	}
	pools := make([]*pool, len(depths))
	size := pool0Size
	for i, depth := range depths {
		pools[i] = &pool{size: size, max: depth}
		size <<= 1
	}
	return &poolMgr{pool0Size: pool0Size, pools: pools}, nil
}

// NewPooledSimple mirrors umem_pool_mgr_alloc_simple: nbPools size classes
// starting at 2^10 (1KB) bytes; the first two classes retain baseDepth
// buffers, and the depth is halved after every second class (down to a
// minimum of 1).
func NewPooledSimple(baseDepth int) Mgr {
	const pool0Size = 1 << 10
	const nbPools = 16
	depths := make([]int, nbPools)
	d := baseDepth
	for i := range depths {
		if d < 1 {
			d = 1
		}
		depths[i] = d
		if i%2 == 1 {
			d /= 2
		}
	}
	mgr, _ := NewPooled(pool0Size, depths)
	return mgr
}

// classFor returns the pool index able to serve size bytes, or -1 if size
// exceeds every configured class.
func (m *poolMgr) classFor(size int) int {
	if size <= 0 {
		return 0
	}
	s := m.pool0Size
	for i := range m.pools {
		if size <= s {
			return i
		}
		s <<= 1
	}
	return -1
}

func (m *poolMgr) Alloc(size int) (*Mem, error) {
	idx := m.classFor(size)
	if idx < 0 {
		return &Mem{mgr: m, buf: make([]byte, size)}, nil
	}
	buf := m.pools[idx].get()[:size]
	return &Mem{mgr: m, buf: buf}, nil
}

func (m *poolMgr) Vacuum() {
	for _, p := range m.pools {
		p.vacuum()
	}
}

// realloc implements alloc+copy+free when the size class changes, and an
// in-place resize when it doesn't — matching the header's documented
// behavior ("realloc is implemented as alloc + copy + free when the size
// class changes").
func (m *poolMgr) realloc(mem *Mem, newSize int) error {
	oldIdx := m.classFor(len(mem.buf))
	newIdx := m.classFor(newSize)
	if oldIdx == newIdx && newIdx >= 0 && newSize <= cap(mem.buf) {
		mem.buf = mem.buf[:newSize]
		return nil
	}
	newMem, err := m.Alloc(newSize)
	if err != nil {
		return err
	}
	copy(newMem.buf, mem.buf)
	m.free(mem)
	mem.buf = newMem.buf
	return nil
}

func (m *poolMgr) free(mem *Mem) {
	idx := m.classFor(cap(mem.buf))
	if idx >= 0 && idx < len(m.pools) {
		m.pools[idx].put(mem.buf[:cap(mem.buf)])
	}
	mem.buf = nil
}
