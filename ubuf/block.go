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

package ubuf

import (
	"upipe.tools/upipe/umem"
)

// BlockMgr allocates Block ubufs from a single umem.Mgr.
type BlockMgr struct {
	mem umem.Mgr
}

// NewBlockMgr wraps mem as a BlockMgr.
func NewBlockMgr(mem umem.Mgr) *BlockMgr {
	return &BlockMgr{mem: mem}
}

func (m *BlockMgr) umemMgr() umem.Mgr { return m.mem }

// Alloc returns a new Block of size bytes, all of them visible.
func (m *BlockMgr) Alloc(size int) (*Block, error) {
	mem, err := m.mem.Alloc(size)
	if err != nil {
		return nil, err
	}
	return &Block{mgr: m, shared: newShared(), mem: mem, offset: 0, size: size}, nil
}

// Block is a ubuf holding a contiguous octet stream. It may be a logical
// slice (offset, size) of a larger shared region: shrinking is O(1),
// growing past the end of the backing umem allocates.
type Block struct {
	mgr    *BlockMgr
	shared *shared
	mem    *umem.Mem
	offset int
	size   int
}

// Size returns the number of bytes visible through this Block.
func (b *Block) Size() int { return b.size }

// Bytes returns a read-only view of the block's content. Do not write
// through this slice unless you have already called Writable.
func (b *Block) Bytes() []byte {
	return b.mem.Buffer()[b.offset : b.offset+b.size]
}

// Dup implements Ubuf: returns a new Block sharing the same umem region.
func (b *Block) Dup() Ubuf {
	return &Block{mgr: b.mgr, shared: b.shared.dup(), mem: b.mem, offset: b.offset, size: b.size}
}

// Free implements Ubuf: releases this reference, freeing the backing umem
// once no Block shares it any longer.
func (b *Block) Free() {
	if b.shared.release() {
		b.mem.Free()
	}
}

// Writable returns a Block usable for in-place writes: b itself if it is
// unshared (shared.single()), or a freshly allocated deep copy otherwise.
// Per P2, a returned pointer equal to b implies the refcount was 1.
func (b *Block) Writable() (*Block, error) {
	if b.shared.single() {
		return b, nil
	}
	nb, err := b.mgr.Alloc(b.size)
	if err != nil {
		return nil, err
	}
	copy(nb.Bytes(), b.Bytes())
	return nb, nil
}

// Slice returns a logical sub-block view [offset, offset+size) without
// copying, sharing the same refcount as b. This is the "logical slice of a
// shared region" the spec describes; it is only valid while b (or another
// Dup of it) is alive.
func (b *Block) Slice(offset, size int) (*Block, error) {
	if offset < 0 || size < 0 || offset+size > b.size {
		return nil, ErrOutOfRange
	}
	return &Block{
		mgr: b.mgr, shared: b.shared.dup(), mem: b.mem,
		offset: b.offset + offset, size: size,
	}, nil
}

// Resize attempts an O(1) in-place adjustment of the visible window:
// shrinking always succeeds without allocation; growing past the
// originally-allocated umem size reallocates (and is therefore fallible,
// leaving b untouched on error). Resize requires an unshared Block; call
// Writable first.
func (b *Block) Resize(newSize int) error {
	if !b.shared.single() {
		return ErrNotWritable
	}
	if newSize < 0 {
		return ErrOutOfRange
	}
	if b.offset+newSize <= b.mem.Size() {
		b.size = newSize
		return nil
	}
	if err := b.mem.Realloc(b.offset + newSize); err != nil {
		return err
	}
	b.size = newSize
	return nil
}
