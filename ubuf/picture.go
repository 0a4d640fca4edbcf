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
	"encoding/binary"

	"upipe.tools/upipe/umem"
)

// Margins configures the extra space a PictureMgr reserves around every
// allocated Picture so that Resize can grow in place instead of
// reallocating.
type Margins struct {
	HPrepend, HAppend int // extra pixels reserved left/right of each line
	VPrepend, VAppend int // extra lines reserved above/below the picture
	Align             int // byte alignment of each plane's stride, 0 = none
	AlignHOffset      int // horizontal offset (pixels) of the aligned origin
}

// PictureMgr allocates Picture ubufs of one fixed chroma Format.
type PictureMgr struct {
	mem     umem.Mgr
	format  Format
	margins Margins
}

// NewPictureMgr builds a manager that allocates pictures of the given
// Format, with the given margins reserved on every plane for in-place
// Resize.
func NewPictureMgr(mem umem.Mgr, format Format, margins Margins) *PictureMgr {
	return &PictureMgr{mem: mem, format: format, margins: margins}
}

func (m *PictureMgr) umemMgr() umem.Mgr { return m.mem }

// Format returns the chroma format this manager allocates.
func (m *PictureMgr) Format() Format { return m.format }

type picPlane struct {
	pf         PlaneFormat
	macropixel int // the format's Macropixel, needed to scale rect widths
	mem        *umem.Mem
	stride     int
	allocH     int // allocated width in bytes, including margins
	allocV     int // allocated height in lines, including margins
	hSkip      int // byte offset of the visible area's left edge
	vSkip      int // line offset of the visible area's top edge
	mapped     bool
}

// Picture is a ubuf holding one image, organized as one or more planes
// (luma/chroma, or a single packed plane for interleaved formats).
type Picture struct {
	mgr          *PictureMgr
	shared       *shared
	hsize, vsize int
	planes       []*picPlane
}

func (m *PictureMgr) planeDims(pf PlaneFormat, hsize, vsize int) (w, h int) {
	w = (hsize * pf.MacropixelSize) / (m.format.Macropixel * pf.HSub)
	h = vsize / pf.VSub
	return
}

// Alloc returns a new Picture of hsize x vsize pixels (plus the manager's
// configured margins, invisible until Resize grows into them).
func (m *PictureMgr) Alloc(hsize, vsize int) (*Picture, error) {
	p := &Picture{mgr: m, shared: newShared(), hsize: hsize, vsize: vsize}
	allocH := hsize + m.margins.HPrepend + m.margins.HAppend
	allocV := vsize + m.margins.VPrepend + m.margins.VAppend

	for _, pf := range m.format.Planes {
		stride, allocLines := m.planeDims(pf, allocH, allocV)
		if m.margins.Align > 0 && stride%m.margins.Align != 0 {
			stride += m.margins.Align - stride%m.margins.Align
		}
		mem, err := m.mem.Alloc(stride * allocLines)
		if err != nil {
			for _, done := range p.planes {
				done.mem.Free()
			}
			return nil, err
		}
		hSkip, _ := m.planeDims(pf, m.margins.HPrepend, 1)
		vSkip := m.margins.VPrepend / pf.VSub
		p.planes = append(p.planes, &picPlane{
			pf: pf, macropixel: m.format.Macropixel, mem: mem, stride: stride, allocH: stride, allocV: allocLines,
			hSkip: hSkip, vSkip: vSkip,
		})
	}
	return p, nil
}

// Dup implements Ubuf.
func (p *Picture) Dup() Ubuf {
	return &Picture{mgr: p.mgr, shared: p.shared.dup(), hsize: p.hsize, vsize: p.vsize, planes: p.planes}
}

// Free implements Ubuf.
func (p *Picture) Free() {
	if p.shared.release() {
		for _, pl := range p.planes {
			pl.mem.Free()
		}
	}
}

func (p *Picture) plane(chroma string) (*picPlane, error) {
	for _, pl := range p.planes {
		if pl.pf.Chroma == chroma {
			return pl, nil
		}
	}
	return nil, ErrChromaUnknown
}

// Rect addresses a horizontal/vertical rectangle of pixels, in the
// picture's own (luma) resolution; plane access scales it by that plane's
// subsampling.
type Rect struct {
	OffsetH, OffsetV int
	SizeH, SizeV     int
}

// Writable returns a Picture usable for in-place writes: p itself if
// unshared, or a freshly allocated deep copy (same hsize/vsize, with the
// manager's margins) otherwise.
func (p *Picture) Writable() (*Picture, error) {
	if p.shared.single() {
		return p, nil
	}
	np, err := p.mgr.Alloc(p.hsize, p.vsize)
	if err != nil {
		return nil, err
	}
	for i, pl := range p.planes {
		dstPl := np.planes[i]
		visibleLines := dstPl.allocV - p.mgr.marginLines(pl.pf)
		for line := 0; line < visibleLines; line++ {
			srcOff := (pl.vSkip + line) * pl.stride
			dstOff := (dstPl.vSkip + line) * dstPl.stride
			copy(dstPl.mem.Buffer()[dstOff+dstPl.hSkip:dstOff+dstPl.stride], pl.mem.Buffer()[srcOff+pl.hSkip:srcOff+pl.stride])
		}
	}
	return np, nil
}

// marginLines returns the total (prepend+append) vertical margin allocated
// for a plane of the given subsampling, in that plane's own line units.
func (m *PictureMgr) marginLines(pf PlaneFormat) int {
	return (m.margins.VPrepend + m.margins.VAppend) / pf.VSub
}

// mapRect validates rect against the plane's visible area and returns the
// byte range [start, end) covering it.
func (pl *picPlane) mapRect(rect Rect) (start, end int, err error) {
	w := (rect.SizeH * pl.pf.MacropixelSize) / (pl.macropixel * pl.pf.HSub)
	h := rect.SizeV / pl.pf.VSub
	if h == 0 && rect.SizeV > 0 {
		h = 1
	}
	offH := pl.hSkip + (rect.OffsetH*pl.pf.MacropixelSize)/(pl.macropixel*pl.pf.HSub)
	offV := pl.vSkip + rect.OffsetV/pl.pf.VSub
	if offH < 0 || offV < 0 || offH+w > pl.stride || offV+h > pl.allocV {
		return 0, 0, ErrOutOfRange
	}
	return offV * pl.stride, (offV+h)*pl.stride, nil
}

// ReadPlane maps chroma's data covering rect for reading, returning the byte
// slice and stride. The slice spans whole lines, from the start of rect's
// first line to the end of its last line; rect's horizontal position is
// range-checked but not applied to the slice. Call Unmap when done.
func (p *Picture) ReadPlane(chroma string, rect Rect) ([]byte, int, error) {
	pl, err := p.plane(chroma)
	if err != nil {
		return nil, 0, err
	}
	start, end, err := pl.mapRect(rect)
	if err != nil {
		return nil, 0, err
	}
	pl.mapped = true
	return pl.mem.Buffer()[start:end], pl.stride, nil
}

// WritePlane is like ReadPlane but requires the Picture be unshared (call
// Writable first); it refuses to hand out a writable view of shared data.
func (p *Picture) WritePlane(chroma string, rect Rect) ([]byte, int, error) {
	if !p.shared.single() {
		return nil, 0, ErrNotWritable
	}
	return p.ReadPlane(chroma, rect)
}

// Unmap closes a Read/WritePlane session on chroma, matching the manager's
// bracketing contract.
func (p *Picture) Unmap(chroma string) error {
	pl, err := p.plane(chroma)
	if err != nil {
		return err
	}
	pl.mapped = false
	return nil
}

func (p *Picture) anyMapped() bool {
	for _, pl := range p.planes {
		if pl.mapped {
			return true
		}
	}
	return false
}

// Resize attempts an in-place adjustment of the visible rectangle to
// new_h x new_v, skipping hskip/vskip pixels/lines from the previously
// visible origin. It succeeds without allocation if the new rectangle fits
// within the manager's configured margins; otherwise it is a no-op and
// returns an error (the caller must allocate a new Picture and copy, which
// Writable plus a fresh Alloc accomplishes).
func (p *Picture) Resize(newH, newV, hskip, vskip int) error {
	if !p.shared.single() {
		return ErrNotWritable
	}
	if p.anyMapped() {
		return ErrMapped
	}
	for _, pl := range p.planes {
		newHSkip := pl.hSkip + (hskip*pl.pf.MacropixelSize)/(pl.macropixel*pl.pf.HSub)
		newVSkip := pl.vSkip + vskip/pl.pf.VSub
		w := (newH * pl.pf.MacropixelSize) / (pl.macropixel * pl.pf.HSub)
		h := newV / pl.pf.VSub
		if newHSkip < 0 || newVSkip < 0 || newHSkip+w > pl.stride || newVSkip+h > pl.allocV {
			return ErrOutOfRange
		}
	}
	for _, pl := range p.planes {
		pl.hSkip += (hskip * pl.pf.MacropixelSize) / (pl.macropixel * pl.pf.HSub)
		pl.vSkip += vskip / pl.pf.VSub
	}
	p.hsize = newH
	p.vsize = newV
	return nil
}

// Clear fills rect with the format's canonical neutral value: 16/128 (or
// 0/128 in full range) for YUV, 16/16/16 (or all zero in full range) for RGB
// per spec.md's scenario 1, all-zero/all-one for mono, and the packed v210
// bit pattern for that format.
func (p *Picture) Clear(rect Rect, fullRange bool) error {
	if !p.shared.single() {
		return ErrNotWritable
	}
	switch p.mgr.format.Kind {
	case KindV210:
		return p.clearV210(rect, fullRange)
	case KindMono:
		var fill byte
		if p.mgr.format.Name == "monowhite" {
			fill = 0xff
		}
		return p.fillPlane("y1", rect, []byte{fill})
	}

	luma := lumaValue(p.mgr.format.BitDepth, fullRange)
	chroma := chromaValue(p.mgr.format.BitDepth)
	bps := bytesPerSample(p.mgr.format.BitDepth)

	for _, pl := range p.mgr.format.Planes {
		var val []byte
		switch p.mgr.format.Kind {
		case KindYUV:
			switch pl.Chroma {
			case "y":
				val = sampleBytes(luma, bps, p.mgr.format.LittleEndian)
			case "u", "v":
				val = sampleBytes(chroma, bps, p.mgr.format.LittleEndian)
			case "uv":
				s := sampleBytes(chroma, bps, p.mgr.format.LittleEndian)
				val = append(append([]byte(nil), s...), s...)
			case "a":
				val = sampleBytes((1<<uint(p.mgr.format.BitDepth))-1, bps, p.mgr.format.LittleEndian)
			}
		case KindGray:
			val = sampleBytes(luma, bps, p.mgr.format.LittleEndian)
		case KindRGB:
			comp := rgbNeutral(fullRange)
			n := pl.InterleavedAlts
			if n == 0 {
				n = 1
			}
			if p.mgr.format.HasAlpha {
				for i := 0; i < n-1; i++ {
					val = append(val, comp)
				}
				val = append(val, 0) // alpha = 0 per scenario 1
			} else {
				for i := 0; i < n; i++ {
					val = append(val, comp)
				}
			}
		case KindGBRP:
			val = []byte{rgbNeutral(fullRange)}
		}
		if val == nil {
			continue
		}
		if err := p.fillPlane(pl.Chroma, rect, val); err != nil {
			return err
		}
	}
	return nil
}

// fillPlane tiles pattern across chroma's mapped rectangle.
func (p *Picture) fillPlane(chroma string, rect Rect, pattern []byte) error {
	data, stride, err := p.WritePlane(chroma, rect)
	if err != nil {
		return err
	}
	defer p.Unmap(chroma)
	if len(pattern) == 0 {
		return nil
	}
	pl, _ := p.plane(chroma)
	offH := pl.hSkip + (rect.OffsetH*pl.pf.MacropixelSize)/(pl.macropixel*pl.pf.HSub)
	w := (rect.SizeH * pl.pf.MacropixelSize) / (pl.macropixel * pl.pf.HSub)
	for lineStart := 0; lineStart < len(data); lineStart += stride {
		line := data[lineStart+offH : lineStart+offH+w]
		for i := 0; i < len(line); i += len(pattern) {
			copy(line[i:min(i+len(pattern), len(line))], pattern)
		}
	}
	return nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func lumaValue(bitDepth int, fullRange bool) int {
	if fullRange {
		return 0
	}
	return 16 << uint(bitDepth-8)
}

func chromaValue(bitDepth int) int {
	return 128 << uint(bitDepth-8)
}

func rgbNeutral(fullRange bool) byte {
	if fullRange {
		return 0
	}
	return 16
}

func bytesPerSample(bitDepth int) int {
	if bitDepth > 8 {
		return 2
	}
	return 1
}

func sampleBytes(v, bps int, le bool) []byte {
	if bps == 1 {
		return []byte{byte(v)}
	}
	b := make([]byte, 2)
	if le {
		binary.LittleEndian.PutUint16(b, uint16(v))
	} else {
		binary.BigEndian.PutUint16(b, uint16(v))
	}
	return b
}

// clearV210 fills with the packed 10-bit pattern: word0 = Cb|Y<<10|Cr<<20,
// word1 = Y|Cb<<10|Y<<20, repeating every 8 bytes (in full range this is the
// byte group 00 02 00 20 00 00 08 00).
func (p *Picture) clearV210(rect Rect, fullRange bool) error {
	y := uint32(lumaValue(10, fullRange))
	c := uint32(chromaValue(10))
	w0 := c | y<<10 | c<<20
	w1 := y | c<<10 | y<<20
	pattern := make([]byte, 8)
	binary.LittleEndian.PutUint32(pattern[0:4], w0)
	binary.LittleEndian.PutUint32(pattern[4:8], w1)
	return p.fillPlane("v210", rect, pattern)
}
