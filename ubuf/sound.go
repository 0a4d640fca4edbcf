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

// SampleFormat describes one sample's on-the-wire representation: byte
// width and whether it is a float. Channel layout (planar vs. interleaved)
// is a property of SoundMgr, not of the format itself.
type SampleFormat struct {
	BytesPerSample int
	Float          bool
}

var (
	SampleS16 = SampleFormat{BytesPerSample: 2}
	SampleS32 = SampleFormat{BytesPerSample: 4}
	SampleF32 = SampleFormat{BytesPerSample: 4, Float: true}
	SampleF64 = SampleFormat{BytesPerSample: 8, Float: true}
)

// SoundMgr allocates Sound ubufs with a fixed channel count, sample format,
// and layout (planar: one umem region per channel; interleaved: one shared
// region with channels interleaved per frame).
type SoundMgr struct {
	mem       umem.Mgr
	channels  int
	format    SampleFormat
	planar       bool
	prepend      int // extra frames reserved before the visible window
	appendMargin int // extra frames reserved after the visible window
}

// NewSoundMgr builds a manager for channels channels of sample in either
// planar or interleaved layout, reserving prepend/append frames of margin
// per channel for in-place Resize.
func NewSoundMgr(mem umem.Mgr, channels int, sample SampleFormat, planar bool, prepend, appendFrames int) *SoundMgr {
	return &SoundMgr{mem: mem, channels: channels, format: sample, planar: planar, prepend: prepend, appendMargin: appendFrames}
}

func (m *SoundMgr) umemMgr() umem.Mgr { return m.mem }

// Channels returns the channel count this manager allocates.
func (m *SoundMgr) Channels() int { return m.channels }

// Format returns the per-sample format this manager allocates.
func (m *SoundMgr) Format() SampleFormat { return m.format }

type soundPlane struct {
	mem    *umem.Mem
	mapped bool
}

// Sound is a ubuf holding one buffer of audio frames, either as one plane
// per channel (planar) or one shared plane with channels interleaved.
type Sound struct {
	mgr       *SoundMgr
	shared    *shared
	frames    int
	skip      int // frame offset of the visible window within each plane
	capFrames int // total frames backing each plane, fixed at Alloc
	planes    []*soundPlane
}

func (m *SoundMgr) frameStride() int {
	if m.planar {
		return m.format.BytesPerSample
	}
	return m.format.BytesPerSample * m.channels
}

// Alloc returns a new Sound of frames audio frames (plus the manager's
// configured margin, invisible until Resize grows into it).
func (m *SoundMgr) Alloc(frames int) (*Sound, error) {
	allocFrames := frames + m.prepend + m.appendMargin
	s := &Sound{mgr: m, shared: newShared(), frames: frames, skip: m.prepend, capFrames: allocFrames}

	nPlanes := 1
	if m.planar {
		nPlanes = m.channels
	}
	for i := 0; i < nPlanes; i++ {
		mem, err := m.mem.Alloc(allocFrames * m.frameStride())
		if err != nil {
			for _, done := range s.planes {
				done.mem.Free()
			}
			return nil, err
		}
		s.planes = append(s.planes, &soundPlane{mem: mem})
	}
	return s, nil
}

// Dup implements Ubuf.
func (s *Sound) Dup() Ubuf {
	return &Sound{mgr: s.mgr, shared: s.shared.dup(), frames: s.frames, skip: s.skip, capFrames: s.capFrames, planes: s.planes}
}

// Free implements Ubuf.
func (s *Sound) Free() {
	if s.shared.release() {
		for _, pl := range s.planes {
			pl.mem.Free()
		}
	}
}

// Writable returns a Sound usable for in-place writes: s itself if
// unshared, or a freshly allocated deep copy otherwise.
func (s *Sound) Writable() (*Sound, error) {
	if s.shared.single() {
		return s, nil
	}
	ns, err := s.mgr.Alloc(s.frames)
	if err != nil {
		return nil, err
	}
	stride := s.mgr.frameStride()
	for i, pl := range s.planes {
		srcOff := s.skip * stride
		dstOff := ns.skip * stride
		n := s.frames * stride
		copy(ns.planes[i].mem.Buffer()[dstOff:dstOff+n], pl.mem.Buffer()[srcOff:srcOff+n])
	}
	return ns, nil
}

// channelPlane returns the plane holding channel, and the byte offset of
// channel's sample within each frame of that plane: for planar layout that
// is one plane per channel at offset 0; for interleaved layout channel
// addresses a sub-slice of the single shared plane.
func (s *Sound) channelPlane(channel int) (plane *soundPlane, interleaveOffset int, err error) {
	if channel < 0 || channel >= s.mgr.channels {
		return nil, 0, ErrOutOfRange
	}
	if s.mgr.planar {
		return s.planes[channel], 0, nil
	}
	return s.planes[0], channel * s.mgr.format.BytesPerSample, nil
}

// ReadChannel maps numFrames frames of channel starting at offset for
// reading; the returned stride is the byte distance between consecutive
// samples of this channel (equal to the sample size for planar layout, or
// the full frame size for interleaved layout). Call Unmap when done.
func (s *Sound) ReadChannel(channel, offset, numFrames int) (data []byte, stride int, err error) {
	pl, interleaveOff, err := s.channelPlane(channel)
	if err != nil {
		return nil, 0, err
	}
	if offset < 0 || numFrames < 0 {
		return nil, 0, ErrOutOfRange
	}
	frameStride := s.mgr.frameStride()
	start := (s.skip+offset)*frameStride + interleaveOff
	bps := s.mgr.format.BytesPerSample
	end := start + (numFrames-1)*frameStride + bps
	if end > len(pl.mem.Buffer()) {
		return nil, 0, ErrOutOfRange
	}
	pl.mapped = true
	return pl.mem.Buffer()[start:end], frameStride, nil
}

// WriteChannel is like ReadChannel but requires the Sound be unshared.
func (s *Sound) WriteChannel(channel, offset, numFrames int) ([]byte, int, error) {
	if !s.shared.single() {
		return nil, 0, ErrNotWritable
	}
	return s.ReadChannel(channel, offset, numFrames)
}

// Unmap closes a Read/WriteChannel session on channel.
func (s *Sound) Unmap(channel int) error {
	pl, _, err := s.channelPlane(channel)
	if err != nil {
		return err
	}
	pl.mapped = false
	return nil
}

func (s *Sound) anyMapped() bool {
	for _, pl := range s.planes {
		if pl.mapped {
			return true
		}
	}
	return false
}

// Resize attempts an in-place adjustment of the visible window to
// newFrames frames, skipping skipFrames frames from the previously visible
// origin; it succeeds without allocation only if the result still fits the
// manager's configured margins.
func (s *Sound) Resize(newFrames, skipFrames int) error {
	if !s.shared.single() {
		return ErrNotWritable
	}
	if s.anyMapped() {
		return ErrMapped
	}
	newSkip := s.skip + skipFrames
	if newSkip < 0 || newSkip+newFrames > s.capFrames {
		return ErrOutOfRange
	}
	s.skip = newSkip
	s.frames = newFrames
	return nil
}

// Silence fills numFrames frames of every channel, starting at offset, with
// the format's zero value (digital silence: all-zero for PCM and float
// alike).
func (s *Sound) Silence(offset, numFrames int) error {
	if !s.shared.single() {
		return ErrNotWritable
	}
	for ch := 0; ch < s.mgr.channels; ch++ {
		data, stride, err := s.WriteChannel(ch, offset, numFrames)
		if err != nil {
			return err
		}
		bps := s.mgr.format.BytesPerSample
		for i := 0; i < len(data); i += stride {
			for b := 0; b < bps; b++ {
				data[i+b] = 0
			}
		}
		s.Unmap(ch)
	}
	return nil
}
