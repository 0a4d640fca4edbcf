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

package upipe

import "upipe.tools/upipe/ubuf"

// UrefStream accumulates input ubufs into a rolling byte buffer, from which
// a pipe extracts fixed-size or delimiter-terminated segments (e.g. a
// demuxer splitting a byte stream into frames), carrying any unconsumed
// tail across calls to Append.
type UrefStream struct {
	buf []byte
}

// NewUrefStream allocates an empty UrefStream.
func NewUrefStream() *UrefStream { return &UrefStream{} }

// Append reads all of b's bytes and appends them to the rolling buffer.
func (s *UrefStream) Append(b *ubuf.Block) error {
	s.buf = append(s.buf, b.Bytes()...)
	return nil
}

// Len reports how many unconsumed bytes remain.
func (s *UrefStream) Len() int { return len(s.buf) }

// Extract removes and returns the first n bytes, or false if fewer than n
// are currently available.
func (s *UrefStream) Extract(n int) ([]byte, bool) {
	if len(s.buf) < n {
		return nil, false
	}
	out := make([]byte, n)
	copy(out, s.buf[:n])
	s.buf = s.buf[n:]
	return out, true
}

// ExtractUntil removes and returns everything up to and including the first
// occurrence of delim, or false if delim hasn't been seen yet.
func (s *UrefStream) ExtractUntil(delim byte) ([]byte, bool) {
	for i, c := range s.buf {
		if c == delim {
			out := make([]byte, i+1)
			copy(out, s.buf[:i+1])
			s.buf = s.buf[i+1:]
			return out, true
		}
	}
	return nil, false
}

// Peek returns a read-only view of the unconsumed tail without removing it.
func (s *UrefStream) Peek() []byte { return s.buf }
