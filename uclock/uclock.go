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

// Package uclock provides the framework's universal time quantum: a 27MHz
// tick counter, with both a monotonic (scheduling) and a wall-clock (real
// timestamp) flavor.
package uclock

import "time"

// Freq is the number of ticks per second every Clock reports in.
const Freq uint64 = 27_000_000

// Clock reports the current time as a 27MHz tick count.
type Clock interface {
	// Now returns the current time in 27MHz ticks.
	Now() uint64
}

// Flags configure the standard clock implementation.
type Flags uint8

const (
	// FlagRealtime forces the use of a wall-clock source even where a
	// monotonic clock would otherwise be picked; set this on the clock
	// handed to pipes whose timestamps must be comparable to POSIX time.
	FlagRealtime Flags = 1 << iota
)

// std is the default Clock, backed by the Go runtime clock.
type std struct {
	realtime bool
	start    time.Time
	mono     func() time.Time
}

// NewStd allocates the standard uclock implementation. With FlagRealtime set
// it reports wall-clock time (time.Now(), affected by NTP steps); otherwise
// it reports a monotonic clock anchored at construction time.
func NewStd(flags Flags) Clock {
	return &std{
		realtime: flags&FlagRealtime != 0,
		start:    time.Now(),
	}
}

func (s *std) Now() uint64 {
	var d time.Duration
	if s.realtime {
		d = time.Since(time.Unix(0, 0))
	} else {
		d = time.Since(s.start)
	}
	return FromDuration(d)
}

// ToPOSIX splits a wall-clock 27MHz tick count into POSIX seconds and a
// remaining tick count, for clocks allocated with FlagRealtime.
func ToPOSIX(ticks uint64) (seconds uint64, remainder uint64) {
	return ticks / Freq, ticks % Freq
}

// FromPOSIX is the inverse of ToPOSIX.
func FromPOSIX(seconds uint64, remainder uint64) uint64 {
	return seconds*Freq + remainder
}

// FromDuration converts a time.Duration into 27MHz ticks.
func FromDuration(d time.Duration) uint64 {
	return uint64(d/time.Second)*Freq + uint64(d%time.Second)*Freq/uint64(time.Second)
}

// ToDuration converts a 27MHz tick count into a time.Duration.
func ToDuration(ticks uint64) time.Duration {
	return time.Duration(ticks/Freq)*time.Second + time.Duration(ticks%Freq*uint64(time.Second)/Freq)
}
