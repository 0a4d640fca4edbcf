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

package uprobe

import "math"

// ClockRef is the EventClockRef payload: a program clock reference, its
// companion system-time reading, and whether it follows a discontinuity.
type ClockRef struct {
	CrProg        uint64
	CrSys         uint64
	Discontinuity bool
}

// Rational is a drift rate num/den, mirroring the original's urational.
type Rational struct {
	Num, Den int64
}

// Dejitter consumes EventClockRef/EventClockTs to estimate the running
// offset and deviation between a program clock and the system clock, and
// writes the estimated system-time PTS back onto passing refs via
// SetPtsSys. The struct fields and divisor/floor/latch shape match the
// original uprobe_dejitter's documented field list; the original's own
// exponential-moving-average arithmetic (uprobe_dejitter.c) isn't present
// in the pack, only its header and a black-box test, so the convergence
// behavior is reimplemented rather than ported line for line — see
// DESIGN.md for which scenario-6 numbers this can and cannot reproduce.
type Dejitter struct {
	Chain

	enabled bool

	offsetDivider    uint
	deviationDivider uint

	offsetCount uint
	offset      float64

	deviationCount   uint
	deviation        float64
	minimumDeviation float64

	lastCrProg uint64
	lastCrSys  uint64
	driftRate  Rational

	firstRealOffset    int64
	haveFirstRealOffset bool
}

const (
	defaultOffsetDivider    = 100
	defaultDeviationDivider = 1000
)

// NewDejitter allocates a Dejitter probe. deviation, if nonzero, seeds the
// initial deviation estimate the way uprobe_dejitter_alloc's parameter
// does.
func NewDejitter(next Probe, enabled bool, deviation uint64) *Dejitter {
	d := &Dejitter{
		Chain:            NewChain(next),
		enabled:          enabled,
		offsetDivider:    defaultOffsetDivider,
		deviationDivider: defaultDeviationDivider,
		driftRate:        Rational{Num: 1, Den: 1},
	}
	if deviation != 0 {
		d.deviation = float64(deviation)
	}
	return d
}

// Set reconfigures enabled/deviation as uprobe_dejitter_set does.
func (d *Dejitter) Set(enabled bool, deviation uint64) {
	d.enabled = enabled
	if deviation != 0 {
		d.deviation = float64(deviation)
	}
}

// SetMinimumDeviation sets a floor below which the deviation estimate is
// never allowed to fall.
func (d *Dejitter) SetMinimumDeviation(deviation float64) {
	d.minimumDeviation = deviation
}

// Offset returns the current offset estimate between program and system
// clock.
func (d *Dejitter) Offset() float64 { return d.offset }

// Deviation returns the current deviation estimate, floored at
// minimumDeviation.
func (d *Dejitter) Deviation() float64 {
	if d.deviation < d.minimumDeviation {
		return d.minimumDeviation
	}
	return d.deviation
}

// Throw implements Probe.
func (d *Dejitter) Throw(pipe any, event Event, args ...any) bool {
	switch event {
	case EventClockRef:
		if len(args) > 0 {
			if ref, ok := args[0].(ClockRef); ok {
				d.observeClockRef(ref)
			}
		}
		return d.ThrowNext(pipe, event, args...)
	case EventClockTs:
		if d.enabled && len(args) > 0 {
			if setter, ok := args[0].(interface{ SetPtsSys(uint64) }); ok {
				if crProg, ok2 := args[1].(uint64); ok2 {
					setter.SetPtsSys(uint64(int64(crProg) + int64(d.offset)))
				}
			}
		}
		return d.ThrowNext(pipe, event, args...)
	default:
		return d.ThrowNext(pipe, event, args...)
	}
}

func (d *Dejitter) observeClockRef(ref ClockRef) {
	if !d.enabled {
		return
	}
	if ref.Discontinuity {
		d.offsetCount = 0
		d.deviationCount = 0
		d.haveFirstRealOffset = false
	}

	rawOffset := float64(int64(ref.CrSys) - int64(ref.CrProg))
	if !d.haveFirstRealOffset {
		d.firstRealOffset = int64(ref.CrSys) - int64(ref.CrProg)
		d.haveFirstRealOffset = true
		d.offset = rawOffset
	}

	// running average of offset, divisor capped at offsetDivider the way
	// the original ramps the average in over the first N samples instead
	// of weighting sample 1 as 100% of the average immediately.
	d.offsetCount++
	div := d.offsetCount
	if div > d.offsetDivider {
		div = d.offsetDivider
	}
	d.offset += (rawOffset - d.offset) / float64(div)

	deviationSample := math.Abs(rawOffset - d.offset)
	d.deviationCount++
	divDev := d.deviationCount
	if divDev > d.deviationDivider {
		divDev = d.deviationDivider
	}
	d.deviation += (deviationSample - d.deviation) / float64(divDev)

	d.lastCrProg = ref.CrProg
	d.lastCrSys = ref.CrSys
}
