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

// Package uref implements the reference bundle every pipe passes downstream:
// an optional ubuf payload, one udict of named attributes, a set of clock
// timestamps, and a private slot reserved for pipe-specific bookkeeping.
package uref

import (
	"upipe.tools/upipe/ubuf"
	"upipe.tools/upipe/udict"
)

// FlowDefKey is the udict string attribute naming a control uref's flow
// definition, e.g. "pic.", "sound.", "block.m3u.playlist.".
const FlowDefKey = "flow.def"

// Uref is one reference bundle: an optional payload ubuf owned by this
// uref, exactly one udict, clock timestamps, and a priv slot. A flow
// definition uref is one whose Dict carries FlowDefKey; it carries no ubuf
// payload of its own and instead describes the format of the urefs that
// will follow it.
type Uref struct {
	mgr *Mgr

	Ubuf ubuf.Ubuf
	Dict *udict.Dict

	CrSys, CrProg            uint64
	PtsSys, PtsProg, PtsOrig uint64
	DtsSys, DtsProg, DtsOrig uint64
	Duration                 uint64

	hasCrSys, hasCrProg               bool
	hasPtsSys, hasPtsProg, hasPtsOrig bool
	hasDtsSys, hasDtsProg, hasDtsOrig bool
	hasDuration                       bool

	Priv any
}

// SetFlowDef sets this uref's flow definition string, making it a flow
// definition (control) uref.
func (u *Uref) SetFlowDef(def string) error {
	return u.Dict.SetString(FlowDefKey, def)
}

// FlowDef returns the flow definition string and whether this uref carries
// one.
func (u *Uref) FlowDef() (string, bool) {
	v, err := u.Dict.GetString(FlowDefKey)
	return v, err == nil
}

// SetCrSys sets the system-clock creation date.
func (u *Uref) SetCrSys(v uint64) { u.CrSys = v; u.hasCrSys = true }

// CrSysGet returns the system-clock creation date, if set.
func (u *Uref) CrSysGet() (uint64, bool) { return u.CrSys, u.hasCrSys }

// SetCrProg sets the program-clock creation date.
func (u *Uref) SetCrProg(v uint64) { u.CrProg = v; u.hasCrProg = true }

// CrProgGet returns the program-clock creation date, if set.
func (u *Uref) CrProgGet() (uint64, bool) { return u.CrProg, u.hasCrProg }

// SetPtsSys sets the system-clock presentation timestamp.
func (u *Uref) SetPtsSys(v uint64) { u.PtsSys = v; u.hasPtsSys = true }

// PtsSysGet returns the system-clock presentation timestamp, if set.
func (u *Uref) PtsSysGet() (uint64, bool) { return u.PtsSys, u.hasPtsSys }

// SetPtsProg sets the program-clock presentation timestamp.
func (u *Uref) SetPtsProg(v uint64) { u.PtsProg = v; u.hasPtsProg = true }

// PtsProgGet returns the program-clock presentation timestamp, if set.
func (u *Uref) PtsProgGet() (uint64, bool) { return u.PtsProg, u.hasPtsProg }

// SetPtsOrig sets the original (source-stamped) presentation timestamp.
func (u *Uref) SetPtsOrig(v uint64) { u.PtsOrig = v; u.hasPtsOrig = true }

// PtsOrigGet returns the original presentation timestamp, if set.
func (u *Uref) PtsOrigGet() (uint64, bool) { return u.PtsOrig, u.hasPtsOrig }

// SetDtsSys sets the system-clock decoding timestamp.
func (u *Uref) SetDtsSys(v uint64) { u.DtsSys = v; u.hasDtsSys = true }

// DtsSysGet returns the system-clock decoding timestamp, if set.
func (u *Uref) DtsSysGet() (uint64, bool) { return u.DtsSys, u.hasDtsSys }

// SetDtsProg sets the program-clock decoding timestamp.
func (u *Uref) SetDtsProg(v uint64) { u.DtsProg = v; u.hasDtsProg = true }

// DtsProgGet returns the program-clock decoding timestamp, if set.
func (u *Uref) DtsProgGet() (uint64, bool) { return u.DtsProg, u.hasDtsProg }

// SetDtsOrig sets the original decoding timestamp.
func (u *Uref) SetDtsOrig(v uint64) { u.DtsOrig = v; u.hasDtsOrig = true }

// DtsOrigGet returns the original decoding timestamp, if set.
func (u *Uref) DtsOrigGet() (uint64, bool) { return u.DtsOrig, u.hasDtsOrig }

// SetDuration sets the uref's duration in 27MHz ticks.
func (u *Uref) SetDuration(v uint64) { u.Duration = v; u.hasDuration = true }

// DurationGet returns the duration, if set.
func (u *Uref) DurationGet() (uint64, bool) { return u.Duration, u.hasDuration }

// Free releases this uref's ubuf (if any) and returns it to its manager's
// pool.
func (u *Uref) Free() {
	if u.Ubuf != nil {
		u.Ubuf.Free()
		u.Ubuf = nil
	}
	if u.Dict != nil {
		u.Dict.Free()
	}
	u.mgr.release(u)
}
