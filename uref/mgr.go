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

package uref

import (
	"sync"

	"upipe.tools/upipe/udict"
	"upipe.tools/upipe/umem"
)

// Mgr allocates and recycles Uref structures across Alloc/Free cycles the
// way hz.tools/sdr's SamplesPool recycles sample buffers; each Alloc takes a
// fresh udict from dictMgr, and Free releases it.
type Mgr struct {
	dictMgr umem.Mgr
	pool    sync.Pool
}

// NewMgr builds a Mgr whose urefs carry udicts allocated from dictMgr.
func NewMgr(dictMgr umem.Mgr) *Mgr {
	m := &Mgr{dictMgr: dictMgr}
	m.pool.New = func() any { return &Uref{mgr: m} }
	return m
}

// Alloc returns a fresh Uref with an empty udict and no payload ubuf.
func (m *Mgr) Alloc() (*Uref, error) {
	d, err := udict.New(m.dictMgr)
	if err != nil {
		return nil, err
	}
	u := m.pool.Get().(*Uref)
	u.Dict = d
	return u, nil
}

// Dup returns a new Uref pointing at the same (refcounted) ubuf payload and
// carrying an independent copy of the udict and timestamps, matching
// "uref_dup makes a new uref pointing at a shared ubuf (incrementing its
// refcount) and a copied udict".
func (u *Uref) Dup() (*Uref, error) {
	d, err := u.Dict.Clone()
	if err != nil {
		return nil, err
	}
	nu := u.mgr.pool.Get().(*Uref)
	nu.Dict = d
	if u.Ubuf != nil {
		nu.Ubuf = u.Ubuf.Dup()
	}
	nu.CrSys, nu.hasCrSys = u.CrSys, u.hasCrSys
	nu.CrProg, nu.hasCrProg = u.CrProg, u.hasCrProg
	nu.PtsSys, nu.hasPtsSys = u.PtsSys, u.hasPtsSys
	nu.PtsProg, nu.hasPtsProg = u.PtsProg, u.hasPtsProg
	nu.PtsOrig, nu.hasPtsOrig = u.PtsOrig, u.hasPtsOrig
	nu.DtsSys, nu.hasDtsSys = u.DtsSys, u.hasDtsSys
	nu.DtsProg, nu.hasDtsProg = u.DtsProg, u.hasDtsProg
	nu.DtsOrig, nu.hasDtsOrig = u.DtsOrig, u.hasDtsOrig
	nu.Duration, nu.hasDuration = u.Duration, u.hasDuration
	return nu, nil
}

// release resets u and returns it to the pool; called by Uref.Free once the
// ubuf payload (if any) has already been released.
func (m *Mgr) release(u *Uref) {
	*u = Uref{mgr: m}
	m.pool.Put(u)
}
