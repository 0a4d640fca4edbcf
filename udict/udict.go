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

// Package udict implements the ordered, inline-serializable attribute
// dictionary every uref carries. Entries are stored as a length-prefixed TLV
// sequence inside a umem.Mem so a dictionary can be resized, copied, and
// handed around without a separate marshal/unmarshal step.
package udict

import (
	"encoding/binary"
	"fmt"
	"math"

	"upipe.tools/upipe/umem"
)

// Type identifies the value kind of one dictionary entry.
type Type byte

const (
	// TypeOpaque holds an arbitrary byte string, meaning defined by the name.
	TypeOpaque Type = iota + 1
	// TypeString holds a UTF-8 string.
	TypeString
	// TypeVoid holds no value; its presence alone is the signal.
	TypeVoid
	// TypeBool holds a single boolean.
	TypeBool
	// TypeSmallUnsigned holds a uint8.
	TypeSmallUnsigned
	// TypeSmallInt holds an int8.
	TypeSmallInt
	// TypeUnsigned holds a uint64.
	TypeUnsigned
	// TypeInt holds an int64.
	TypeInt
	// TypeFloat holds a float64.
	TypeFloat
	// TypeRational holds a Rational (num/den pair).
	TypeRational

	// typeDeleted marks a tombstoned entry; it is never returned by Iterate.
	typeDeleted Type = 0xff
)

// Rational is a num/den pair, used for frame rates, aspect ratios, and the
// like.
type Rational struct {
	Num int64
	Den int64
}

var (
	// ErrNotFound is returned when a key/type pair has no entry.
	ErrNotFound = fmt.Errorf("udict: attribute not found")
	// ErrTypeMismatch is returned when a key exists under a different type.
	ErrTypeMismatch = fmt.Errorf("udict: attribute exists with a different type")
)

// entry is the decoded form of one TLV record, used internally by Iterate
// and the typed accessors.
type entry struct {
	name   string
	typ    Type
	value  []byte
	offset int // offset of this entry's first header byte (its type byte is at offset+2), for in-place overwrite/delete
	length int // total encoded length of this entry (name+type+value headers included)
}

// Dict is one attribute dictionary. The zero value is not usable; use New.
type Dict struct {
	mgr umem.Mgr
	mem *umem.Mem
	len int // number of bytes of mem.Buffer() actually in use
}

// New creates an empty dictionary backed by mgr.
func New(mgr umem.Mgr) (*Dict, error) {
	mem, err := mgr.Alloc(0)
	if err != nil {
		return nil, err
	}
	return &Dict{mgr: mgr, mem: mem}, nil
}

// Free releases the dictionary's backing umem allocation. d must not be
// used afterward.
func (d *Dict) Free() {
	d.mem.Free()
}

// Clone makes a deep copy of d, suitable for the copy-on-first-write
// semantics uref.Dup relies on.
func (d *Dict) Clone() (*Dict, error) {
	nd, err := New(d.mgr)
	if err != nil {
		return nil, err
	}
	if d.len == 0 {
		return nd, nil
	}
	if err := nd.mem.Realloc(d.len); err != nil {
		return nil, err
	}
	copy(nd.mem.Buffer(), d.mem.Buffer()[:d.len])
	nd.len = d.len
	return nd, nil
}

// encode appends one TLV entry to buf and returns the new buf.
func encode(buf []byte, name string, typ Type, value []byte) []byte {
	var hdr [7]byte
	binary.BigEndian.PutUint16(hdr[0:2], uint16(len(name)))
	hdr[2] = byte(typ)
	binary.BigEndian.PutUint32(hdr[3:7], uint32(len(value)))
	buf = append(buf, hdr[:]...)
	buf = append(buf, name...)
	buf = append(buf, value...)
	return buf
}

// decodeAt parses one entry starting at off, returning it and the offset of
// the next entry. ok is false if there isn't a full entry left to read.
func decodeAt(buf []byte, off int) (e entry, next int, ok bool) {
	if off+7 > len(buf) {
		return entry{}, off, false
	}
	nameLen := int(binary.BigEndian.Uint16(buf[off : off+2]))
	typ := Type(buf[off+2])
	valLen := int(binary.BigEndian.Uint32(buf[off+3 : off+7]))
	start := off + 7
	if start+nameLen+valLen > len(buf) {
		return entry{}, off, false
	}
	name := string(buf[start : start+nameLen])
	value := buf[start+nameLen : start+nameLen+valLen]
	total := 7 + nameLen + valLen
	return entry{name: name, typ: typ, value: value, offset: off, length: total}, off + total, true
}

// find returns the most recent (last, since overwrite appends) non-deleted
// entry for name/typ, or ok=false.
func (d *Dict) find(name string, typ Type) (entry, bool) {
	buf := d.mem.Buffer()[:d.len]
	var found entry
	ok := false
	for off := 0; off < d.len; {
		e, next, valid := decodeAt(buf, off)
		if !valid {
			break
		}
		if e.name == name && e.typ == typ {
			found, ok = e, true
		}
		off = next
	}
	return found, ok
}

// set stores value under (name, typ), tombstoning any previous entry under
// the same key and type.
func (d *Dict) set(name string, typ Type, value []byte) error {
	if old, ok := d.find(name, typ); ok {
		d.mem.Buffer()[old.offset+2] = byte(typeDeleted)
	}
	buf := encode(append([]byte(nil), d.mem.Buffer()[:d.len]...), name, typ, value)
	if err := d.mem.Realloc(len(buf)); err != nil {
		return err
	}
	copy(d.mem.Buffer(), buf)
	d.len = len(buf)
	return nil
}

// Delete removes every entry stored under name, regardless of type.
func (d *Dict) Delete(name string) {
	buf := d.mem.Buffer()[:d.len]
	for off := 0; off < d.len; {
		e, next, valid := decodeAt(buf, off)
		if !valid {
			break
		}
		if e.name == name && e.typ != typeDeleted {
			buf[off+2] = byte(typeDeleted)
		}
		off = next
	}
}

// Entry is one (name, type) pair yielded by Iterate; fetch the value with
// the matching GetT call.
type Entry struct {
	Name string
	Type Type
}

// Iterate walks every live (non-deleted) entry exactly once, in insertion
// order (oldest surviving write first).
func (d *Dict) Iterate(fn func(Entry) bool) {
	buf := d.mem.Buffer()[:d.len]
	seen := map[string]map[Type]bool{}
	for off := 0; off < d.len; {
		e, next, valid := decodeAt(buf, off)
		if !valid {
			break
		}
		off = next
		if e.typ == typeDeleted {
			continue
		}
		if seen[e.name] == nil {
			seen[e.name] = map[Type]bool{}
		}
		if seen[e.name][e.typ] {
			continue
		}
		seen[e.name][e.typ] = true
		if !fn(Entry{Name: e.name, Type: e.typ}) {
			return
		}
	}
}

// --- typed accessors -------------------------------------------------------

// SetOpaque stores an arbitrary byte string under name.
func (d *Dict) SetOpaque(name string, v []byte) error { return d.set(name, TypeOpaque, v) }

// GetOpaque fetches an opaque value previously stored with SetOpaque.
func (d *Dict) GetOpaque(name string) ([]byte, error) {
	e, ok := d.find(name, TypeOpaque)
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), e.value...), nil
}

// SetString stores a string under name.
func (d *Dict) SetString(name, v string) error { return d.set(name, TypeString, []byte(v)) }

// GetString fetches a string previously stored with SetString.
func (d *Dict) GetString(name string) (string, error) {
	e, ok := d.find(name, TypeString)
	if !ok {
		return "", ErrNotFound
	}
	return string(e.value), nil
}

// SetVoid marks name as present with no associated value.
func (d *Dict) SetVoid(name string) error { return d.set(name, TypeVoid, nil) }

// GetVoid reports whether name was set with SetVoid.
func (d *Dict) GetVoid(name string) error {
	if _, ok := d.find(name, TypeVoid); !ok {
		return ErrNotFound
	}
	return nil
}

// SetBool stores a bool under name.
func (d *Dict) SetBool(name string, v bool) error {
	b := byte(0)
	if v {
		b = 1
	}
	return d.set(name, TypeBool, []byte{b})
}

// GetBool fetches a bool previously stored with SetBool.
func (d *Dict) GetBool(name string) (bool, error) {
	e, ok := d.find(name, TypeBool)
	if !ok || len(e.value) < 1 {
		return false, ErrNotFound
	}
	return e.value[0] != 0, nil
}

// SetSmallUnsigned stores a uint8 under name.
func (d *Dict) SetSmallUnsigned(name string, v uint8) error {
	return d.set(name, TypeSmallUnsigned, []byte{v})
}

// GetSmallUnsigned fetches a uint8 previously stored with SetSmallUnsigned.
func (d *Dict) GetSmallUnsigned(name string) (uint8, error) {
	e, ok := d.find(name, TypeSmallUnsigned)
	if !ok || len(e.value) < 1 {
		return 0, ErrNotFound
	}
	return e.value[0], nil
}

// SetSmallInt stores an int8 under name.
func (d *Dict) SetSmallInt(name string, v int8) error {
	return d.set(name, TypeSmallInt, []byte{byte(v)})
}

// GetSmallInt fetches an int8 previously stored with SetSmallInt.
func (d *Dict) GetSmallInt(name string) (int8, error) {
	e, ok := d.find(name, TypeSmallInt)
	if !ok || len(e.value) < 1 {
		return 0, ErrNotFound
	}
	return int8(e.value[0]), nil
}

// SetUnsigned stores a uint64 under name.
func (d *Dict) SetUnsigned(name string, v uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return d.set(name, TypeUnsigned, b[:])
}

// GetUnsigned fetches a uint64 previously stored with SetUnsigned.
func (d *Dict) GetUnsigned(name string) (uint64, error) {
	e, ok := d.find(name, TypeUnsigned)
	if !ok || len(e.value) < 8 {
		return 0, ErrNotFound
	}
	return binary.BigEndian.Uint64(e.value), nil
}

// SetInt stores an int64 under name.
func (d *Dict) SetInt(name string, v int64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	return d.set(name, TypeInt, b[:])
}

// GetInt fetches an int64 previously stored with SetInt.
func (d *Dict) GetInt(name string) (int64, error) {
	e, ok := d.find(name, TypeInt)
	if !ok || len(e.value) < 8 {
		return 0, ErrNotFound
	}
	return int64(binary.BigEndian.Uint64(e.value)), nil
}

// SetFloat stores a float64 under name.
func (d *Dict) SetFloat(name string, v float64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
	return d.set(name, TypeFloat, b[:])
}

// GetFloat fetches a float64 previously stored with SetFloat.
func (d *Dict) GetFloat(name string) (float64, error) {
	e, ok := d.find(name, TypeFloat)
	if !ok || len(e.value) < 8 {
		return 0, ErrNotFound
	}
	return math.Float64frombits(binary.BigEndian.Uint64(e.value)), nil
}

// SetRational stores a Rational under name.
func (d *Dict) SetRational(name string, v Rational) error {
	var b [16]byte
	binary.BigEndian.PutUint64(b[0:8], uint64(v.Num))
	binary.BigEndian.PutUint64(b[8:16], uint64(v.Den))
	return d.set(name, TypeRational, b[:])
}

// GetRational fetches a Rational previously stored with SetRational.
func (d *Dict) GetRational(name string) (Rational, error) {
	e, ok := d.find(name, TypeRational)
	if !ok || len(e.value) < 16 {
		return Rational{}, ErrNotFound
	}
	return Rational{
		Num: int64(binary.BigEndian.Uint64(e.value[0:8])),
		Den: int64(binary.BigEndian.Uint64(e.value[8:16])),
	}, nil
}
