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

// Package urequest implements provision negotiation: a downstream pipe asks
// an upstream one (or, failing that, a probe) to answer a typed question
// about a resource or flow format, and gets the answer back through a
// callback instead of a return value, since the answer may arrive from a
// different pipe than the one REGISTER_REQUEST was called on.
package urequest

import "upipe.tools/upipe/uref"

// Type identifies what a Request is asking for.
type Type int

const (
	// TypeUrefMgr asks for a uref.Mgr.
	TypeUrefMgr Type = iota
	// TypeFlowFormat asks the output to amend a proposed flow format,
	// returning one it can actually deliver.
	TypeFlowFormat
	// TypeUbufMgr asks for a ubuf manager compatible with a flow format.
	TypeUbufMgr
	// TypeUclock asks for the program's uclock.
	TypeUclock
	// TypeSinkLatency asks a sink pipe how much output it buffers before
	// display/playout, so upstream can compensate.
	TypeSinkLatency
)

func (t Type) String() string {
	switch t {
	case TypeUrefMgr:
		return "uref_mgr"
	case TypeFlowFormat:
		return "flow_format"
	case TypeUbufMgr:
		return "ubuf_mgr"
	case TypeUclock:
		return "uclock"
	case TypeSinkLatency:
		return "sink_latency"
	default:
		return "unknown"
	}
}

// Request carries a typed question, a template uref describing it (e.g. a
// proposed flow format for TypeFlowFormat), a callback invoked with the
// answer, and an opaque value the issuer can use to correlate callbacks.
type Request struct {
	Kind     Type
	Template *uref.Uref
	Opaque   any

	callback func(answer *uref.Uref) error

	// proxied is the downstream request this one was built to satisfy, if
	// any; answering this request also answers proxied.
	proxied *Request
}

// New builds a request of the given type with the given template and
// answer callback.
func New(kind Type, template *uref.Uref, cb func(answer *uref.Uref) error) *Request {
	return &Request{Kind: kind, Template: template, callback: cb}
}

// Provide answers the request with answer, invoking its callback. Duplicate
// answers must be idempotent: callers should compare old and new payloads
// themselves and skip calling Provide again when nothing changed.
func (r *Request) Provide(answer *uref.Uref) error {
	if r.callback == nil {
		return nil
	}
	return r.callback(answer)
}

// Proxy builds a new request of the same type and template that, when
// answered, answers r in turn. Intermediate pipes that cannot answer a
// request directly forward a proxy downstream instead of the original, so
// they can observe (and if needed amend) the answer on the way back.
func (r *Request) Proxy() *Request {
	proxy := &Request{Kind: r.Kind, Template: r.Template, proxied: r}
	proxy.callback = func(answer *uref.Uref) error {
		return r.Provide(answer)
	}
	return proxy
}

// Root returns the original, non-proxy request at the head of a proxy
// chain, walking back through every Proxy() link.
func (r *Request) Root() *Request {
	for r.proxied != nil {
		r = r.proxied
	}
	return r
}
