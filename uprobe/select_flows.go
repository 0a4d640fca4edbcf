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

import "strings"

// SelflowType is the kind of flow a SelectFlows probe filters.
type SelflowType int

const (
	SelflowVoid SelflowType = iota
	SelflowPic
	SelflowSound
	SelflowSubpic
)

// Flow is the minimal information SelectFlows needs about a candidate flow
// to decide whether to select it.
type Flow struct {
	ID         uint64
	Attributes map[string]string
}

// SelectFlows catches EventNeedOutput and decides (from a selection spec)
// whether the offered flow should get a sub-pipe allocated for it: an
// accepted flow's event is forwarded to the next probe, and a rejected
// one is reported handled without being forwarded. The spec is "auto" (first flow seen), "all", or a
// comma-separated list of flow IDs and/or attribute=value filters
// (e.g. "lang=eng").
type SelectFlows struct {
	Chain

	kind     SelflowType
	spec     string
	selected map[uint64]bool
	any      bool // "all"
	auto     bool // "auto": select first flow only
	gotAuto  bool
}

// NewSelectFlows allocates a SelectFlows probe for flows of the given kind,
// with the given selection spec ("auto", "all", or a CSV of ids/filters).
func NewSelectFlows(next Probe, kind SelflowType, spec string) *SelectFlows {
	s := &SelectFlows{Chain: NewChain(next), kind: kind}
	s.Set(spec)
	return s
}

// Get returns the current selection spec.
func (s *SelectFlows) Get() string { return s.spec }

// Set changes the selection spec.
func (s *SelectFlows) Set(spec string) {
	s.spec = spec
	s.any = spec == "all"
	s.auto = spec == "auto"
	s.gotAuto = false
	s.selected = make(map[uint64]bool)
	if s.any || s.auto {
		return
	}
	for _, tok := range strings.Split(spec, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if id, ok := parseFlowID(tok); ok {
			s.selected[id] = true
		}
	}
}

func parseFlowID(tok string) (uint64, bool) {
	if strings.Contains(tok, "=") {
		return 0, false
	}
	var id uint64
	for _, r := range tok {
		if r < '0' || r > '9' {
			return 0, false
		}
		id = id*10 + uint64(r-'0')
	}
	return id, true
}

// accepts reports whether flow matches this probe's selection spec.
func (s *SelectFlows) accepts(flow Flow) bool {
	if s.any {
		return true
	}
	if s.auto {
		if s.gotAuto {
			return false
		}
		s.gotAuto = true
		return true
	}
	if s.selected[flow.ID] {
		return true
	}
	for _, tok := range strings.Split(s.spec, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(tok), "=")
		if !ok {
			continue
		}
		if flow.Attributes[k] == v {
			return true
		}
	}
	return false
}

// Throw implements Probe.
func (s *SelectFlows) Throw(pipe any, event Event, args ...any) bool {
	if event != EventNeedOutput || len(args) == 0 {
		return s.ThrowNext(pipe, event, args...)
	}
	flow, ok := args[0].(Flow)
	if !ok {
		return s.ThrowNext(pipe, event, args...)
	}
	if !s.accepts(flow) {
		return true
	}
	return s.ThrowNext(pipe, event, args...)
}
