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

import "fmt"

// Prefix tags every EventLog event it sees with an additional prefix
// string before forwarding it up the chain, composing with any prefix
// probes already above it.
type Prefix struct {
	Chain

	tag string
}

// NewPrefix allocates a Prefix probe that tags log events with tag.
func NewPrefix(next Probe, tag string) *Prefix {
	return &Prefix{Chain: NewChain(next), tag: tag}
}

// NewPrefixf is like NewPrefix with a printf-style tag.
func NewPrefixf(next Probe, format string, a ...any) *Prefix {
	return NewPrefix(next, fmt.Sprintf(format, a...))
}

// Throw implements Probe.
func (p *Prefix) Throw(pipe any, event Event, args ...any) bool {
	if event != EventLog || len(args) == 0 {
		return p.ThrowNext(pipe, event, args...)
	}
	le, ok := args[0].(LogEvent)
	if !ok {
		return p.ThrowNext(pipe, event, args...)
	}
	tagged := make([]string, 0, len(le.Tags)+1)
	tagged = append(tagged, p.tag)
	tagged = append(tagged, le.Tags...)
	le.Tags = tagged
	return p.ThrowNext(pipe, event, le)
}
