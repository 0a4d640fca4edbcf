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

import "regexp"

// LogLevel layers a per-tag minimum level on top of whatever filtering the
// next probe in the chain applies: a log event with a tag (tried outermost
// first) matching one of these regexes is raised only if it meets that override's minimum,
// regardless of what the downstream stdio/syslog probe would otherwise let
// through.
type Loglevel struct {
	Chain

	overrides []loglevelOverride
}

type loglevelOverride struct {
	re    *regexp.Regexp
	level LogLevel
}

// NewLoglevel allocates a Loglevel probe with no overrides set.
func NewLoglevel(next Probe) *Loglevel {
	return &Loglevel{Chain: NewChain(next)}
}

// Set installs (or replaces) a minimum-level override for every tag
// matching pattern. Later Set calls for an already-matching pattern replace
// the earlier one; multiple distinct patterns are tried in the order set,
// first match wins.
func (l *Loglevel) Set(pattern string, level LogLevel) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	for i, o := range l.overrides {
		if o.re.String() == re.String() {
			l.overrides[i].level = level
			return nil
		}
	}
	l.overrides = append(l.overrides, loglevelOverride{re: re, level: level})
	return nil
}

// Throw implements Probe.
func (l *Loglevel) Throw(pipe any, event Event, args ...any) bool {
	if event != EventLog {
		return l.ThrowNext(pipe, event, args...)
	}
	le, ok := firstLogEvent(args)
	if !ok {
		return l.ThrowNext(pipe, event, args...)
	}
	for _, tag := range le.Tags {
		for _, o := range l.overrides {
			if o.re.MatchString(tag) {
				if le.Level < o.level {
					return true
				}
				return l.ThrowNext(pipe, event, le)
			}
		}
	}
	return l.ThrowNext(pipe, event, le)
}
