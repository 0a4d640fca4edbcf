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

// SyslogWriter is the minimal surface Syslog needs from a syslog
// connection; log/syslog.Writer satisfies it (its Debug/Info/Warning/Err
// methods match one-for-one), kept as an interface so non-Linux builds and
// tests can supply a fake.
type SyslogWriter interface {
	Debug(m string) error
	Info(m string) error
	Warning(m string) error
	Err(m string) error
}

// Syslog writes EventLog events to a SyslogWriter, filtered by a minimum
// level. Every other event is forwarded to the next probe.
type Syslog struct {
	Chain

	w        SyslogWriter
	minLevel LogLevel
}

// NewSyslog allocates a Syslog probe writing through w.
func NewSyslog(next Probe, w SyslogWriter, minLevel LogLevel) *Syslog {
	return &Syslog{Chain: NewChain(next), w: w, minLevel: minLevel}
}

// Throw implements Probe.
func (s *Syslog) Throw(pipe any, event Event, args ...any) bool {
	if event != EventLog {
		return s.ThrowNext(pipe, event, args...)
	}
	le, ok := firstLogEvent(args)
	if !ok || le.Level < s.minLevel {
		return true
	}

	msg := le.Message
	if len(le.Tags) > 0 {
		msg = "[" + strings.Join(le.Tags, "][") + "] " + msg
	}
	switch le.Level {
	case LogVerbose, LogDebug:
		s.w.Debug(msg)
	case LogInfo, LogNotice:
		s.w.Info(msg)
	case LogWarning:
		s.w.Warning(msg)
	default:
		s.w.Err(msg)
	}
	return true
}
