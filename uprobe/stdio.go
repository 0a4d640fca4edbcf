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

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Stdio writes EventLog events to an io.Writer (typically os.Stderr),
// filtered by a minimum level, optionally with ANSI color and a timestamp
// column. Every other event is forwarded to the next probe.
type Stdio struct {
	Chain

	w         io.Writer
	minLevel  LogLevel
	color     bool
	timestamp bool
}

// NewStdio allocates a Stdio probe writing to w.
func NewStdio(next Probe, w io.Writer, minLevel LogLevel) *Stdio {
	return &Stdio{Chain: NewChain(next), w: w, minLevel: minLevel}
}

// SetColor toggles ANSI color codes around the level tag.
func (s *Stdio) SetColor(color bool) *Stdio { s.color = color; return s }

// SetTimestamp toggles a leading RFC3339 timestamp column.
func (s *Stdio) SetTimestamp(timestamp bool) *Stdio { s.timestamp = timestamp; return s }

var levelColor = map[LogLevel]string{
	LogVerbose: "\x1b[37m",
	LogDebug:   "\x1b[36m",
	LogInfo:    "\x1b[34m",
	LogNotice:  "\x1b[32m",
	LogWarning: "\x1b[33m",
	LogError:   "\x1b[31m",
}

// Throw implements Probe.
func (s *Stdio) Throw(pipe any, event Event, args ...any) bool {
	if event != EventLog {
		return s.ThrowNext(pipe, event, args...)
	}
	le, ok := firstLogEvent(args)
	if !ok || le.Level < s.minLevel {
		return true
	}

	var b strings.Builder
	if s.timestamp {
		b.WriteString(time.Now().Format(time.RFC3339))
		b.WriteByte(' ')
	}
	level := le.Level.String()
	if s.color {
		b.WriteString(levelColor[le.Level])
		b.WriteString(level)
		b.WriteString("\x1b[0m")
	} else {
		b.WriteString(level)
	}
	b.WriteByte(':')
	for _, tag := range le.Tags {
		b.WriteByte(' ')
		b.WriteByte('[')
		b.WriteString(tag)
		b.WriteByte(']')
	}
	b.WriteByte(' ')
	b.WriteString(le.Message)
	fmt.Fprintln(s.w, b.String())
	return true
}

func firstLogEvent(args []any) (LogEvent, bool) {
	if len(args) == 0 {
		return LogEvent{}, false
	}
	le, ok := args[0].(LogEvent)
	return le, ok
}
