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

// Package bufpipe is a bounded, non-blocking message queue shared by
// upump's source-blocker pool and xfer's cross-thread transfer queue. It is
// generalized from a sample-buffer-depth queue to a message-slot-depth
// queue: the payload is any message type, not an audio/IQ buffer.
package bufpipe

import (
	"context"
	"fmt"
)

// ErrBufferOverrun is returned by Write (and all subsequent Read/Write
// calls) when a write is attempted with no remaining queue capacity.
var ErrBufferOverrun error = fmt.Errorf("upipe/internal/bufpipe: buffer overrun")

// Pipe is a bounded queue of messages of type T. Writes never block: if the
// queue is full, Write fails with ErrBufferOverrun and the pipe latches
// into an error state, matching the teacher's non-blocking sample pipe.
type Pipe[T any] struct {
	ctx    context.Context
	cancel context.CancelFunc
	err    error
	buf    chan T
}

// New creates a Pipe of the given slot capacity.
func New[T any](capacity int) *Pipe[T] {
	return NewWithContext[T](context.Background(), capacity)
}

// NewWithContext is like New but ties the pipe's lifetime to ctx: when ctx
// is done, the pipe closes with ctx.Err().
func NewWithContext[T any](ctx context.Context, capacity int) *Pipe[T] {
	ctx, cancel := context.WithCancel(ctx)
	return &Pipe[T]{ctx: ctx, cancel: cancel, buf: make(chan T, capacity)}
}

// Write enqueues msg without blocking. It fails with ErrBufferOverrun if the
// queue is full, latching the pipe into that error state.
func (p *Pipe[T]) Write(msg T) error {
	if p.err != nil {
		return p.err
	}
	select {
	case p.buf <- msg:
		return nil
	default:
		p.CloseWithError(ErrBufferOverrun)
		return ErrBufferOverrun
	}
}

// Read blocks until a message is available, the pipe is closed, or the
// context given to NewWithContext is done. Once the pipe is closed with an
// error, Read returns that error.
func (p *Pipe[T]) Read() (T, error) {
	var zero T
	select {
	case msg, ok := <-p.buf:
		if !ok {
			if p.err != nil {
				return zero, p.err
			}
			return zero, ErrBufferOverrun
		}
		return msg, nil
	case <-p.ctx.Done():
		if p.err != nil {
			return zero, p.err
		}
		return zero, p.ctx.Err()
	}
}

// TryRead returns the next queued message without blocking. The second
// return value is false if no message is currently available or the pipe
// is closed.
func (p *Pipe[T]) TryRead() (T, bool) {
	var zero T
	select {
	case msg, ok := <-p.buf:
		if !ok {
			return zero, false
		}
		return msg, true
	default:
		return zero, false
	}
}

// CloseWithError closes the pipe, latching err as the error every
// subsequent Read/Write returns.
func (p *Pipe[T]) CloseWithError(err error) error {
	if p.err == nil {
		p.err = err
	}
	p.cancel()
	return nil
}

// Close closes the pipe with no error.
func (p *Pipe[T]) Close() error {
	return p.CloseWithError(nil)
}
