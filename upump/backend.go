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

package upump

import (
	"encoding/binary"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// backend drives the actual dispatch of a Pump's callback: goroutines for
// idler/timer pumps, a shared epoll instance for fd-read/fd-write/signal
// pumps.
type backend interface {
	start(p *Pump)
	stop(p *Pump)
	free(p *Pump)
	close() error
}

type epollBackend struct {
	epfd int

	mu      sync.Mutex
	byFD    map[int]*Pump
	closing chan struct{}
	wake    int // eventfd used to unblock EpollWait on shutdown
}

func newBackend() (backend, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	wake, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		unix.Close(epfd)
		return nil, err
	}
	b := &epollBackend{epfd: epfd, byFD: make(map[int]*Pump), closing: make(chan struct{}), wake: wake}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wake, &unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wake)}); err != nil {
		unix.Close(epfd)
		unix.Close(wake)
		return nil, err
	}
	go b.loop()
	return b, nil
}

func (b *epollBackend) loop() {
	events := make([]unix.EpollEvent, 16)
	for {
		n, err := unix.EpollWait(b.epfd, events, -1)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return
		}
		for i := 0; i < n; i++ {
			fd := int(events[i].Fd)
			if fd == b.wake {
				var buf [8]byte
				unix.Read(b.wake, buf[:])
				select {
				case <-b.closing:
					return
				default:
				}
				continue
			}
			b.mu.Lock()
			p, ok := b.byFD[fd]
			b.mu.Unlock()
			if !ok || !p.IsRunning() {
				continue
			}
			if p.kind == KindSignal {
				var siginfo [128]byte
				unix.Read(fd, siginfo[:])
			}
			p.cb(p)
		}
	}
}

func (b *epollBackend) start(p *Pump) {
	switch p.kind {
	case KindIdler:
		go func() {
			for {
				select {
				case <-p.stop:
					return
				default:
					p.cb(p)
				}
			}
		}()
	case KindTimer:
		go func() {
			t := time.NewTicker(p.interval)
			defer t.Stop()
			for {
				select {
				case <-p.stop:
					return
				case <-t.C:
					p.cb(p)
				}
			}
		}()
	case KindFDRead, KindFDWrite:
		events := uint32(unix.EPOLLIN)
		if p.kind == KindFDWrite {
			events = unix.EPOLLOUT
		}
		b.mu.Lock()
		b.byFD[p.fd] = p
		b.mu.Unlock()
		unix.EpollCtl(b.epfd, unix.EPOLL_CTL_ADD, p.fd, &unix.EpollEvent{Events: events, Fd: int32(p.fd)})
	case KindSignal:
		var set unix.Sigset_t
		sigaddset(&set, p.sig)
		fd, err := unix.Signalfd(-1, &set, unix.SFD_CLOEXEC|unix.SFD_NONBLOCK)
		if err != nil {
			return
		}
		unix.SigprocMask(unix.SIG_BLOCK, &set, nil)
		p.fd = fd
		b.mu.Lock()
		b.byFD[fd] = p
		b.mu.Unlock()
		unix.EpollCtl(b.epfd, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)})
	}
}

func (b *epollBackend) stop(p *Pump) {
	switch p.kind {
	case KindIdler, KindTimer:
		close(p.stop)
		p.stop = make(chan struct{})
	case KindFDRead, KindFDWrite:
		b.mu.Lock()
		delete(b.byFD, p.fd)
		b.mu.Unlock()
		unix.EpollCtl(b.epfd, unix.EPOLL_CTL_DEL, p.fd, nil)
	case KindSignal:
		b.mu.Lock()
		delete(b.byFD, p.fd)
		b.mu.Unlock()
		unix.EpollCtl(b.epfd, unix.EPOLL_CTL_DEL, p.fd, nil)
		unix.Close(p.fd)
	}
}

func (b *epollBackend) free(p *Pump) {
	if p.IsRunning() {
		b.stop(p)
	}
}

func (b *epollBackend) close() error {
	close(b.closing)
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], 1)
	unix.Write(b.wake, buf[:])
	unix.Close(b.epfd)
	return unix.Close(b.wake)
}

// sigaddset sets bit sig in a Sigset_t; golang.org/x/sys/unix exposes the
// type but not the libc macro.
func sigaddset(set *unix.Sigset_t, sig int) {
	set.Val[(sig-1)/64] |= 1 << uint((sig-1)%64)
}
