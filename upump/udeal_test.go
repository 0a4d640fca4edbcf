package upump

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUdealGrabUncontendedIsImmediate(t *testing.T) {
	d := NewUdeal()
	d.Start()
	done := make(chan struct{})
	go func() {
		d.Grab()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("uncontended Grab did not return")
	}
	d.Yield()
}

func TestUdealGrabSerializesContenders(t *testing.T) {
	d := NewUdeal()
	const n = 8
	var active int32
	var maxActive int32
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		wg.Add(1)
		d.Start()
		go func() {
			defer wg.Done()
			d.Grab()
			cur := atomic.AddInt32(&active, 1)
			mu.Lock()
			if cur > maxActive {
				maxActive = cur
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&active, -1)
			d.Yield()
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("contenders never all completed")
	}
	assert.EqualValues(t, 1, maxActive, "at most one goroutine should hold access at a time")
}

func TestUdealAbortReleasesWaiterSlot(t *testing.T) {
	d := NewUdeal()
	d.Start()
	d.Abort()

	d.Start()
	done := make(chan struct{})
	go func() {
		d.Grab()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Grab after Abort did not return")
	}
	d.Yield()
}
