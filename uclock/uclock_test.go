package uclock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromToDurationRoundTrip(t *testing.T) {
	d := 2500 * time.Millisecond
	ticks := FromDuration(d)
	assert.InDelta(t, uint64(2500*27000), ticks, 1)
	assert.InDelta(t, d, ToDuration(ticks), float64(time.Millisecond))
}

func TestPOSIXSplitRoundTrip(t *testing.T) {
	ticks := FromPOSIX(100, 12345)
	sec, rem := ToPOSIX(ticks)
	assert.EqualValues(t, 100, sec)
	assert.EqualValues(t, 12345, rem)
}

func TestStdMonotonicIsNonDecreasing(t *testing.T) {
	c := NewStd(0)
	a := c.Now()
	time.Sleep(time.Millisecond)
	b := c.Now()
	assert.GreaterOrEqual(t, b, a)
}
