package bufpipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	p := New[int](4)
	require.NoError(t, p.Write(7))
	v, err := p.Read()
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestWriteOverrunLatchesError(t *testing.T) {
	p := New[int](1)
	require.NoError(t, p.Write(1))
	err := p.Write(2)
	assert.ErrorIs(t, err, ErrBufferOverrun)

	err = p.Write(3)
	assert.ErrorIs(t, err, ErrBufferOverrun)
}

func TestCloseWakesPendingRead(t *testing.T) {
	p := New[int](1)
	done := make(chan error, 1)
	go func() {
		_, err := p.Read()
		done <- err
	}()
	require.NoError(t, p.Close())
	err := <-done
	assert.Error(t, err)
}
