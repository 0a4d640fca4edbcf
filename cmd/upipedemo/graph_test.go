package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upipe.tools/upipe/uprobe"
)

func TestBuildGraphRunsSourceToSink(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "in.bin")
	require.NoError(t, os.WriteFile(srcPath, make([]byte, 100), 0o644))

	m := &Manifest{}
	m.Source.Path = srcPath
	m.Source.ChunkSize = 16

	var events []uprobe.Event
	probe := uprobe.ThrowFunc(func(pipe any, event uprobe.Event, args ...any) bool {
		events = append(events, event)
		return true
	})

	g, err := buildGraph(m, probe)
	require.NoError(t, err)
	defer g.Close()

	g.Wait(time.Millisecond)

	// 100 bytes in chunks of 16 is 6 full chunks plus one 4-byte chunk; the
	// sink sees one uref per chunk read, including the short last one.
	assert.GreaterOrEqual(t, g.sink.Count(), 6)
	assert.Contains(t, events, uprobe.EventSourceEnd)
}

func TestBuildGraphDropFilterNeverReachesSink(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "in.bin")
	require.NoError(t, os.WriteFile(srcPath, make([]byte, 32), 0o644))

	m := &Manifest{}
	m.Source.Path = srcPath
	m.Source.ChunkSize = 8
	m.Filter.Drop = true

	probe := uprobe.ThrowFunc(func(pipe any, event uprobe.Event, args ...any) bool { return true })

	g, err := buildGraph(m, probe)
	require.NoError(t, err)
	defer g.Close()

	g.Wait(time.Millisecond)
	assert.Equal(t, 0, g.sink.Count())
}

func TestBuildGraphMissingSourceFileErrors(t *testing.T) {
	m := &Manifest{}
	m.Source.Path = "/nonexistent/in.bin"
	m.Source.ChunkSize = 16

	_, err := buildGraph(m, uprobe.ThrowFunc(func(any, uprobe.Event, ...any) bool { return true }))
	assert.Error(t, err)
}
