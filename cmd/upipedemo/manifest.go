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

package main

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Manifest describes a tiny linear pipeline: one file source feeding one
// null filter feeding one counting sink. It is intentionally small — the
// point is to exercise allocation/wiring end-to-end, not to describe every
// pipe this module could run.
type Manifest struct {
	Source struct {
		Path      string `yaml:"path"`
		ChunkSize int    `yaml:"chunk_size"`
	} `yaml:"source"`

	Filter struct {
		// Drop, if true, makes the null filter discard every uref instead
		// of passing it through, the way upipe_null's "unattached" mode
		// behaves.
		Drop bool `yaml:"drop"`
	} `yaml:"filter"`

	Sink struct {
		// LogEvery, if > 0, makes the counting sink throw an EventLog
		// notice every LogEvery urefs in addition to counting.
		LogEvery int `yaml:"log_every"`
	} `yaml:"sink"`
}

// LoadManifest reads and unmarshals a Manifest from path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("upipedemo: reading manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("upipedemo: parsing manifest: %w", err)
	}
	if m.Source.ChunkSize <= 0 {
		m.Source.ChunkSize = 4096
	}
	return &m, nil
}
