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

// Command upipedemo assembles a tiny pipeline (file source -> null filter
// -> counting sink) from a YAML manifest and runs it to completion,
// exercising the manager/control/request wiring end-to-end.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"upipe.tools/upipe/uprobe"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "upipedemo",
		Short: "Assemble and run a small upipe pipeline from a YAML manifest",
	}
	root.AddCommand(newRunCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var configPath string
	var minLevel string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline described by --config",
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, err := LoadManifest(configPath)
			if err != nil {
				return err
			}

			level, err := parseLogLevel(minLevel)
			if err != nil {
				return err
			}
			probe := uprobe.NewPrefix(
				uprobe.NewStdio(nil, os.Stderr, level),
				"upipedemo",
			)

			g, err := buildGraph(manifest, probe)
			if err != nil {
				return err
			}
			defer g.Close()

			g.Wait(10 * time.Millisecond)
			fmt.Fprintf(os.Stdout, "processed %d urefs\n", g.sink.Count())
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to the pipeline manifest (required)")
	cmd.Flags().StringVar(&minLevel, "level", "notice", "minimum log level (verbose, debug, info, notice, warning, error)")
	cmd.MarkFlagRequired("config")

	return cmd
}

func parseLogLevel(s string) (uprobe.LogLevel, error) {
	switch s {
	case "verbose":
		return uprobe.LogVerbose, nil
	case "debug":
		return uprobe.LogDebug, nil
	case "info":
		return uprobe.LogInfo, nil
	case "notice":
		return uprobe.LogNotice, nil
	case "warning":
		return uprobe.LogWarning, nil
	case "error":
		return uprobe.LogError, nil
	default:
		return 0, fmt.Errorf("upipedemo: unknown log level %q", s)
	}
}
