// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Command freshell-ctl is the operator CLI for the session supervisor —
// cobra-based per SPEC_FULL.md §11, grounded in randalmurphal-orc's and
// mreferre-entirecli's cobra command trees (in contrast to the teacher's
// own operator CLI, trellis-ctl, which hand-rolls a switch over argv and
// talks to a running daemon over HTTP via pkg/client; freshell-ctl instead
// drives internal/manager and internal/provider directly for `ls`/`show`/
// `run`, since those operations need no running daemon at all).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var jsonOutput bool

var rootCmd = &cobra.Command{
	Use:   "freshell-ctl",
	Short: "Operator CLI for the freshell session supervisor",
	Long: `freshell-ctl inspects vendor CLI transcripts and drives sessions
directly, without requiring a running freshelld daemon for most commands.

Quick start:
  freshell-ctl ls                       List every discovered transcript
  freshell-ctl show <session-file>      Parse and print one transcript
  freshell-ctl run claude "fix the bug" Drive a session and stream events
  freshell-ctl serve                    Start the HTTP/WebSocket daemon`,
	SilenceUsage: true,
}

func main() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddCommand(newLsCmd())
	rootCmd.AddCommand(newShowCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newServeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
