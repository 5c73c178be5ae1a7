// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gfbonny/freshell/internal/provider"
	"github.com/gfbonny/freshell/internal/provider/claude"
	"github.com/gfbonny/freshell/internal/provider/codex"
)

func newShowCmd() *cobra.Command {
	var providerName string

	cmd := &cobra.Command{
		Use:   "show <session-file>",
		Short: "Parse and print one transcript",
		Long: `show parses a single on-disk vendor transcript and prints its
ParsedSessionMeta plus its resolved TokenSummary.

If --provider isn't given, show picks the provider from the file's first
lines (Codex envelope keys such as "session_meta", or Claude's
"sessionId"), falling back to which vendor home directory the path lies
under.

Examples:
  freshell-ctl show ~/.claude/projects/myrepo/abc123.jsonl
  freshell-ctl show --provider codex ~/.codex/sessions/2026/07/31/rollout.jsonl`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(args[0], providerName)
		},
	}

	cmd.Flags().StringVar(&providerName, "provider", "", "provider that owns this transcript (claude|codex); auto-detected if omitted")
	return cmd
}

func runShow(path string, providerName string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var p provider.Provider
	if providerName != "" {
		p, err = providerByName(providerName)
		if err != nil {
			return err
		}
	} else {
		p, err = detectProvider(path)
		if err != nil {
			return err
		}
	}

	meta, err := p.ParseSessionFile(content, path)
	if err != nil {
		return fmt.Errorf("parse %s as %s: %w", path, p.Identity(), err)
	}
	if meta.SessionID == "" {
		meta.SessionID = p.ExtractSessionID(path, &meta)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}

	fmt.Printf("Provider:     %s\n", p.Identity())
	fmt.Printf("Session ID:   %s\n", meta.SessionID)
	fmt.Printf("CWD:          %s\n", meta.CWD)
	fmt.Printf("Title:        %s\n", meta.Title)
	fmt.Printf("Summary:      %s\n", meta.Summary)
	fmt.Printf("Messages:     %d\n", meta.MessageCount)
	if meta.GitBranch != nil {
		fmt.Printf("Git branch:   %s\n", *meta.GitBranch)
	}
	if meta.GitDirty != nil {
		fmt.Printf("Git dirty:    %t\n", *meta.GitDirty)
	}
	if meta.TokenUsage != nil {
		u := meta.TokenUsage
		fmt.Println()
		fmt.Println("Token usage:")
		fmt.Printf("  Input:      %d\n", u.InputTokens)
		fmt.Printf("  Output:     %d\n", u.OutputTokens)
		fmt.Printf("  Cached:     %d\n", u.CachedTokens)
		fmt.Printf("  Total:      %d\n", u.TotalTokens)
		fmt.Printf("  Context:    %d / %d\n", u.ContextTokens, u.ModelContextWindow)
		if u.CompactPercent != nil {
			fmt.Printf("  Compact at: %d%%\n", *u.CompactPercent)
		}
	}
	return nil
}

// detectProvider guesses the owning provider from path and content.
// Neither provider's ParseSessionFile ever errors on malformed input (both
// are built to tolerate an unfamiliar line rather than fail the whole
// transcript, per spec.md §4.2/§4.3's "small local guards, not strict
// schema" design), so "try both, see which doesn't error" can't
// discriminate here — this instead looks for each vendor's distinctive
// envelope keys (Codex wraps every record in "payload" with a
// "session_meta"/"response_item"/"event_msg" type; Claude's records are
// flat with a top-level "sessionId"), falling back to the vendor home
// directory the path sits under.
func detectProvider(path string) (provider.Provider, error) {
	cl, cx := claude.New(), codex.New()

	content, err := os.ReadFile(path)
	if err == nil {
		for _, line := range strings.SplitN(string(content), "\n", 20) {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if strings.Contains(line, `"session_meta"`) || strings.Contains(line, `"response_item"`) || strings.Contains(line, `"event_msg"`) {
				return cx, nil
			}
			if strings.Contains(line, `"sessionId"`) {
				return cl, nil
			}
		}
	}

	if strings.Contains(path, cx.HomeDir()) && cx.HomeDir() != "" {
		return cx, nil
	}
	if strings.Contains(path, cl.HomeDir()) && cl.HomeDir() != "" {
		return cl, nil
	}
	return nil, fmt.Errorf("could not determine provider for %s; pass --provider explicitly", path)
}
