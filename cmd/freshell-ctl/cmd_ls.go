// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/gfbonny/freshell/internal/provider"
)

func newLsCmd() *cobra.Command {
	var providerFilter string

	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List discovered transcripts across providers",
		Long: `ls merges every registered provider's on-disk transcript listing into
one newest-first view, per SPEC_FULL.md §4.9 (session listing with
discovery merge).

Examples:
  freshell-ctl ls
  freshell-ctl ls --provider claude`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLs(providerFilter)
		},
	}

	cmd.Flags().StringVar(&providerFilter, "provider", "", "only list transcripts for this provider (claude|codex)")
	return cmd
}

type lsEntry struct {
	Provider provider.Identity          `json:"provider"`
	FilePath string                     `json:"filePath"`
	Meta     provider.ParsedSessionMeta `json:"meta"`
}

func runLs(providerFilter string) error {
	var providers []provider.Provider
	if providerFilter != "" {
		p, err := providerByName(providerFilter)
		if err != nil {
			return err
		}
		providers = []provider.Provider{p}
	} else {
		providers = allProviders()
	}

	var entries []lsEntry
	modTimes := map[string]time.Time{}
	for _, p := range providers {
		files, err := p.ListSessionFiles()
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: list session files for %s: %v\n", p.Identity(), err)
			continue
		}
		for _, f := range files {
			info, err := os.Stat(f)
			if err != nil {
				fmt.Fprintf(os.Stderr, "warning: stat %s: %v\n", f, err)
				continue
			}
			content, err := os.ReadFile(f)
			if err != nil {
				fmt.Fprintf(os.Stderr, "warning: read %s: %v\n", f, err)
				continue
			}
			meta, err := p.ParseSessionFile(content, f)
			if err != nil {
				fmt.Fprintf(os.Stderr, "warning: parse %s: %v\n", f, err)
				continue
			}
			if meta.SessionID == "" {
				meta.SessionID = p.ExtractSessionID(f, &meta)
			}
			modTimes[f] = info.ModTime()
			entries = append(entries, lsEntry{Provider: p.Identity(), FilePath: f, Meta: meta})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return modTimes[entries[i].FilePath].After(modTimes[entries[j].FilePath])
	})

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No transcripts found.")
		return nil
	}
	for _, e := range entries {
		title := e.Meta.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%-8s %-36s %-40s %s\n", e.Provider, e.Meta.SessionID, title, e.FilePath)
	}
	return nil
}
