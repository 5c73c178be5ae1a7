// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package manager

import (
	"log"
	"os"
	"sort"
	"time"

	"github.com/gfbonny/freshell/internal/provider"
)

// TranscriptEntry pairs a ParsedSessionMeta with the provider identity
// that owns it, so a caller can route a resume request to the right
// provider — spec.md §4.9 (supplemented feature).
type TranscriptEntry struct {
	Provider provider.Identity
	FilePath string
	ModTime  time.Time
	Meta     provider.ParsedSessionMeta
}

// ListTranscripts merges every registered provider's ListSessionFiles /
// ParseSessionFile across the whole pack into one newest-first slice, per
// SPEC_FULL.md §4.9. A transcript that fails to parse is skipped with a
// logged TranscriptUnreadable, never aborting the merge.
func (m *Manager) ListTranscripts() ([]TranscriptEntry, error) {
	m.mu.Lock()
	providers := make([]provider.Provider, 0, len(m.providers))
	for _, p := range m.providers {
		providers = append(providers, p)
	}
	m.mu.Unlock()

	var entries []TranscriptEntry
	for _, p := range providers {
		files, err := p.ListSessionFiles()
		if err != nil {
			log.Printf("manager: list session files for %s: %v", p.Identity(), err)
			continue
		}
		for _, f := range files {
			info, err := os.Stat(f)
			if err != nil {
				log.Print(provider.NewError(provider.KindTranscriptUnreadable, "manager.ListTranscripts", f, err))
				continue
			}
			content, err := os.ReadFile(f)
			if err != nil {
				log.Print(provider.NewError(provider.KindTranscriptUnreadable, "manager.ListTranscripts", f, err))
				continue
			}
			meta, err := p.ParseSessionFile(content, f)
			if err != nil {
				log.Print(provider.NewError(provider.KindTranscriptUnreadable, "manager.ListTranscripts", f, err))
				continue
			}
			if meta.SessionID == "" {
				meta.SessionID = p.ExtractSessionID(f, &meta)
			}
			entries = append(entries, TranscriptEntry{Provider: p.Identity(), FilePath: f, ModTime: info.ModTime(), Meta: meta})
		}
	}

	// Claude session files are named <uuid>.jsonl with no temporal
	// component, so ordering by path would be arbitrary; ModTime gives a
	// real newest-first ordering across both vendors.
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].ModTime.After(entries[j].ModTime) })
	return entries, nil
}
