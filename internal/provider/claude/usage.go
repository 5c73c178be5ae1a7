// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package claude

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"math"
	"os"
	"strconv"

	"github.com/gfbonny/freshell/internal/provider"
)

// rawUsage mirrors the subset of an assistant StreamEvent's usage object
// the resolver needs. Field names follow the vendor's own snake_case, as
// in the teacher's inline usage struct in internal/claude/manager.go.
type rawUsage struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
}

type assistantLine struct {
	UUID    string `json:"uuid"`
	Message struct {
		ID    string   `json:"id"`
		Usage rawUsage `json:"usage"`
	} `json:"message"`
}

// usageResolver folds dedup'd assistant usage records across a transcript,
// keeping the latest record whose dedupe key was not seen before (a repeat
// of an earlier key is ignored) — never an aggregate — per spec.md §4.2.
type usageResolver struct {
	seen   map[string]bool
	latest *rawUsage
}

func newUsageResolver() *usageResolver {
	return &usageResolver{seen: map[string]bool{}}
}

// dedupeKey returns the key for one raw transcript line: the assistant
// uuid if present, else message.id, else a SHA-1 of the raw line bytes.
// This fallback hash is intentionally of the *raw* bytes, not a
// re-marshaled/normalized form — whitespace differences between
// otherwise-equivalent lines are distinct keys, per spec.md §9.
func dedupeKey(line []byte, parsed assistantLine) string {
	if parsed.UUID != "" {
		return "uuid:" + parsed.UUID
	}
	if parsed.Message.ID != "" {
		return "msgid:" + parsed.Message.ID
	}
	sum := sha1.Sum(line)
	return "line:" + hex.EncodeToString(sum[:])
}

// observeAssistantLine feeds one raw transcript line into the fold. It is a
// no-op for anything that doesn't decode as an assistant usage record.
func (r *usageResolver) observeAssistantLine(role string, line []byte) {
	if role != "assistant" {
		return
	}
	var parsed assistantLine
	if err := json.Unmarshal(line, &parsed); err != nil {
		return
	}
	key := dedupeKey(line, parsed)
	if r.seen[key] {
		return
	}
	r.seen[key] = true
	u := parsed.Message.Usage
	r.latest = &u
}

// autocompactPct returns the effective compaction percentage: the
// CLAUDE_AUTOCOMPACT_PCT_OVERRIDE env var, lowered (never raised) from the
// default of 95. A non-finite or sub-1 override falls back to the default.
func autocompactPct() int {
	const defaultPct = 95
	raw := os.Getenv("CLAUDE_AUTOCOMPACT_PCT_OVERRIDE")
	if raw == "" {
		return defaultPct
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 1 {
		return defaultPct
	}
	pct := int(math.Round(v))
	if pct > defaultPct {
		pct = defaultPct
	}
	return pct
}

// resolve produces the final TokenSummary from the folded usage, applying
// any debug-sidecar override (contextTokens/threshold) when non-nil.
func (r *usageResolver) resolve(model string, sidecarTokens, sidecarThreshold *int) *provider.TokenSummary {
	if r.latest == nil {
		return nil
	}
	u := *r.latest
	cached := u.CacheReadInputTokens + u.CacheCreationInputTokens
	total := u.InputTokens + u.OutputTokens + cached
	contextTokens := total

	window := contextWindowForModel(model)
	threshold := int(math.Round(float64(window) * float64(autocompactPct()) / 100.0))

	if sidecarTokens != nil {
		contextTokens = *sidecarTokens
	}
	if sidecarThreshold != nil {
		threshold = *sidecarThreshold
	}

	summary := &provider.TokenSummary{
		InputTokens:            u.InputTokens,
		OutputTokens:           u.OutputTokens,
		CachedTokens:           cached,
		TotalTokens:            total,
		ContextTokens:          contextTokens,
		ModelContextWindow:     window,
		CompactThresholdTokens: threshold,
	}
	if threshold > 0 {
		pct := clampPercent(int(math.Round(float64(contextTokens) / float64(threshold) * 100)))
		summary.CompactPercent = &pct
	}
	return summary
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
