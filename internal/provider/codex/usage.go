// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package codex

import (
	"math"

	"github.com/gfbonny/freshell/internal/provider"
	"github.com/tidwall/gjson"
)

const negativeContextCap = 5_000_000

// tokenCountState accumulates the fields spec.md §4.2 needs from a Codex
// `token_count` event_msg payload to resolve a TokenSummary.
type tokenCountState struct {
	haveExplicitWindow bool
	window             int
	haveExplicitLimit  bool
	explicitLimit      int

	lastUsageTotal   int
	haveLastUsage    bool
	lastUsageInput   int
	lastUsageOutput  int
	lastUsageCached  int

	candidates []int // in preference order: current_context_tokens, context_tokens, context_token_count, last_token_usage.total_tokens, total_usage_tokens
}

// observeTokenCount folds one token_count event_msg payload's worth of
// gjson fields into the running state. Later events overwrite earlier ones
// for every field (current-turn semantics — there is no dedupe/fold here,
// unlike Claude's assistant-usage resolver).
func (s *tokenCountState) observeTokenCount(payload gjson.Result) {
	s.candidates = s.candidates[:0]

	if w := payload.Get("model_context_window"); w.Exists() {
		s.window = int(w.Int())
		s.haveExplicitWindow = true
	}
	if lim := payload.Get("auto_compact_token_limit"); lim.Exists() {
		s.explicitLimit = int(lim.Int())
		s.haveExplicitLimit = true
	}

	last := payload.Get("last_token_usage")
	if last.Exists() {
		s.haveLastUsage = true
		s.lastUsageInput = int(last.Get("input_tokens").Int())
		s.lastUsageOutput = int(last.Get("output_tokens").Int())
		s.lastUsageCached = int(last.Get("cached_input_tokens").Int())
		s.lastUsageTotal = int(last.Get("total_tokens").Int())
		if s.lastUsageTotal == 0 {
			s.lastUsageTotal = s.lastUsageInput + s.lastUsageOutput
		}
	}

	addCandidate := func(v gjson.Result) {
		if v.Exists() {
			s.candidates = append(s.candidates, int(v.Int()))
		}
	}
	addCandidate(payload.Get("current_context_tokens"))
	addCandidate(payload.Get("context_tokens"))
	addCandidate(payload.Get("context_token_count"))
	if s.haveLastUsage {
		s.candidates = append(s.candidates, s.lastUsageTotal)
	}
	addCandidate(payload.Get("total_usage_tokens"))
}

// resolveContextTokens picks the first candidate that survives the
// plausibility filter of spec.md §4.2: reject anything exceeding
// 2×modelContextWindow (or 5,000,000 when the window is unknown), or
// exceeding 8×lastUsage.totalTokens.
func (s *tokenCountState) resolveContextTokens() (int, bool) {
	upperByWindow := negativeContextCap
	if s.haveExplicitWindow && s.window > 0 {
		upperByWindow = 2 * s.window
	}
	upperByLastUsage := math.MaxInt
	if s.haveLastUsage && s.lastUsageTotal > 0 {
		upperByLastUsage = 8 * s.lastUsageTotal
	}

	for _, c := range s.candidates {
		if c <= 0 {
			continue
		}
		if c > upperByWindow {
			continue
		}
		if c > upperByLastUsage {
			continue
		}
		return c, true
	}
	return 0, false
}

func (s *tokenCountState) toSummary() *provider.TokenSummary {
	contextTokens, ok := s.resolveContextTokens()
	if !ok && !s.haveLastUsage {
		return nil
	}
	if !ok {
		contextTokens = s.lastUsageTotal
	}

	window := defaultContextWindow
	if s.haveExplicitWindow && s.window > 0 {
		window = s.window
	}

	threshold := int(math.Round(float64(window) * 90.0 / 95.0))
	if s.haveExplicitLimit && s.explicitLimit > 0 {
		threshold = s.explicitLimit
	}

	total := s.lastUsageTotal
	if total == 0 {
		total = s.lastUsageInput + s.lastUsageOutput
	}

	summary := &provider.TokenSummary{
		InputTokens:            s.lastUsageInput,
		OutputTokens:           s.lastUsageOutput,
		CachedTokens:           s.lastUsageCached,
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
