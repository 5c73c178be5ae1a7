// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package codex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

// TestResolveContextTokensRejectsImplausibleCumulativeTotal is spec.md §8
// scenario 2: a token_count with no model_context_window, where the
// cumulative total_usage_tokens vastly exceeds 8x the last turn's usage and
// must be rejected in favor of last_token_usage.total_tokens.
func TestResolveContextTokensRejectsImplausibleCumulativeTotal(t *testing.T) {
	payload := gjson.Parse(`{
		"last_token_usage": {"input_tokens": 3145, "output_tokens": 0, "cached_input_tokens": 55552, "total_tokens": 58697},
		"total_usage_tokens": 83181483
	}`)

	s := &tokenCountState{}
	s.observeTokenCount(payload)

	contextTokens, ok := s.resolveContextTokens()
	require.True(t, ok)
	assert.Equal(t, 58697, contextTokens)

	summary := s.toSummary()
	require.NotNil(t, summary)
	assert.Equal(t, 58697, summary.ContextTokens)
	assert.Equal(t, 55552, summary.CachedTokens)
}

// TestToSummaryDerivesThresholdFromModelContextWindow is spec.md §8
// scenario 3: an explicit model_context_window with no explicit
// auto_compact_token_limit must derive the threshold as
// round(window * 90/95), and compactPercent from that derived threshold.
func TestToSummaryDerivesThresholdFromModelContextWindow(t *testing.T) {
	payload := gjson.Parse(`{
		"model_context_window": 258400,
		"last_token_usage": {"total_tokens": 163284}
	}`)

	s := &tokenCountState{}
	s.observeTokenCount(payload)

	summary := s.toSummary()
	require.NotNil(t, summary)
	assert.Equal(t, 258400, summary.ModelContextWindow)
	assert.Equal(t, 244800, summary.CompactThresholdTokens)
	require.NotNil(t, summary.CompactPercent)
	assert.Equal(t, 67, *summary.CompactPercent)
}
