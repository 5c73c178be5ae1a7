// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package claude

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestUsageResolverDedupeFold is spec.md §8 scenario 1 verbatim: five
// assistant lines, two of them duplicates (by uuid, then by message id)
// that must be ignored, folding to the *latest* distinct usage rather than
// an aggregate.
func TestUsageResolverDedupeFold(t *testing.T) {
	lines := []string{
		`{"uuid":"A","message":{"usage":{"input_tokens":10,"output_tokens":4,"cache_read_input_tokens":5,"cache_creation_input_tokens":0}}}`,
		`{"uuid":"A","message":{"usage":{"input_tokens":99,"output_tokens":99,"cache_read_input_tokens":99,"cache_creation_input_tokens":99}}}`,
		`{"message":{"id":"B","usage":{"input_tokens":6,"output_tokens":3,"cache_read_input_tokens":0,"cache_creation_input_tokens":4}}}`,
		`{"message":{"id":"B","usage":{"input_tokens":1,"output_tokens":1,"cache_read_input_tokens":1,"cache_creation_input_tokens":1}}}`,
		`{"message":{"usage":{"input_tokens":4,"output_tokens":2,"cache_read_input_tokens":1,"cache_creation_input_tokens":2}}}`,
	}

	r := newUsageResolver()
	for _, l := range lines {
		r.observeAssistantLine("assistant", []byte(l))
	}

	summary := r.resolve("", nil, nil)
	require.NotNil(t, summary)
	assert.Equal(t, 4, summary.InputTokens)
	assert.Equal(t, 2, summary.OutputTokens)
	assert.Equal(t, 3, summary.CachedTokens)
	assert.Equal(t, 9, summary.TotalTokens)
	assert.Equal(t, 9, summary.ContextTokens)
	assert.Equal(t, 200000, summary.ModelContextWindow)
	assert.Equal(t, 190000, summary.CompactThresholdTokens)
	require.NotNil(t, summary.CompactPercent)
	assert.Equal(t, 0, *summary.CompactPercent)
}
