// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithLegacyAliasesMirrorsSessionAndTokens(t *testing.T) {
	ev := &NormalizedEvent{
		Type:    EventTokenUsage,
		Session: &SessionInfoPayload{CWD: "/tmp"},
		Tokens:  &TokenCounts{InputTokens: 10, OutputTokens: 5},
	}
	ev.WithLegacyAliases()

	assert.Same(t, ev.Session, ev.SessionInfo)
	assert.Same(t, ev.Tokens, ev.TokenUsage)
	assert.Nil(t, ev.ToolCall)
	assert.Nil(t, ev.ToolResult)
}

func TestWithLegacyAliasesOnlySetsToolCallOrResultForMatchingType(t *testing.T) {
	call := &NormalizedEvent{Type: EventToolCall, Tool: &ToolPayload{Name: "bash"}}
	call.WithLegacyAliases()
	assert.Same(t, call.Tool, call.ToolCall)
	assert.Nil(t, call.ToolResult)

	result := &NormalizedEvent{Type: EventToolResult, Tool: &ToolPayload{Name: "bash"}}
	result.WithLegacyAliases()
	assert.Same(t, result.Tool, result.ToolResult)
	assert.Nil(t, result.ToolCall)
}
