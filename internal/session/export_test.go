// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gfbonny/freshell/internal/provider"
)

func TestExportTranscriptRejectsUnknownLevel(t *testing.T) {
	p := &echoProvider{script: "true"}
	s := New(context.Background(), p, provider.SpawnOptions{}, 10)
	waitForStatus(t, s, StatusCompleted, 2*time.Second)

	_, err := ExportTranscript(s, "diff")
	assert.Error(t, err)
}

func TestExportTranscriptFullKeepsToolPayloads(t *testing.T) {
	p := &echoProvider{script: "true"}
	s := New(context.Background(), p, provider.SpawnOptions{}, 10)
	waitForStatus(t, s, StatusCompleted, 2*time.Second)

	s.appendEvent(provider.NormalizedEvent{
		Type: provider.EventToolCall,
		Tool: &provider.ToolPayload{Name: "Bash", Arguments: []byte(`{"cmd":"ls"}`)},
	})

	tr, err := ExportTranscript(s, "full")
	require.NoError(t, err)

	var found bool
	for _, ev := range tr.Events {
		if ev.Type == provider.EventToolCall {
			found = true
			assert.Equal(t, "Bash", ev.Tool.Name)
			assert.NotEmpty(t, ev.Tool.Arguments)
		}
	}
	assert.True(t, found)
}

func TestExportTranscriptSummaryRedactsToolPayloads(t *testing.T) {
	p := &echoProvider{script: "true"}
	s := New(context.Background(), p, provider.SpawnOptions{}, 10)
	waitForStatus(t, s, StatusCompleted, 2*time.Second)

	s.appendEvent(provider.NormalizedEvent{
		Type: provider.EventToolResult,
		Tool: &provider.ToolPayload{CallID: "c1", Output: "sensitive output"},
	})

	tr, err := ExportTranscript(s, "summary")
	require.NoError(t, err)

	var found bool
	for _, ev := range tr.Events {
		if ev.Type == provider.EventToolResult {
			found = true
			assert.Empty(t, ev.Tool.Output)
			assert.Equal(t, "[redacted]", ev.Tool.Name)
		}
	}
	assert.True(t, found)
}
