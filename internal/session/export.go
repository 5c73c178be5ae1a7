// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"fmt"
	"time"

	"github.com/gfbonny/freshell/internal/provider"
)

// Transcript is a portable, in-memory export of a live session's
// ring-buffer-visible events, for external backup/diffing — SPEC_FULL.md
// §4.8. It is read-only with respect to a vendor's on-disk transcript
// format: nothing here is ever written back to <home>/projects/... or
// <home>/sessions/....
type Transcript struct {
	SessionID         string                      `json:"sessionId"`
	ProviderSessionID string                      `json:"providerSessionId,omitempty"`
	Provider          provider.Identity           `json:"provider"`
	Status            Status                      `json:"status"`
	CreatedAt         time.Time                   `json:"createdAt"`
	CompletedAt       *time.Time                  `json:"completedAt,omitempty"`
	Events            []provider.NormalizedEvent  `json:"events"`
}

// ExportTranscript produces a Transcript for sess. level is "full" (every
// buffered event unmodified) or "summary" (tool call/result payloads
// redacted to just the tool name, matching the teacher's
// SummarizeMessages redaction rule).
func ExportTranscript(sess *CliSession, level string) (*Transcript, error) {
	if level != "full" && level != "summary" {
		return nil, fmt.Errorf("session: unknown export level %q", level)
	}

	events := sess.Events()
	if level == "summary" {
		events = redactForSummary(events)
	}

	return &Transcript{
		SessionID:         sess.ID,
		ProviderSessionID: sess.ProviderSessionID(),
		Provider:          sess.Provider.Identity(),
		Status:            sess.Status(),
		CreatedAt:         sess.CreatedAt,
		CompletedAt:       sess.CompletedAt(),
		Events:            events,
	}, nil
}

// redactForSummary strips tool call arguments and tool result output,
// keeping only the tool name (or "[redacted]" when the name itself is
// absent) — the same redaction rule as the teacher's SummarizeMessages.
func redactForSummary(events []provider.NormalizedEvent) []provider.NormalizedEvent {
	out := make([]provider.NormalizedEvent, len(events))
	for i, ev := range events {
		out[i] = ev
		if ev.Tool == nil {
			continue
		}
		redacted := *ev.Tool
		redacted.Arguments = nil
		redacted.Output = ""
		if redacted.Name == "" {
			redacted.Name = "[redacted]"
		}
		out[i].Tool = &redacted
		if ev.Type == provider.EventToolCall {
			out[i].ToolCall = &redacted
		}
		if ev.Type == provider.EventToolResult {
			out[i].ToolResult = &redacted
		}
	}
	return out
}
