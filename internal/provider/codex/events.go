// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package codex

import (
	"encoding/json"
	"time"

	"github.com/gfbonny/freshell/internal/provider"
	"github.com/tidwall/gjson"
)

// ParseEvent translates one line of `codex exec --json` output into zero
// or more NormalizedEvents, per the mapping table in spec.md §4.4. Like
// the Claude normalizer, it never errors — unrecognized record kinds
// simply yield no events (spec.md §9: "tolerate unknown record kinds by
// emitting zero events").
func (p *Provider) ParseEvent(line []byte) ([]provider.NormalizedEvent, error) {
	if !gjson.ValidBytes(line) {
		return nil, nil
	}
	root := gjson.ParseBytes(line)
	now := time.Now().UTC()

	sessionID := "unknown"
	lineType := root.Get("type").String()
	payload := root.Get("payload")
	hasPayload := payload.Exists()

	base := func(t provider.EventType) provider.NormalizedEvent {
		return provider.NormalizedEvent{
			Timestamp: now,
			SessionID: sessionID,
			Provider:  provider.Codex,
			Type:      t,
		}
	}

	switch {
	case lineType == "session_meta" && hasPayload:
		if sid := payload.Get("session_id").String(); sid != "" {
			sessionID = sid
		}
		ev := base(provider.EventSessionStart)
		ev.SessionID = sessionID
		ev.Session = &provider.SessionInfoPayload{Model: payload.Get("model").String()}
		return []provider.NormalizedEvent{*ev.WithLegacyAliases()}, nil

	case lineType == "event_msg" && hasPayload:
		return normalizeEventMsg(payload, sessionID, now), nil

	case lineType == "response_item" && hasPayload:
		return normalizeResponseItem(payload, sessionID, now), nil
	}

	return nil, nil
}

func normalizeEventMsg(payload gjson.Result, sessionID string, now time.Time) []provider.NormalizedEvent {
	emit := func(t provider.EventType) *provider.NormalizedEvent {
		return &provider.NormalizedEvent{Timestamp: now, SessionID: sessionID, Provider: provider.Codex, Type: t}
	}

	switch payload.Get("type").String() {
	case "agent_reasoning":
		ev := emit(provider.EventReasoning)
		ev.Reasoning = payload.Get("payload.text").String()
		return []provider.NormalizedEvent{*ev.WithLegacyAliases()}

	case "agent_message":
		ev := emit(provider.EventMessageAssistant)
		ev.Message = &provider.MessagePayload{Role: "assistant", Content: payload.Get("payload.text").String()}
		return []provider.NormalizedEvent{*ev.WithLegacyAliases()}

	case "token_count":
		state := &tokenCountState{}
		state.observeTokenCount(payload.Get("payload"))
		if _, ok := state.resolveContextTokens(); !ok {
			return nil
		}
		summary := state.toSummary()
		if summary == nil {
			return nil
		}
		ev := emit(provider.EventTokenUsage)
		ev.Tokens = &provider.TokenCounts{
			InputTokens:  summary.InputTokens,
			OutputTokens: summary.OutputTokens,
			CachedTokens: summary.CachedTokens,
		}
		return []provider.NormalizedEvent{*ev.WithLegacyAliases()}
	}
	return nil
}

func normalizeResponseItem(item gjson.Result, sessionID string, now time.Time) []provider.NormalizedEvent {
	emit := func(t provider.EventType) *provider.NormalizedEvent {
		return &provider.NormalizedEvent{Timestamp: now, SessionID: sessionID, Provider: provider.Codex, Type: t}
	}

	switch item.Get("type").String() {
	case "message":
		role := item.Get("role").String()
		t := provider.EventMessageUser
		if role == "assistant" {
			t = provider.EventMessageAssistant
		}
		ev := emit(t)
		ev.Message = &provider.MessagePayload{Role: role, Content: textFromContent(item.Get("content"))}
		return []provider.NormalizedEvent{*ev.WithLegacyAliases()}

	case "function_call":
		ev := emit(provider.EventToolCall)
		ev.Tool = &provider.ToolPayload{
			CallID:    item.Get("call_id").String(),
			Name:      item.Get("name").String(),
			Arguments: decodeArguments(item.Get("arguments").String()),
		}
		return []provider.NormalizedEvent{*ev.WithLegacyAliases()}

	case "function_call_output":
		ev := emit(provider.EventToolResult)
		ev.Tool = &provider.ToolPayload{
			CallID: item.Get("call_id").String(),
			Output: item.Get("output").String(),
		}
		return []provider.NormalizedEvent{*ev.WithLegacyAliases()}
	}
	return nil
}

// decodeArguments JSON-decodes a Codex function_call's arguments string
// when it is itself valid JSON, else passes it through as a JSON string
// literal, per spec.md §4.4.
func decodeArguments(raw string) json.RawMessage {
	if raw == "" {
		return nil
	}
	if gjson.Valid(raw) {
		return json.RawMessage(raw)
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	return encoded
}
