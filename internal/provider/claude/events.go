// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package claude

import (
	"time"

	"github.com/gfbonny/freshell/internal/provider"
	"github.com/tidwall/gjson"
)

// ParseEvent translates one line of `claude ... --output-format
// stream-json` output into zero or more NormalizedEvents, per the mapping
// table in spec.md §4.4. It never errors on ill-formed input — an
// unparseable or unrecognized line simply yields no events.
func (p *Provider) ParseEvent(line []byte) ([]provider.NormalizedEvent, error) {
	if !gjson.ValidBytes(line) {
		return nil, nil
	}
	root := gjson.ParseBytes(line)
	now := time.Now().UTC()

	sessionID := root.Get("session_id").String()
	if sessionID == "" {
		sessionID = "unknown"
	}

	base := func(t provider.EventType) provider.NormalizedEvent {
		return provider.NormalizedEvent{
			Timestamp: now,
			SessionID: sessionID,
			Provider:  provider.Claude,
			Type:      t,
		}
	}

	switch root.Get("type").String() {
	case "system":
		if root.Get("subtype").String() != "init" {
			return nil, nil
		}
		ev := base(provider.EventSessionStart)
		ev.Session = &provider.SessionInfoPayload{
			CWD:   root.Get("cwd").String(),
			Model: root.Get("model").String(),
		}
		return []provider.NormalizedEvent{*ev.WithLegacyAliases()}, nil

	case "user", "assistant":
		return normalizeMessage(root, sessionID, now), nil

	case "result":
		ev := base(provider.EventSessionEnd)
		if usage := root.Get("usage"); usage.Exists() {
			ev.Tokens = &provider.TokenCounts{
				InputTokens:  int(usage.Get("input_tokens").Int()),
				OutputTokens: int(usage.Get("output_tokens").Int()),
				CachedTokens: int(usage.Get("cache_read_input_tokens").Int() + usage.Get("cache_creation_input_tokens").Int()),
			}
		}
		if root.Get("is_error").Bool() {
			msg := root.Get("result").String()
			if msg == "" {
				msg = "error result"
			}
			ev.Error = &provider.EventError{Message: msg, Recoverable: false}
		}
		return []provider.NormalizedEvent{*ev.WithLegacyAliases()}, nil
	}

	return nil, nil
}

func normalizeMessage(root gjson.Result, sessionID string, now time.Time) []provider.NormalizedEvent {
	role := root.Get("message.role").String()
	if role == "" {
		role = root.Get("type").String()
	}
	msgType := provider.EventMessageUser
	if role == "assistant" {
		msgType = provider.EventMessageAssistant
	}

	content := root.Get("message.content")
	var events []provider.NormalizedEvent

	emit := func(t provider.EventType) *provider.NormalizedEvent {
		return &provider.NormalizedEvent{
			Timestamp: now,
			SessionID: sessionID,
			Provider:  provider.Claude,
			Type:      t,
		}
	}

	if !content.IsArray() {
		text := content.String()
		ev := emit(msgType)
		ev.Message = &provider.MessagePayload{Role: role, Content: text}
		events = append(events, *ev.WithLegacyAliases())
		return events
	}

	var text string
	var blockCount int
	content.ForEach(func(_, block gjson.Result) bool {
		blockCount++
		switch block.Get("type").String() {
		case "text":
			text += block.Get("text").String()
		case "tool_use":
			ev := emit(provider.EventToolCall)
			ev.Tool = &provider.ToolPayload{
				CallID:    block.Get("id").String(),
				Name:      block.Get("name").String(),
				Arguments: []byte(block.Get("input").Raw),
			}
			events = append(events, *ev.WithLegacyAliases())
		case "tool_result":
			ev := emit(provider.EventToolResult)
			ev.Tool = &provider.ToolPayload{
				CallID:  block.Get("tool_use_id").String(),
				Output:  block.Get("content").String(),
				IsError: block.Get("is_error").Bool(),
			}
			events = append(events, *ev.WithLegacyAliases())
		}
		return true
	})

	if text != "" || blockCount == 0 {
		ev := emit(msgType)
		ev.Message = &provider.MessagePayload{Role: role, Content: text}
		// Prepend so the message event precedes any tool events parsed
		// from the same line, whatever their order in content.
		events = append([]provider.NormalizedEvent{*ev.WithLegacyAliases()}, events...)
	}

	return events
}
