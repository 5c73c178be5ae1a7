// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package codex

import (
	"context"
	"regexp"
	"strings"

	"github.com/gfbonny/freshell/internal/pathutil"
	"github.com/gfbonny/freshell/internal/provider"
	"github.com/tidwall/gjson"
)

var lineSplitRe = regexp.MustCompile(`\r?\n`)

func resolveProjectPath(cwd string) string {
	return pathutil.ResolveProjectPath(context.Background(), cwd)
}

// ParseSessionFile parses a Codex rollout transcript, which may use either
// the current envelope format (`{"type":"session_meta"/"response_item"/
// "event_msg","payload":{...}}`) or the older bare-record format (a bare
// session-meta record followed by bare response items), per spec.md §4.2.
func (p *Provider) ParseSessionFile(content []byte, filePath string) (provider.ParsedSessionMeta, error) {
	meta := provider.ParsedSessionMeta{}
	lines := lineSplitRe.Split(string(content), -1)

	state := &tokenCountState{}
	var titleSet, summarySet, cwdSet, sessionIDSet, nonInteractiveSet bool

	for _, raw := range lines {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		meta.MessageCount++

		if !gjson.Valid(raw) {
			continue
		}
		root := gjson.Parse(raw)
		lineType := root.Get("type").String()
		payload := root.Get("payload")
		hasPayload := payload.Exists()

		switch {
		case lineType == "session_meta" && hasPayload:
			if !sessionIDSet {
				if sid := payload.Get("session_id").String(); sid != "" {
					meta.SessionID = sid
					sessionIDSet = true
				}
			}

		case lineType == "" && !hasPayload && root.Get("session_id").Exists():
			if !sessionIDSet {
				if sid := root.Get("session_id").String(); sid != "" {
					meta.SessionID = sid
					sessionIDSet = true
				}
			}
			if c := root.Get("cwd").String(); c != "" && !cwdSet && pathutil.IsPathLike(c) {
				meta.CWD = c
				cwdSet = true
			}

		case lineType == "env_context" && hasPayload:
			if !cwdSet {
				if c := payload.Get("cwd").String(); c != "" && pathutil.IsPathLike(c) {
					meta.CWD = c
					cwdSet = true
				}
			}
			if !nonInteractiveSet {
				if policy := payload.Get("approval_policy").String(); policy != "" {
					v := policy == "never"
					meta.IsNonInteractive = &v
					nonInteractiveSet = true
				}
			}

		case lineType == "event_msg" && hasPayload:
			handleEventMsg(payload, state)
			if sub := payload.Get("type").String(); sub == "user_message" {
				text := payload.Get("payload.text").String()
				if text != "" {
					if !titleSet {
						if title, ok := titleFromCandidate(text); ok {
							meta.Title = title
							meta.FirstUserMessage = title
							titleSet = true
						}
					}
					if !summarySet {
						meta.Summary = summaryFromCandidate(text)
						summarySet = true
					}
				}
			}

		case lineType == "response_item" && hasPayload:
			handleResponseItem(payload, &meta, &titleSet, &summarySet)

		case lineType == "message" || lineType == "command_execution" || lineType == "file_change" ||
			lineType == "reasoning" || lineType == "web_search" || lineType == "mcp_tool_call":
			handleResponseItem(root, &meta, &titleSet, &summarySet)
		}
	}

	if ts := state.toSummary(); ts != nil {
		meta.TokenUsage = ts
	}

	return meta, nil
}

func handleEventMsg(payload gjson.Result, state *tokenCountState) {
	if payload.Get("type").String() == "token_count" {
		state.observeTokenCount(payload.Get("payload"))
	}
}

func handleResponseItem(item gjson.Result, meta *provider.ParsedSessionMeta, titleSet, summarySet *bool) {
	if item.Get("type").String() != "message" {
		return
	}
	role := item.Get("role").String()
	if role != "user" {
		return
	}
	text := textFromContent(item.Get("content"))
	if text == "" {
		return
	}
	if !*titleSet {
		if title, ok := titleFromCandidate(text); ok {
			meta.Title = title
			meta.FirstUserMessage = title
			*titleSet = true
		}
	}
	if !*summarySet {
		meta.Summary = summaryFromCandidate(text)
		*summarySet = true
	}
}

// textFromContent handles Codex's content field being either a plain
// string or an array of {type:"text", text:"..."} blocks.
func textFromContent(content gjson.Result) string {
	if content.IsArray() {
		var text string
		content.ForEach(func(_, block gjson.Result) bool {
			if block.Get("type").String() == "text" || block.Get("type").String() == "input_text" {
				text += block.Get("text").String()
			}
			return true
		})
		return text
	}
	return content.String()
}
