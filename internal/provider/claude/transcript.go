// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package claude

import (
	"context"
	"regexp"
	"strings"

	"github.com/gfbonny/freshell/internal/debugcache"
	"github.com/gfbonny/freshell/internal/pathutil"
	"github.com/gfbonny/freshell/internal/provider"
	"github.com/tidwall/gjson"
)

var lineSplitRe = regexp.MustCompile(`\r?\n`)

func resolveProjectPath(cwd string) string {
	return pathutil.ResolveProjectPath(context.Background(), cwd)
}

// ParseSessionFile parses one Claude transcript's bytes into a
// ParsedSessionMeta, per spec.md §4.2. It never returns an error for
// malformed individual lines — only the top-level "is this worth a
// TranscriptUnreadable" decision bubbles up, and Claude's format has no
// case where the whole file is considered unreadable short of the caller
// being unable to open it (handled by ListSessionFiles/the fs layer), so
// this always succeeds.
func (p *Provider) ParseSessionFile(content []byte, filePath string) (provider.ParsedSessionMeta, error) {
	meta := provider.ParsedSessionMeta{}
	lines := lineSplitRe.Split(string(content), -1)

	resolver := newUsageResolver()
	var titleSet, summarySet, cwdSet, branchSet, dirtySet, sessionIDSet, modelSet bool
	var model string

	for _, raw := range lines {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		meta.MessageCount++

		if !gjson.Valid(raw) {
			continue
		}
		root := gjson.Parse(raw)

		if !sessionIDSet {
			if sid := root.Get("sessionId").String(); sid != "" {
				meta.SessionID = sid
				sessionIDSet = true
			}
		}
		if !cwdSet {
			if cwd := root.Get("cwd").String(); cwd != "" && pathutil.IsPathLike(cwd) {
				meta.CWD = cwd
				cwdSet = true
			}
		}
		if !branchSet {
			if b := root.Get("gitBranch").String(); b != "" {
				meta.GitBranch = stringPtr(b)
				branchSet = true
			}
		}
		if !dirtySet {
			if root.Get("gitDirty").Exists() {
				d := root.Get("gitDirty").Bool()
				meta.GitDirty = &d
				dirtySet = true
			}
		}

		msgType := root.Get("type").String()
		role := root.Get("message.role").String()

		if role == "" && (msgType == "user" || msgType == "assistant") {
			role = msgType
		}

		if role == "user" && (!titleSet || !summarySet) {
			text := firstTextBlock(root.Get("message.content"))
			if text == "" {
				text = root.Get("message.content").String()
			}
			if text != "" {
				if !titleSet {
					if title, ok := extractTitle(text); ok {
						meta.Title = title
						meta.FirstUserMessage = title
						titleSet = true
					}
				}
				if !summarySet {
					meta.Summary = extractSummary(text)
					summarySet = true
				}
			}
		}

		if role == "assistant" {
			resolver.observeAssistantLine("assistant", []byte(raw))
			if !modelSet {
				if m := root.Get("message.model").String(); m != "" {
					model = m
					modelSet = true
				}
			}
		}
	}

	var sidecarTokens, sidecarThreshold *int
	if meta.SessionID != "" {
		key := p.home + "|" + meta.SessionID
		path := p.home + "/debug/" + meta.SessionID + ".txt"
		if snap := debugcache.Process().Lookup(key, path); snap != nil {
			sidecarTokens = &snap.Tokens
			sidecarThreshold = &snap.Threshold
		}
	}

	if ts := resolver.resolve(model, sidecarTokens, sidecarThreshold); ts != nil {
		meta.TokenUsage = ts
	}

	return meta, nil
}

func stringPtr(s string) *string { return &s }

// firstTextBlock extracts the first "text" field from a Claude content
// array (message.content is either a plain string or an array of content
// blocks); returns "" if none is found.
func firstTextBlock(content gjson.Result) string {
	if !content.IsArray() {
		return ""
	}
	var text string
	content.ForEach(func(_, block gjson.Result) bool {
		if block.Get("type").String() == "text" {
			text = block.Get("text").String()
			return false
		}
		return true
	})
	return text
}
