// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package provider defines the contract every vendor coding-CLI integration
// (Claude, Codex) implements: argv synthesis, transcript parsing, and
// NDJSON-to-NormalizedEvent translation. It owns no process-management
// logic itself — that lives in internal/session, which drives a Provider.
package provider

import (
	"encoding/json"
	"time"
)

// Identity names a provider implementation. Kept as a string type rather
// than an int enum because it round-trips through JSON (session listings,
// event payloads) and log lines unchanged.
type Identity string

const (
	Claude Identity = "claude"
	Codex  Identity = "codex"
)

// EventType enumerates the canonical NormalizedEvent discriminators.
type EventType string

const (
	EventSessionStart    EventType = "session.start"
	EventSessionInit     EventType = "session.init"
	EventMessageUser     EventType = "message.user"
	EventMessageAssistant EventType = "message.assistant"
	EventToolCall        EventType = "tool.call"
	EventToolResult      EventType = "tool.result"
	EventReasoning       EventType = "reasoning"
	EventTokenUsage      EventType = "token.usage"
	EventSessionEnd      EventType = "session.end"
)

// SessionInfoPayload carries the working directory / model pair a provider
// reports at session start (Claude's "init" system message, Codex's
// session_meta record).
type SessionInfoPayload struct {
	CWD   string `json:"cwd,omitempty"`
	Model string `json:"model,omitempty"`
}

// MessagePayload carries a plain user or assistant text turn.
type MessagePayload struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToolPayload carries both a tool invocation and, once it completes, its
// result — the two are split into EventToolCall/EventToolResult events but
// share this shape since a result always echoes the call's CallID.
type ToolPayload struct {
	CallID    string          `json:"callId"`
	Name      string          `json:"name,omitempty"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
	Output    string          `json:"output,omitempty"`
	IsError   bool            `json:"isError,omitempty"`
}

// EventError carries a recoverable-or-not failure surfaced mid-stream
// (a vendor "error" line), distinct from a Go error returned by ParseEvent.
type EventError struct {
	Message     string `json:"message"`
	Recoverable bool   `json:"recoverable"`
}

// TokenCounts is the lightweight per-event token snapshot attached to
// EventTokenUsage. It is distinct from TokenSummary, which is the resolved,
// transcript-level view computed by the token-usage resolver (§4.4).
type TokenCounts struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
	CachedTokens int `json:"cachedTokens"`
}

// NormalizedEvent is the common shape every provider's vendor record is
// translated into. Canonical fields (Session, Message, Tool, Tokens) are
// the fields new code should read. The legacy alias fields (SessionInfo,
// ToolCall, ToolResult, TokenUsage) duplicate the same data under the
// names an earlier release used; they are populated redundantly at
// emission time and must be passed through by anything that forwards
// events, per spec.md §3, but never relied upon by anything new.
type NormalizedEvent struct {
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"sessionId"`
	Provider  Identity  `json:"provider"`
	Type      EventType `json:"type"`

	// Canonical payload fields.
	Session   *SessionInfoPayload `json:"session,omitempty"`
	Message   *MessagePayload     `json:"message,omitempty"`
	Tool      *ToolPayload        `json:"tool,omitempty"`
	Reasoning string              `json:"reasoning,omitempty"`
	Tokens    *TokenCounts        `json:"tokens,omitempty"`
	Error     *EventError         `json:"error,omitempty"`

	// Legacy aliases, kept in lockstep with the canonical fields above.
	SessionInfo *SessionInfoPayload `json:"sessionInfo,omitempty"`
	ToolCall    *ToolPayload        `json:"toolCall,omitempty"`
	ToolResult  *ToolPayload        `json:"toolResult,omitempty"`
	TokenUsage  *TokenCounts        `json:"tokenUsage,omitempty"`
}

// WithLegacyAliases mirrors the canonical fields into their legacy alias
// counterparts and returns the receiver, so normalizers can build a
// NormalizedEvent once and finish it with a single call.
func (e *NormalizedEvent) WithLegacyAliases() *NormalizedEvent {
	e.SessionInfo = e.Session
	if e.Type == EventToolCall {
		e.ToolCall = e.Tool
	}
	if e.Type == EventToolResult {
		e.ToolResult = e.Tool
	}
	e.TokenUsage = e.Tokens
	return e
}

// SpawnOptions describes how to start (or resume) a vendor CLI child
// process. Not every field applies to every provider — a provider's
// StreamArgs/ResumeArgs ignores what it doesn't support rather than
// erroring, since capability gating happens earlier, at session-create
// time (spec.md §4.7 step 3).
type SpawnOptions struct {
	Prompt          string
	CWD             string
	ResumeSessionID string
	Model           string
	PermissionMode  string
	SandboxMode     string
	MaxTurns        int
	AllowedTools    []string
	DisallowedTools []string
	KeepStdinOpen   bool
}

// TokenSummary is the resolved, transcript-level token-usage view computed
// by a provider's usage resolver (Claude: fold-with-dedupe over assistant
// usage objects; Codex: prefer current-turn over cumulative). ContextTokens
// is "tokens currently occupying the model's context window" — the number
// a compaction-threshold comparison is made against. CompactPercent is a
// pointer because it may legitimately be absent (no threshold data yet).
type TokenSummary struct {
	InputTokens            int  `json:"inputTokens"`
	OutputTokens           int  `json:"outputTokens"`
	CachedTokens           int  `json:"cachedTokens"`
	TotalTokens            int  `json:"totalTokens"`
	ContextTokens          int  `json:"contextTokens"`
	ModelContextWindow     int  `json:"modelContextWindow"`
	CompactThresholdTokens int  `json:"compactThresholdTokens"`
	CompactPercent         *int `json:"compactPercent,omitempty"`
}

// ParsedSessionMeta is what ParseSessionFile extracts from an on-disk
// vendor transcript: enough to list, preview, and resume a session without
// re-reading the whole file. Pointer fields are optional because not every
// vendor record carries them (only Codex transcripts set IsNonInteractive,
// for instance).
type ParsedSessionMeta struct {
	SessionID        string
	CWD              string
	Title            string
	Summary          string
	FirstUserMessage string
	MessageCount     int
	GitBranch        *string
	GitDirty         *bool
	IsNonInteractive *bool
	TokenUsage       *TokenSummary
}

// Provider is the contract a vendor coding-CLI integration implements.
// internal/session drives a Provider to spawn and supervise a child
// process; internal/manager drives it to discover and parse transcripts
// without spawning anything.
type Provider interface {
	Identity() Identity

	// HomeDir returns the vendor's state directory root (e.g. ~/.claude,
	// ~/.codex), resolved once at construction.
	HomeDir() string

	// SessionFileGlob returns the glob pattern used to discover on-disk
	// transcripts under HomeDir, for diagnostics/logging.
	SessionFileGlob() string

	// SessionRoots returns the concrete root directories ListSessionFiles
	// walks; exposed separately from the glob because Codex's layout is a
	// nested date-bucketed tree walked recursively, not a single glob.
	SessionRoots() []string

	// ListSessionFiles discovers every on-disk transcript file for this
	// provider. The returned paths are not ordered by modification time.
	ListSessionFiles() ([]string, error)

	// ParseSessionFile parses one transcript's bytes into a ParsedSessionMeta.
	// filePath is passed alongside content; the built-in providers parse
	// from content alone and recover filename-derived ids via ExtractSessionID.
	ParseSessionFile(content []byte, filePath string) (ParsedSessionMeta, error)

	// ResolveProjectPath derives the working directory a transcript belongs
	// to, given its file path and already-parsed metadata.
	ResolveProjectPath(filePath string, meta ParsedSessionMeta) string

	// ExtractSessionID recovers a session id from a file path when the
	// parsed metadata didn't carry one (meta may be nil).
	ExtractSessionID(filePath string, meta *ParsedSessionMeta) string

	// Command is the vendor CLI executable name to spawn.
	Command() string

	// StreamArgs builds the argv for a fresh (or resumed, if
	// opts.ResumeSessionID is set and SupportsSessionResume is true) run
	// in streaming JSON mode.
	StreamArgs(opts SpawnOptions) []string

	// ResumeArgs builds the argv fragment to resume a specific session id.
	// opts carries the rest of the spawn configuration (model, sandbox
	// mode, ...) for providers whose resume argv needs more than the id;
	// a provider that doesn't can ignore it. Implemented even when
	// SupportsSessionResume is false, so tests can exercise it directly;
	// the session/manager layer is responsible for never calling it in
	// that case.
	ResumeArgs(id string, opts SpawnOptions) []string

	// ParseEvent translates one line of the child's stdout into zero or
	// more NormalizedEvents (a single vendor record can fan out into
	// several, e.g. a Claude assistant message with both text and tool_use
	// blocks).
	ParseEvent(line []byte) ([]NormalizedEvent, error)

	SupportsLiveStreaming() bool
	SupportsSessionResume() bool
}
