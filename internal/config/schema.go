// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package config loads the optional freshell.hjson / freshell.json file
// that gives operators a persistent alternative to the env vars
// SPEC_FULL.md §6 names as the authoritative override layer. Each Session,
// Claude and Codex field maps to one env var that overrides it (see
// EnvOverrides); Server is overridden by cmd/freshelld's flags, and Logging
// has no env var.
package config

import "strconv"

// Config is the root configuration structure, parsed from HJSON (or plain
// JSON) via the teacher's two-step load (loader.go).
type Config struct {
	Server  ServerConfig  `json:"server"`
	Session SessionConfig `json:"session"`
	Claude  ClaudeConfig  `json:"claude"`
	Codex   CodexConfig   `json:"codex"`
	Logging LoggingConfig `json:"logging"`
}

// ServerConfig configures the transport boundary's HTTP listener.
type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// SessionConfig configures the session manager (C7) and supervisor (C6).
type SessionConfig struct {
	MaxEvents                   int `json:"maxEvents"`                   // FRESHELL_MAX_SESSION_EVENTS
	CompletedSessionRetentionMS int `json:"completedSessionRetentionMs"` // FRESHELL_COMPLETED_SESSION_RETENTION_MS
}

// ClaudeConfig configures the Claude provider.
type ClaudeConfig struct {
	Home                   string `json:"home"` // CLAUDE_HOME
	Cmd                    string `json:"cmd"`  // CLAUDE_CMD
	AutocompactPctOverride int    `json:"autocompactPctOverride"` // CLAUDE_AUTOCOMPACT_PCT_OVERRIDE
}

// CodexConfig configures the Codex provider.
type CodexConfig struct {
	Home string `json:"home"` // CODEX_HOME
	Cmd  string `json:"cmd"`  // CODEX_CMD
}

// LoggingConfig holds the logging level. Level is loaded and defaulted to
// "info", but nothing reads it: the stdlib `log` output is not filtered by
// level. No example
// repo in the pack imports a structured logging library for a process
// this small (trellis itself uses bare `log`), so that idiom is preserved
// here rather than introducing one for its own sake.
type LoggingConfig struct {
	Level string `json:"level"`
}

// DefaultConfig returns a Config with every default applied and nothing
// loaded from disk, for callers (cmd/freshelld) that run with no config
// file present at all.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8420
	}
	if cfg.Session.MaxEvents == 0 {
		cfg.Session.MaxEvents = 1000
	}
	if cfg.Session.CompletedSessionRetentionMS == 0 {
		cfg.Session.CompletedSessionRetentionMS = 1_800_000
	}
	if cfg.Claude.Cmd == "" {
		cfg.Claude.Cmd = "claude"
	}
	if cfg.Codex.Cmd == "" {
		cfg.Codex.Cmd = "codex"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// EnvOverrides returns the env vars SPEC_FULL.md §6 names that this
// config sets. The caller (cmd/freshelld) applies these only where the
// operator's actual environment doesn't already set them, since env vars
// always win over the file.
func (c *Config) EnvOverrides() map[string]string {
	out := map[string]string{}
	if c.Claude.Home != "" {
		out["CLAUDE_HOME"] = c.Claude.Home
	}
	if c.Claude.Cmd != "" {
		out["CLAUDE_CMD"] = c.Claude.Cmd
	}
	if c.Claude.AutocompactPctOverride != 0 {
		out["CLAUDE_AUTOCOMPACT_PCT_OVERRIDE"] = strconv.Itoa(c.Claude.AutocompactPctOverride)
	}
	if c.Codex.Home != "" {
		out["CODEX_HOME"] = c.Codex.Home
	}
	if c.Codex.Cmd != "" {
		out["CODEX_CMD"] = c.Codex.Cmd
	}
	if c.Session.MaxEvents != 0 {
		out["FRESHELL_MAX_SESSION_EVENTS"] = strconv.Itoa(c.Session.MaxEvents)
	}
	if c.Session.CompletedSessionRetentionMS != 0 {
		out["FRESHELL_COMPLETED_SESSION_RETENTION_MS"] = strconv.Itoa(c.Session.CompletedSessionRetentionMS)
	}
	return out
}
