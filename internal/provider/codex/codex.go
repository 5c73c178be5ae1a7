// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package codex implements the provider.Provider contract for the Codex
// CLI: argv synthesis, recursive rollout-file discovery, and the
// session_meta/response_item/event_msg transcript envelope.
package codex

import (
	"os"
	"path/filepath"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gfbonny/freshell/internal/provider"
)

var basenameUUIDRe = regexp.MustCompile(`(?i)[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

// Provider implements provider.Provider for the Codex CLI.
type Provider struct {
	home string
	cmd  string
}

// New constructs a Codex provider, resolving CODEX_HOME and CODEX_CMD
// overrides with the vendor defaults.
func New() *Provider {
	home := os.Getenv("CODEX_HOME")
	if home == "" {
		if hd, err := os.UserHomeDir(); err == nil {
			home = filepath.Join(hd, ".codex")
		}
	}
	cmd := os.Getenv("CODEX_CMD")
	if cmd == "" {
		cmd = "codex"
	}
	return &Provider{home: home, cmd: cmd}
}

func (p *Provider) Identity() provider.Identity { return provider.Codex }

func (p *Provider) HomeDir() string { return p.home }

func (p *Provider) SessionFileGlob() string {
	return filepath.Join(p.home, "sessions", "**", "*.jsonl")
}

func (p *Provider) SessionRoots() []string {
	return []string{filepath.Join(p.home, "sessions")}
}

// ListSessionFiles recursively discovers every *.jsonl file under
// <CODEX_HOME>/sessions, per spec.md §6 ("Recursive traversal follows all
// subdirectories"). A missing sessions directory yields an empty result,
// not an error.
func (p *Provider) ListSessionFiles() ([]string, error) {
	root := filepath.Join(p.home, "sessions")
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	matches, err := doublestar.FilepathGlob(filepath.Join(root, "**", "*.jsonl"))
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// ExtractSessionID prefers meta.SessionID, else the first UUID substring
// in the basename, else the raw basename, per spec.md §4.1/§6.
func (p *Provider) ExtractSessionID(filePath string, meta *provider.ParsedSessionMeta) string {
	if meta != nil && meta.SessionID != "" {
		return meta.SessionID
	}
	base := filepath.Base(filePath)
	if m := basenameUUIDRe.FindString(base); m != "" {
		return m
	}
	return base
}

func (p *Provider) ResolveProjectPath(filePath string, meta provider.ParsedSessionMeta) string {
	return resolveProjectPath(meta.CWD)
}

func (p *Provider) Command() string { return p.cmd }

// StreamArgs builds the argv for a fresh Codex run: `exec --json [--model
// M] [--sandbox-mode S] prompt`, per spec.md §4.5.
func (p *Provider) StreamArgs(opts provider.SpawnOptions) []string {
	args := []string{"exec", "--json"}
	args = append(args, modelArgs(opts)...)
	args = append(args, sandboxArgs(opts)...)
	args = append(args, opts.Prompt)
	return args
}

// ResumeArgs builds `resume <id> [--model M] [--sandbox-mode S]` —
// deliberately without --json, reflecting the vendor constraint that
// interactive resume does not support JSON streaming (spec.md §4.5). The
// manager's capability gate (supportsSessionResume=false) ensures this is
// never actually reached in production use; it exists so the argv shape
// itself can be tested directly.
func (p *Provider) ResumeArgs(id string, opts provider.SpawnOptions) []string {
	args := []string{"resume", id}
	args = append(args, modelArgs(opts)...)
	args = append(args, sandboxArgs(opts)...)
	return args
}

func modelArgs(opts provider.SpawnOptions) []string {
	if opts.Model == "" {
		return nil
	}
	return []string{"--model", opts.Model}
}

func sandboxArgs(opts provider.SpawnOptions) []string {
	if opts.SandboxMode == "" {
		return nil
	}
	return []string{"--sandbox-mode", opts.SandboxMode}
}

// SupportsLiveStreaming is true: `codex exec --json` streams NDJSON.
func (p *Provider) SupportsLiveStreaming() bool { return true }

// SupportsSessionResume adopts the stricter `false` per spec.md's Open
// Question resolution (see DESIGN.md): Codex's resume path does not
// support --json, so routing a resumed session through the streaming
// supervisor would silently lose event structure.
func (p *Provider) SupportsSessionResume() bool { return false }
