// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package claude implements the provider.Provider contract for the Claude
// CLI: argv synthesis, NDJSON transcript discovery/parsing, and live
// stream-event normalization.
package claude

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/gfbonny/freshell/internal/provider"
)

var uuidRe = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// IsValidSessionID reports whether id is a canonical UUID, per spec.md §6.
func IsValidSessionID(id string) bool {
	return uuidRe.MatchString(id)
}

// Provider implements provider.Provider for the Claude CLI.
type Provider struct {
	home string
	cmd  string
}

// New constructs a Claude provider, resolving CLAUDE_HOME and CLAUDE_CMD
// overrides with the vendor defaults.
func New() *Provider {
	home := os.Getenv("CLAUDE_HOME")
	if home == "" {
		if hd, err := os.UserHomeDir(); err == nil {
			home = filepath.Join(hd, ".claude")
		}
	}
	cmd := os.Getenv("CLAUDE_CMD")
	if cmd == "" {
		cmd = "claude"
	}
	return &Provider{home: home, cmd: cmd}
}

func (p *Provider) Identity() provider.Identity { return provider.Claude }

func (p *Provider) HomeDir() string { return p.home }

func (p *Provider) SessionFileGlob() string {
	return filepath.Join(p.home, "projects", "*", "*.jsonl")
}

func (p *Provider) SessionRoots() []string {
	return []string{filepath.Join(p.home, "projects")}
}

// ListSessionFiles discovers every Claude transcript: one level under each
// project directory, plus an optional subagents/ subdirectory, per
// spec.md §4.1. Non-existent directories yield empty results, not errors.
func (p *Provider) ListSessionFiles() ([]string, error) {
	projectsDir := filepath.Join(p.home, "projects")
	entries, err := os.ReadDir(projectsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []string
	for _, projectEntry := range entries {
		if !projectEntry.IsDir() {
			continue
		}
		projectDir := filepath.Join(projectsDir, projectEntry.Name())

		top, err := os.ReadDir(projectDir)
		if err != nil {
			continue
		}
		for _, e := range top {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".jsonl") {
				files = append(files, filepath.Join(projectDir, e.Name()))
				continue
			}
			if e.IsDir() {
				subagents := filepath.Join(projectDir, e.Name(), "subagents")
				sub, err := os.ReadDir(subagents)
				if err != nil {
					continue
				}
				for _, se := range sub {
					if !se.IsDir() && strings.HasSuffix(se.Name(), ".jsonl") {
						files = append(files, filepath.Join(subagents, se.Name()))
					}
				}
			}
		}
	}
	return files, nil
}

// ExtractSessionID returns the transcript basename minus its .jsonl
// extension, per spec.md §4.1.
func (p *Provider) ExtractSessionID(filePath string, meta *provider.ParsedSessionMeta) string {
	base := filepath.Base(filePath)
	return strings.TrimSuffix(base, ".jsonl")
}

func (p *Provider) ResolveProjectPath(filePath string, meta provider.ParsedSessionMeta) string {
	return resolveProjectPath(meta.CWD)
}

func (p *Provider) Command() string { return p.cmd }

// StreamArgs builds the argv for a fresh or resumed Claude run in streaming
// JSON mode, per spec.md §4.5.
func (p *Provider) StreamArgs(opts provider.SpawnOptions) []string {
	args := []string{"-p", opts.Prompt, "--output-format", "stream-json", "--verbose"}
	if opts.ResumeSessionID != "" && IsValidSessionID(opts.ResumeSessionID) {
		args = append(args, "--resume", opts.ResumeSessionID)
	}
	if opts.Model != "" {
		args = append(args, "--model", opts.Model)
	}
	if opts.MaxTurns > 0 {
		args = append(args, "--max-turns", strconv.Itoa(opts.MaxTurns))
	}
	if opts.PermissionMode != "" {
		args = append(args, "--permission-mode", opts.PermissionMode)
	}
	for _, t := range opts.AllowedTools {
		args = append(args, "--allowedTools", t)
	}
	for _, t := range opts.DisallowedTools {
		args = append(args, "--disallowedTools", t)
	}
	return args
}

// ResumeArgs builds the resume-only argv fragment; an invalid id yields no
// arguments at all, per spec.md §4.5. Claude's resume needs only the id, so
// opts is ignored.
func (p *Provider) ResumeArgs(id string, opts provider.SpawnOptions) []string {
	if !IsValidSessionID(id) {
		return nil
	}
	return []string{"--resume", id}
}

func (p *Provider) SupportsLiveStreaming() bool { return true }
func (p *Provider) SupportsSessionResume() bool { return true }
