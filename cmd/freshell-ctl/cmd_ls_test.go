// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeClaudeTranscript(t *testing.T, home string) string {
	t.Helper()
	dir := filepath.Join(home, "projects", "-root-myrepo")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, "abc12345-0000-0000-0000-000000000000.jsonl")
	line := `{"sessionId":"abc12345-0000-0000-0000-000000000000","type":"user","cwd":"/root/myrepo","message":{"role":"user","content":[{"type":"text","text":"fix the bug"}]}}`
	require.NoError(t, os.WriteFile(path, []byte(line+"\n"), 0o644))
	return path
}

func writeCodexTranscript(t *testing.T, home string) string {
	t.Helper()
	dir := filepath.Join(home, "sessions", "2026", "07", "31")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, "rollout-2026-07-31T00-00-00-11111111-0000-0000-0000-000000000000.jsonl")
	line := `{"type":"session_meta","payload":{"id":"11111111-0000-0000-0000-000000000000","cwd":"/root/other"}}`
	require.NoError(t, os.WriteFile(path, []byte(line+"\n"), 0o644))
	return path
}

func TestRunLsMergesBothProviders(t *testing.T) {
	claudeHome := t.TempDir()
	codexHome := t.TempDir()
	t.Setenv("CLAUDE_HOME", claudeHome)
	t.Setenv("CODEX_HOME", codexHome)

	writeClaudeTranscript(t, claudeHome)
	writeCodexTranscript(t, codexHome)

	require.NoError(t, runLs(""))
}

func TestRunLsFiltersByProvider(t *testing.T) {
	claudeHome := t.TempDir()
	t.Setenv("CLAUDE_HOME", claudeHome)
	t.Setenv("CODEX_HOME", t.TempDir())

	writeClaudeTranscript(t, claudeHome)

	require.NoError(t, runLs("claude"))
}

func TestRunLsUnknownProvider(t *testing.T) {
	require.Error(t, runLs("unknown"))
}
