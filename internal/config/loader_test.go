// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderLoadWithDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "freshell.hjson")
	require.NoError(t, os.WriteFile(path, []byte(`{
		claude: { home: "/custom/claude" }
		session: { maxEvents: 500 }
	}`), 0o644))

	l := NewLoader()
	cfg, err := l.LoadWithDefaults(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "/custom/claude", cfg.Claude.Home)
	assert.Equal(t, 500, cfg.Session.MaxEvents)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8420, cfg.Server.Port)
	assert.Equal(t, "claude", cfg.Claude.Cmd)
	assert.Equal(t, "codex", cfg.Codex.Cmd)
}

func TestLoaderFindConfigPrefersHJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "freshell.hjson"), []byte(`{}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "freshell.json"), []byte(`{}`), 0o644))

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(cwd) }()

	l := NewLoader()
	path, err := l.FindConfig()
	require.NoError(t, err)
	assert.Contains(t, path, "freshell.hjson")
}

func TestConfigEnvOverrides(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Claude.AutocompactPctOverride = 80

	overrides := cfg.EnvOverrides()
	assert.Equal(t, "80", overrides["CLAUDE_AUTOCOMPACT_PCT_OVERRIDE"])
	assert.Equal(t, "claude", overrides["CLAUDE_CMD"])
	assert.Equal(t, "1000", overrides["FRESHELL_MAX_SESSION_EVENTS"])
}
