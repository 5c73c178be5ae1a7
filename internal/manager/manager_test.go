// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package manager

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gfbonny/freshell/internal/provider"
)

// fakeProvider is a minimal provider.Provider that spawns `sh -c <script>`,
// configurable per test for capability gating and transcript listing.
type fakeProvider struct {
	id             provider.Identity
	script         string
	supportsStream bool
	supportsResume bool
	sessionFiles   []string
	sessionDir     string
}

func (p *fakeProvider) Identity() provider.Identity { return p.id }
func (p *fakeProvider) HomeDir() string              { return p.sessionDir }
func (p *fakeProvider) SessionFileGlob() string      { return "*.jsonl" }
func (p *fakeProvider) SessionRoots() []string       { return []string{p.sessionDir} }
func (p *fakeProvider) ListSessionFiles() ([]string, error) {
	return p.sessionFiles, nil
}
func (p *fakeProvider) ParseSessionFile(content []byte, filePath string) (provider.ParsedSessionMeta, error) {
	return provider.ParsedSessionMeta{SessionID: filepath.Base(filePath), CWD: "/tmp"}, nil
}
func (p *fakeProvider) ResolveProjectPath(filePath string, meta provider.ParsedSessionMeta) string {
	return meta.CWD
}
func (p *fakeProvider) ExtractSessionID(filePath string, meta *provider.ParsedSessionMeta) string {
	return filepath.Base(filePath)
}
func (p *fakeProvider) Command() string { return "sh" }
func (p *fakeProvider) StreamArgs(opts provider.SpawnOptions) []string {
	script := p.script
	if script == "" {
		script = "true"
	}
	return []string{"-c", script}
}
func (p *fakeProvider) ResumeArgs(id string, opts provider.SpawnOptions) []string {
	return []string{"-c", p.script}
}
func (p *fakeProvider) ParseEvent(line []byte) ([]provider.NormalizedEvent, error) {
	return []provider.NormalizedEvent{{
		Timestamp: time.Now().UTC(),
		SessionID: "unknown",
		Provider:  p.id,
		Type:      provider.EventMessageAssistant,
		Message:   &provider.MessagePayload{Role: "assistant", Content: string(line)},
	}}, nil
}
func (p *fakeProvider) SupportsLiveStreaming() bool { return p.supportsStream }
func (p *fakeProvider) SupportsSessionResume() bool { return p.supportsResume }

func TestManagerCreateAndList(t *testing.T) {
	p := &fakeProvider{id: provider.Claude, script: "echo hi", supportsStream: true}
	m := New(p)
	defer m.Shutdown(context.Background())

	sess, err := m.Create(context.Background(), provider.Claude, provider.SpawnOptions{Prompt: "hi"})
	require.NoError(t, err)
	require.NotNil(t, sess)

	got, ok := m.Get(sess.ID)
	assert.True(t, ok)
	assert.Same(t, sess, got)

	list := m.List()
	require.Len(t, list, 1)
	assert.Equal(t, sess.ID, list[0].ID)
}

func TestManagerCreateUnknownProvider(t *testing.T) {
	m := New()
	defer m.Shutdown(context.Background())

	_, err := m.Create(context.Background(), provider.Identity("nonesuch"), provider.SpawnOptions{})
	require.Error(t, err)

	var perr *provider.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, provider.KindProviderUnknown, perr.Kind)
}

func TestManagerCreateRejectsNonStreamingProvider(t *testing.T) {
	p := &fakeProvider{id: provider.Claude, supportsStream: false}
	m := New(p)
	defer m.Shutdown(context.Background())

	_, err := m.Create(context.Background(), provider.Claude, provider.SpawnOptions{})
	require.Error(t, err)

	var perr *provider.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, provider.KindCapabilityUnsupported, perr.Kind)
}

func TestManagerCreateRejectsUnsupportedResume(t *testing.T) {
	p := &fakeProvider{id: provider.Codex, supportsStream: true, supportsResume: false}
	m := New(p)
	defer m.Shutdown(context.Background())

	_, err := m.Create(context.Background(), provider.Codex, provider.SpawnOptions{ResumeSessionID: "abc"})
	require.Error(t, err)

	var perr *provider.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, provider.KindCapabilityUnsupported, perr.Kind)
}

func TestManagerRemoveKillsAndDeletes(t *testing.T) {
	p := &fakeProvider{id: provider.Claude, script: "sleep 5", supportsStream: true}
	m := New(p)
	defer m.Shutdown(context.Background())

	sess, err := m.Create(context.Background(), provider.Claude, provider.SpawnOptions{})
	require.NoError(t, err)

	m.Remove(sess.ID)

	_, ok := m.Get(sess.ID)
	assert.False(t, ok)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && sess.Status() != "error" {
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, "error", string(sess.Status()))
}

func TestManagerSweepRetiresOldCompletedSessions(t *testing.T) {
	p := &fakeProvider{id: provider.Claude, script: "true", supportsStream: true}
	m := New(p)
	m.retention = 0
	defer m.Shutdown(context.Background())

	sess, err := m.Create(context.Background(), provider.Claude, provider.SpawnOptions{})
	require.NoError(t, err)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && sess.Status() == "running" {
		time.Sleep(5 * time.Millisecond)
	}

	m.Sweep()

	_, ok := m.Get(sess.ID)
	assert.False(t, ok)
}

func TestManagerListTranscriptsMergesProviders(t *testing.T) {
	dir := t.TempDir()
	// Name f1 so it would sort AFTER f2 lexically ("zzz" > "aaa"), but give
	// it the OLDER mtime. A correct newest-first sort must still put f2
	// first; a lexical-on-path sort (the bug this guards against) would
	// put f1 first instead.
	f1 := filepath.Join(dir, "zzz.jsonl")
	f2 := filepath.Join(dir, "aaa.jsonl")
	require.NoError(t, os.WriteFile(f1, []byte("{}\n"), 0o644))
	require.NoError(t, os.WriteFile(f2, []byte("{}\n"), 0o644))

	older := time.Now().Add(-1 * time.Hour)
	newer := time.Now()
	require.NoError(t, os.Chtimes(f1, older, older))
	require.NoError(t, os.Chtimes(f2, newer, newer))

	claude := &fakeProvider{id: provider.Claude, sessionFiles: []string{f1}}
	codex := &fakeProvider{id: provider.Codex, sessionFiles: []string{f2}}
	m := New(claude, codex)
	defer m.Shutdown(context.Background())

	entries, err := m.ListTranscripts()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var providers []provider.Identity
	for _, e := range entries {
		providers = append(providers, e.Provider)
	}
	assert.ElementsMatch(t, []provider.Identity{provider.Claude, provider.Codex}, providers)

	require.Equal(t, f2, entries[0].FilePath, "newest file by mtime must sort first regardless of path")
	require.Equal(t, f1, entries[1].FilePath)
}

func TestManagerShutdownKillsRunningSessions(t *testing.T) {
	p := &fakeProvider{id: provider.Claude, script: "sleep 5", supportsStream: true}
	m := New(p)

	sess, err := m.Create(context.Background(), provider.Claude, provider.SpawnOptions{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	m.Shutdown(ctx)

	assert.NotEqual(t, "running", string(sess.Status()))
}
