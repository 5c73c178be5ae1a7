// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gfbonny/freshell/internal/provider"
)

// echoProvider spawns `sh -c <script>` and translates every raw stdout
// line into a single message.assistant event, with the line itself
// carrying the session id as "sid:<id>" when present.
type echoProvider struct {
	script string
}

func (p *echoProvider) Identity() provider.Identity  { return provider.Claude }
func (p *echoProvider) HomeDir() string               { return "" }
func (p *echoProvider) SessionFileGlob() string       { return "" }
func (p *echoProvider) SessionRoots() []string        { return nil }
func (p *echoProvider) ListSessionFiles() ([]string, error) { return nil, nil }
func (p *echoProvider) ParseSessionFile(content []byte, filePath string) (provider.ParsedSessionMeta, error) {
	return provider.ParsedSessionMeta{}, nil
}
func (p *echoProvider) ResolveProjectPath(filePath string, meta provider.ParsedSessionMeta) string {
	return ""
}
func (p *echoProvider) ExtractSessionID(filePath string, meta *provider.ParsedSessionMeta) string {
	return ""
}
func (p *echoProvider) Command() string                         { return "sh" }
func (p *echoProvider) StreamArgs(opts provider.SpawnOptions) []string { return []string{"-c", p.script} }
func (p *echoProvider) ResumeArgs(id string, opts provider.SpawnOptions) []string { return nil }
func (p *echoProvider) ParseEvent(line []byte) ([]provider.NormalizedEvent, error) {
	text := string(line)
	sid := "unknown"
	if len(text) > 4 && text[:4] == "sid:" {
		sid = text[4:]
		text = ""
	}
	ev := provider.NormalizedEvent{
		Timestamp: time.Now().UTC(),
		SessionID: sid,
		Provider:  provider.Claude,
		Type:      provider.EventMessageAssistant,
		Message:   &provider.MessagePayload{Role: "assistant", Content: text},
	}
	return []provider.NormalizedEvent{*ev.WithLegacyAliases()}, nil
}
func (p *echoProvider) SupportsLiveStreaming() bool { return true }
func (p *echoProvider) SupportsSessionResume() bool { return true }

func waitForStatus(t *testing.T, s *CliSession, want Status, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if s.Status() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("session did not reach status %s within %s (stuck at %s)", want, timeout, s.Status())
}

func TestSessionCompletesAndBuffersEvents(t *testing.T) {
	p := &echoProvider{script: "printf 'sid:deadbeef\\nhello\\nworld\\n'"}
	s := New(context.Background(), p, provider.SpawnOptions{Prompt: "hi"}, 10)

	waitForStatus(t, s, StatusCompleted, 2*time.Second)

	assert.Equal(t, "deadbeef", s.ProviderSessionID())
	events := s.Events()
	// sid line + hello + world, each one event, plus a synthesized
	// session.end since none of those three is itself a session.end.
	require.Len(t, events, 4)
	assert.Equal(t, provider.EventSessionEnd, events[3].Type)
}

func TestSessionSynthesizesSessionEndOnCleanExit(t *testing.T) {
	p := &echoProvider{script: "printf 'hello\\n'"}
	s := New(context.Background(), p, provider.SpawnOptions{}, 10)

	waitForStatus(t, s, StatusCompleted, 2*time.Second)

	events := s.Events()
	last := events[len(events)-1]
	assert.Equal(t, provider.EventSessionEnd, last.Type)
	assert.Nil(t, last.Error)
}

func TestSessionErrorsOnNonZeroExit(t *testing.T) {
	p := &echoProvider{script: "exit 3"}
	s := New(context.Background(), p, provider.SpawnOptions{}, 10)

	waitForStatus(t, s, StatusError, 2*time.Second)

	events := s.Events()
	last := events[len(events)-1]
	assert.Equal(t, provider.EventSessionEnd, last.Type)
	require.NotNil(t, last.Error)
	assert.Contains(t, last.Error.Message, "3")
}

func TestSessionKillIsIdempotent(t *testing.T) {
	p := &echoProvider{script: "sleep 5"}
	s := New(context.Background(), p, provider.SpawnOptions{}, 10)

	s.Kill()
	s.Kill() // must not panic or deadlock

	waitForStatus(t, s, StatusError, 3*time.Second)
}

func TestSessionRingBufferEviction(t *testing.T) {
	p := &echoProvider{script: fmt.Sprintf("for i in $(seq 1 %d); do echo line$i; done", 20)}
	s := New(context.Background(), p, provider.SpawnOptions{}, 5)

	waitForStatus(t, s, StatusCompleted, 2*time.Second)

	events := s.Events()
	assert.Len(t, events, 5)
	assert.Greater(t, s.EventCount(), uint64(5))
}

func TestSessionSubscribeReceivesLiveEvents(t *testing.T) {
	p := &echoProvider{script: "printf 'one\\ntwo\\n'"}
	s := New(context.Background(), p, provider.SpawnOptions{}, 10)
	ch := s.Subscribe(16)
	defer s.Unsubscribe(ch)

	waitForStatus(t, s, StatusCompleted, 2*time.Second)

	var got int
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
			got++
		default:
			assert.GreaterOrEqual(t, got, 2)
			return
		}
	}
}

func TestSessionKeepStdinOpenAllowsWrite(t *testing.T) {
	p := &echoProvider{script: "cat"}
	s := New(context.Background(), p, provider.SpawnOptions{KeepStdinOpen: true}, 10)
	defer s.Kill()

	err := s.WriteStdin([]byte("hello\n"))
	assert.NoError(t, err)
}

func TestSessionWriteStdinErrorsWhenNotKept(t *testing.T) {
	p := &echoProvider{script: "true"}
	s := New(context.Background(), p, provider.SpawnOptions{}, 10)
	waitForStatus(t, s, StatusCompleted, 2*time.Second)

	err := s.WriteStdin([]byte("hello\n"))
	assert.Error(t, err)
}
