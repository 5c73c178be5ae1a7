// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package manager implements the session manager (C7): a registry of
// providers, a map of live CliSessions, capability-gated session creation,
// and a periodic retention sweep that retires terminated sessions.
package manager

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gfbonny/freshell/internal/provider"
	"github.com/gfbonny/freshell/internal/session"
	"golang.org/x/sync/semaphore"
)

const (
	defaultRingCapacity     = 1000
	defaultRetentionMS      = 1_800_000
	cleanupInterval         = 5 * time.Minute
)

// Manager owns the provider registry and the set of live sessions. Per
// spec.md §5, it is the exclusive mutator of both maps.
type Manager struct {
	mu         sync.Mutex
	providers  map[provider.Identity]provider.Provider
	sessions   map[string]*session.CliSession
	ringCap    int
	retention  time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// New constructs a Manager with the given providers registered by
// identity, reading FRESHELL_MAX_SESSION_EVENTS and
// FRESHELL_COMPLETED_SESSION_RETENTION_MS per spec.md §6, and starts the
// retention sweep timer.
func New(providers ...provider.Provider) *Manager {
	m := &Manager{
		providers: map[provider.Identity]provider.Provider{},
		sessions:  map[string]*session.CliSession{},
		ringCap:   envInt("FRESHELL_MAX_SESSION_EVENTS", defaultRingCapacity),
		retention: time.Duration(envInt("FRESHELL_COMPLETED_SESSION_RETENTION_MS", defaultRetentionMS)) * time.Millisecond,
		stopCh:    make(chan struct{}),
	}
	for _, p := range providers {
		m.providers[p.Identity()] = p
	}
	m.wg.Add(1)
	go m.retentionLoop()
	return m
}

func envInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// Create validates the request against spec.md §4.7's three gates, in
// order, then spawns and registers a new session.
func (m *Manager) Create(ctx context.Context, providerName provider.Identity, opts provider.SpawnOptions) (*session.CliSession, error) {
	m.mu.Lock()
	p, ok := m.providers[providerName]
	m.mu.Unlock()
	if !ok {
		return nil, provider.NewError(provider.KindProviderUnknown, "manager.Create", string(providerName), fmt.Errorf("no provider registered for %q", providerName))
	}
	if !p.SupportsLiveStreaming() {
		return nil, provider.NewError(provider.KindCapabilityUnsupported, "manager.Create", string(providerName), fmt.Errorf("provider does not support live streaming"))
	}
	if opts.ResumeSessionID != "" && !p.SupportsSessionResume() {
		return nil, provider.NewError(provider.KindCapabilityUnsupported, "manager.Create", string(providerName), fmt.Errorf("provider does not support session resume"))
	}

	sess := session.New(ctx, p, opts, m.ringCap)

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()

	return sess, nil
}

// Get returns the session for id, or ok=false if none exists.
func (m *Manager) Get(id string) (*session.CliSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// List returns every live session, newest first.
func (m *Manager) List() []*session.CliSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*session.CliSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Remove kills the session (if present) and deletes it from the map.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.Kill()
	}
}

// retentionLoop fires every cleanupInterval, retiring sessions that are
// non-running and whose CompletedAt is older than the retention interval,
// per spec.md §4.7.
func (m *Manager) retentionLoop() {
	defer m.wg.Done()
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

// sweep applies one retention pass immediately; exported so tests can
// drive it without waiting for the real ticker interval, per spec.md §8
// scenario 6.
func (m *Manager) Sweep() {
	m.sweep()
}

func (m *Manager) sweep() {
	now := time.Now()
	m.mu.Lock()
	var toRemove []string
	for id, s := range m.sessions {
		if s.Status() == session.StatusRunning {
			continue
		}
		completedAt := s.CompletedAt()
		if completedAt == nil {
			continue
		}
		if now.Sub(*completedAt) > m.retention {
			toRemove = append(toRemove, id)
		}
	}
	for _, id := range toRemove {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
}

// Shutdown stops the retention timer, kills every live session (bounded
// concurrency via a semaphore sized to GOMAXPROCS*4, per SPEC_FULL.md §5),
// and clears the session map.
func (m *Manager) Shutdown(ctx context.Context) {
	m.stopOnce.Do(func() { close(m.stopCh) })
	m.wg.Wait()

	m.mu.Lock()
	sessions := make([]*session.CliSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = map[string]*session.CliSession{}
	m.mu.Unlock()

	sem := semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0) * 4))
	var wg sync.WaitGroup
	for _, s := range sessions {
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Printf("manager: shutdown semaphore acquire: %v", err)
			s.Kill()
			continue
		}
		wg.Add(1)
		go func(s *session.CliSession) {
			defer wg.Done()
			defer sem.Release(1)
			s.Kill()
		}(s)
	}
	wg.Wait()
}
