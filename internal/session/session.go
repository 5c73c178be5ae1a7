// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package session implements the per-session supervisor (C6): spawning a
// provider's child process, stream-parsing its stdout into
// NormalizedEvents, buffering them in a bounded ring buffer, and fanning
// them out to live subscribers.
package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os/exec"
	"regexp"
	"sync"
	"time"

	"github.com/gfbonny/freshell/internal/provider"
	"github.com/google/uuid"
	ps "github.com/mitchellh/go-ps"
)

// Status is a CliSession's lifecycle state. Transitions are strictly
// running -> {completed, error} and never revert, per spec.md §4.7.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

var lineSplitRe = regexp.MustCompile(`\r?\n`)

// CliSession is the runtime record for one supervised vendor CLI child
// process, per spec.md §3's CliSession data model.
type CliSession struct {
	ID         string
	Provider   provider.Provider
	Prompt     string
	CWD        string
	CreatedAt  time.Time

	mu                sync.Mutex
	providerSessionID string
	status            Status
	completedAt       *time.Time
	carry             string
	ring              *ringBuffer
	subscribers       map[chan provider.NormalizedEvent]struct{}

	cmd    *exec.Cmd
	cancel context.CancelFunc
	killed bool
	stdin  io.WriteCloser
}

// New constructs a CliSession and immediately spawns the child process.
// Capability gating (per spec.md §4.7) happens in internal/manager before
// this is called; New assumes the caller has already validated the
// request against the provider's capability flags.
func New(ctx context.Context, p provider.Provider, opts provider.SpawnOptions, ringCapacity int) *CliSession {
	s := &CliSession{
		ID:          uuid.NewString(),
		Provider:    p,
		Prompt:      opts.Prompt,
		CWD:         opts.CWD,
		CreatedAt:   time.Now().UTC(),
		status:      StatusRunning,
		ring:        newRingBuffer(ringCapacity),
		subscribers: map[chan provider.NormalizedEvent]struct{}{},
	}
	s.spawn(ctx, opts)
	return s
}

// spawn starts the child process and its stdout-reading goroutine. Stdin
// is closed by default — several vendor CLIs wait on stdin EOF even when
// the prompt is supplied via argv — unless opts.KeepStdinOpen is set.
func (s *CliSession) spawn(ctx context.Context, opts provider.SpawnOptions) {
	childCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	args := s.Provider.StreamArgs(opts)
	cmd := exec.CommandContext(childCtx, s.Provider.Command(), args...)
	if opts.CWD != "" {
		cmd.Dir = opts.CWD
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		s.finishWithSpawnError(err)
		return
	}
	stderr, _ := cmd.StderrPipe()

	stdin, err := cmd.StdinPipe()
	if err != nil {
		s.finishWithSpawnError(err)
		return
	}

	if err := cmd.Start(); err != nil {
		s.finishWithSpawnError(err)
		return
	}

	s.mu.Lock()
	s.cmd = cmd
	s.mu.Unlock()

	// Stdin is closed (not merely piped) by default: several vendor CLIs
	// wait for stdin EOF even when the prompt is supplied via argv, per
	// spec.md §4.6. keepStdinOpen is opt-in for callers that genuinely
	// stream input.
	if !opts.KeepStdinOpen {
		_ = stdin.Close()
	} else {
		s.mu.Lock()
		s.stdin = stdin
		s.mu.Unlock()
	}

	if stderr != nil {
		go drainStderr(s.ID, stderr)
	}

	go s.readLoop(stdout, cmd)
}

func drainStderr(sessionID string, r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		log.Printf("session %s stderr: %s", sessionID, scanner.Text())
	}
}

// readLoop accumulates stdout bytes, splits on \r?\n, and feeds each
// complete line to the provider's normalizer, per spec.md §4.6.
func (s *CliSession) readLoop(stdout io.Reader, cmd *exec.Cmd) {
	reader := bufio.NewReaderSize(stdout, 64*1024)
	buf := make([]byte, 32*1024)

	for {
		n, err := reader.Read(buf)
		if n > 0 {
			s.feed(buf[:n])
		}
		if err != nil {
			break
		}
	}

	waitErr := cmd.Wait()
	s.finishAfterExit(waitErr)
}

// feed appends chunk to the carry buffer, splits complete lines, and
// normalizes each through the provider.
func (s *CliSession) feed(chunk []byte) {
	s.mu.Lock()
	s.carry += string(chunk)
	carry := s.carry
	s.mu.Unlock()

	lines := lineSplitRe.Split(carry, -1)
	complete := lines[:len(lines)-1]
	remainder := lines[len(lines)-1]

	s.mu.Lock()
	s.carry = remainder
	s.mu.Unlock()

	for _, line := range complete {
		if line == "" {
			continue
		}
		events, err := s.Provider.ParseEvent([]byte(line))
		if err != nil {
			log.Printf("session %s: parse failed: %v (line=%q)", s.ID, err, line)
			continue
		}
		for _, ev := range events {
			s.appendEvent(ev)
		}
	}
}

// appendEvent records ev in the ring buffer, binds providerSessionID on
// first sight (spec.md §4.6 "session id discovery"), and publishes to
// subscribers without blocking the parse loop.
func (s *CliSession) appendEvent(ev provider.NormalizedEvent) {
	s.mu.Lock()
	if s.providerSessionID == "" && ev.SessionID != "" && ev.SessionID != "unknown" {
		s.providerSessionID = ev.SessionID
	}
	s.ring.append(ev)
	subs := make([]chan provider.NormalizedEvent, 0, len(s.subscribers))
	for ch := range s.subscribers {
		subs = append(subs, ch)
	}
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
			// Slow subscriber: drop rather than stall the parse loop,
			// per spec.md §4.6 ("fire-and-forget... no backpressure").
		}
	}
}

// finishWithSpawnError marks the session error'd before any child ever
// started, per the SpawnFailed taxonomy entry in spec.md §7.
func (s *CliSession) finishWithSpawnError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusRunning {
		return
	}
	s.status = StatusError
	s.stampCompletedLocked()
	ev := provider.NormalizedEvent{
		Timestamp: time.Now().UTC(),
		SessionID: "unknown",
		Provider:  s.Provider.Identity(),
		Type:      provider.EventSessionEnd,
		Error:     &provider.EventError{Message: fmt.Sprintf("spawn failed: %v", err), Recoverable: false},
	}
	s.ring.append(*ev.WithLegacyAliases())
}

// finishAfterExit transitions the session to its terminal state once the
// child process has fully exited, synthesizing a session.end event if the
// child's own stream never produced one, per spec.md §4.6.
func (s *CliSession) finishAfterExit(waitErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusRunning {
		return
	}

	exitCode := 0
	if waitErr != nil {
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}

	if exitCode == 0 {
		s.status = StatusCompleted
	} else {
		s.status = StatusError
	}
	s.stampCompletedLocked()

	if !s.hasSessionEndLocked() {
		ev := provider.NormalizedEvent{
			Timestamp: time.Now().UTC(),
			SessionID: s.sessionIDOrUnknownLocked(),
			Provider:  s.Provider.Identity(),
			Type:      provider.EventSessionEnd,
		}
		if exitCode != 0 {
			ev.Error = &provider.EventError{
				Message:     fmt.Sprintf("Process exited with code %d", exitCode),
				Recoverable: false,
			}
		}
		s.ring.append(*ev.WithLegacyAliases())
	}
}

func (s *CliSession) hasSessionEndLocked() bool {
	for _, ev := range s.ring.ordered() {
		if ev.Type == provider.EventSessionEnd {
			return true
		}
	}
	return false
}

func (s *CliSession) sessionIDOrUnknownLocked() string {
	if s.providerSessionID != "" {
		return s.providerSessionID
	}
	return "unknown"
}

func (s *CliSession) stampCompletedLocked() {
	if s.completedAt == nil {
		now := time.Now().UTC()
		s.completedAt = &now
	}
}

// Kill signals the child and marks the session error'd. Idempotent, per
// spec.md §4.6/§5.
func (s *CliSession) Kill() {
	s.mu.Lock()
	if s.killed {
		s.mu.Unlock()
		return
	}
	s.killed = true
	cancel := s.cancel
	cmd := s.cmd
	if s.status == StatusRunning {
		s.status = StatusError
		s.stampCompletedLocked()
	}
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
		waitForProcessExit(cmd.Process.Pid)
	}
}

// waitForProcessExit polls the process table briefly to confirm the child
// has actually left it before returning, since cmd.Process.Kill() only
// sends the signal. Bounded to a short window so Kill stays effectively
// synchronous without risking an unbounded block.
func waitForProcessExit(pid int) {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		proc, err := ps.FindProcess(pid)
		if err != nil || proc == nil {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
}

// Status returns the session's current lifecycle status.
func (s *CliSession) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// CompletedAt returns the completion timestamp, or nil if still running.
func (s *CliSession) CompletedAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completedAt
}

// ProviderSessionID returns the vendor-assigned session id once
// discovered, or "" before then.
func (s *CliSession) ProviderSessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.providerSessionID
}

// Events returns a stable snapshot of the ring buffer in logical order.
func (s *CliSession) Events() []provider.NormalizedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ring.ordered()
}

// EventCount returns the monotonically increasing total of events ever
// appended, independent of ring-buffer eviction.
func (s *CliSession) EventCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ring.totalCount()
}

// Subscribe registers a channel to receive this session's events live, as
// they are appended. The caller owns the channel and must call
// Unsubscribe to stop delivery.
func (s *CliSession) Subscribe(buffer int) chan provider.NormalizedEvent {
	ch := make(chan provider.NormalizedEvent, buffer)
	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

// WriteStdin writes raw bytes to the child's stdin. Only meaningful for a
// session spawned with opts.KeepStdinOpen; otherwise stdin was already
// closed at spawn time and this returns an error.
func (s *CliSession) WriteStdin(data []byte) error {
	s.mu.Lock()
	stdin := s.stdin
	s.mu.Unlock()
	if stdin == nil {
		return fmt.Errorf("session %s: stdin is not open", s.ID)
	}
	_, err := stdin.Write(data)
	return err
}

// Unsubscribe removes and closes a subscriber channel.
func (s *CliSession) Unsubscribe(ch chan provider.NormalizedEvent) {
	s.mu.Lock()
	_, ok := s.subscribers[ch]
	delete(s.subscribers, ch)
	s.mu.Unlock()
	if ok {
		close(ch)
	}
}
