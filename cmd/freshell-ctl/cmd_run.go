// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gfbonny/freshell/internal/manager"
	"github.com/gfbonny/freshell/internal/provider"
	"github.com/gfbonny/freshell/internal/session"
)

func newRunCmd() *cobra.Command {
	var (
		cwd       string
		resumeID  string
		model     string
	)

	cmd := &cobra.Command{
		Use:   "run <provider> <prompt>",
		Short: "Drive a session and stream its events to stdout",
		Long: `run spawns a vendor CLI session directly (no daemon involved), streams
every NormalizedEvent to stdout as it arrives, and exits with a status
matching the session's terminal state.

Examples:
  freshell-ctl run claude "summarize this repo"
  freshell-ctl run codex "fix the failing test" --cwd ~/src/myrepo
  freshell-ctl run claude "continue" --resume abc123-...`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(args[0], args[1], cwd, resumeID, model)
		},
	}

	cmd.Flags().StringVar(&cwd, "cwd", "", "working directory for the spawned process (default: current directory)")
	cmd.Flags().StringVar(&resumeID, "resume", "", "resume an existing provider session id")
	cmd.Flags().StringVar(&model, "model", "", "override the vendor's default model")
	return cmd
}

func runRun(providerName, prompt, cwd, resumeID, model string) error {
	p, err := providerByName(providerName)
	if err != nil {
		return err
	}
	if cwd == "" {
		cwd, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("getwd: %w", err)
		}
	}

	mgr := manager.New(p)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	sess, err := mgr.Create(ctx, provider.Identity(providerName), provider.SpawnOptions{
		Prompt:          prompt,
		CWD:             cwd,
		ResumeSessionID: resumeID,
		Model:           model,
	})
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	ch := sess.Subscribe(256)
	defer sess.Unsubscribe(ch)

	enc := json.NewEncoder(os.Stdout)
	printEvent := func(ev provider.NormalizedEvent) {
		if jsonOutput {
			enc.Encode(ev.WithLegacyAliases())
		} else {
			printEventLine(ev)
		}
	}

	for sess.Status() == session.StatusRunning {
		select {
		case ev, ok := <-ch:
			if ok {
				printEvent(ev)
			}
		case <-ctx.Done():
			sess.Kill()
		}
	}
	// Drain whatever arrived between the last Status() check and the
	// session finishing.
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return finalErr(sess)
			}
			printEvent(ev)
		default:
			return finalErr(sess)
		}
	}
}

func finalErr(sess *session.CliSession) error {
	if sess.Status() == session.StatusError {
		return fmt.Errorf("session %s ended in error", sess.ID)
	}
	return nil
}

func printEventLine(ev provider.NormalizedEvent) {
	switch ev.Type {
	case provider.EventMessageAssistant, provider.EventMessageUser:
		if ev.Message != nil {
			fmt.Printf("[%s] %s\n", ev.Message.Role, ev.Message.Content)
		}
	case provider.EventToolCall:
		if ev.Tool != nil {
			fmt.Printf("[tool call] %s\n", ev.Tool.Name)
		}
	case provider.EventToolResult:
		if ev.Tool != nil {
			fmt.Printf("[tool result] %s\n", ev.Tool.Name)
		}
	case provider.EventReasoning:
		fmt.Println("[reasoning]")
	case provider.EventTokenUsage:
		if ev.Tokens != nil {
			fmt.Printf("[tokens] total=%d cached=%d\n", ev.Tokens.InputTokens+ev.Tokens.OutputTokens, ev.Tokens.CachedTokens)
		}
	case provider.EventSessionEnd:
		fmt.Println("[session end]")
	default:
		fmt.Printf("[%s]\n", ev.Type)
	}
}
