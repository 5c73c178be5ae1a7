// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gfbonny/freshell/internal/manager"
	"github.com/gfbonny/freshell/internal/provider/claude"
	"github.com/gfbonny/freshell/internal/provider/codex"
	"github.com/gfbonny/freshell/internal/transport"
)

func newServeCmd() *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP/WebSocket daemon in-process",
		Long: `serve starts the same transport.Server cmd/freshelld runs, sharing its
code, as a thin wrapper for operators who'd rather not manage a separate
daemon process.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(host, port)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "HTTP server host")
	cmd.Flags().IntVar(&port, "port", 8420, "HTTP server port")
	return cmd
}

func runServe(host string, port int) error {
	mgr := manager.New(claude.New(), codex.New())
	srv := transport.NewServer(transport.Config{Host: host, Port: port}, mgr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "transport server error: %v\n", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "error shutting down transport server: %v\n", err)
	}
	mgr.Shutdown(shutdownCtx)
	return nil
}
