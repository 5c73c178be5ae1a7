// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Command freshelld is the daemon entrypoint: it loads configuration,
// registers the Claude and Codex providers, and serves the session
// manager over HTTP/WebSocket until it receives a shutdown signal —
// grounded in the teacher's cmd/trellis/main.go flag-and-config-discovery
// shape, generalized from its flat service-supervisor config to this
// domain's provider/session/transport wiring.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gfbonny/freshell/internal/config"
	"github.com/gfbonny/freshell/internal/manager"
	"github.com/gfbonny/freshell/internal/provider/claude"
	"github.com/gfbonny/freshell/internal/provider/codex"
	"github.com/gfbonny/freshell/internal/transport"
)

var version = "0.1"

func main() {
	var (
		configPath  string
		host        string
		port        int
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "", "Path to config file (default: auto-detect)")
	flag.StringVar(&configPath, "c", "", "Path to config file (short)")
	flag.StringVar(&host, "host", "", "HTTP server host (overrides config)")
	flag.IntVar(&port, "port", 0, "HTTP server port (overrides config)")
	flag.BoolVar(&showVersion, "version", false, "Show version")
	flag.BoolVar(&showVersion, "v", false, "Show version (short)")
	flag.Parse()

	if showVersion {
		fmt.Printf("freshelld %s\n", version)
		os.Exit(0)
	}

	loader := config.NewLoader()
	if configPath == "" {
		found, err := loader.FindConfig()
		if err != nil {
			log.Printf("no config file found, using defaults: %v", err)
		} else {
			configPath = found
		}
	}

	var cfg *config.Config
	if configPath != "" {
		log.Printf("using config: %s", configPath)
		loaded, err := loader.LoadWithDefaults(context.Background(), configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = loaded
	} else {
		cfg = config.DefaultConfig()
	}
	applyFlagOverrides(cfg, host, port)
	applyEnvOverrides(cfg)

	mgr := manager.New(claude.New(), codex.New())
	srv := transport.NewServer(transport.Config{Host: cfg.Server.Host, Port: cfg.Server.Port}, mgr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("transport server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("received signal %v, shutting down...", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("error shutting down transport server: %v", err)
	}
	mgr.Shutdown(shutdownCtx)
	log.Println("shutdown complete")
}

// applyFlagOverrides applies -host/-port when set, taking precedence over
// the config file per the teacher's flag-overrides-config convention.
func applyFlagOverrides(cfg *config.Config, host string, port int) {
	if host != "" {
		cfg.Server.Host = host
	}
	if port != 0 {
		cfg.Server.Port = port
	}
}

// applyEnvOverrides sets CLAUDE_HOME/CLAUDE_CMD/CODEX_HOME/CODEX_CMD/etc.
// from cfg.EnvOverrides() only where the operator's environment doesn't
// already set them — the env vars named in SPEC_FULL.md §6 always win.
func applyEnvOverrides(cfg *config.Config) {
	for k, v := range cfg.EnvOverrides() {
		if os.Getenv(k) == "" {
			os.Setenv(k, v)
		}
	}
}
