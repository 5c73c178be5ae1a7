// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package transport exposes the session manager (C7) over HTTP + WebSocket,
// per SPEC_FULL.md §10 — the thin external-contract boundary the core
// itself has no business owning. It wraps *manager.Manager behind a
// gorilla/mux router the way the teacher's internal/api wraps its own
// service/worktree/workflow managers, but with one route family instead of
// a dozen: this is the minimum glue the spec's Non-goals permit, not a
// dashboard re-implementation.
package transport

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/gfbonny/freshell/internal/manager"
)

// Config holds the HTTP listener configuration.
type Config struct {
	Host string
	Port int
}

// Server wraps a manager.Manager behind an HTTP server.
type Server struct {
	router *mux.Router
	cfg    Config
	srv    *http.Server
}

// NewServer builds the router and wires every handler to mgr.
func NewServer(cfg Config, mgr *manager.Manager) *Server {
	r := mux.NewRouter()
	r.Use(logging)
	r.Use(recovery)
	r.Use(cors)

	sessions := newSessionHandler(mgr)
	transcripts := newTranscriptHandler(mgr)
	sockets := newEventSocketHandler(mgr)

	r.HandleFunc("/sessions", sessions.Create).Methods(http.MethodPost)
	r.HandleFunc("/sessions", sessions.List).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{id}", sessions.Get).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{id}", sessions.Delete).Methods(http.MethodDelete)
	r.HandleFunc("/sessions/{id}/export", sessions.Export).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{id}/events", sockets.ServeWS).Methods(http.MethodGet)
	r.HandleFunc("/transcripts", transcripts.List).Methods(http.MethodGet)

	return &Server{router: r, cfg: cfg}
}

// Router returns the underlying router, chiefly for tests that want to
// drive it with httptest without opening a real listener.
func (s *Server) Router() *mux.Router {
	return s.router
}

// ListenAndServe starts the HTTP listener. Unlike the teacher's
// internal/api.Server, there is no TLS option here — SPEC_FULL.md's
// transport boundary is local operator tooling, not a dashboard meant to
// face an untrusted network.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.srv = &http.Server{Addr: addr, Handler: s.router}
	log.Printf("transport: listening on http://%s", addr)
	return s.srv.ListenAndServe()
}

// Shutdown gracefully stops the HTTP listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	shutdownCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
	}
	return s.srv.Shutdown(shutdownCtx)
}
