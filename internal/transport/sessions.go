// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/gfbonny/freshell/internal/manager"
	"github.com/gfbonny/freshell/internal/provider"
	"github.com/gfbonny/freshell/internal/session"
)

// createSessionRequest is the POST /sessions body: the provider identity
// plus the provider.SpawnOptions fields a caller is allowed to set.
type createSessionRequest struct {
	Provider        provider.Identity `json:"provider"`
	Prompt          string            `json:"prompt"`
	CWD             string            `json:"cwd"`
	ResumeSessionID string            `json:"resumeSessionId,omitempty"`
	Model           string            `json:"model,omitempty"`
	PermissionMode  string            `json:"permissionMode,omitempty"`
	SandboxMode     string            `json:"sandboxMode,omitempty"`
	MaxTurns        int               `json:"maxTurns,omitempty"`
	AllowedTools    []string          `json:"allowedTools,omitempty"`
	DisallowedTools []string          `json:"disallowedTools,omitempty"`
	KeepStdinOpen   bool              `json:"keepStdinOpen,omitempty"`
}

// sessionView is the JSON shape a session is rendered as in list/get
// responses — a snapshot, not a live handle.
type sessionView struct {
	ID                string                       `json:"id"`
	Provider          provider.Identity            `json:"provider"`
	Prompt            string                       `json:"prompt"`
	CWD               string                       `json:"cwd"`
	Status            session.Status               `json:"status"`
	ProviderSessionID string                       `json:"providerSessionId,omitempty"`
	CreatedAt         time.Time                    `json:"createdAt"`
	CompletedAt       *time.Time                   `json:"completedAt,omitempty"`
	EventCount        uint64                       `json:"eventCount"`
}

func toSessionView(s *session.CliSession) sessionView {
	return sessionView{
		ID:                s.ID,
		Provider:          s.Provider.Identity(),
		Prompt:            s.Prompt,
		CWD:               s.CWD,
		Status:            s.Status(),
		ProviderSessionID: s.ProviderSessionID(),
		CreatedAt:         s.CreatedAt,
		CompletedAt:       s.CompletedAt(),
		EventCount:        s.EventCount(),
	}
}

// sessionHandler holds the Manager dependency for the /sessions routes.
type sessionHandler struct {
	mgr *manager.Manager
}

func newSessionHandler(mgr *manager.Manager) *sessionHandler {
	return &sessionHandler{mgr: mgr}
}

// Create handles POST /sessions.
func (h *sessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Provider == "" {
		writeError(w, http.StatusBadRequest, ErrBadRequest, "provider is required")
		return
	}

	opts := provider.SpawnOptions{
		Prompt:          req.Prompt,
		CWD:             req.CWD,
		ResumeSessionID: req.ResumeSessionID,
		Model:           req.Model,
		PermissionMode:  req.PermissionMode,
		SandboxMode:     req.SandboxMode,
		MaxTurns:        req.MaxTurns,
		AllowedTools:    req.AllowedTools,
		DisallowedTools: req.DisallowedTools,
		KeepStdinOpen:   req.KeepStdinOpen,
	}

	sess, err := h.mgr.Create(r.Context(), req.Provider, opts)
	if err != nil {
		writeProviderError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSessionView(sess))
}

// List handles GET /sessions.
func (h *sessionHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions := h.mgr.List()
	views := make([]sessionView, len(sessions))
	for i, s := range sessions {
		views[i] = toSessionView(s)
	}
	writeJSON(w, http.StatusOK, views)
}

// Get handles GET /sessions/{id}.
func (h *sessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sess, ok := h.mgr.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, ErrNotFound, "no such session")
		return
	}
	writeJSON(w, http.StatusOK, toSessionView(sess))
}

// Delete handles DELETE /sessions/{id}.
func (h *sessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, ok := h.mgr.Get(id); !ok {
		writeError(w, http.StatusNotFound, ErrNotFound, "no such session")
		return
	}
	h.mgr.Remove(id)
	w.WriteHeader(http.StatusNoContent)
}

// Export handles GET /sessions/{id}/export?level=full|summary, per
// SPEC_FULL.md §4.8.
func (h *sessionHandler) Export(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sess, ok := h.mgr.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, ErrNotFound, "no such session")
		return
	}
	level := r.URL.Query().Get("level")
	if level == "" {
		level = "full"
	}
	out, err := session.ExportTranscript(sess, level)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// writeProviderError maps a provider.Error's Kind to an HTTP status; any
// other error is an internal error.
func writeProviderError(w http.ResponseWriter, err error) {
	var perr *provider.Error
	if errors.As(err, &perr) {
		switch perr.Kind {
		case provider.KindProviderUnknown:
			writeError(w, http.StatusBadRequest, ErrBadRequest, perr.Error())
			return
		case provider.KindCapabilityUnsupported:
			writeError(w, http.StatusUnprocessableEntity, ErrUnsupported, perr.Error())
			return
		case provider.KindSpawnFailed:
			writeError(w, http.StatusInternalServerError, ErrInternalError, perr.Error())
			return
		}
	}
	writeError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
}
