// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"net/http"

	"github.com/gfbonny/freshell/internal/manager"
)

type transcriptHandler struct {
	mgr *manager.Manager
}

func newTranscriptHandler(mgr *manager.Manager) *transcriptHandler {
	return &transcriptHandler{mgr: mgr}
}

// List handles GET /transcripts: the merged, newest-first on-disk
// transcript listing across every registered provider, per SPEC_FULL.md
// §4.9.
func (h *transcriptHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.mgr.ListTranscripts()
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
