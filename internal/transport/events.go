// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/gfbonny/freshell/internal/manager"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const eventSocketSubscriberBuffer = 100

type eventSocketHandler struct {
	mgr *manager.Manager
}

func newEventSocketHandler(mgr *manager.Manager) *eventSocketHandler {
	return &eventSocketHandler{mgr: mgr}
}

// ServeWS upgrades GET /sessions/{id}/events and forwards everything the
// session publishes over its Subscribe channel as JSON frames, until the
// subscriber unsubscribes or the socket closes. The Subscribe channel holds
// up to eventSocketSubscriberBuffer events. Adapted from the teacher's
// internal/api/handlers.EventHandler.WebSocket.
func (h *eventSocketHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sess, ok := h.mgr.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, ErrNotFound, "no such session")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ch := sess.Subscribe(eventSocketSubscriberBuffer)
	defer sess.Unsubscribe(ch)

	done := make(chan struct{})
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	pingTicker := time.NewTicker(54 * time.Second)
	defer pingTicker.Stop()

	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev.WithLegacyAliases()); err != nil {
				return
			}
		case <-pingTicker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
