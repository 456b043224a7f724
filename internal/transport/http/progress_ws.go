package http

import (
	"log"
	"net/http"
	"sync"

	"exam-session-service/internal/domain"
	"github.com/gorilla/websocket"
)

// ProgressUpdate is pushed to websocket subscribers after every session
// mutation.
type ProgressUpdate struct {
	Status   domain.SessionStatus `json:"status"`
	Progress domain.Progress      `json:"progress"`
}

// ProgressHub fans live progress out to websocket subscribers per session.
type ProgressHub struct {
	mu          sync.Mutex
	subscribers map[string]map[chan ProgressUpdate]struct{}
}

func NewProgressHub() *ProgressHub {
	return &ProgressHub{
		subscribers: make(map[string]map[chan ProgressUpdate]struct{}),
	}
}

// Subscribe returns an update channel for a session and a cancel function
// the caller must invoke to avoid leaks.
func (h *ProgressHub) Subscribe(sessionID string) (<-chan ProgressUpdate, func()) {
	ch := make(chan ProgressUpdate, 8)

	h.mu.Lock()
	subs, ok := h.subscribers[sessionID]
	if !ok {
		subs = make(map[chan ProgressUpdate]struct{})
		h.subscribers[sessionID] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs, ok := h.subscribers[sessionID]
		if !ok {
			return
		}
		if _, ok := subs[ch]; ok {
			delete(subs, ch)
			close(ch)
		}
		if len(subs) == 0 {
			delete(h.subscribers, sessionID)
		}
	}
	return ch, cancel
}

// Broadcast delivers an update to every subscriber of the session. Slow
// subscribers have their oldest pending update dropped rather than blocking
// the broadcast.
func (h *ProgressHub) Broadcast(sessionID string, update ProgressUpdate) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers[sessionID] {
		select {
		case ch <- update:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- update
		}
	}
}

// serveProgressWS upgrades the connection and streams progress updates for
// one session until the client disconnects.
func (h *Handler) serveProgressWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		http.Error(w, "missing sessionId", http.StatusBadRequest)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	sess, progress, err := h.service.GetSession(r.Context(), sessionID)
	if err != nil {
		_ = conn.WriteJSON(map[string]string{"error": err.Error()})
		return
	}

	updates, cancel := h.hub.Subscribe(sessionID)
	defer cancel()

	if err := conn.WriteJSON(ProgressUpdate{Status: sess.Status, Progress: progress}); err != nil {
		return
	}

	// Reader goroutine only watches for the client closing the socket.
	done := make(chan struct{})
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
		case update, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(update); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
