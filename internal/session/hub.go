package session

import (
	"log/slog"
	"sync"
)

// Hub tracks live sessions so the server can report and shut them down
// cleanly. Sessions are independent editing surfaces; there is no cross-
// session document sharing (last write wins at the backend).
type Hub struct {
	mu         sync.RWMutex
	sessions   map[string]*Session // session ID -> session
	register   chan *Session
	unregister chan *Session
	stop       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		sessions:   make(map[string]*Session),
		register:   make(chan *Session, 16),
		unregister: make(chan *Session, 16),
		stop:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case s := <-h.register:
			h.mu.Lock()
			h.sessions[s.ID] = s
			h.mu.Unlock()
			slog.Info("session opened", "session", s.ID, "diagram", s.DiagramID)

		case s := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.sessions[s.ID]; ok {
				delete(h.sessions, s.ID)
				close(s.send)
			}
			h.mu.Unlock()
			slog.Info("session closed", "session", s.ID, "diagram", s.DiagramID)

		case <-h.stop:
			return
		}
	}
}

func (h *Hub) Register(s *Session) {
	h.register <- s
}

// Count returns the number of live sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Stop closes every live session connection and stops the run loop.
func (h *Hub) Stop() {
	h.mu.Lock()
	for id, s := range h.sessions {
		close(s.send)
		delete(h.sessions, id)
	}
	h.mu.Unlock()
	close(h.stop)
}
