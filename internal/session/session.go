// Package session runs one websocket editing session per connected operator.
// The session run loop is the single goroutine that owns its editor: it
// serializes pointer/keyboard input, commit results and hover sampling, so
// the editor itself needs no locking.
package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/coder/websocket"

	"github.com/voltmap/voltmap/internal/editor"
	"github.com/voltmap/voltmap/internal/render"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 64 * 1024

	// Hover sampling cadence; the debounce window itself lives in the
	// editor options.
	hoverTickPeriod = 50 * time.Millisecond
)

// Session couples one websocket connection to one editor.
type Session struct {
	hub  *Hub
	conn *websocket.Conn
	ed   *editor.Editor

	ID        string
	DiagramID string

	inbound chan Message
	send    chan []byte
	done    chan struct{}
}

// New creates a session for an accepted websocket connection. The editor must
// have been constructed with this session's callbacks (see Callbacks).
func New(hub *Hub, conn *websocket.Conn, ed *editor.Editor, id, diagramID string) *Session {
	return &Session{
		hub:       hub,
		conn:      conn,
		ed:        ed,
		ID:        id,
		DiagramID: diagramID,
		inbound:   make(chan Message, 64),
		send:      make(chan []byte, 256),
		done:      make(chan struct{}),
	}
}

// Callbacks returns editor callbacks that push frames, status lines and
// tooltips to this session's client.
func (s *Session) Callbacks() (onFrame func(), onStatus func(string), onTooltip func(*editor.Tooltip)) {
	onFrame = func() {
		commands := render.Compile(s.ed.Scene())
		s.sendMessage(TypeFrame, commands)
	}
	onStatus = func(text string) {
		s.sendMessage(TypeStatus, StatusPayload{Text: text})
	}
	onTooltip = func(t *editor.Tooltip) {
		if t == nil {
			s.sendMessage(TypeTooltipHide, nil)
			return
		}
		s.sendMessage(TypeTooltipShow, t)
	}
	return onFrame, onStatus, onTooltip
}

// Run is the session's editor goroutine. It loads the diagram, then
// serializes inbound events, commit results and hover ticks until the
// connection closes.
func (s *Session) Run(ctx context.Context) {
	defer close(s.done)

	if err := s.ed.Load(ctx); err != nil {
		slog.Error("session load", "diagram", s.DiagramID, "error", err)
		return
	}

	hover := time.NewTicker(hoverTickPeriod)
	defer hover.Stop()

	for {
		select {
		case msg, ok := <-s.inbound:
			if !ok {
				return
			}
			s.dispatch(ctx, msg)

		case res := <-s.ed.Commits():
			s.ed.Resolve(ctx, res)

		case now := <-hover.C:
			s.ed.HoverTick(now)

		case <-ctx.Done():
			return
		}
	}
}

func (s *Session) dispatch(ctx context.Context, msg Message) {
	switch msg.Type {
	case TypePointerDown:
		var p PointerPayload
		if unmarshal(msg.Payload, &p) {
			s.ed.PointerDown(p.X, p.Y, p.Ctrl)
		}
	case TypePointerMove:
		var p PointerPayload
		if unmarshal(msg.Payload, &p) {
			s.ed.PointerMove(p.X, p.Y, p.Alt)
		}
	case TypePointerUp:
		var p PointerPayload
		if unmarshal(msg.Payload, &p) {
			s.ed.PointerUp(p.X, p.Y)
		}
	case TypePointerDbl:
		var p PointerPayload
		if unmarshal(msg.Payload, &p) {
			s.ed.DoubleClick(p.X, p.Y)
		}
	case TypeWheel:
		var p PointerPayload
		if unmarshal(msg.Payload, &p) {
			s.ed.Wheel(p.X, p.Y, p.Delta)
		}
	case TypeKeyPress:
		var k KeyPayload
		if unmarshal(msg.Payload, &k) {
			s.ed.KeyPress(k.Key)
		}
	case TypeCanvasResize:
		var r ResizePayload
		if unmarshal(msg.Payload, &r) {
			s.ed.Resize(r.Width, r.Height)
		}
	default:
		slog.Warn("unknown message type", "type", msg.Type, "session", s.ID)
	}
}

func unmarshal(data json.RawMessage, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		slog.Warn("invalid payload", "error", err)
		return false
	}
	return true
}

// ReadPump reads from the websocket and feeds the run loop until the
// connection drops.
func (s *Session) ReadPump(ctx context.Context) {
	defer func() {
		s.hub.unregister <- s
		close(s.inbound)
		s.conn.Close(websocket.StatusNormalClosure, "")
	}()

	s.conn.SetReadLimit(maxMsgSize)

	for {
		_, data, err := s.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway {
				return
			}
			slog.Debug("read error", "error", err, "session", s.ID)
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("invalid message", "error", err, "session", s.ID)
			continue
		}

		select {
		case s.inbound <- msg:
		default:
			slog.Warn("session inbound buffer full, dropping message", "session", s.ID)
		}
	}
}

// WritePump flushes outbound messages and keepalive pings.
func (s *Session) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message, ok := <-s.send:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := s.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()
			if err != nil {
				slog.Debug("write error", "error", err, "session", s.ID)
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := s.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

func (s *Session) sendMessage(msgType string, payload any) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			slog.Error("marshal payload", "error", err, "type", msgType)
			return
		}
		raw = data
	}
	data, err := json.Marshal(Message{Type: msgType, Payload: raw})
	if err != nil {
		slog.Error("marshal message", "error", err, "type", msgType)
		return
	}
	select {
	case s.send <- data:
	default:
		slog.Warn("session send buffer full, dropping message", "session", s.ID)
	}
}
