package session

import "encoding/json"

// Message is the JSON envelope exchanged over the websocket.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Inbound message types (frontend → editor).
const (
	TypePointerDown  = "pointer.down"
	TypePointerMove  = "pointer.move"
	TypePointerUp    = "pointer.up"
	TypePointerDbl   = "pointer.dblclick"
	TypeWheel        = "pointer.wheel"
	TypeKeyPress     = "key.press"
	TypeCanvasResize = "canvas.resize"
)

// Outbound message types (editor → frontend).
const (
	TypeFrame       = "frame.render"
	TypeStatus      = "status"
	TypeTooltipShow = "tooltip.show"
	TypeTooltipHide = "tooltip.hide"
)

// PointerPayload carries pointer events. Coordinates are screen pixels
// relative to the canvas element. Delta is the wheel delta for wheel events.
type PointerPayload struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Ctrl  bool    `json:"ctrl,omitempty"`
	Alt   bool    `json:"alt,omitempty"`
	Delta float64 `json:"delta,omitempty"`
}

// KeyPayload carries a named key action: copy, paste, delete, rotate-left,
// rotate-right, toggle-polygon.
type KeyPayload struct {
	Key string `json:"key"`
}

// ResizePayload carries the canvas dimensions in pixels.
type ResizePayload struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// StatusPayload carries a human-readable status line.
type StatusPayload struct {
	Text string `json:"text"`
}
