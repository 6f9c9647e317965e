package websocket

import "time"

// EventType represents different WebSocket event types
type EventType string

const (
	// Connection events
	EventConnect EventType = "connect"

	// Invalidation events
	EventViewsStale EventType = "views_stale"

	// Client requests
	EventSubscribe   EventType = "subscribe"
	EventUnsubscribe EventType = "unsubscribe"
	EventPing        EventType = "ping"
	EventPong        EventType = "pong"

	// Error events
	EventError EventType = "error"
)

// WSMessage represents a WebSocket message structure
type WSMessage struct {
	Type      EventType `json:"type"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// ConnectPayload is sent once after a connection is registered.
type ConnectPayload struct {
	ConnectionID string `json:"connectionId"`
	UserID       int64  `json:"userId"`
}

// ViewsStalePayload names the logical views a mutation made stale,
// e.g. "groups" or "groups/12".
type ViewsStalePayload struct {
	Views []string `json:"views"`
}

// ErrorPayload represents error event payload
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// IncomingMessage represents messages received from clients.
// Subscribe and unsubscribe carry a list of view names.
type IncomingMessage struct {
	Type  EventType `json:"type"`
	Views []string  `json:"views,omitempty"`
}
