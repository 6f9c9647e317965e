package websocket

import (
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 64
)

// Conn is the part of a websocket connection the pumps use.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Client represents a WebSocket client connection
type Client struct {
	ID     string // Connection ID
	UserID int64
	Conn   Conn
	Hub    *Hub
	Send   chan []byte

	// Views the client listens to; empty means every view.
	mu            sync.Mutex
	subscriptions []string
}

// NewClient creates a new WebSocket client with a fresh connection ID
func NewClient(userID int64, conn Conn, hub *Hub) *Client {
	return &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		Conn:   conn,
		Hub:    hub,
		Send:   make(chan []byte, sendBuffer),
	}
}

// enqueue queues data without blocking. It reports false when the buffer is full.
func (c *Client) enqueue(data []byte) bool {
	if data == nil {
		return true
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// wants reports whether the client subscribed to any of views.
func (c *Client) wants(views []string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.subscriptions) == 0 {
		return true
	}
	for _, v := range views {
		if slices.Contains(c.subscriptions, v) {
			return true
		}
	}
	return false
}

// ReadPump handles incoming messages from the client
func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.Hub.Unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.log.Warn("websocket read error", zap.String("conn_id", c.ID), zap.Error(err))
			}
			break
		}

		var incoming IncomingMessage
		if err := json.Unmarshal(message, &incoming); err != nil {
			c.sendError("BAD_MESSAGE", "message must be JSON")
			continue
		}

		c.handleIncomingMessage(incoming)
	}
}

// WritePump handles outgoing messages to the client
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.Hub.log.Debug("websocket write error", zap.String("conn_id", c.ID), zap.Error(err))
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleIncomingMessage processes different types of incoming messages
func (c *Client) handleIncomingMessage(msg IncomingMessage) {
	switch msg.Type {
	case EventSubscribe:
		c.mu.Lock()
		for _, v := range msg.Views {
			if !slices.Contains(c.subscriptions, v) {
				c.subscriptions = append(c.subscriptions, v)
			}
		}
		c.mu.Unlock()
	case EventUnsubscribe:
		c.mu.Lock()
		c.subscriptions = slices.DeleteFunc(c.subscriptions, func(v string) bool {
			return slices.Contains(msg.Views, v)
		})
		c.mu.Unlock()
	case EventPing:
		c.send(WSMessage{Type: EventPong, Timestamp: time.Now()})
	default:
		c.sendError("UNKNOWN_EVENT", "unknown message type: "+string(msg.Type))
	}
}

func (c *Client) sendError(code, message string) {
	c.send(WSMessage{
		Type:      EventError,
		Payload:   ErrorPayload{Code: code, Message: message},
		Timestamp: time.Now(),
	})
}

// send queues a message for this client only.
func (c *Client) send(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.Hub.log.Error("failed to marshal websocket message", zap.Error(err))
		return
	}
	c.enqueue(data)
}
