package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Hub maintains the set of active clients and broadcasts view invalidations.
// It implements services.Invalidator.
type Hub struct {
	// Registered clients mapped by connection ID
	clients map[string]*Client

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	log *zap.Logger

	// Mutex for thread-safe operations
	mu sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run starts the hub's main loop and returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)
		case client := <-h.Unregister:
			h.unregisterClient(client)
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return
		}
	}
}

// registerClient adds a client to the hub
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()

	client.enqueue(h.encode(WSMessage{
		Type:      EventConnect,
		Payload:   ConnectPayload{ConnectionID: client.ID, UserID: client.UserID},
		Timestamp: time.Now(),
	}))

	h.log.Debug("client connected", zap.String("conn_id", client.ID), zap.Int64("user_id", client.UserID))
}

// unregisterClient removes a client from the hub
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; ok {
		delete(h.clients, client.ID)
		close(client.Send)
		h.log.Debug("client disconnected", zap.String("conn_id", client.ID), zap.Int64("user_id", client.UserID))
	}
}

// closeAll drops every connection. The pumps notice the closed
// connections and exit on their own.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, client := range h.clients {
		delete(h.clients, id)
		client.Conn.Close()
	}
}

func (h *Hub) encode(msg WSMessage) []byte {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("failed to marshal websocket message", zap.Error(err))
		return nil
	}
	return data
}

// Invalidate tells every interested client that the named views are stale.
// Slow clients miss the event rather than block the caller.
func (h *Hub) Invalidate(views ...string) {
	if len(views) == 0 {
		return
	}

	data := h.encode(WSMessage{
		Type:      EventViewsStale,
		Payload:   ViewsStalePayload{Views: views},
		Timestamp: time.Now(),
	})
	if data == nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if !client.wants(views) {
			continue
		}
		if !client.enqueue(data) {
			h.log.Warn("dropped invalidation for slow client", zap.String("conn_id", client.ID))
		}
	}
}

// GetOnlineCount returns the number of currently connected clients
func (h *Hub) GetOnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// GetOnlineUsers returns the distinct IDs of connected users
func (h *Hub) GetOnlineUsers() []int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[int64]struct{}, len(h.clients))
	userIDs := make([]int64, 0, len(h.clients))
	for _, client := range h.clients {
		if _, ok := seen[client.UserID]; ok {
			continue
		}
		seen[client.UserID] = struct{}{}
		userIDs = append(userIDs, client.UserID)
	}
	return userIDs
}

// Serve registers a connection for userID and pumps it until it closes.
func (h *Hub) Serve(userID int64, conn Conn) {
	client := NewClient(userID, conn, h)

	select {
	case h.Register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.WritePump()
	client.ReadPump()
}
