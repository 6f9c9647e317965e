package handlers

import (
	"filmclub/server/internal/apperror"
	"filmclub/server/internal/middleware"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// WebSocketUpgrade checks if the request should be upgraded to WebSocket
func (h *Handlers) WebSocketUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.NewError(fiber.StatusUpgradeRequired, "WebSocket upgrade required")
	}

	// websocket.New copies request locals onto the connection.
	c.Locals("wsUserID", middleware.GetUserID(c))
	return c.Next()
}

// WebSocketHandler streams view invalidations to the connection
func (h *Handlers) WebSocketHandler(c *websocket.Conn) {
	userID, _ := c.Locals("wsUserID").(int64)
	h.hub.Serve(userID, c)
}

// GetWebSocketStats returns WebSocket connection statistics
func (h *Handlers) GetWebSocketStats(c *fiber.Ctx) error {
	if h.hub == nil {
		return apperror.New(apperror.CodeInternal, "WebSocket hub not initialized")
	}

	return success(c, fiber.StatusOK, fiber.Map{
		"connections": h.hub.GetOnlineCount(),
		"userIds":     h.hub.GetOnlineUsers(),
	})
}
