package routes

import (
	"filmclub/server/internal/handlers"
	"filmclub/server/internal/middleware"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// SetupRoutes configures all application routes
func SetupRoutes(app *fiber.App, h *handlers.Handlers, auth fiber.Handler) {
	// API v1 group
	api := app.Group("/api/v1")

	// Health check (public)
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "Film club API is running",
		})
	})

	// Auth routes (protected)
	authGroup := api.Group("/auth", auth)
	authGroup.Get("/me", h.GetMe)
	authGroup.Post("/refresh", middleware.StrictRateLimiter(), h.RefreshToken)
	authGroup.Post("/logout", h.Logout)

	// Group routes (protected)
	groups := api.Group("/groups", auth, middleware.RelaxedRateLimiter())
	groups.Get("/", h.GetGroups)
	groups.Post("/", middleware.ModerateRateLimiter(), h.CreateGroup)
	groups.Get("/:groupId", h.GetGroupDetails)
	groups.Put("/:groupId", h.UpdateGroup)
	groups.Delete("/:groupId", h.DeleteGroup)
	groups.Post("/:groupId/join", h.JoinGroup)
	groups.Post("/:groupId/requests", middleware.ModerateRateLimiter(), h.RequestToJoin)
	groups.Post("/:groupId/leave", h.LeaveGroup)
	groups.Post("/:groupId/invites", middleware.ModerateRateLimiter(), h.InviteMember)
	groups.Delete("/:groupId/members/:userId", h.RemoveGroupMember)
	groups.Post("/:groupId/favorites", h.AddFavorite)

	// Favorite routes (protected)
	favorites := api.Group("/favorites", auth, middleware.RelaxedRateLimiter())
	favorites.Delete("/:favoriteId", h.DeleteFavorite)
	favorites.Post("/:favoriteId/comments", h.AddComment)

	// Join request routes (protected)
	requests := api.Group("/requests", auth, middleware.RelaxedRateLimiter())
	requests.Post("/:requestId/approve", h.ApproveRequest)
	requests.Post("/:requestId/reject", h.RejectRequest)

	// WebSocket route (protected)
	api.Get("/ws", auth, h.WebSocketUpgrade, websocket.New(h.WebSocketHandler))

	// WebSocket stats (protected, for debugging)
	api.Get("/ws/stats", auth, h.GetWebSocketStats)
}
