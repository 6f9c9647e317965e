package handlers

import (
	"filmclub/server/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// ApproveRequest approves a join request (owner only)
func (h *Handlers) ApproveRequest(c *fiber.Ctx) error {
	return h.resolveRequest(c, true)
}

// RejectRequest rejects a join request (owner only)
func (h *Handlers) RejectRequest(c *fiber.Ctx) error {
	return h.resolveRequest(c, false)
}

func (h *Handlers) resolveRequest(c *fiber.Ctx, approve bool) error {
	requestID, err := paramID(c, "requestId")
	if err != nil {
		return err
	}

	if err := h.groups.ResolveJoinRequest(c.UserContext(), middleware.GetUserID(c), requestID, approve); err != nil {
		return err
	}
	if approve {
		return message(c, "Request approved")
	}
	return message(c, "Request rejected")
}
