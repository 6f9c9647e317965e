package handlers

import (
	"strings"

	"filmclub/server/internal/apperror"
	"filmclub/server/internal/middleware"
	"filmclub/server/internal/models"
	"filmclub/server/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// GroupRequest represents create and update group request body
type GroupRequest struct {
	Name        string  `json:"name" validate:"notblank,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Visibility  string  `json:"visibility" validate:"required,oneof=public private"`
}

func (r GroupRequest) input() models.GroupInput {
	return models.GroupInput{
		Name:        validation.PlainText(r.Name),
		Description: validation.PlainTextPtr(r.Description),
		Visibility:  models.Visibility(r.Visibility),
	}
}

// InviteRequest represents invite by email request body
type InviteRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (r *InviteRequest) normalize() {
	r.Email = strings.TrimSpace(r.Email)
}

// GetGroups returns every group annotated for the current user
func (h *Handlers) GetGroups(c *fiber.Ctx) error {
	overview, err := h.groups.GetGroupsOverview(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, overview)
}

// CreateGroup creates a new group owned by the current user
func (h *Handlers) CreateGroup(c *fiber.Ctx) error {
	var req GroupRequest
	if err := h.parseBody(c, &req); err != nil {
		return err
	}

	group, err := h.groups.CreateGroup(c.UserContext(), middleware.GetUserID(c), req.input())
	if err != nil {
		return err
	}
	return success(c, fiber.StatusCreated, group)
}

// GetGroupDetails returns the viewer-gated detail of a group
func (h *Handlers) GetGroupDetails(c *fiber.Ctx) error {
	groupID, err := paramID(c, "groupId")
	if err != nil {
		return err
	}

	detail, err := h.groups.GetGroupDetail(c.UserContext(), middleware.GetUserID(c), groupID)
	if err != nil {
		return err
	}
	if detail == nil {
		return apperror.NotFound("group not found")
	}
	return success(c, fiber.StatusOK, detail)
}

// UpdateGroup updates group info (owner only)
func (h *Handlers) UpdateGroup(c *fiber.Ctx) error {
	groupID, err := paramID(c, "groupId")
	if err != nil {
		return err
	}

	var req GroupRequest
	if err := h.parseBody(c, &req); err != nil {
		return err
	}

	group, err := h.groups.UpdateGroup(c.UserContext(), middleware.GetUserID(c), groupID, req.input())
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, group)
}

// DeleteGroup deletes a group and all its content (owner only)
func (h *Handlers) DeleteGroup(c *fiber.Ctx) error {
	groupID, err := paramID(c, "groupId")
	if err != nil {
		return err
	}

	if err := h.groups.DeleteGroupCascade(c.UserContext(), middleware.GetUserID(c), groupID); err != nil {
		return err
	}
	return message(c, "Group deleted successfully")
}

// JoinGroup joins a public group
func (h *Handlers) JoinGroup(c *fiber.Ctx) error {
	groupID, err := paramID(c, "groupId")
	if err != nil {
		return err
	}

	if err := h.groups.JoinPublicGroup(c.UserContext(), middleware.GetUserID(c), groupID); err != nil {
		return err
	}
	return message(c, "Joined group")
}

// RequestToJoin asks to join a private group
func (h *Handlers) RequestToJoin(c *fiber.Ctx) error {
	groupID, err := paramID(c, "groupId")
	if err != nil {
		return err
	}

	status, err := h.groups.RequestJoinPrivateGroup(c.UserContext(), middleware.GetUserID(c), groupID)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, fiber.Map{"status": status})
}

// LeaveGroup removes the current user from a group.
// The owner leaving deletes the group.
func (h *Handlers) LeaveGroup(c *fiber.Ctx) error {
	groupID, err := paramID(c, "groupId")
	if err != nil {
		return err
	}

	result, err := h.groups.LeaveGroup(c.UserContext(), middleware.GetUserID(c), groupID)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, fiber.Map{"result": result})
}

// InviteMember adds an existing user to a private group by email (owner only)
func (h *Handlers) InviteMember(c *fiber.Ctx) error {
	groupID, err := paramID(c, "groupId")
	if err != nil {
		return err
	}

	var req InviteRequest
	if err := h.parseBody(c, &req); err != nil {
		return err
	}

	if err := h.groups.InviteUserByEmailToPrivateGroup(c.UserContext(), middleware.GetUserID(c), groupID, req.Email); err != nil {
		return err
	}
	return message(c, "Member invited")
}

// RemoveGroupMember kicks a member from a group (owner only)
func (h *Handlers) RemoveGroupMember(c *fiber.Ctx) error {
	groupID, err := paramID(c, "groupId")
	if err != nil {
		return err
	}
	memberID, err := paramID(c, "userId")
	if err != nil {
		return err
	}

	if err := h.groups.KickGroupMember(c.UserContext(), middleware.GetUserID(c), groupID, memberID); err != nil {
		return err
	}
	return message(c, "Member removed successfully")
}
