package handlers

import (
	"filmclub/server/internal/middleware"
	"filmclub/server/internal/models"
	"filmclub/server/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// FavoriteRequest represents add favorite request body
type FavoriteRequest struct {
	MovieID int64   `json:"movieId" validate:"required,gt=0"`
	Comment *string `json:"comment" validate:"omitempty,max=1000"`
}

// CommentRequest represents add comment request body
type CommentRequest struct {
	Comment string `json:"comment" validate:"notblank,max=2000"`
}

// AddFavorite nominates a movie in a group.
// A repeated nomination answers 200 with result "duplicate".
func (h *Handlers) AddFavorite(c *fiber.Ctx) error {
	groupID, err := paramID(c, "groupId")
	if err != nil {
		return err
	}

	var req FavoriteRequest
	if err := h.parseBody(c, &req); err != nil {
		return err
	}

	result, err := h.groups.AddFavoriteToGroup(c.UserContext(), middleware.GetUserID(c), groupID, models.FavoriteInput{
		MovieID: req.MovieID,
		Comment: validation.PlainTextPtr(req.Comment),
	})
	if err != nil {
		return err
	}

	status := fiber.StatusCreated
	if result == models.FavoriteDuplicate {
		status = fiber.StatusOK
	}
	return success(c, status, fiber.Map{"result": result})
}

// DeleteFavorite deletes the current user's favorite
func (h *Handlers) DeleteFavorite(c *fiber.Ctx) error {
	favoriteID, err := paramID(c, "favoriteId")
	if err != nil {
		return err
	}

	if err := h.groups.DeleteFavoriteFromGroup(c.UserContext(), middleware.GetUserID(c), favoriteID); err != nil {
		return err
	}
	return message(c, "Favorite deleted")
}

// AddComment comments on a favorite
func (h *Handlers) AddComment(c *fiber.Ctx) error {
	favoriteID, err := paramID(c, "favoriteId")
	if err != nil {
		return err
	}

	var req CommentRequest
	if err := h.parseBody(c, &req); err != nil {
		return err
	}
	text := validation.PlainText(req.Comment)
	if text == "" {
		return h.validate.Validate(CommentRequest{})
	}

	comment, err := h.groups.AddCommentToFavorite(c.UserContext(), middleware.GetUserID(c), favoriteID, text)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusCreated, comment)
}
