package handlers

import (
	"filmclub/server/internal/middleware"
	"filmclub/server/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// GetMe returns the current user
func (h *Handlers) GetMe(c *fiber.Ctx) error {
	user, err := h.identity.GetUser(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, user)
}

// RefreshToken re-issues the session token for the current principal
func (h *Handlers) RefreshToken(c *fiber.Ctx) error {
	token, err := utils.GenerateToken(h.jwtSecret, middleware.GetPrincipal(c), utils.TokenTTL)
	if err != nil {
		return err
	}

	h.setTokenCookie(c, token, int(utils.TokenTTL.Seconds()))

	return success(c, fiber.StatusOK, fiber.Map{"token": token})
}

// Logout clears the session cookie
func (h *Handlers) Logout(c *fiber.Ctx) error {
	h.setTokenCookie(c, "", -1)
	return message(c, "Logged out successfully")
}

func (h *Handlers) setTokenCookie(c *fiber.Ctx, value string, maxAge int) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookie,
		Value:    value,
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
		MaxAge:   maxAge,
	})
}
