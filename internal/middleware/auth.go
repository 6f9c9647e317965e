package middleware

import (
	"context"
	"strings"

	"filmclub/server/internal/apperror"
	"filmclub/server/internal/models"
	"filmclub/server/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// TokenCookie is the cookie carrying the session token.
const TokenCookie = "token"

const (
	localUserID    = "userID"
	localPrincipal = "principal"
)

// IdentityResolver provisions or looks up the user behind a principal.
type IdentityResolver interface {
	EnsureUser(ctx context.Context, p models.Principal) (int64, error)
}

// Auth validates the session token from the cookie or a Bearer header and
// resolves it to a user ID once per request. Requests without a valid
// token are rejected.
func Auth(secret []byte, identity IdentityResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := TokenFromRequest(c)
		if tokenString == "" {
			return apperror.Unauthenticated("no token provided")
		}

		claims, err := utils.ValidateToken(secret, tokenString)
		if err != nil {
			return apperror.Unauthenticated("invalid token")
		}

		principal := claims.Principal()
		userID, err := identity.EnsureUser(c.UserContext(), principal)
		if err != nil {
			return err
		}

		c.Locals(localUserID, userID)
		c.Locals(localPrincipal, principal)

		return c.Next()
	}
}

// TokenFromRequest returns the session token from the cookie, falling back
// to an Authorization: Bearer header.
func TokenFromRequest(c *fiber.Ctx) string {
	if token := c.Cookies(TokenCookie); token != "" {
		return token
	}
	header := c.Get(fiber.HeaderAuthorization)
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// GetUserID gets the resolved user ID from context
func GetUserID(c *fiber.Ctx) int64 {
	userID, ok := c.Locals(localUserID).(int64)
	if !ok {
		return 0
	}
	return userID
}

// GetPrincipal gets the token principal from context
func GetPrincipal(c *fiber.Ctx) models.Principal {
	p, _ := c.Locals(localPrincipal).(models.Principal)
	return p
}
