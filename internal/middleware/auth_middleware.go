package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// SessionResolver maps an Authorization header to a user id, "" for none.
type SessionResolver interface {
	Resolve(ctx context.Context, authHeader string) string
}

// Session attaches the signed-in user id to the context. It never rejects a
// request; handlers decide what an anonymous caller may do.
func Session(resolver SessionResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if userID := resolver.Resolve(c.UserContext(), c.Get(fiber.HeaderAuthorization)); userID != "" {
			c.Locals("user_id", userID)
		}
		return c.Next()
	}
}

// RequireAuth rejects requests that Session did not attach a user to.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if UserID(c) == "" {
			return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
		}
		return c.Next()
	}
}

// UserID returns the id set by Session, or "".
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}
