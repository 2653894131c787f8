package handler

import (
	"errors"
	"log"

	"go-utang-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

// respondError maps service errors to status codes. Anything unrecognised is
// a server fault and gets logged.
func respondError(c *fiber.Ctx, err error) error {
	var verr *service.ValidationError
	switch {
	case errors.Is(err, service.ErrUnknownResource):
		return c.Status(404).JSON(fiber.Map{"error": "Unknown resource"})
	case errors.Is(err, service.ErrUnauthorized):
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		return c.Status(403).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrUserNotFound):
		return c.Status(404).JSON(fiber.Map{"error": "Not found"})
	case errors.As(err, &verr):
		body := fiber.Map{"error": verr.Message}
		if len(verr.Fields) > 0 {
			body["details"] = verr.Fields
		}
		return c.Status(400).JSON(body)
	case errors.Is(err, service.ErrInvalidBody), errors.Is(err, service.ErrWrongPassword):
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrConflict), errors.Is(err, service.ErrEmailTaken):
		return c.Status(409).JSON(fiber.Map{"error": err.Error()})
	}

	log.Printf("%s %s failed: %v", c.Method(), c.OriginalURL(), err)
	return c.Status(500).JSON(fiber.Map{"error": err.Error()})
}

// getUserID returns the user attached by the session middleware, "" if none.
func getUserID(c *fiber.Ctx) string {
	userID, _ := c.Locals("user_id").(string)
	return userID
}
