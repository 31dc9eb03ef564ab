package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// currentUserID reads the authenticated user id the JWT middleware stored on
// the request context. Empty when the route is not behind the middleware.
func currentUserID(c *fiber.Ctx) string {
	if id, ok := c.Locals("user_id").(string); ok {
		return id
	}
	return ""
}
