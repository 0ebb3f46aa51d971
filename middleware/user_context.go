package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// UserContextMiddleware extracts the acting user's identity and roles set by
// the Gateway. Applied to every secured route group; a missing user id is a
// hard failure there.
func UserContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-ID")
		rolesStr := c.Get("X-User-Roles")

		if userID == "" {
			log.Printf("❌ [USER_CTX] X-User-ID required but missing on secured route: %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID — request must come through gateway with auth context",
			})
		}

		var roles []string
		if rolesStr != "" {
			for _, r := range strings.Split(rolesStr, ",") {
				r = strings.TrimSpace(r)
				if r != "" {
					roles = append(roles, r)
				}
			}
		}

		c.Locals("user_id", userID)
		c.Locals("user_roles", roles)

		return c.Next()
	}
}

// AdminOnly gates admin operations (payment approval, withdrawal processing,
// reconciliation). Must run after UserContextMiddleware.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		roles, _ := c.Locals("user_roles").([]string)
		for _, r := range roles {
			if r == "admin" {
				return c.Next()
			}
		}
		log.Printf("🚫 [ADMIN] User %v denied admin route %s", c.Locals("user_id"), c.Path())
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "admin role required",
		})
	}
}
