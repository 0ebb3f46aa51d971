package middleware

import (
	"log"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// GatewayAuthMiddleware validates the Bearer token from the agency Gateway
func GatewayAuthMiddleware() fiber.Handler {
	expectedToken := os.Getenv("OPS_SERVICE_TOKEN")
	if expectedToken == "" {
		log.Fatal("❌ OPS_SERVICE_TOKEN is not set — service cannot authenticate Gateway")
	}

	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			log.Printf("🚫 [GATEWAY_AUTH] Missing Authorization header for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "gateway authentication token missing",
			})
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			// no "Bearer " prefix — try raw value
			token = authHeader
		}

		if token != expectedToken {
			log.Printf("❌ [GATEWAY_AUTH] Invalid token for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid gateway authentication token",
			})
		}

		return c.Next()
	}
}
