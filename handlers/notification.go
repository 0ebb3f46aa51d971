// handlers/notification_routes.go
package handlers

import (
	"errors"
	"strconv"

	"umrah-ops-system/middleware"
	"umrah-ops-system/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupNotificationRoutes(app *fiber.App, notificationService *services.NotificationService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/notifications", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		unreadOnly := c.Query("unread") == "true"
		limit, _ := strconv.Atoi(c.Query("limit", "50"))

		notifications, err := notificationService.ListForUser(userID, unreadOnly, limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch notifications"})
		}
		return c.JSON(notifications)
	})

	secured.Patch("/notifications/:id/read", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		if err := notificationService.MarkRead(userID, c.Params("id")); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Notification not found or not owned"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to mark as read"})
		}
		return c.JSON(fiber.Map{"message": "OK"})
	})

	secured.Patch("/notifications/read-all", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		marked, err := notificationService.MarkAllRead(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update notifications"})
		}
		return c.JSON(fiber.Map{"message": "OK", "marked_count": marked})
	})
}
