// handlers/referral_routes.go
package handlers

import (
	"errors"

	"umrah-ops-system/middleware"
	"umrah-ops-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupReferralRoutes(app *fiber.App, referralService *services.ReferralService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	// Called by the registration screen with the code the new user typed.
	secured.Post("/referrals/register", func(c *fiber.Ctx) error {
		var req struct {
			Code           string `json:"code"`
			ReferredUserID string `json:"referred_user_id"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if req.ReferredUserID == "" {
			req.ReferredUserID = c.Locals("user_id").(string)
		}

		tracking, err := referralService.RegisterReferral(req.Code, req.ReferredUserID)
		if err != nil {
			return referralError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(tracking)
	})

	// Called by the role-upgrade screen after flipping a user's role.
	secured.Post("/referrals/track-upgrade", func(c *fiber.Ctx) error {
		var req struct {
			UserID string `json:"user_id"`
		}
		if err := c.BodyParser(&req); err != nil || req.UserID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id is required"})
		}

		if err := referralService.TrackUpgrade(req.UserID); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to track upgrade", "cause": err.Error()})
		}
		return c.JSON(fiber.Map{"message": "OK"})
	})

	// Self-service code issuance for alumni/agents.
	secured.Post("/referrals/codes", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		code, err := referralService.IssueCode(userID)
		if err != nil {
			return referralError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(code)
	})

	secured.Get("/referrals/mine", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		trackings, err := referralService.ListByReferrer(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch referrals"})
		}
		return c.JSON(trackings)
	})

	secured.Get("/referrals/overview", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		overview, err := referralService.Overview(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to build overview"})
		}
		return c.JSON(overview)
	})
}

func referralError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrEmptyReferralCode):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Referral code is empty"})
	case errors.Is(err, services.ErrReferralCodeNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Referral code not found"})
	case errors.Is(err, services.ErrReferralCodeInactive):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Referral code is no longer active"})
	case errors.Is(err, services.ErrIneligibleOwnerRole):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Code owner is not commission-eligible"})
	case errors.Is(err, services.ErrOwnerNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Referral operation failed", "cause": err.Error()})
	}
}
