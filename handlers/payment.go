// handlers/payment_routes.go
package handlers

import (
	"errors"
	"log"
	"strconv"

	"umrah-ops-system/middleware"
	"umrah-ops-system/models"
	"umrah-ops-system/services"
	"umrah-ops-system/utils"

	"github.com/gofiber/fiber/v2"
)

func SetupPaymentRoutes(app *fiber.App, paymentService *services.PaymentService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	// Multipart form: amount, optional booking_id and payment_proof image.
	secured.Post("/payments", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		amount, err := strconv.ParseFloat(c.FormValue("amount"), 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid amount"})
		}

		proofURL := ""
		if proofFile, err := c.FormFile("payment_proof"); err == nil && proofFile.Size > 0 {
			url, err := utils.UploadPaymentProof(proofFile)
			if err != nil {
				log.Printf("⚠️ Payment proof upload failed for user %s: %v", userID, err)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to upload payment proof"})
			}
			proofURL = url
		}

		payment, err := paymentService.Submit(userID, c.FormValue("booking_id"), amount, proofURL)
		if err != nil {
			return paymentError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(payment)
	})

	admin := app.Group("/admin", middleware.UserContextMiddleware(), middleware.AdminOnly())

	admin.Get("/payments", func(c *fiber.Ctx) error {
		status := models.PaymentStatus(c.Query("status"))

		payments, err := paymentService.ListAll(status)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch payments"})
		}
		return c.JSON(payments)
	})

	// Approval flips the payment, then settles referral commission. The
	// settlement outcome rides along so the console can show whether a
	// commission was granted.
	admin.Patch("/payments/:id/approve", func(c *fiber.Ctx) error {
		adminID := c.Locals("user_id").(string)

		payment, settlement, err := paymentService.Approve(c.Params("id"), adminID)
		if err != nil {
			return paymentError(c, err)
		}
		return c.JSON(fiber.Map{
			"message":    "Payment approved",
			"payment":    payment,
			"settlement": settlement,
		})
	})

	admin.Patch("/payments/:id/reject", func(c *fiber.Ctx) error {
		adminID := c.Locals("user_id").(string)

		payment, err := paymentService.Reject(c.Params("id"), adminID)
		if err != nil {
			return paymentError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Payment rejected", "payment": payment})
	})
}

func paymentError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidPaymentAmount):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrPaymentNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment not found"})
	case errors.Is(err, services.ErrPaymentFinalized):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Payment is already finalized"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Payment operation failed", "cause": err.Error()})
	}
}
