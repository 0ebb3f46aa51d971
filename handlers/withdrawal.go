// handlers/withdrawal_routes.go
package handlers

import (
	"errors"
	"log"

	"umrah-ops-system/middleware"
	"umrah-ops-system/models"
	"umrah-ops-system/services"
	"umrah-ops-system/utils"

	"github.com/gofiber/fiber/v2"
)

func SetupWithdrawalRoutes(app *fiber.App, withdrawalService *services.WithdrawalService, reconciliationService *services.ReconciliationService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Post("/withdrawals", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req services.WithdrawalRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if req.AccountNumber == "" || req.AccountName == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Account number and account name are required"})
		}
		if req.Method == "" {
			req.Method = models.WithdrawalMethodBankTransfer
		}

		withdrawal, err := withdrawalService.Request(userID, req)
		if err != nil {
			return withdrawalError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(withdrawal)
	})

	secured.Get("/withdrawals/mine", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		withdrawals, err := withdrawalService.ListByUser(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch withdrawals"})
		}
		return c.JSON(withdrawals)
	})

	secured.Get("/balance", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		balance, err := withdrawalService.GetBalance(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch balance"})
		}
		return c.JSON(fiber.Map{
			"user_id":           balance.UserID,
			"balance":           balance.Balance,
			"balance_formatted": utils.FormatRupiah(balance.Balance),
			"total_earned":      balance.TotalEarned,
			"total_withdrawn":   balance.TotalWithdrawn,
		})
	})

	admin := app.Group("/admin", middleware.UserContextMiddleware(), middleware.AdminOnly())

	admin.Get("/withdrawals", func(c *fiber.Ctx) error {
		status := models.WithdrawalStatus(c.Query("status"))

		withdrawals, err := withdrawalService.ListAll(status)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch withdrawals"})
		}
		return c.JSON(withdrawals)
	})

	// Multipart form: optional transfer_proof file plus an optional note.
	admin.Patch("/withdrawals/:id/approve", func(c *fiber.Ctx) error {
		adminID := c.Locals("user_id").(string)
		withdrawalID := c.Params("id")
		note := c.FormValue("note")

		proofURL := ""
		if proofFile, err := c.FormFile("transfer_proof"); err == nil && proofFile.Size > 0 {
			url, err := utils.UploadTransferProof(proofFile)
			if err != nil {
				log.Printf("⚠️ Transfer proof upload failed for withdrawal %s: %v", withdrawalID, err)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to upload transfer proof"})
			}
			proofURL = url
		}

		withdrawal, err := withdrawalService.Approve(withdrawalID, adminID, proofURL, note)
		if err != nil {
			return withdrawalError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Withdrawal confirmed", "withdrawal": withdrawal})
	})

	admin.Patch("/withdrawals/:id/reject", func(c *fiber.Ctx) error {
		adminID := c.Locals("user_id").(string)
		withdrawalID := c.Params("id")

		var req struct {
			Reason string `json:"reason"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		withdrawal, err := withdrawalService.Reject(withdrawalID, adminID, req.Reason)
		if err != nil {
			return withdrawalError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Withdrawal rejected", "withdrawal": withdrawal})
	})

	// Drift repair, also run nightly by the scheduler.
	admin.Post("/reconcile", func(c *fiber.Ctx) error {
		reports, err := reconciliationService.RecalculateAll()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Reconciliation failed", "cause": err.Error()})
		}
		return c.JSON(fiber.Map{"reports": reports})
	})

	admin.Post("/reconcile/:user_id", func(c *fiber.Ctx) error {
		report, err := reconciliationService.RecalculateOne(c.Params("user_id"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Reconciliation failed", "cause": err.Error()})
		}
		return c.JSON(report)
	})
}

func withdrawalError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrBelowMinimum),
		errors.Is(err, services.ErrReasonRequired):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInsufficientBalance):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Withdrawal amount exceeds current balance"})
	case errors.Is(err, services.ErrWithdrawalNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Withdrawal request not found"})
	case errors.Is(err, services.ErrWithdrawalFinalized):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Withdrawal request is already finalized"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Withdrawal operation failed", "cause": err.Error()})
	}
}
