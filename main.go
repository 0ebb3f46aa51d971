package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"umrah-ops-system/handlers"
	"umrah-ops-system/middleware"
	"umrah-ops-system/models"
	"umrah-ops-system/services"
	"umrah-ops-system/utils"
	"umrah-ops-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 20 * 1024 * 1024, // 20MB — transfer proof images only
	})

	// 🔐 GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-User-ID, X-User-Roles, X-Service-Token",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Printf("⚠️  R2 unavailable, transfer proofs will use local storage: %v", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.PilgrimUser{},
		&models.ReferralCode{},
		&models.ReferralTracking{},
		&models.ReferrerStats{},
		&models.ReferralBalance{},
		&models.CommissionWithdrawal{},
		&models.Payment{},
		&models.Notification{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if err := utils.EnsureUploadDir(); err != nil {
		log.Fatal("failed to ensure upload dir:", err)
	}

	notificationService := services.NewNotificationService(db)
	referralService := services.NewReferralService(db, notificationService)
	settlementService := services.NewSettlementService(db, notificationService)
	paymentService := services.NewPaymentService(db, settlementService)
	withdrawalService := services.NewWithdrawalService(db, notificationService)
	reconciliationService := services.NewReconciliationService(db)

	syncClient := workers.NewUserSyncClient(db)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go workers.PollUsers(ctx, syncClient, 30*time.Second)

	reconciliationService.StartReconciliationScheduler()

	handlers.SetupReferralRoutes(app, referralService)
	handlers.SetupWithdrawalRoutes(app, withdrawalService, reconciliationService)
	handlers.SetupPaymentRoutes(app, paymentService)
	handlers.SetupNotificationRoutes(app, notificationService)

	app.Static("/uploads", "./uploads")

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ User mirror polling running (every 30s)")
	log.Println("✅ Nightly balance reconciliation scheduled")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
