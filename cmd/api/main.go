package main

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/resumeforge/resumeforge-backend/internal/config"
	"github.com/resumeforge/resumeforge-backend/internal/controller"
	"github.com/resumeforge/resumeforge-backend/internal/handler"
	"github.com/resumeforge/resumeforge-backend/internal/middleware"
	"github.com/resumeforge/resumeforge-backend/internal/repository"
	"github.com/resumeforge/resumeforge-backend/internal/service"
	"github.com/resumeforge/resumeforge-backend/pkg/database"
	"github.com/resumeforge/resumeforge-backend/pkg/email"
	"github.com/resumeforge/resumeforge-backend/pkg/logger"
	"github.com/resumeforge/resumeforge-backend/pkg/payment"
	"github.com/resumeforge/resumeforge-backend/pkg/storage"
	"github.com/resumeforge/resumeforge-backend/pkg/utils"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	zapLogger, err := logger.New()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer zapLogger.Sync()

	// Database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed to initialize database", zap.Error(err))
	}

	// Repositories
	submissionRepo := repository.NewSubmissionRepository(db)

	// Storage for generated CV documents
	r2Storage, err := storage.NewR2Storage(cfg.R2)
	if err != nil {
		zapLogger.Fatal("failed to initialize R2 storage", zap.Error(err))
	}

	// Email service
	emailService := email.NewEmailService(cfg.Email)

	// Stripe client
	stripeClient := payment.NewClient(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)

	// Services
	paymentService := service.NewPaymentService(cfg, stripeClient, submissionRepo, emailService, zapLogger)
	submissionService := service.NewSubmissionService(submissionRepo, r2Storage, cfg.JWTSecret, zapLogger)

	// Controllers
	paymentController := controller.NewPaymentController(paymentService)
	submissionController := controller.NewSubmissionController(submissionService)

	// Validator
	validator := utils.NewValidator()

	// Handlers
	paymentHandler := handler.NewPaymentHandler(paymentController, cfg, validator)
	submissionHandler := handler.NewSubmissionHandler(submissionController, validator)

	// Router
	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "https://resumeforge.app, https://www.resumeforge.app, http://localhost:5173",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE",
	}))
	app.Use(fiberlogger.New())
	app.Use(limiter.New(limiter.Config{
		Max:        20,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}))

	api := app.Group("/api")

	// Stripe webhook (public, authenticated by signature)
	api.Post("/payments/webhook", paymentHandler.HandleStripeWebhook)

	// Public payment routes
	api.Get("/payments/plans", paymentHandler.GetPlans)
	api.Post("/payments/checkout", paymentHandler.CreateCheckoutSession)
	api.Post("/payments/checkout/plan", paymentHandler.CreatePlanCheckoutSession)

	// Public submission intake
	api.Post("/submissions", submissionHandler.CreateSubmission)

	// Submission routes scoped by the per-submission access token
	submissions := api.Group("/submissions", middleware.AuthMiddleware(cfg.JWTSecret))
	submissions.Get("/:id", submissionHandler.GetSubmission)
	submissions.Get("/:id/download", submissionHandler.GetDownloadURL)

	zapLogger.Info("starting server", zap.String("port", cfg.Port))
	log.Fatal(app.Listen(":" + cfg.Port))
}
