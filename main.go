package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"

	"leadengine/config"
	controller "leadengine/controllers"
	"leadengine/middleware"
	"leadengine/models"
	"leadengine/nurture"
	"leadengine/qualification"
	"leadengine/routes"
	"leadengine/services"
	"leadengine/store"
	"leadengine/utils"
	"leadengine/worker"
)

func main() {
	// Load configuration
	if err := config.LoadConfig(); err != nil {
		utils.InitLogger("development").Fatalf("Failed to load configuration: %v", err)
	}
	cfg := config.AppConfig
	logger := utils.InitLogger(cfg.Environment)

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Environment,
		}); err != nil {
			logger.WithError(err).Warn("Sentry initialization failed")
		}
		defer sentry.Flush(2 * time.Second)
	}

	// Initialize database connection
	if err := config.ConnectDB(); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.CreateDefaultAdmin(config.DB, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.WithError(err).Error("Failed to create default admin")
	}

	prospects := store.NewProspectStore(config.DB)
	assessments := store.NewAssessmentStore(config.DB)
	emails := store.NewNurtureStore(config.DB)

	content, err := nurture.LoadContent(cfg.NurtureContentPath)
	if err != nil {
		logger.Fatalf("Failed to load nurture content: %v", err)
	}
	generator, err := nurture.NewGenerator(content, nurture.Links{
		Course:      cfg.CourseURL,
		Consulting:  cfg.ConsultingURL,
		Resource:    cfg.ResourceURL,
		Booking:     cfg.Calendly.GeneralDiscovery,
		Unsubscribe: cfg.AppURL + "/unsubscribe",
	})
	if err != nil {
		logger.Fatalf("Failed to build nurture generator: %v", err)
	}
	logger.WithField("version", generator.ContentVersion()).Info("Nurture content loaded")

	mailer := utils.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.FromEmail, cfg.FromName)
	feed := controller.NewFeedHub()

	leadService := services.NewLeadService(services.LeadDeps{
		Prospects:   prospects,
		Assessments: assessments,
		Emails:      emails,
		Mailer:      mailer,
		Scheduler:   services.NewStoreScheduler(emails),
		Generator:   generator,
		Publisher:   feed,
	}, services.LeadConfig{
		Booking: qualification.BookingLinks{
			ExecutiveStrategy: cfg.Calendly.ExecutiveStrategy,
			DivineStrategy:    cfg.Calendly.DivineStrategy,
			AIImplementation:  cfg.Calendly.AIImplementation,
			GeneralDiscovery:  cfg.Calendly.GeneralDiscovery,
		},
		SalesNotifyEmail: cfg.SalesNotifyEmail,
		AppURL:           cfg.AppURL,
	})
	guidance := services.NewGuidanceService(utils.NewCompletionClient(cfg.AI.APIURL, cfg.AI.APIKey, cfg.AI.Model))

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "leadengine",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.CORSOrigins
	app.Use(middleware.CORS(corsConfig))
	app.Use(middleware.Metrics())

	routes.SetupRoutes(app, routes.Deps{
		DB:            config.DB,
		Leads:         leadService,
		Prospects:     prospects,
		Advisor:       guidance,
		Feed:          feed,
		LimitStorage:  middleware.RateLimitStorage(cfg.Redis),
		FormRateLimit: cfg.RateLimitForms,
		TrackingKey:   cfg.JWTSecret,
		WebhookSecret: cfg.CalendarWebhookSecret,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	nurtureWorker := worker.NewNurtureWorker(emails, mailer, cfg.AppURL, cfg.JWTSecret, cfg.FromEmail)
	go nurtureWorker.Start(ctx)

	engagementWorker := worker.NewEngagementWorker(prospects, assessments)
	go engagementWorker.Start(ctx)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("Shutting down server...")
		cancel()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.WithError(err).Error("Server shutdown failed")
		}
	}()

	// Start server
	logger.Infof("🚀 Server starting on port %s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
