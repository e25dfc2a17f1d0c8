package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"

	controller "leadengine/controllers"
	"leadengine/middleware"
	"leadengine/store"
	"leadengine/utils"
)

// Deps are the handlers' collaborators, built once in main.
type Deps struct {
	DB            *gorm.DB
	Leads         controller.LeadPipeline
	Prospects     store.ProspectStore
	Advisor       controller.Advisor
	Feed          *controller.FeedHub
	LimitStorage  fiber.Storage
	FormRateLimit int
	TrackingKey   string
	WebhookSecret string
}

var requestLogFormat = logger.Config{
	Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
}

func SetupAuthRoutes(app *fiber.App, d Deps) {
	authController := controller.NewAuthController(d.DB)

	auth := app.Group("/auth", logger.New(requestLogFormat))
	auth.Post("/login", authController.Login)
	auth.Post("/refresh", authController.RefreshToken)

	protectedAuth := auth.Group("", middleware.Protected(d.DB))
	protectedAuth.Get("/me", authController.Me)

	utils.ComponentLogger("routes").Info("Authentication routes initialized successfully")
}

// SetupPublicRoutes registers the website-facing endpoints. Form posts share
// one per-IP limiter.
func SetupPublicRoutes(app *fiber.App, d Deps) {
	leadController := controller.NewLeadController(d.Leads, d.Prospects)
	assessmentController := controller.NewAssessmentController(d.Leads)
	guidanceController := controller.NewGuidanceController(d.Advisor)
	trackingController := controller.NewTrackingController(d.Leads, d.TrackingKey, d.WebhookSecret)

	// Handlers are attached per route: a Group("/api") middleware would also
	// run for /api/v1.
	limit := middleware.FormRateLimiter(d.FormRateLimit, d.LimitStorage)
	reqLog := logger.New(requestLogFormat)

	api := app.Group("/api")
	api.Post("/assessment/submit", reqLog, limit, assessmentController.Submit)
	api.Post("/guidance", reqLog, limit, guidanceController.Ask)

	leads := api.Group("/leads")
	leads.Post("/qualify", reqLog, limit, leadController.Qualify)
	leads.Post("/lead-magnet", reqLog, limit, leadController.LeadMagnet)
	leads.Post("/events", reqLog, limit, leadController.PublicEvent)

	app.Get("/unsubscribe", trackingController.Unsubscribe)
	app.Get("/track/open/:messageID/:token", trackingController.TrackOpen)
	app.Get("/track/click/:messageID/:token", trackingController.TrackClick)
	app.Post("/webhooks/calendar", trackingController.CalendarWebhook)
}

func SetupAPIRoutes(app *fiber.App, d Deps) {
	leadController := controller.NewLeadController(d.Leads, d.Prospects)
	dashboardController := controller.NewDashboardController(d.Prospects)

	// API group with versioning and protection
	api := app.Group("/api/v1", middleware.Protected(d.DB), logger.New(requestLogFormat))

	dashboard := api.Group("/dashboard")
	dashboard.Get("/stats", dashboardController.GetDashboardStats)

	prospects := api.Group("/prospects")
	// Registered before /:id so "feed" is not taken for an ID
	prospects.Get("/feed", controller.FeedUpgrade, d.Feed.Handler())
	prospects.Get("/", leadController.ListProspects)
	prospects.Get("/:id", leadController.GetProspect)
	prospects.Get("/:id/history", leadController.GetHistory)
	prospects.Get("/:id/booking", leadController.GetBooking)
	prospects.Post("/:id/events", leadController.RecordEvent)
	prospects.Put("/:id/status", leadController.UpdateStatus)

	utils.ComponentLogger("routes").Info("API routes initialized successfully")
}

func SetupRoutes(app *fiber.App, d Deps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", middleware.MetricsHandler())

	SetupAuthRoutes(app, d)
	SetupPublicRoutes(app, d)
	SetupAPIRoutes(app, d)

	// Setup 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})
}
