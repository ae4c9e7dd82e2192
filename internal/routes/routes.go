package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"github.com/whatsapp-storefront/backend/internal/handlers"
	"github.com/whatsapp-storefront/backend/internal/logger"
	"github.com/whatsapp-storefront/backend/internal/middleware"
)

// Dependencies are the handlers and settings the routes are built from
type Dependencies struct {
	Health     *handlers.HealthHandler
	WhatsApp   *handlers.WhatsAppHandler
	Storefront *handlers.StorefrontHandler
	Admin      *handlers.AdminHandler

	// SignatureValidator is nil when webhook validation is disabled
	SignatureValidator middleware.SignatureValidator
	PublicWebhookURL   string
	AdminAPIKey        string
	EnableTestRoutes   bool
}

// NewApp creates the fiber app with the shared error handler and middleware
func NewApp(name string, log *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      name,
		Immutable:    true, // request values outlive the handler in the memory store
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			msg := err.Error()
			if code == fiber.StatusInternalServerError {
				logger.FromFiber(c, log).Error("Request failed", zap.Error(err))
				msg = "Something went wrong. Please try again."
			}
			return c.Status(code).JSON(fiber.Map{
				"error": msg,
			})
		},
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.FiberMiddleware(log))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, " + middleware.AdminKeyHeader,
		AllowMethods: "GET, POST, PATCH, DELETE, OPTIONS",
	}))
	return app
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, deps Dependencies, log *zap.Logger) {
	app.Get("/", deps.Health.Info)
	app.Get("/health", deps.Health.Check)

	// ========== WEBHOOK ROUTES ==========
	webhooks := app.Group("/webhook")
	if deps.SignatureValidator != nil {
		webhooks.Post("/whatsapp", middleware.ValidateTwilioSignature(deps.SignatureValidator, deps.PublicWebhookURL, log), deps.WhatsApp.HandleWebhook)
	} else {
		log.Warn("⚠️  WhatsApp webhook signature validation DISABLED")
		webhooks.Post("/whatsapp", deps.WhatsApp.HandleWebhook)
	}

	// ========== TEST ROUTES (Development Only) ==========
	if deps.EnableTestRoutes {
		app.Post("/test/whatsapp", deps.WhatsApp.HandleTestWebhook)
	}

	// ========== ADMIN ROUTES ==========
	admin := app.Group("/admin", middleware.RequireAdminKey(deps.AdminAPIKey))
	admin.Get("/sellers", deps.Admin.ListSellers)
	admin.Post("/sellers", deps.Admin.CreateSeller)
	admin.Get("/sellers/:id", deps.Admin.GetSeller)
	admin.Patch("/sellers/:id", deps.Admin.UpdateSeller)
	admin.Get("/products", deps.Admin.ListProducts)
	admin.Get("/products/:id", deps.Admin.GetProduct)
	admin.Patch("/products/:id", deps.Admin.UpdateProduct)
	admin.Delete("/products/:id", deps.Admin.DeleteProduct)

	// ========== STOREFRONT ==========
	api := app.Group("/api")
	api.Get("/storefront/:sellerId", deps.Storefront.GetStorefront)

	// Deep link sent to sellers: <base-url>/<sellerId>. Registered last so
	// it never shadows the routes above.
	app.Get("/:sellerId", deps.Storefront.GetStorefront)
}
