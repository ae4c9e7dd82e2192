package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/whatsapp-storefront/backend/database"
	"github.com/whatsapp-storefront/backend/internal/config"
	"github.com/whatsapp-storefront/backend/internal/handlers"
	"github.com/whatsapp-storefront/backend/internal/jobs"
	"github.com/whatsapp-storefront/backend/internal/logger"
	"github.com/whatsapp-storefront/backend/internal/routes"
	"github.com/whatsapp-storefront/backend/internal/services"
	"github.com/whatsapp-storefront/backend/internal/storage"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(2)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("Server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.Warn("Failed to close store", zap.Error(err))
		}
	}()

	// Twilio is optional: without it replies still go out as TwiML, only
	// webhook validation and seller notifications are unavailable.
	var notifier services.Notifier
	twilioService, err := services.NewTwilioService(cfg.Twilio, log)
	if err != nil {
		log.Warn("⚠️  Twilio credentials not found - notifications and signature checks disabled")
	} else {
		notifier = twilioService
		log.Info("✅ Twilio service initialized")
	}

	var completer services.Completer = services.UnavailableCompleter{}
	if cfg.AI.Configured() {
		completer = services.NewOpenAICompleter(cfg.AI)
		log.Info("✅ Text completion configured", zap.String("model", cfg.AI.Model))
	} else {
		log.Warn("⚠️  AI_API_KEY not set - fallback questions get the apology reply")
	}

	ingestion := services.NewIngestionService(store)
	whatsappService := services.NewWhatsAppService(ingestion, completer, cfg.App.BaseURL)

	deps := routes.Dependencies{
		Health:           handlers.NewHealthHandler(version, cfg.Store.Driver, store, twilioService != nil, cfg.AI.Configured()),
		WhatsApp:         handlers.NewWhatsAppHandler(whatsappService, cfg.App.RequestTimeout, log),
		Storefront:       handlers.NewStorefrontHandler(store),
		Admin:            handlers.NewAdminHandler(store, notifier, whatsappService, log),
		PublicWebhookURL: cfg.App.PublicWebhookURL,
		AdminAPIKey:      cfg.App.AdminAPIKey,
		EnableTestRoutes: cfg.App.IsDevelopment(),
	}
	if twilioService != nil && !cfg.App.IsDevelopment() && !cfg.App.DisableWebhookValidation {
		deps.SignatureValidator = twilioService
	}

	if notifier != nil && cfg.Jobs.ReviewReminders {
		jobs.NewReviewReminderJob(store, notifier, cfg.Jobs.ReminderHour, log).Start(ctx)
	}

	app := routes.NewApp(cfg.App.Name+" v"+version, log)
	routes.SetupRoutes(app, deps, log)

	go func() {
		<-ctx.Done()
		log.Info("🛑 Gracefully shutting down...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Warn("Shutdown error", zap.Error(err))
		}
	}()

	log.Info("🚀 Storefront backend starting",
		zap.String("port", cfg.App.Port),
		zap.String("environment", cfg.App.Env),
		zap.String("storage", cfg.Store.Driver),
		zap.String("base_url", cfg.App.BaseURL),
	)
	return app.Listen(":" + cfg.App.Port)
}

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (storage.Store, error) {
	switch cfg.Store.Driver {
	case config.StoreMemory:
		log.Warn("⚠️  Using in-memory storage (not for production!)")
		return storage.NewMemoryStore(), nil

	case config.StoreMongo:
		client, err := database.ConnectMongo(ctx, cfg.Mongo, log)
		if err != nil {
			return nil, err
		}
		store := storage.NewMongoStore(client, cfg.Mongo.Database)
		if err := store.EnsureIndexes(ctx); err != nil {
			log.Warn("Failed to create indexes", zap.Error(err))
		}
		return store, nil

	default:
		db, err := database.Connect(cfg, log)
		if err != nil {
			return nil, err
		}
		return storage.NewDatabaseStore(db), nil
	}
}
