package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/whatsapp-storefront/backend/internal/config"
	"github.com/whatsapp-storefront/backend/internal/logger"
	"github.com/whatsapp-storefront/backend/internal/models"
)

// PostgresDSN builds the connection string. On Cloud Run the database is
// reached through the Cloud SQL unix socket.
func PostgresDSN(cfg config.DatabaseConfig) string {
	if cfg.InstanceConnectionName != "" {
		return fmt.Sprintf("host=/cloudsql/%s user=%s password=%s dbname=%s sslmode=disable",
			cfg.InstanceConnectionName, cfg.User, cfg.Password, cfg.Name)
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port, cfg.SSLMode)
}

// Connect opens the gorm database for the configured driver and runs migrations
func Connect(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Store.Driver {
	case config.StorePostgres:
		if cfg.Database.InstanceConnectionName != "" {
			log.Info("Connecting to Cloud SQL via socket", zap.String("instance", cfg.Database.InstanceConnectionName))
		} else {
			log.Info("Connecting to PostgreSQL", zap.String("host", cfg.Database.Host))
		}
		dialector = postgres.Open(PostgresDSN(cfg.Database))
	case config.StoreSQLite:
		log.Info("Opening SQLite database", zap.String("path", cfg.Database.SQLitePath))
		dialector = sqlite.Open(cfg.Database.SQLitePath)
	default:
		return nil, fmt.Errorf("driver %q is not a gorm driver", cfg.Store.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.NewGormLogger(log, gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info("✅ Database connected and migrated")
	return db, nil
}

// Migrate creates or updates the product and seller tables
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Product{}, &models.Seller{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// ConnectMongo opens the document store client and verifies connectivity
func ConnectMongo(ctx context.Context, cfg config.MongoConfig, log *zap.Logger) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	log.Info("✅ Document store connected", zap.String("database", cfg.Database))
	return client, nil
}
