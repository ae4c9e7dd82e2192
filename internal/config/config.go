package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Store drivers
const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Store    StoreConfig
	Database DatabaseConfig
	Mongo    MongoConfig
	Twilio   TwilioConfig
	AI       AIConfig
	Jobs     JobsConfig
	Log      LogConfig
}

// AppConfig holds HTTP and deployment settings
type AppConfig struct {
	Name                     string
	Env                      string
	Port                     string
	BaseURL                  string // storefront links are <BaseURL>/<sellerId>
	PublicWebhookURL         string // URL Twilio signs, when behind a proxy
	RequestTimeout           time.Duration
	AdminAPIKey              string
	DisableWebhookValidation bool
	CloudRun                 bool
}

// StoreConfig selects the persistence backend
type StoreConfig struct {
	Driver string
}

// DatabaseConfig holds PostgreSQL/SQLite settings for the gorm store
type DatabaseConfig struct {
	Host                   string
	Port                   int
	User                   string
	Password               string
	Name                   string
	SSLMode                string
	InstanceConnectionName string // Cloud SQL socket
	SQLitePath             string
}

// MongoConfig holds document store settings
type MongoConfig struct {
	URI      string
	Database string
}

// TwilioConfig holds WhatsApp transport credentials
type TwilioConfig struct {
	AccountSID   string
	AuthToken    string
	WhatsAppFrom string // "whatsapp:+14155238886"
}

// AIConfig holds the fallback text-completion settings
type AIConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
}

// JobsConfig holds background job settings
type JobsConfig struct {
	ReviewReminders bool
	ReminderHour    int // local hour, 0-23
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
	Output string
}

// Configured reports whether Twilio credentials are present
func (t TwilioConfig) Configured() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.WhatsAppFrom != ""
}

// Configured reports whether an AI key is present
func (a AIConfig) Configured() bool {
	return a.APIKey != ""
}

// IsDevelopment reports whether the service runs in development mode
func (a AppConfig) IsDevelopment() bool {
	return strings.EqualFold(a.Env, "development")
}

// Load reads the optional .env file and builds the configuration from the
// environment. The env file path comes from --env-file.
func Load(args []string) (*Config, error) {
	flags := pflag.NewFlagSet("storefront", pflag.ContinueOnError)
	envFile := flags.String("env-file", ".env", "dotenv file loaded for local development")
	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Cloud Run injects everything through the environment
	if os.Getenv("INSTANCE_CONNECTION_NAME") == "" {
		if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", *envFile, err)
		}
	}

	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "WhatsApp Storefront")
	v.SetDefault("ENVIRONMENT", "production")
	v.SetDefault("PORT", "8080")
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("REQUEST_TIMEOUT", "10s")
	v.SetDefault("DISABLE_WEBHOOK_VALIDATION", false)

	v.SetDefault("STORE_DRIVER", StoreMongo)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "storefront")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("SQLITE_PATH", "storefront.db")

	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "storefront")

	v.SetDefault("AI_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("AI_MODEL", "gpt-4o-mini")
	v.SetDefault("AI_MAX_TOKENS", 300)

	v.SetDefault("REVIEW_REMINDERS_ENABLED", true)
	v.SetDefault("REVIEW_REMINDER_HOUR", 18)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_OUTPUT", "stdout")
}

// FromViper builds and validates a Config from v
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:                     v.GetString("APP_NAME"),
			Env:                      v.GetString("ENVIRONMENT"),
			Port:                     v.GetString("PORT"),
			BaseURL:                  strings.TrimRight(v.GetString("BASE_URL"), "/"),
			PublicWebhookURL:         v.GetString("PUBLIC_WEBHOOK_URL"),
			RequestTimeout:           v.GetDuration("REQUEST_TIMEOUT"),
			AdminAPIKey:              v.GetString("ADMIN_API_KEY"),
			DisableWebhookValidation: v.GetBool("DISABLE_WEBHOOK_VALIDATION"),
			CloudRun:                 v.GetString("INSTANCE_CONNECTION_NAME") != "",
		},
		Store: StoreConfig{
			Driver: strings.ToLower(v.GetString("STORE_DRIVER")),
		},
		Database: DatabaseConfig{
			Host:                   v.GetString("DB_HOST"),
			Port:                   v.GetInt("DB_PORT"),
			User:                   v.GetString("DB_USER"),
			Password:               v.GetString("DB_PASS"),
			Name:                   v.GetString("DB_NAME"),
			SSLMode:                v.GetString("DB_SSLMODE"),
			InstanceConnectionName: v.GetString("INSTANCE_CONNECTION_NAME"),
			SQLitePath:             v.GetString("SQLITE_PATH"),
		},
		Mongo: MongoConfig{
			URI:      v.GetString("MONGO_URI"),
			Database: v.GetString("MONGO_DATABASE"),
		},
		Twilio: TwilioConfig{
			AccountSID:   v.GetString("TWILIO_ACCOUNT_SID"),
			AuthToken:    v.GetString("TWILIO_AUTH_TOKEN"),
			WhatsAppFrom: v.GetString("TWILIO_WHATSAPP_FROM"),
		},
		AI: AIConfig{
			APIKey:    v.GetString("AI_API_KEY"),
			BaseURL:   v.GetString("AI_BASE_URL"),
			Model:     v.GetString("AI_MODEL"),
			MaxTokens: v.GetInt("AI_MAX_TOKENS"),
		},
		Jobs: JobsConfig{
			ReviewReminders: v.GetBool("REVIEW_REMINDERS_ENABLED"),
			ReminderHour:    v.GetInt("REVIEW_REMINDER_HOUR"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
			Output: v.GetString("LOG_OUTPUT"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the service cannot run with
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreMongo, StorePostgres, StoreSQLite, StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}
	if c.App.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.App.RequestTimeout)
	}
	if c.App.BaseURL == "" {
		return errors.New("BASE_URL is required")
	}
	if c.Jobs.ReminderHour < 0 || c.Jobs.ReminderHour > 23 {
		return fmt.Errorf("REVIEW_REMINDER_HOUR must be 0-23, got %d", c.Jobs.ReminderHour)
	}
	if c.Store.Driver == StoreMongo && c.Mongo.URI == "" {
		return errors.New("MONGO_URI is required for the mongo store")
	}
	return nil
}
