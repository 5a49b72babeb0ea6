package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Supported driver names.
const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
	DBDriverBolt     = "bolt"

	StorageDriverLocal = "local"
	StorageDriverGCS   = "gcs"

	RendererPDF    = "pdf"
	RendererChrome = "chrome"
)

type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	Receipt      ReceiptConfig
	Storage      StorageConfig
	Email        EmailConfig
	BackupEmail  EmailConfig
	Notification NotificationConfig
	CORS         CORSConfig
	RateLimit    RateLimitConfig
}

type AppConfig struct {
	Name            string
	Env             string
	Port            string
	Debug           bool
	LogLevel        string
	PublicBaseURL   string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         string
	Name         string
	User         string
	Password     string
	SSLMode      string
	Timezone     string
	Path         string
	MaxIdleConns int
	MaxOpenConns int
}

type ReceiptConfig struct {
	TaxRate       decimal.Decimal
	BusinessStore string
	Renderer      string
	RenderTimeout time.Duration
	UploadTimeout time.Duration
}

type StorageConfig struct {
	Driver          string
	Path            string
	GCSBucket       string
	Folder          string
	CredentialsFile string
}

// EmailConfig describes one SMTP delivery channel.
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromName     string
	FromEmail    string
}

// Configured reports whether enough settings are present to attempt delivery.
func (c EmailConfig) Configured() bool {
	return c.SMTPHost != "" && c.SMTPPort > 0 && c.FromEmail != ""
}

type NotificationConfig struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	Requests int
	Duration int
}

func Load() *Config {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables: %v", err)
	}

	setDefaults()

	taxRate, err := decimal.NewFromString(viper.GetString("RECEIPT_TAX_RATE"))
	if err != nil {
		log.Printf("Warning: invalid RECEIPT_TAX_RATE %q, using 0.10: %v", viper.GetString("RECEIPT_TAX_RATE"), err)
		taxRate = decimal.RequireFromString("0.10")
	}

	return &Config{
		App: AppConfig{
			Name:            viper.GetString("APP_NAME"),
			Env:             viper.GetString("APP_ENV"),
			Port:            viper.GetString("APP_PORT"),
			Debug:           viper.GetBool("APP_DEBUG"),
			LogLevel:        viper.GetString("LOG_LEVEL"),
			PublicBaseURL:   strings.TrimRight(viper.GetString("PUBLIC_BASE_URL"), "/"),
			ShutdownTimeout: viper.GetDuration("SHUTDOWN_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Driver:       strings.ToLower(viper.GetString("DB_DRIVER")),
			Host:         viper.GetString("DB_HOST"),
			Port:         viper.GetString("DB_PORT"),
			Name:         viper.GetString("DB_NAME"),
			User:         viper.GetString("DB_USER"),
			Password:     viper.GetString("DB_PASSWORD"),
			SSLMode:      viper.GetString("DB_SSL_MODE"),
			Timezone:     viper.GetString("DB_TIMEZONE"),
			Path:         viper.GetString("DB_PATH"),
			MaxIdleConns: viper.GetInt("DB_MAX_IDLE_CONNS"),
			MaxOpenConns: viper.GetInt("DB_MAX_OPEN_CONNS"),
		},
		Receipt: ReceiptConfig{
			TaxRate:       taxRate,
			BusinessStore: viper.GetString("RECEIPT_BUSINESS_STORE"),
			Renderer:      strings.ToLower(viper.GetString("RENDERER_DRIVER")),
			RenderTimeout: viper.GetDuration("RENDER_TIMEOUT"),
			UploadTimeout: viper.GetDuration("UPLOAD_TIMEOUT"),
		},
		Storage: StorageConfig{
			Driver:          strings.ToLower(viper.GetString("STORAGE_DRIVER")),
			Path:            viper.GetString("STORAGE_PATH"),
			GCSBucket:       viper.GetString("GCS_BUCKET"),
			Folder:          viper.GetString("STORAGE_FOLDER"),
			CredentialsFile: viper.GetString("GCS_CREDENTIALS_FILE"),
		},
		Email: EmailConfig{
			SMTPHost:     viper.GetString("SMTP_HOST"),
			SMTPPort:     viper.GetInt("SMTP_PORT"),
			SMTPUsername: viper.GetString("SMTP_EMAIL"),
			// App passwords are often pasted with the spaces Gmail displays them with.
			SMTPPassword: strings.ReplaceAll(viper.GetString("SMTP_APP_PASSWORD"), " ", ""),
			FromName:     viper.GetString("FROM_NAME"),
			FromEmail:    viper.GetString("FROM_EMAIL"),
		},
		BackupEmail: EmailConfig{
			SMTPHost:     viper.GetString("BACKUP_SMTP_HOST"),
			SMTPPort:     viper.GetInt("BACKUP_SMTP_PORT"),
			SMTPUsername: viper.GetString("BACKUP_SMTP_USERNAME"),
			SMTPPassword: viper.GetString("BACKUP_SMTP_PASSWORD"),
			FromName:     viper.GetString("FROM_NAME"),
			FromEmail:    viper.GetString("BACKUP_FROM_EMAIL"),
		},
		Notification: NotificationConfig{
			Workers:   viper.GetInt("NOTIFY_WORKERS"),
			QueueSize: viper.GetInt("NOTIFY_QUEUE_SIZE"),
			Timeout:   viper.GetDuration("NOTIFY_TIMEOUT"),
		},
		CORS: CORSConfig{
			AllowedOrigins: viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods: viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders: viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: viper.GetInt("RATE_LIMIT_DURATION"),
		},
	}
}

func setDefaults() {
	viper.SetDefault("APP_NAME", "receiptflow-api")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_DEBUG", true)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
	viper.SetDefault("SHUTDOWN_TIMEOUT", "15s")
	viper.SetDefault("DB_DRIVER", DBDriverPostgres)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_NAME", "receiptflow")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_TIMEZONE", "UTC")
	viper.SetDefault("DB_PATH", "./data/receiptflow.db")
	viper.SetDefault("DB_MAX_IDLE_CONNS", 10)
	viper.SetDefault("DB_MAX_OPEN_CONNS", 100)
	viper.SetDefault("RECEIPT_TAX_RATE", "0.10")
	viper.SetDefault("RECEIPT_BUSINESS_STORE", "ReceiptFlow")
	viper.SetDefault("RENDERER_DRIVER", RendererPDF)
	viper.SetDefault("RENDER_TIMEOUT", "30s")
	viper.SetDefault("UPLOAD_TIMEOUT", "30s")
	viper.SetDefault("STORAGE_DRIVER", StorageDriverLocal)
	viper.SetDefault("STORAGE_PATH", "./storage")
	viper.SetDefault("STORAGE_FOLDER", "receipts")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("BACKUP_SMTP_PORT", 587)
	viper.SetDefault("FROM_NAME", "ReceiptFlow")
	viper.SetDefault("NOTIFY_WORKERS", 4)
	viper.SetDefault("NOTIFY_QUEUE_SIZE", 256)
	viper.SetDefault("NOTIFY_TIMEOUT", "30s")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("CORS_ALLOWED_HEADERS", []string{})
	viper.SetDefault("RATE_LIMIT_REQUESTS", 100)
	viper.SetDefault("RATE_LIMIT_DURATION", 60)
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	if c.Receipt.TaxRate.IsNegative() || c.Receipt.TaxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("config: RECEIPT_TAX_RATE must be in [0, 1), got %s", c.Receipt.TaxRate)
	}
	switch c.Database.Driver {
	case DBDriverPostgres, DBDriverSQLite, DBDriverBolt:
	default:
		return fmt.Errorf("config: unknown DB_DRIVER %q", c.Database.Driver)
	}
	switch c.Storage.Driver {
	case StorageDriverLocal:
		if c.Storage.Path == "" {
			return fmt.Errorf("config: STORAGE_PATH is required for the local storage driver")
		}
	case StorageDriverGCS:
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("config: GCS_BUCKET is required for the gcs storage driver")
		}
	default:
		return fmt.Errorf("config: unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	switch c.Receipt.Renderer {
	case RendererPDF, RendererChrome:
	default:
		return fmt.Errorf("config: unknown RENDERER_DRIVER %q", c.Receipt.Renderer)
	}
	if c.Receipt.RenderTimeout <= 0 || c.Receipt.UploadTimeout <= 0 {
		return fmt.Errorf("config: RENDER_TIMEOUT and UPLOAD_TIMEOUT must be positive")
	}
	if c.Notification.Workers < 1 {
		return fmt.Errorf("config: NOTIFY_WORKERS must be at least 1")
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.Timezone
}
