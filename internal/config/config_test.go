package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg := Load()

	assert.Equal(t, "receiptflow-api", cfg.App.Name)
	assert.True(t, cfg.Receipt.TaxRate.Equal(decimal.RequireFromString("0.10")))
	assert.Equal(t, "ReceiptFlow", cfg.Receipt.BusinessStore)
	assert.Equal(t, 30*time.Second, cfg.Receipt.RenderTimeout)
	assert.Equal(t, StorageDriverLocal, cfg.Storage.Driver)
	assert.Equal(t, DBDriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 4, cfg.Notification.Workers)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnvironment(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("RECEIPT_TAX_RATE", "0.16")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("RENDER_TIMEOUT", "5s")
	t.Setenv("SMTP_APP_PASSWORD", "abcd efgh ijkl mnop")
	t.Setenv("PUBLIC_BASE_URL", "https://receipts.example.com/")

	cfg := Load()

	assert.True(t, cfg.Receipt.TaxRate.Equal(decimal.RequireFromString("0.16")))
	assert.Equal(t, DBDriverSQLite, cfg.Database.Driver)
	assert.Equal(t, 5*time.Second, cfg.Receipt.RenderTimeout)
	assert.Equal(t, "abcdefghijklmnop", cfg.Email.SMTPPassword)
	assert.Equal(t, "https://receipts.example.com", cfg.App.PublicBaseURL)
}

func TestValidateRejectsBadSettings(t *testing.T) {
	base := func() *Config {
		return &Config{
			Database:     DatabaseConfig{Driver: DBDriverPostgres},
			Receipt:      ReceiptConfig{TaxRate: decimal.RequireFromString("0.10"), Renderer: RendererPDF, RenderTimeout: time.Second, UploadTimeout: time.Second},
			Storage:      StorageConfig{Driver: StorageDriverLocal, Path: "./storage"},
			Notification: NotificationConfig{Workers: 1},
		}
	}
	require.NoError(t, base().Validate())

	cases := map[string]func(c *Config){
		"negative tax":       func(c *Config) { c.Receipt.TaxRate = decimal.RequireFromString("-0.01") },
		"tax of 100%":        func(c *Config) { c.Receipt.TaxRate = decimal.NewFromInt(1) },
		"unknown db":         func(c *Config) { c.Database.Driver = "mysql" },
		"gcs without bucket": func(c *Config) { c.Storage.Driver = StorageDriverGCS },
		"unknown renderer":   func(c *Config) { c.Receipt.Renderer = "latex" },
		"zero timeout":       func(c *Config) { c.Receipt.UploadTimeout = 0 },
		"no workers":         func(c *Config) { c.Notification.Workers = 0 },
	}
	for name, mutate := range cases {
		cfg := base()
		mutate(cfg)
		assert.Error(t, cfg.Validate(), name)
	}
}

func TestEmailConfigConfigured(t *testing.T) {
	assert.False(t, EmailConfig{}.Configured())
	assert.True(t, EmailConfig{SMTPHost: "smtp.gmail.com", SMTPPort: 587, FromEmail: "noreply@example.com"}.Configured())
}
