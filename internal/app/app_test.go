package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sangkips/receiptflow-api/internal/application/service"
	"github.com/sangkips/receiptflow-api/internal/config"
	"github.com/sangkips/receiptflow-api/internal/domain/enum"
	"github.com/sangkips/receiptflow-api/pkg/email"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(t *testing.T, dbDriver string) *config.Config {
	dir := t.TempDir()
	cfg := &config.Config{
		App:          config.AppConfig{Name: "receiptflow-api", PublicBaseURL: "http://localhost:8080"},
		Database:     config.DatabaseConfig{Driver: dbDriver, Path: filepath.Join(dir, "receipts.db")},
		Storage:      config.StorageConfig{Driver: config.StorageDriverLocal, Path: filepath.Join(dir, "documents"), Folder: "receipts"},
		Notification: config.NotificationConfig{Workers: 1, QueueSize: 4, Timeout: time.Second},
	}
	cfg.Receipt = config.ReceiptConfig{
		TaxRate:       decimal.RequireFromString("0.10"),
		BusinessStore: "ReceiptFlow",
		Renderer:      config.RendererPDF,
		RenderTimeout: 5 * time.Second,
		UploadTimeout: 5 * time.Second,
	}
	return cfg
}

func TestNewWiresPipeline(t *testing.T) {
	for _, driver := range []string{config.DBDriverBolt, config.DBDriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			cfg := testConfig(t, driver)
			c, err := New(context.Background(), cfg, zap.NewNop())
			require.NoError(t, err)

			assert.Equal(t, cfg.Storage.Path, c.DocumentsRoot)

			result, err := c.Receipts.FinalizePayment(context.Background(), service.FinalizeInput{
				OrderID:       "ORD-1",
				CustomerName:  "Ada",
				CustomerEmail: "ada@example.com",
				PaymentMethod: enum.PaymentMethodTransfer,
				Items:         []service.LineItemInput{{ProductName: "Book", Quantity: 1, UnitPrice: decimal.NewFromInt(20)}},
			})
			require.NoError(t, err)
			assert.True(t, result.DocumentLinked)
			assert.Contains(t, result.DocumentURL, "http://localhost:8080/documents/receipts/ord-1_")

			require.NoError(t, c.Close(context.Background()))
		})
	}
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New(context.Background(), testConfig(t, "mysql"), zap.NewNop())
	assert.Error(t, err)
}

func TestChannelsFallBackToLogging(t *testing.T) {
	cfg := testConfig(t, config.DBDriverBolt)
	channels := Channels(cfg, zap.NewNop())
	require.Len(t, channels, 2)
	assert.IsType(t, &email.LogChannel{}, channels[0])
	assert.IsType(t, &email.LogChannel{}, channels[1])

	cfg.Email = config.EmailConfig{SMTPHost: "smtp.gmail.com", SMTPPort: 587, FromEmail: "noreply@example.com"}
	cfg.BackupEmail = config.EmailConfig{SMTPHost: "smtp.mailgun.org", SMTPPort: 587, FromEmail: "noreply@example.com"}
	channels = Channels(cfg, zap.NewNop())
	assert.IsType(t, &email.SMTPChannel{}, channels[0])
	assert.IsType(t, &email.MailerChannel{}, channels[1])
	assert.Equal(t, "primary", channels[0].Name())
	assert.Equal(t, "backup", channels[1].Name())
}
