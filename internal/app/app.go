// Package app assembles the receipt pipeline from configuration. It is shared
// by the API server and the admin CLI.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/sangkips/receiptflow-api/internal/application/service"
	"github.com/sangkips/receiptflow-api/internal/config"
	"github.com/sangkips/receiptflow-api/internal/domain/repository"
	"github.com/sangkips/receiptflow-api/internal/infrastructure/boltstore"
	"github.com/sangkips/receiptflow-api/internal/infrastructure/database"
	"github.com/sangkips/receiptflow-api/internal/infrastructure/document"
	gormrepo "github.com/sangkips/receiptflow-api/internal/infrastructure/repository"
	"github.com/sangkips/receiptflow-api/internal/infrastructure/storage"
	"github.com/sangkips/receiptflow-api/pkg/email"
	"github.com/sangkips/receiptflow-api/pkg/worker"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Container holds the wired application.
type Container struct {
	Config     *config.Config
	Log        *zap.Logger
	Repo       repository.ReceiptRepository
	Receipts   *service.ReceiptService
	Dispatcher *worker.Dispatcher
	// DocumentsRoot is the local storage directory, empty for remote storage.
	DocumentsRoot string

	closers []func() error
}

// New opens the store, storage and renderer selected by cfg and builds the
// receipt service on top of them.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Container, error) {
	c := &Container{Config: cfg, Log: log}

	repo, closeRepo, err := openStore(cfg, log)
	if err != nil {
		return nil, err
	}
	c.Repo = repo
	c.closers = append(c.closers, closeRepo)

	uploader, err := storage.NewUploader(ctx, cfg.Storage, cfg.App.PublicBaseURL)
	if err != nil {
		_ = c.close()
		return nil, err
	}
	switch u := uploader.(type) {
	case *storage.LocalUploader:
		c.DocumentsRoot = u.Root()
	case *storage.GCSUploader:
		c.closers = append(c.closers, u.Close)
	}

	renderer, err := document.NewRenderer(cfg.Receipt.Renderer, log)
	if err != nil {
		_ = c.close()
		return nil, err
	}

	c.Dispatcher = worker.NewDispatcher(cfg.Notification.Workers, cfg.Notification.QueueSize, cfg.Notification.Timeout, log.Named("worker"))

	svcLog := log.Named("receipts")
	c.Receipts = service.NewReceiptService(service.ReceiptDeps{
		Repo:     repo,
		Renderer: renderer,
		Uploader: uploader,
		Notifier: service.NewNotifier(Channels(cfg, log), service.WithLogger(log.Named("notifier"))),
		Runner:   c.Dispatcher,
	}, service.ReceiptSettings{
		TaxRate:       cfg.Receipt.TaxRate,
		BusinessStore: cfg.Receipt.BusinessStore,
		RenderTimeout: cfg.Receipt.RenderTimeout,
		UploadTimeout: cfg.Receipt.UploadTimeout,
	}, service.WithLogger(svcLog))

	log.Info("receipt pipeline ready",
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("storage_driver", cfg.Storage.Driver),
		zap.String("renderer", cfg.Receipt.Renderer),
	)
	return c, nil
}

// Channels returns the primary and backup notification channels. A channel
// without SMTP settings logs the message instead of sending it.
func Channels(cfg *config.Config, log *zap.Logger) []email.Channel {
	var primary, backup email.Channel
	if cfg.Email.Configured() {
		primary = email.NewSMTPChannel("primary", email.EmailConfig(cfg.Email))
	} else {
		log.Warn("primary SMTP channel not configured, logging notifications instead")
		primary = email.NewLogChannel("primary", log.Named("mail"))
	}
	if cfg.BackupEmail.Configured() {
		backup = email.NewMailerChannel("backup", email.EmailConfig(cfg.BackupEmail))
	} else {
		log.Warn("backup SMTP channel not configured, logging notifications instead")
		backup = email.NewLogChannel("backup", log.Named("mail"))
	}
	return []email.Channel{primary, backup}
}

func openStore(cfg *config.Config, log *zap.Logger) (repository.ReceiptRepository, func() error, error) {
	switch cfg.Database.Driver {
	case config.DBDriverBolt:
		store, err := boltstore.New(cfg.Database.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open bolt store: %w", err)
		}
		log.Info("opened bolt store", zap.String("path", cfg.Database.Path))
		return store, store.Close, nil
	case config.DBDriverSQLite, config.DBDriverPostgres:
		db, err := openGorm(cfg, log)
		if err != nil {
			return nil, nil, err
		}
		if err := database.AutoMigrate(db, log); err != nil {
			_ = database.Close(db)
			return nil, nil, err
		}
		return gormrepo.NewReceiptRepository(db), func() error { return database.Close(db) }, nil
	}
	return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
}

func openGorm(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	if cfg.Database.Driver == config.DBDriverSQLite {
		return database.NewSQLiteDB(cfg.Database.Path, cfg.App.Debug, log)
	}
	return database.NewPostgresDB(&cfg.Database, cfg.App.Debug, log)
}

// Close drains background notifications, then releases storage handles.
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	if c.Dispatcher != nil {
		if err := c.Dispatcher.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("notifications not drained: %w", err))
		}
	}
	if err := c.close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *Container) close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
