// Package storage uploads rendered receipt documents to durable storage and
// returns their public URLs.
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/sangkips/receiptflow-api/internal/config"
	"github.com/sangkips/receiptflow-api/pkg/utils"
)

// DocumentContentType is the MIME type of every stored document.
const DocumentContentType = "application/pdf"

// Uploader stores data under objectID, replacing any existing object with the
// same id, and returns the URL the object can be fetched from.
type Uploader interface {
	Upload(ctx context.Context, objectID string, data []byte) (string, error)
}

// ObjectID derives the storage identifier for a receipt document. The same
// order and receipt number always yield the same id, so a repeated upload
// overwrites instead of duplicating.
func ObjectID(orderID, receiptNumber string) string {
	slug := utils.Slugify(orderID)
	if slug == "" {
		slug = "order"
	}
	return slug + "_" + receiptNumber + ".pdf"
}

// NewUploader builds the uploader selected by cfg.Driver.
func NewUploader(ctx context.Context, cfg config.StorageConfig, publicBaseURL string) (Uploader, error) {
	switch strings.ToLower(cfg.Driver) {
	case config.StorageDriverLocal:
		return NewLocalUploader(cfg.Path, cfg.Folder, publicBaseURL)
	case config.StorageDriverGCS:
		return NewGCSUploader(ctx, cfg)
	}
	return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
}
