package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/receiptflow-api/internal/domain/entity"
)

var (
	// ErrDuplicateOrder is returned by Create when a receipt already exists
	// for the order.
	ErrDuplicateOrder = errors.New("receipt already exists for order")
	// ErrReceiptNotFound is returned when the addressed receipt or line item
	// does not exist.
	ErrReceiptNotFound = errors.New("receipt not found")
)

// ReceiptRepository is the durable record of finalized receipts.
//
// Create must enforce one receipt per order atomically: of two concurrent
// creates for the same order exactly one succeeds and the other returns
// ErrDuplicateOrder.
type ReceiptRepository interface {
	ExistsByOrderID(ctx context.Context, orderID string) (bool, error)
	// Create persists the receipt and its items together. Items are stored
	// in slice order. The returned receipt carries assigned IDs and timestamps.
	Create(ctx context.Context, receipt *entity.Receipt, items []entity.LineItem) (*entity.Receipt, error)
	AttachDocumentURL(ctx context.Context, id uuid.UUID, url string) (*entity.Receipt, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Receipt, error)
	GetByOrderID(ctx context.Context, orderID string) (*entity.Receipt, error)
	// ListAll returns every receipt with items, oldest first.
	ListAll(ctx context.Context) ([]entity.Receipt, error)
	// Delete removes a receipt and its line items together.
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteLineItem removes one line item and never its parent receipt.
	DeleteLineItem(ctx context.Context, itemID uuid.UUID) error
}
