package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sangkips/receiptflow-api/internal/domain/entity"
	domainRepo "github.com/sangkips/receiptflow-api/internal/domain/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// pgUniqueViolation is the SQLSTATE PostgreSQL reports for unique index violations.
	pgUniqueViolation = "23505"
	// orderIDIndex is the unique index gorm creates for Receipt.OrderID.
	orderIDIndex = "idx_receipts_order_id"
	// sqliteOrderIDViolation is how SQLite names the same index in its error text.
	sqliteOrderIDViolation = "UNIQUE constraint failed: receipts.order_id"
)

type receiptRepository struct {
	db *gorm.DB
}

// NewReceiptRepository creates a new gorm backed receipt repository
func NewReceiptRepository(db *gorm.DB) domainRepo.ReceiptRepository {
	return &receiptRepository{db: db}
}

func (r *receiptRepository) ExistsByOrderID(ctx context.Context, orderID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Receipt{}).
		Where("order_id = ?", orderID).
		Count(&count).Error
	return count > 0, err
}

func (r *receiptRepository) Create(ctx context.Context, receipt *entity.Receipt, items []entity.LineItem) (*entity.Receipt, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		receipt.Items = nil
		if err := tx.Omit(clause.Associations).Create(receipt).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}

		rows := make([]entity.LineItem, len(items))
		for i, item := range items {
			item.ReceiptID = receipt.ID
			item.Position = i
			rows[i] = item
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		receipt.Items = rows
		return nil
	})
	if err != nil {
		if isDuplicateOrder(err) {
			return nil, domainRepo.ErrDuplicateOrder
		}
		return nil, err
	}
	return receipt, nil
}

func (r *receiptRepository) AttachDocumentURL(ctx context.Context, id uuid.UUID, url string) (*entity.Receipt, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.Receipt{}).
		Where("id = ?", id).
		Update("pdf_url", url)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, domainRepo.ErrReceiptNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *receiptRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Receipt, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *receiptRepository) GetByOrderID(ctx context.Context, orderID string) (*entity.Receipt, error) {
	return r.first(ctx, "order_id = ?", orderID)
}

func (r *receiptRepository) first(ctx context.Context, query string, arg interface{}) (*entity.Receipt, error) {
	var receipt entity.Receipt
	err := r.db.WithContext(ctx).
		Preload("Items", orderedItems).
		First(&receipt, query, arg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainRepo.ErrReceiptNotFound
	}
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (r *receiptRepository) ListAll(ctx context.Context) ([]entity.Receipt, error) {
	var receipts []entity.Receipt
	err := r.db.WithContext(ctx).
		Preload("Items", orderedItems).
		Order("created_at ASC").
		Order("receipt_number ASC").
		Find(&receipts).Error
	return receipts, err
}

func (r *receiptRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("receipt_id = ?", id).Delete(&entity.LineItem{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&entity.Receipt{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainRepo.ErrReceiptNotFound
		}
		return nil
	})
}

func (r *receiptRepository) DeleteLineItem(ctx context.Context, itemID uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&entity.LineItem{}, "id = ?", itemID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainRepo.ErrReceiptNotFound
	}
	return nil
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// isDuplicateOrder recognizes a violation of the order id unique index from
// either driver. Other unique violations are not duplicates of an order.
func isDuplicateOrder(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == orderIDIndex
	}
	return strings.Contains(err.Error(), sqliteOrderIDViolation)
}
