package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/receiptflow-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Receipt is the persisted, finalized record of a paid order.
// At most one receipt exists per OrderID.
type Receipt struct {
	ID            uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	OrderID       string             `gorm:"size:255;uniqueIndex;not null" json:"order_id"`
	ReceiptNumber string             `gorm:"size:64;uniqueIndex;not null" json:"receipt_number"`
	CustomerName  string             `gorm:"size:255;not null" json:"customer_name"`
	CustomerEmail string             `gorm:"size:255;not null" json:"customer_email"`
	BusinessStore string             `gorm:"size:255" json:"business_store"`
	PaymentMethod enum.PaymentMethod `gorm:"size:32;not null" json:"payment_method"`
	SubTotal      decimal.Decimal    `gorm:"type:decimal(14,2);not null" json:"subtotal"`
	Tax           decimal.Decimal    `gorm:"type:decimal(14,2);not null" json:"tax"`
	Total         decimal.Decimal    `gorm:"type:decimal(14,2);not null" json:"total"`
	PdfURL        *string            `gorm:"size:1024" json:"pdf_url"`
	CreatedAt     time.Time          `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`

	// Relationships
	Items []LineItem `gorm:"foreignKey:ReceiptID" json:"items"`
}

// HasDocument reports whether a document URL has been linked.
func (r *Receipt) HasDocument() bool {
	return r.PdfURL != nil && *r.PdfURL != ""
}

// BeforeCreate generates a UUID before creating a new receipt
func (r *Receipt) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// TableName specifies the table name for Receipt
func (Receipt) TableName() string {
	return "receipts"
}

// LineItem is one purchased product on a receipt. Position keeps the
// submission order of the payment event.
type LineItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	ReceiptID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"receipt_id"`
	Position    int             `gorm:"not null;default:0" json:"-"`
	ProductName string          `gorm:"size:255;not null" json:"product_name"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
}

// LineTotal is quantity times unit price, unrounded.
func (i LineItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// BeforeCreate generates a UUID before creating a new line item
func (i *LineItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TableName specifies the table name for LineItem
func (LineItem) TableName() string {
	return "line_items"
}
