// Package document renders persisted receipts into PDF documents.
package document

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sangkips/receiptflow-api/internal/config"
	"github.com/sangkips/receiptflow-api/internal/domain/entity"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Renderer turns a receipt into document bytes. Rendering the same receipt
// twice must produce the same bytes.
type Renderer interface {
	Render(ctx context.Context, receipt *entity.Receipt) ([]byte, error)
}

// NewRenderer builds the renderer selected by name.
func NewRenderer(name string, log *zap.Logger) (Renderer, error) {
	switch strings.ToLower(name) {
	case config.RendererPDF, "":
		return NewPDFRenderer(), nil
	case config.RendererChrome:
		return NewChromeRenderer(log), nil
	}
	return nil, fmt.Errorf("document: unknown renderer %q", name)
}

type lineView struct {
	ProductName string
	Quantity    int
	UnitPrice   string
	LineTotal   string
}

// receiptView is the display form shared by every renderer.
type receiptView struct {
	BusinessStore string
	ReceiptNumber string
	OrderID       string
	IssuedAt      string
	CustomerName  string
	CustomerEmail string
	PaymentMethod string
	Lines         []lineView
	SubTotal      string
	Tax           string
	Total         string
}

func newReceiptView(r *entity.Receipt) receiptView {
	v := receiptView{
		BusinessStore: r.BusinessStore,
		ReceiptNumber: r.ReceiptNumber,
		OrderID:       r.OrderID,
		IssuedAt:      r.CreatedAt.UTC().Format("02 Jan 2006 15:04 UTC"),
		CustomerName:  r.CustomerName,
		CustomerEmail: r.CustomerEmail,
		PaymentMethod: r.PaymentMethod.Label(),
		Lines:         make([]lineView, 0, len(r.Items)),
		SubTotal:      formatAmount(r.SubTotal),
		Tax:           formatAmount(r.Tax),
		Total:         formatAmount(r.Total),
	}
	if v.BusinessStore == "" {
		v.BusinessStore = "ReceiptFlow"
	}
	if r.CreatedAt.IsZero() {
		v.IssuedAt = time.Unix(0, 0).UTC().Format("02 Jan 2006 15:04 UTC")
	}
	for _, item := range r.Items {
		v.Lines = append(v.Lines, lineView{
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   formatAmount(item.UnitPrice),
			LineTotal:   formatAmount(item.LineTotal()),
		})
	}
	return v
}

// formatAmount renders d with two decimals and comma thousands separators.
func formatAmount(d decimal.Decimal) string {
	fixed := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return sign + b.String() + "." + frac
}
