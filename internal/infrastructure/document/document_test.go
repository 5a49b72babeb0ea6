package document

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/receiptflow-api/internal/domain/entity"
	"github.com/sangkips/receiptflow-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleReceipt() *entity.Receipt {
	return &entity.Receipt{
		ID:            uuid.MustParse("7b0f4c9e-5a55-4a63-9f7e-2f4b2d1f6f11"),
		OrderID:       "ORD-1001",
		ReceiptNumber: "0d4c1f8a-2f4b-4c8e-9a61-5b2de1b0c777",
		CustomerName:  "Zoë Müller",
		CustomerEmail: "zoe@example.com",
		BusinessStore: "Corner Shop",
		PaymentMethod: enum.PaymentMethodCryptoCurrency,
		SubTotal:      decimal.RequireFromString("53000.00"),
		Tax:           decimal.RequireFromString("5300.00"),
		Total:         decimal.RequireFromString("58300.00"),
		CreatedAt:     time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		Items: []entity.LineItem{
			{ProductName: "Laptop", Quantity: 1, UnitPrice: decimal.NewFromInt(50000)},
			{ProductName: "Mouse", Quantity: 2, UnitPrice: decimal.NewFromInt(1500)},
		},
	}
}

func TestFormatAmount(t *testing.T) {
	cases := map[string]string{
		"0":         "0.00",
		"5":         "5.00",
		"999.999":   "1,000.00",
		"53000":     "53,000.00",
		"1234567.8": "1,234,567.80",
		"-1234.5":   "-1,234.50",
		"0.005":     "0.01",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatAmount(decimal.RequireFromString(in)), in)
	}
}

func TestReceiptView(t *testing.T) {
	v := newReceiptView(sampleReceipt())

	assert.Equal(t, "Crypto Currency", v.PaymentMethod)
	assert.Equal(t, "14 Mar 2026 09:26 UTC", v.IssuedAt)
	require.Len(t, v.Lines, 2)
	assert.Equal(t, "3,000.00", v.Lines[1].LineTotal)
	assert.Equal(t, "58,300.00", v.Total)
}

func TestPDFRendererIsDeterministic(t *testing.T) {
	r := NewPDFRenderer()
	ctx := context.Background()

	first, err := r.Render(ctx, sampleReceipt())
	require.NoError(t, err)
	second, err := r.Render(ctx, sampleReceipt())
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(first, []byte("%PDF-")))
	assert.Equal(t, first, second)
}

func TestPDFRendererHandlesEmptyItems(t *testing.T) {
	receipt := sampleReceipt()
	receipt.Items = nil

	data, err := NewPDFRenderer().Render(context.Background(), receipt)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestPDFRendererHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPDFRenderer().Render(ctx, sampleReceipt())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRenderHTMLEscapes(t *testing.T) {
	receipt := sampleReceipt()
	receipt.Items[0].ProductName = "<b>Laptop</b>"

	page, err := RenderHTML(receipt)
	require.NoError(t, err)
	assert.Contains(t, page, "&lt;b&gt;Laptop&lt;/b&gt;")
	assert.Contains(t, page, "58,300.00")
	assert.Contains(t, page, "Receipt 0d4c1f8a-2f4b-4c8e-9a61-5b2de1b0c777")
}

func TestNewRenderer(t *testing.T) {
	r, err := NewRenderer("pdf", zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &PDFRenderer{}, r)

	r, err = NewRenderer("chrome", zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &ChromeRenderer{}, r)

	_, err = NewRenderer("latex", zap.NewNop())
	assert.Error(t, err)
}
