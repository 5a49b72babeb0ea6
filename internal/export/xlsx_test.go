package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/sangkips/receiptflow-api/internal/domain/entity"
	"github.com/sangkips/receiptflow-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteXLSX(t *testing.T) {
	url := "https://cdn.example.com/receipts/ord-1.pdf"
	receipts := []entity.Receipt{
		{
			OrderID:       "ORD-1",
			ReceiptNumber: "r-1",
			CustomerName:  "Ada",
			CustomerEmail: "ada@example.com",
			BusinessStore: "ReceiptFlow",
			PaymentMethod: enum.PaymentMethodTransfer,
			SubTotal:      decimal.RequireFromString("53000.00"),
			Tax:           decimal.RequireFromString("5300.00"),
			Total:         decimal.RequireFromString("58300.00"),
			PdfURL:        &url,
			CreatedAt:     time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
			Items: []entity.LineItem{
				{ProductName: "Laptop", Quantity: 1, UnitPrice: decimal.NewFromInt(50000)},
				{ProductName: "Mouse", Quantity: 2, UnitPrice: decimal.NewFromInt(1500)},
			},
		},
		{OrderID: "ORD-2", ReceiptNumber: "r-2", PaymentMethod: enum.PaymentMethodCard},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, receipts))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(ReceiptsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Receipt Number", rows[0][0])
	assert.Equal(t, "ORD-1", rows[1][1])
	assert.Equal(t, "2024-05-01T09:30:00Z", rows[1][2])
	assert.Equal(t, "Bank Transfer", rows[1][6])
	assert.Equal(t, url, rows[1][10])
	assert.Equal(t, "ORD-2", rows[2][1])

	total, err := f.GetCellValue(ReceiptsSheet, "J2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "58300", total)

	items, err := f.GetRows(ItemsSheet)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"r-1", "ORD-1", "Mouse", "2"}, items[2][:4])

	lineTotal, err := f.GetCellValue(ItemsSheet, "F3", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "3000", lineTotal)
}
