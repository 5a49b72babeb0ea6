// Package export writes receipts to spreadsheets for bookkeeping.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/sangkips/receiptflow-api/internal/domain/entity"
	"github.com/xuri/excelize/v2"
)

const (
	ReceiptsSheet = "Receipts"
	ItemsSheet    = "Items"
)

var (
	receiptHeader = []interface{}{"Receipt Number", "Order ID", "Created At", "Customer", "Email", "Business", "Payment Method", "Subtotal", "Tax", "Total", "Document URL"}
	itemHeader    = []interface{}{"Receipt Number", "Order ID", "Product", "Quantity", "Unit Price", "Line Total"}
)

// WriteXLSX writes one row per receipt to the Receipts sheet and one row per
// line item to the Items sheet.
func WriteXLSX(w io.Writer, receipts []entity.Receipt) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ReceiptsSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(ItemsSheet); err != nil {
		return err
	}

	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return err
	}

	if err := f.SetSheetRow(ReceiptsSheet, "A1", &receiptHeader); err != nil {
		return err
	}
	if err := f.SetSheetRow(ItemsSheet, "A1", &itemHeader); err != nil {
		return err
	}

	itemRow := 2
	for i, r := range receipts {
		pdfURL := ""
		if r.PdfURL != nil {
			pdfURL = *r.PdfURL
		}
		row := []interface{}{
			r.ReceiptNumber,
			r.OrderID,
			r.CreatedAt.UTC().Format(time.RFC3339),
			r.CustomerName,
			r.CustomerEmail,
			r.BusinessStore,
			r.PaymentMethod.Label(),
			r.SubTotal.InexactFloat64(),
			r.Tax.InexactFloat64(),
			r.Total.InexactFloat64(),
			pdfURL,
		}
		if err := f.SetSheetRow(ReceiptsSheet, cell(1, i+2), &row); err != nil {
			return err
		}

		for _, item := range r.Items {
			line := []interface{}{
				r.ReceiptNumber,
				r.OrderID,
				item.ProductName,
				item.Quantity,
				item.UnitPrice.InexactFloat64(),
				item.LineTotal().InexactFloat64(),
			}
			if err := f.SetSheetRow(ItemsSheet, cell(1, itemRow), &line); err != nil {
				return err
			}
			itemRow++
		}
	}

	if err := f.SetColStyle(ReceiptsSheet, "H:J", money); err != nil {
		return err
	}
	if err := f.SetColStyle(ItemsSheet, "E:F", money); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: failed to write workbook: %w", err)
	}
	return nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
