package document

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/go-pdf/fpdf"
	"github.com/sangkips/receiptflow-api/internal/domain/entity"
)

// PDFRenderer draws receipts with fpdf. It needs no external process and its
// output depends only on the receipt.
type PDFRenderer struct{}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// column widths in mm; they add up to the 180mm printable width of A4 with
// 15mm margins
var columns = [4]float64{90, 20, 35, 35}

func (p *PDFRenderer) Render(ctx context.Context, receipt *entity.Receipt) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v := newReceiptView(receipt)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(receipt.CreatedAt.UTC())
	pdf.SetModificationDate(receipt.CreatedAt.UTC())
	pdf.SetCompression(true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetTitle("Receipt "+v.ReceiptNumber, true)
	pdf.SetAuthor(v.BusinessStore, true)
	pdf.SetCreator("ReceiptFlow", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 10, tr(v.BusinessStore), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(90, 90, 90)
	pdf.CellFormat(0, 6, "RECEIPT", "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetTextColor(0, 0, 0)
	meta := [][2]string{
		{"Receipt No.", v.ReceiptNumber},
		{"Order ID", v.OrderID},
		{"Date", v.IssuedAt},
		{"Billed To", v.CustomerName},
		{"Email", v.CustomerEmail},
		{"Payment", v.PaymentMethod},
	}
	for _, row := range meta {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(35, 6, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, tr(row[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(235, 238, 242)
	for i, heading := range []string{"Product", "Qty", "Unit Price", "Amount"} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(columns[i], 8, heading, "B", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, line := range v.Lines {
		pdf.CellFormat(columns[0], 7, tr(line.ProductName), "", 0, "L", false, 0, "")
		pdf.CellFormat(columns[1], 7, strconv.Itoa(line.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(columns[2], 7, line.UnitPrice, "", 0, "R", false, 0, "")
		pdf.CellFormat(columns[3], 7, line.LineTotal, "", 1, "R", false, 0, "")
	}
	pdf.Ln(2)

	labelWidth := columns[0] + columns[1] + columns[2]
	totals := [][2]string{{"Subtotal", v.SubTotal}, {"Tax", v.Tax}, {"Total", v.Total}}
	for i, row := range totals {
		border := ""
		if i == len(totals)-1 {
			pdf.SetFont("Helvetica", "B", 11)
			border = "T"
		}
		pdf.CellFormat(labelWidth, 7, row[0], border, 0, "R", false, 0, "")
		pdf.CellFormat(columns[3], 7, row[1], border, 1, "R", false, 0, "")
	}

	pdf.Ln(10)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 5, tr("Thank you for your purchase with "+v.BusinessStore+"."), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("document: failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
