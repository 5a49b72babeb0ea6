package response

import (
	"github.com/google/uuid"
	"github.com/sangkips/receiptflow-api/internal/application/service"
)

// FinalizeReceiptResponse is returned once a payment has been turned into a
// stored receipt with a published document.
type FinalizeReceiptResponse struct {
	ID             uuid.UUID `json:"id"`
	OrderID        string    `json:"order_id"`
	ReceiptNumber  string    `json:"receipt_number"`
	PdfURL         string    `json:"pdf_url"`
	DocumentLinked bool      `json:"document_linked"`
}

func NewFinalizeReceiptResponse(result *service.FinalizeResult) FinalizeReceiptResponse {
	return FinalizeReceiptResponse{
		ID:             result.Receipt.ID,
		OrderID:        result.Receipt.OrderID,
		ReceiptNumber:  result.Receipt.ReceiptNumber,
		PdfURL:         result.DocumentURL,
		DocumentLinked: result.DocumentLinked,
	}
}
