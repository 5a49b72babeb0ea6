package request

import (
	"github.com/sangkips/receiptflow-api/internal/application/service"
	"github.com/sangkips/receiptflow-api/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// FinalizeReceiptRequest is the payment-success webhook body
type FinalizeReceiptRequest struct {
	OrderID       string               `json:"order_id"`
	CustomerName  string               `json:"customer_name"`
	CustomerEmail string               `json:"customer_email"`
	PaymentMethod enum.PaymentMethod   `json:"payment_method"`
	BusinessStore string               `json:"business_store"`
	Items         []ReceiptItemRequest `json:"items"`
}

// ReceiptItemRequest is one purchased product. unit_price accepts a JSON
// number or a decimal string.
type ReceiptItemRequest struct {
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// ToInput converts the request into the pipeline input. Validation happens
// in the service so every entry point shares the same rules.
func (r *FinalizeReceiptRequest) ToInput() service.FinalizeInput {
	items := make([]service.LineItemInput, len(r.Items))
	for i, item := range r.Items {
		items[i] = service.LineItemInput{
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		}
	}
	if r.Items == nil {
		items = nil
	}
	return service.FinalizeInput{
		OrderID:       r.OrderID,
		CustomerName:  r.CustomerName,
		CustomerEmail: r.CustomerEmail,
		PaymentMethod: r.PaymentMethod,
		BusinessStore: r.BusinessStore,
		Items:         items,
	}
}
