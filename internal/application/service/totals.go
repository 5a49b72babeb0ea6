package service

import (
	"fmt"

	"github.com/sangkips/receiptflow-api/internal/domain/entity"
	"github.com/sangkips/receiptflow-api/pkg/apperror"
	"github.com/shopspring/decimal"
)

// moneyPlaces is the number of decimal places amounts are rounded to.
const moneyPlaces = 2

// maxStoredAmount bounds receipt amounts to what a decimal(14,2) column holds.
var maxStoredAmount = decimal.New(1, 12)

// Totals holds the computed amounts of a receipt, each rounded to 2 places.
type Totals struct {
	SubTotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// CalculateTotals sums quantity × unit price over items and applies taxRate.
//
// Tax is computed from the unrounded subtotal. Tax and total are then rounded
// independently, half away from zero:
//
//	tax   = round(subtotal × taxRate, 2)
//	total = round(subtotal + tax, 2)
//
// Negative quantities or prices are rejected before anything is computed.
func CalculateTotals(items []entity.LineItem, taxRate decimal.Decimal) (Totals, error) {
	var fieldErrors []apperror.FieldError
	for i, item := range items {
		if item.Quantity < 0 {
			fieldErrors = append(fieldErrors, apperror.FieldError{
				Field:   fmt.Sprintf("items[%d].quantity", i),
				Message: "must not be negative",
			})
		}
		if item.UnitPrice.IsNegative() {
			fieldErrors = append(fieldErrors, apperror.FieldError{
				Field:   fmt.Sprintf("items[%d].unit_price", i),
				Message: "must not be negative",
			})
		}
	}
	if len(fieldErrors) > 0 {
		return Totals{}, apperror.NewValidationError(fieldErrors)
	}

	subTotal := decimal.Zero
	for _, item := range items {
		subTotal = subTotal.Add(item.LineTotal())
	}
	tax := subTotal.Mul(taxRate).Round(moneyPlaces)

	return Totals{
		SubTotal: subTotal.Round(moneyPlaces),
		Tax:      tax,
		Total:    subTotal.Add(tax).Round(moneyPlaces),
	}, nil
}

// checkStorable rejects totals too large for the receipt amount columns.
// Total is the largest of the three for a non-negative tax rate.
func checkStorable(t Totals) error {
	if t.Total.LessThan(maxStoredAmount) && t.SubTotal.LessThan(maxStoredAmount) {
		return nil
	}
	return apperror.NewValidationError([]apperror.FieldError{{
		Field:   "items",
		Message: "order total must be less than " + maxStoredAmount.String(),
	}})
}
