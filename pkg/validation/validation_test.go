package validation

import (
	"testing"

	"github.com/sangkips/receiptflow-api/pkg/apperror"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type line struct {
	Name  string          `json:"name" validate:"required"`
	Price decimal.Decimal `json:"price" validate:"gte=0"`
}

type order struct {
	Email  string `json:"email" validate:"required,email"`
	Method string `json:"method" validate:"oneof=Card Transfer"`
	Lines  []line `json:"lines" validate:"required,min=1,dive"`
}

func TestStructValid(t *testing.T) {
	err := Struct(order{
		Email:  "a@example.com",
		Method: "Card",
		Lines:  []line{{Name: "x", Price: decimal.RequireFromString("0")}},
	})
	assert.NoError(t, err)
}

func TestStructCollectsFieldErrors(t *testing.T) {
	err := Struct(order{
		Email:  "not-an-email",
		Method: "Cash",
		Lines:  []line{{Name: "", Price: decimal.RequireFromString("-0.01")}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	got := map[string]string{}
	for _, fe := range apperror.GetAppError(err).Errors {
		got[fe.Field] = fe.Message
	}
	assert.Equal(t, map[string]string{
		"email":          "must be a valid email address",
		"method":         "must be one of: Card, Transfer",
		"lines[0].name":  "is required",
		"lines[0].price": "must not be negative",
	}, got)
}

func TestStructEmptySlice(t *testing.T) {
	err := Struct(order{Email: "a@example.com", Method: "Card", Lines: []line{}})
	require.Error(t, err)

	fields := apperror.GetAppError(err).Errors
	require.Len(t, fields, 1)
	assert.Equal(t, "lines", fields[0].Field)
}

type price struct {
	Amount decimal.Decimal `json:"amount" validate:"gte=0,lt=1000,max_places=4"`
}

func TestStructDecimalPlaces(t *testing.T) {
	assert.NoError(t, Struct(price{Amount: decimal.RequireFromString("12.3456")}))
	assert.NoError(t, Struct(price{Amount: decimal.RequireFromString("12.34560")}))

	err := Struct(price{Amount: decimal.RequireFromString("0.00005")})
	require.Error(t, err)
	fields := apperror.GetAppError(err).Errors
	require.Len(t, fields, 1)
	assert.Equal(t, "amount", fields[0].Field)
	assert.Equal(t, "must have at most 4 decimal places", fields[0].Message)
}

func TestStructDecimalUpperBound(t *testing.T) {
	err := Struct(price{Amount: decimal.RequireFromString("1000")})
	require.Error(t, err)
	fields := apperror.GetAppError(err).Errors
	require.Len(t, fields, 1)
	assert.Equal(t, "must be less than 1000", fields[0].Message)
}
