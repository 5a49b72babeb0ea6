package enum

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePaymentMethod(t *testing.T) {
	m, err := ParsePaymentMethod("crypto-currency")
	require.NoError(t, err)
	assert.Equal(t, PaymentMethodCryptoCurrency, m)

	_, err = ParsePaymentMethod("Cash")
	assert.Error(t, err)
}

func TestPaymentMethodUnmarshalKeepsUnknownForValidation(t *testing.T) {
	var body struct {
		Method PaymentMethod `json:"payment_method"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"payment_method":"transfer"}`), &body))
	assert.Equal(t, PaymentMethodTransfer, body.Method)
	assert.True(t, body.Method.IsValid())

	require.NoError(t, json.Unmarshal([]byte(`{"payment_method":"Cheque"}`), &body))
	assert.Equal(t, PaymentMethod("Cheque"), body.Method)
	assert.False(t, body.Method.IsValid())
}

func TestPaymentMethodScan(t *testing.T) {
	var m PaymentMethod
	require.NoError(t, m.Scan([]byte("Card")))
	assert.Equal(t, PaymentMethodCard, m)
	assert.Error(t, m.Scan(42))
}
