package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// PaymentMethod represents how a customer paid for an order
type PaymentMethod string

const (
	PaymentMethodCard           PaymentMethod = "Card"
	PaymentMethodTransfer       PaymentMethod = "Transfer"
	PaymentMethodCryptoCurrency PaymentMethod = "Crypto-Currency"
)

// PaymentMethods lists the closed set of accepted payment methods.
var PaymentMethods = []PaymentMethod{
	PaymentMethodCard,
	PaymentMethodTransfer,
	PaymentMethodCryptoCurrency,
}

func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether p belongs to the closed set.
func (p PaymentMethod) IsValid() bool {
	for _, m := range PaymentMethods {
		if p == m {
			return true
		}
	}
	return false
}

// Label is the human readable form printed on documents.
func (p PaymentMethod) Label() string {
	switch p {
	case PaymentMethodCard:
		return "Card"
	case PaymentMethodTransfer:
		return "Bank Transfer"
	case PaymentMethodCryptoCurrency:
		return "Crypto Currency"
	}
	return string(p)
}

// ParsePaymentMethod matches s case-insensitively against the closed set.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	for _, m := range PaymentMethods {
		if strings.EqualFold(strings.TrimSpace(s), string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown payment method %q", s)
}

func (p PaymentMethod) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(p))
}

// UnmarshalJSON keeps unknown values as-is so validation can report them.
func (p *PaymentMethod) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	if parsed, err := ParsePaymentMethod(str); err == nil {
		*p = parsed
		return nil
	}
	*p = PaymentMethod(str)
	return nil
}

func (p PaymentMethod) Value() (driver.Value, error) {
	return string(p), nil
}

func (p *PaymentMethod) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*p = ""
	case string:
		*p = PaymentMethod(v)
	case []byte:
		*p = PaymentMethod(v)
	default:
		return fmt.Errorf("cannot scan %T into PaymentMethod", value)
	}
	return nil
}
