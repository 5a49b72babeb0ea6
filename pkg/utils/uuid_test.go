package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"ORD-1001":        "ord-1001",
		"  Order 42  ":    "order-42",
		"shop_#99/abc":    "shop-99abc",
		"---weird---id--": "weird-id",
		"":                "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), "input %q", in)
	}
}

func TestGenerateReceiptNumberIsUniqueUUID(t *testing.T) {
	seen := make(map[string]struct{}, 100)
	for i := 0; i < 100; i++ {
		n := GenerateReceiptNumber()
		_, err := uuid.Parse(n)
		require.NoError(t, err)
		_, dup := seen[n]
		require.False(t, dup, "duplicate receipt number %s", n)
		seen[n] = struct{}{}
	}
}
