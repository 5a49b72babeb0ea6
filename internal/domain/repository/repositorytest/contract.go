// Package repositorytest holds the behavioural checks every
// repository.ReceiptRepository implementation must pass.
package repositorytest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/receiptflow-api/internal/domain/entity"
	"github.com/sangkips/receiptflow-api/internal/domain/enum"
	"github.com/sangkips/receiptflow-api/internal/domain/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty store scoped to the test.
type Factory func(t *testing.T) repository.ReceiptRepository

// NewReceipt builds an unsaved receipt for orderID.
func NewReceipt(orderID string) *entity.Receipt {
	return &entity.Receipt{
		OrderID:       orderID,
		ReceiptNumber: uuid.New().String(),
		CustomerName:  "Ada Lovelace",
		CustomerEmail: "ada@example.com",
		BusinessStore: "ReceiptFlow",
		PaymentMethod: enum.PaymentMethodCard,
		SubTotal:      decimal.RequireFromString("53000.00"),
		Tax:           decimal.RequireFromString("5300.00"),
		Total:         decimal.RequireFromString("58300.00"),
	}
}

// NewItems returns the two line items used across store tests.
func NewItems() []entity.LineItem {
	return []entity.LineItem{
		{ProductName: "Laptop", Quantity: 1, UnitPrice: decimal.NewFromInt(50000)},
		{ProductName: "Mouse", Quantity: 2, UnitPrice: decimal.NewFromInt(1500)},
	}
}

// Run exercises the full ReceiptRepository contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("create and read back", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		created, err := store.Create(ctx, NewReceipt("ORD-1"), NewItems())
		require.NoError(t, err)
		require.NotEqual(t, uuid.Nil, created.ID)
		assert.False(t, created.CreatedAt.IsZero())
		assert.Nil(t, created.PdfURL)

		got, err := store.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "ORD-1", got.OrderID)
		assert.Equal(t, created.ReceiptNumber, got.ReceiptNumber)
		assert.Equal(t, enum.PaymentMethodCard, got.PaymentMethod)
		assert.True(t, got.Total.Equal(decimal.RequireFromString("58300")), got.Total.String())
		require.Len(t, got.Items, 2)
		assert.Equal(t, "Laptop", got.Items[0].ProductName)
		assert.Equal(t, "Mouse", got.Items[1].ProductName)
		assert.Equal(t, 2, got.Items[1].Quantity)
		assert.True(t, got.Items[1].UnitPrice.Equal(decimal.NewFromInt(1500)))

		byOrder, err := store.GetByOrderID(ctx, "ORD-1")
		require.NoError(t, err)
		assert.Equal(t, created.ID, byOrder.ID)

		exists, err := store.ExistsByOrderID(ctx, "ORD-1")
		require.NoError(t, err)
		assert.True(t, exists)
		exists, err = store.ExistsByOrderID(ctx, "ORD-2")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("missing receipt", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		_, err := store.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, repository.ErrReceiptNotFound)
		_, err = store.GetByOrderID(ctx, "nope")
		assert.ErrorIs(t, err, repository.ErrReceiptNotFound)
		_, err = store.AttachDocumentURL(ctx, uuid.New(), "https://example.com/x.pdf")
		assert.ErrorIs(t, err, repository.ErrReceiptNotFound)
	})

	t.Run("duplicate order rejected", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		_, err := store.Create(ctx, NewReceipt("ORD-DUP"), NewItems())
		require.NoError(t, err)
		_, err = store.Create(ctx, NewReceipt("ORD-DUP"), NewItems())
		assert.ErrorIs(t, err, repository.ErrDuplicateOrder)

		all, err := store.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Len(t, all[0].Items, 2)
	})

	t.Run("concurrent creates for one order", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		const attempts = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
			conflicts int
		)
		start := make(chan struct{})
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				_, err := store.Create(ctx, NewReceipt("ORD-RACE"), NewItems())
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					succeeded++
				case errors.Is(err, repository.ErrDuplicateOrder):
					conflicts++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		close(start)
		wg.Wait()

		assert.Equal(t, 1, succeeded)
		assert.Equal(t, attempts-1, conflicts)
		all, err := store.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("attach document url", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		created, err := store.Create(ctx, NewReceipt("ORD-URL"), NewItems())
		require.NoError(t, err)

		updated, err := store.AttachDocumentURL(ctx, created.ID, "https://cdn.example.com/receipts/ord-url.pdf")
		require.NoError(t, err)
		require.NotNil(t, updated.PdfURL)
		assert.Equal(t, "https://cdn.example.com/receipts/ord-url.pdf", *updated.PdfURL)
		assert.Len(t, updated.Items, 2)

		// re-linking the same url is allowed
		_, err = store.AttachDocumentURL(ctx, created.ID, "https://cdn.example.com/receipts/ord-url.pdf")
		require.NoError(t, err)
	})

	t.Run("list ordered by creation", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		all, err := store.ListAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)

		for i := 0; i < 3; i++ {
			_, err := store.Create(ctx, NewReceipt(fmt.Sprintf("ORD-%d", i)), NewItems())
			require.NoError(t, err)
			time.Sleep(5 * time.Millisecond)
		}

		all, err = store.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		for i, r := range all {
			assert.Equal(t, fmt.Sprintf("ORD-%d", i), r.OrderID)
			assert.Len(t, r.Items, 2)
		}
	})

	t.Run("empty item list", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		created, err := store.Create(ctx, NewReceipt("ORD-EMPTY"), nil)
		require.NoError(t, err)
		got, err := store.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Items)
	})

	t.Run("delete cascades to items", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		keep, err := store.Create(ctx, NewReceipt("ORD-KEEP"), NewItems())
		require.NoError(t, err)
		gone, err := store.Create(ctx, NewReceipt("ORD-GONE"), NewItems())
		require.NoError(t, err)

		require.NoError(t, store.Delete(ctx, gone.ID))
		_, err = store.GetByID(ctx, gone.ID)
		assert.ErrorIs(t, err, repository.ErrReceiptNotFound)
		for _, item := range gone.Items {
			assert.ErrorIs(t, store.DeleteLineItem(ctx, item.ID), repository.ErrReceiptNotFound)
		}
		assert.ErrorIs(t, store.Delete(ctx, gone.ID), repository.ErrReceiptNotFound)

		got, err := store.GetByID(ctx, keep.ID)
		require.NoError(t, err)
		assert.Len(t, got.Items, 2)

		// the order can be finalized again once its receipt is gone
		_, err = store.Create(ctx, NewReceipt("ORD-GONE"), NewItems())
		require.NoError(t, err)
	})

	t.Run("delete line item keeps parent", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		created, err := store.Create(ctx, NewReceipt("ORD-ITEM"), NewItems())
		require.NoError(t, err)
		require.Len(t, created.Items, 2)

		require.NoError(t, store.DeleteLineItem(ctx, created.Items[0].ID))
		got, err := store.GetByID(ctx, created.ID)
		require.NoError(t, err)
		require.Len(t, got.Items, 1)
		assert.Equal(t, "Mouse", got.Items[0].ProductName)
		assert.ErrorIs(t, store.DeleteLineItem(ctx, uuid.New()), repository.ErrReceiptNotFound)
	})
}
