package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sangkips/receiptflow-api/internal/domain/entity"
	"github.com/sangkips/receiptflow-api/internal/domain/enum"
	domainRepo "github.com/sangkips/receiptflow-api/internal/domain/repository"
	"github.com/sangkips/receiptflow-api/internal/domain/repository/repositorytest"
	"github.com/sangkips/receiptflow-api/internal/infrastructure/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newSQLiteStore(t *testing.T) domainRepo.ReceiptRepository {
	t.Helper()
	db, err := database.NewSQLiteDB(filepath.Join(t.TempDir(), "receipts.db"), false, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db, zap.NewNop()))
	t.Cleanup(func() { _ = database.Close(db) })
	return NewReceiptRepository(db)
}

func TestReceiptRepositorySQLite(t *testing.T) {
	repositorytest.Run(t, newSQLiteStore)
}

func TestIsDuplicateOrder(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"postgres order index", &pgconn.PgError{Code: "23505", ConstraintName: "idx_receipts_order_id"}, true},
		{"postgres receipt number", &pgconn.PgError{Code: "23505", ConstraintName: "idx_receipts_receipt_number"}, false},
		{"postgres line item key", &pgconn.PgError{Code: "23505", ConstraintName: "line_items_pkey"}, false},
		{"postgres other", &pgconn.PgError{Code: "23503"}, false},
		{"sqlite order id", errors.New("UNIQUE constraint failed: receipts.order_id"), true},
		{"sqlite receipt number", errors.New("UNIQUE constraint failed: receipts.receipt_number"), false},
		{"gorm translated", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), false},
		{"other", errors.New("connection reset"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, isDuplicateOrder(tc.err))
		})
	}
}

func TestCreateReceiptNumberCollisionIsNotDuplicateOrder(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, &entity.Receipt{
		OrderID:       "ORD-1",
		ReceiptNumber: "RN-1",
		CustomerName:  "Ada",
		CustomerEmail: "ada@example.com",
		PaymentMethod: enum.PaymentMethodCard,
	}, nil)
	require.NoError(t, err)

	_, err = store.Create(ctx, &entity.Receipt{
		OrderID:       "ORD-2",
		ReceiptNumber: "RN-1",
		CustomerName:  "Grace",
		CustomerEmail: "grace@example.com",
		PaymentMethod: enum.PaymentMethodCard,
	}, nil)
	require.Error(t, err)
	assert.False(t, errors.Is(err, domainRepo.ErrDuplicateOrder))

	exists, err := store.ExistsByOrderID(ctx, "ORD-2")
	require.NoError(t, err)
	assert.False(t, exists)
}
