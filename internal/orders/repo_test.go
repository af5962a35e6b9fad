package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/inkwell-tcg/inkwell-backend/pkg/db/models"
	"github.com/inkwell-tcg/inkwell-backend/pkg/enums"
	"github.com/inkwell-tcg/inkwell-backend/pkg/pagination"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	ordersTable := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  payment_id TEXT NOT NULL,
  external_reference TEXT NOT NULL,
  items TEXT NOT NULL,
  customer_email TEXT,
  status TEXT NOT NULL,
  total_amount NUMERIC NOT NULL,
  mp_fee_amount NUMERIC,
  net_received_amount NUMERIC,
  created_at DATETIME
);`
	ordersPaymentIndex := `
CREATE UNIQUE INDEX IF NOT EXISTS orders_payment_id_key ON orders (payment_id);`
	if err := db.Exec(ordersTable).Error; err != nil {
		t.Fatalf("create orders table: %v", err)
	}
	if err := db.Exec(ordersPaymentIndex).Error; err != nil {
		t.Fatalf("create payment id index: %v", err)
	}
	return db
}

func testOrder(t *testing.T, paymentID string) *models.Order {
	t.Helper()
	items, err := EncodeItems([]OrderItem{
		{
			CardID:    "tfc-1",
			Version:   enums.CardVersionNormal,
			Title:     "Elsa Snow Queen",
			Quantity:  1,
			UnitPrice: decimal.RequireFromString("4.50"),
			Outcome:   enums.ItemOutcomeFulfilled,
		},
	})
	require.NoError(t, err)
	return &models.Order{
		ID:                uuid.New(),
		PaymentID:         paymentID,
		ExternalReference: "ref-" + paymentID,
		Items:             items,
		Status:            enums.OrderStatusFulfilled,
		TotalAmount:       decimal.RequireFromString("4.50"),
	}
}

func TestInsert_DuplicatePaymentID(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, testOrder(t, "pay-1")))

	err := repo.Insert(ctx, testOrder(t, "pay-1"))
	require.ErrorIs(t, err, ErrDuplicatePayment)

	var count int64
	require.NoError(t, db.Model(&models.Order{}).Where("payment_id = ?", "pay-1").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestInsert_AssignsIDWhenUnset(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	first := testOrder(t, "pay-10")
	first.ID = uuid.Nil
	require.NoError(t, repo.Insert(ctx, first))
	assert.NotEqual(t, uuid.Nil, first.ID)

	second := testOrder(t, "pay-11")
	second.ID = uuid.Nil
	require.NoError(t, repo.Insert(ctx, second))
	assert.NotEqual(t, first.ID, second.ID)
}

func TestFindByPaymentID(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created := testOrder(t, "pay-2")
	require.NoError(t, repo.Insert(ctx, created))

	found, err := repo.FindByPaymentID(ctx, "pay-2")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	items, err := DecodeItems(found.Items)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "tfc-1", items[0].CardID)
	assert.Equal(t, enums.ItemOutcomeFulfilled, items[0].Outcome)

	_, err = repo.FindByPaymentID(ctx, "missing")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestList_PaginatesAndFilters(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		order := testOrder(t, "pay-list-"+uuid.NewString())
		if i == 0 {
			order.Status = enums.OrderStatusPartial
		}
		order.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, db.Create(order).Error)
	}

	page, err := repo.List(ctx, pagination.Params{Limit: 2}, ListFilters{})
	require.NoError(t, err)
	require.Len(t, page.Orders, 2)
	require.NotNil(t, page.NextCursor)

	second, err := repo.List(ctx, pagination.Params{Limit: 2, Cursor: *page.NextCursor}, ListFilters{})
	require.NoError(t, err)
	require.Len(t, second.Orders, 2)
	assert.True(t, second.Orders[0].CreatedAt.Before(page.Orders[1].CreatedAt))

	partial, err := repo.List(ctx, pagination.Params{}, ListFilters{Status: string(enums.OrderStatusPartial)})
	require.NoError(t, err)
	require.Len(t, partial.Orders, 1)
	assert.Nil(t, partial.NextCursor)
}

func TestUpdateFeesAndListMissingFees(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	withFees := testOrder(t, "pay-fees-1")
	withoutFees := testOrder(t, "pay-fees-2")
	require.NoError(t, repo.Insert(ctx, withFees))
	require.NoError(t, repo.Insert(ctx, withoutFees))

	fee := decimal.RequireFromString("0.45")
	net := decimal.RequireFromString("4.05")
	require.NoError(t, repo.UpdateFees(ctx, withFees.ID, FeeUpdate{FeeAmount: &fee, NetReceivedAmount: &net}))

	missing, err := repo.ListMissingFees(ctx, 10)
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, withoutFees.ID, missing[0].ID)

	loaded, err := repo.FindByID(ctx, withFees.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.MPFeeAmount)
	assert.True(t, fee.Equal(*loaded.MPFeeAmount))

	err = repo.UpdateFees(ctx, uuid.New(), FeeUpdate{FeeAmount: &fee})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
