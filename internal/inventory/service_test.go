package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/inkwell-tcg/inkwell-backend/internal/activity"
	"github.com/inkwell-tcg/inkwell-backend/pkg/db/models"
	"github.com/inkwell-tcg/inkwell-backend/pkg/enums"
	pkgerrors "github.com/inkwell-tcg/inkwell-backend/pkg/errors"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (g gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

type serviceHarness struct {
	db  *gorm.DB
	svc Service
}

func newServiceHarness(t *testing.T) *serviceHarness {
	t.Helper()
	dsn := "file:inventory_svc_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	inventoryRecords := `
CREATE TABLE IF NOT EXISTS inventory_records (
  card_id TEXT NOT NULL,
  version TEXT NOT NULL,
  stock INTEGER NOT NULL DEFAULT 0,
  price NUMERIC NOT NULL,
  updated_at DATETIME,
  PRIMARY KEY (card_id, version)
);`
	activityLog := `
CREATE TABLE IF NOT EXISTS activity_log (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  action TEXT NOT NULL,
  entity_type TEXT NOT NULL,
  entity_id TEXT NOT NULL,
  details TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(inventoryRecords).Error)
	require.NoError(t, db.Exec(activityLog).Error)

	activitySvc, err := activity.NewService(activity.NewRepository(db))
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(db),
		Tx:       gormTxRunner{db: db},
		Activity: activitySvc,
	})
	require.NoError(t, err)

	return &serviceHarness{db: db, svc: svc}
}

func (h *serviceHarness) activityLogs(t *testing.T) []models.ActivityLog {
	t.Helper()
	var logs []models.ActivityLog
	require.NoError(t, h.db.Find(&logs).Error)
	return logs
}

func TestAdjustStock_AddAndLog(t *testing.T) {
	t.Parallel()

	h := newServiceHarness(t)
	ctx := context.Background()
	actor := uuid.NewString()

	seedRecord(t, h.db, "tfc-20", enums.CardVersionNormal, 2)

	record, err := h.svc.AdjustStock(ctx, actor, StockAdjustment{
		CardID:  "tfc-20",
		Version: enums.CardVersionNormal,
		Delta:   3,
		Reason:  "restock",
	})
	require.NoError(t, err)
	assert.Equal(t, 5, record.Stock)

	logs := h.activityLogs(t)
	require.Len(t, logs, 1)
	assert.Equal(t, enums.ActivityActionStockAdjusted, logs[0].Action)
	assert.Equal(t, actor, logs[0].UserID)

	_, err = h.svc.AdjustStock(ctx, actor, StockAdjustment{
		CardID:  "tfc-20",
		Version: enums.CardVersionNormal,
		Delta:   1,
	})
	require.NoError(t, err)

	logs = h.activityLogs(t)
	require.Len(t, logs, 2)
	assert.NotEqual(t, logs[0].ID, logs[1].ID)
}

func TestAdjustStock_NegativeDrainsToZero(t *testing.T) {
	t.Parallel()

	h := newServiceHarness(t)
	ctx := context.Background()

	seedRecord(t, h.db, "tfc-21", enums.CardVersionFoil, 3)

	record, err := h.svc.AdjustStock(ctx, uuid.NewString(), StockAdjustment{
		CardID:  "tfc-21",
		Version: enums.CardVersionFoil,
		Delta:   -3,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, record.Stock)
}

func TestAdjustStock_BelowZeroRejected(t *testing.T) {
	t.Parallel()

	h := newServiceHarness(t)
	ctx := context.Background()

	seedRecord(t, h.db, "tfc-22", enums.CardVersionNormal, 2)

	_, err := h.svc.AdjustStock(ctx, uuid.NewString(), StockAdjustment{
		CardID:  "tfc-22",
		Version: enums.CardVersionNormal,
		Delta:   -3,
	})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeConflict, appErr.Code())

	record, err := h.svc.Get(ctx, "tfc-22", enums.CardVersionNormal)
	require.NoError(t, err)
	assert.Equal(t, 2, record.Stock, "rejected adjustment must not change stock")

	assert.Empty(t, h.activityLogs(t), "rolled back adjustment must not be logged")
}

func TestAdjustStock_Validation(t *testing.T) {
	t.Parallel()

	h := newServiceHarness(t)
	ctx := context.Background()

	_, err := h.svc.AdjustStock(ctx, uuid.NewString(), StockAdjustment{
		CardID:  "tfc-23",
		Version: enums.CardVersionNormal,
		Delta:   0,
	})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())

	_, err = h.svc.AdjustStock(ctx, uuid.NewString(), StockAdjustment{
		CardID:  "missing",
		Version: enums.CardVersionNormal,
		Delta:   1,
	})
	require.Error(t, err)
	appErr = pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestUpdatePrice_SetsAndLogs(t *testing.T) {
	t.Parallel()

	h := newServiceHarness(t)
	ctx := context.Background()
	actor := uuid.NewString()

	seedRecord(t, h.db, "tfc-24", enums.CardVersionNormal, 1)

	record, err := h.svc.UpdatePrice(ctx, actor, PriceUpdate{
		CardID:  "tfc-24",
		Version: enums.CardVersionNormal,
		Price:   decimal.RequireFromString("14.25"),
	})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("14.25").Equal(record.Price))

	logs := h.activityLogs(t)
	require.Len(t, logs, 1)
	assert.Equal(t, enums.ActivityActionPriceUpdated, logs[0].Action)
}

func TestUpdatePrice_Validation(t *testing.T) {
	t.Parallel()

	h := newServiceHarness(t)
	ctx := context.Background()

	_, err := h.svc.UpdatePrice(ctx, uuid.NewString(), PriceUpdate{
		CardID:  "tfc-25",
		Version: enums.CardVersionNormal,
		Price:   decimal.Zero,
	})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())

	_, err = h.svc.UpdatePrice(ctx, uuid.NewString(), PriceUpdate{
		CardID:  "missing",
		Version: enums.CardVersionNormal,
		Price:   decimal.NewFromInt(5),
	})
	require.Error(t, err)
	appErr = pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestUpsertRecord(t *testing.T) {
	t.Parallel()

	h := newServiceHarness(t)
	ctx := context.Background()

	err := h.svc.UpsertRecord(ctx, uuid.NewString(), models.InventoryRecord{
		CardID:  "tfc-26",
		Version: enums.CardVersionFoil,
		Stock:   4,
		Price:   decimal.RequireFromString("30.00"),
	})
	require.NoError(t, err)

	record, err := h.svc.Get(ctx, "tfc-26", enums.CardVersionFoil)
	require.NoError(t, err)
	assert.Equal(t, 4, record.Stock)

	err = h.svc.UpsertRecord(ctx, uuid.NewString(), models.InventoryRecord{
		CardID:  "tfc-27",
		Version: enums.CardVersionNormal,
		Stock:   -1,
		Price:   decimal.NewFromInt(1),
	})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}
