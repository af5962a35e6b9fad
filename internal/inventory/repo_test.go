package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/inkwell-tcg/inkwell-backend/pkg/db/models"
	"github.com/inkwell-tcg/inkwell-backend/pkg/enums"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	inventoryRecords := `
CREATE TABLE IF NOT EXISTS inventory_records (
  card_id TEXT NOT NULL,
  version TEXT NOT NULL,
  stock INTEGER NOT NULL DEFAULT 0,
  price NUMERIC NOT NULL,
  updated_at DATETIME,
  PRIMARY KEY (card_id, version)
);`
	if err := db.Exec(inventoryRecords).Error; err != nil {
		t.Fatalf("create inventory table: %v", err)
	}
	return db
}

func seedRecord(t *testing.T, db *gorm.DB, cardID string, version enums.CardVersion, stock int) {
	t.Helper()
	record := models.InventoryRecord{
		CardID:  cardID,
		Version: version,
		Stock:   stock,
		Price:   decimal.RequireFromString("9.99"),
	}
	require.NoError(t, db.Create(&record).Error)
}

func TestTryDecrement_Succeeds(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedRecord(t, db, "tfc-1", enums.CardVersionNormal, 5)

	ok, err := repo.TryDecrement(ctx, "tfc-1", enums.CardVersionNormal, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	record, err := repo.Find(ctx, "tfc-1", enums.CardVersionNormal)
	require.NoError(t, err)
	assert.Equal(t, 2, record.Stock)
}

func TestTryDecrement_InsufficientStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedRecord(t, db, "tfc-2", enums.CardVersionFoil, 2)

	ok, err := repo.TryDecrement(ctx, "tfc-2", enums.CardVersionFoil, 3)
	require.NoError(t, err)
	assert.False(t, ok)

	record, err := repo.Find(ctx, "tfc-2", enums.CardVersionFoil)
	require.NoError(t, err)
	assert.Equal(t, 2, record.Stock, "failed decrement must not change stock")
}

func TestTryDecrement_ExactStockDrainsToZero(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedRecord(t, db, "tfc-3", enums.CardVersionNormal, 4)

	ok, err := repo.TryDecrement(ctx, "tfc-3", enums.CardVersionNormal, 4)
	require.NoError(t, err)
	assert.True(t, ok)

	record, err := repo.Find(ctx, "tfc-3", enums.CardVersionNormal)
	require.NoError(t, err)
	assert.Equal(t, 0, record.Stock)

	ok, err = repo.TryDecrement(ctx, "tfc-3", enums.CardVersionNormal, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTryDecrement_UnknownRecord(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)

	ok, err := repo.TryDecrement(context.Background(), "missing", enums.CardVersionNormal, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTryDecrement_VersionsAreIndependent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedRecord(t, db, "tfc-4", enums.CardVersionNormal, 5)
	seedRecord(t, db, "tfc-4", enums.CardVersionFoil, 1)

	ok, err := repo.TryDecrement(ctx, "tfc-4", enums.CardVersionFoil, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	normal, err := repo.Find(ctx, "tfc-4", enums.CardVersionNormal)
	require.NoError(t, err)
	assert.Equal(t, 5, normal.Stock, "sibling version must be untouched")
}

func TestTryDecrement_RejectsNonPositiveQty(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)

	_, err := repo.TryDecrement(context.Background(), "tfc-1", enums.CardVersionNormal, 0)
	require.Error(t, err)
	_, err = repo.TryDecrement(context.Background(), "tfc-1", enums.CardVersionNormal, -1)
	require.Error(t, err)
}

func TestTryDecrement_ConcurrentOversell(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedRecord(t, db, "tfc-5", enums.CardVersionNormal, 1)

	const workers = 8
	var wg sync.WaitGroup
	wins := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.TryDecrement(ctx, "tfc-5", enums.CardVersionNormal, 1)
			if err != nil {
				// sqlite may report a busy conn under parallel writers;
				// that still means the decrement did not apply
				return
			}
			wins <- ok
		}()
	}
	wg.Wait()
	close(wins)

	winners := 0
	for ok := range wins {
		if ok {
			winners++
		}
	}
	assert.LessOrEqual(t, winners, 1)

	record, err := repo.Find(ctx, "tfc-5", enums.CardVersionNormal)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, record.Stock, 0)
}

func TestAddStockAndSetPrice(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedRecord(t, db, "tfc-6", enums.CardVersionNormal, 2)

	require.NoError(t, repo.AddStock(ctx, "tfc-6", enums.CardVersionNormal, 3))
	require.NoError(t, repo.SetPrice(ctx, "tfc-6", enums.CardVersionNormal, decimal.RequireFromString("12.50")))

	record, err := repo.Find(ctx, "tfc-6", enums.CardVersionNormal)
	require.NoError(t, err)
	assert.Equal(t, 5, record.Stock)
	assert.True(t, decimal.RequireFromString("12.50").Equal(record.Price))

	assert.ErrorIs(t, repo.AddStock(ctx, "missing", enums.CardVersionNormal, 1), gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.SetPrice(ctx, "missing", enums.CardVersionNormal, decimal.NewFromInt(1)), gorm.ErrRecordNotFound)
}

func TestUpsert(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	record := models.InventoryRecord{
		CardID:  "tfc-7",
		Version: enums.CardVersionFoil,
		Stock:   3,
		Price:   decimal.RequireFromString("25.00"),
	}
	require.NoError(t, repo.Upsert(ctx, &record))

	record.Stock = 10
	require.NoError(t, repo.Upsert(ctx, &record))

	loaded, err := repo.Find(ctx, "tfc-7", enums.CardVersionFoil)
	require.NoError(t, err)
	assert.Equal(t, 10, loaded.Stock)
}
