package inventory

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/inkwell-tcg/inkwell-backend/pkg/db/models"
	"github.com/inkwell-tcg/inkwell-backend/pkg/enums"
	pkgerrors "github.com/inkwell-tcg/inkwell-backend/pkg/errors"
)

// Repository defines persistence operations over inventory records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Find(ctx context.Context, cardID string, version enums.CardVersion) (*models.InventoryRecord, error)
	TryDecrement(ctx context.Context, cardID string, version enums.CardVersion, qty int) (bool, error)
	AddStock(ctx context.Context, cardID string, version enums.CardVersion, qty int) error
	SetPrice(ctx context.Context, cardID string, version enums.CardVersion, price decimal.Decimal) error
	Upsert(ctx context.Context, record *models.InventoryRecord) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an inventory repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Find(ctx context.Context, cardID string, version enums.CardVersion) (*models.InventoryRecord, error) {
	var record models.InventoryRecord
	err := r.db.WithContext(ctx).
		Where("card_id = ? AND version = ?", cardID, version).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// TryDecrement atomically subtracts qty when enough stock exists. The WHERE
// guard makes concurrent decrements safe: the row only changes when
// stock >= qty, so the count can never go negative. Returns false when the
// guard did not match (insufficient stock or no such record).
func (r *repository) TryDecrement(ctx context.Context, cardID string, version enums.CardVersion, qty int) (bool, error) {
	if qty <= 0 {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "decrement quantity must be positive")
	}

	res := r.db.WithContext(ctx).Exec(`
		UPDATE inventory_records
		SET stock = stock - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE card_id = ? AND version = ? AND stock >= ?
	`, qty, cardID, version, qty)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) AddStock(ctx context.Context, cardID string, version enums.CardVersion, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock quantity must be positive")
	}

	res := r.db.WithContext(ctx).Exec(`
		UPDATE inventory_records
		SET stock = stock + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE card_id = ? AND version = ?
	`, qty, cardID, version)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) SetPrice(ctx context.Context, cardID string, version enums.CardVersion, price decimal.Decimal) error {
	res := r.db.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Where("card_id = ? AND version = ?", cardID, version).
		Update("price", price)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) Upsert(ctx context.Context, record *models.InventoryRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "card_id"}, {Name: "version"}},
			DoUpdates: clause.AssignmentColumns([]string{"stock", "price", "updated_at"}),
		}).
		Create(record).Error
}
