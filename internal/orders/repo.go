package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkwell-tcg/inkwell-backend/pkg/db"
	"github.com/inkwell-tcg/inkwell-backend/pkg/db/models"
	pkgerrors "github.com/inkwell-tcg/inkwell-backend/pkg/errors"
	"github.com/inkwell-tcg/inkwell-backend/pkg/pagination"
)

// ErrDuplicatePayment signals an insert that lost the unique-index race: an
// order for this payment id already exists. Callers treat it as "already
// fulfilled", not as a failure.
var ErrDuplicatePayment = pkgerrors.New(pkgerrors.CodeConflict, "order already exists for payment")

// Repository defines persistence operations for orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, order *models.Order) error
	FindByPaymentID(ctx context.Context, paymentID string) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*Page, error)
	UpdateFees(ctx context.Context, id uuid.UUID, update FeeUpdate) error
	ListMissingFees(ctx context.Context, limit int) ([]models.Order, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(gormDB *gorm.DB) Repository {
	return &repository{db: gormDB}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Insert creates the order row. A unique violation on the payment id index
// maps to ErrDuplicatePayment so callers can distinguish the benign race.
func (r *repository) Insert(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		if db.IsUniqueViolation(err, models.UniqueOrdersPaymentID) {
			return ErrDuplicatePayment
		}
		return err
	}
	return nil
}

func (r *repository) FindByPaymentID(ctx context.Context, paymentID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters ListFilters) (*Page, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Order{})
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.PaymentID != "" {
		query = query.Where("payment_id = ?", filters.PaymentID)
	}
	if filters.CreatedAfter != nil {
		query = query.Where("created_at >= ?", filters.CreatedAfter)
	}
	if filters.CreatedBefore != nil {
		query = query.Where("created_at < ?", filters.CreatedBefore)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	err = query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	page := Page{Orders: rows}
	if len(rows) > limit {
		page.Orders = rows[:limit]
		last := page.Orders[limit-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		page.NextCursor = &next
	}
	return &page, nil
}

func (r *repository) UpdateFees(ctx context.Context, id uuid.UUID, update FeeUpdate) error {
	updates := map[string]any{}
	if update.FeeAmount != nil {
		updates["mp_fee_amount"] = update.FeeAmount
	}
	if update.NetReceivedAmount != nil {
		updates["net_received_amount"] = update.NetReceivedAmount
	}
	if len(updates) == 0 {
		return nil
	}

	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListMissingFees returns the oldest orders whose gateway fee fields were
// never captured, feeding the backfill job.
func (r *repository) ListMissingFees(ctx context.Context, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = pagination.DefaultLimit
	}
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Where("mp_fee_amount IS NULL").
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
