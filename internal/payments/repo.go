package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/inkwell-tcg/inkwell-backend/pkg/db/models"
	"github.com/inkwell-tcg/inkwell-backend/pkg/enums"
)

// RefRepository persists the gateway payment ids this system has observed.
type RefRepository interface {
	WithTx(tx *gorm.DB) RefRepository
	Upsert(ctx context.Context, paymentID string, status enums.GatewayPaymentStatus, seenAt time.Time) error
	FindByPaymentID(ctx context.Context, paymentID string) (*models.PaymentRef, error)
	// ListApprovedWithoutOrder returns approved refs first seen within the
	// window that still have no order row. These are the repair candidates
	// for the reconcile sweep.
	ListApprovedWithoutOrder(ctx context.Context, since time.Time, limit int) ([]models.PaymentRef, error)
}

type refRepository struct {
	db *gorm.DB
}

// NewRefRepository builds a payment ref repository bound to the provided DB.
func NewRefRepository(db *gorm.DB) RefRepository {
	return &refRepository{db: db}
}

func (r *refRepository) WithTx(tx *gorm.DB) RefRepository {
	if tx == nil {
		return r
	}
	return &refRepository{db: tx}
}

func (r *refRepository) Upsert(ctx context.Context, paymentID string, status enums.GatewayPaymentStatus, seenAt time.Time) error {
	ref := models.PaymentRef{
		ID:            uuid.New(),
		PaymentID:     paymentID,
		LastStatus:    status,
		LastCheckedAt: seenAt,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "payment_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_status", "last_checked_at"}),
		}).
		Create(&ref).Error
}

func (r *refRepository) FindByPaymentID(ctx context.Context, paymentID string) (*models.PaymentRef, error) {
	var ref models.PaymentRef
	err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		First(&ref).Error
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

func (r *refRepository) ListApprovedWithoutOrder(ctx context.Context, since time.Time, limit int) ([]models.PaymentRef, error) {
	if limit <= 0 {
		limit = 50
	}
	var refs []models.PaymentRef
	err := r.db.WithContext(ctx).
		Where("last_status = ?", enums.GatewayPaymentStatusApproved).
		Where("created_at >= ?", since).
		Where("payment_id NOT IN (?)", r.db.Model(&models.Order{}).Select("payment_id")).
		Order("created_at ASC").
		Limit(limit).
		Find(&refs).Error
	if err != nil {
		return nil, err
	}
	return refs, nil
}
