package submissions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkwell-tcg/inkwell-backend/pkg/db/models"
	"github.com/inkwell-tcg/inkwell-backend/pkg/enums"
)

// Repository persists card submissions awaiting review.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, submission *models.CardSubmission) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.CardSubmission, error)
	List(ctx context.Context, status enums.SubmissionStatus, limit, offset int) ([]models.CardSubmission, int64, error)
	// MarkReviewed flips a pending submission to its final status. Returns
	// gorm.ErrRecordNotFound when the row is missing or already reviewed,
	// which keeps double-reviews from overwriting the first decision.
	MarkReviewed(ctx context.Context, id uuid.UUID, status enums.SubmissionStatus, reviewerID uuid.UUID, notes *string, at time.Time) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a submission repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Insert(ctx context.Context, submission *models.CardSubmission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.CardSubmission, error) {
	var submission models.CardSubmission
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&submission).Error
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *repository) List(ctx context.Context, status enums.SubmissionStatus, limit, offset int) ([]models.CardSubmission, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.CardSubmission{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.CardSubmission
	err := query.
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repository) MarkReviewed(ctx context.Context, id uuid.UUID, status enums.SubmissionStatus, reviewerID uuid.UUID, notes *string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.CardSubmission{}).
		Where("id = ? AND status = ?", id, enums.SubmissionStatusPending).
		Updates(map[string]any{
			"status":       status,
			"reviewed_by":  reviewerID,
			"reviewed_at":  at,
			"review_notes": notes,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
