// Package activity maintains the append-only audit trail. Entries record who
// changed what; they are never updated or deleted.
package activity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkwell-tcg/inkwell-backend/pkg/db/models"
	"github.com/inkwell-tcg/inkwell-backend/pkg/enums"
	pkgerrors "github.com/inkwell-tcg/inkwell-backend/pkg/errors"
	"github.com/inkwell-tcg/inkwell-backend/pkg/pagination"
)

// Entry is one audit fact to record.
type Entry struct {
	UserID     string
	Action     enums.ActivityAction
	EntityType string
	EntityID   string
	Details    any
}

// Recorder is the write surface other services depend on. RecordTx joins the
// caller's transaction so the audit row commits or rolls back with the
// change it describes.
type Recorder interface {
	RecordTx(ctx context.Context, tx *gorm.DB, entry Entry) error
}

// ListFilters narrows the activity feed.
type ListFilters struct {
	UserID string
	Action string
}

// Page is one page of audit entries.
type Page struct {
	Entries    []models.ActivityLog `json:"entries"`
	NextCursor *string              `json:"next_cursor,omitempty"`
}

// Repository defines persistence for the activity log.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, row *models.ActivityLog) error
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*Page, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an activity repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Insert(ctx context.Context, row *models.ActivityLog) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters ListFilters) (*Page, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.ActivityLog{})
	if filters.UserID != "" {
		query = query.Where("user_id = ?", filters.UserID)
	}
	if filters.Action != "" {
		query = query.Where("action = ?", filters.Action)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.ActivityLog
	err = query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	page := Page{Entries: rows}
	if len(rows) > limit {
		page.Entries = rows[:limit]
		last := page.Entries[limit-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		page.NextCursor = &next
	}
	return &page, nil
}

// Service exposes audit recording and the admin feed.
type Service interface {
	Recorder
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*Page, error)
}

type service struct {
	repo Repository
}

// NewService builds the activity service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("activity repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) RecordTx(ctx context.Context, tx *gorm.DB, entry Entry) error {
	if entry.UserID == "" {
		entry.UserID = enums.ActorSystem
	}
	if entry.Action == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "activity action required")
	}
	if entry.EntityType == "" || entry.EntityID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "activity entity required")
	}

	row := models.ActivityLog{
		ID:         uuid.New(),
		UserID:     entry.UserID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
	}
	if entry.Details != nil {
		payload, err := json.Marshal(entry.Details)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode activity details")
		}
		row.Details = payload
	}

	if err := s.repo.WithTx(tx).Insert(ctx, &row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert activity entry")
	}
	return nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) (*Page, error) {
	page, err := s.repo.List(ctx, params, filters)
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, appErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list activity entries")
	}
	return page, nil
}
