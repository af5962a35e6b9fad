package catalog

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/inkwell-tcg/inkwell-backend/pkg/db/models"
)

// Repository defines persistence operations for the card catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id string) (*models.Card, error)
	List(ctx context.Context, filters ListFilters) ([]models.Card, int64, error)
	Create(ctx context.Context, card *models.Card) error
	Update(ctx context.Context, card *models.Card) error
	Upsert(ctx context.Context, card *models.Card) error
	FindInventory(ctx context.Context, cardIDs []string) ([]models.InventoryRecord, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id string) (*models.Card, error) {
	var card models.Card
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&card).Error; err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]models.Card, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Card{})
	if filters.SetCode != "" {
		query = query.Where("set_code = ?", filters.SetCode)
	}
	if filters.Rarity != "" {
		query = query.Where("rarity = ?", filters.Rarity)
	}
	if filters.Search != "" {
		query = query.Where("name LIKE ?", "%"+filters.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var cards []models.Card
	err := query.
		Order("set_code ASC, collector_number ASC").
		Limit(filters.Limit).
		Offset(filters.Offset).
		Find(&cards).Error
	if err != nil {
		return nil, 0, err
	}
	return cards, total, nil
}

func (r *repository) Create(ctx context.Context, card *models.Card) error {
	return r.db.WithContext(ctx).Create(card).Error
}

func (r *repository) Update(ctx context.Context, card *models.Card) error {
	return r.db.WithContext(ctx).
		Model(&models.Card{}).
		Where("id = ?", card.ID).
		Updates(map[string]any{
			"name":             card.Name,
			"set_code":         card.SetCode,
			"collector_number": card.CollectorNumber,
			"rarity":           card.Rarity,
			"ink_color":        card.InkColor,
			"image_url":        card.ImageURL,
			"updated_at":       card.UpdatedAt,
		}).Error
}

func (r *repository) Upsert(ctx context.Context, card *models.Card) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "set_code", "collector_number", "rarity", "ink_color", "image_url", "updated_at",
			}),
		}).
		Create(card).Error
}

func (r *repository) FindInventory(ctx context.Context, cardIDs []string) ([]models.InventoryRecord, error) {
	if len(cardIDs) == 0 {
		return nil, nil
	}
	var records []models.InventoryRecord
	err := r.db.WithContext(ctx).
		Where("card_id IN ?", cardIDs).
		Order("card_id ASC, version ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
