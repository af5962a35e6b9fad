package models

import (
	"time"
)

// Card is a catalog entry for a single Lorcana card. The ID is the external
// catalog slug (e.g. "tfc-1"), which is also the id carried on gateway line
// items.
type Card struct {
	ID              string    `gorm:"column:id;type:text;primaryKey"`
	Name            string    `gorm:"column:name;not null"`
	SetCode         string    `gorm:"column:set_code;not null;index"`
	CollectorNumber string    `gorm:"column:collector_number;not null"`
	Rarity          string    `gorm:"column:rarity;not null;index"`
	InkColor        *string   `gorm:"column:ink_color"`
	ImageURL        *string   `gorm:"column:image_url"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
