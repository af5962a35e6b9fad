package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/inkwell-tcg/inkwell-backend/pkg/enums"
)

// InventoryRecord tracks price and on-hand stock per (card, version). The
// stock column carries a CHECK (stock >= 0) constraint; all sale-path
// decrements go through conditional updates so the count can never go
// negative under concurrent fulfillments.
type InventoryRecord struct {
	CardID    string            `gorm:"column:card_id;type:text;primaryKey"`
	Version   enums.CardVersion `gorm:"column:version;type:text;primaryKey"`
	Stock     int               `gorm:"column:stock;not null;default:0"`
	Price     decimal.Decimal   `gorm:"column:price;type:numeric(12,2);not null"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the plural table name explicit.
func (InventoryRecord) TableName() string {
	return "inventory_records"
}
