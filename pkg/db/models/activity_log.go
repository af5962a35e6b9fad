package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-tcg/inkwell-backend/pkg/enums"
)

// ActivityLog is the append-only audit trail. UserID holds a user uuid string
// or one of the sentinel actors ("system", "mobile_user") for unauthenticated
// triggers. Rows are never updated or deleted.
type ActivityLog struct {
	ID         uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     string               `gorm:"column:user_id;type:text;not null;index"`
	Action     enums.ActivityAction `gorm:"column:action;type:text;not null;index"`
	EntityType string               `gorm:"column:entity_type;not null"`
	EntityID   string               `gorm:"column:entity_id;not null"`
	Details    json.RawMessage      `gorm:"column:details;type:jsonb"`
	CreatedAt  time.Time            `gorm:"column:created_at;autoCreateTime"`
}

// TableName keeps the singular-free legacy name.
func (ActivityLog) TableName() string {
	return "activity_log"
}
