package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-tcg/inkwell-backend/pkg/enums"
)

// CardSubmission holds user-submitted card data awaiting admin review.
// Payload keeps the raw submission for traceability; approval upserts the
// catalog entry from it.
type CardSubmission struct {
	ID             uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CardID         string                 `gorm:"column:card_id;type:text;not null;index"`
	Payload        json.RawMessage        `gorm:"column:payload;type:jsonb;not null"`
	SubmitterEmail *string                `gorm:"column:submitter_email"`
	Status         enums.SubmissionStatus `gorm:"column:status;type:text;not null;default:'pending';index"`
	ReviewedBy     *uuid.UUID             `gorm:"column:reviewed_by;type:uuid"`
	ReviewedAt     *time.Time             `gorm:"column:reviewed_at"`
	ReviewNotes    *string                `gorm:"column:review_notes"`
	CreatedAt      time.Time              `gorm:"column:created_at;autoCreateTime"`
}
