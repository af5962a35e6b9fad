package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-tcg/inkwell-backend/pkg/enums"
)

// PaymentRef records every gateway payment id this system has seen, with the
// last gateway status observed. The reconcile sweep scans refs that are
// approved at the gateway but have no matching order and re-runs fulfillment
// for them, covering the "decrement attempt never ran" repair case.
type PaymentRef struct {
	ID            uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PaymentID     string                     `gorm:"column:payment_id;type:text;not null;uniqueIndex"`
	LastStatus    enums.GatewayPaymentStatus `gorm:"column:last_status;type:text;not null"`
	LastCheckedAt time.Time                  `gorm:"column:last_checked_at;not null"`
	CreatedAt     time.Time                  `gorm:"column:created_at;autoCreateTime"`
}
