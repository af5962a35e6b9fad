package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/inkwell-tcg/inkwell-backend/pkg/enums"
)

// UniqueOrdersPaymentID names the constraint that enforces at-most-once
// fulfillment per gateway payment.
const UniqueOrdersPaymentID = "orders_payment_id_key"

// Order records one fulfilled (or partially fulfilled) gateway payment.
// Exactly zero or one row exists per payment id; the unique index is the
// authoritative idempotency guard for concurrent webhook deliveries.
type Order struct {
	ID                uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PaymentID         string            `gorm:"column:payment_id;type:text;not null;uniqueIndex:orders_payment_id_key"`
	ExternalReference string            `gorm:"column:external_reference;not null"`
	Items             json.RawMessage   `gorm:"column:items;type:jsonb;not null"`
	CustomerEmail     *string           `gorm:"column:customer_email"`
	Status            enums.OrderStatus `gorm:"column:status;type:text;not null"`
	TotalAmount       decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null"`
	MPFeeAmount       *decimal.Decimal  `gorm:"column:mp_fee_amount;type:numeric(12,2)"`
	NetReceivedAmount *decimal.Decimal  `gorm:"column:net_received_amount;type:numeric(12,2)"`
	CreatedAt         time.Time         `gorm:"column:created_at;autoCreateTime"`
}
