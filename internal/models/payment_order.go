package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	OrderStatusCreated    = "created"
	OrderStatusPaid       = "paid"
	OrderStatusSuperseded = "superseded"
)

// PaymentOrder records one gateway order minted for an invoice. The gateway
// charges integer minor units, so the amount is stored that way. At most one
// order per invoice is in "created" state; a newer order supersedes it.
type PaymentOrder struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceID        uuid.UUID  `gorm:"type:uuid;index" json:"invoice_id"`
	GatewayOrderID   string     `gorm:"uniqueIndex" json:"gateway_order_id"`
	AmountMinorUnits int64      `json:"amount_minor_units"`
	Currency         string     `json:"currency"`
	Status           string     `gorm:"index" json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	ResolvedAt       *time.Time `json:"resolved_at,omitempty"`
}
