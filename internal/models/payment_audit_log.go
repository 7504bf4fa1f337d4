package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type PaymentAuditLog struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	InvoiceID uuid.UUID `gorm:"type:uuid;index"`
	Action    string    `gorm:"index"` // order_created, order_reused, verify_ok, order_mismatch, signature_mismatch
	Details   datatypes.JSON
	CreatedAt time.Time
}
