package models

import (
	"time"

	"github.com/google/uuid"
)

// GatewayCredentials is the per-owner payment gateway account. Every owner
// brings their own key/secret pair; there is no process-wide credential.
// KeySecret is never serialized.
type GatewayCredentials struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"user_id"`
	KeyID     string    `json:"key_id"`
	KeySecret string    `json:"-"`
	Verified  bool      `gorm:"index" json:"verified"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Configured reports whether both halves of the pair are present.
func (c *GatewayCredentials) Configured() bool {
	return c != nil && c.KeyID != "" && c.KeySecret != ""
}
