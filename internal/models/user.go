package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
	RoleOwner = "OWNER"
)

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Role      string    `gorm:"not null;default:'USER'" json:"role"`
	CreatedAt time.Time `json:"created_at"`

	Credentials *GatewayCredentials `gorm:"foreignKey:UserID" json:"credentials,omitempty"`
}

// IsAdmin reports whether the user may manage other accounts.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleOwner
}
