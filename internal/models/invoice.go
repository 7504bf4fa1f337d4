package models

import (
	"time"

	"github.com/google/uuid"
)

// InvoiceStatus is a closed enum. An invoice is PENDING until a verified
// payment callback (or an explicit mark-paid action) moves it to PAID.
// PAID is terminal.
type InvoiceStatus string

const (
	StatusPending InvoiceStatus = "PENDING"
	StatusPaid    InvoiceStatus = "PAID"
)

func (s InvoiceStatus) Valid() bool {
	return s == StatusPending || s == StatusPaid
}

type Invoice struct {
	ID            uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceName   string        `gorm:"not null" json:"invoice_name"`
	InvoiceNumber int           `gorm:"index" json:"invoice_number"`
	Currency      string        `gorm:"not null;default:'INR'" json:"currency"`
	Status        InvoiceStatus `gorm:"type:varchar(16);index" json:"status"`

	FromName    string `json:"from_name"`
	FromEmail   string `gorm:"index" json:"from_email"`
	FromAddress string `json:"from_address"`

	ClientName    string `json:"client_name"`
	ClientEmail   string `gorm:"index" json:"client_email"`
	ClientAddress string `json:"client_address"`

	Date    time.Time `json:"date"`
	DueDate int       `json:"due_date"` // net terms in days
	Note    string    `json:"note"`

	// Total is the grand total (subtotal + tax) recomputed from Items at
	// every save; it is never taken from client input.
	Total float64 `gorm:"index" json:"total"`

	// PendingOrderToken holds the latest gateway order id awaiting
	// settlement verification. Nil when no order is outstanding.
	PendingOrderToken *string `gorm:"index" json:"-"`

	UserID uuid.UUID     `gorm:"type:uuid;index" json:"user_id"`
	Items  []InvoiceItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InvoiceItem rows have no identity beyond position: edits delete and
// recreate the whole set.
type InvoiceItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceID   uuid.UUID `gorm:"type:uuid;index" json:"invoice_id"`
	Description string    `json:"description"`
	Quantity    float64   `json:"quantity"`
	Rate        float64   `json:"rate"`
	CreatedAt   time.Time `json:"created_at"`
}
