package repository

import (
	"invoice-billing-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// Expose DB if needed
func (r *InvoiceRepository) DB() *gorm.DB {
	return r.db
}

// GetByID fetches a single invoice with its items.
func (r *InvoiceRepository) GetByID(id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.Preload("Items").First(&invoice, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// GetOwned fetches an invoice only if it belongs to the given user.
func (r *InvoiceRepository) GetOwned(userID, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.Preload("Items").First(&invoice, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *InvoiceRepository) ListByUser(userID uuid.UUID) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.Preload("Items").Where("user_id = ?", userID).Order("created_at DESC").Find(&invoices).Error
	return invoices, err
}

// ListByClientEmail returns every invoice billed to the given client email,
// across owners.
func (r *InvoiceRepository) ListByClientEmail(email string) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.Preload("Items").Where("client_email = ?", email).Order("created_at DESC").Find(&invoices).Error
	return invoices, err
}
