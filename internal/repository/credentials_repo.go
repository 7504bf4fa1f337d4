package repository

import (
	"errors"
	"time"

	"invoice-billing-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CredentialsRepository struct {
	db *gorm.DB
}

func NewCredentialsRepository(db *gorm.DB) *CredentialsRepository {
	return &CredentialsRepository{db: db}
}

func (r *CredentialsRepository) GetByUserID(userID uuid.UUID) (*models.GatewayCredentials, error) {
	var creds models.GatewayCredentials
	err := r.db.First(&creds, "user_id = ?", userID).Error
	if err != nil {
		return nil, err
	}
	return &creds, nil
}

// Upsert creates or updates the owner's credential record. Toggling the key
// pair resets nothing else; the verified flag is admin-controlled.
func (r *CredentialsRepository) Upsert(userID uuid.UUID, keyID, keySecret string) (*models.GatewayCredentials, error) {
	var creds models.GatewayCredentials
	err := r.db.First(&creds, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		creds = models.GatewayCredentials{
			ID:        uuid.New(),
			UserID:    userID,
			KeyID:     keyID,
			KeySecret: keySecret,
			CreatedAt: time.Now(),
		}
		if err := r.db.Create(&creds).Error; err != nil {
			return nil, err
		}
		return &creds, nil
	}
	if err != nil {
		return nil, err
	}
	creds.KeyID = keyID
	creds.KeySecret = keySecret
	if err := r.db.Save(&creds).Error; err != nil {
		return nil, err
	}
	return &creds, nil
}

func (r *CredentialsRepository) SetVerified(userID uuid.UUID, verified bool) error {
	return r.db.Model(&models.GatewayCredentials{}).Where("user_id = ?", userID).Update("verified", verified).Error
}
