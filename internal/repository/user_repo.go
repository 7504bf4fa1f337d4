package repository

import (
	"invoice-billing-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, "email = ?", email).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListWithCredentials returns every account with its gateway credential
// record preloaded, newest first. Used by the admin screen.
func (r *UserRepository) ListWithCredentials() ([]models.User, error) {
	var users []models.User
	err := r.db.Preload("Credentials").Order("created_at DESC").Find(&users).Error
	return users, err
}

func (r *UserRepository) UpdateProfile(id uuid.UUID, name, address string) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{"name": name, "address": address}).Error
}

func (r *UserRepository) UpdateRole(id uuid.UUID, role string) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).Update("role", role).Error
}

func (r *UserRepository) Delete(id uuid.UUID) error {
	return r.db.Delete(&models.User{}, "id = ?", id).Error
}
