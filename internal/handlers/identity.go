package handlers

import (
	"net/http"

	"invoice-billing-backend/internal/models"
	"invoice-billing-backend/internal/repository"

	"github.com/gin-gonic/gin"
)

// Authentication happens upstream (session/auth proxy); by the time a
// request reaches these handlers the caller's identity arrives in the
// X-User-Email header. currentUser resolves it to an account and writes the
// 401 itself when it can't.
func currentUser(c *gin.Context, users *repository.UserRepository) *models.User {
	email := c.GetHeader("X-User-Email")
	if email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil
	}
	user, err := users.GetByEmail(email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil
	}
	return user
}

// requireAdmin resolves the caller and rejects non ADMIN/OWNER roles.
func requireAdmin(c *gin.Context, users *repository.UserRepository) *models.User {
	user := currentUser(c, users)
	if user == nil {
		return nil
	}
	if !user.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return nil
	}
	return user
}
