package handlers

import (
	"net/http"

	"invoice-billing-backend/internal/models"
	"invoice-billing-backend/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminHandler is the ADMIN/OWNER account management surface.
type AdminHandler struct {
	users *repository.UserRepository
	creds *repository.CredentialsRepository
}

func NewAdminHandler(users *repository.UserRepository, creds *repository.CredentialsRepository) *AdminHandler {
	return &AdminHandler{users: users, creds: creds}
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	if requireAdmin(c, h.users) == nil {
		return
	}

	users, err := h.users.ListWithCredentials()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *AdminHandler) UpdateRole(c *gin.Context) {
	if requireAdmin(c, h.users) == nil {
		return
	}

	var payload struct {
		UserID string `json:"user_id"`
		Role   string `json:"role"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if payload.Role != models.RoleUser && payload.Role != models.RoleAdmin && payload.Role != models.RoleOwner {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}

	id, err := uuid.Parse(payload.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return
	}

	if err := h.users.UpdateRole(id, payload.Role); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update role"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AdminHandler) SetVerified(c *gin.Context) {
	if requireAdmin(c, h.users) == nil {
		return
	}

	var payload struct {
		UserID   string `json:"user_id"`
		Verified bool   `json:"verified"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	id, err := uuid.Parse(payload.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return
	}

	if err := h.creds.SetVerified(id, payload.Verified); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update verification"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	if requireAdmin(c, h.users) == nil {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return
	}

	if err := h.users.Delete(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
