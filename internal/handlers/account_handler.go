package handlers

import (
	"net/http"

	"invoice-billing-backend/internal/repository"

	"github.com/gin-gonic/gin"
)

// AccountHandler covers the caller's own account: onboarding profile fields
// and the gateway credential record ("details").
type AccountHandler struct {
	users *repository.UserRepository
	creds *repository.CredentialsRepository
}

func NewAccountHandler(users *repository.UserRepository, creds *repository.CredentialsRepository) *AccountHandler {
	return &AccountHandler{users: users, creds: creds}
}

func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	user := currentUser(c, h.users)
	if user == nil {
		return
	}

	var payload struct {
		Name    string `json:"name"`
		Address string `json:"address"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if len(payload.Name) < 2 || len(payload.Address) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and address are required"})
		return
	}

	if err := h.users.UpdateProfile(user.ID, payload.Name, payload.Address); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save profile"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "profile updated"})
}

func (h *AccountHandler) GetDetails(c *gin.Context) {
	user := currentUser(c, h.users)
	if user == nil {
		return
	}

	creds, err := h.creds.GetByUserID(user.ID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "details not found"})
		return
	}
	c.JSON(http.StatusOK, creds)
}

func (h *AccountHandler) UpdateDetails(c *gin.Context) {
	user := currentUser(c, h.users)
	if user == nil {
		return
	}

	var payload struct {
		KeyID     string `json:"key_id"`
		KeySecret string `json:"key_secret"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	creds, err := h.creds.Upsert(user.ID, payload.KeyID, payload.KeySecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save details"})
		return
	}
	c.JSON(http.StatusOK, creds)
}

// VerifyDetails reports whether the account behind fromEmail has verified
// gateway credentials. Public: the client checks it before offering the pay
// button.
func (h *AccountHandler) VerifyDetails(c *gin.Context) {
	fromEmail := c.Query("fromEmail")
	if fromEmail == "" {
		c.JSON(http.StatusBadRequest, gin.H{"verified": false})
		return
	}

	user, err := h.users.GetByEmail(fromEmail)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"verified": false})
		return
	}

	creds, err := h.creds.GetByUserID(user.ID)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"verified": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"verified": creds.Verified})
}
