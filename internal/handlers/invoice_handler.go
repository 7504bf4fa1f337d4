package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"invoice-billing-backend/internal/pdf"
	"invoice-billing-backend/internal/repository"
	"invoice-billing-backend/internal/services/billing"
	"invoice-billing-backend/internal/services/invoicing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type InvoiceHandler struct {
	service *invoicing.Service
	users   *repository.UserRepository
}

func NewInvoiceHandler(service *invoicing.Service, users *repository.UserRepository) *InvoiceHandler {
	return &InvoiceHandler{service: service, users: users}
}

type invoicePayload struct {
	invoicing.Input
	Date string `json:"date"`
}

func (h *InvoiceHandler) Create(c *gin.Context) {
	user := currentUser(c, h.users)
	if user == nil {
		return
	}

	var payload invoicePayload
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if payload.InvoiceName == "" || len(payload.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invoice name and items are required"})
		return
	}

	date, err := time.Parse("2006-01-02", payload.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format, expected yyyy-mm-dd"})
		return
	}
	payload.Input.Date = date

	invoice, err := h.service.Create(user.ID, payload.Input)
	if err != nil {
		if errors.Is(err, billing.ErrInvalidLineItem) || errors.Is(err, invoicing.ErrInvalidStatus) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create invoice"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "invoice created", "invoice": invoice})
}

func (h *InvoiceHandler) Update(c *gin.Context) {
	user := currentUser(c, h.users)
	if user == nil {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice ID"})
		return
	}

	var payload invoicePayload
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	date, err := time.Parse("2006-01-02", payload.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format, expected yyyy-mm-dd"})
		return
	}
	payload.Input.Date = date

	invoice, err := h.service.Update(user.ID, id, payload.Input)
	if err != nil {
		switch {
		case errors.Is(err, invoicing.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
		case errors.Is(err, billing.ErrInvalidLineItem), errors.Is(err, invoicing.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update invoice"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "invoice updated", "invoice": invoice})
}

func (h *InvoiceHandler) List(c *gin.Context) {
	user := currentUser(c, h.users)
	if user == nil {
		return
	}

	invoices, err := h.service.ListByUser(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list invoices"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoices": invoices})
}

func (h *InvoiceHandler) ListByEmail(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}
	invoices, err := h.service.ListByClientEmail(email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list invoices"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoices": invoices})
}

func (h *InvoiceHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice ID"})
		return
	}

	invoice, err := h.service.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
		return
	}

	// Totals are recomputed for display; the stored total and this grand
	// total agree by construction.
	totals := billing.ComputeTotals(billing.ItemsFromModel(invoice.Items))
	c.JSON(http.StatusOK, gin.H{"invoice": invoice, "totals": totals})
}

func (h *InvoiceHandler) Delete(c *gin.Context) {
	user := currentUser(c, h.users)
	if user == nil {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice ID"})
		return
	}

	if err := h.service.Delete(user.ID, id); err != nil {
		if errors.Is(err, invoicing.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete invoice"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "invoice deleted"})
}

func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	user := currentUser(c, h.users)
	if user == nil {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice ID"})
		return
	}

	invoice, err := h.service.MarkPaid(user.ID, id)
	if err != nil {
		if errors.Is(err, invoicing.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark invoice paid"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "invoice marked paid", "invoice": invoice})
}

func (h *InvoiceHandler) PDF(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice ID"})
		return
	}

	invoice, err := h.service.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
		return
	}

	totals := billing.ComputeTotals(billing.ItemsFromModel(invoice.Items))
	out, err := pdf.RenderInvoice(invoice, totals)
	if err != nil {
		log.Println("failed to render invoice pdf:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render pdf"})
		return
	}

	c.Header("Content-Disposition", "inline")
	c.Data(http.StatusOK, "application/pdf", out)
}

func (h *InvoiceHandler) Stats(c *gin.Context) {
	user := currentUser(c, h.users)
	if user == nil {
		return
	}

	stats, err := h.service.Stats(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
