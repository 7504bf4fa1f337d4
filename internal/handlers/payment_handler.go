package handlers

import (
	"errors"
	"log"
	"net/http"

	"invoice-billing-backend/internal/services/payment"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PaymentHandler struct {
	service *payment.Service
}

func NewPaymentHandler(service *payment.Service) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// CreateOrder mints a gateway order for the invoice's server-computed grand
// total and returns what the hosted checkout needs. Never surfaces internal
// errors or the owner's secret.
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	var payload struct {
		InvoiceID string `json:"invoice_id"`
	}
	if err := c.BindJSON(&payload); err != nil || payload.InvoiceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid invoice_id"})
		return
	}

	invoiceID, err := uuid.Parse(payload.InvoiceID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid invoice_id"})
		return
	}

	order, err := h.service.CreateOrder(c.Request.Context(), invoiceID)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrInvoiceNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
		case errors.Is(err, payment.ErrAlreadyPaid):
			// Not a failure: the invoice is settled, there is nothing to pay.
			c.JSON(http.StatusOK, gin.H{"already_paid": true})
		case errors.Is(err, payment.ErrInvalidAmount):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice amount"})
		case errors.Is(err, payment.ErrMissingCredentials):
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing gateway credentials"})
		case errors.Is(err, payment.ErrGatewayTimeout):
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": "gateway timeout"})
		case errors.Is(err, payment.ErrGatewayError):
			c.JSON(http.StatusBadGateway, gin.H{"error": "gateway error"})
		default:
			log.Println("create order failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, order)
}

// Verify authenticates a settlement callback. Invalid callbacks get a
// classification and a generic message; the computed signature is never
// echoed back.
func (h *PaymentHandler) Verify(c *gin.Context) {
	var payload struct {
		InvoiceID      string `json:"invoice_id"`
		GatewayOrderID string `json:"gateway_order_id"`
		PaymentID      string `json:"payment_id"`
		Signature      string `json:"signature"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid payload"})
		return
	}
	if payload.InvoiceID == "" || payload.GatewayOrderID == "" || payload.PaymentID == "" || payload.Signature == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "missing required fields"})
		return
	}

	invoiceID, err := uuid.Parse(payload.InvoiceID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid invoice_id"})
		return
	}

	outcome, err := h.service.VerifyCallback(invoiceID, payment.Callback{
		GatewayOrderID: payload.GatewayOrderID,
		PaymentID:      payload.PaymentID,
		Signature:      payload.Signature,
	})
	if err != nil {
		log.Println("verify callback failed:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal server error"})
		return
	}

	if !outcome.Valid {
		switch outcome.Reason {
		case "signature_mismatch":
			c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "signature mismatch"})
		case "missing_credentials":
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "missing gateway credentials"})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid order ID or invoice not found"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "already_paid": outcome.AlreadyPaid})
}
