package payment

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math"
	"time"

	"invoice-billing-backend/internal/models"
	"invoice-billing-backend/internal/services/billing"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service struct {
	db      *gorm.DB
	gateway *GatewayClient
	timeout time.Duration
}

func NewService(db *gorm.DB, gateway *GatewayClient, timeout time.Duration) *Service {
	return &Service{db: db, gateway: gateway, timeout: timeout}
}

// OrderResult is what the client needs to open the gateway's hosted
// checkout: the order plus the owner's public key id. The secret never
// leaves the server.
type OrderResult struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"key"`
	Reused   bool   `json:"reused"`
}

// CreateOrder mints (or reuses) a gateway order for the invoice's grand
// total. The amount is always recomputed server-side from the invoice's
// items; client-supplied totals are never trusted here.
func (s *Service) CreateOrder(ctx context.Context, invoiceID uuid.UUID) (*OrderResult, error) {
	var invoice models.Invoice
	err := s.db.Preload("Items").First(&invoice, "id = ?", invoiceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvoiceNotFound
	}
	if err != nil {
		return nil, err
	}

	if invoice.Status == models.StatusPaid {
		return nil, ErrAlreadyPaid
	}

	totals := billing.ComputeTotals(billing.ItemsFromModel(invoice.Items))
	grand := billing.Round2(totals.GrandTotal)
	if grand <= 0 || math.IsNaN(grand) || math.IsInf(grand, 0) {
		return nil, ErrInvalidAmount
	}
	amount := billing.MinorUnits(grand)

	creds, err := s.ownerCredentials(invoice.UserID)
	if err != nil {
		return nil, err
	}
	if !creds.Configured() {
		return nil, ErrMissingCredentials
	}

	// Reuse a still-open order for the same amount instead of piling up
	// orphaned orders at the gateway.
	var open models.PaymentOrder
	err = s.db.Where("invoice_id = ? AND status = ?", invoice.ID, models.OrderStatusCreated).
		Order("created_at DESC").First(&open).Error
	if err == nil {
		if open.AmountMinorUnits == amount &&
			invoice.PendingOrderToken != nil && *invoice.PendingOrderToken == open.GatewayOrderID {
			s.audit(invoice.ID, "order_reused", map[string]interface{}{
				"gateway_order_id": open.GatewayOrderID,
				"amount":           amount,
			})
			return &OrderResult{
				OrderID:  open.GatewayOrderID,
				Amount:   open.AmountMinorUnits,
				Currency: open.Currency,
				KeyID:    creds.KeyID,
				Reused:   true,
			}, nil
		}
		// Amount drifted since the order was minted; retire it.
		s.db.Model(&models.PaymentOrder{}).
			Where("invoice_id = ? AND status = ?", invoice.ID, models.OrderStatusCreated).
			Update("status", models.OrderStatusSuperseded)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	order, err := s.gateway.CreateOrder(callCtx, creds.KeyID, creds.KeySecret, amount, invoice.Currency, invoice.ID.String())
	if err != nil {
		return nil, err
	}

	record := models.PaymentOrder{
		ID:               uuid.New(),
		InvoiceID:        invoice.ID,
		GatewayOrderID:   order.ID,
		AmountMinorUnits: order.Amount,
		Currency:         order.Currency,
		Status:           models.OrderStatusCreated,
		CreatedAt:        time.Now(),
	}
	if err := s.db.Create(&record).Error; err != nil {
		return nil, err
	}

	// The invoice's pending token binds future callbacks to this order,
	// overwriting any prior one.
	if err := s.db.Model(&models.Invoice{}).
		Where("id = ?", invoice.ID).
		Update("pending_order_token", order.ID).Error; err != nil {
		return nil, err
	}

	s.audit(invoice.ID, "order_created", map[string]interface{}{
		"gateway_order_id": order.ID,
		"amount":           order.Amount,
		"currency":         order.Currency,
	})

	return &OrderResult{
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		KeyID:    creds.KeyID,
	}, nil
}

// Callback is the untrusted settlement notification relayed by the client
// after the hosted checkout completes.
type Callback struct {
	GatewayOrderID string `json:"gateway_order_id"`
	PaymentID      string `json:"payment_id"`
	Signature      string `json:"signature"`
}

// VerifyOutcome classifies a verification attempt. Invalid callbacks are an
// outcome, not an error; errors are reserved for infrastructure failures.
// The reason never includes the secret or the computed signature.
type VerifyOutcome struct {
	Valid       bool   `json:"valid"`
	AlreadyPaid bool   `json:"already_paid"`
	Reason      string `json:"reason,omitempty"`
}

// VerifyCallback authenticates a settlement callback and, on success, moves
// the invoice PENDING -> PAID exactly once. Retries and concurrent calls
// with the same valid callback are harmless no-ops.
func (s *Service) VerifyCallback(invoiceID uuid.UUID, cb Callback) (VerifyOutcome, error) {
	var invoice models.Invoice
	err := s.db.First(&invoice, "id = ?", invoiceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return VerifyOutcome{Reason: "invoice_not_found"}, nil
	}
	if err != nil {
		return VerifyOutcome{}, err
	}

	// Bind the callback to this invoice's outstanding order before touching
	// the signature; a valid signature for some other order must not pay
	// this invoice.
	if invoice.PendingOrderToken == nil || *invoice.PendingOrderToken != cb.GatewayOrderID {
		s.audit(invoice.ID, "order_mismatch", map[string]interface{}{
			"callback_order_id": cb.GatewayOrderID,
		})
		log.Printf("payment verify: order mismatch for invoice %s", invoice.ID)
		return VerifyOutcome{Reason: "order_mismatch"}, nil
	}

	creds, err := s.ownerCredentials(invoice.UserID)
	if err != nil && !errors.Is(err, ErrMissingCredentials) {
		return VerifyOutcome{}, err
	}
	if creds == nil || creds.KeySecret == "" {
		return VerifyOutcome{Reason: "missing_credentials"}, nil
	}

	if !signatureMatches(creds.KeySecret, cb.GatewayOrderID, cb.PaymentID, cb.Signature) {
		s.audit(invoice.ID, "signature_mismatch", map[string]interface{}{
			"callback_order_id": cb.GatewayOrderID,
			"payment_id":        cb.PaymentID,
		})
		log.Printf("payment verify: signature mismatch for invoice %s", invoice.ID)
		return VerifyOutcome{Reason: "signature_mismatch"}, nil
	}

	if invoice.Status == models.StatusPaid {
		return VerifyOutcome{Valid: true, AlreadyPaid: true}, nil
	}

	// Compare-and-set on status: of two concurrent verifies only one row
	// update wins, the loser sees zero rows affected and reports success
	// without repeating side effects.
	res := s.db.Model(&models.Invoice{}).
		Where("id = ? AND status = ?", invoice.ID, models.StatusPending).
		Update("status", models.StatusPaid)
	if res.Error != nil {
		return VerifyOutcome{}, res.Error
	}
	if res.RowsAffected == 0 {
		return VerifyOutcome{Valid: true, AlreadyPaid: true}, nil
	}

	now := time.Now()
	s.db.Model(&models.PaymentOrder{}).
		Where("gateway_order_id = ?", cb.GatewayOrderID).
		Updates(map[string]interface{}{
			"status":      models.OrderStatusPaid,
			"resolved_at": now,
		})

	s.audit(invoice.ID, "verify_ok", map[string]interface{}{
		"gateway_order_id": cb.GatewayOrderID,
		"payment_id":       cb.PaymentID,
	})

	return VerifyOutcome{Valid: true}, nil
}

func (s *Service) ownerCredentials(userID uuid.UUID) (*models.GatewayCredentials, error) {
	var creds models.GatewayCredentials
	err := s.db.First(&creds, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMissingCredentials
	}
	if err != nil {
		return nil, err
	}
	return &creds, nil
}

func (s *Service) audit(invoiceID uuid.UUID, action string, details map[string]interface{}) {
	detailsJSON, _ := json.Marshal(details)
	entry := models.PaymentAuditLog{
		ID:        uuid.New(),
		InvoiceID: invoiceID,
		Action:    action,
		Details:   detailsJSON,
		CreatedAt: time.Now(),
	}
	if err := s.db.Create(&entry).Error; err != nil {
		log.Println("failed to write payment audit log:", err)
	}
}
