package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"invoice-billing-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T, name string) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("raw db: %v", err)
	}
	// sqlite cannot take concurrent writers
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(
		&models.User{}, &models.GatewayCredentials{},
		&models.Invoice{}, &models.InvoiceItem{},
		&models.PaymentOrder{}, &models.PaymentAuditLog{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedOwner(t *testing.T, db *gorm.DB, secret string) *models.User {
	user := models.User{ID: uuid.New(), Email: fmt.Sprintf("%s@example.com", uuid.NewString()[:8]), Role: models.RoleUser}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if secret != "" {
		creds := models.GatewayCredentials{ID: uuid.New(), UserID: user.ID, KeyID: "rzp_test_key", KeySecret: secret, Verified: true}
		if err := db.Create(&creds).Error; err != nil {
			t.Fatalf("seed creds: %v", err)
		}
	}
	return &user
}

func seedInvoice(t *testing.T, db *gorm.DB, userID uuid.UUID, items []models.InvoiceItem) *models.Invoice {
	inv := models.Invoice{
		ID:          uuid.New(),
		InvoiceName: "Test Invoice",
		Currency:    "INR",
		Status:      models.StatusPending,
		UserID:      userID,
	}
	for i := range items {
		items[i].ID = uuid.New()
		items[i].InvoiceID = inv.ID
	}
	inv.Items = items
	if err := db.Create(&inv).Error; err != nil {
		t.Fatalf("seed invoice: %v", err)
	}
	return &inv
}

func standardItems() []models.InvoiceItem {
	return []models.InvoiceItem{
		{Description: "Design work", Quantity: 2, Rate: 100},
		{Description: "Hosting", Quantity: 1, Rate: 50},
	}
}

func fakeGateway(hits *int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(hits, 1)
		var req struct {
			Amount   int64  `json:"amount"`
			Currency string `json:"currency"`
			Receipt  string `json:"receipt"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":       fmt.Sprintf("order_fake_%d", n),
			"amount":   req.Amount,
			"currency": req.Currency,
		})
	}))
}

func TestCreateOrderHappyPath(t *testing.T) {
	db := setupTestDB(t, t.Name())
	var hits int32
	ts := fakeGateway(&hits)
	defer ts.Close()

	svc := NewService(db, NewGatewayClient(ts.URL), 5*time.Second)
	owner := seedOwner(t, db, "shh")
	inv := seedInvoice(t, db, owner.ID, standardItems())

	res, err := svc.CreateOrder(context.Background(), inv.ID)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	// 250 + 18% GST = 295.00 -> 29500 paise, recomputed server-side
	if res.Amount != 29500 {
		t.Fatalf("expected 29500 minor units got %d", res.Amount)
	}
	if res.KeyID != "rzp_test_key" {
		t.Fatalf("expected owner key id, got %q", res.KeyID)
	}
	if res.Reused {
		t.Fatalf("first order must not be flagged reused")
	}

	var got models.Invoice
	if err := db.First(&got, "id = ?", inv.ID).Error; err != nil {
		t.Fatalf("reload invoice: %v", err)
	}
	if got.PendingOrderToken == nil || *got.PendingOrderToken != res.OrderID {
		t.Fatalf("pending order token not persisted")
	}

	var count int64
	db.Model(&models.PaymentOrder{}).Where("invoice_id = ?", inv.ID).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 payment order got %d", count)
	}
}

func TestCreateOrderInvalidAmount(t *testing.T) {
	db := setupTestDB(t, t.Name())
	var hits int32
	ts := fakeGateway(&hits)
	defer ts.Close()

	svc := NewService(db, NewGatewayClient(ts.URL), 5*time.Second)
	owner := seedOwner(t, db, "shh")
	inv := seedInvoice(t, db, owner.ID, nil) // no items, total 0

	if _, err := svc.CreateOrder(context.Background(), inv.ID); err != ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount got %v", err)
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatalf("gateway must not be called for invalid amounts")
	}
}

func TestCreateOrderMissingCredentials(t *testing.T) {
	db := setupTestDB(t, t.Name())
	var hits int32
	ts := fakeGateway(&hits)
	defer ts.Close()

	svc := NewService(db, NewGatewayClient(ts.URL), 5*time.Second)
	owner := seedOwner(t, db, "") // no credentials
	inv := seedInvoice(t, db, owner.ID, standardItems())

	if _, err := svc.CreateOrder(context.Background(), inv.ID); err != ErrMissingCredentials {
		t.Fatalf("expected ErrMissingCredentials got %v", err)
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatalf("gateway must not be called without credentials")
	}
}

func TestCreateOrderAlreadyPaid(t *testing.T) {
	db := setupTestDB(t, t.Name())
	var hits int32
	ts := fakeGateway(&hits)
	defer ts.Close()

	svc := NewService(db, NewGatewayClient(ts.URL), 5*time.Second)
	owner := seedOwner(t, db, "shh")
	inv := seedInvoice(t, db, owner.ID, standardItems())
	db.Model(&models.Invoice{}).Where("id = ?", inv.ID).Update("status", models.StatusPaid)

	if _, err := svc.CreateOrder(context.Background(), inv.ID); err != ErrAlreadyPaid {
		t.Fatalf("expected ErrAlreadyPaid got %v", err)
	}
}

func TestCreateOrderNotFound(t *testing.T) {
	db := setupTestDB(t, t.Name())
	var hits int32
	ts := fakeGateway(&hits)
	defer ts.Close()

	svc := NewService(db, NewGatewayClient(ts.URL), 5*time.Second)
	if _, err := svc.CreateOrder(context.Background(), uuid.New()); err != ErrInvoiceNotFound {
		t.Fatalf("expected ErrInvoiceNotFound got %v", err)
	}
}

func TestCreateOrderReusesOpenOrder(t *testing.T) {
	db := setupTestDB(t, t.Name())
	var hits int32
	ts := fakeGateway(&hits)
	defer ts.Close()

	svc := NewService(db, NewGatewayClient(ts.URL), 5*time.Second)
	owner := seedOwner(t, db, "shh")
	inv := seedInvoice(t, db, owner.ID, standardItems())

	first, err := svc.CreateOrder(context.Background(), inv.ID)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	second, err := svc.CreateOrder(context.Background(), inv.ID)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if !second.Reused || second.OrderID != first.OrderID {
		t.Fatalf("expected the open order to be reused")
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("gateway should be hit once, got %d", hits)
	}
}

func TestCreateOrderSupersedesWhenAmountDrifts(t *testing.T) {
	db := setupTestDB(t, t.Name())
	var hits int32
	ts := fakeGateway(&hits)
	defer ts.Close()

	svc := NewService(db, NewGatewayClient(ts.URL), 5*time.Second)
	owner := seedOwner(t, db, "shh")
	inv := seedInvoice(t, db, owner.ID, standardItems())

	first, err := svc.CreateOrder(context.Background(), inv.ID)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}

	// The invoice was edited since the order was minted.
	db.Model(&models.InvoiceItem{}).
		Where("invoice_id = ? AND description = ?", inv.ID, "Hosting").
		Update("rate", 500)

	second, err := svc.CreateOrder(context.Background(), inv.ID)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if second.Reused || second.OrderID == first.OrderID {
		t.Fatalf("expected a fresh order after amount change")
	}
	// 2*100 + 1*500 = 700, +18% = 826.00
	if second.Amount != 82600 {
		t.Fatalf("expected 82600 minor units got %d", second.Amount)
	}

	var stale models.PaymentOrder
	if err := db.First(&stale, "gateway_order_id = ?", first.OrderID).Error; err != nil {
		t.Fatalf("reload first order: %v", err)
	}
	if stale.Status != models.OrderStatusSuperseded {
		t.Fatalf("expected first order superseded, got %s", stale.Status)
	}
}

func TestCreateOrderGatewayTimeout(t *testing.T) {
	db := setupTestDB(t, t.Name())
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer ts.Close()

	svc := NewService(db, NewGatewayClient(ts.URL), 50*time.Millisecond)
	owner := seedOwner(t, db, "shh")
	inv := seedInvoice(t, db, owner.ID, standardItems())

	if _, err := svc.CreateOrder(context.Background(), inv.ID); err != ErrGatewayTimeout {
		t.Fatalf("expected ErrGatewayTimeout got %v", err)
	}
}

func paidCallback(orderID, secret string) Callback {
	return Callback{
		GatewayOrderID: orderID,
		PaymentID:      "pay_001",
		Signature:      Signature(secret, orderID, "pay_001"),
	}
}

func orderFor(t *testing.T, svc *Service, invID uuid.UUID) string {
	res, err := svc.CreateOrder(context.Background(), invID)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return res.OrderID
}

func TestVerifyCallbackValidAndIdempotent(t *testing.T) {
	db := setupTestDB(t, t.Name())
	var hits int32
	ts := fakeGateway(&hits)
	defer ts.Close()

	svc := NewService(db, NewGatewayClient(ts.URL), 5*time.Second)
	owner := seedOwner(t, db, "shh")
	inv := seedInvoice(t, db, owner.ID, standardItems())
	orderID := orderFor(t, svc, inv.ID)
	cb := paidCallback(orderID, "shh")

	outcome, err := svc.VerifyCallback(inv.ID, cb)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !outcome.Valid || outcome.AlreadyPaid {
		t.Fatalf("expected first verify to transition, got %+v", outcome)
	}

	var got models.Invoice
	db.First(&got, "id = ?", inv.ID)
	if got.Status != models.StatusPaid {
		t.Fatalf("expected PAID got %s", got.Status)
	}

	// Retry with the same callback: success, no new transition.
	outcome, err = svc.VerifyCallback(inv.ID, cb)
	if err != nil {
		t.Fatalf("verify retry: %v", err)
	}
	if !outcome.Valid || !outcome.AlreadyPaid {
		t.Fatalf("expected idempotent success, got %+v", outcome)
	}

	var order models.PaymentOrder
	db.First(&order, "gateway_order_id = ?", orderID)
	if order.Status != models.OrderStatusPaid || order.ResolvedAt == nil {
		t.Fatalf("expected order resolved, got %+v", order)
	}
}

func TestVerifyCallbackSignatureBitFlip(t *testing.T) {
	db := setupTestDB(t, t.Name())
	var hits int32
	ts := fakeGateway(&hits)
	defer ts.Close()

	svc := NewService(db, NewGatewayClient(ts.URL), 5*time.Second)
	owner := seedOwner(t, db, "shh")
	inv := seedInvoice(t, db, owner.ID, standardItems())
	orderID := orderFor(t, svc, inv.ID)
	cb := paidCallback(orderID, "shh")

	// Corrupt a single hex digit.
	sig := []byte(cb.Signature)
	if sig[0] == '0' {
		sig[0] = '1'
	} else {
		sig[0] = '0'
	}
	cb.Signature = string(sig)

	outcome, err := svc.VerifyCallback(inv.ID, cb)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if outcome.Valid || outcome.Reason != "signature_mismatch" {
		t.Fatalf("expected signature_mismatch, got %+v", outcome)
	}

	var got models.Invoice
	db.First(&got, "id = ?", inv.ID)
	if got.Status != models.StatusPending {
		t.Fatalf("status must stay PENDING, got %s", got.Status)
	}
}

func TestVerifyCallbackOrderMismatch(t *testing.T) {
	db := setupTestDB(t, t.Name())
	var hits int32
	ts := fakeGateway(&hits)
	defer ts.Close()

	svc := NewService(db, NewGatewayClient(ts.URL), 5*time.Second)
	owner := seedOwner(t, db, "shh")
	inv := seedInvoice(t, db, owner.ID, standardItems())
	orderFor(t, svc, inv.ID)

	// Signature is genuinely valid for some other order, but the invoice's
	// stored token does not match -> cross-invoice replay must fail.
	otherOrder := "order_other"
	cb := Callback{
		GatewayOrderID: otherOrder,
		PaymentID:      "pay_001",
		Signature:      Signature("shh", otherOrder, "pay_001"),
	}

	outcome, err := svc.VerifyCallback(inv.ID, cb)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if outcome.Valid || outcome.Reason != "order_mismatch" {
		t.Fatalf("expected order_mismatch, got %+v", outcome)
	}

	var got models.Invoice
	db.First(&got, "id = ?", inv.ID)
	if got.Status != models.StatusPending {
		t.Fatalf("status must stay PENDING, got %s", got.Status)
	}
}

func TestVerifyCallbackMissingSecret(t *testing.T) {
	db := setupTestDB(t, t.Name())
	var hits int32
	ts := fakeGateway(&hits)
	defer ts.Close()

	svc := NewService(db, NewGatewayClient(ts.URL), 5*time.Second)
	owner := seedOwner(t, db, "")
	inv := seedInvoice(t, db, owner.ID, standardItems())

	// Plant a pending token directly since order creation requires creds.
	token := "order_manual"
	db.Model(&models.Invoice{}).Where("id = ?", inv.ID).Update("pending_order_token", token)

	outcome, err := svc.VerifyCallback(inv.ID, Callback{
		GatewayOrderID: token,
		PaymentID:      "pay_001",
		Signature:      Signature("whatever", token, "pay_001"),
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if outcome.Valid || outcome.Reason != "missing_credentials" {
		t.Fatalf("expected missing_credentials, got %+v", outcome)
	}
}

func TestVerifyCallbackUnknownInvoice(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := NewService(db, NewGatewayClient("http://unused"), 5*time.Second)

	outcome, err := svc.VerifyCallback(uuid.New(), Callback{GatewayOrderID: "x", PaymentID: "y", Signature: "z"})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if outcome.Valid || outcome.Reason != "invoice_not_found" {
		t.Fatalf("expected invoice_not_found, got %+v", outcome)
	}
}

func TestVerifyCallbackConcurrent(t *testing.T) {
	db := setupTestDB(t, t.Name())
	var hits int32
	ts := fakeGateway(&hits)
	defer ts.Close()

	svc := NewService(db, NewGatewayClient(ts.URL), 5*time.Second)
	owner := seedOwner(t, db, "shh")
	inv := seedInvoice(t, db, owner.ID, standardItems())
	orderID := orderFor(t, svc, inv.ID)
	cb := paidCallback(orderID, "shh")

	var wg sync.WaitGroup
	outcomes := make([]VerifyOutcome, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i], errs[i] = svc.VerifyCallback(inv.ID, cb)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 2; i++ {
		if errs[i] != nil {
			t.Fatalf("verify %d: %v", i, errs[i])
		}
		if !outcomes[i].Valid {
			t.Fatalf("verify %d should succeed, got %+v", i, outcomes[i])
		}
	}

	var got models.Invoice
	db.First(&got, "id = ?", inv.ID)
	if got.Status != models.StatusPaid {
		t.Fatalf("expected PAID got %s", got.Status)
	}

	// Exactly one effective transition: one verify_ok side-effect marker.
	var okCount int64
	db.Model(&models.PaymentAuditLog{}).
		Where("invoice_id = ? AND action = ?", inv.ID, "verify_ok").
		Count(&okCount)
	if okCount != 1 {
		t.Fatalf("expected exactly 1 verify_ok audit entry got %d", okCount)
	}
}
