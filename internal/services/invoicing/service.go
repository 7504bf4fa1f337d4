package invoicing

import (
	"errors"
	"time"

	"invoice-billing-backend/internal/models"
	"invoice-billing-backend/internal/repository"
	"invoice-billing-backend/internal/services/billing"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound      = errors.New("invoice not found")
	ErrInvalidStatus = errors.New("invalid invoice status")
)

type Service struct {
	invoiceRepo *repository.InvoiceRepository
	db          *gorm.DB
}

func NewService(invoiceRepo *repository.InvoiceRepository) *Service {
	return &Service{
		invoiceRepo: invoiceRepo,
		db:          invoiceRepo.DB(),
	}
}

// ItemInput accepts quantity/rate as number or numeric string, the way form
// input arrives.
type ItemInput struct {
	Description string         `json:"description"`
	Quantity    billing.Number `json:"quantity"`
	Rate        billing.Number `json:"rate"`
}

type Input struct {
	InvoiceName   string      `json:"invoice_name"`
	InvoiceNumber int         `json:"invoice_number"`
	Currency      string      `json:"currency"`
	Status        string      `json:"status"`
	FromName      string      `json:"from_name"`
	FromEmail     string      `json:"from_email"`
	FromAddress   string      `json:"from_address"`
	ClientName    string      `json:"client_name"`
	ClientEmail   string      `json:"client_email"`
	ClientAddress string      `json:"client_address"`
	Date          time.Time   `json:"-"`
	DueDate       int         `json:"due_date"`
	Note          string      `json:"note"`
	Items         []ItemInput `json:"items"`
}

func (in Input) lineItems() []billing.LineItem {
	items := make([]billing.LineItem, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, billing.LineItem{
			Description: it.Description,
			Quantity:    it.Quantity.Float64(),
			Rate:        it.Rate.Float64(),
		})
	}
	return items
}

// Create persists a new invoice. The stored total is always the grand total
// recomputed from the submitted items; whatever total the client previewed
// is discarded.
func (s *Service) Create(userID uuid.UUID, in Input) (*models.Invoice, error) {
	items := in.lineItems()
	if err := billing.ValidateItems(items); err != nil {
		return nil, err
	}

	status := models.InvoiceStatus(in.Status)
	if in.Status == "" {
		status = models.StatusPending
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	totals := billing.ComputeTotals(items)

	invoice := models.Invoice{
		ID:            uuid.New(),
		InvoiceName:   in.InvoiceName,
		InvoiceNumber: in.InvoiceNumber,
		Currency:      in.Currency,
		Status:        status,
		FromName:      in.FromName,
		FromEmail:     in.FromEmail,
		FromAddress:   in.FromAddress,
		ClientName:    in.ClientName,
		ClientEmail:   in.ClientEmail,
		ClientAddress: in.ClientAddress,
		Date:          in.Date,
		DueDate:       in.DueDate,
		Note:          in.Note,
		Total:         billing.Round2(totals.GrandTotal),
		UserID:        userID,
		CreatedAt:     time.Now(),
	}
	for _, it := range items {
		invoice.Items = append(invoice.Items, models.InvoiceItem{
			ID:          uuid.New(),
			InvoiceID:   invoice.ID,
			Description: it.Description,
			Quantity:    it.Quantity,
			Rate:        it.Rate,
			CreatedAt:   time.Now(),
		})
	}

	if err := s.db.Create(&invoice).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

// Update rewrites the invoice fields and replaces its items wholesale, then
// stores the recomputed total, all in one transaction so the persisted total
// can never drift from the persisted items.
func (s *Service) Update(userID, invoiceID uuid.UUID, in Input) (*models.Invoice, error) {
	items := in.lineItems()
	if err := billing.ValidateItems(items); err != nil {
		return nil, err
	}

	status := models.InvoiceStatus(in.Status)
	if in.Status == "" {
		status = models.StatusPending
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	totals := billing.ComputeTotals(items)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var invoice models.Invoice
		if err := tx.First(&invoice, "id = ? AND user_id = ?", invoiceID, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		updates := map[string]interface{}{
			"invoice_name":   in.InvoiceName,
			"invoice_number": in.InvoiceNumber,
			"currency":       in.Currency,
			"status":         status,
			"from_name":      in.FromName,
			"from_email":     in.FromEmail,
			"from_address":   in.FromAddress,
			"client_name":    in.ClientName,
			"client_email":   in.ClientEmail,
			"client_address": in.ClientAddress,
			"date":           in.Date,
			"due_date":       in.DueDate,
			"note":           in.Note,
			"total":          billing.Round2(totals.GrandTotal),
		}
		if err := tx.Model(&models.Invoice{}).Where("id = ?", invoiceID).Updates(updates).Error; err != nil {
			return err
		}

		if err := tx.Delete(&models.InvoiceItem{}, "invoice_id = ?", invoiceID).Error; err != nil {
			return err
		}
		for _, it := range items {
			row := models.InvoiceItem{
				ID:          uuid.New(),
				InvoiceID:   invoiceID,
				Description: it.Description,
				Quantity:    it.Quantity,
				Rate:        it.Rate,
				CreatedAt:   time.Now(),
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.invoiceRepo.GetByID(invoiceID)
}

func (s *Service) Get(invoiceID uuid.UUID) (*models.Invoice, error) {
	inv, err := s.invoiceRepo.GetByID(invoiceID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return inv, err
}

func (s *Service) ListByUser(userID uuid.UUID) ([]models.Invoice, error) {
	return s.invoiceRepo.ListByUser(userID)
}

func (s *Service) ListByClientEmail(email string) ([]models.Invoice, error) {
	return s.invoiceRepo.ListByClientEmail(email)
}

func (s *Service) Delete(userID, invoiceID uuid.UUID) error {
	res := s.db.Where("id = ? AND user_id = ?", invoiceID, userID).Delete(&models.Invoice{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkPaid is the manual settle action. Idempotent: marking a PAID invoice
// paid again succeeds without touching the row.
func (s *Service) MarkPaid(userID, invoiceID uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := s.db.First(&invoice, "id = ? AND user_id = ?", invoiceID, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if invoice.Status == models.StatusPaid {
		return &invoice, nil
	}
	res := s.db.Model(&models.Invoice{}).
		Where("id = ? AND status = ?", invoiceID, models.StatusPending).
		Update("status", models.StatusPaid)
	if res.Error != nil {
		return nil, res.Error
	}
	invoice.Status = models.StatusPaid
	return &invoice, nil
}

type DashboardStats struct {
	TotalInvoices int64   `json:"total_invoices"`
	TotalRevenue  float64 `json:"total_revenue"`
	PaidCount     int64   `json:"paid_count"`
	PaidSum       float64 `json:"paid_sum"`
	PendingCount  int64   `json:"pending_count"`
	PendingSum    float64 `json:"pending_sum"`
}

type statRow struct {
	Status models.InvoiceStatus
	Count  int64
	Sum    float64
}

// Stats aggregates the user's invoices by status for the dashboard.
func (s *Service) Stats(userID uuid.UUID) (DashboardStats, error) {
	var stats DashboardStats
	var rows []statRow

	err := s.db.Model(&models.Invoice{}).
		Where("user_id = ?", userID).
		Select("status, COUNT(*) as count, COALESCE(SUM(total),0) as sum").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return stats, err
	}

	for _, r := range rows {
		stats.TotalInvoices += r.Count
		stats.TotalRevenue += r.Sum
		switch r.Status {
		case models.StatusPaid:
			stats.PaidCount = r.Count
			stats.PaidSum = r.Sum
		case models.StatusPending:
			stats.PendingCount = r.Count
			stats.PendingSum = r.Sum
		}
	}
	return stats, nil
}
