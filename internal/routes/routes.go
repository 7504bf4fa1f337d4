package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"invoice-billing-backend/internal/config"
	handler "invoice-billing-backend/internal/handlers"
	"invoice-billing-backend/internal/repository"
	"invoice-billing-backend/internal/services/invoicing"
	"invoice-billing-backend/internal/services/payment"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	invoiceRepo := repository.NewInvoiceRepository(db)
	userRepo := repository.NewUserRepository(db)
	credsRepo := repository.NewCredentialsRepository(db)

	invoicingService := invoicing.NewService(invoiceRepo)
	gateway := payment.NewGatewayClient(cfg.GatewayBaseURL)
	paymentService := payment.NewService(db, gateway, cfg.GatewayTimeout)

	invoiceHandler := handler.NewInvoiceHandler(invoicingService, userRepo)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	accountHandler := handler.NewAccountHandler(userRepo, credsRepo)
	adminHandler := handler.NewAdminHandler(userRepo, credsRepo)

	api := r.Group("/api")

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Invoice routes
	invoices := api.Group("/invoices")
	{
		invoices.POST("", invoiceHandler.Create)
		invoices.GET("", invoiceHandler.List)
		invoices.GET("/by-email", invoiceHandler.ListByEmail)
		invoices.GET("/:id", invoiceHandler.Get)
		invoices.PUT("/:id", invoiceHandler.Update)
		invoices.DELETE("/:id", invoiceHandler.Delete)
		invoices.POST("/:id/mark-paid", invoiceHandler.MarkPaid)
		invoices.GET("/:id/pdf", invoiceHandler.PDF)
	}

	// Payment gateway routes
	payments := api.Group("/payments")
	payments.POST("/order", paymentHandler.CreateOrder)
	payments.POST("/verify", paymentHandler.Verify)

	// Account routes
	api.PUT("/profile", accountHandler.UpdateProfile)
	details := api.Group("/details")
	details.GET("/me", accountHandler.GetDetails)
	details.PUT("/me", accountHandler.UpdateDetails)
	details.GET("/verify", accountHandler.VerifyDetails)

	// Admin routes
	admin := api.Group("/admin")
	admin.GET("/users", adminHandler.ListUsers)
	admin.PUT("/user/role", adminHandler.UpdateRole)
	admin.PUT("/user/verify", adminHandler.SetVerified)
	admin.DELETE("/user/:id", adminHandler.DeleteUser)

	// Dashboard
	api.GET("/dashboard/stats", invoiceHandler.Stats)
}
