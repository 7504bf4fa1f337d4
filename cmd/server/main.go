package main

import (
	"log"
	"time"

	"invoice-billing-backend/internal/config"
	"invoice-billing-backend/internal/models"
	"invoice-billing-backend/internal/routes"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on system env")
	}

	cfg := config.Load()
	db := config.InitDB(cfg)

	db.AutoMigrate(
		&models.User{},
		&models.GatewayCredentials{},
		&models.Invoice{},
		&models.InvoiceItem{},
		&models.PaymentOrder{},
		&models.PaymentAuditLog{},
	)

	r := gin.Default()
	// CORS config
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-User-Email", "X-User-Id"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, db, cfg)

	r.Run(":" + cfg.Port)
}
