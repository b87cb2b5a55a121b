package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/passagemingresso/pagseguro-gateway/internal/config"
	"github.com/passagemingresso/pagseguro-gateway/internal/handlers"
	"github.com/passagemingresso/pagseguro-gateway/internal/middleware"
	"github.com/passagemingresso/pagseguro-gateway/internal/models"
	"github.com/passagemingresso/pagseguro-gateway/internal/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.New()

	// Initialize database
	db, err := models.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Run migrations
	if err := models.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize Redis
	redisClient := models.InitRedis(cfg)
	defer redisClient.Close()

	// Initialize services
	settingsService := services.NewSettingsService(db, cfg)
	orderService := services.NewOrderService(db, redisClient)
	eventService := services.NewEventService(db)
	qrService := services.NewQRService(cfg)
	pagseguroProvider := services.NewPagSeguroProvider(cfg, settingsService)

	// Setup Gin router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg))
	router.Use(middleware.RateLimiter(redisClient, cfg))

	// Initialize handlers
	checkoutHandler := handlers.NewCheckoutHandler(orderService, pagseguroProvider, cfg)
	gatewayHandler := handlers.NewGatewayHandler(orderService, pagseguroProvider, cfg)
	ticketHandler := handlers.NewTicketHandler(orderService, qrService)
	adminHandler := handlers.NewAdminHandler(settingsService, orderService, eventService, cfg)

	// Health check outside API group (no /api/v1 prefix)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// Setup routes
	api := router.Group("/api/v1")
	{
		// Health check also available under /api/v1/health for compatibility
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "healthy"})
		})

		// Catch-all OPTIONS handler for CORS preflight requests
		api.OPTIONS("/*path", func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})

		// Buyer-facing checkout redirect
		api.GET("/checkout/:token", checkoutHandler.InitiateCheckout)

		// Shared tickets endpoint. The gateway dispatcher handles PagSeguro
		// buyer returns (GET) and async notifications (POST) and passes
		// everything else on to the ticket-access handler.
		api.GET("/tickets", gatewayHandler.Dispatch, ticketHandler.AccessTickets)
		api.POST("/tickets", gatewayHandler.Dispatch, ticketHandler.AccessTickets)
		api.GET("/tickets/:access_token/qr.pdf", ticketHandler.TicketQRPDF)

		// Admin routes
		admin := api.Group("/admin")
		admin.Use(middleware.Auth(cfg))
		admin.Use(middleware.AdminOnly())
		{
			admin.GET("/settings/pagseguro", adminHandler.GetPaymentSettings)
			admin.PUT("/settings/pagseguro", adminHandler.UpdatePaymentSettings)
			admin.POST("/events", adminHandler.CreateEvent)
			admin.POST("/orders", adminHandler.CreateOrder)
		}
	}

	// Start server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
