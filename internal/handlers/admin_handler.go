package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/passagemingresso/pagseguro-gateway/internal/config"
	"github.com/passagemingresso/pagseguro-gateway/internal/models"
	"github.com/passagemingresso/pagseguro-gateway/internal/services"
)

// AdminHandler manages payment settings and order/event provisioning.
type AdminHandler struct {
	settingsService *services.SettingsService
	orderService    *services.OrderService
	eventService    *services.EventService
	cfg             *config.Config
}

func NewAdminHandler(settingsService *services.SettingsService, orderService *services.OrderService, eventService *services.EventService, cfg *config.Config) *AdminHandler {
	return &AdminHandler{
		settingsService: settingsService,
		orderService:    orderService,
		eventService:    eventService,
		cfg:             cfg,
	}
}

// GetPaymentSettings returns the effective PagSeguro merchant settings.
func (h *AdminHandler) GetPaymentSettings(c *gin.Context) {
	options := h.settingsService.PaymentOptions()
	c.JSON(http.StatusOK, gin.H{
		"email": options.Email,
		"token": options.Token,
	})
}

// UpdatePaymentSettings validates and persists merchant settings. Invalid
// fields keep their previous values.
func (h *AdminHandler) UpdatePaymentSettings(c *gin.Context) {
	var input services.PaymentOptions
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	options, err := h.settingsService.UpdatePaymentOptions(input)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save settings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"email": options.Email,
		"token": options.Token,
	})
}

type createEventRequest struct {
	Name        string    `json:"name" binding:"required"`
	Description string    `json:"description"`
	Date        time.Time `json:"date" binding:"required"`
}

// CreateEvent creates an event orders can be booked against.
func (h *AdminHandler) CreateEvent(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	event, err := h.eventService.CreateEvent(req.Name, req.Description, req.Date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create event"})
		return
	}

	c.JSON(http.StatusCreated, event)
}

type createOrderRequest struct {
	EventID  uuid.UUID `json:"event_id" binding:"required"`
	Currency string    `json:"currency"`
	Items    []struct {
		Name      string  `json:"name" binding:"required"`
		Quantity  int     `json:"quantity" binding:"required"`
		UnitPrice float64 `json:"unit_price"`
	} `json:"items" binding:"required"`
}

// CreateOrder creates a draft order and returns the payment token the buyer
// uses to start checkout.
func (h *AdminHandler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	currency := req.Currency
	if currency == "" {
		currency = h.cfg.Currency
	}

	items := make([]models.OrderItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = models.OrderItem{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}

	order, err := h.orderService.CreateOrder(req.EventID, currency, items)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"order":         order,
		"payment_token": order.PaymentToken,
		"checkout_url":  "/api/v1/checkout/" + order.PaymentToken,
	})
}
