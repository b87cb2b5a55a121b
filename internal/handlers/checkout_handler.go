package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/passagemingresso/pagseguro-gateway/internal/config"
	"github.com/passagemingresso/pagseguro-gateway/internal/models"
	"github.com/passagemingresso/pagseguro-gateway/internal/services"
)

// CheckoutHandler starts a hosted-checkout session for a draft order and
// sends the buyer to PagSeguro.
type CheckoutHandler struct {
	orders   PlatformGateway
	provider services.PaymentProvider
	cfg      *config.Config
}

func NewCheckoutHandler(orders PlatformGateway, provider services.PaymentProvider, cfg *config.Config) *CheckoutHandler {
	return &CheckoutHandler{
		orders:   orders,
		provider: provider,
		cfg:      cfg,
	}
}

// InitiateCheckout builds the PagSeguro order for the payment token and
// redirects the buyer to the hosted payment page.
func (h *CheckoutHandler) InitiateCheckout(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Payment token is required"})
		return
	}

	order, err := h.orders.GetOrderByToken(token)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	paymentURL, err := h.provider.CreateCheckout(order, c.Request.Host)
	if err != nil {
		if errors.Is(err, services.ErrUnsupportedCurrency) {
			// Fatal by design: proceeding would violate provider constraints.
			c.JSON(http.StatusBadRequest, gin.H{"error": "The selected currency is not supported by this payment method."})
			return
		}

		if _, applyErr := h.orders.ApplyPaymentResult(token, models.StatusFailed, nil); applyErr != nil {
			log.Printf("ERROR: Failed to mark order %s as failed: %v", token, applyErr)
		}
		c.Redirect(http.StatusFound, fmt.Sprintf("%s/payment/failed?order=%s", h.cfg.FrontendURL, url.QueryEscape(token)))
		return
	}

	c.Redirect(http.StatusFound, paymentURL)
}
