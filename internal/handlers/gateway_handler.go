package handlers

import (
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

// PlatformGateway is the host-platform capability surface the payment
// handlers depend on, instead of reaching into ambient platform state.
type PlatformGateway interface {
	GetOrderByToken(token string) (*models.Order, error)
	GetOrderByAccessToken(accessToken string) (*models.Order, error)
	ApplyPaymentResult(token string, status models.PaymentStatus, details *services.PaymentResultDetails) (*models.Order, error)
}

// GatewayHandler owns the shared PagSeguro callback endpoint: it receives
// both the buyer's payment-return redirect and the provider's asynchronous
// notification, which may arrive in either order.
type GatewayHandler struct {
	orders   PlatformGateway
	provider services.PaymentProvider
	cfg      *config.Config
}

func NewGatewayHandler(orders PlatformGateway, provider services.PaymentProvider, cfg *config.Config) *GatewayHandler {
	return &GatewayHandler{
		orders:   orders,
		provider: provider,
		cfg:      cfg,
	}
}

// paymentMethod reads the payment-method discriminator from query or form.
// The tickets endpoint is shared with other payment methods.
func paymentMethod(c *gin.Context) string {
	if method := c.Query("ingresso_payment_method"); method != "" {
		return method
	}
	return c.PostForm("ingresso_payment_method")
}

// Dispatch routes a request on the shared tickets endpoint by its shape:
// payment returns and provider notifications are handled here, anything
// else falls through to the next handler in the chain.
func (h *GatewayHandler) Dispatch(c *gin.Context) {
	if paymentMethod(c) != h.provider.GetProviderName() {
		c.Next()
		return
	}

	switch {
	case c.Query("ingresso_action") == "payment_return":
		h.HandleReturn(c)
	case c.Request.Method == http.MethodPost &&
		c.PostForm("notificationCode") != "" &&
		c.PostForm("notificationType") != "":
		h.HandleNotification(c)
	default:
		c.Next()
		return
	}

	c.Abort()
}

// HandleNotification verifies an asynchronous PagSeguro notification and
// reconciles the referenced order. Verification failures are dropped after
// logging; PagSeguro retries undelivered notifications.
func (h *GatewayHandler) HandleNotification(c *gin.Context) {
	notificationCode := c.PostForm("notificationCode")
	notificationType := c.PostForm("notificationType")
	if notificationCode == "" || notificationType == "" {
		c.Status(http.StatusNoContent)
		return
	}

	transaction, err := h.provider.VerifyNotification(notificationCode)
	if err != nil {
		// Already logged by the provider. Acknowledge so the endpoint stays
		// quiet; the provider retries on its own schedule.
		c.JSON(http.StatusOK, gin.H{"status": "dropped"})
		return
	}

	status := services.MapPaymentStatus(transaction.Status)
	details := &services.PaymentResultDetails{
		TransactionID:   transaction.Code,
		TransactionDate: transaction.Date,
	}

	if _, err := h.orders.ApplyPaymentResult(transaction.Reference, status, details); err != nil {
		log.Printf("ERROR: Failed to apply payment result for order %s: %v", transaction.Reference, err)
		c.JSON(http.StatusOK, gin.H{"status": "dropped"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// HandleReturn processes the buyer's browser redirect back from PagSeguro.
// The asynchronous notification may or may not have arrived yet.
func (h *GatewayHandler) HandleReturn(c *gin.Context) {
	token := strings.TrimSpace(c.Query("ingresso_payment_token"))
	if token == "" {
		c.Status(http.StatusNoContent)
		return
	}

	order, err := h.orders.GetOrderByToken(token)
	if err != nil {
		// Stale or malformed return link; nothing to surface to the buyer.
		log.Printf("WARN: Payment return for unknown token %s", token)
		c.Status(http.StatusNoContent)
		return
	}

	if order.Status == models.StatusDraft {
		// The buyer came back before the notification: mark the order
		// pending and show the waiting page.
		if _, err := h.orders.ApplyPaymentResult(token, models.StatusPending, nil); err != nil {
			log.Printf("ERROR: Failed to mark order %s pending on return: %v", token, err)
		}
		c.Redirect(http.StatusFound, fmt.Sprintf("%s/payment/pending?order=%s", h.cfg.FrontendURL, url.QueryEscape(token)))
		return
	}

	accessQuery := url.Values{}
	accessQuery.Set("ingresso_action", "access_tickets")
	accessQuery.Set("ingresso_access_token", order.AccessToken)
	c.Redirect(http.StatusFound, fmt.Sprintf("%s?%s#ingresso", h.cfg.TicketsURL(), accessQuery.Encode()))
}
