package services

import (
	"github.com/passagemingresso/pagseguro-gateway/internal/models"
)

// PaymentProvider defines the interface for hosted-checkout payment providers
type PaymentProvider interface {
	// CreateCheckout creates a provider checkout session for the order and
	// returns the hosted payment page URL
	CreateCheckout(order *models.Order, requestHost string) (paymentURL string, err error)

	// VerifyNotification fetches the transaction behind a notification code
	VerifyNotification(notificationCode string) (*Transaction, error)

	// GetProviderName returns the name of the provider ("pagseguro")
	GetProviderName() string
}
