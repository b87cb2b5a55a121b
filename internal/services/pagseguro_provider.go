package services

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/passagemingresso/pagseguro-gateway/internal/config"
	"github.com/passagemingresso/pagseguro-gateway/internal/models"
)

var (
	ErrUnsupportedCurrency = errors.New("the selected currency is not supported by this payment method")
	ErrEmptyCheckoutCode   = errors.New("PagSeguro response contained no checkout code")
)

// supportedCurrencies lists the currencies PagSeguro accepts.
var supportedCurrencies = []string{"BRL"}

// itemDescriptionLimit is PagSeguro's field-length limit for itemDescription1.
const itemDescriptionLimit = 95

// PagSeguroProvider talks to PagSeguro's checkout and notification APIs.
type PagSeguroProvider struct {
	cfg      *config.Config
	settings *SettingsService
	client   *http.Client
}

// NewPagSeguroProvider creates a new PagSeguro payment provider
func NewPagSeguroProvider(cfg *config.Config, settings *SettingsService) *PagSeguroProvider {
	return &PagSeguroProvider{
		cfg:      cfg,
		settings: settings,
		client:   &http.Client{Timeout: cfg.PagSeguroTimeout},
	}
}

// GetProviderName returns "pagseguro"
func (p *PagSeguroProvider) GetProviderName() string {
	return "pagseguro"
}

// checkoutResponse is PagSeguro's answer to a checkout creation request.
type checkoutResponse struct {
	XMLName xml.Name `xml:"checkout"`
	Code    string   `xml:"code"`
	Date    string   `xml:"date"`
}

// Transaction is the transaction document returned by the notification
// verification endpoint.
type Transaction struct {
	XMLName   xml.Name `xml:"transaction"`
	Code      string   `xml:"code"`
	Reference string   `xml:"reference"`
	Status    int      `xml:"status"`
	Date      string   `xml:"date"`
}

// FormatAmount formats a monetary amount the way PagSeguro expects: exactly
// two decimal digits, "." separator, no thousands separator. This is a wire
// format requirement, not a display concern.
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}

// MapPaymentStatus converts a PagSeguro transaction status code to the
// platform's canonical payment status. Unknown codes map to pending.
func MapPaymentStatus(code int) models.PaymentStatus {
	switch code {
	case 1, 2:
		return models.StatusPending
	case 3, 4:
		return models.StatusCompleted
	case 5, 6:
		return models.StatusRefunded
	case 7:
		return models.StatusCancelled
	default:
		return models.StatusPending
	}
}

// BuildItemDescription builds the single-item description PagSeguro shows on
// its hosted page: the event name followed by one segment per line item,
// truncated to the provider's 95-character field limit.
func BuildItemDescription(eventName string, items []models.OrderItem) string {
	description := eventName
	if description == "" {
		description = "Event"
	}

	for _, item := range items {
		description += fmt.Sprintf(", %dx %s %s", item.Quantity, item.Name, FormatAmount(item.UnitPrice))
	}

	if len(description) > itemDescriptionLimit {
		description = description[:itemDescriptionLimit]
	}
	return strings.TrimSpace(description)
}

// isLoopbackHost reports whether the request host is local. PagSeguro
// rejects loopback callback URLs, so checkouts started from a local host
// omit them entirely.
func isLoopbackHost(host string) bool {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// BuildCheckoutRequest assembles the form-encoded order-creation request.
// The currency precondition is checked here, before any outbound call.
func (p *PagSeguroProvider) BuildCheckoutRequest(order *models.Order, requestHost string) (url.Values, error) {
	supported := false
	for _, currency := range supportedCurrencies {
		if order.Currency == currency {
			supported = true
			break
		}
	}
	if !supported {
		return nil, ErrUnsupportedCurrency
	}

	eventName := order.Event.Name
	if eventName == "" {
		eventName = p.cfg.EventName
	}

	options := p.settings.PaymentOptions()

	form := url.Values{}
	form.Set("email", options.Email)
	form.Set("token", options.Token)
	form.Set("currency", order.Currency)
	form.Set("charset", "UTF-8")
	form.Set("reference", order.PaymentToken)
	form.Set("itemId1", "0001")
	form.Set("itemDescription1", BuildItemDescription(eventName, order.Items))
	form.Set("itemAmount1", FormatAmount(order.Total))
	form.Set("itemQuantity1", "1")

	if !isLoopbackHost(requestHost) {
		returnQuery := url.Values{}
		returnQuery.Set("ingresso_action", "payment_return")
		returnQuery.Set("ingresso_payment_token", order.PaymentToken)
		returnQuery.Set("ingresso_payment_method", "pagseguro")
		form.Set("redirectURL", fmt.Sprintf("%s?%s", p.cfg.TicketsURL(), returnQuery.Encode()))

		notifyQuery := url.Values{}
		notifyQuery.Set("ingresso_payment_method", "pagseguro")
		form.Set("notificationURL", fmt.Sprintf("%s?%s", p.cfg.TicketsURL(), notifyQuery.Encode()))
	}

	return form, nil
}

// CreateCheckout generates a PagSeguro order for the given platform order
// and returns the hosted payment page URL the buyer must be redirected to.
func (p *PagSeguroProvider) CreateCheckout(order *models.Order, requestHost string) (string, error) {
	form, err := p.BuildCheckoutRequest(order, requestHost)
	if err != nil {
		return "", err
	}

	resp, err := p.client.PostForm(p.cfg.PagSeguroCheckoutURL, form)
	if err != nil {
		log.Printf("ERROR: Failed to generate the PagSeguro payment link: %v", err)
		return "", fmt.Errorf("failed to generate PagSeguro payment link: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("ERROR: Failed to read PagSeguro checkout response: %v", err)
		return "", fmt.Errorf("failed to read PagSeguro response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("ERROR: Failed to generate the PagSeguro payment link (status %d): %s", resp.StatusCode, string(body))
		return "", fmt.Errorf("PagSeguro checkout failed with status %d", resp.StatusCode)
	}

	var checkout checkoutResponse
	if err := xml.Unmarshal(body, &checkout); err != nil {
		log.Printf("ERROR: Failed to parse PagSeguro checkout response: %v: %s", err, string(body))
		return "", fmt.Errorf("failed to parse PagSeguro response: %w", err)
	}
	if checkout.Code == "" {
		log.Printf("ERROR: PagSeguro checkout response contained no code: %s", string(body))
		return "", ErrEmptyCheckoutCode
	}

	log.Printf("INFO: PagSeguro payment link created with success: %s", string(body))
	return p.cfg.PagSeguroPaymentURL + checkout.Code, nil
}

// VerifyNotification fetches the transaction behind a notification code from
// PagSeguro. A failed verification returns an error and the caller is
// expected to drop the notification; PagSeguro retries undelivered ones.
func (p *PagSeguroProvider) VerifyNotification(notificationCode string) (*Transaction, error) {
	options := p.settings.PaymentOptions()

	query := url.Values{}
	query.Set("email", options.Email)
	query.Set("token", options.Token)
	endpoint := fmt.Sprintf("%s%s?%s", p.cfg.PagSeguroNotifyURL, url.PathEscape(notificationCode), query.Encode())

	resp, err := p.client.Get(endpoint)
	if err != nil {
		log.Printf("ERROR: Could not verify PagSeguro notification %s: %v", notificationCode, err)
		return nil, fmt.Errorf("failed to verify PagSeguro notification: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("ERROR: Failed to read PagSeguro notification response for %s: %v", notificationCode, err)
		return nil, fmt.Errorf("failed to read PagSeguro response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("ERROR: Could not verify PagSeguro notification %s (status %d): %s", notificationCode, resp.StatusCode, string(body))
		return nil, fmt.Errorf("PagSeguro notification verification failed with status %d", resp.StatusCode)
	}

	var transaction Transaction
	if err := xml.Unmarshal(body, &transaction); err != nil {
		log.Printf("ERROR: Failed to parse PagSeguro transaction for notification %s: %v: %s", notificationCode, err, string(body))
		return nil, fmt.Errorf("failed to parse PagSeguro transaction: %w", err)
	}

	log.Printf("INFO: Received PagSeguro notification with success. PagSeguro payment code: %s", transaction.Code)
	return &transaction, nil
}
