package services

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/passagemingresso/pagseguro-gateway/internal/config"
	"github.com/passagemingresso/pagseguro-gateway/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProviderConfig(checkoutURL, notifyURL string) *config.Config {
	return &config.Config{
		APIUrl:               "https://tickets.example.com",
		FrontendURL:          "https://shop.example.com",
		PagSeguroCheckoutURL: checkoutURL,
		PagSeguroPaymentURL:  "https://pagseguro.uol.com.br/v2/checkout/payment.html?code=",
		PagSeguroNotifyURL:   notifyURL,
		PagSeguroEmail:       "merchant@example.com",
		PagSeguroToken:       "MERCHANT-TOKEN",
		PagSeguroTimeout:     5 * time.Second,
		Currency:             "BRL",
	}
}

func newTestOrder(currency string) *models.Order {
	return &models.Order{
		PaymentToken: "tok-123",
		Currency:     currency,
		Total:        150.5,
		Items: []models.OrderItem{
			{Name: "Pista", Quantity: 2, UnitPrice: 50.25},
			{Name: "Camarote", Quantity: 1, UnitPrice: 50},
		},
		Event: models.Event{Name: "Festival de Verao"},
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "3.00", FormatAmount(3))
	assert.Equal(t, "10.00", FormatAmount(10.0))
	assert.Equal(t, "20.00", FormatAmount(19.999))
	assert.Equal(t, "1234.50", FormatAmount(1234.5))
	assert.Equal(t, "0.10", FormatAmount(0.1))
}

func TestMapPaymentStatus(t *testing.T) {
	assert.Equal(t, models.StatusPending, MapPaymentStatus(1))
	assert.Equal(t, models.StatusPending, MapPaymentStatus(2))
	assert.Equal(t, models.StatusCompleted, MapPaymentStatus(3))
	assert.Equal(t, models.StatusCompleted, MapPaymentStatus(4))
	assert.Equal(t, models.StatusRefunded, MapPaymentStatus(5))
	assert.Equal(t, models.StatusRefunded, MapPaymentStatus(6))
	assert.Equal(t, models.StatusCancelled, MapPaymentStatus(7))

	// Unknown codes stay pending rather than guessing a terminal state
	assert.Equal(t, models.StatusPending, MapPaymentStatus(0))
	assert.Equal(t, models.StatusPending, MapPaymentStatus(8))
	assert.Equal(t, models.StatusPending, MapPaymentStatus(99))
	assert.Equal(t, models.StatusPending, MapPaymentStatus(-1))
}

func TestBuildItemDescription(t *testing.T) {
	items := []models.OrderItem{
		{Name: "Pista", Quantity: 2, UnitPrice: 50.25},
	}

	desc := BuildItemDescription("Festival de Verao", items)
	assert.Equal(t, "Festival de Verao, 2x Pista 50.25", desc)

	// Empty event name falls back to a generic label
	desc = BuildItemDescription("", items)
	assert.Equal(t, "Event, 2x Pista 50.25", desc)
}

func TestBuildItemDescriptionTruncation(t *testing.T) {
	longName := strings.Repeat("a", 200)
	desc := BuildItemDescription(longName, nil)

	assert.LessOrEqual(t, len(desc), 95)
	assert.Equal(t, longName[:95], desc)

	// A cut that lands on a space must not leave trailing whitespace
	name := strings.Repeat("b", 94) + " tail"
	desc = BuildItemDescription(name, nil)
	assert.LessOrEqual(t, len(desc), 95)
	assert.Equal(t, desc, strings.TrimSpace(desc))
}

func TestBuildCheckoutRequestFields(t *testing.T) {
	cfg := newProviderConfig("http://unused", "http://unused")
	provider := NewPagSeguroProvider(cfg, NewSettingsService(nil, cfg))

	form, err := provider.BuildCheckoutRequest(newTestOrder("BRL"), "gateway.example.com")
	require.NoError(t, err)

	assert.Equal(t, "merchant@example.com", form.Get("email"))
	assert.Equal(t, "MERCHANT-TOKEN", form.Get("token"))
	assert.Equal(t, "BRL", form.Get("currency"))
	assert.Equal(t, "UTF-8", form.Get("charset"))
	assert.Equal(t, "tok-123", form.Get("reference"))
	assert.Equal(t, "0001", form.Get("itemId1"))
	assert.Equal(t, "150.50", form.Get("itemAmount1"))
	assert.Equal(t, "1", form.Get("itemQuantity1"))
	assert.Equal(t, "Festival de Verao, 2x Pista 50.25, 1x Camarote 50.00", form.Get("itemDescription1"))

	redirectURL, err := url.Parse(form.Get("redirectURL"))
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/tickets", redirectURL.Path)
	assert.Equal(t, "payment_return", redirectURL.Query().Get("ingresso_action"))
	assert.Equal(t, "tok-123", redirectURL.Query().Get("ingresso_payment_token"))
	assert.Equal(t, "pagseguro", redirectURL.Query().Get("ingresso_payment_method"))

	notifyURL, err := url.Parse(form.Get("notificationURL"))
	require.NoError(t, err)
	assert.Equal(t, "pagseguro", notifyURL.Query().Get("ingresso_payment_method"))
}

func TestBuildCheckoutRequestLoopbackOmitsCallbacks(t *testing.T) {
	cfg := newProviderConfig("http://unused", "http://unused")
	provider := NewPagSeguroProvider(cfg, NewSettingsService(nil, cfg))

	for _, host := range []string{"localhost:8080", "127.0.0.1:9000", "::1", "localhost"} {
		form, err := provider.BuildCheckoutRequest(newTestOrder("BRL"), host)
		require.NoError(t, err)

		_, hasRedirect := form["redirectURL"]
		_, hasNotify := form["notificationURL"]
		assert.False(t, hasRedirect, "redirectURL must be omitted for host %s", host)
		assert.False(t, hasNotify, "notificationURL must be omitted for host %s", host)
	}
}

func TestCreateCheckoutUnsupportedCurrencyMakesNoRequest(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer server.Close()

	cfg := newProviderConfig(server.URL, server.URL)
	provider := NewPagSeguroProvider(cfg, NewSettingsService(nil, cfg))

	_, err := provider.CreateCheckout(newTestOrder("USD"), "gateway.example.com")
	assert.ErrorIs(t, err, ErrUnsupportedCurrency)
	assert.Equal(t, 0, hits)
}

func TestCreateCheckoutSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "merchant@example.com", r.PostForm.Get("email"))
		assert.Equal(t, "tok-123", r.PostForm.Get("reference"))

		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><checkout><code>8CF4BE7DCECEF0F004A6DFA0A8243412</code><date>2026-08-29T10:00:00.000-03:00</date></checkout>`))
	}))
	defer server.Close()

	cfg := newProviderConfig(server.URL, server.URL)
	provider := NewPagSeguroProvider(cfg, NewSettingsService(nil, cfg))

	paymentURL, err := provider.CreateCheckout(newTestOrder("BRL"), "gateway.example.com")
	require.NoError(t, err)
	assert.Equal(t, cfg.PagSeguroPaymentURL+"8CF4BE7DCECEF0F004A6DFA0A8243412", paymentURL)
}

func TestCreateCheckoutProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := newProviderConfig(server.URL, server.URL)
	provider := NewPagSeguroProvider(cfg, NewSettingsService(nil, cfg))

	_, err := provider.CreateCheckout(newTestOrder("BRL"), "gateway.example.com")
	assert.Error(t, err)
}

func TestCreateCheckoutEmptyCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<checkout><date>2026-08-29T10:00:00.000-03:00</date></checkout>`))
	}))
	defer server.Close()

	cfg := newProviderConfig(server.URL, server.URL)
	provider := NewPagSeguroProvider(cfg, NewSettingsService(nil, cfg))

	_, err := provider.CreateCheckout(newTestOrder("BRL"), "gateway.example.com")
	assert.ErrorIs(t, err, ErrEmptyCheckoutCode)
}

func TestVerifyNotificationSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "NOTIF-CODE-42"))
		assert.Equal(t, "merchant@example.com", r.URL.Query().Get("email"))
		assert.Equal(t, "MERCHANT-TOKEN", r.URL.Query().Get("token"))

		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><transaction><code>9E884542-81B3-4419-9A75-BCC6FB495EF1</code><reference>tok-123</reference><status>3</status><date>2026-08-29T11:30:00.000-03:00</date></transaction>`))
	}))
	defer server.Close()

	cfg := newProviderConfig(server.URL, server.URL+"/")
	provider := NewPagSeguroProvider(cfg, NewSettingsService(nil, cfg))

	transaction, err := provider.VerifyNotification("NOTIF-CODE-42")
	require.NoError(t, err)
	assert.Equal(t, "9E884542-81B3-4419-9A75-BCC6FB495EF1", transaction.Code)
	assert.Equal(t, "tok-123", transaction.Reference)
	assert.Equal(t, 3, transaction.Status)
}

func TestVerifyNotificationProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	cfg := newProviderConfig(server.URL, server.URL+"/")
	provider := NewPagSeguroProvider(cfg, NewSettingsService(nil, cfg))

	_, err := provider.VerifyNotification("NOTIF-CODE-42")
	assert.Error(t, err)
}
