package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/passagemingresso/pagseguro-gateway/internal/models"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var ErrOrderNotFound = errors.New("order not found")

// PaymentResultDetails carries the provider transaction metadata persisted
// alongside a status change.
type PaymentResultDetails struct {
	TransactionID   string
	TransactionDate string
}

// OrderService is the platform-side collaborator: order lookup by token and
// the single "apply payment result" mutation point both the notification and
// return handlers funnel into.
type OrderService struct {
	db    *gorm.DB
	redis *redis.Client
}

// NewOrderService creates a new order service. The Redis client is optional;
// without it payment results are applied without cross-request locking.
func NewOrderService(db *gorm.DB, redisClient *redis.Client) *OrderService {
	return &OrderService{db: db, redis: redisClient}
}

// CreateOrder creates a draft order for an event with a fresh payment token.
func (s *OrderService) CreateOrder(eventID uuid.UUID, currency string, items []models.OrderItem) (*models.Order, error) {
	var event models.Event
	if err := s.db.First(&event, "id = ?", eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("event not found")
		}
		return nil, err
	}

	total := 0.0
	for _, item := range items {
		total += float64(item.Quantity) * item.UnitPrice
	}

	order := &models.Order{
		EventID:      eventID,
		PaymentToken: uuid.New().String(),
		Status:       models.StatusDraft,
		Currency:     currency,
		Total:        total,
		Items:        items,
	}

	if err := s.db.Create(order).Error; err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	order.Event = event
	return order, nil
}

// GetOrderByToken retrieves the most recent order matching a payment token,
// across all lifecycle states.
func (s *OrderService) GetOrderByToken(token string) (*models.Order, error) {
	var order models.Order

	err := s.db.Preload("Items").Preload("Event").
		Where("payment_token = ?", token).
		Order("created_at DESC").
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	return &order, nil
}

// GetOrderByAccessToken retrieves an order by its ticket access token.
func (s *OrderService) GetOrderByAccessToken(accessToken string) (*models.Order, error) {
	var order models.Order

	err := s.db.Preload("Items").Preload("Event").
		Where("access_token = ?", accessToken).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	return &order, nil
}

// ApplyPaymentResult persists a new payment status for the order identified
// by the payment token. It is the single point of truth-update: repeated
// application with the same status is a no-op, and a terminal status is
// never rolled back to pending by a late notification.
func (s *OrderService) ApplyPaymentResult(token string, status models.PaymentStatus, details *PaymentResultDetails) (*models.Order, error) {
	unlock := s.lockToken(token)
	defer unlock()

	var order models.Order
	err := s.db.Where("payment_token = ?", token).
		Order("created_at DESC").
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if order.Status == status {
		return &order, nil
	}

	if order.Status.IsTerminal() && status == models.StatusPending {
		log.Printf("WARN: Ignoring pending result for settled order %s (current status: %s)", token, order.Status)
		return &order, nil
	}

	updates := map[string]interface{}{
		"status": status,
	}
	if details != nil {
		if details.TransactionID != "" {
			updates["transaction_id"] = details.TransactionID
		}
		if details.TransactionDate != "" {
			updates["transaction_date"] = details.TransactionDate
		}
	}

	if err := s.db.Model(&models.Order{}).Where("id = ?", order.ID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to apply payment result: %w", err)
	}

	log.Printf("INFO: Payment result applied for order %s: %s -> %s", token, order.Status, status)

	order.Status = status
	if details != nil {
		if details.TransactionID != "" {
			order.TransactionID = details.TransactionID
		}
		if details.TransactionDate != "" {
			order.TransactionDate = details.TransactionDate
		}
	}
	return &order, nil
}

// lockToken takes a short Redis lock per payment token so that a racing
// notification callback and buyer return do not interleave their updates.
// If Redis is not available the update proceeds unlocked.
func (s *OrderService) lockToken(token string) func() {
	if s.redis == nil {
		return func() {}
	}

	ctx := context.Background()
	key := fmt.Sprintf("payment_result_lock:%s", token)

	for attempt := 0; attempt < 50; attempt++ {
		acquired, err := s.redis.SetNX(ctx, key, "1", 10*time.Second).Result()
		if err != nil {
			log.Printf("WARN: Redis not available for payment locks: %v", err)
			return func() {}
		}
		if acquired {
			return func() { s.redis.Del(ctx, key) }
		}
		time.Sleep(100 * time.Millisecond)
	}

	log.Printf("WARN: Timed out waiting for payment lock on %s, proceeding", token)
	return func() {}
}
