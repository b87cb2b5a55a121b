package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentStatus is the platform's canonical payment state, independent of
// any provider's native codes.
type PaymentStatus string

const (
	// StatusDraft is the initial host-level state: the checkout flow was
	// started but never completed server-side.
	StatusDraft PaymentStatus = "draft"

	StatusPending   PaymentStatus = "pending"
	StatusCompleted PaymentStatus = "completed"
	StatusRefunded  PaymentStatus = "refunded"
	StatusCancelled PaymentStatus = "cancelled"
	StatusFailed    PaymentStatus = "failed"
)

// IsTerminal reports whether the status must not be overwritten by a late
// pending notification.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusRefunded, StatusCancelled, StatusFailed:
		return true
	}
	return false
}

type Order struct {
	ID           uuid.UUID     `gorm:"type:uuid;primary_key" json:"id"`
	EventID      uuid.UUID     `gorm:"type:uuid;not null" json:"event_id"`
	PaymentToken string        `gorm:"type:varchar(64);uniqueIndex;not null" json:"payment_token"`
	AccessToken  string        `gorm:"type:varchar(64);index" json:"-"`
	Status       PaymentStatus `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	Currency     string        `gorm:"type:varchar(3);not null;default:'BRL'" json:"currency"`
	Total        float64       `gorm:"not null" json:"total"`

	// Payment Provider (pagseguro)
	PaymentProvider string `gorm:"type:varchar(20);default:'pagseguro'" json:"payment_provider"`

	// PagSeguro transaction details (set by the notification handler)
	TransactionID   string `gorm:"type:varchar(64)" json:"-"`
	TransactionDate string `gorm:"type:varchar(40)" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	Event Event       `gorm:"foreignKey:EventID" json:"event,omitempty"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.AccessToken == "" {
		o.AccessToken = uuid.New().String()
	}
	return nil
}

type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	Name      string    `gorm:"not null" json:"name"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	UnitPrice float64   `gorm:"not null" json:"unit_price"`
	CreatedAt time.Time `json:"created_at"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
