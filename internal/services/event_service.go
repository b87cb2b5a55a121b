package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/passagemingresso/pagseguro-gateway/internal/models"
	"gorm.io/gorm"
)

type EventService struct {
	db *gorm.DB
}

func NewEventService(db *gorm.DB) *EventService {
	return &EventService{db: db}
}

// CreateEvent creates a new event
func (s *EventService) CreateEvent(name, description string, date time.Time) (*models.Event, error) {
	event := &models.Event{
		Name:        name,
		Description: description,
		Date:        date,
		IsActive:    true,
	}

	if err := s.db.Create(event).Error; err != nil {
		return nil, err
	}

	return event, nil
}

// GetEventByID retrieves an event by ID
func (s *EventService) GetEventByID(eventID uuid.UUID) (*models.Event, error) {
	var event models.Event

	if err := s.db.First(&event, "id = ?", eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("event not found")
		}
		return nil, err
	}

	return &event, nil
}
