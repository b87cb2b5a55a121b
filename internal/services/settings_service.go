package services

import (
	"errors"
	"strings"

	"github.com/passagemingresso/pagseguro-gateway/internal/config"
	"github.com/passagemingresso/pagseguro-gateway/internal/models"
	"github.com/passagemingresso/pagseguro-gateway/pkg/validation"
	"gorm.io/gorm"
)

const (
	settingPagSeguroEmail = "pagseguro_email"
	settingPagSeguroToken = "pagseguro_token"
)

// PaymentOptions holds the merchant credentials used against PagSeguro.
type PaymentOptions struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

// SettingsService persists payment options in system settings, falling back
// to the environment configuration when nothing is stored.
type SettingsService struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewSettingsService(db *gorm.DB, cfg *config.Config) *SettingsService {
	return &SettingsService{db: db, cfg: cfg}
}

// PaymentOptions returns the currently effective merchant credentials.
func (s *SettingsService) PaymentOptions() PaymentOptions {
	options := PaymentOptions{
		Email: s.cfg.PagSeguroEmail,
		Token: s.cfg.PagSeguroToken,
	}

	if s.db == nil {
		return options
	}

	var setting models.SystemSetting
	if err := s.db.Where("key = ?", settingPagSeguroEmail).First(&setting).Error; err == nil && setting.Value != "" {
		options.Email = setting.Value
	}
	if err := s.db.Where("key = ?", settingPagSeguroToken).First(&setting).Error; err == nil && setting.Value != "" {
		options.Token = setting.Value
	}

	return options
}

// UpdatePaymentOptions validates the input and merges it over the current
// options: an invalid or empty field leaves the stored value untouched.
func (s *SettingsService) UpdatePaymentOptions(input PaymentOptions) (PaymentOptions, error) {
	if s.db == nil {
		return PaymentOptions{}, errors.New("settings storage not available")
	}

	current := s.PaymentOptions()

	if email := strings.TrimSpace(input.Email); email != "" && validation.ValidateEmail(email) {
		current.Email = email
	}
	if token := validation.SanitizeString(input.Token); token != "" {
		current.Token = token
	}

	if err := s.setSetting(settingPagSeguroEmail, current.Email); err != nil {
		return PaymentOptions{}, err
	}
	if err := s.setSetting(settingPagSeguroToken, current.Token); err != nil {
		return PaymentOptions{}, err
	}

	return current, nil
}

func (s *SettingsService) setSetting(key, value string) error {
	var setting models.SystemSetting
	err := s.db.Where("key = ?", key).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.db.Create(&models.SystemSetting{Key: key, Value: value}).Error
	}
	if err != nil {
		return err
	}
	return s.db.Model(&setting).Update("value", value).Error
}
