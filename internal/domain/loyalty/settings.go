package loyalty

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/loyalty/backend/internal/domain/shared"
)

// SettingsKey is the fixed key of the singleton loyalty settings row
const SettingsKey = "default"

// Settings holds the loyalty program configuration. Exactly one row
// exists, keyed by SettingsKey; absent settings are lazily materialized
// with defaults on first read.
type Settings struct {
	Key string `gorm:"type:varchar(50);primaryKey"`
	// DiscountRate is the accrual percentage applied to the eligible
	// amount of each bundled order (0-100).
	DiscountRate decimal.Decimal `gorm:"type:decimal(8,4);not null"`
	// OrdersRequired is the queue threshold that triggers bundling (>= 1)
	OrdersRequired int `gorm:"not null"`
	// AutoCreateDiscount enables automatic bundling once the threshold is reached
	AutoCreateDiscount bool `gorm:"not null"`
	// EnforceEligibilityOnManual applies the automatic eligibility filter
	// (no line discounts, positive total) to manually created groups too
	EnforceEligibilityOnManual bool      `gorm:"not null"`
	UpdatedAt                  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Settings) TableName() string {
	return "loyalty_settings"
}

// DefaultSettings returns the loyalty program defaults
func DefaultSettings() *Settings {
	return &Settings{
		Key:                        SettingsKey,
		DiscountRate:               decimal.NewFromInt(10),
		OrdersRequired:             3,
		AutoCreateDiscount:         true,
		EnforceEligibilityOnManual: false,
		UpdatedAt:                  time.Now(),
	}
}

// Validate checks the settings invariants
func (s *Settings) Validate() error {
	if s.DiscountRate.IsNegative() || s.DiscountRate.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewDomainError("INVALID_DISCOUNT_RATE", "Discount rate must be between 0 and 100")
	}
	if s.OrdersRequired < 1 {
		return shared.NewDomainError("INVALID_ORDERS_REQUIRED", "Orders required for discount must be at least 1")
	}
	return nil
}

// SettingsPatch carries a partial settings update. Nil fields are left unchanged.
type SettingsPatch struct {
	DiscountRate               *decimal.Decimal
	OrdersRequired             *int
	AutoCreateDiscount         *bool
	EnforceEligibilityOnManual *bool
}

// Apply merges the patch into the settings and validates the result
func (s *Settings) Apply(patch SettingsPatch) error {
	if patch.DiscountRate != nil {
		s.DiscountRate = *patch.DiscountRate
	}
	if patch.OrdersRequired != nil {
		s.OrdersRequired = *patch.OrdersRequired
	}
	if patch.AutoCreateDiscount != nil {
		s.AutoCreateDiscount = *patch.AutoCreateDiscount
	}
	if patch.EnforceEligibilityOnManual != nil {
		s.EnforceEligibilityOnManual = *patch.EnforceEligibilityOnManual
	}
	if err := s.Validate(); err != nil {
		return err
	}
	s.UpdatedAt = time.Now()
	return nil
}
