package loyalty

import (
	"context"

	"go.uber.org/zap"

	"github.com/loyalty/backend/internal/domain/loyalty"
)

// SettingsService manages the singleton accrual settings record
type SettingsService struct {
	settingsRepo loyalty.SettingsRepository
	logger       *zap.Logger
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(settingsRepo loyalty.SettingsRepository, logger *zap.Logger) *SettingsService {
	return &SettingsService{
		settingsRepo: settingsRepo,
		logger:       logger.Named("settings"),
	}
}

// Get returns the current settings, materializing defaults on first access
func (s *SettingsService) Get(ctx context.Context) (*loyalty.Settings, error) {
	return s.settingsRepo.Get(ctx)
}

// Update applies a partial patch to the settings. Changed values affect
// future accruals only; existing groups and wallet entries keep the
// values they were computed with.
func (s *SettingsService) Update(ctx context.Context, patch loyalty.SettingsPatch) (*loyalty.Settings, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}

	if err := settings.Apply(patch); err != nil {
		return nil, err
	}

	if err := s.settingsRepo.Save(ctx, settings); err != nil {
		return nil, err
	}

	s.logger.Info("Updated accrual settings",
		zap.String("discount_rate", settings.DiscountRate.String()),
		zap.Int("orders_required", settings.OrdersRequired),
		zap.Bool("auto_create_discount", settings.AutoCreateDiscount),
	)
	return settings, nil
}
