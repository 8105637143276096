package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/loyalty/backend/internal/domain/loyalty"
)

// gormSettingsRepository implements loyalty.SettingsRepository using GORM
type gormSettingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository creates a new loyalty settings repository
func NewSettingsRepository(db *gorm.DB) loyalty.SettingsRepository {
	return &gormSettingsRepository{db: db}
}

// Get returns the settings singleton, materializing defaults on first read
func (r *gormSettingsRepository) Get(ctx context.Context) (*loyalty.Settings, error) {
	var settings loyalty.Settings
	err := r.db.WithContext(ctx).Where("key = ?", loyalty.SettingsKey).First(&settings).Error
	if err == nil {
		return &settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	defaults := loyalty.DefaultSettings()
	create := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoNothing: true,
		}).
		Create(defaults)
	if create.Error != nil {
		return nil, create.Error
	}

	// A concurrent first read may have materialized the row already
	err = r.db.WithContext(ctx).Where("key = ?", loyalty.SettingsKey).First(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// Save persists the settings row
func (r *gormSettingsRepository) Save(ctx context.Context, settings *loyalty.Settings) error {
	return r.db.WithContext(ctx).Save(settings).Error
}

var _ loyalty.SettingsRepository = (*gormSettingsRepository)(nil)
