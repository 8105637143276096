package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	wawiinfra "github.com/loyalty/backend/internal/infrastructure/wawi"
)

// SystemSetting is a durable key/value row for infrastructure state such
// as the persisted WAWI token.
type SystemSetting struct {
	Key       string    `gorm:"type:varchar(100);primaryKey"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SystemSetting) TableName() string {
	return "system_settings"
}

// gormSystemSettingsStore implements the credential store on the
// system_settings table.
type gormSystemSettingsStore struct {
	db *gorm.DB
}

// NewSystemSettingsStore creates a new system settings store
func NewSystemSettingsStore(db *gorm.DB) wawiinfra.CredentialStore {
	return &gormSystemSettingsStore{db: db}
}

// GetCredential returns the stored value, or "" when absent
func (s *gormSystemSettingsStore) GetCredential(ctx context.Context, key string) (string, error) {
	var setting SystemSetting
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return setting.Value, nil
}

// SetCredential stores a value under the key
func (s *gormSystemSettingsStore) SetCredential(ctx context.Context, key, value string) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&SystemSetting{Key: key, Value: value, UpdatedAt: time.Now()}).Error
}

// DeleteCredential removes the key
func (s *gormSystemSettingsStore) DeleteCredential(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("key = ?", key).Delete(&SystemSetting{}).Error
}

var _ wawiinfra.CredentialStore = (*gormSystemSettingsStore)(nil)
