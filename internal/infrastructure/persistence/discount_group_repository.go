package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/loyalty/backend/internal/domain/loyalty"
	"github.com/loyalty/backend/internal/domain/shared"
)

// gormDiscountGroupRepository implements loyalty.DiscountGroupRepository using GORM
type gormDiscountGroupRepository struct {
	db *gorm.DB
}

// NewDiscountGroupRepository creates a new discount group repository
func NewDiscountGroupRepository(db *gorm.DB) loyalty.DiscountGroupRepository {
	return &gormDiscountGroupRepository{db: db}
}

// Save creates or updates a group together with its items. The stored
// item set is replaced so removed members disappear.
func (r *gormDiscountGroupRepository) Save(ctx context.Context, group *loyalty.DiscountGroup) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(group).Error; err != nil {
			return err
		}

		keep := make([]uuid.UUID, 0, len(group.Items))
		for i := range group.Items {
			group.Items[i].GroupID = group.ID
			keep = append(keep, group.Items[i].ID)
		}

		stale := tx.Where("group_id = ?", group.ID)
		if len(keep) > 0 {
			stale = stale.Where("id NOT IN ?", keep)
		}
		if err := stale.Delete(&loyalty.DiscountGroupItem{}).Error; err != nil {
			return err
		}

		for i := range group.Items {
			if err := tx.Save(&group.Items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FindByID finds a group by its ID, including items
func (r *gormDiscountGroupRepository) FindByID(ctx context.Context, id uuid.UUID) (*loyalty.DiscountGroup, error) {
	var group loyalty.DiscountGroup
	err := conn(ctx, r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("bundle_index ASC")
		}).
		Where("id = ?", id).
		First(&group).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &group, nil
}

// FindByCustomer returns all groups of a customer, newest first
func (r *gormDiscountGroupRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]loyalty.DiscountGroup, error) {
	var groups []loyalty.DiscountGroup
	err := conn(ctx, r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("bundle_index ASC")
		}).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&groups).Error
	return groups, err
}

// Delete removes a group and its items
func (r *gormDiscountGroupRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", id).Delete(&loyalty.DiscountGroupItem{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&loyalty.DiscountGroup{}).Error
	})
}

// Count returns the total number of groups
func (r *gormDiscountGroupRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&loyalty.DiscountGroup{}).Count(&count).Error
	return count, err
}

// CountCreatedSince counts groups created after the cutoff
func (r *gormDiscountGroupRepository) CountCreatedSince(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&loyalty.DiscountGroup{}).
		Where("created_at >= ?", cutoff).
		Count(&count).Error
	return count, err
}

var _ loyalty.DiscountGroupRepository = (*gormDiscountGroupRepository)(nil)
