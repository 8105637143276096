package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/loyalty/backend/internal/domain/catalog"
	"github.com/loyalty/backend/internal/domain/shared"
)

// gormProductRepository implements catalog.ProductRepository using GORM
type gormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *gorm.DB) catalog.ProductRepository {
	return &gormProductRepository{db: db}
}

// Save creates or updates a product including its attribute value links
func (r *gormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("AttributeValues").Save(product).Error; err != nil {
			return err
		}
		return tx.Model(product).Association("AttributeValues").Replace(product.AttributeValues)
	})
}

// FindByID finds a product by its ID
func (r *gormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var product catalog.Product
	err := r.db.WithContext(ctx).Preload("AttributeValues").Where("id = ?", id).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// FindByWawiID finds a product by its external WAWI id
func (r *gormProductRepository) FindByWawiID(ctx context.Context, wawiID int64) (*catalog.Product, error) {
	var product catalog.Product
	err := r.db.WithContext(ctx).Preload("AttributeValues").Where("wawi_id = ?", wawiID).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// Count returns the total number of products
func (r *gormProductRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&catalog.Product{}).Count(&count).Error
	return count, err
}

var _ catalog.ProductRepository = (*gormProductRepository)(nil)

// gormProductAttributeRepository implements catalog.ProductAttributeRepository
type gormProductAttributeRepository struct {
	db *gorm.DB
}

// NewProductAttributeRepository creates a new attribute repository
func NewProductAttributeRepository(db *gorm.DB) catalog.ProductAttributeRepository {
	return &gormProductAttributeRepository{db: db}
}

// SaveAttribute creates or updates an attribute
func (r *gormProductAttributeRepository) SaveAttribute(ctx context.Context, attribute *catalog.ProductAttribute) error {
	return r.db.WithContext(ctx).Save(attribute).Error
}

// FindAttributeByWawiID finds an attribute by its external WAWI id
func (r *gormProductAttributeRepository) FindAttributeByWawiID(ctx context.Context, wawiID int64) (*catalog.ProductAttribute, error) {
	var attribute catalog.ProductAttribute
	err := r.db.WithContext(ctx).Where("wawi_id = ?", wawiID).First(&attribute).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &attribute, nil
}

// SaveValue creates or updates an attribute value
func (r *gormProductAttributeRepository) SaveValue(ctx context.Context, value *catalog.ProductAttributeValue) error {
	return r.db.WithContext(ctx).Save(value).Error
}

// FindValueByWawiID finds an attribute value by its external WAWI id
func (r *gormProductAttributeRepository) FindValueByWawiID(ctx context.Context, wawiID int64) (*catalog.ProductAttributeValue, error) {
	var value catalog.ProductAttributeValue
	err := r.db.WithContext(ctx).Where("wawi_id = ?", wawiID).First(&value).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &value, nil
}

var _ catalog.ProductAttributeRepository = (*gormProductAttributeRepository)(nil)
