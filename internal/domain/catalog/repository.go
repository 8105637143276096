package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// Save creates or updates a product including its attribute value links
	Save(ctx context.Context, product *Product) error

	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByWawiID finds a product by its external WAWI id
	FindByWawiID(ctx context.Context, wawiID int64) (*Product, error)

	// Count returns the total number of products
	Count(ctx context.Context) (int64, error)
}

// ProductAttributeRepository defines the interface for attribute persistence
type ProductAttributeRepository interface {
	// SaveAttribute creates or updates an attribute
	SaveAttribute(ctx context.Context, attribute *ProductAttribute) error

	// FindAttributeByWawiID finds an attribute by its external WAWI id
	FindAttributeByWawiID(ctx context.Context, wawiID int64) (*ProductAttribute, error)

	// SaveValue creates or updates an attribute value
	SaveValue(ctx context.Context, value *ProductAttributeValue) error

	// FindValueByWawiID finds an attribute value by its external WAWI id
	FindValueByWawiID(ctx context.Context, wawiID int64) (*ProductAttributeValue, error)
}
