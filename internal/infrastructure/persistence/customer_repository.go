package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/loyalty/backend/internal/domain/partner"
	"github.com/loyalty/backend/internal/domain/shared"
)

// gormCustomerRepository implements partner.CustomerRepository using GORM
type gormCustomerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *gorm.DB) partner.CustomerRepository {
	return &gormCustomerRepository{db: db}
}

// Save creates or updates a customer
func (r *gormCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	return r.db.WithContext(ctx).Save(customer).Error
}

// FindByID finds a customer by its ID
func (r *gormCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	var customer partner.Customer
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &customer, nil
}

// FindByWawiID finds a customer by its external WAWI id
func (r *gormCustomerRepository) FindByWawiID(ctx context.Context, wawiID int64) (*partner.Customer, error) {
	var customer partner.Customer
	err := r.db.WithContext(ctx).Where("wawi_id = ?", wawiID).First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &customer, nil
}

// FindByCode finds a customer by its unique code
func (r *gormCustomerRepository) FindByCode(ctx context.Context, code string) (*partner.Customer, error) {
	var customer partner.Customer
	err := r.db.WithContext(ctx).Where("code = ?", strings.ToUpper(code)).First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &customer, nil
}

// FindAll returns a page of customers ordered by creation time
func (r *gormCustomerRepository) FindAll(ctx context.Context, limit, offset int) ([]partner.Customer, error) {
	var customers []partner.Customer
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&customers).Error
	return customers, err
}

// Count returns the total number of customers
func (r *gormCustomerRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&partner.Customer{}).Count(&count).Error
	return count, err
}

var _ partner.CustomerRepository = (*gormCustomerRepository)(nil)
