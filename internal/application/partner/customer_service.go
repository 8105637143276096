package partner

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/loyalty/backend/internal/domain/partner"
)

// CustomerService exposes read and maintenance operations on the
// mirrored customer base.
type CustomerService struct {
	customerRepo partner.CustomerRepository
	logger       *zap.Logger
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(customerRepo partner.CustomerRepository, logger *zap.Logger) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		logger:       logger.Named("customer"),
	}
}

// Get returns a customer by id
func (s *CustomerService) Get(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	return s.customerRepo.FindByID(ctx, id)
}

// List returns a page of customers and the total count
func (s *CustomerService) List(ctx context.Context, limit, offset int) ([]partner.Customer, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	customers, err := s.customerRepo.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.customerRepo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return customers, total, nil
}

// Create registers a customer manually, ahead of any WAWI sync
func (s *CustomerService) Create(ctx context.Context, code, name string) (*partner.Customer, error) {
	customer, err := partner.NewCustomer(code, name)
	if err != nil {
		return nil, err
	}
	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}
	s.logger.Info("Created customer", zap.String("id", customer.ID.String()), zap.String("code", customer.Code))
	return customer, nil
}

// Deactivate marks a customer inactive. Customers are never hard-deleted.
func (s *CustomerService) Deactivate(ctx context.Context, id uuid.UUID) error {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	customer.Deactivate()
	return s.customerRepo.Save(ctx, customer)
}
