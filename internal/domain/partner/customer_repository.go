package partner

import (
	"context"

	"github.com/google/uuid"
)

// CustomerRepository defines the interface for customer persistence
type CustomerRepository interface {
	// Save creates or updates a customer
	Save(ctx context.Context, customer *Customer) error

	// FindByID finds a customer by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)

	// FindByWawiID finds a customer by its external WAWI id
	FindByWawiID(ctx context.Context, wawiID int64) (*Customer, error)

	// FindByCode finds a customer by its unique code
	FindByCode(ctx context.Context, code string) (*Customer, error)

	// FindAll returns customers ordered by code, paginated
	FindAll(ctx context.Context, limit, offset int) ([]Customer, error)

	// Count returns the total number of customers
	Count(ctx context.Context) (int64, error)
}
