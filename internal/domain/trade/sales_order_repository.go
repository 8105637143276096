package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SalesOrderRepository defines the interface for sales order persistence
type SalesOrderRepository interface {
	// Save creates or updates a sales order together with its line items
	Save(ctx context.Context, order *SalesOrder) error

	// FindByID finds an order by its ID, including line items
	FindByID(ctx context.Context, id uuid.UUID) (*SalesOrder, error)

	// FindByWawiID finds an order by its external WAWI id
	FindByWawiID(ctx context.Context, wawiID int64) (*SalesOrder, error)

	// FindByCustomer returns all orders of a customer, newest first
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]SalesOrder, error)

	// FindByIDs loads multiple orders including line items
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]SalesOrder, error)

	// AssignDiscountGroup atomically stamps the given orders as members of
	// a discount group. It must fail for orders already assigned elsewhere.
	AssignDiscountGroup(ctx context.Context, orderIDs []uuid.UUID, groupID uuid.UUID) error

	// ClearDiscountGroup detaches all orders from the given group
	ClearDiscountGroup(ctx context.Context, groupID uuid.UUID) error

	// CountSyncedSince counts orders last synced after the cutoff
	CountSyncedSince(ctx context.Context, cutoff time.Time) (int64, error)
}
