package trade

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/loyalty/backend/internal/domain/loyalty"
	"github.com/loyalty/backend/internal/domain/trade"
)

// OrderService exposes read and line maintenance operations on mirrored
// sales orders.
type OrderService struct {
	orderRepo trade.SalesOrderRepository
	logger    *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(orderRepo trade.SalesOrderRepository, logger *zap.Logger) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		logger:    logger.Named("order"),
	}
}

// Get returns an order with its line items
func (s *OrderService) Get(ctx context.Context, id uuid.UUID) (*trade.SalesOrder, error) {
	return s.orderRepo.FindByID(ctx, id)
}

// ListByCustomer returns all orders of a customer, newest first
func (s *OrderService) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]trade.SalesOrder, error) {
	return s.orderRepo.FindByCustomer(ctx, customerID)
}

// RemoveItem deletes a line from an order and recomputes its totals.
// Orders consumed into a discount group are immutable here; the group
// must be updated or deleted first.
func (s *OrderService) RemoveItem(ctx context.Context, orderID, itemID uuid.UUID) (*trade.SalesOrder, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.IsGrouped() {
		return nil, loyalty.ErrOrderAlreadyGrouped
	}
	if err := order.RemoveItem(itemID); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("Removed order line",
		zap.String("order_id", orderID.String()),
		zap.String("item_id", itemID.String()),
	)
	return order, nil
}
