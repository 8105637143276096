package loyalty

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/loyalty/backend/internal/domain/loyalty"
	"github.com/loyalty/backend/internal/domain/shared"
	"github.com/loyalty/backend/internal/domain/trade"
)

// EnqueueResult reports the outcome of adding an order to a customer's queue
type EnqueueResult struct {
	// Duplicate is true when the order was already queued (no-op)
	Duplicate bool
	// QueueCount is the entry count after the operation
	QueueCount int
	// Status is the derived queue status after the operation
	Status loyalty.QueueStatus
	// Group is set when the enqueue triggered automatic bundling
	Group *loyalty.DiscountGroup
}

// AccrualService is the discount accrual engine: it maintains the
// per-customer FIFO of unconsumed orders, forms discount bundles when
// the queue reaches the configured threshold, and keeps the customer
// wallet ledger consistent.
type AccrualService struct {
	tx           shared.TransactionManager
	queueRepo    loyalty.QueueRepository
	groupRepo    loyalty.DiscountGroupRepository
	walletRepo   loyalty.WalletRepository
	settingsRepo loyalty.SettingsRepository
	orderRepo    trade.SalesOrderRepository
	logger       *zap.Logger
}

// NewAccrualService creates a new AccrualService
func NewAccrualService(
	tx shared.TransactionManager,
	queueRepo loyalty.QueueRepository,
	groupRepo loyalty.DiscountGroupRepository,
	walletRepo loyalty.WalletRepository,
	settingsRepo loyalty.SettingsRepository,
	orderRepo trade.SalesOrderRepository,
	logger *zap.Logger,
) *AccrualService {
	return &AccrualService{
		tx:           tx,
		queueRepo:    queueRepo,
		groupRepo:    groupRepo,
		walletRepo:   walletRepo,
		settingsRepo: settingsRepo,
		orderRepo:    orderRepo,
		logger:       logger.Named("accrual"),
	}
}

// Enqueue appends an order to its customer's queue, creating the queue
// lazily on first use. Re-enqueueing the same order is a no-op reported
// as a duplicate. When the resulting count reaches the configured
// threshold and automatic bundling is enabled, a discount bundle is
// formed in the same call.
func (s *AccrualService) Enqueue(ctx context.Context, customerID, orderID uuid.UUID) (*EnqueueResult, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}

	entry, err := loyalty.NewQueueEntry(customerID, orderID, time.Now())
	if err != nil {
		return nil, err
	}

	appended, err := s.queueRepo.Enqueue(ctx, entry)
	if err != nil {
		return nil, err
	}

	count, err := s.queueRepo.Count(ctx, customerID)
	if err != nil {
		return nil, err
	}

	result := &EnqueueResult{
		Duplicate:  !appended,
		QueueCount: count,
		Status:     loyalty.DeriveQueueStatus(count, settings.OrdersRequired),
	}
	if result.Duplicate {
		return result, nil
	}

	if settings.AutoCreateDiscount && count >= settings.OrdersRequired {
		group, err := s.FormBundle(ctx, customerID)
		if err != nil {
			// The order stays queued; the next enqueue or a manual
			// bundling attempt picks it up again.
			s.logger.Error("Automatic bundling failed",
				zap.String("customer_id", customerID.String()),
				zap.Error(err),
			)
			return result, nil
		}
		result.Group = group
		result.QueueCount = count - len(group.Items)
		result.Status = loyalty.DeriveQueueStatus(result.QueueCount, settings.OrdersRequired)
	}

	return result, nil
}

// FormBundle consumes the oldest `threshold` queued orders of a customer
// into a new discount group and grants the computed discount to the
// customer's wallet. The queue keeps any remaining entries.
func (s *AccrualService) FormBundle(ctx context.Context, customerID uuid.UUID) (*loyalty.DiscountGroup, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}

	queue, err := s.queueRepo.Load(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if queue.Count() < settings.OrdersRequired {
		return nil, loyalty.ErrQueueNotReady
	}

	oldest := queue.Oldest(settings.OrdersRequired)
	orderIDs := make([]uuid.UUID, len(oldest))
	for i, entry := range oldest {
		orderIDs[i] = entry.OrderID
	}

	items, err := s.buildItems(ctx, orderIDs, settings)
	if err != nil {
		return nil, err
	}

	group, err := loyalty.NewDiscountGroup(customerID, items)
	if err != nil {
		return nil, err
	}

	if err := s.persistNewGroup(ctx, customerID, orderIDs, group); err != nil {
		return nil, err
	}

	s.logger.Info("Formed discount bundle",
		zap.String("customer_id", customerID.String()),
		zap.String("group_id", group.ID.String()),
		zap.Int("orders", len(items)),
		zap.String("total_discount", group.TotalDiscount.String()),
	)
	return group, nil
}

// CreateDiscountGroup forms a bundle from an operator-chosen set of
// orders. The set size must equal the configured threshold and no order
// may already belong to another group.
func (s *AccrualService) CreateDiscountGroup(ctx context.Context, customerID uuid.UUID, orderIDs []uuid.UUID, notes string) (*loyalty.DiscountGroup, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if len(orderIDs) != settings.OrdersRequired {
		return nil, loyalty.ErrWrongOrderCount
	}

	orders, err := s.loadCustomerOrders(ctx, customerID, orderIDs)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if orders[i].IsGrouped() {
			return nil, loyalty.ErrOrderAlreadyGrouped
		}
		if settings.EnforceEligibilityOnManual && !orders[i].AccrualEligible() {
			return nil, loyalty.ErrOrderNotEligible
		}
	}

	items, err := s.buildItems(ctx, orderIDs, settings)
	if err != nil {
		return nil, err
	}

	group, err := loyalty.NewDiscountGroup(customerID, items)
	if err != nil {
		return nil, err
	}
	group.Notes = notes

	if err := s.persistNewGroup(ctx, customerID, orderIDs, group); err != nil {
		return nil, err
	}

	return group, nil
}

// persistNewGroup stores a freshly formed group atomically. The group
// row, the member stamps, the queue consumption and the wallet grant
// either all land or none do.
func (s *AccrualService) persistNewGroup(ctx context.Context, customerID uuid.UUID, orderIDs []uuid.UUID, group *loyalty.DiscountGroup) error {
	return s.tx.Do(ctx, func(ctx context.Context) error {
		if err := s.groupRepo.Save(ctx, group); err != nil {
			return err
		}
		if err := s.orderRepo.AssignDiscountGroup(ctx, orderIDs, group.ID); err != nil {
			return err
		}
		if err := s.queueRepo.RemoveOrders(ctx, customerID, orderIDs); err != nil {
			return err
		}
		return s.walletRepo.Grant(ctx, customerID, group.TotalDiscount, &group.ID)
	})
}

// UpdateDiscountGroup replaces the member set of an available group. The
// wallet receives the signed difference between the new and old computed
// totals as a single adjustment, never a redeem-plus-regrant.
func (s *AccrualService) UpdateDiscountGroup(ctx context.Context, groupID uuid.UUID, orderIDs []uuid.UUID, notes string) (*loyalty.DiscountGroup, error) {
	group, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.IsAvailable() {
		return nil, loyalty.ErrGroupAlreadyRedeemed
	}

	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if len(orderIDs) != settings.OrdersRequired {
		return nil, loyalty.ErrWrongOrderCount
	}

	orders, err := s.loadCustomerOrders(ctx, group.CustomerID, orderIDs)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if orders[i].DiscountGroupID != nil && *orders[i].DiscountGroupID != groupID {
			return nil, loyalty.ErrOrderAlreadyGrouped
		}
	}

	items, err := s.buildItems(ctx, orderIDs, settings)
	if err != nil {
		return nil, err
	}

	delta, err := group.ReplaceItems(items)
	if err != nil {
		return nil, err
	}
	group.Notes = notes

	err = s.tx.Do(ctx, func(ctx context.Context) error {
		if err := s.orderRepo.ClearDiscountGroup(ctx, groupID); err != nil {
			return err
		}
		if err := s.groupRepo.Save(ctx, group); err != nil {
			return err
		}
		if err := s.orderRepo.AssignDiscountGroup(ctx, orderIDs, groupID); err != nil {
			return err
		}
		if err := s.queueRepo.RemoveOrders(ctx, group.CustomerID, orderIDs); err != nil {
			return err
		}
		if delta.IsZero() {
			return nil
		}
		return s.walletRepo.Adjust(ctx, group.CustomerID, delta, &groupID)
	})
	if err != nil {
		return nil, err
	}

	return group, nil
}

// Redeem consumes an available group's discount: the wallet balance is
// decreased and totalRedeemed increased by the group total, then the
// group transitions to redeemed exactly once. Redeeming with an
// insufficient balance fails and leaves the wallet unchanged.
func (s *AccrualService) Redeem(ctx context.Context, groupID uuid.UUID) (*loyalty.DiscountGroup, error) {
	group, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := group.Redeem(time.Now()); err != nil {
		return nil, err
	}

	err = s.tx.Do(ctx, func(ctx context.Context) error {
		if err := s.walletRepo.Redeem(ctx, group.CustomerID, group.TotalDiscount, &groupID); err != nil {
			return err
		}
		return s.groupRepo.Save(ctx, group)
	})
	if err != nil {
		return nil, err
	}

	return group, nil
}

// DeleteGroup removes an available group, reversing its wallet grant and
// releasing its member orders. Redeemed groups cannot be deleted.
func (s *AccrualService) DeleteGroup(ctx context.Context, groupID uuid.UUID) error {
	group, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		return err
	}
	if !group.IsAvailable() {
		return loyalty.ErrGroupNotAvailable
	}

	return s.tx.Do(ctx, func(ctx context.Context) error {
		if err := s.walletRepo.ReverseGrant(ctx, group.CustomerID, group.TotalDiscount, &groupID); err != nil {
			return err
		}
		if err := s.orderRepo.ClearDiscountGroup(ctx, groupID); err != nil {
			return err
		}
		return s.groupRepo.Delete(ctx, groupID)
	})
}

// QueueView is the operator-facing snapshot of a customer's queue
type QueueView struct {
	CustomerID uuid.UUID
	Count      int
	Status     loyalty.QueueStatus
	Entries    []loyalty.QueueEntry
}

// GetQueue returns the queue snapshot with its derived status
func (s *AccrualService) GetQueue(ctx context.Context, customerID uuid.UUID) (*QueueView, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	queue, err := s.queueRepo.Load(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return &QueueView{
		CustomerID: customerID,
		Count:      queue.Count(),
		Status:     queue.Status(settings.OrdersRequired),
		Entries:    queue.Entries,
	}, nil
}

// GetWallet returns the customer's wallet, creating an empty one on first access
func (s *AccrualService) GetWallet(ctx context.Context, customerID uuid.UUID) (*loyalty.Wallet, error) {
	return s.walletRepo.FindByCustomer(ctx, customerID)
}

// GetGroup returns one discount group with its entries
func (s *AccrualService) GetGroup(ctx context.Context, groupID uuid.UUID) (*loyalty.DiscountGroup, error) {
	return s.groupRepo.FindByID(ctx, groupID)
}

// GetTransactions returns the customer's wallet ledger, newest first
func (s *AccrualService) GetTransactions(ctx context.Context, customerID uuid.UUID) ([]loyalty.WalletTransaction, error) {
	return s.walletRepo.Transactions(ctx, customerID)
}

// ListGroups returns all discount groups of a customer
func (s *AccrualService) ListGroups(ctx context.Context, customerID uuid.UUID) ([]loyalty.DiscountGroup, error) {
	return s.groupRepo.FindByCustomer(ctx, customerID)
}

// buildItems fetches the current order records and computes the bundle
// entries: eligible amount from discount-eligible lines, discount as
// eligible x rate / 100. Totals are always recomputed, never trusted
// from input.
func (s *AccrualService) buildItems(ctx context.Context, orderIDs []uuid.UUID, settings *loyalty.Settings) ([]loyalty.DiscountGroupItem, error) {
	orders, err := s.orderRepo.FindByIDs(ctx, orderIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*trade.SalesOrder, len(orders))
	for i := range orders {
		byID[orders[i].ID] = &orders[i]
	}

	items := make([]loyalty.DiscountGroupItem, 0, len(orderIDs))
	for idx, orderID := range orderIDs {
		order, ok := byID[orderID]
		if !ok {
			return nil, shared.ErrNotFound
		}
		item, err := loyalty.NewDiscountGroupItem(order.ID, idx, order.EligibleAmount(), settings.DiscountRate)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

// loadCustomerOrders fetches the orders and verifies they all belong to
// the given customer.
func (s *AccrualService) loadCustomerOrders(ctx context.Context, customerID uuid.UUID, orderIDs []uuid.UUID) ([]trade.SalesOrder, error) {
	orders, err := s.orderRepo.FindByIDs(ctx, orderIDs)
	if err != nil {
		return nil, err
	}
	if len(orders) != len(orderIDs) {
		return nil, shared.ErrNotFound
	}
	for i := range orders {
		if orders[i].CustomerID != customerID {
			return nil, shared.NewDomainError("ORDER_CUSTOMER_MISMATCH", "Order does not belong to the customer")
		}
	}
	return orders, nil
}
