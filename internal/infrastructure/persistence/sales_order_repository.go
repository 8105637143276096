package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/loyalty/backend/internal/domain/loyalty"
	"github.com/loyalty/backend/internal/domain/shared"
	"github.com/loyalty/backend/internal/domain/trade"
)

// gormSalesOrderRepository implements trade.SalesOrderRepository using GORM
type gormSalesOrderRepository struct {
	db *gorm.DB
}

// NewSalesOrderRepository creates a new sales order repository
func NewSalesOrderRepository(db *gorm.DB) trade.SalesOrderRepository {
	return &gormSalesOrderRepository{db: db}
}

// Save creates or updates an order together with its line items. The
// stored line set is replaced so lines removed upstream disappear locally.
func (r *gormSalesOrderRepository) Save(ctx context.Context, order *trade.SalesOrder) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(order).Error; err != nil {
			return err
		}

		keep := make([]uuid.UUID, 0, len(order.Items))
		for i := range order.Items {
			order.Items[i].OrderID = order.ID
			keep = append(keep, order.Items[i].ID)
		}

		stale := tx.Where("order_id = ?", order.ID)
		if len(keep) > 0 {
			stale = stale.Where("id NOT IN ?", keep)
		}
		if err := stale.Delete(&trade.SalesOrderItem{}).Error; err != nil {
			return err
		}

		for i := range order.Items {
			if err := tx.Save(&order.Items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FindByID finds an order by its ID, including line items
func (r *gormSalesOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.SalesOrder, error) {
	var order trade.SalesOrder
	err := r.db.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByWawiID finds an order by its external WAWI id
func (r *gormSalesOrderRepository) FindByWawiID(ctx context.Context, wawiID int64) (*trade.SalesOrder, error) {
	var order trade.SalesOrder
	err := r.db.WithContext(ctx).Preload("Items").Where("wawi_id = ?", wawiID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByCustomer returns all orders of a customer, newest first
func (r *gormSalesOrderRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]trade.SalesOrder, error) {
	var orders []trade.SalesOrder
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("customer_id = ?", customerID).
		Order("order_date DESC").
		Find(&orders).Error
	return orders, err
}

// FindByIDs loads multiple orders including line items
func (r *gormSalesOrderRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]trade.SalesOrder, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var orders []trade.SalesOrder
	err := conn(ctx, r.db).Preload("Items").Where("id IN ?", ids).Find(&orders).Error
	return orders, err
}

// AssignDiscountGroup stamps the orders as members of the group in one
// guarded update. Orders already assigned to another group are not
// touched; a mismatch between the affected row count and the requested
// set fails the whole assignment.
func (r *gormSalesOrderRepository) AssignDiscountGroup(ctx context.Context, orderIDs []uuid.UUID, groupID uuid.UUID) error {
	if len(orderIDs) == 0 {
		return nil
	}
	res := conn(ctx, r.db).
		Model(&trade.SalesOrder{}).
		Where("id IN ? AND (discount_group_id IS NULL OR discount_group_id = ?)", orderIDs, groupID).
		Update("discount_group_id", groupID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != int64(len(orderIDs)) {
		return loyalty.ErrOrderAlreadyGrouped
	}
	return nil
}

// ClearDiscountGroup detaches all orders from the given group
func (r *gormSalesOrderRepository) ClearDiscountGroup(ctx context.Context, groupID uuid.UUID) error {
	return conn(ctx, r.db).
		Model(&trade.SalesOrder{}).
		Where("discount_group_id = ?", groupID).
		Update("discount_group_id", nil).Error
}

// CountSyncedSince counts orders last synced after the cutoff
func (r *gormSalesOrderRepository) CountSyncedSince(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&trade.SalesOrder{}).
		Where("last_synced_at >= ?", cutoff).
		Count(&count).Error
	return count, err
}

var _ trade.SalesOrderRepository = (*gormSalesOrderRepository)(nil)
