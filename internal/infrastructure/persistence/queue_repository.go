package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/loyalty/backend/internal/domain/loyalty"
)

// gormQueueRepository implements loyalty.QueueRepository using GORM
type gormQueueRepository struct {
	db *gorm.DB
}

// NewQueueRepository creates a new order queue repository
func NewQueueRepository(db *gorm.DB) loyalty.QueueRepository {
	return &gormQueueRepository{db: db}
}

// Enqueue inserts the entry with conflict suppression on the unique
// (customer, order) pair, so concurrent enqueues of the same order
// collapse into a single row without errors. RowsAffected distinguishes
// an append from a duplicate no-op.
func (r *gormQueueRepository) Enqueue(ctx context.Context, entry *loyalty.QueueEntry) (bool, error) {
	res := conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "customer_id"}, {Name: "order_id"}},
			DoNothing: true,
		}).
		Create(entry)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Load returns the customer's queue with entries ordered oldest first
func (r *gormQueueRepository) Load(ctx context.Context, customerID uuid.UUID) (*loyalty.OrderQueue, error) {
	var entries []loyalty.QueueEntry
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("enqueued_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return &loyalty.OrderQueue{CustomerID: customerID, Entries: entries}, nil
}

// Count returns the number of queued entries for the customer
func (r *gormQueueRepository) Count(ctx context.Context, customerID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&loyalty.QueueEntry{}).
		Where("customer_id = ?", customerID).
		Count(&count).Error
	return int(count), err
}

// RemoveOrders deletes the queue entries for consumed orders
func (r *gormQueueRepository) RemoveOrders(ctx context.Context, customerID uuid.UUID, orderIDs []uuid.UUID) error {
	if len(orderIDs) == 0 {
		return nil
	}
	return conn(ctx, r.db).
		Where("customer_id = ? AND order_id IN ?", customerID, orderIDs).
		Delete(&loyalty.QueueEntry{}).Error
}

// Clear removes all entries of a customer's queue
func (r *gormQueueRepository) Clear(ctx context.Context, customerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Delete(&loyalty.QueueEntry{}).Error
}

var _ loyalty.QueueRepository = (*gormQueueRepository)(nil)
