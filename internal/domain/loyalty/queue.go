package loyalty

import (
	"time"

	"github.com/google/uuid"

	"github.com/loyalty/backend/internal/domain/shared"
)

// QueueStatus represents the derived state of a customer's order queue.
// It is always computed from the entry count against the configured
// threshold, never stored.
type QueueStatus string

const (
	// QueueStatusPending means the queue holds fewer orders than the threshold
	QueueStatusPending QueueStatus = "pending"
	// QueueStatusReady means the queue holds enough orders to form a bundle
	QueueStatusReady QueueStatus = "ready"
	// QueueStatusProcessed means the queue is empty after consumption
	QueueStatusProcessed QueueStatus = "processed"
)

// QueueEntry is a single unconsumed order waiting in a customer's queue.
// The (customer, order) pair is unique so the same order can never be
// enqueued twice.
type QueueEntry struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_queue_customer_order,priority:1"`
	OrderID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_queue_customer_order,priority:2"`
	EnqueuedAt time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (QueueEntry) TableName() string {
	return "order_queue_entries"
}

// NewQueueEntry creates a queue entry for the given customer and order
func NewQueueEntry(customerID, orderID uuid.UUID, at time.Time) (*QueueEntry, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order ID cannot be empty")
	}
	if at.IsZero() {
		at = time.Now()
	}
	return &QueueEntry{
		ID:         uuid.New(),
		CustomerID: customerID,
		OrderID:    orderID,
		EnqueuedAt: at,
	}, nil
}

// OrderQueue is the read model of one customer's FIFO of unconsumed orders
type OrderQueue struct {
	CustomerID uuid.UUID
	// Entries are ordered oldest first
	Entries []QueueEntry
}

// Count returns the number of queued orders
func (q *OrderQueue) Count() int {
	return len(q.Entries)
}

// Status derives the queue status from the count and the threshold
func (q *OrderQueue) Status(threshold int) QueueStatus {
	return DeriveQueueStatus(q.Count(), threshold)
}

// Oldest returns the n oldest entries (FIFO order)
func (q *OrderQueue) Oldest(n int) []QueueEntry {
	if n > len(q.Entries) {
		n = len(q.Entries)
	}
	return q.Entries[:n]
}

// DeriveQueueStatus computes the queue status as a pure function of the
// entry count and the configured bundling threshold.
func DeriveQueueStatus(count, threshold int) QueueStatus {
	switch {
	case count == 0:
		return QueueStatusProcessed
	case count >= threshold:
		return QueueStatusReady
	default:
		return QueueStatusPending
	}
}
