package loyalty

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QueueRepository defines persistence for per-customer order queues.
// Enqueue must be atomic against concurrent calls for the same customer:
// the (customer, order) uniqueness is enforced by the store, not by a
// read-then-write in application code.
type QueueRepository interface {
	// Enqueue appends an entry. Returns false without error when the order
	// is already queued for the customer (duplicate no-op).
	Enqueue(ctx context.Context, entry *QueueEntry) (bool, error)

	// Load returns the customer's queue with entries ordered oldest first
	Load(ctx context.Context, customerID uuid.UUID) (*OrderQueue, error)

	// Count returns the number of queued entries for the customer
	Count(ctx context.Context, customerID uuid.UUID) (int, error)

	// RemoveOrders deletes the queue entries for the given orders once they
	// have been consumed into a discount group
	RemoveOrders(ctx context.Context, customerID uuid.UUID, orderIDs []uuid.UUID) error

	// Clear removes all entries of a customer's queue (administrative)
	Clear(ctx context.Context, customerID uuid.UUID) error
}

// DiscountGroupRepository defines persistence for discount groups
type DiscountGroupRepository interface {
	// Save creates or updates a group together with its items
	Save(ctx context.Context, group *DiscountGroup) error

	// FindByID finds a group by its ID, including items
	FindByID(ctx context.Context, id uuid.UUID) (*DiscountGroup, error)

	// FindByCustomer returns all groups of a customer, newest first
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]DiscountGroup, error)

	// Delete removes a group and its items
	Delete(ctx context.Context, id uuid.UUID) error

	// Count returns the total number of groups
	Count(ctx context.Context) (int64, error)

	// CountCreatedSince counts groups created after the cutoff
	CountCreatedSince(ctx context.Context, cutoff time.Time) (int64, error)
}

// WalletRepository defines persistence for customer wallets. Every
// mutation is expressed as a single conditional update executed by the
// store so concurrent grants and redemptions serialize correctly.
type WalletRepository interface {
	// FindByCustomer returns the customer's wallet, creating an empty one
	// on first access
	FindByCustomer(ctx context.Context, customerID uuid.UUID) (*Wallet, error)

	// Grant increases balance and totalGranted by amount (amount > 0) and
	// writes a GRANT ledger transaction
	Grant(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal, groupID *uuid.UUID) error

	// Redeem decreases balance and increases totalRedeemed by amount.
	// Fails with shared.ErrInsufficientBalance when the balance would go
	// negative; the wallet is left unchanged in that case.
	Redeem(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal, groupID *uuid.UUID) error

	// Adjust applies a signed delta to balance and totalGranted in one
	// step, used when a manual group update changes the computed total.
	// Fails with shared.ErrInsufficientBalance when the balance would go
	// negative.
	Adjust(ctx context.Context, customerID uuid.UUID, delta decimal.Decimal, groupID *uuid.UUID) error

	// ReverseGrant decreases balance and totalGranted by amount when an
	// available group is deleted. Fails with shared.ErrInsufficientBalance
	// when the balance would go negative.
	ReverseGrant(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal, groupID *uuid.UUID) error

	// Transactions returns the wallet ledger of a customer, newest first
	Transactions(ctx context.Context, customerID uuid.UUID) ([]WalletTransaction, error)
}

// SettingsRepository defines persistence for the loyalty settings singleton
type SettingsRepository interface {
	// Get returns the settings, materializing defaults on first read
	Get(ctx context.Context) (*Settings, error)

	// Save persists the settings row
	Save(ctx context.Context, settings *Settings) error
}
