package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/loyalty/backend/internal/domain/loyalty"
	"github.com/loyalty/backend/internal/domain/shared"
)

// gormWalletRepository implements loyalty.WalletRepository using GORM.
// Every mutation is a single conditional UPDATE with the balance guard
// evaluated by the database, so concurrent grants and redemptions
// serialize on the row without read-modify-write races.
type gormWalletRepository struct {
	db *gorm.DB
}

// NewWalletRepository creates a new wallet repository
func NewWalletRepository(db *gorm.DB) loyalty.WalletRepository {
	return &gormWalletRepository{db: db}
}

// FindByCustomer returns the customer's wallet, creating an empty one on
// first access.
func (r *gormWalletRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) (*loyalty.Wallet, error) {
	if err := r.ensureWallet(ctx, conn(ctx, r.db), customerID); err != nil {
		return nil, err
	}
	var wallet loyalty.Wallet
	err := conn(ctx, r.db).Where("customer_id = ?", customerID).First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &wallet, nil
}

// Grant increases balance and totalGranted by amount
func (r *gormWalletRepository) Grant(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal, groupID *uuid.UUID) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Grant amount must be positive")
	}
	return r.mutate(ctx, customerID, mutation{
		balanceDelta: amount,
		grantedDelta: amount,
		txType:       loyalty.WalletTransactionGrant,
		groupID:      groupID,
		remark:       "Bundle discount granted",
	})
}

// Redeem decreases balance and increases totalRedeemed by amount
func (r *gormWalletRepository) Redeem(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal, groupID *uuid.UUID) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Redeem amount must be positive")
	}
	return r.mutate(ctx, customerID, mutation{
		balanceDelta:  amount.Neg(),
		redeemedDelta: amount,
		txType:        loyalty.WalletTransactionRedeem,
		groupID:       groupID,
		remark:        "Bundle discount redeemed",
	})
}

// Adjust applies a signed delta to balance and totalGranted in one step
func (r *gormWalletRepository) Adjust(ctx context.Context, customerID uuid.UUID, delta decimal.Decimal, groupID *uuid.UUID) error {
	if delta.IsZero() {
		return nil
	}
	return r.mutate(ctx, customerID, mutation{
		balanceDelta: delta,
		grantedDelta: delta,
		txType:       loyalty.WalletTransactionAdjust,
		groupID:      groupID,
		remark:       "Bundle membership adjusted",
	})
}

// ReverseGrant decreases balance and totalGranted by amount
func (r *gormWalletRepository) ReverseGrant(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal, groupID *uuid.UUID) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Reverse amount must be positive")
	}
	return r.mutate(ctx, customerID, mutation{
		balanceDelta: amount.Neg(),
		grantedDelta: amount.Neg(),
		txType:       loyalty.WalletTransactionReverse,
		groupID:      groupID,
		remark:       "Bundle grant reversed",
	})
}

// Transactions returns the wallet ledger of a customer, newest first
func (r *gormWalletRepository) Transactions(ctx context.Context, customerID uuid.UUID) ([]loyalty.WalletTransaction, error) {
	var txs []loyalty.WalletTransaction
	err := conn(ctx, r.db).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&txs).Error
	return txs, err
}

// mutation describes one wallet update and its ledger record
type mutation struct {
	balanceDelta  decimal.Decimal
	grantedDelta  decimal.Decimal
	redeemedDelta decimal.Decimal
	txType        loyalty.WalletTransactionType
	groupID       *uuid.UUID
	remark        string
}

// mutate applies the deltas in a single guarded UPDATE and writes the
// ledger row in the same transaction. The guard keeps the balance
// non-negative; a zero row count with an existing wallet means the guard
// rejected the mutation.
func (r *gormWalletRepository) mutate(ctx context.Context, customerID uuid.UUID, m mutation) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := r.ensureWallet(ctx, tx, customerID); err != nil {
			return err
		}

		res := tx.Model(&loyalty.Wallet{}).
			Where("customer_id = ? AND balance + ? >= 0", customerID, m.balanceDelta).
			Updates(map[string]any{
				"balance":        gorm.Expr("balance + ?", m.balanceDelta),
				"total_granted":  gorm.Expr("total_granted + ?", m.grantedDelta),
				"total_redeemed": gorm.Expr("total_redeemed + ?", m.redeemedDelta),
				"updated_at":     time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return shared.ErrInsufficientBalance
		}

		record, err := loyalty.NewWalletTransaction(customerID, m.txType, m.balanceDelta, m.groupID, m.remark)
		if err != nil {
			return err
		}
		return tx.Create(record).Error
	})
}

// ensureWallet lazily creates the wallet row, tolerating concurrent creation
func (r *gormWalletRepository) ensureWallet(ctx context.Context, tx *gorm.DB, customerID uuid.UUID) error {
	wallet, err := loyalty.NewWallet(customerID)
	if err != nil {
		return err
	}
	return tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "customer_id"}},
			DoNothing: true,
		}).
		Create(wallet).Error
}

var _ loyalty.WalletRepository = (*gormWalletRepository)(nil)
