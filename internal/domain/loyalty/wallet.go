package loyalty

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/loyalty/backend/internal/domain/shared"
)

// Wallet is the per-customer discount ledger. The invariant
// balance == totalGranted - totalRedeemed holds at every observable point;
// the balance is adjusted only through grant/redeem/adjust operations,
// never set directly.
type Wallet struct {
	shared.BaseEntity
	CustomerID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	Balance       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalGranted  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalRedeemed decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (Wallet) TableName() string {
	return "wallets"
}

// NewWallet creates an empty wallet for a customer
func NewWallet(customerID uuid.UUID) (*Wallet, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	return &Wallet{
		BaseEntity:    shared.NewBaseEntity(),
		CustomerID:    customerID,
		Balance:       decimal.Zero,
		TotalGranted:  decimal.Zero,
		TotalRedeemed: decimal.Zero,
	}, nil
}

// CheckInvariant verifies balance == totalGranted - totalRedeemed
func (w *Wallet) CheckInvariant() error {
	if !w.Balance.Equal(w.TotalGranted.Sub(w.TotalRedeemed)) {
		return shared.NewDomainError("WALLET_INVARIANT_VIOLATED", "Wallet balance does not match granted minus redeemed")
	}
	if w.Balance.IsNegative() {
		return shared.NewDomainError("WALLET_INVARIANT_VIOLATED", "Wallet balance is negative")
	}
	return nil
}

// WalletTransactionType classifies a wallet ledger mutation
type WalletTransactionType string

const (
	// WalletTransactionGrant credits a bundle discount (balance and totalGranted increase)
	WalletTransactionGrant WalletTransactionType = "GRANT"
	// WalletTransactionRedeem consumes a bundle discount (balance decreases, totalRedeemed increases)
	WalletTransactionRedeem WalletTransactionType = "REDEEM"
	// WalletTransactionAdjust applies a signed correction after a manual group update
	WalletTransactionAdjust WalletTransactionType = "ADJUST"
	// WalletTransactionReverse undoes a grant when an available group is deleted
	WalletTransactionReverse WalletTransactionType = "REVERSE"
)

// IsValid returns true if the transaction type is valid
func (t WalletTransactionType) IsValid() bool {
	switch t {
	case WalletTransactionGrant, WalletTransactionRedeem, WalletTransactionAdjust, WalletTransactionReverse:
		return true
	default:
		return false
	}
}

// WalletTransaction is an immutable record of a wallet mutation.
// Corrections are made with new transactions, never by editing.
type WalletTransaction struct {
	ID         uuid.UUID             `gorm:"type:uuid;primaryKey"`
	CustomerID uuid.UUID             `gorm:"type:uuid;not null;index"`
	Type       WalletTransactionType `gorm:"type:varchar(20);not null"`
	// Amount is the signed balance delta applied by this transaction
	Amount decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	// GroupID references the discount group that caused the mutation
	GroupID   *uuid.UUID `gorm:"type:uuid;index"`
	Remark    string     `gorm:"type:text"`
	CreatedAt time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}

// NewWalletTransaction creates a ledger record for a wallet mutation
func NewWalletTransaction(customerID uuid.UUID, txType WalletTransactionType, amount decimal.Decimal, groupID *uuid.UUID, remark string) (*WalletTransaction, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if !txType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Invalid wallet transaction type")
	}
	if amount.IsZero() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Transaction amount cannot be zero")
	}
	return &WalletTransaction{
		ID:         uuid.New(),
		CustomerID: customerID,
		Type:       txType,
		Amount:     amount,
		GroupID:    groupID,
		Remark:     remark,
		CreatedAt:  time.Now(),
	}, nil
}
