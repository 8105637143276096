package loyalty

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletInvariant(t *testing.T) {
	t.Run("fresh wallet is consistent", func(t *testing.T) {
		wallet, err := NewWallet(uuid.New())
		require.NoError(t, err)
		assert.NoError(t, wallet.CheckInvariant())
	})

	t.Run("balance must equal granted minus redeemed", func(t *testing.T) {
		wallet, err := NewWallet(uuid.New())
		require.NoError(t, err)
		wallet.TotalGranted = decimal.NewFromInt(30)
		wallet.TotalRedeemed = decimal.NewFromInt(10)
		wallet.Balance = decimal.NewFromInt(20)
		assert.NoError(t, wallet.CheckInvariant())

		wallet.Balance = decimal.NewFromInt(25)
		assert.Error(t, wallet.CheckInvariant())
	})

	t.Run("negative balance violates the invariant", func(t *testing.T) {
		wallet, err := NewWallet(uuid.New())
		require.NoError(t, err)
		wallet.TotalRedeemed = decimal.NewFromInt(5)
		wallet.Balance = decimal.NewFromInt(-5)
		assert.Error(t, wallet.CheckInvariant())
	})

	t.Run("rejects empty customer", func(t *testing.T) {
		_, err := NewWallet(uuid.Nil)
		assert.Error(t, err)
	})
}

func TestNewWalletTransaction(t *testing.T) {
	customerID := uuid.New()
	groupID := uuid.New()

	t.Run("creates ledger record", func(t *testing.T) {
		tx, err := NewWalletTransaction(customerID, WalletTransactionGrant, decimal.NewFromInt(30), &groupID, "Bundle discount granted")
		require.NoError(t, err)
		assert.Equal(t, WalletTransactionGrant, tx.Type)
		assert.True(t, tx.Amount.Equal(decimal.NewFromInt(30)))
		assert.Equal(t, &groupID, tx.GroupID)
	})

	t.Run("negative amounts are allowed for signed deltas", func(t *testing.T) {
		tx, err := NewWalletTransaction(customerID, WalletTransactionAdjust, decimal.NewFromInt(-5), &groupID, "")
		require.NoError(t, err)
		assert.True(t, tx.Amount.IsNegative())
	})

	t.Run("rejects zero amount", func(t *testing.T) {
		_, err := NewWalletTransaction(customerID, WalletTransactionGrant, decimal.Zero, nil, "")
		assert.Error(t, err)
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		_, err := NewWalletTransaction(customerID, WalletTransactionType("BOGUS"), decimal.NewFromInt(1), nil, "")
		assert.Error(t, err)
	})
}
