package trade

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loyalty/backend/internal/domain/shared"
)

func newTestItem(unitPrice, quantity, subtotalIncl int64, eligible bool) SalesOrderItem {
	return SalesOrderItem{
		BaseEntity:       shared.NewBaseEntity(),
		Name:             "Test line",
		Quantity:         decimal.NewFromInt(quantity),
		UnitPrice:        decimal.NewFromInt(unitPrice),
		SubtotalExcl:     decimal.NewFromInt(subtotalIncl),
		SubtotalIncl:     decimal.NewFromInt(subtotalIncl),
		DiscountEligible: eligible,
	}
}

func TestLineAmount(t *testing.T) {
	t.Run("prefers the tax inclusive subtotal", func(t *testing.T) {
		item := newTestItem(10, 3, 36, true)
		assert.True(t, item.LineAmount().Equal(decimal.NewFromInt(36)))
	})

	t.Run("falls back to unit price times quantity", func(t *testing.T) {
		item := newTestItem(10, 3, 0, true)
		assert.True(t, item.LineAmount().Equal(decimal.NewFromInt(30)))
	})
}

func TestOrderStateIsSettled(t *testing.T) {
	assert.True(t, OrderStatePaid.IsSettled())
	assert.True(t, OrderStateInvoiced.IsSettled())
	assert.True(t, OrderStateCompleted.IsSettled())
	assert.False(t, OrderStatePending.IsSettled())
	assert.False(t, OrderStateRefunded.IsSettled())
}

func TestSalesOrderTotals(t *testing.T) {
	order, err := NewSalesOrder(uuid.New(), "SO-1", time.Now())
	require.NoError(t, err)

	require.NoError(t, order.AddItem(newTestItem(10, 2, 20, true)))
	require.NoError(t, order.AddItem(newTestItem(5, 4, 20, false)))

	t.Run("totals follow the items", func(t *testing.T) {
		assert.True(t, order.AmountTotal.Equal(decimal.NewFromInt(40)))
	})

	t.Run("eligible amount counts flagged lines only", func(t *testing.T) {
		assert.True(t, order.EligibleAmount().Equal(decimal.NewFromInt(20)))
	})

	t.Run("removing a line recomputes totals", func(t *testing.T) {
		require.NoError(t, order.RemoveItem(order.Items[1].ID))
		assert.Len(t, order.Items, 1)
		assert.True(t, order.AmountTotal.Equal(decimal.NewFromInt(20)))
	})

	t.Run("removing an unknown line fails", func(t *testing.T) {
		assert.ErrorIs(t, order.RemoveItem(uuid.New()), shared.ErrNotFound)
	})
}

func TestAccrualEligible(t *testing.T) {
	newOrder := func(t *testing.T) *SalesOrder {
		t.Helper()
		order, err := NewSalesOrder(uuid.New(), "SO-2", time.Now())
		require.NoError(t, err)
		require.NoError(t, order.AddItem(newTestItem(10, 2, 20, true)))
		require.NoError(t, order.SetState(OrderStatePaid))
		return order
	}

	t.Run("settled ungrouped order qualifies", func(t *testing.T) {
		assert.True(t, newOrder(t).AccrualEligible())
	})

	t.Run("pending order does not qualify", func(t *testing.T) {
		order := newOrder(t)
		require.NoError(t, order.SetState(OrderStatePending))
		assert.False(t, order.AccrualEligible())
	})

	t.Run("grouped order does not qualify", func(t *testing.T) {
		order := newOrder(t)
		groupID := uuid.New()
		order.DiscountGroupID = &groupID
		assert.False(t, order.AccrualEligible())
	})

	t.Run("line level discount disqualifies", func(t *testing.T) {
		order := newOrder(t)
		item := newTestItem(10, 1, 10, true)
		item.DiscountPercent = decimal.NewFromInt(5)
		require.NoError(t, order.AddItem(item))
		assert.False(t, order.AccrualEligible())
	})

	t.Run("zero total disqualifies", func(t *testing.T) {
		order, err := NewSalesOrder(uuid.New(), "SO-3", time.Now())
		require.NoError(t, err)
		require.NoError(t, order.SetState(OrderStatePaid))
		assert.False(t, order.AccrualEligible())
	})
}

func TestReplaceItems(t *testing.T) {
	order, err := NewSalesOrder(uuid.New(), "SO-4", time.Now())
	require.NoError(t, err)
	require.NoError(t, order.AddItem(newTestItem(10, 1, 10, true)))

	order.ReplaceItems([]SalesOrderItem{
		newTestItem(7, 2, 14, true),
		newTestItem(3, 1, 3, true),
	})

	assert.Len(t, order.Items, 2)
	assert.True(t, order.AmountTotal.Equal(decimal.NewFromInt(17)))
	for _, item := range order.Items {
		assert.Equal(t, order.ID, item.OrderID)
	}
}
