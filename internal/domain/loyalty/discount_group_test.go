package loyalty

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustItem(t *testing.T, eligible string, rate int64, index int) DiscountGroupItem {
	t.Helper()
	amount, err := decimal.NewFromString(eligible)
	require.NoError(t, err)
	item, err := NewDiscountGroupItem(uuid.New(), index, amount, decimal.NewFromInt(rate))
	require.NoError(t, err)
	return *item
}

func TestComputeDiscount(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		rate   int64
		want   string
	}{
		{"ten percent of 100", "100", 10, "10"},
		{"ten percent of 120", "120", 10, "12"},
		{"ten percent of 80", "80", 10, "8"},
		{"rounds to two decimals", "33.33", 15, "5"},
		{"zero amount", "0", 10, "0"},
		{"zero rate", "250", 0, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, err := decimal.NewFromString(tt.amount)
			require.NoError(t, err)
			want, err := decimal.NewFromString(tt.want)
			require.NoError(t, err)
			assert.True(t, ComputeDiscount(amount, decimal.NewFromInt(tt.rate)).Equal(want))
		})
	}
}

func TestNewDiscountGroup(t *testing.T) {
	t.Run("computes totals from items", func(t *testing.T) {
		items := []DiscountGroupItem{
			mustItem(t, "100", 10, 0),
			mustItem(t, "120", 10, 1),
			mustItem(t, "80", 10, 2),
		}

		group, err := NewDiscountGroup(uuid.New(), items)
		require.NoError(t, err)

		assert.Equal(t, GroupStatusAvailable, group.Status)
		assert.True(t, group.TotalAmount.Equal(decimal.NewFromInt(300)))
		assert.True(t, group.TotalDiscount.Equal(decimal.NewFromInt(30)))
		for _, item := range group.Items {
			assert.Equal(t, group.ID, item.GroupID)
		}
	})

	t.Run("rejects empty item set", func(t *testing.T) {
		_, err := NewDiscountGroup(uuid.New(), nil)
		assert.Error(t, err)
	})

	t.Run("rejects empty customer", func(t *testing.T) {
		_, err := NewDiscountGroup(uuid.Nil, []DiscountGroupItem{mustItem(t, "100", 10, 0)})
		assert.Error(t, err)
	})
}

func TestDiscountGroupReplaceItems(t *testing.T) {
	t.Run("returns signed discount delta", func(t *testing.T) {
		group, err := NewDiscountGroup(uuid.New(), []DiscountGroupItem{
			mustItem(t, "100", 10, 0),
			mustItem(t, "100", 10, 1),
		})
		require.NoError(t, err)

		delta, err := group.ReplaceItems([]DiscountGroupItem{
			mustItem(t, "50", 10, 0),
			mustItem(t, "100", 10, 1),
		})
		require.NoError(t, err)

		assert.True(t, delta.Equal(decimal.NewFromInt(-5)))
		assert.True(t, group.TotalDiscount.Equal(decimal.NewFromInt(15)))
	})

	t.Run("redeemed group is immutable", func(t *testing.T) {
		group, err := NewDiscountGroup(uuid.New(), []DiscountGroupItem{mustItem(t, "100", 10, 0)})
		require.NoError(t, err)
		require.NoError(t, group.Redeem(time.Now()))

		_, err = group.ReplaceItems([]DiscountGroupItem{mustItem(t, "200", 10, 0)})
		assert.ErrorIs(t, err, ErrGroupAlreadyRedeemed)
	})
}

func TestDiscountGroupRedeem(t *testing.T) {
	group, err := NewDiscountGroup(uuid.New(), []DiscountGroupItem{mustItem(t, "100", 10, 0)})
	require.NoError(t, err)

	t.Run("transitions once", func(t *testing.T) {
		at := time.Now()
		require.NoError(t, group.Redeem(at))
		assert.Equal(t, GroupStatusRedeemed, group.Status)
		require.NotNil(t, group.RedeemedAt)
		assert.Equal(t, at, *group.RedeemedAt)
		assert.False(t, group.IsAvailable())
	})

	t.Run("second redeem fails", func(t *testing.T) {
		assert.ErrorIs(t, group.Redeem(time.Now()), ErrGroupAlreadyRedeemed)
	})
}

func TestDiscountGroupContainsOrder(t *testing.T) {
	item := mustItem(t, "100", 10, 0)
	group, err := NewDiscountGroup(uuid.New(), []DiscountGroupItem{item})
	require.NoError(t, err)

	assert.True(t, group.ContainsOrder(item.OrderID))
	assert.False(t, group.ContainsOrder(uuid.New()))
}
