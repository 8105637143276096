package loyalty

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/loyalty/backend/internal/domain/loyalty"
	"github.com/loyalty/backend/internal/domain/partner"
	"github.com/loyalty/backend/internal/domain/shared"
	"github.com/loyalty/backend/internal/domain/trade"
	"github.com/loyalty/backend/internal/infrastructure/persistence"
)

// testEnv wires the accrual engine against an in-memory database
type testEnv struct {
	db       *gorm.DB
	service  *AccrualService
	orders   trade.SalesOrderRepository
	wallets  loyalty.WalletRepository
	queues   loyalty.QueueRepository
	groups   loyalty.DiscountGroupRepository
	settings loyalty.SettingsRepository
	customer *partner.Customer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&partner.Customer{},
		&trade.SalesOrder{},
		&trade.SalesOrderItem{},
		&loyalty.QueueEntry{},
		&loyalty.DiscountGroup{},
		&loyalty.DiscountGroupItem{},
		&loyalty.Wallet{},
		&loyalty.WalletTransaction{},
		&loyalty.Settings{},
	))

	env := &testEnv{
		db:       db,
		orders:   persistence.NewSalesOrderRepository(db),
		wallets:  persistence.NewWalletRepository(db),
		queues:   persistence.NewQueueRepository(db),
		groups:   persistence.NewDiscountGroupRepository(db),
		settings: persistence.NewSettingsRepository(db),
	}
	env.service = NewAccrualService(persistence.NewTransactionManager(db), env.queues, env.groups, env.wallets, env.settings, env.orders, zap.NewNop())

	customer, err := partner.NewCustomer("CUST-1", "Test Customer")
	require.NoError(t, err)
	require.NoError(t, persistence.NewCustomerRepository(db).Save(context.Background(), customer))
	env.customer = customer

	return env
}

// newPaidOrder persists a paid single-line order with the given eligible amount
func (e *testEnv) newPaidOrder(t *testing.T, number string, amount int64) *trade.SalesOrder {
	t.Helper()

	order, err := trade.NewSalesOrder(e.customer.ID, number, time.Now())
	require.NoError(t, err)
	require.NoError(t, order.AddItem(trade.SalesOrderItem{
		BaseEntity:       shared.NewBaseEntity(),
		Name:             "Line",
		Quantity:         decimal.NewFromInt(1),
		UnitPrice:        decimal.NewFromInt(amount),
		SubtotalExcl:     decimal.NewFromInt(amount),
		SubtotalIncl:     decimal.NewFromInt(amount),
		DiscountEligible: true,
	}))
	require.NoError(t, order.SetState(trade.OrderStatePaid))
	require.NoError(t, e.orders.Save(context.Background(), order))
	return order
}

func TestEnqueueBelowThreshold(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order := env.newPaidOrder(t, "SO-1", 100)

	result, err := env.service.Enqueue(ctx, env.customer.ID, order.ID)
	require.NoError(t, err)
	assert.False(t, result.Duplicate)
	assert.Equal(t, 1, result.QueueCount)
	assert.Equal(t, loyalty.QueueStatusPending, result.Status)
	assert.Nil(t, result.Group)
}

func TestEnqueueDuplicateIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order := env.newPaidOrder(t, "SO-1", 100)

	first, err := env.service.Enqueue(ctx, env.customer.ID, order.ID)
	require.NoError(t, err)
	require.False(t, first.Duplicate)

	second, err := env.service.Enqueue(ctx, env.customer.ID, order.ID)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, 1, second.QueueCount)
}

func TestAutomaticBundling(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	o1 := env.newPaidOrder(t, "SO-1", 100)
	o2 := env.newPaidOrder(t, "SO-2", 120)
	o3 := env.newPaidOrder(t, "SO-3", 80)

	_, err := env.service.Enqueue(ctx, env.customer.ID, o1.ID)
	require.NoError(t, err)
	_, err = env.service.Enqueue(ctx, env.customer.ID, o2.ID)
	require.NoError(t, err)

	result, err := env.service.Enqueue(ctx, env.customer.ID, o3.ID)
	require.NoError(t, err)
	require.NotNil(t, result.Group, "third enqueue must form the bundle")

	t.Run("group totals", func(t *testing.T) {
		group := result.Group
		assert.True(t, group.TotalAmount.Equal(decimal.NewFromInt(300)))
		assert.True(t, group.TotalDiscount.Equal(decimal.NewFromInt(30)))
		assert.Len(t, group.Items, 3)
		assert.Equal(t, 0, group.Items[0].BundleIndex)
	})

	t.Run("queue is drained", func(t *testing.T) {
		assert.Equal(t, 0, result.QueueCount)
		assert.Equal(t, loyalty.QueueStatusProcessed, result.Status)
		count, err := env.queues.Count(ctx, env.customer.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("orders are stamped with the group", func(t *testing.T) {
		for _, id := range []uuid.UUID{o1.ID, o2.ID, o3.ID} {
			order, err := env.orders.FindByID(ctx, id)
			require.NoError(t, err)
			require.NotNil(t, order.DiscountGroupID)
			assert.Equal(t, result.Group.ID, *order.DiscountGroupID)
		}
	})

	t.Run("wallet received the grant", func(t *testing.T) {
		wallet, err := env.wallets.FindByCustomer(ctx, env.customer.ID)
		require.NoError(t, err)
		assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(30)))
		assert.True(t, wallet.TotalGranted.Equal(decimal.NewFromInt(30)))
		assert.NoError(t, wallet.CheckInvariant())

		txs, err := env.wallets.Transactions(ctx, env.customer.ID)
		require.NoError(t, err)
		require.Len(t, txs, 1)
		assert.Equal(t, loyalty.WalletTransactionGrant, txs[0].Type)
	})

	t.Run("consumed orders cannot re-enter", func(t *testing.T) {
		again, err := env.service.Enqueue(ctx, env.customer.ID, o1.ID)
		require.NoError(t, err)
		assert.False(t, again.Duplicate)
		// The entry lands in the queue again but the order stays grouped;
		// callers gate on AccrualEligible before enqueueing.
		require.NoError(t, env.queues.Clear(ctx, env.customer.ID))
	})
}

func TestBundlingKeepsQueueRemainder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	orders := make([]*trade.SalesOrder, 0, 4)
	for i := 0; i < 4; i++ {
		orders = append(orders, env.newPaidOrder(t, fmt.Sprintf("SO-%d", i+1), 100))
	}

	for i, order := range orders {
		result, err := env.service.Enqueue(ctx, env.customer.ID, order.ID)
		require.NoError(t, err)
		if i == 2 {
			require.NotNil(t, result.Group)
		}
	}

	count, err := env.queues.Count(ctx, env.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "the fourth order stays queued")

	queue, err := env.queues.Load(ctx, env.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, orders[3].ID, queue.Entries[0].OrderID)
}

func TestFailedBundlingLeavesNoTrace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	o1 := env.newPaidOrder(t, "SO-1", 100)
	o2 := env.newPaidOrder(t, "SO-2", 120)
	o3 := env.newPaidOrder(t, "SO-3", 80)

	_, err := env.service.Enqueue(ctx, env.customer.ID, o1.ID)
	require.NoError(t, err)
	_, err = env.service.Enqueue(ctx, env.customer.ID, o2.ID)
	require.NoError(t, err)

	// A concurrent writer grabbed a queued order for another group, so
	// the assignment inside the bundle formation must fail.
	foreignGroup := uuid.New()
	require.NoError(t, env.orders.AssignDiscountGroup(ctx, []uuid.UUID{o2.ID}, foreignGroup))

	result, err := env.service.Enqueue(ctx, env.customer.ID, o3.ID)
	require.NoError(t, err)
	assert.Nil(t, result.Group)

	t.Run("no orphan group row", func(t *testing.T) {
		groups, err := env.groups.FindByCustomer(ctx, env.customer.ID)
		require.NoError(t, err)
		assert.Empty(t, groups)
	})

	t.Run("wallet untouched", func(t *testing.T) {
		wallet, err := env.wallets.FindByCustomer(ctx, env.customer.ID)
		require.NoError(t, err)
		assert.True(t, wallet.Balance.IsZero())

		txs, err := env.wallets.Transactions(ctx, env.customer.ID)
		require.NoError(t, err)
		assert.Empty(t, txs)
	})

	t.Run("queue keeps all entries", func(t *testing.T) {
		count, err := env.queues.Count(ctx, env.customer.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})

	t.Run("unconflicted orders stay unstamped", func(t *testing.T) {
		order, err := env.orders.FindByID(ctx, o1.ID)
		require.NoError(t, err)
		assert.Nil(t, order.DiscountGroupID)
	})
}

func TestRedeem(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i, amount := range []int64{100, 120, 80} {
		order := env.newPaidOrder(t, fmt.Sprintf("SO-%d", i+1), amount)
		_, err := env.service.Enqueue(ctx, env.customer.ID, order.ID)
		require.NoError(t, err)
	}
	groups, err := env.groups.FindByCustomer(ctx, env.customer.ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	groupID := groups[0].ID

	t.Run("redeems once", func(t *testing.T) {
		group, err := env.service.Redeem(ctx, groupID)
		require.NoError(t, err)
		assert.Equal(t, loyalty.GroupStatusRedeemed, group.Status)

		wallet, err := env.wallets.FindByCustomer(ctx, env.customer.ID)
		require.NoError(t, err)
		assert.True(t, wallet.Balance.IsZero())
		assert.True(t, wallet.TotalRedeemed.Equal(decimal.NewFromInt(30)))
		assert.NoError(t, wallet.CheckInvariant())
	})

	t.Run("second redeem fails", func(t *testing.T) {
		_, err := env.service.Redeem(ctx, groupID)
		assert.ErrorIs(t, err, loyalty.ErrGroupAlreadyRedeemed)
	})

	t.Run("redeemed group cannot be deleted", func(t *testing.T) {
		assert.ErrorIs(t, env.service.DeleteGroup(ctx, groupID), loyalty.ErrGroupNotAvailable)
	})
}

func TestRedeemInsufficientBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i, amount := range []int64{100, 120, 80} {
		order := env.newPaidOrder(t, fmt.Sprintf("SO-%d", i+1), amount)
		_, err := env.service.Enqueue(ctx, env.customer.ID, order.ID)
		require.NoError(t, err)
	}
	groups, err := env.groups.FindByCustomer(ctx, env.customer.ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)

	// Drain the wallet below the group total
	require.NoError(t, env.wallets.Redeem(ctx, env.customer.ID, decimal.NewFromInt(25), nil))

	_, err = env.service.Redeem(ctx, groups[0].ID)
	assert.ErrorIs(t, err, shared.ErrInsufficientBalance)

	t.Run("group and wallet are unchanged", func(t *testing.T) {
		group, err := env.groups.FindByID(ctx, groups[0].ID)
		require.NoError(t, err)
		assert.Equal(t, loyalty.GroupStatusAvailable, group.Status)

		wallet, err := env.wallets.FindByCustomer(ctx, env.customer.ID)
		require.NoError(t, err)
		assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(5)))
		assert.NoError(t, wallet.CheckInvariant())
	})
}

func TestManualGroupCreation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	o1 := env.newPaidOrder(t, "SO-1", 100)
	o2 := env.newPaidOrder(t, "SO-2", 200)
	o3 := env.newPaidOrder(t, "SO-3", 300)

	t.Run("wrong order count is rejected", func(t *testing.T) {
		_, err := env.service.CreateDiscountGroup(ctx, env.customer.ID, []uuid.UUID{o1.ID, o2.ID}, "")
		assert.ErrorIs(t, err, loyalty.ErrWrongOrderCount)
	})

	t.Run("creates group and grants discount", func(t *testing.T) {
		group, err := env.service.CreateDiscountGroup(ctx, env.customer.ID, []uuid.UUID{o1.ID, o2.ID, o3.ID}, "manual bundle")
		require.NoError(t, err)
		assert.True(t, group.TotalDiscount.Equal(decimal.NewFromInt(60)))
		assert.Equal(t, "manual bundle", group.Notes)

		wallet, err := env.wallets.FindByCustomer(ctx, env.customer.ID)
		require.NoError(t, err)
		assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(60)))
	})

	t.Run("grouped orders cannot join another group", func(t *testing.T) {
		o4 := env.newPaidOrder(t, "SO-4", 50)
		o5 := env.newPaidOrder(t, "SO-5", 50)
		_, err := env.service.CreateDiscountGroup(ctx, env.customer.ID, []uuid.UUID{o1.ID, o4.ID, o5.ID}, "")
		assert.ErrorIs(t, err, loyalty.ErrOrderAlreadyGrouped)
	})

	t.Run("unknown order is rejected", func(t *testing.T) {
		o6 := env.newPaidOrder(t, "SO-6", 50)
		o7 := env.newPaidOrder(t, "SO-7", 50)
		_, err := env.service.CreateDiscountGroup(ctx, env.customer.ID, []uuid.UUID{o6.ID, o7.ID, uuid.New()}, "")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestManualGroupEligibilityEnforcement(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	on := true
	settings, err := env.settings.Get(ctx)
	require.NoError(t, err)
	require.NoError(t, settings.Apply(loyalty.SettingsPatch{EnforceEligibilityOnManual: &on}))
	require.NoError(t, env.settings.Save(ctx, settings))

	o1 := env.newPaidOrder(t, "SO-1", 100)
	o2 := env.newPaidOrder(t, "SO-2", 100)

	// Pending order fails the eligibility filter when enforcement is on
	pending, err := trade.NewSalesOrder(env.customer.ID, "SO-3", time.Now())
	require.NoError(t, err)
	require.NoError(t, pending.AddItem(trade.SalesOrderItem{
		BaseEntity:       shared.NewBaseEntity(),
		Name:             "Line",
		Quantity:         decimal.NewFromInt(1),
		UnitPrice:        decimal.NewFromInt(100),
		SubtotalIncl:     decimal.NewFromInt(100),
		DiscountEligible: true,
	}))
	require.NoError(t, env.orders.Save(ctx, pending))

	_, err = env.service.CreateDiscountGroup(ctx, env.customer.ID, []uuid.UUID{o1.ID, o2.ID, pending.ID}, "")
	assert.ErrorIs(t, err, loyalty.ErrOrderNotEligible)
}

func TestUpdateGroupAdjustsWallet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	o1 := env.newPaidOrder(t, "SO-1", 100)
	o2 := env.newPaidOrder(t, "SO-2", 100)
	o3 := env.newPaidOrder(t, "SO-3", 100)
	o4 := env.newPaidOrder(t, "SO-4", 50)

	group, err := env.service.CreateDiscountGroup(ctx, env.customer.ID, []uuid.UUID{o1.ID, o2.ID, o3.ID}, "")
	require.NoError(t, err)
	require.True(t, group.TotalDiscount.Equal(decimal.NewFromInt(30)))

	updated, err := env.service.UpdateDiscountGroup(ctx, group.ID, []uuid.UUID{o1.ID, o2.ID, o4.ID}, "swapped")
	require.NoError(t, err)
	assert.True(t, updated.TotalDiscount.Equal(decimal.NewFromInt(25)))

	t.Run("wallet received a single signed adjustment", func(t *testing.T) {
		wallet, err := env.wallets.FindByCustomer(ctx, env.customer.ID)
		require.NoError(t, err)
		assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(25)))
		assert.NoError(t, wallet.CheckInvariant())

		txs, err := env.wallets.Transactions(ctx, env.customer.ID)
		require.NoError(t, err)
		require.Len(t, txs, 2)
		var adjust *loyalty.WalletTransaction
		for i := range txs {
			if txs[i].Type == loyalty.WalletTransactionAdjust {
				adjust = &txs[i]
			}
		}
		require.NotNil(t, adjust)
		assert.True(t, adjust.Amount.Equal(decimal.NewFromInt(-5)))
	})

	t.Run("released order is free again", func(t *testing.T) {
		released, err := env.orders.FindByID(ctx, o3.ID)
		require.NoError(t, err)
		assert.Nil(t, released.DiscountGroupID)
	})

	t.Run("swapped-in order is stamped", func(t *testing.T) {
		added, err := env.orders.FindByID(ctx, o4.ID)
		require.NoError(t, err)
		require.NotNil(t, added.DiscountGroupID)
		assert.Equal(t, group.ID, *added.DiscountGroupID)
	})
}

func TestDeleteGroupReversesGrant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	o1 := env.newPaidOrder(t, "SO-1", 100)
	o2 := env.newPaidOrder(t, "SO-2", 100)
	o3 := env.newPaidOrder(t, "SO-3", 100)

	group, err := env.service.CreateDiscountGroup(ctx, env.customer.ID, []uuid.UUID{o1.ID, o2.ID, o3.ID}, "")
	require.NoError(t, err)

	require.NoError(t, env.service.DeleteGroup(ctx, group.ID))

	t.Run("group is gone", func(t *testing.T) {
		_, err := env.groups.FindByID(ctx, group.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("wallet grant is reversed", func(t *testing.T) {
		wallet, err := env.wallets.FindByCustomer(ctx, env.customer.ID)
		require.NoError(t, err)
		assert.True(t, wallet.Balance.IsZero())
		assert.True(t, wallet.TotalGranted.IsZero())
		assert.NoError(t, wallet.CheckInvariant())
	})

	t.Run("orders are released", func(t *testing.T) {
		order, err := env.orders.FindByID(ctx, o1.ID)
		require.NoError(t, err)
		assert.Nil(t, order.DiscountGroupID)
	})
}

func TestFormBundleRequiresReadyQueue(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order := env.newPaidOrder(t, "SO-1", 100)
	_, err := env.service.Enqueue(ctx, env.customer.ID, order.ID)
	require.NoError(t, err)

	_, err = env.service.FormBundle(ctx, env.customer.ID)
	assert.ErrorIs(t, err, loyalty.ErrQueueNotReady)
}

func TestGetQueueView(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	view, err := env.service.GetQueue(ctx, env.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, view.Count)
	assert.Equal(t, loyalty.QueueStatusProcessed, view.Status)

	order := env.newPaidOrder(t, "SO-1", 100)
	_, err = env.service.Enqueue(ctx, env.customer.ID, order.ID)
	require.NoError(t, err)

	view, err = env.service.GetQueue(ctx, env.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Count)
	assert.Equal(t, loyalty.QueueStatusPending, view.Status)
}
