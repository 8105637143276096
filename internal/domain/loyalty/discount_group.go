package loyalty

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/loyalty/backend/internal/domain/shared"
)

// Discount group domain errors
var (
	ErrGroupAlreadyRedeemed = shared.NewDomainError("GROUP_ALREADY_REDEEMED", "Discount group has already been redeemed")
	ErrGroupNotAvailable    = shared.NewDomainError("GROUP_NOT_AVAILABLE", "Discount group is no longer available")
	ErrOrderAlreadyGrouped  = shared.NewDomainError("ORDER_ALREADY_GROUPED", "Order is already part of another discount group")
	ErrWrongOrderCount      = shared.NewDomainError("WRONG_ORDER_COUNT", "Number of orders does not match the configured threshold")
	ErrOrderNotEligible     = shared.NewDomainError("ORDER_NOT_ELIGIBLE", "Order does not qualify for loyalty accrual")
	ErrQueueNotReady        = shared.NewDomainError("QUEUE_NOT_READY", "Order queue has not reached the bundling threshold")
)

// GroupStatus represents the lifecycle state of a discount group
type GroupStatus string

const (
	// GroupStatusAvailable means the granted discount is still redeemable
	GroupStatusAvailable GroupStatus = "available"
	// GroupStatusRedeemed means the discount has been consumed
	GroupStatusRedeemed GroupStatus = "redeemed"
)

// DiscountGroup is a fixed-size bundle of orders processed together to
// produce one discount grant. Each member order keeps its own monetary
// line; orders are never merged into a single amount.
type DiscountGroup struct {
	shared.BaseAggregateRoot
	CustomerID uuid.UUID   `gorm:"type:uuid;not null;index"`
	Status     GroupStatus `gorm:"type:varchar(20);not null;default:'available'"`
	// TotalAmount is the sum of the member eligible amounts. Always
	// recomputed from the items before persisting.
	TotalAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	// TotalDiscount is the sum of the member discount amounts
	TotalDiscount decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	Notes         string              `gorm:"type:text"`
	Items         []DiscountGroupItem `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE"`
	RedeemedAt    *time.Time
}

// TableName returns the table name for GORM
func (DiscountGroup) TableName() string {
	return "discount_groups"
}

// DiscountGroupItem is one member order's contribution to a bundle
type DiscountGroupItem struct {
	shared.BaseEntity
	GroupID uuid.UUID `gorm:"type:uuid;not null;index"`
	OrderID uuid.UUID `gorm:"type:uuid;not null;index"`
	// BundleIndex is the position of the order within the bundle (0-based,
	// FIFO order for automatic bundles)
	BundleIndex int `gorm:"not null"`
	// EligibleAmount is the discount-eligible portion of the order
	EligibleAmount decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	// Rate is the discount percentage applied to this entry
	Rate decimal.Decimal `gorm:"type:decimal(8,4);not null"`
	// DiscountAmount is EligibleAmount x Rate / 100
	DiscountAmount decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (DiscountGroupItem) TableName() string {
	return "discount_group_items"
}

// NewDiscountGroupItem computes a bundle entry for one order
func NewDiscountGroupItem(orderID uuid.UUID, bundleIndex int, eligibleAmount, rate decimal.Decimal) (*DiscountGroupItem, error) {
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order ID cannot be empty")
	}
	if eligibleAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Eligible amount cannot be negative")
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return nil, shared.NewDomainError("INVALID_DISCOUNT_RATE", "Discount rate must be between 0 and 100")
	}
	return &DiscountGroupItem{
		BaseEntity:     shared.NewBaseEntity(),
		OrderID:        orderID,
		BundleIndex:    bundleIndex,
		EligibleAmount: eligibleAmount,
		Rate:           rate,
		DiscountAmount: ComputeDiscount(eligibleAmount, rate),
	}, nil
}

// ComputeDiscount returns amount x rate / 100, rounded to 2 decimal places
func ComputeDiscount(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Div(decimal.NewFromInt(100)).Round(2)
}

// NewDiscountGroup creates an available discount group from bundle items
func NewDiscountGroup(customerID uuid.UUID, items []DiscountGroupItem) (*DiscountGroup, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if len(items) == 0 {
		return nil, shared.NewDomainError("INVALID_GROUP", "Discount group requires at least one order")
	}

	group := &DiscountGroup{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        customerID,
		Status:            GroupStatusAvailable,
	}
	group.setItems(items)
	return group, nil
}

func (g *DiscountGroup) setItems(items []DiscountGroupItem) {
	for idx := range items {
		items[idx].GroupID = g.ID
	}
	g.Items = items
	g.RecomputeTotals()
}

// RecomputeTotals derives the aggregate totals from the member entries.
// Called before every persist so stored totals can never drift.
func (g *DiscountGroup) RecomputeTotals() {
	amount := decimal.Zero
	discount := decimal.Zero
	for _, item := range g.Items {
		amount = amount.Add(item.EligibleAmount)
		discount = discount.Add(item.DiscountAmount)
	}
	g.TotalAmount = amount
	g.TotalDiscount = discount
}

// ReplaceItems swaps the member set of an available group and returns the
// signed difference between the new and old total discount. Redeemed
// groups are immutable.
func (g *DiscountGroup) ReplaceItems(items []DiscountGroupItem) (decimal.Decimal, error) {
	if g.Status == GroupStatusRedeemed {
		return decimal.Zero, ErrGroupAlreadyRedeemed
	}
	if len(items) == 0 {
		return decimal.Zero, shared.NewDomainError("INVALID_GROUP", "Discount group requires at least one order")
	}
	oldDiscount := g.TotalDiscount
	g.setItems(items)
	g.Touch()
	g.IncrementVersion()
	return g.TotalDiscount.Sub(oldDiscount), nil
}

// Redeem transitions the group to redeemed exactly once. All monetary
// fields become immutable afterwards.
func (g *DiscountGroup) Redeem(at time.Time) error {
	if g.Status == GroupStatusRedeemed {
		return ErrGroupAlreadyRedeemed
	}
	if at.IsZero() {
		at = time.Now()
	}
	g.Status = GroupStatusRedeemed
	g.RedeemedAt = &at
	g.Touch()
	g.IncrementVersion()
	return nil
}

// IsAvailable returns true if the group can still be redeemed or deleted
func (g *DiscountGroup) IsAvailable() bool {
	return g.Status == GroupStatusAvailable
}

// ContainsOrder returns true if the order is a member of this group
func (g *DiscountGroup) ContainsOrder(orderID uuid.UUID) bool {
	for _, item := range g.Items {
		if item.OrderID == orderID {
			return true
		}
	}
	return false
}
