package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/loyalty/backend/internal/domain/shared"
)

// OrderState represents the lifecycle state of a sales order
type OrderState string

const (
	OrderStatePending   OrderState = "pending"
	OrderStatePaid      OrderState = "paid"
	OrderStateInvoiced  OrderState = "invoiced"
	OrderStateRefunded  OrderState = "refunded"
	OrderStateCompleted OrderState = "completed"
)

// IsValid returns true if the order state is valid
func (s OrderState) IsValid() bool {
	switch s {
	case OrderStatePending, OrderStatePaid, OrderStateInvoiced, OrderStateRefunded, OrderStateCompleted:
		return true
	default:
		return false
	}
}

// String returns the string representation of OrderState
func (s OrderState) String() string {
	return string(s)
}

// IsSettled returns true if the order has been paid for.
// Only settled orders count towards loyalty accrual.
func (s OrderState) IsSettled() bool {
	switch s {
	case OrderStatePaid, OrderStateInvoiced, OrderStateCompleted:
		return true
	default:
		return false
	}
}

// SalesOrder represents a customer order mirrored from the WAWI system
// or entered manually. It is the aggregate root for order operations.
type SalesOrder struct {
	shared.BaseAggregateRoot
	// WawiID is the identifier of this order in the external WAWI system.
	// Nil for manually entered orders.
	WawiID     *int64     `gorm:"uniqueIndex:idx_sales_orders_wawi_id,where:wawi_id IS NOT NULL"`
	Number     string     `gorm:"type:varchar(50);not null;index"`
	CustomerID uuid.UUID  `gorm:"type:uuid;not null;index"`
	State      OrderState `gorm:"type:varchar(20);not null;default:'pending'"`
	// DiscountGroupID is set once the order has been consumed into a
	// discount bundle. An order belongs to at most one group.
	DiscountGroupID *uuid.UUID      `gorm:"type:uuid;index"`
	AmountUntaxed   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	AmountTotal     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Currency        string          `gorm:"type:varchar(10);not null;default:'EUR'"`
	OrderDate       time.Time       `gorm:"not null"`
	Items           []SalesOrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	LastSyncedAt    *time.Time
}

// TableName returns the table name for GORM
func (SalesOrder) TableName() string {
	return "sales_orders"
}

// SalesOrderItem represents a single line of a sales order
type SalesOrderItem struct {
	shared.BaseEntity
	OrderID uuid.UUID `gorm:"type:uuid;not null;index"`
	// WawiLineID is the identifier of this line in the external WAWI system
	WawiLineID *int64     `gorm:"uniqueIndex:idx_order_items_wawi_line_id,where:wawi_line_id IS NOT NULL"`
	ProductID  *uuid.UUID `gorm:"type:uuid;index"`
	Name       string     `gorm:"type:varchar(300);not null"`
	Quantity   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	// DiscountPercent is a line-level point-of-sale markdown. Orders with
	// any discounted line are excluded from automatic loyalty accrual.
	DiscountPercent decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"`
	SubtotalExcl    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	SubtotalIncl    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	// DiscountEligible marks whether this line counts towards the
	// loyalty-eligible amount of the order.
	DiscountEligible bool `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (SalesOrderItem) TableName() string {
	return "sales_order_items"
}

// LineAmount returns the amount this line contributes to accrual:
// the tax-inclusive subtotal when present, otherwise unit price x quantity.
func (i *SalesOrderItem) LineAmount() decimal.Decimal {
	if i.SubtotalIncl.IsPositive() {
		return i.SubtotalIncl
	}
	return i.UnitPrice.Mul(i.Quantity)
}

// HasDiscount returns true if a line-level discount is applied
func (i *SalesOrderItem) HasDiscount() bool {
	return i.DiscountPercent.IsPositive()
}

// NewSalesOrder creates a new sales order for a customer
func NewSalesOrder(customerID uuid.UUID, number string, orderDate time.Time) (*SalesOrder, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if number == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if orderDate.IsZero() {
		orderDate = time.Now()
	}

	return &SalesOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            number,
		CustomerID:        customerID,
		State:             OrderStatePending,
		AmountUntaxed:     decimal.Zero,
		AmountTotal:       decimal.Zero,
		Currency:          "EUR",
		OrderDate:         orderDate,
		Items:             make([]SalesOrderItem, 0),
	}, nil
}

// NewWawiSalesOrder creates a sales order that originates from the WAWI system
func NewWawiSalesOrder(wawiID int64, customerID uuid.UUID, number string, orderDate time.Time) (*SalesOrder, error) {
	if wawiID <= 0 {
		return nil, shared.NewDomainError("INVALID_WAWI_ID", "WAWI order id must be positive")
	}
	order, err := NewSalesOrder(customerID, number, orderDate)
	if err != nil {
		return nil, err
	}
	order.WawiID = &wawiID
	return order, nil
}

// SetState transitions the order to the given state
func (o *SalesOrder) SetState(state OrderState) error {
	if !state.IsValid() {
		return shared.NewDomainError("INVALID_ORDER_STATE", "Unknown order state: "+string(state))
	}
	o.State = state
	o.Touch()
	o.IncrementVersion()
	return nil
}

// AddItem appends a line item and recomputes the order totals
func (o *SalesOrder) AddItem(item SalesOrderItem) error {
	if item.Quantity.IsNegative() {
		return shared.NewDomainError("INVALID_QUANTITY", "Line quantity cannot be negative")
	}
	if item.UnitPrice.IsNegative() {
		return shared.NewDomainError("INVALID_UNIT_PRICE", "Line unit price cannot be negative")
	}
	item.OrderID = o.ID
	o.Items = append(o.Items, item)
	o.RecomputeTotals()
	o.Touch()
	o.IncrementVersion()
	return nil
}

// RemoveItem removes a line item by ID and recomputes the order totals
func (o *SalesOrder) RemoveItem(itemID uuid.UUID) error {
	for idx, item := range o.Items {
		if item.ID == itemID {
			o.Items = append(o.Items[:idx], o.Items[idx+1:]...)
			o.RecomputeTotals()
			o.Touch()
			o.IncrementVersion()
			return nil
		}
	}
	return shared.ErrNotFound
}

// ReplaceItems replaces the whole line set and recomputes the totals.
// Used by the sync upsert so that removed upstream lines disappear locally.
func (o *SalesOrder) ReplaceItems(items []SalesOrderItem) {
	for idx := range items {
		items[idx].OrderID = o.ID
	}
	o.Items = items
	o.RecomputeTotals()
	o.Touch()
	o.IncrementVersion()
}

// RecomputeTotals derives the order totals from its line items
func (o *SalesOrder) RecomputeTotals() {
	untaxed := decimal.Zero
	total := decimal.Zero
	for _, item := range o.Items {
		untaxed = untaxed.Add(item.SubtotalExcl)
		total = total.Add(item.LineAmount())
	}
	o.AmountUntaxed = untaxed
	o.AmountTotal = total
}

// SetTotals overrides the computed totals with authoritative WAWI amounts
func (o *SalesOrder) SetTotals(untaxed, total decimal.Decimal) {
	o.AmountUntaxed = untaxed
	o.AmountTotal = total
	o.Touch()
}

// MarkSynced records the time of the last successful WAWI sync
func (o *SalesOrder) MarkSynced(at time.Time) {
	o.LastSyncedAt = &at
	o.Touch()
}

// EligibleAmount returns the portion of the order that counts towards
// loyalty accrual: the sum of all discount-eligible line amounts.
func (o *SalesOrder) EligibleAmount() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range o.Items {
		if item.DiscountEligible {
			sum = sum.Add(item.LineAmount())
		}
	}
	return sum
}

// HasLineDiscount returns true if any line carries a line-level discount
func (o *SalesOrder) HasLineDiscount() bool {
	for _, item := range o.Items {
		if item.HasDiscount() {
			return true
		}
	}
	return false
}

// IsGrouped returns true if the order has been consumed into a discount group
func (o *SalesOrder) IsGrouped() bool {
	return o.DiscountGroupID != nil
}

// AccrualEligible reports whether the order qualifies for automatic
// loyalty accrual: settled, not yet grouped, positive total, and without
// any line-level discount.
func (o *SalesOrder) AccrualEligible() bool {
	return o.State.IsSettled() &&
		!o.IsGrouped() &&
		o.AmountTotal.IsPositive() &&
		!o.HasLineDiscount()
}
