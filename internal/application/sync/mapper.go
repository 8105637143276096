package sync

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/loyalty/backend/internal/domain/shared"
	"github.com/loyalty/backend/internal/domain/trade"
	"github.com/loyalty/backend/internal/domain/wawi"
)

// Field projections requested from the WAWI API per model
var (
	customerFields = []string{"id", "name", "ref", "email", "phone", "street", "city", "zip", "country_id"}
	orderFields    = []string{"id", "name", "partner_id", "state", "amount_untaxed", "amount_total", "currency_id", "date_order"}
	lineFields     = []string{"id", "order_id", "product_id", "name", "product_uom_qty", "price_unit", "discount", "price_subtotal", "price_total", "discount_eligible"}
	productFields  = []string{"id", "name", "default_code", "list_price", "active", "attribute_value_ids"}
	attrFields     = []string{"id", "name"}
	valueFields    = []string{"id", "name", "attribute_id"}
)

// CustomerData is a mapped WAWI customer record
type CustomerData struct {
	WawiID     int64
	Code       string
	Name       string
	Phone      string
	Email      string
	Street     string
	City       string
	PostalCode string
	Country    string
}

// MapCustomer converts a raw WAWI customer record
func MapCustomer(rec wawi.Record) (*CustomerData, error) {
	id := rec.Int64("id")
	if id <= 0 {
		return nil, shared.NewDomainError("SYNC_BAD_RECORD", "Customer record without id")
	}
	name := rec.String("name")
	if name == "" {
		return nil, shared.NewDomainError("SYNC_BAD_RECORD", fmt.Sprintf("Customer %d without name", id))
	}

	code := rec.String("ref")
	if code == "" {
		code = fmt.Sprintf("WAWI-%d", id)
	}
	_, country, _ := rec.Relation("country_id")

	return &CustomerData{
		WawiID:     id,
		Code:       code,
		Name:       name,
		Phone:      rec.String("phone"),
		Email:      rec.String("email"),
		Street:     rec.String("street"),
		City:       rec.String("city"),
		PostalCode: rec.String("zip"),
		Country:    country,
	}, nil
}

// OrderData is a mapped WAWI order record
type OrderData struct {
	WawiID         int64
	Number         string
	CustomerWawiID int64
	State          trade.OrderState
	AmountUntaxed  decimal.Decimal
	AmountTotal    decimal.Decimal
	Currency       string
	OrderDate      time.Time
}

// MapOrder converts a raw WAWI order record
func MapOrder(rec wawi.Record) (*OrderData, error) {
	id := rec.Int64("id")
	if id <= 0 {
		return nil, shared.NewDomainError("SYNC_BAD_RECORD", "Order record without id")
	}
	customerWawiID, _, ok := rec.Relation("partner_id")
	if !ok || customerWawiID <= 0 {
		return nil, shared.NewDomainError("SYNC_BAD_RECORD", fmt.Sprintf("Order %d without customer", id))
	}

	number := rec.String("name")
	if number == "" {
		number = fmt.Sprintf("SO-%d", id)
	}
	_, currency, _ := rec.Relation("currency_id")
	if currency == "" {
		currency = "EUR"
	}
	orderDate := rec.Time("date_order")
	if orderDate.IsZero() {
		orderDate = time.Now()
	}

	return &OrderData{
		WawiID:         id,
		Number:         number,
		CustomerWawiID: customerWawiID,
		State:          MapOrderState(rec.String("state")),
		AmountUntaxed:  rec.Decimal("amount_untaxed"),
		AmountTotal:    rec.Decimal("amount_total"),
		Currency:       currency,
		OrderDate:      orderDate,
	}, nil
}

// MapOrderState remaps the upstream order state onto the local lifecycle.
// Unknown states fall back to pending, which keeps the order out of accrual.
func MapOrderState(state string) trade.OrderState {
	switch state {
	case "sale":
		return trade.OrderStatePaid
	case "invoiced":
		return trade.OrderStateInvoiced
	case "done":
		return trade.OrderStateCompleted
	case "cancel", "refund":
		return trade.OrderStateRefunded
	default:
		return trade.OrderStatePending
	}
}

// OrderLineData is a mapped WAWI order line record
type OrderLineData struct {
	WawiLineID       int64
	OrderWawiID      int64
	ProductWawiID    int64
	Name             string
	Quantity         decimal.Decimal
	UnitPrice        decimal.Decimal
	DiscountPercent  decimal.Decimal
	SubtotalExcl     decimal.Decimal
	SubtotalIncl     decimal.Decimal
	DiscountEligible bool
}

// MapOrderLine converts a raw WAWI order line record. Lines without an
// explicit eligibility flag count towards accrual.
func MapOrderLine(rec wawi.Record) (*OrderLineData, error) {
	id := rec.Int64("id")
	if id <= 0 {
		return nil, shared.NewDomainError("SYNC_BAD_RECORD", "Order line record without id")
	}
	orderWawiID, _, _ := rec.Relation("order_id")
	productWawiID, _, _ := rec.Relation("product_id")

	eligible := true
	if v, ok := rec["discount_eligible"].(bool); ok {
		eligible = v
	}

	return &OrderLineData{
		WawiLineID:       id,
		OrderWawiID:      orderWawiID,
		ProductWawiID:    productWawiID,
		Name:             rec.String("name"),
		Quantity:         rec.Decimal("product_uom_qty"),
		UnitPrice:        rec.Decimal("price_unit"),
		DiscountPercent:  rec.Decimal("discount"),
		SubtotalExcl:     rec.Decimal("price_subtotal"),
		SubtotalIncl:     rec.Decimal("price_total"),
		DiscountEligible: eligible,
	}, nil
}

// ProductData is a mapped WAWI product record
type ProductData struct {
	WawiID            int64
	Name              string
	DefaultCode       string
	ListPrice         decimal.Decimal
	Active            bool
	AttributeValueIDs []int64
}

// MapProduct converts a raw WAWI product record
func MapProduct(rec wawi.Record) (*ProductData, error) {
	id := rec.Int64("id")
	if id <= 0 {
		return nil, shared.NewDomainError("SYNC_BAD_RECORD", "Product record without id")
	}
	name := rec.String("name")
	if name == "" {
		return nil, shared.NewDomainError("SYNC_BAD_RECORD", fmt.Sprintf("Product %d without name", id))
	}

	active := true
	if v, ok := rec["active"].(bool); ok {
		active = v
	}

	return &ProductData{
		WawiID:            id,
		Name:              name,
		DefaultCode:       rec.String("default_code"),
		ListPrice:         rec.Decimal("list_price"),
		Active:            active,
		AttributeValueIDs: rec.Int64List("attribute_value_ids"),
	}, nil
}

// AttributeData is a mapped WAWI attribute record
type AttributeData struct {
	WawiID int64
	Name   string
}

// MapAttribute converts a raw WAWI attribute record
func MapAttribute(rec wawi.Record) (*AttributeData, error) {
	id := rec.Int64("id")
	if id <= 0 {
		return nil, shared.NewDomainError("SYNC_BAD_RECORD", "Attribute record without id")
	}
	name := rec.String("name")
	if name == "" {
		return nil, shared.NewDomainError("SYNC_BAD_RECORD", fmt.Sprintf("Attribute %d without name", id))
	}
	return &AttributeData{WawiID: id, Name: name}, nil
}

// AttributeValueData is a mapped WAWI attribute value record
type AttributeValueData struct {
	WawiID          int64
	AttributeWawiID int64
	Name            string
}

// MapAttributeValue converts a raw WAWI attribute value record
func MapAttributeValue(rec wawi.Record) (*AttributeValueData, error) {
	id := rec.Int64("id")
	if id <= 0 {
		return nil, shared.NewDomainError("SYNC_BAD_RECORD", "Attribute value record without id")
	}
	attrWawiID, _, ok := rec.Relation("attribute_id")
	if !ok || attrWawiID <= 0 {
		return nil, shared.NewDomainError("SYNC_BAD_RECORD", fmt.Sprintf("Attribute value %d without attribute", id))
	}
	name := rec.String("name")
	if name == "" {
		return nil, shared.NewDomainError("SYNC_BAD_RECORD", fmt.Sprintf("Attribute value %d without name", id))
	}
	return &AttributeValueData{WawiID: id, AttributeWawiID: attrWawiID, Name: name}, nil
}
