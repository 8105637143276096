package wawi

import "context"

// WAWI model names used by the sync orchestrator
const (
	ModelCustomer       = "res.partner"
	ModelOrder          = "sale.order"
	ModelOrderLine      = "sale.order.line"
	ModelProduct        = "product.product"
	ModelAttribute      = "product.attribute"
	ModelAttributeValue = "product.attribute.value"
)

// Condition is a single filter predicate in a search domain, encoded as
// the WAWI triple [field, operator, value].
type Condition [3]any

// Cond builds a search condition
func Cond(field, operator string, value any) Condition {
	return Condition{field, operator, value}
}

// Query describes a generic WAWI read: field projection, filter
// predicates and limit/offset pagination, passed through verbatim.
type Query struct {
	Fields []string
	Domain []Condition
	Limit  int
	Offset int
	Order  string
}

// SearchClient is the port to the external WAWI read API. The platform
// never writes to WAWI; SearchRead is the single generic primitive all
// higher-level fetches build on.
type SearchClient interface {
	// SearchRead fetches records of the given model matching the query
	SearchRead(ctx context.Context, model string, query Query) ([]Record, error)
}

// TokenSource provides a currently valid bearer token for WAWI calls
type TokenSource interface {
	// GetToken returns a valid token, transparently refreshing when absent
	// or close to expiry
	GetToken(ctx context.Context) (string, error)

	// ClearToken invalidates the cached token, forcing re-acquisition on
	// the next GetToken call
	ClearToken(ctx context.Context) error
}
