package wawi

import (
	"context"

	"github.com/loyalty/backend/internal/domain/wawi"
)

// UnconfiguredClient stands in for the WAWI client when the integration
// is not configured. Every call fails with ErrNotConfigured so sync
// attempts surface a clear error instead of a connection failure.
type UnconfiguredClient struct{}

// SearchRead implements wawi.SearchClient
func (UnconfiguredClient) SearchRead(ctx context.Context, model string, query wawi.Query) ([]wawi.Record, error) {
	return nil, wawi.ErrNotConfigured
}

var _ wawi.SearchClient = UnconfiguredClient{}
