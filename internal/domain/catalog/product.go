package catalog

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/loyalty/backend/internal/domain/shared"
)

// Product represents a sellable product mirrored from the WAWI system.
// Products are created and updated by sync only, never by end-user flows.
type Product struct {
	shared.BaseAggregateRoot
	// WawiID is the identifier of this product in the external WAWI system
	WawiID      int64  `gorm:"not null;uniqueIndex"`
	Name        string `gorm:"type:varchar(300);not null"`
	DefaultCode string `gorm:"type:varchar(100);index"`
	ListPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Active      bool            `gorm:"not null;default:true"`
	// AttributeValues are the variant attribute values linked to this product
	AttributeValues []ProductAttributeValue `gorm:"many2many:product_attribute_value_links"`
	LastSyncedAt    *time.Time
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product mirrored from WAWI
func NewProduct(wawiID int64, name string) (*Product, error) {
	if wawiID <= 0 {
		return nil, shared.NewDomainError("INVALID_WAWI_ID", "WAWI product id must be positive")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		WawiID:            wawiID,
		Name:              name,
		ListPrice:         decimal.Zero,
		Active:            true,
	}, nil
}

// ApplyUpdate overwrites the mutable product fields from a sync run
func (p *Product) ApplyUpdate(name, defaultCode string, listPrice decimal.Decimal, active bool) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	p.Name = name
	p.DefaultCode = defaultCode
	p.ListPrice = listPrice
	p.Active = active
	p.Touch()
	p.IncrementVersion()
	return nil
}

// MarkSynced records the time of the last successful WAWI sync
func (p *Product) MarkSynced(at time.Time) {
	p.LastSyncedAt = &at
	p.Touch()
}

// SyncedWithin returns true if the product was synced within the window.
// The orchestrator uses this to skip redundant upstream calls.
func (p *Product) SyncedWithin(window time.Duration, now time.Time) bool {
	return p.LastSyncedAt != nil && now.Sub(*p.LastSyncedAt) < window
}
