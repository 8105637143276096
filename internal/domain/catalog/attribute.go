package catalog

import (
	"strings"

	"github.com/google/uuid"

	"github.com/loyalty/backend/internal/domain/shared"
)

// ProductAttribute represents a variant attribute (e.g. size, color)
// mirrored from the WAWI system.
type ProductAttribute struct {
	shared.BaseEntity
	// WawiID is the identifier of this attribute in the external WAWI system
	WawiID int64  `gorm:"not null;uniqueIndex"`
	Name   string `gorm:"type:varchar(200);not null"`
}

// TableName returns the table name for GORM
func (ProductAttribute) TableName() string {
	return "product_attributes"
}

// NewProductAttribute creates a new attribute mirrored from WAWI
func NewProductAttribute(wawiID int64, name string) (*ProductAttribute, error) {
	if wawiID <= 0 {
		return nil, shared.NewDomainError("INVALID_WAWI_ID", "WAWI attribute id must be positive")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Attribute name cannot be empty")
	}
	return &ProductAttribute{
		BaseEntity: shared.NewBaseEntity(),
		WawiID:     wawiID,
		Name:       name,
	}, nil
}

// ProductAttributeValue represents one concrete value of a variant
// attribute (e.g. "red" for color). Values reference their attribute,
// which must exist before the value is persisted.
type ProductAttributeValue struct {
	shared.BaseEntity
	// WawiID is the identifier of this value in the external WAWI system
	WawiID      int64     `gorm:"not null;uniqueIndex"`
	AttributeID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name        string    `gorm:"type:varchar(200);not null"`
}

// TableName returns the table name for GORM
func (ProductAttributeValue) TableName() string {
	return "product_attribute_values"
}

// NewProductAttributeValue creates a new attribute value mirrored from WAWI
func NewProductAttributeValue(wawiID int64, attributeID uuid.UUID, name string) (*ProductAttributeValue, error) {
	if wawiID <= 0 {
		return nil, shared.NewDomainError("INVALID_WAWI_ID", "WAWI attribute value id must be positive")
	}
	if attributeID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ATTRIBUTE", "Attribute ID cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Attribute value name cannot be empty")
	}
	return &ProductAttributeValue{
		BaseEntity:  shared.NewBaseEntity(),
		WawiID:      wawiID,
		AttributeID: attributeID,
		Name:        name,
	}, nil
}
