package partner

import (
	"regexp"
	"strings"
	"time"

	"github.com/loyalty/backend/internal/domain/shared"
)

// CustomerStatus represents the status of a customer
type CustomerStatus string

const (
	CustomerStatusActive   CustomerStatus = "active"
	CustomerStatusInactive CustomerStatus = "inactive"
)

// Customer represents a loyalty customer mirrored from the WAWI system.
// It is the aggregate root for customer-related operations.
type Customer struct {
	shared.BaseAggregateRoot
	// WawiID is the identifier of this customer in the external WAWI system.
	// Nil for customers created manually that have never been matched upstream.
	WawiID       *int64         `gorm:"uniqueIndex:idx_customers_wawi_id,where:wawi_id IS NOT NULL"`
	Code         string         `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name         string         `gorm:"type:varchar(200);not null"`
	Status       CustomerStatus `gorm:"type:varchar(20);not null;default:'active'"`
	ContactName  string         `gorm:"type:varchar(100)"`
	Phone        string         `gorm:"type:varchar(50);index"`
	Email        string         `gorm:"type:varchar(200);index"`
	Street       string         `gorm:"type:varchar(200)"`
	City         string         `gorm:"type:varchar(100)"`
	PostalCode   string         `gorm:"type:varchar(20)"`
	Country      string         `gorm:"type:varchar(100)"`
	Notes        string         `gorm:"type:text"`
	LastSyncedAt *time.Time
}

// TableName returns the table name for GORM
func (Customer) TableName() string {
	return "customers"
}

// NewCustomer creates a new customer with required fields
func NewCustomer(code, name string) (*Customer, error) {
	if err := validateCustomerCode(code); err != nil {
		return nil, err
	}
	if err := validateCustomerName(name); err != nil {
		return nil, err
	}

	return &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Name:              name,
		Status:            CustomerStatusActive,
	}, nil
}

// NewWawiCustomer creates a customer that originates from the WAWI system
func NewWawiCustomer(wawiID int64, code, name string) (*Customer, error) {
	if wawiID <= 0 {
		return nil, shared.NewDomainError("INVALID_WAWI_ID", "WAWI customer id must be positive")
	}
	customer, err := NewCustomer(code, name)
	if err != nil {
		return nil, err
	}
	customer.WawiID = &wawiID
	return customer, nil
}

// Update updates the customer's basic information
func (c *Customer) Update(name string) error {
	if err := validateCustomerName(name); err != nil {
		return err
	}
	c.Name = name
	c.Touch()
	c.IncrementVersion()
	return nil
}

// SetContact sets the customer's contact information
func (c *Customer) SetContact(contactName, phone, email string) error {
	if contactName != "" && len(contactName) > 100 {
		return shared.NewDomainError("INVALID_CONTACT_NAME", "Contact name cannot exceed 100 characters")
	}
	if email != "" {
		if err := validateEmail(email); err != nil {
			return err
		}
	}
	c.ContactName = contactName
	c.Phone = phone
	c.Email = strings.ToLower(email)
	c.Touch()
	c.IncrementVersion()
	return nil
}

// SetAddress sets the customer's address information
func (c *Customer) SetAddress(street, city, postalCode, country string) {
	c.Street = street
	c.City = city
	c.PostalCode = postalCode
	c.Country = country
	c.Touch()
	c.IncrementVersion()
}

// LinkWawiID attaches the external WAWI identifier to a locally created customer
func (c *Customer) LinkWawiID(wawiID int64) error {
	if wawiID <= 0 {
		return shared.NewDomainError("INVALID_WAWI_ID", "WAWI customer id must be positive")
	}
	if c.WawiID != nil && *c.WawiID != wawiID {
		return shared.NewDomainError("WAWI_ID_CONFLICT", "Customer is already linked to a different WAWI id")
	}
	c.WawiID = &wawiID
	c.Touch()
	c.IncrementVersion()
	return nil
}

// MarkSynced records the time of the last successful WAWI sync
func (c *Customer) MarkSynced(at time.Time) {
	c.LastSyncedAt = &at
	c.Touch()
}

// Deactivate marks the customer as inactive. Customers are never hard-deleted.
func (c *Customer) Deactivate() {
	c.Status = CustomerStatusInactive
	c.Touch()
	c.IncrementVersion()
}

// IsActive returns true if the customer is active
func (c *Customer) IsActive() bool {
	return c.Status == CustomerStatusActive
}

var customerCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func validateCustomerCode(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_CODE", "Customer code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError("INVALID_CODE", "Customer code cannot exceed 50 characters")
	}
	if !customerCodePattern.MatchString(code) {
		return shared.NewDomainError("INVALID_CODE", "Customer code can only contain letters, digits, underscore and hyphen")
	}
	return nil
}

func validateCustomerName(name string) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Customer name cannot exceed 200 characters")
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	if !emailPattern.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Email format is invalid")
	}
	return nil
}
