package model

import (
	"fmt"
	"strings"
)

// CustomerType specifies whether customer is a person or a company
type CustomerType int

const (
	// CustomerTypeUnknown means type was never assigned
	CustomerTypeUnknown CustomerType = iota
	// CustomerTypePerson means customer is a private person
	CustomerTypePerson
	// CustomerTypeCompany means customer is a registered company
	CustomerTypeCompany
)

func (t CustomerType) String() string {
	switch t {
	case CustomerTypePerson:
		return "PERSON"
	case CustomerTypeCompany:
		return "COMPANY"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes type as its name
func (t CustomerType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes type from its name
func (t *CustomerType) UnmarshalText(text []byte) error {
	switch strings.ToUpper(string(text)) {
	case "PERSON":
		*t = CustomerTypePerson
	case "COMPANY":
		*t = CustomerTypeCompany
	case "", "UNKNOWN":
		*t = CustomerTypeUnknown
	default:
		return fmt.Errorf("unknown customer type %q", string(text))
	}
	return nil
}

// Address is customer postal address
type Address struct {
	Street     string `json:"street" bson:"street"`
	City       string `json:"city" bson:"city"`
	PostalCode string `json:"postalCode" bson:"postalCode"`
}

// Customer is customer model entity
type Customer struct {
	ID               string          `json:"id" bson:"_id,omitempty"`
	ExternalID       *string         `json:"externalId" bson:"externalId"`
	MasterExternalID *string         `json:"masterExternalId" bson:"masterExternalId"`
	Name             string          `json:"name" bson:"name"`
	Address          *Address        `json:"address" bson:"address"`
	PreferredStore   string          `json:"preferredStore" bson:"preferredStore"`
	CompanyNumber    *string         `json:"companyNumber" bson:"companyNumber"`
	CustomerType     CustomerType    `json:"customerType" bson:"customerType"`
	ShoppingLists    []*ShoppingList `json:"shoppingLists" bson:"-"`
}

// IsNew reports whether customer was never persisted
func (c *Customer) IsNew() bool {
	return c.ID == ""
}

// AddShoppingList associates shopping list with customer
func (c *Customer) AddShoppingList(sl *ShoppingList) {
	c.ShoppingLists = append(c.ShoppingLists, sl)
}

// AssignExternalID makes customer authoritative for the provided external id
func (c *Customer) AssignExternalID(externalID string) {
	c.ExternalID = StringRef(externalID)
	c.MasterExternalID = StringRef(externalID)
}

// Demote clears master external id, so customer is no longer authoritative
func (c *Customer) Demote() {
	c.MasterExternalID = nil
}

// Clone makes deep copy of customer, shopping lists are shared by reference
func (c *Customer) Clone() *Customer {
	if c == nil {
		return nil
	}

	cp := *c
	cp.ExternalID = cloneString(c.ExternalID)
	cp.MasterExternalID = cloneString(c.MasterExternalID)
	cp.CompanyNumber = cloneString(c.CompanyNumber)

	if c.Address != nil {
		addr := *c.Address
		cp.Address = &addr
	}

	if c.ShoppingLists != nil {
		cp.ShoppingLists = make([]*ShoppingList, len(c.ShoppingLists))
		copy(cp.ShoppingLists, c.ShoppingLists)
	}
	return &cp
}

// ShoppingList is a list of products customer wants to buy
type ShoppingList struct {
	ID       string   `json:"id" bson:"_id,omitempty"`
	Products []string `json:"products" bson:"products"`
}

// StringRef returns pointer to the copy of s
func StringRef(s string) *string {
	return &s
}

// StringValue dereferences s, nil is treated as empty string
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	return StringRef(*s)
}
