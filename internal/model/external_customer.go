package model

// ExternalCustomer is customer record received from the external feed
type ExternalCustomer struct {
	ExternalID     string          `json:"externalId"`
	IsCompany      bool            `json:"isCompany"`
	CompanyNumber  string          `json:"companyNumber"`
	Name           string          `json:"name"`
	PostalAddress  *Address        `json:"postalAddress"`
	PreferredStore string          `json:"preferredStore"`
	ShoppingLists  []*ShoppingList `json:"shoppingLists"`
}

// Type returns customer type implied by the company flag
func (e *ExternalCustomer) Type() CustomerType {
	if e.IsCompany {
		return CustomerTypeCompany
	}
	return CustomerTypePerson
}
