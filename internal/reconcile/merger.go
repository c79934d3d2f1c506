package reconcile

import "github.com/umalmyha/customersync/internal/model"

// Plan holds customers which must be persisted in order to complete reconciliation
type Plan struct {
	Primary       *model.Customer
	Duplicates    []*model.Customer
	ShoppingLists []*model.ShoppingList
}

// Merge applies external customer onto resolved outcome. It works in memory only,
// customers of the outcome are cloned before they are changed.
func Merge(outcome MatchOutcome, ext *model.ExternalCustomer) Plan {
	primary := outcome.Candidate.Clone()
	if primary == nil {
		primary = newCustomer(ext.ExternalID)
	}

	primary.Address = cloneAddress(ext.PostalAddress)
	primary.PreferredStore = ext.PreferredStore
	primary.Name = ext.Name

	if ext.IsCompany {
		primary.CompanyNumber = model.StringRef(ext.CompanyNumber)
		primary.CustomerType = model.CustomerTypeCompany
	} else {
		primary.CustomerType = model.CustomerTypePerson
	}

	duplicates := make([]*model.Customer, 0, len(outcome.Duplicates))
	for _, slot := range outcome.Duplicates {
		dup, ok := slot.Customer()
		if ok {
			dup = dup.Clone()
		} else {
			dup = newCustomer(ext.ExternalID)
		}

		dup.Name = ext.Name
		duplicates = append(duplicates, dup)
	}

	lists := make([]*model.ShoppingList, 0, len(ext.ShoppingLists))
	for _, sl := range ext.ShoppingLists {
		primary.AddShoppingList(sl)
		lists = append(lists, sl)
	}

	return Plan{
		Primary:       primary,
		Duplicates:    duplicates,
		ShoppingLists: lists,
	}
}

func newCustomer(externalID string) *model.Customer {
	c := &model.Customer{}
	c.AssignExternalID(externalID)
	return c
}

func cloneAddress(a *model.Address) *model.Address {
	if a == nil {
		return nil
	}
	cp := *a
	return &cp
}
