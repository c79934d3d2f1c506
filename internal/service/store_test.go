package service

import (
	"context"
	"fmt"

	"github.com/umalmyha/customersync/internal/model"
	"github.com/umalmyha/customersync/internal/repository"
)

type storeCall struct {
	method string
	id     string
}

// recordingStore is in-memory data layer which records every write
type recordingStore struct {
	customers []*model.Customer
	lists     map[string]*model.ShoppingList
	calls     []storeCall
	seq       int
}

func newRecordingStore(seed ...*model.Customer) *recordingStore {
	s := &recordingStore{lists: make(map[string]*model.ShoppingList)}
	for _, c := range seed {
		s.customers = append(s.customers, c.Clone())
	}
	return s
}

func (s *recordingStore) FindByExternalID(_ context.Context, externalID string) (*model.Customer, error) {
	authoritative := s.find(func(c *model.Customer) bool {
		return model.StringValue(c.ExternalID) == externalID && model.StringValue(c.MasterExternalID) == externalID
	})
	if authoritative != nil {
		return authoritative, nil
	}
	return s.find(func(c *model.Customer) bool { return model.StringValue(c.ExternalID) == externalID }), nil
}

func (s *recordingStore) FindByMasterExternalID(_ context.Context, externalID string) (*model.Customer, error) {
	return s.find(func(c *model.Customer) bool { return model.StringValue(c.MasterExternalID) == externalID }), nil
}

func (s *recordingStore) FindByCompanyNumber(_ context.Context, companyNumber string) (*model.Customer, error) {
	return s.find(func(c *model.Customer) bool { return model.StringValue(c.CompanyNumber) == companyNumber }), nil
}

func (s *recordingStore) CreateCustomerRecord(_ context.Context, c *model.Customer) error {
	s.seq++
	c.ID = fmt.Sprintf("generated-%d", s.seq)
	s.customers = append(s.customers, c.Clone())
	s.calls = append(s.calls, storeCall{method: "CreateCustomerRecord", id: c.ID})
	return nil
}

func (s *recordingStore) UpdateCustomerRecord(_ context.Context, c *model.Customer) error {
	for i, stored := range s.customers {
		if stored.ID == c.ID {
			s.customers[i] = c.Clone()
			s.calls = append(s.calls, storeCall{method: "UpdateCustomerRecord", id: c.ID})
			return nil
		}
	}
	return repository.ErrCustomerNotFound
}

func (s *recordingStore) UpdateShoppingList(_ context.Context, sl *model.ShoppingList) error {
	s.lists[sl.ID] = sl
	s.calls = append(s.calls, storeCall{method: "UpdateShoppingList", id: sl.ID})
	return nil
}

func (s *recordingStore) byID(id string) *model.Customer {
	return s.find(func(c *model.Customer) bool { return c.ID == id })
}

func (s *recordingStore) methods() []string {
	methods := make([]string, 0, len(s.calls))
	for _, c := range s.calls {
		methods = append(methods, c.method)
	}
	return methods
}

func (s *recordingStore) find(match func(*model.Customer) bool) *model.Customer {
	for _, c := range s.customers {
		if match(c) {
			return c.Clone()
		}
	}
	return nil
}
