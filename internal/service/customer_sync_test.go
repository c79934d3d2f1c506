package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	custerrors "github.com/umalmyha/customersync/internal/errors"
	"github.com/umalmyha/customersync/internal/metrics"
	"github.com/umalmyha/customersync/internal/model"
	rpsMocks "github.com/umalmyha/customersync/internal/repository/mocks"
)

var mutations = []string{"CreateCustomerRecord", "UpdateCustomerRecord", "UpdateShoppingList"}

type customerSyncTestData struct {
	ctx     context.Context
	company *model.ExternalCustomer
	person  *model.ExternalCustomer
}

type customerSyncServiceTestSuite struct {
	suite.Suite
	testData *customerSyncTestData
}

func (s *customerSyncServiceTestSuite) SetupSuite() {
	s.testData = &customerSyncTestData{
		ctx: context.Background(),
		company: &model.ExternalCustomer{
			ExternalID:     "12345",
			IsCompany:      true,
			CompanyNumber:  "470813-8895",
			Name:           "Acme Inc.",
			PostalAddress:  &model.Address{Street: "123 main st", City: "Helsingborg", PostalCode: "SE-123 45"},
			PreferredStore: "Nordstan",
		},
		person: &model.ExternalCustomer{
			ExternalID:     "p-12345",
			Name:           "John Walls",
			PostalAddress:  &model.Address{Street: "7 harbour st", City: "Malmo", PostalCode: "SE-211 20"},
			PreferredStore: "Triangeln",
		},
	}
}

func (s *customerSyncServiceTestSuite) newService(store *recordingStore) CustomerSyncService {
	return NewCustomerSyncService(store, metrics.NewSyncMetrics(prometheus.NewRegistry()))
}

func (s *customerSyncServiceTestSuite) TestNewCompanyCreated() {
	ctx := s.testData.ctx
	ext := s.testData.company
	store := newRecordingStore()

	s.T().Log("company without any match must be created")
	{
		created, err := s.newService(store).SyncCustomer(ctx, ext)
		s.Require().NoError(err, "no error must be raised")
		s.Require().True(created, "new customer must be reported as created")
		s.Require().Equal([]string{"CreateCustomerRecord"}, store.methods(), "exactly one create expected")

		c := store.byID(store.calls[0].id)
		s.Require().NotNil(c, "created customer must be stored")
		s.Assert().Equal(model.CustomerTypeCompany, c.CustomerType, "type must be company")
		s.Assert().Equal(ext.ExternalID, model.StringValue(c.ExternalID), "external id must be set")
		s.Assert().Equal(ext.ExternalID, model.StringValue(c.MasterExternalID), "master external id must equal external id")
		s.Assert().Equal(ext.CompanyNumber, model.StringValue(c.CompanyNumber), "company number must be set")
	}
}

func (s *customerSyncServiceTestSuite) TestPersonUpdated() {
	ctx := s.testData.ctx
	ext := s.testData.person
	store := newRecordingStore(&model.Customer{
		ID:               "p-1",
		ExternalID:       model.StringRef(ext.ExternalID),
		MasterExternalID: model.StringRef(ext.ExternalID),
		Name:             "Johnny Walls",
		Address:          &model.Address{Street: "old st", City: "Lund", PostalCode: "SE-222 22"},
		PreferredStore:   "Old store",
		CustomerType:     model.CustomerTypePerson,
	})

	s.T().Log("person matched by external id must be updated")
	{
		created, err := s.newService(store).SyncCustomer(ctx, ext)
		s.Require().NoError(err, "no error must be raised")
		s.Require().False(created, "existing customer must not be reported as created")
		s.Require().Equal([]string{"UpdateCustomerRecord"}, store.methods(), "exactly one update expected")

		c := store.byID("p-1")
		s.Assert().Equal(ext.Name, c.Name, "name must be updated")
		s.Assert().Equal(*ext.PostalAddress, *c.Address, "address must be updated")
		s.Assert().Equal(ext.PreferredStore, c.PreferredStore, "preferred store must be updated")
		s.Assert().Equal(model.CustomerTypePerson, c.CustomerType, "type must stay person")
	}
}

func (s *customerSyncServiceTestSuite) TestCompanyWithChangedCompanyNumber() {
	ctx := s.testData.ctx
	ext := s.testData.company
	store := newRecordingStore(&model.Customer{
		ID:               "c-1",
		ExternalID:       model.StringRef(ext.ExternalID),
		MasterExternalID: model.StringRef(ext.ExternalID),
		Name:             "Acme Ltd",
		CompanyNumber:    model.StringRef("111111-1111"),
		CustomerType:     model.CustomerTypeCompany,
	})

	s.T().Log("stale company must become duplicate and new company must be created")
	{
		created, err := s.newService(store).SyncCustomer(ctx, ext)
		s.Require().NoError(err, "no error must be raised")
		s.Require().True(created, "new customer must be reported as created")
		s.Require().Equal([]string{"UpdateCustomerRecord", "CreateCustomerRecord"}, store.methods(), "one update and one create expected")

		stale := store.byID("c-1")
		s.Assert().Nil(stale.MasterExternalID, "master external id of stale customer must be cleared")
		s.Assert().Equal("111111-1111", model.StringValue(stale.CompanyNumber), "stale customer keeps its company number")

		fresh := store.byID(store.calls[1].id)
		s.Assert().Equal(ext.ExternalID, model.StringValue(fresh.ExternalID), "new customer carries external id")
		s.Assert().Equal(ext.ExternalID, model.StringValue(fresh.MasterExternalID), "new customer is authoritative")
		s.Assert().Equal(ext.CompanyNumber, model.StringValue(fresh.CompanyNumber), "new customer carries new company number")
	}
}

func (s *customerSyncServiceTestSuite) TestCompanyWithChangedCompanyNumberSyncedAgain() {
	ctx := s.testData.ctx
	ext := s.testData.company
	store := newRecordingStore(&model.Customer{
		ID:               "c-1",
		ExternalID:       model.StringRef(ext.ExternalID),
		MasterExternalID: model.StringRef(ext.ExternalID),
		Name:             "Acme Ltd",
		CompanyNumber:    model.StringRef("111111-1111"),
		CustomerType:     model.CustomerTypeCompany,
	})
	svc := s.newService(store)

	created, err := svc.SyncCustomer(ctx, ext)
	s.Require().NoError(err, "no error must be raised")
	s.Require().True(created, "new customer must be created on first sync")
	freshID := store.calls[1].id
	store.calls = nil

	s.T().Log("repeated sync must update authoritative customer only")
	{
		created, err := svc.SyncCustomer(ctx, ext)
		s.Require().NoError(err, "no error must be raised")
		s.Require().False(created, "nothing must be created on repeated sync")
		s.Require().Equal([]storeCall{{method: "UpdateCustomerRecord", id: freshID}}, store.calls, "single update of authoritative customer expected")
		s.Assert().Len(store.customers, 2, "no extra customers must appear")

		stale := store.byID("c-1")
		s.Assert().Nil(stale.MasterExternalID, "stale customer stays demoted")
	}
}

func (s *customerSyncServiceTestSuite) TestCompanyWithDuplicateByMasterExternalID() {
	ctx := s.testData.ctx
	ext := s.testData.company
	store := newRecordingStore(
		&model.Customer{
			ID:               "c-2",
			ExternalID:       model.StringRef("legacy-12345"),
			MasterExternalID: model.StringRef(ext.ExternalID),
			Name:             "Acme Legacy",
			CompanyNumber:    model.StringRef("222222-2222"),
			CustomerType:     model.CustomerTypeCompany,
		},
		&model.Customer{
			ID:               "c-1",
			ExternalID:       model.StringRef(ext.ExternalID),
			MasterExternalID: model.StringRef(ext.ExternalID),
			Name:             "Acme Ltd",
			CompanyNumber:    model.StringRef(ext.CompanyNumber),
			CustomerType:     model.CustomerTypeCompany,
		},
	)

	s.T().Log("record found by master external id must be updated before primary")
	{
		created, err := s.newService(store).SyncCustomer(ctx, ext)
		s.Require().NoError(err, "no error must be raised")
		s.Require().False(created, "primary customer existed before")

		expected := []storeCall{
			{method: "UpdateCustomerRecord", id: "c-2"},
			{method: "UpdateCustomerRecord", id: "c-1"},
		}
		s.Require().Equal(expected, store.calls, "duplicate update must precede primary update")

		dup := store.byID("c-2")
		s.Assert().Equal(ext.Name, dup.Name, "incoming name must be applied to duplicate")
		s.Assert().Equal("legacy-12345", model.StringValue(dup.ExternalID), "duplicate keeps its external id")
		s.Assert().Equal("222222-2222", model.StringValue(dup.CompanyNumber), "duplicate keeps its company number")

		primary := store.byID("c-1")
		s.Assert().Equal(ext.Name, primary.Name, "incoming name must be applied to primary")
		s.Assert().Equal(ext.PreferredStore, primary.PreferredStore, "preferred store must be applied to primary")
	}
}

func (s *customerSyncServiceTestSuite) TestCompanyAdoptedByCompanyNumber() {
	ctx := s.testData.ctx
	ext := s.testData.company
	store := newRecordingStore(&model.Customer{
		ID:            "c-1",
		Name:          "Acme Ltd",
		CompanyNumber: model.StringRef(ext.CompanyNumber),
		CustomerType:  model.CustomerTypeCompany,
	})

	s.T().Log("company without external id found by company number must adopt external id")
	{
		created, err := s.newService(store).SyncCustomer(ctx, ext)
		s.Require().NoError(err, "no error must be raised")
		s.Require().False(created, "primary customer existed before")
		s.Require().Equal([]string{"CreateCustomerRecord", "UpdateCustomerRecord"}, store.methods(), "pending duplicate is created, primary is updated")

		primary := store.byID("c-1")
		s.Assert().Equal(ext.ExternalID, model.StringValue(primary.ExternalID), "external id must be adopted")
		s.Assert().Equal(ext.ExternalID, model.StringValue(primary.MasterExternalID), "master external id must be adopted")

		dup := store.byID(store.calls[0].id)
		s.Assert().Equal(ext.Name, dup.Name, "duplicate must carry incoming name")
		s.Assert().Equal(ext.ExternalID, model.StringValue(dup.ExternalID), "duplicate must carry incoming external id")
	}
}

func (s *customerSyncServiceTestSuite) TestIdentityMismatch() {
	ctx := s.testData.ctx
	ext := s.testData.company
	store := newRecordingStore(&model.Customer{
		ID:               "c-1",
		ExternalID:       model.StringRef("67890"),
		MasterExternalID: model.StringRef("67890"),
		CompanyNumber:    model.StringRef(ext.CompanyNumber),
		CustomerType:     model.CustomerTypeCompany,
	})

	s.T().Log("company number owned by another external id must raise identity mismatch")
	{
		_, err := s.newService(store).SyncCustomer(ctx, ext)
		s.Require().Error(err, "conflict must be raised")
		s.Assert().ErrorIs(err, custerrors.ErrIdentityMismatch, "error must be identity mismatch")
		s.Assert().Empty(store.calls, "no data layer write must happen")
	}
}

func (s *customerSyncServiceTestSuite) TestTypeConflictNoWrites() {
	ctx := s.testData.ctx
	company := s.testData.company
	person := s.testData.person

	s.T().Log("company stored, person received")
	{
		rps := rpsMocks.NewCustomerRepository(s.T())
		rps.On("FindByExternalID", mock.Anything, person.ExternalID).Return(&model.Customer{
			ID:           "c-1",
			ExternalID:   model.StringRef(person.ExternalID),
			CustomerType: model.CustomerTypeCompany,
		}, nil).Once()

		_, err := NewCustomerSyncService(rps, nil).SyncCustomer(ctx, person)
		s.Require().ErrorIs(err, custerrors.ErrTypeConflict, "error must be type conflict")
		for _, m := range mutations {
			rps.AssertNotCalled(s.T(), m, mock.Anything, mock.Anything)
		}
	}

	s.T().Log("person stored, company received")
	{
		rps := rpsMocks.NewCustomerRepository(s.T())
		stored := &model.Customer{
			ID:               "p-1",
			ExternalID:       model.StringRef(company.ExternalID),
			MasterExternalID: model.StringRef(company.ExternalID),
			CustomerType:     model.CustomerTypePerson,
		}
		rps.On("FindByExternalID", mock.Anything, company.ExternalID).Return(stored, nil).Once()
		rps.On("FindByMasterExternalID", mock.Anything, company.ExternalID).Return(stored, nil).Once()

		_, err := NewCustomerSyncService(rps, nil).SyncCustomer(ctx, company)
		s.Require().ErrorIs(err, custerrors.ErrTypeConflict, "error must be type conflict")
		for _, m := range mutations {
			rps.AssertNotCalled(s.T(), m, mock.Anything, mock.Anything)
		}
	}
}

func (s *customerSyncServiceTestSuite) TestShoppingListsPersistedInOrder() {
	ctx := s.testData.ctx
	ext := *s.testData.person
	ext.ShoppingLists = []*model.ShoppingList{
		{ID: "sl-1", Products: []string{"lipstick"}},
		{ID: "sl-2", Products: []string{"blusher"}},
		{ID: "sl-3", Products: []string{"eyeliner"}},
	}
	store := newRecordingStore()

	s.T().Log("every shopping list must be followed by customer update")
	{
		created, err := s.newService(store).SyncCustomer(ctx, &ext)
		s.Require().NoError(err, "no error must be raised")
		s.Require().True(created, "new customer must be reported as created")

		primaryID := store.calls[0].id
		expected := []storeCall{
			{method: "CreateCustomerRecord", id: primaryID},
			{method: "UpdateShoppingList", id: "sl-1"},
			{method: "UpdateCustomerRecord", id: primaryID},
			{method: "UpdateShoppingList", id: "sl-2"},
			{method: "UpdateCustomerRecord", id: primaryID},
			{method: "UpdateShoppingList", id: "sl-3"},
			{method: "UpdateCustomerRecord", id: primaryID},
		}
		s.Require().Equal(expected, store.calls, "shopping list phase must issue six calls in order")
		s.Assert().Len(store.byID(primaryID).ShoppingLists, 3, "customer must be associated with all shopping lists")
	}
}

func (s *customerSyncServiceTestSuite) TestStoreFailurePropagated() {
	ctx := s.testData.ctx
	ext := s.testData.person
	dbErr := errors.New("connection reset by peer")

	rps := rpsMocks.NewCustomerRepository(s.T())
	rps.On("FindByExternalID", mock.Anything, ext.ExternalID).Return(nil, nil).Once()
	rps.On("CreateCustomerRecord", mock.Anything, mock.AnythingOfType("*model.Customer")).Return(dbErr).Once()

	s.T().Log("data layer error must be raised up as is")
	{
		created, err := NewCustomerSyncService(rps, nil).SyncCustomer(ctx, ext)
		s.Require().ErrorIs(err, dbErr, "data layer error must be wrapped, not replaced")
		s.Require().False(created, "nothing was created")
	}
}

func (s *customerSyncServiceTestSuite) TestInvalidExternalCustomer() {
	ctx := s.testData.ctx
	store := newRecordingStore()

	tests := []*model.ExternalCustomer{
		nil,
		{Name: "no external id"},
		{ExternalID: "12345", IsCompany: true},
		{ExternalID: "12345", CompanyNumber: "470813-8895"},
	}

	s.T().Log("malformed external customers must be rejected before any lookup")
	{
		for _, ext := range tests {
			_, err := s.newService(store).SyncCustomer(ctx, ext)
			var validationErr *custerrors.ValidationErr
			s.Require().ErrorAs(err, &validationErr, "validation error expected")
		}
		s.Assert().Empty(store.calls, "no data layer write must happen")
	}
}

// start customer sync service test suite
func TestCustomerSyncServiceTestSuite(t *testing.T) {
	suite.Run(t, new(customerSyncServiceTestSuite))
}
