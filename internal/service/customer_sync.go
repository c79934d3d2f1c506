package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	custerrors "github.com/umalmyha/customersync/internal/errors"
	"github.com/umalmyha/customersync/internal/metrics"
	"github.com/umalmyha/customersync/internal/model"
	"github.com/umalmyha/customersync/internal/reconcile"
	"github.com/umalmyha/customersync/internal/repository"
)

// CustomerSyncService reconciles external customers with stored customers
type CustomerSyncService interface {
	SyncCustomer(context.Context, *model.ExternalCustomer) (bool, error)
}

type customerSyncService struct {
	matcher   *reconcile.Matcher
	persister *reconcile.Persister
	metrics   *metrics.SyncMetrics
}

// NewCustomerSyncService builds CustomerSyncService, metrics are optional
func NewCustomerSyncService(customerRps repository.CustomerRepository, m *metrics.SyncMetrics) CustomerSyncService {
	return &customerSyncService{
		matcher:   reconcile.NewMatcher(customerRps),
		persister: reconcile.NewPersister(customerRps),
		metrics:   m,
	}
}

// SyncCustomer creates or updates customers according to external customer.
// Returns true if primary customer was created. Conflicts are detected before any write.
func (s *customerSyncService) SyncCustomer(ctx context.Context, ext *model.ExternalCustomer) (created bool, err error) {
	start := time.Now()
	defer func() {
		s.observe(created, err, start)
	}()

	if err := validateExternalCustomer(ext); err != nil {
		return false, err
	}

	logger := logrus.WithField("externalId", ext.ExternalID)

	matched, err := s.matcher.Match(ctx, ext)
	if err != nil {
		return false, err
	}

	resolved, err := reconcile.Resolve(matched, ext)
	if err != nil {
		logger.WithField("matchBasis", matched.Basis).Warnf("external customer can't be reconciled - %v", err)
		return false, err
	}

	plan := reconcile.Merge(resolved, ext)
	logger.WithFields(logrus.Fields{
		"matchBasis":    resolved.Basis,
		"duplicates":    len(plan.Duplicates),
		"shoppingLists": len(plan.ShoppingLists),
	}).Debug("external customer reconciled, persisting")

	created, err = s.persister.Persist(ctx, plan)
	if err != nil {
		return false, err
	}

	logger.WithFields(logrus.Fields{
		"customerId": plan.Primary.ID,
		"created":    created,
	}).Info("external customer synchronized")
	return created, nil
}

func (s *customerSyncService) observe(created bool, err error, start time.Time) {
	if s.metrics == nil {
		return
	}

	if err == nil {
		s.metrics.ObserveSync(created, start)
		return
	}

	var conflictErr *custerrors.ConflictErr
	if errors.As(err, &conflictErr) {
		s.metrics.IncrementConflict(string(conflictErr.Kind()))
	}
	s.metrics.ObserveFailure(start)
}

func validateExternalCustomer(ext *model.ExternalCustomer) error {
	if ext == nil {
		return custerrors.NewValidationErr("externalCustomer", "external customer must be provided")
	}

	if ext.ExternalID == "" {
		return custerrors.NewValidationErr("externalId", "external id is required")
	}

	if ext.IsCompany && ext.CompanyNumber == "" {
		return custerrors.NewValidationErr("companyNumber", "company number is required for company "+ext.ExternalID)
	}

	if !ext.IsCompany && ext.CompanyNumber != "" {
		return custerrors.NewValidationErr("companyNumber", "company number must be empty for person "+ext.ExternalID)
	}
	return nil
}
