package reconcile

import (
	"context"
	"fmt"

	"github.com/umalmyha/customersync/internal/model"
)

// CustomerFinder is the read side of customer data layer
type CustomerFinder interface {
	FindByExternalID(context.Context, string) (*model.Customer, error)
	FindByMasterExternalID(context.Context, string) (*model.Customer, error)
	FindByCompanyNumber(context.Context, string) (*model.Customer, error)
}

// Matcher looks up stored customers which may correspond to external customer
type Matcher struct {
	finder CustomerFinder
}

// NewMatcher builds Matcher
func NewMatcher(finder CustomerFinder) *Matcher {
	return &Matcher{finder: finder}
}

// Match finds candidate for external customer. It never raises domain conflicts,
// only data layer errors are returned.
func (m *Matcher) Match(ctx context.Context, ext *model.ExternalCustomer) (MatchOutcome, error) {
	if ext.IsCompany {
		return m.matchCompany(ctx, ext)
	}
	return m.matchPerson(ctx, ext)
}

func (m *Matcher) matchCompany(ctx context.Context, ext *model.ExternalCustomer) (MatchOutcome, error) {
	byExternalID, err := m.finder.FindByExternalID(ctx, ext.ExternalID)
	if err != nil {
		return MatchOutcome{}, fmt.Errorf("failed to find customer by external id %s - %w", ext.ExternalID, err)
	}

	if byExternalID != nil {
		outcome := MatchOutcome{Candidate: byExternalID, Basis: MatchBasisExternalID}

		byMasterID, err := m.finder.FindByMasterExternalID(ctx, ext.ExternalID)
		if err != nil {
			return MatchOutcome{}, fmt.Errorf("failed to find customer by master external id %s - %w", ext.ExternalID, err)
		}

		if byMasterID != nil && !sameRecord(byMasterID, byExternalID) {
			outcome = outcome.withDuplicate(ExistingDuplicate(byMasterID))
		}
		return outcome, nil
	}

	byCompanyNumber, err := m.finder.FindByCompanyNumber(ctx, ext.CompanyNumber)
	if err != nil {
		return MatchOutcome{}, fmt.Errorf("failed to find customer by company number %s - %w", ext.CompanyNumber, err)
	}

	if byCompanyNumber != nil {
		return MatchOutcome{Candidate: byCompanyNumber, Basis: MatchBasisCompanyNumber}, nil
	}
	return MatchOutcome{Basis: MatchBasisNone}, nil
}

func (m *Matcher) matchPerson(ctx context.Context, ext *model.ExternalCustomer) (MatchOutcome, error) {
	byExternalID, err := m.finder.FindByExternalID(ctx, ext.ExternalID)
	if err != nil {
		return MatchOutcome{}, fmt.Errorf("failed to find customer by external id %s - %w", ext.ExternalID, err)
	}

	if byExternalID != nil {
		return MatchOutcome{Candidate: byExternalID, Basis: MatchBasisExternalID}, nil
	}
	return MatchOutcome{Basis: MatchBasisNone}, nil
}

func sameRecord(a, b *model.Customer) bool {
	if a == b {
		return true
	}
	return a.ID != "" && a.ID == b.ID
}
