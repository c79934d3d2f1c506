package reconcile

import (
	"strings"

	custerrors "github.com/umalmyha/customersync/internal/errors"
	"github.com/umalmyha/customersync/internal/model"
)

// Resolve validates matched candidate against external customer and adjusts outcome.
// Outcome passed in is never modified, adjusted customers are clones.
func Resolve(outcome MatchOutcome, ext *model.ExternalCustomer) (MatchOutcome, error) {
	if outcome.HasCandidate() && outcome.Candidate.CustomerType != ext.Type() {
		return MatchOutcome{}, custerrors.NewTypeConflictErr(ext.ExternalID, strings.ToLower(ext.Type().String()))
	}

	if ext.IsCompany {
		return resolveCompany(outcome, ext)
	}
	return resolvePerson(outcome, ext), nil
}

func resolveCompany(outcome MatchOutcome, ext *model.ExternalCustomer) (MatchOutcome, error) {
	switch outcome.Basis {
	case MatchBasisExternalID:
		if model.StringValue(outcome.Candidate.CompanyNumber) == ext.CompanyNumber {
			return outcome, nil
		}

		// candidate is stale for this company number, new record takes over external id
		stale := outcome.Candidate.Clone()
		stale.Demote()

		resolved := outcome.withDuplicate(ExistingDuplicate(stale))
		resolved.Candidate = nil
		resolved.Basis = MatchBasisNone
		return resolved, nil
	case MatchBasisCompanyNumber:
		found := outcome.Candidate.ExternalID
		if found != nil && *found != ext.ExternalID {
			return MatchOutcome{}, custerrors.NewIdentityMismatchErr(ext.CompanyNumber, ext.ExternalID, *found)
		}

		candidate := outcome.Candidate.Clone()
		candidate.AssignExternalID(ext.ExternalID)

		resolved := outcome.withDuplicate(PendingDuplicate())
		resolved.Candidate = candidate
		return resolved, nil
	default:
		return outcome, nil
	}
}

func resolvePerson(outcome MatchOutcome, ext *model.ExternalCustomer) MatchOutcome {
	if !outcome.HasCandidate() || outcome.Basis == MatchBasisExternalID {
		return outcome
	}

	// unreachable with lookups by external id only, kept for other match strategies
	candidate := outcome.Candidate.Clone()
	candidate.AssignExternalID(ext.ExternalID)
	outcome.Candidate = candidate
	return outcome
}
