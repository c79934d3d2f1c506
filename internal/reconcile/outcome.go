package reconcile

import "github.com/umalmyha/customersync/internal/model"

// MatchBasis tells which lookup produced the candidate
type MatchBasis int

const (
	// MatchBasisNone means no candidate was found
	MatchBasisNone MatchBasis = iota
	// MatchBasisExternalID means candidate was found by external id
	MatchBasisExternalID
	// MatchBasisCompanyNumber means candidate was found by company number
	MatchBasisCompanyNumber
)

func (b MatchBasis) String() string {
	switch b {
	case MatchBasisExternalID:
		return "ExternalId"
	case MatchBasisCompanyNumber:
		return "CompanyNumber"
	default:
		return "None"
	}
}

// DuplicateSlot is either existing customer being demoted or a marker to create new record.
// The zero value is not valid, use ExistingDuplicate or PendingDuplicate.
type DuplicateSlot struct {
	customer *model.Customer
	pending  bool
}

// ExistingDuplicate builds slot for stored customer
func ExistingDuplicate(c *model.Customer) DuplicateSlot {
	return DuplicateSlot{customer: c}
}

// PendingDuplicate builds slot meaning a new record must be created with incoming external id
func PendingDuplicate() DuplicateSlot {
	return DuplicateSlot{pending: true}
}

// Pending reports whether slot stands for a record which doesn't exist yet
func (s DuplicateSlot) Pending() bool {
	return s.pending
}

// Customer returns customer of existing slot
func (s DuplicateSlot) Customer() (*model.Customer, bool) {
	if s.pending {
		return nil, false
	}
	return s.customer, s.customer != nil
}

// MatchOutcome is the result of matching external customer against stored customers
type MatchOutcome struct {
	Candidate  *model.Customer
	Basis      MatchBasis
	Duplicates []DuplicateSlot
}

// HasCandidate reports whether any stored customer matched
func (o MatchOutcome) HasCandidate() bool {
	return o.Candidate != nil
}

// withDuplicate returns copy of outcome with slot appended, the receiver stays untouched
func (o MatchOutcome) withDuplicate(slot DuplicateSlot) MatchOutcome {
	dups := make([]DuplicateSlot, len(o.Duplicates), len(o.Duplicates)+1)
	copy(dups, o.Duplicates)
	o.Duplicates = append(dups, slot)
	return o
}
