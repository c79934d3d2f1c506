package errors

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ConflictKind distinguishes reasons of reconciliation conflict
type ConflictKind string

const (
	// ConflictKindType means matched record type differs from incoming record type
	ConflictKindType ConflictKind = "TYPE_CONFLICT"
	// ConflictKindIdentity means record found by company number belongs to another external identity
	ConflictKindIdentity ConflictKind = "IDENTITY_MISMATCH"
)

var (
	// ErrTypeConflict matches any ConflictErr of kind ConflictKindType
	ErrTypeConflict = errors.New("customer type conflict")
	// ErrIdentityMismatch matches any ConflictErr of kind ConflictKindIdentity
	ErrIdentityMismatch = errors.New("customer identity mismatch")
)

// ConflictErr is raised when external customer can't be reconciled with stored customers
type ConflictErr struct {
	kind    ConflictKind
	target  string
	message string
}

func (e *ConflictErr) Error() string {
	return e.message
}

// Kind returns conflict kind
func (e *ConflictErr) Kind() ConflictKind {
	return e.kind
}

// Target returns identifier conflict was detected for
func (e *ConflictErr) Target() string {
	return e.target
}

// Is makes ConflictErr comparable with ErrTypeConflict and ErrIdentityMismatch
func (e *ConflictErr) Is(target error) bool {
	switch target {
	case ErrTypeConflict:
		return e.kind == ConflictKindType
	case ErrIdentityMismatch:
		return e.kind == ConflictKindIdentity
	}
	return false
}

func (e *ConflictErr) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Kind    ConflictKind `json:"kind"`
		Target  string       `json:"target"`
		Message string       `json:"message"`
	}{Kind: e.kind, Target: e.target, Message: e.message})
}

// NewTypeConflictErr builds conflict for customer with unexpected type
func NewTypeConflictErr(externalID string, expected string) error {
	return &ConflictErr{
		kind:    ConflictKindType,
		target:  externalID,
		message: fmt.Sprintf("existing customer for external customer %s already exists and is not a %s", externalID, expected),
	}
}

// NewIdentityMismatchErr builds conflict for company number matched to another external id
func NewIdentityMismatchErr(companyNumber, externalID, foundExternalID string) error {
	return &ConflictErr{
		kind:    ConflictKindIdentity,
		target:  companyNumber,
		message: fmt.Sprintf("existing customer for company number %s doesn't match external id %s, instead found %s", companyNumber, externalID, foundExternalID),
	}
}

// ValidationErr is raised when external customer is malformed
type ValidationErr struct {
	target  string
	message string
}

func (e *ValidationErr) Error() string {
	return e.message
}

func (e *ValidationErr) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Target  string `json:"target"`
		Message string `json:"message"`
	}{Target: e.target, Message: e.message})
}

// NewValidationErr builds ValidationErr
func NewValidationErr(target string, msg string) error {
	return &ValidationErr{
		target:  target,
		message: msg,
	}
}
