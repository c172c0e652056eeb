package core

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrMissingPayer is returned when debts are derived for an expense that
// has no payer assigned. A payer is mandatory before any debt can exist.
var ErrMissingPayer = errors.New("expense has no payer assigned")

// NotFoundError reports a lookup for an entity that does not exist.
// Lookup failures abort the enclosing operation and are never retried.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found with id: %s", e.Kind, e.ID)
}

func NewNotFound(kind string, id uuid.UUID) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id.String()}
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// ValidationError reports caller data that fails boundary validation,
// e.g. a duplicate allocation user or a negative amount.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ConsistencyError reports a violated internal invariant: the stored bill
// total drifted from the sum of its expenses beyond rounding tolerance.
// It should never occur if reconciliation is correct.
type ConsistencyError struct {
	BillID   uuid.UUID
	Stored   decimal.Decimal
	Computed decimal.Decimal
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("bill %s total drift: stored %s, computed %s",
		e.BillID, e.Stored.StringFixed(2), e.Computed.StringFixed(2))
}
