/*
errors.go - Centralized error types for the reconciliation engine

PURPOSE:
  All error types in one place. The engine detects every failure during its
  validation phase, before any store is touched, and surfaces it directly to
  the caller; nothing here is retried.

ERROR CATEGORIES:
  1. Validation errors - a session draft or movement request is not
     satisfiable against current stock
  2. Not-found errors - a referenced batch or session does not exist
  3. Import errors - CSV rows that cannot be merged

USAGE:
  Structured errors unwrap onto the sentinels:

    if errors.Is(err, vegetal.ErrInsufficientStock) {
        var short *vegetal.InsufficientStockError
        errors.As(err, &short)
        // short.Available, short.Requested
    }

SEE ALSO:
  - engine/engine.go: Produces these during validation
  - api/handlers.go: Maps them onto HTTP statuses
*/
package vegetal

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrBatchNotFound is returned when a claim or movement references a
	// batch id absent from both live and historical inventory.
	ErrBatchNotFound = errors.New("batch not found")

	// ErrSessionNotFound is returned when a referenced session doesn't exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrInsufficientStock is returned when a claim or direct exit requests
	// more than the batch currently holds.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrEmptyConsumption is returned when a session draft has zero valid
	// claims after blank/zero entries are filtered out.
	ErrEmptyConsumption = errors.New("session has no valid consumption claims")

	// ErrDuplicateSession is returned by the importer when a row carries a
	// session id that already exists.
	ErrDuplicateSession = errors.New("session already exists")

	// ErrInvalidQuantity is returned when a movement request carries a
	// negative or non-positive quantity where one is required.
	ErrInvalidQuantity = errors.New("invalid quantity")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// BatchNotFoundError identifies which claim failed resolution.
type BatchNotFoundError struct {
	BatchID BatchID
}

func (e *BatchNotFoundError) Error() string {
	return fmt.Sprintf("batch %q not found in stock", e.BatchID)
}

func (e *BatchNotFoundError) Unwrap() error { return ErrBatchNotFound }

// InsufficientStockError reports the shortfall that aborted a save. The
// batch name and both quantities are part of the message shown to the user.
type InsufficientStockError struct {
	BatchID   BatchID
	Name      string
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: available %s L, requested %s L",
		e.Name, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrEmptyConsumption) ||
		errors.Is(err, ErrDuplicateSession) ||
		errors.Is(err, ErrInvalidQuantity)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrBatchNotFound) ||
		errors.Is(err, ErrSessionNotFound)
}
