/*
errors.go - Centralized error types for the ledger engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Calling layers (HTTP handlers, schedulers) map these to response codes
  with errors.Is/errors.As - never by string matching.

ERROR CATEGORIES:
  1. Validation errors - bad caller input, rejected before any ledger I/O
  2. Business errors   - InsufficientPoints (rule violation, not a fault)
  3. Transient errors  - lock/commit conflicts, safe to retry with backoff
  4. Invariant errors  - programming bugs, fail fast, never retried

USAGE:
  var insErr *ledger.InsufficientPointsError
  if errors.As(err, &insErr) {
      // present required/available/deficit to the caller
  }
  if ledger.IsRetryable(err) {
      // back off and retry the whole operation
  }

SEE ALSO:
  - engine.go: Produces these errors
  - store.go:  Store implementations translate driver errors to ErrConflict
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidAmount is returned for non-finite, negative, or zero amounts
	// on operations that require a positive quantity.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrAmountOutOfRange is returned when an amount exceeds the maximum
	// representable point value.
	ErrAmountOutOfRange = errors.New("amount out of range")

	// ErrPrecision is returned when a parsed amount carries more than two
	// fractional digits.
	ErrPrecision = errors.New("amount exceeds 2-decimal precision")

	// ErrUnderflow is returned when a subtraction would produce a negative
	// amount. This is a hard invariant guard, not a business check.
	ErrUnderflow = errors.New("amount underflow")

	// ErrInvalidDescription is returned when a description is empty or
	// longer than 500 characters.
	ErrInvalidDescription = errors.New("invalid description")

	// ErrInvalidExpiration is returned when an earn carries an expiry that
	// is not strictly in the future.
	ErrInvalidExpiration = errors.New("invalid expiration date")

	// ErrInsufficientPoints is returned when a deduction or exchange exceeds
	// the member's available balance. Retrying with the same amount will
	// fail identically unless the balance changes.
	ErrInsufficientPoints = errors.New("insufficient points")

	// ErrConflict is returned when a transaction cannot acquire its lock or
	// loses a commit race. Safe to retry: no partial state is ever visible.
	ErrConflict = errors.New("transaction conflict")

	// ErrExpirationSweep is returned when an expiration sweep cannot run at
	// all. Individual lot failures are collected in the report instead.
	ErrExpirationSweep = errors.New("expiration sweep failed")

	// ErrInvariant marks a broken internal invariant - a bug in the caller
	// or in the engine, not a runtime condition.
	ErrInvariant = errors.New("ledger invariant violated")

	// ErrMemberNotFound is returned when a referenced member doesn't exist.
	ErrMemberNotFound = errors.New("member not found")

	// ErrEntryNotFound is returned when a referenced ledger entry doesn't exist.
	ErrEntryNotFound = errors.New("ledger entry not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientPointsError reports exactly how short the member's balance is,
// so callers can present a precise message.
type InsufficientPointsError struct {
	MemberID  MemberID
	Required  PointAmount
	Available PointAmount
	Deficit   PointAmount
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("insufficient points for %s: required %s, available %s, deficit %s",
		e.MemberID, e.Required, e.Available, e.Deficit)
}

func (e *InsufficientPointsError) Unwrap() error {
	return ErrInsufficientPoints
}

// ExpirationError wraps the reason an expiration sweep could not run at all.
type ExpirationError struct {
	Cause error
}

func (e *ExpirationError) Error() string {
	return fmt.Sprintf("expiration sweep failed to run: %v", e.Cause)
}

func (e *ExpirationError) Unwrap() error {
	return ErrExpirationSweep
}

// InvariantError describes a broken invariant. These indicate bugs and are
// never retried or swallowed.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violated: %s", e.Msg)
}

func (e *InvariantError) Unwrap() error {
	return ErrInvariant
}

func invariantf(format string, args ...any) error {
	return &InvariantError{Msg: fmt.Sprintf(format, args...)}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
// InsufficientPoints is deliberately NOT retryable.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsClientError returns true if the error is due to invalid client input
// or a business rule violation.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrAmountOutOfRange) ||
		errors.Is(err, ErrPrecision) ||
		errors.Is(err, ErrInvalidDescription) ||
		errors.Is(err, ErrInvalidExpiration) ||
		errors.Is(err, ErrInsufficientPoints)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrMemberNotFound) ||
		errors.Is(err, ErrEntryNotFound)
}
