/*
errors.go - Centralized error types for the allowance engine

PURPOSE:
  All error types in one place. Callers use errors.Is with the sentinels
  and errors.As with the structured types to reach the details.

ERROR CATEGORIES:
  1. Calculation errors - NoInputError, MissingRankError
  2. Input notices - InvalidCountError (normalized to zero, never fatal)
  3. Configuration errors - invalid or unknown rate tables

All calculation errors are recoverable at the UI boundary: the user fixes
the form and resubmits. Nothing here is retried automatically.
*/
package allowance

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNoInput is returned when every category count is zero.
	ErrNoInput = errors.New("no category has a non-zero count")

	// ErrMissingRank is returned when a rank-dependent category is used
	// without a rank that resolves in the rate table.
	ErrMissingRank = errors.New("rank required for rank-dependent category")

	// ErrInvalidCount marks a raw input that was normalized to zero.
	ErrInvalidCount = errors.New("invalid count")

	// ErrInvalidRateTable is returned when a rate table fails validation.
	ErrInvalidRateTable = errors.New("invalid rate table")

	// ErrRateTableNotFound is returned when a referenced rate table doesn't exist.
	ErrRateTableNotFound = errors.New("rate table not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NoInputError reports an empty calculation request.
type NoInputError struct {
	TableID string
}

func (e *NoInputError) Error() string {
	return "please enter at least one day count"
}

func (e *NoInputError) Unwrap() error {
	return ErrNoInput
}

// MissingRankError reports the first rank-dependent category that could not
// be priced. Rank is what the caller supplied (possibly empty).
type MissingRankError struct {
	Rank     string
	Category string
}

func (e *MissingRankError) Error() string {
	if e.Rank == "" {
		return fmt.Sprintf("select a rank to price %q", e.Category)
	}
	return fmt.Sprintf("unknown rank %q for %q", e.Rank, e.Category)
}

func (e *MissingRankError) Unwrap() error {
	return ErrMissingRank
}

// InvalidCountReason explains why a raw value was normalized.
type InvalidCountReason string

const (
	ReasonNegative        InvalidCountReason = "negative"
	ReasonNotInteger      InvalidCountReason = "not an integer"
	ReasonNotNumber       InvalidCountReason = "not a number"
	ReasonUnknownCategory InvalidCountReason = "unknown category"
)

// InvalidCountError describes a raw input that was treated as zero.
// It is reported alongside results, not returned as a failure.
type InvalidCountError struct {
	Category string
	Raw      string
	Reason   InvalidCountReason
}

func (e *InvalidCountError) Error() string {
	return fmt.Sprintf("%s: %q is %s, treated as 0", e.Category, e.Raw, e.Reason)
}

func (e *InvalidCountError) Unwrap() error {
	return ErrInvalidCount
}

// RateTableError describes why a rate table was rejected.
type RateTableError struct {
	TableID string
	Reason  string
}

func (e *RateTableError) Error() string {
	if e.TableID == "" {
		return fmt.Sprintf("invalid rate table: %s", e.Reason)
	}
	return fmt.Sprintf("invalid rate table %q: %s", e.TableID, e.Reason)
}

func (e *RateTableError) Unwrap() error {
	return ErrInvalidRateTable
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid user input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrMissingRank) ||
		errors.Is(err, ErrInvalidCount) ||
		errors.Is(err, ErrInvalidRateTable)
}

// IsNotFound returns true if the error indicates a missing rate table.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRateTableNotFound)
}
