/*
errors.go - Centralized error types for the pay engine

PURPOSE:
  All error types in one place. Pay is regulatory/financial data, so every
  failure must be typed, surfaced, and attributable - never defaulted to a
  zero-dollar result and never retried silently.

ERROR CATEGORIES:
  1. Resolution errors - no matching rate card, ambiguous configuration
  2. Calculation errors - required numeric input missing
  3. Lifecycle errors  - illegal state machine transitions
  4. Concurrency errors - duplicate trip pay creation races

USAGE:
  Callers should match with errors.Is()/errors.As():

    if errors.Is(err, engine.ErrRateNotFound) {
        // surface to a human, do not compute zero pay
    }

SEE ALSO:
  - resolver.go: Returns resolution errors
  - calculator.go: Returns calculation errors
  - payroll package: Returns lifecycle errors
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrRateNotFound is returned when no active rate card matches the
	// compensation context. Fatal to that trip's calculation; callers must
	// surface it, never default to zero pay.
	ErrRateNotFound = errors.New("no matching rate card")

	// ErrAmbiguousRate is returned when two equally-specific, equally
	// prioritized cards match the same context. This is a data-quality
	// defect to be reported, not silently resolved.
	ErrAmbiguousRate = errors.New("ambiguous rate configuration")

	// ErrInsufficientData is returned when a required numeric input is
	// missing, e.g. mileage for a PER_MILE card.
	ErrInsufficientData = errors.New("insufficient data for calculation")

	// ErrInvalidTransition is returned on a state-machine violation.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrConcurrentModification is returned when an atomic create-or-fail
	// detects a duplicate trip pay for the same trip and period.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrTripNotFound is returned when a referenced trip doesn't exist.
	ErrTripNotFound = errors.New("trip not found")

	// ErrPayPeriodNotFound is returned when no pay period matches.
	ErrPayPeriodNotFound = errors.New("pay period not found")

	// ErrNoOpenPayPeriod is returned when an operation requires the open
	// period and none exists.
	ErrNoOpenPayPeriod = errors.New("no open pay period")

	// ErrInvalidTripReport is returned when arrival-capture facts violate
	// boundary validation (unreasoned wait time, end before start, ...).
	ErrInvalidTripReport = errors.New("invalid driver trip report")

	// ErrInvalidCutPayRequest is returned when a cut pay request fails
	// boundary validation (both or neither of hours/miles set).
	ErrInvalidCutPayRequest = errors.New("invalid cut pay request")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// RateNotFoundError reports the context that matched zero cards.
type RateNotFoundError struct {
	Context RateContext
	AsOf    Date
}

func (e *RateNotFoundError) Error() string {
	return fmt.Sprintf("no matching rate card for %s as of %s", e.Context, e.AsOf)
}

func (e *RateNotFoundError) Unwrap() error { return ErrRateNotFound }

// AmbiguousRateError reports the candidate cards that could not be ranked.
type AmbiguousRateError struct {
	RateType   RateType
	Candidates []RateCardID
}

func (e *AmbiguousRateError) Error() string {
	return fmt.Sprintf("ambiguous rate configuration: %d equally ranked %s cards: %v",
		len(e.Candidates), e.RateType, e.Candidates)
}

func (e *AmbiguousRateError) Unwrap() error { return ErrAmbiguousRate }

// InsufficientDataError names the missing input.
type InsufficientDataError struct {
	TripID  TripID
	Missing string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for trip %s: missing %s", e.TripID, e.Missing)
}

func (e *InsufficientDataError) Unwrap() error { return ErrInsufficientData }

// TripReportError reports an arrival-capture validation failure.
type TripReportError struct {
	TripID TripID
	Reason string
}

func (e *TripReportError) Error() string {
	return fmt.Sprintf("invalid trip report for trip %s: %s", e.TripID, e.Reason)
}

func (e *TripReportError) Unwrap() error { return ErrInvalidTripReport }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsDataDefect returns true if the error indicates bad catalog or capture
// data that a human must fix, as opposed to an engine fault.
func IsDataDefect(err error) bool {
	return errors.Is(err, ErrRateNotFound) ||
		errors.Is(err, ErrAmbiguousRate) ||
		errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrInvalidTripReport)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTripNotFound) ||
		errors.Is(err, ErrPayPeriodNotFound) ||
		errors.Is(err, ErrRateNotFound)
}
