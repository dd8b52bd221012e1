/*
lifecycle.go - The two finite-state machines

PURPOSE:
  Single authoritative transition tables for the TripPay and PayPeriod
  lifecycles. Every transition in the system goes through Transition() here,
  so illegal moves are rejected at one chokepoint instead of scattered
  status-string checks at call sites.

TRIP PAY:
  PENDING -> CALCULATED -> REVIEWED -> APPROVED -> PAID
  DISPUTED is reachable from CALCULATED, REVIEWED, and APPROVED; disputing
  requires a note and halts automatic progression until the record is moved
  back to CALCULATED (forcing recomputation) or resolved out-of-band.
  PAID is terminal.

PAY PERIOD:
  OPEN -> CLOSED -> LOCKED -> EXPORTED
  Strictly sequential: no skipping, no reopening. EXPORTED is terminal.
*/
package payroll

import (
	"fmt"

	"github.com/freightline/pay-engine/engine"
)

// =============================================================================
// TRIP PAY STATES
// =============================================================================

type TripPayStatus string

const (
	PayPending    TripPayStatus = "PENDING"
	PayCalculated TripPayStatus = "CALCULATED"
	PayReviewed   TripPayStatus = "REVIEWED"
	PayApproved   TripPayStatus = "APPROVED"
	PayPaid       TripPayStatus = "PAID"
	PayDisputed   TripPayStatus = "DISPUTED"
)

// tripPayTransitions is the authoritative table. A target absent from a
// state's list is illegal from that state, no exceptions.
var tripPayTransitions = map[TripPayStatus][]TripPayStatus{
	PayPending:    {PayCalculated},
	PayCalculated: {PayReviewed, PayDisputed},
	PayReviewed:   {PayApproved, PayDisputed},
	PayApproved:   {PayPaid, PayDisputed},
	PayDisputed:   {PayCalculated},
	PayPaid:       {},
}

// CanTransitionTripPay reports whether from -> to is a legal move.
func CanTransitionTripPay(from, to TripPayStatus) bool {
	for _, t := range tripPayTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// =============================================================================
// PAY PERIOD STATES
// =============================================================================

type PayPeriodStatus string

const (
	PeriodOpen     PayPeriodStatus = "OPEN"
	PeriodClosed   PayPeriodStatus = "CLOSED"
	PeriodLocked   PayPeriodStatus = "LOCKED"
	PeriodExported PayPeriodStatus = "EXPORTED"
)

var payPeriodTransitions = map[PayPeriodStatus][]PayPeriodStatus{
	PeriodOpen:     {PeriodClosed},
	PeriodClosed:   {PeriodLocked},
	PeriodLocked:   {PeriodExported},
	PeriodExported: {},
}

// CanTransitionPayPeriod reports whether from -> to is a legal move.
func CanTransitionPayPeriod(from, to PayPeriodStatus) bool {
	for _, t := range payPeriodTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// =============================================================================
// ERROR TYPE
// =============================================================================

// InvalidTransitionError reports an illegal state machine move.
type InvalidTransitionError struct {
	Record string // "trip pay" or "pay period"
	ID     string
	From   string
	To     string
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	msg := fmt.Sprintf("invalid %s transition for %s: %s -> %s", e.Record, e.ID, e.From, e.To)
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

func (e *InvalidTransitionError) Unwrap() error {
	return engine.ErrInvalidTransition
}
