/*
trip.go - Trip facts and arrival-capture validation

PURPOSE:
  Defines the inputs the calculator consumes: the dispatched Trip and the
  DriverTripReport captured on arrival. The engine does not own trip
  dispatch; these records are written by the dispatch/arrival workflow and
  read here.

BOUNDARY VALIDATION:
  Arrival facts that violate capture rules are rejected before they ever
  reach the calculator:
    - wait time with a start but no end, or end before start
    - wait time present without a reason
    - wait time present without notes
  The calculator can therefore trust a validated report.

VERIFICATION GATES:
  Verified and PayApproved are independent boolean gates stamped by the
  arrival workflow. A report is created once per trip arrival and mutated
  only by verification/approval actions, never by re-arrival.
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TRIP - Dispatched trip facts
// =============================================================================

// Trip is the dispatch-side record the engine reads. Mileage is a pointer
// because arrival capture may legitimately lack it; a PER_MILE card then
// fails with InsufficientData rather than computing zero-mile pay.
type Trip struct {
	ID                  TripID
	DriverID            DriverID
	CarrierID           *CarrierID
	LinehaulProfileID   *LinehaulProfileID
	OriginTerminal      *TerminalID
	DestinationTerminal *TerminalID

	DispatchDate  Date
	TrailerConfig TrailerConfig

	Miles     *decimal.Decimal
	WorkHours *decimal.Decimal
	StopHours *decimal.Decimal

	// Revenue linked to the trip, for PERCENTAGE cards.
	LinkedRevenue *Money
}

// RateContext derives the resolution context from the trip's scope fields.
func (t *Trip) RateContext() RateContext {
	driverID := t.DriverID
	return RateContext{
		DriverID:              &driverID,
		CarrierID:             t.CarrierID,
		LinehaulProfileID:     t.LinehaulProfileID,
		OriginTerminalID:      t.OriginTerminal,
		DestinationTerminalID: t.DestinationTerminal,
	}
}

// =============================================================================
// DRIVER TRIP REPORT - Arrival-time facts
// =============================================================================

// DriverTripReport holds the facts captured when a trip arrives.
type DriverTripReport struct {
	TripID TripID

	DropAndHookCount int
	ChainUpCycles    int

	WaitTimeStart  *time.Time
	WaitTimeEnd    *time.Time
	WaitTimeReason string
	Notes          string

	// Independent gates, stamped by verification/approval actions.
	Verified    bool
	PayApproved bool
}

// WaitMinutes returns the derived wait duration. Only meaningful on a
// validated report.
func (r *DriverTripReport) WaitMinutes() decimal.Decimal {
	if r.WaitTimeStart == nil || r.WaitTimeEnd == nil {
		return decimal.Zero
	}
	mins := r.WaitTimeEnd.Sub(*r.WaitTimeStart).Minutes()
	return decimal.NewFromFloat(mins)
}

// HasWaitTime reports whether any wait window was captured.
func (r *DriverTripReport) HasWaitTime() bool {
	return r.WaitTimeStart != nil || r.WaitTimeEnd != nil
}

// Validate enforces the arrival-capture rules. It is called at the boundary;
// a report that fails here never reaches the calculator.
func (r *DriverTripReport) Validate() error {
	if r.DropAndHookCount < 0 {
		return &TripReportError{TripID: r.TripID, Reason: "negative drop-and-hook count"}
	}
	if r.ChainUpCycles < 0 {
		return &TripReportError{TripID: r.TripID, Reason: "negative chain-up cycles"}
	}
	if r.HasWaitTime() {
		if r.WaitTimeStart == nil {
			return &TripReportError{TripID: r.TripID, Reason: "wait time end without start"}
		}
		if r.WaitTimeEnd == nil {
			return &TripReportError{TripID: r.TripID, Reason: "wait time start without end"}
		}
		if !r.WaitTimeEnd.After(*r.WaitTimeStart) {
			return &TripReportError{TripID: r.TripID, Reason: "wait time end before start"}
		}
		if r.WaitTimeReason == "" {
			return &TripReportError{TripID: r.TripID, Reason: "wait time requires a reason"}
		}
		if r.Notes == "" {
			return &TripReportError{TripID: r.TripID, Reason: "wait time requires notes"}
		}
	}
	return nil
}
