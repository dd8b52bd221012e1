/*
cutpay.go - Non-driven compensation

PURPOSE:
  Cut pay compensates a driver for a trip that did not occur (equipment
  unavailable, low volume, weather). It mirrors trip pay calculation but is
  keyed by requested hours OR miles instead of arrival facts, and draws on
  the card's cut-pay rate fields.

MUTUAL EXCLUSIVITY:
  Exactly one of hoursRequested / milesRequested must be set. A request with
  both or neither fails boundary validation before reaching the calculator.

TRAILER CONFIGURATION:
  Selects the per-single/double/triple cut-mile field the same way the trip
  calculator selects per-mile fields.

OUTPUT:
  CutPayResult feeds the same payroll aggregation as Trip Pay but remains a
  structurally distinct record; merging the two sources is the aggregation
  layer's job, not this engine's.
*/
package engine

import "github.com/shopspring/decimal"

// =============================================================================
// CUT PAY REQUEST
// =============================================================================

// CutPayRequest is a driver's claim for non-driven compensation.
type CutPayRequest struct {
	ID       CutPayRequestID
	DriverID DriverID

	HoursRequested *decimal.Decimal
	MilesRequested *decimal.Decimal

	TrailerConfig TrailerConfig
	ReasonCode    string
	Notes         string

	RequestDate Date
}

// Validate enforces the boundary rules: exactly one of hours/miles, a valid
// trailer configuration, and a reason code.
func (r *CutPayRequest) Validate() error {
	if (r.HoursRequested == nil) == (r.MilesRequested == nil) {
		return ErrInvalidCutPayRequest
	}
	if !r.TrailerConfig.Valid() {
		return ErrInvalidCutPayRequest
	}
	if r.ReasonCode == "" {
		return ErrInvalidCutPayRequest
	}
	return nil
}

// =============================================================================
// CUT PAY RESULT
// =============================================================================

// CutPayResult is the computed output for one cut pay request.
type CutPayResult struct {
	RequestID  CutPayRequestID
	RateCardID RateCardID
	BasePay    Money
}

// =============================================================================
// CUT PAY CALCULATOR
// =============================================================================

// CutPayCalculator computes non-driven compensation from a resolved card.
type CutPayCalculator struct{}

// Calculate produces the cut pay for a validated request.
//
// Hours path:  hoursRequested x perWorkHour (cut-pay terms).
// Miles path:  milesRequested x per-<config>-cut-mile, falling back to the
//              per-cut-trip field when no mile rate is configured.
func (c *CutPayCalculator) Calculate(req *CutPayRequest, card *RateCard) (CutPayResult, error) {
	if err := req.Validate(); err != nil {
		return CutPayResult{}, err
	}

	result := CutPayResult{RequestID: req.ID, RateCardID: card.ID}
	terms := card.CutPay

	if req.HoursRequested != nil {
		if terms.PerWorkHour == nil {
			return CutPayResult{}, &InsufficientDataError{Missing: "cut-pay work-hour rate on card " + string(card.ID)}
		}
		result.BasePay = terms.PerWorkHour.Mul(*req.HoursRequested)
		return result, nil
	}

	if rate := terms.CutMileForConfig(req.TrailerConfig); rate != nil {
		result.BasePay = rate.Mul(*req.MilesRequested)
		return result, nil
	}
	if terms.PerCutTrip != nil {
		result.BasePay = *terms.PerCutTrip
		return result, nil
	}
	return CutPayResult{}, &InsufficientDataError{Missing: "cut-pay mile rate on card " + string(card.ID)}
}
