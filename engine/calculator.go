/*
calculator.go - Trip pay computation

PURPOSE:
  Turns a resolved Rate Card plus trip-arrival facts into a PayBreakdown:
  base pay, mileage pay, accessorial pay, and the derived gross total.

BASE PAY BY METHOD:
  PER_MILE   -> miles x per-<config>-mile, clamped to [min,max] if set.
                The product lands in MileagePay; BasePay stays zero.
  FLAT_RATE  -> flat trip amount regardless of mileage.
  HOURLY     -> workHours x perWorkHour (+ stopHours x perStopHour).
  PERCENTAGE -> linkedRevenue x percent / 100.

ACCESSORIAL PAY:
  Additive and independent of the base method:
    dropAndHook x per-<config>-drop-hook
    chainUpCycles x perChainUp
    billable wait minutes (reasoned only) at the hourly-equivalent rate
    fuel surcharge as a percentage of base+mileage pay
  Each term contributes zero when its rate field is unset on the card.

HARD FAILURES:
  Missing mileage on a PER_MILE card, missing hours on an HOURLY card, and
  missing linked revenue on a PERCENTAGE card are InsufficientData errors,
  never zero-input computations.

IDEMPOTENCE:
  Calculation is pure: the same card and facts always produce the same
  breakdown, and TotalGross is always recomputed from components.
*/
package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)
var sixty = decimal.NewFromInt(60)

// =============================================================================
// PAY BREAKDOWN
// =============================================================================

// PayBreakdown is the computed output of one trip's calculation.
type PayBreakdown struct {
	RateCardID RateCardID

	BasePay        Money
	MileagePay     Money
	AccessorialPay Money
	BonusPay       Money
	Deductions     Money
}

// TotalGross is always derived from components, never stored independently.
func (b PayBreakdown) TotalGross() Money {
	return b.BasePay.
		Add(b.MileagePay).
		Add(b.AccessorialPay).
		Add(b.BonusPay).
		Sub(b.Deductions)
}

// =============================================================================
// PAY CALCULATOR
// =============================================================================

// Calculator computes trip pay from a resolved card and validated facts.
type Calculator struct{}

// Calculate produces the breakdown for one trip. The report must already
// have passed Validate(); the card must come from the resolver.
func (c *Calculator) Calculate(trip *Trip, report *DriverTripReport, card *RateCard) (PayBreakdown, error) {
	breakdown := PayBreakdown{RateCardID: card.ID}

	switch card.Method {
	case MethodPerMile:
		basis, ok := card.Basis.(PerMileBasis)
		if !ok {
			return PayBreakdown{}, fmt.Errorf("rate card %s: basis does not match PER_MILE method", card.ID)
		}
		if trip.Miles == nil {
			return PayBreakdown{}, &InsufficientDataError{TripID: trip.ID, Missing: "mileage"}
		}
		rate := basis.RateForConfig(trip.TrailerConfig)
		pay := rate.Mul(*trip.Miles).Clamp(basis.MinPay, basis.MaxPay)
		breakdown.MileagePay = pay

	case MethodFlatRate:
		basis, ok := card.Basis.(FlatRateBasis)
		if !ok {
			return PayBreakdown{}, fmt.Errorf("rate card %s: basis does not match FLAT_RATE method", card.ID)
		}
		breakdown.BasePay = basis.TripAmount()

	case MethodHourly:
		basis, ok := card.Basis.(HourlyBasis)
		if !ok {
			return PayBreakdown{}, fmt.Errorf("rate card %s: basis does not match HOURLY method", card.ID)
		}
		if trip.WorkHours == nil {
			return PayBreakdown{}, &InsufficientDataError{TripID: trip.ID, Missing: "work hours"}
		}
		pay := basis.PerWorkHour.Mul(*trip.WorkHours)
		if trip.StopHours != nil {
			pay = pay.Add(basis.PerStopHour.Mul(*trip.StopHours))
		}
		breakdown.BasePay = pay

	case MethodPercentage:
		basis, ok := card.Basis.(PercentageBasis)
		if !ok {
			return PayBreakdown{}, fmt.Errorf("rate card %s: basis does not match PERCENTAGE method", card.ID)
		}
		if trip.LinkedRevenue == nil {
			return PayBreakdown{}, &InsufficientDataError{TripID: trip.ID, Missing: "linked revenue"}
		}
		breakdown.BasePay = trip.LinkedRevenue.Mul(basis.Percent).Div(hundred)

	default:
		return PayBreakdown{}, fmt.Errorf("rate card %s: unknown rate method %q", card.ID, card.Method)
	}

	breakdown.AccessorialPay = c.accessorialPay(trip, report, card, breakdown)

	return breakdown, nil
}

// accessorialPay sums the per-unit add-on terms. Unset terms contribute zero.
func (c *Calculator) accessorialPay(trip *Trip, report *DriverTripReport, card *RateCard, partial PayBreakdown) Money {
	total := ZeroMoney()
	terms := card.Accessorials

	if report.DropAndHookCount > 0 {
		if rate := terms.DropHookForConfig(trip.TrailerConfig); rate != nil {
			total = total.Add(rate.Mul(decimal.NewFromInt(int64(report.DropAndHookCount))))
		}
	}

	if report.ChainUpCycles > 0 && terms.PerChainUp != nil {
		total = total.Add(terms.PerChainUp.Mul(decimal.NewFromInt(int64(report.ChainUpCycles))))
	}

	// Unreasoned wait time is excluded outright: the capture workflow should
	// have rejected it, but the calculator never pays it either way.
	if report.WaitTimeReason != "" && terms.PerWaitHour != nil {
		mins := report.WaitMinutes()
		if mins.IsPositive() {
			total = total.Add(terms.PerWaitHour.Mul(mins.Div(sixty)))
		}
	}

	if terms.FuelSurchargePct != nil {
		base := partial.BasePay.Add(partial.MileagePay)
		total = total.Add(base.Mul(*terms.FuelSurchargePct).Div(hundred))
	}

	return total
}
