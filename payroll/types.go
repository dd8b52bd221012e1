// Package payroll implements the trip pay and pay period lifecycles on top
// of the core engine: computed pay records, their approval workflow, the
// batch window they belong to, and the bulk operations over that window.
package payroll

import (
	"time"

	"github.com/freightline/pay-engine/engine"
)

// =============================================================================
// TRIP PAY - Computed, auditable pay record for one trip in one period
// =============================================================================

// TripPay is the computed output of one trip's calculation. One TripPay
// exists per trip per pay period; recomputation replaces the pay components
// but the transition log (audit entries) is never rewritten.
type TripPay struct {
	ID          engine.TripPayID
	TripID      engine.TripID
	PayPeriodID engine.PayPeriodID
	DriverID    engine.DriverID
	RateCardID  engine.RateCardID

	BasePay        engine.Money
	MileagePay     engine.Money
	AccessorialPay engine.Money
	BonusPay       engine.Money
	Deductions     engine.Money

	Status TripPayStatus

	CalculatedAt *time.Time
	ReviewedAt   *time.Time
	ApprovedAt   *time.Time
	PaidAt       *time.Time
	ExportedAt   *time.Time

	ReviewedBy string
	ApprovedBy string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TotalGross is always derived from components, never hand-edited.
func (tp *TripPay) TotalGross() engine.Money {
	return tp.BasePay.
		Add(tp.MileagePay).
		Add(tp.AccessorialPay).
		Add(tp.BonusPay).
		Sub(tp.Deductions)
}

// ApplyBreakdown replaces the computed components from a fresh calculation.
// Bonus and deductions are reviewer inputs and survive recomputation.
func (tp *TripPay) ApplyBreakdown(b engine.PayBreakdown, at time.Time) {
	tp.RateCardID = b.RateCardID
	tp.BasePay = b.BasePay
	tp.MileagePay = b.MileagePay
	tp.AccessorialPay = b.AccessorialPay
	tp.CalculatedAt = &at
	tp.UpdatedAt = at
}

// =============================================================================
// PAY PERIOD - The batch window trip pays belong to
// =============================================================================

// PayPeriod is a non-overlapping date window owning a set of trip pays.
// Exactly one period may be OPEN at a time; a trip's dispatch date must fall
// within its period's window.
type PayPeriod struct {
	ID     engine.PayPeriodID
	Window engine.DateWindow
	Status PayPeriodStatus

	// ExportBatchID is assigned when the period transitions to EXPORTED.
	ExportBatchID string

	ClosedAt   *time.Time
	LockedAt   *time.Time
	ExportedAt *time.Time

	CreatedAt time.Time
}

// AllowsTripPayCreation reports whether arrival-driven record creation may
// happen in this period. Closing is a one-way gate that blocks the
// single-trip path but still permits status transitions up to APPROVED.
func (p *PayPeriod) AllowsTripPayCreation() bool {
	return p.Status == PeriodOpen
}

// AllowsRecalculation reports whether "calculate all" may run against this
// period, including creating records for trips that never got one. LOCKED
// and EXPORTED periods are frozen.
func (p *PayPeriod) AllowsRecalculation() bool {
	return p.Status == PeriodOpen || p.Status == PeriodClosed
}

// AllowsNumericMutation reports whether pay components may still change.
// LOCKED forbids numeric mutation; only transitions to PAID remain legal.
func (p *PayPeriod) AllowsNumericMutation() bool {
	return p.Status == PeriodOpen || p.Status == PeriodClosed
}

// =============================================================================
// CUT PAY - Non-driven compensation record
// =============================================================================

// CutPay is the computed record for an approved-to-calculate cut pay
// request. Its lifecycle mirrors TripPay's review states but it is a
// structurally separate record; the aggregation layer merges the two
// sources, not this package.
type CutPay struct {
	ID          engine.CutPayRequestID
	DriverID    engine.DriverID
	PayPeriodID engine.PayPeriodID
	RateCardID  engine.RateCardID

	HoursRequested string // decimal string, empty when miles-based
	MilesRequested string // decimal string, empty when hours-based
	TrailerConfig  engine.TrailerConfig
	ReasonCode     string
	Notes          string

	BasePay engine.Money
	Status  TripPayStatus

	CalculatedAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// =============================================================================
// BATCH RESULTS
// =============================================================================

// TripError pairs a failed trip with its error string for batch summaries.
type TripError struct {
	TripID engine.TripID
	Error  string
}

// CalculateAllResult is the per-item outcome summary of a batch calculation.
// Batches never abort on first error; the caller retries the failed subset.
type CalculateAllResult struct {
	Calculated int
	Failed     int
	Errors     []TripError
}

// TripPayError pairs a failed trip pay with its error string.
type TripPayError struct {
	TripPayID engine.TripPayID
	Error     string
}

// BulkApproveResult summarizes a bulk approval. Skipped records (already
// DISPUTED or PAID) are reported, never overwritten; failures carry a
// per-id error.
type BulkApproveResult struct {
	Approved int
	Failed   int
	Skipped  []engine.TripPayID
	Errors   []TripPayError
}

func (r *BulkApproveResult) fail(id engine.TripPayID, reason string) {
	r.Failed++
	r.Errors = append(r.Errors, TripPayError{TripPayID: id, Error: reason})
}
