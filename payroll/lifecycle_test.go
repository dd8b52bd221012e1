package payroll_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/freightline/pay-engine/engine"
	"github.com/freightline/pay-engine/payroll"
)

// =============================================================================
// TRIP PAY STATE MACHINE
// =============================================================================

func TestTripPayTransitions_HappyPath(t *testing.T) {
	// GIVEN: The trip pay lifecycle
	// WHEN: Walking PENDING -> CALCULATED -> REVIEWED -> APPROVED -> PAID
	// THEN: Every step is legal

	path := []payroll.TripPayStatus{
		payroll.PayPending, payroll.PayCalculated, payroll.PayReviewed,
		payroll.PayApproved, payroll.PayPaid,
	}
	for i := 0; i < len(path)-1; i++ {
		assert.True(t, payroll.CanTransitionTripPay(path[i], path[i+1]),
			"%s -> %s should be legal", path[i], path[i+1])
	}
}

func TestTripPayTransitions_NoSkipping(t *testing.T) {
	// GIVEN: The trip pay lifecycle
	// WHEN: Trying to skip intermediate states
	// THEN: Every skip is illegal

	illegal := []struct{ from, to payroll.TripPayStatus }{
		{payroll.PayPending, payroll.PayApproved},
		{payroll.PayPending, payroll.PayReviewed},
		{payroll.PayPending, payroll.PayPaid},
		{payroll.PayCalculated, payroll.PayApproved},
		{payroll.PayCalculated, payroll.PayPaid},
		{payroll.PayReviewed, payroll.PayPaid},
	}
	for _, tc := range illegal {
		assert.False(t, payroll.CanTransitionTripPay(tc.from, tc.to),
			"%s -> %s should be illegal", tc.from, tc.to)
	}
}

func TestTripPayTransitions_Dispute(t *testing.T) {
	// GIVEN: The trip pay lifecycle
	// WHEN: Disputing from each state
	// THEN: CALCULATED/REVIEWED/APPROVED can dispute; PENDING/PAID cannot,
	//       and DISPUTED only goes back to CALCULATED

	assert.True(t, payroll.CanTransitionTripPay(payroll.PayCalculated, payroll.PayDisputed))
	assert.True(t, payroll.CanTransitionTripPay(payroll.PayReviewed, payroll.PayDisputed))
	assert.True(t, payroll.CanTransitionTripPay(payroll.PayApproved, payroll.PayDisputed))

	assert.False(t, payroll.CanTransitionTripPay(payroll.PayPending, payroll.PayDisputed))
	assert.False(t, payroll.CanTransitionTripPay(payroll.PayPaid, payroll.PayDisputed))

	assert.True(t, payroll.CanTransitionTripPay(payroll.PayDisputed, payroll.PayCalculated))
	assert.False(t, payroll.CanTransitionTripPay(payroll.PayDisputed, payroll.PayApproved))
	assert.False(t, payroll.CanTransitionTripPay(payroll.PayDisputed, payroll.PayPaid))
}

func TestTripPayTransitions_PaidIsTerminal(t *testing.T) {
	// GIVEN: A PAID record
	// WHEN: Trying any transition
	// THEN: All are illegal

	targets := []payroll.TripPayStatus{
		payroll.PayPending, payroll.PayCalculated, payroll.PayReviewed,
		payroll.PayApproved, payroll.PayDisputed,
	}
	for _, target := range targets {
		assert.False(t, payroll.CanTransitionTripPay(payroll.PayPaid, target),
			"PAID -> %s should be illegal", target)
	}
}

// =============================================================================
// PAY PERIOD STATE MACHINE
// =============================================================================

func TestPayPeriodTransitions_StrictlySequential(t *testing.T) {
	// GIVEN: The pay period lifecycle
	// WHEN: Walking forward, skipping, and reopening
	// THEN: Only the single-step forward moves are legal

	assert.True(t, payroll.CanTransitionPayPeriod(payroll.PeriodOpen, payroll.PeriodClosed))
	assert.True(t, payroll.CanTransitionPayPeriod(payroll.PeriodClosed, payroll.PeriodLocked))
	assert.True(t, payroll.CanTransitionPayPeriod(payroll.PeriodLocked, payroll.PeriodExported))

	// No skipping
	assert.False(t, payroll.CanTransitionPayPeriod(payroll.PeriodOpen, payroll.PeriodLocked))
	assert.False(t, payroll.CanTransitionPayPeriod(payroll.PeriodOpen, payroll.PeriodExported))
	assert.False(t, payroll.CanTransitionPayPeriod(payroll.PeriodClosed, payroll.PeriodExported))

	// No reopening
	assert.False(t, payroll.CanTransitionPayPeriod(payroll.PeriodClosed, payroll.PeriodOpen))
	assert.False(t, payroll.CanTransitionPayPeriod(payroll.PeriodLocked, payroll.PeriodClosed))
	assert.False(t, payroll.CanTransitionPayPeriod(payroll.PeriodExported, payroll.PeriodLocked))
}

// =============================================================================
// ERROR TYPE
// =============================================================================

func TestInvalidTransitionError_Unwraps(t *testing.T) {
	// GIVEN: A transition error
	// WHEN: Checking it against the sentinel
	// THEN: errors.Is matches and the message names both states

	err := &payroll.InvalidTransitionError{
		Record: "trip pay", ID: "tp-1",
		From: "PENDING", To: "APPROVED",
		Reason: "uncomputed pay cannot be approved",
	}
	assert.True(t, errors.Is(err, engine.ErrInvalidTransition))
	assert.Contains(t, err.Error(), "PENDING")
	assert.Contains(t, err.Error(), "APPROVED")
	assert.Contains(t, err.Error(), "uncomputed pay cannot be approved")
}

// =============================================================================
// DERIVED TOTAL
// =============================================================================

func TestTripPay_TotalGrossIsDerived(t *testing.T) {
	// GIVEN: A trip pay with every component set
	// WHEN: Reading the gross total
	// THEN: It is base + mileage + accessorial + bonus - deductions

	tp := &payroll.TripPay{
		BasePay:        engine.MustParseMoney("100.00"),
		MileagePay:     engine.MustParseMoney("245.70"),
		AccessorialPay: engine.MustParseMoney("50.00"),
		BonusPay:       engine.MustParseMoney("25.00"),
		Deductions:     engine.MustParseMoney("10.00"),
	}
	assert.Equal(t, "410.70", tp.TotalGross().String())
}
