package payroll_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freightline/pay-engine/engine"
	"github.com/freightline/pay-engine/engine/store"
	"github.com/freightline/pay-engine/payroll"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type testEnv struct {
	service *payroll.Service
	catalog *store.MemoryCatalog
	trips   *store.MemoryTrips
	audit   *store.MemoryAuditLog
	period  *payroll.PayPeriod
}

// newTestEnv wires a service over memory stores with a default per-mile card
// and an open pay period covering August 2026.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	catalog := store.NewMemoryCatalog()
	trips := store.NewMemoryTrips()
	audit := store.NewMemoryAuditLog()
	service := payroll.NewService(catalog, trips,
		store.NewMemoryTripPays(), store.NewMemoryPayPeriods(),
		store.NewMemoryCutPays(), audit)

	card := &engine.RateCard{
		ID:     "rc-default",
		Type:   engine.RateTypeDefault,
		Method: engine.MethodPerMile,
		Basis: engine.PerMileBasis{
			PerSingleMile: engine.MustParseMoney("2.35"),
			PerDoubleMile: engine.MustParseMoney("2.50"),
			PerTripleMile: engine.MustParseMoney("2.70"),
		},
		CutPay: engine.CutPayTerms{
			PerWorkHour: func() *engine.Money { m := engine.MustParseMoney("28.00"); return &m }(),
		},
		Active:        true,
		EffectiveDate: engine.NewDate(2026, time.January, 1),
	}
	require.NoError(t, catalog.SaveCard(ctx, card))

	period, err := service.CreatePayPeriod(ctx, engine.DateWindow{
		Start: engine.NewDate(2026, time.August, 1),
		End:   engine.NewDate(2026, time.August, 31),
	})
	require.NoError(t, err)

	return &testEnv{service: service, catalog: catalog, trips: trips, audit: audit, period: period}
}

// addTrip saves a reported single-config trip dispatched in the open period.
func (e *testEnv) addTrip(t *testing.T, id string, miles int64) *engine.Trip {
	t.Helper()
	ctx := context.Background()

	m := decimal.NewFromInt(miles)
	trip := &engine.Trip{
		ID:            engine.TripID(id),
		DriverID:      "drv-1",
		DispatchDate:  engine.NewDate(2026, time.August, 10),
		TrailerConfig: engine.TrailerSingle,
		Miles:         &m,
	}
	require.NoError(t, e.trips.SaveTrip(ctx, trip))
	require.NoError(t, e.trips.SaveTripReport(ctx, &engine.DriverTripReport{
		TripID: trip.ID, Verified: true, PayApproved: true,
	}))
	return trip
}

// =============================================================================
// CALCULATION
// =============================================================================

func TestCalculateTripPay_CreatesCalculatedRecord(t *testing.T) {
	// GIVEN: A reported 420-mile trip and a 2.35/mile default card
	// WHEN: Calculating
	// THEN: A CALCULATED record with 987.00 mileage pay lands in the period

	env := newTestEnv(t)
	env.addTrip(t, "trip-1", 420)

	tp, err := env.service.CalculateTripPay(context.Background(), "trip-1")
	require.NoError(t, err)

	assert.Equal(t, payroll.PayCalculated, tp.Status)
	assert.Equal(t, "987.00", tp.MileagePay.String())
	assert.Equal(t, "987.00", tp.TotalGross().String())
	assert.Equal(t, engine.RateCardID("rc-default"), tp.RateCardID)
	assert.Equal(t, env.period.ID, tp.PayPeriodID)
	assert.NotNil(t, tp.CalculatedAt)
}

func TestCalculateTripPay_RecalculateKeepsOneRecord(t *testing.T) {
	// GIVEN: A trip already calculated
	// WHEN: Calculating again after the trip's mileage was corrected
	// THEN: The same record is updated in place, no duplicate is created

	env := newTestEnv(t)
	trip := env.addTrip(t, "trip-1", 420)
	ctx := context.Background()

	first, err := env.service.CalculateTripPay(ctx, "trip-1")
	require.NoError(t, err)

	corrected := decimal.NewFromInt(500)
	trip.Miles = &corrected
	require.NoError(t, env.trips.SaveTrip(ctx, trip))

	second, err := env.service.CalculateTripPay(ctx, "trip-1")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "1175.00", second.MileagePay.String())

	pays, err := env.service.Pays.ListTripPays(ctx, env.period.ID)
	require.NoError(t, err)
	assert.Len(t, pays, 1)
}

func TestCalculateTripPay_UnreportedTripFails(t *testing.T) {
	// GIVEN: A trip with no driver trip report
	// WHEN: Calculating
	// THEN: The trip report error surfaces; no record is created

	env := newTestEnv(t)
	ctx := context.Background()

	m := decimal.NewFromInt(100)
	trip := &engine.Trip{
		ID: "trip-unreported", DriverID: "drv-1",
		DispatchDate:  engine.NewDate(2026, time.August, 10),
		TrailerConfig: engine.TrailerSingle,
		Miles:         &m,
	}
	require.NoError(t, env.trips.SaveTrip(ctx, trip))

	_, err := env.service.CalculateTripPay(ctx, "trip-unreported")
	assert.ErrorIs(t, err, engine.ErrInvalidTripReport)

	pays, err := env.service.Pays.ListTripPays(ctx, env.period.ID)
	require.NoError(t, err)
	assert.Empty(t, pays)
}

func TestCalculateTripPay_DispatchOutsideWindowFails(t *testing.T) {
	// GIVEN: A trip dispatched before the open period's window
	// WHEN: Calculating
	// THEN: The calculation is rejected

	env := newTestEnv(t)
	ctx := context.Background()

	m := decimal.NewFromInt(100)
	trip := &engine.Trip{
		ID: "trip-july", DriverID: "drv-1",
		DispatchDate:  engine.NewDate(2026, time.July, 20),
		TrailerConfig: engine.TrailerSingle,
		Miles:         &m,
	}
	require.NoError(t, env.trips.SaveTrip(ctx, trip))
	require.NoError(t, env.trips.SaveTripReport(ctx, &engine.DriverTripReport{TripID: trip.ID}))

	_, err := env.service.CalculateTripPay(ctx, "trip-july")
	assert.Error(t, err)
}

// =============================================================================
// TRANSITIONS
// =============================================================================

func TestTransitionTripPay_ReviewAndApproveStamps(t *testing.T) {
	// GIVEN: A calculated trip pay
	// WHEN: Reviewing then approving with named actors
	// THEN: Timestamps and actors are stamped at each step

	env := newTestEnv(t)
	env.addTrip(t, "trip-1", 420)
	ctx := context.Background()

	tp, err := env.service.CalculateTripPay(ctx, "trip-1")
	require.NoError(t, err)

	tp, err = env.service.TransitionTripPay(ctx, tp.ID, payroll.PayReviewed, "reviewer-1", "")
	require.NoError(t, err)
	assert.Equal(t, payroll.PayReviewed, tp.Status)
	assert.Equal(t, "reviewer-1", tp.ReviewedBy)
	assert.NotNil(t, tp.ReviewedAt)

	tp, err = env.service.TransitionTripPay(ctx, tp.ID, payroll.PayApproved, "manager-1", "")
	require.NoError(t, err)
	assert.Equal(t, payroll.PayApproved, tp.Status)
	assert.Equal(t, "manager-1", tp.ApprovedBy)
	assert.NotNil(t, tp.ApprovedAt)
}

func TestTransitionTripPay_SkippingIsRejected(t *testing.T) {
	// GIVEN: A calculated trip pay
	// WHEN: Jumping straight to APPROVED
	// THEN: Invalid transition

	env := newTestEnv(t)
	env.addTrip(t, "trip-1", 420)
	ctx := context.Background()

	tp, err := env.service.CalculateTripPay(ctx, "trip-1")
	require.NoError(t, err)

	_, err = env.service.TransitionTripPay(ctx, tp.ID, payroll.PayApproved, "manager-1", "")
	assert.ErrorIs(t, err, engine.ErrInvalidTransition)
}

func TestTransitionTripPay_DisputeRequiresNote(t *testing.T) {
	// GIVEN: A calculated trip pay
	// WHEN: Disputing without and then with a note
	// THEN: The noteless dispute is rejected, the noted one succeeds

	env := newTestEnv(t)
	env.addTrip(t, "trip-1", 420)
	ctx := context.Background()

	tp, err := env.service.CalculateTripPay(ctx, "trip-1")
	require.NoError(t, err)

	_, err = env.service.TransitionTripPay(ctx, tp.ID, payroll.PayDisputed, "drv-1", "")
	assert.ErrorIs(t, err, engine.ErrInvalidTransition)

	tp, err = env.service.TransitionTripPay(ctx, tp.ID, payroll.PayDisputed, "drv-1", "mileage looks short")
	require.NoError(t, err)
	assert.Equal(t, payroll.PayDisputed, tp.Status)
}

func TestTransitionTripPay_DisputeResolutionRecomputes(t *testing.T) {
	// GIVEN: A disputed trip pay whose trip mileage was since corrected
	// WHEN: Moving DISPUTED -> CALCULATED
	// THEN: The record carries the freshly computed amounts

	env := newTestEnv(t)
	trip := env.addTrip(t, "trip-1", 420)
	ctx := context.Background()

	tp, err := env.service.CalculateTripPay(ctx, "trip-1")
	require.NoError(t, err)
	assert.Equal(t, "987.00", tp.MileagePay.String())

	_, err = env.service.TransitionTripPay(ctx, tp.ID, payroll.PayDisputed, "drv-1", "mileage short")
	require.NoError(t, err)

	corrected := decimal.NewFromInt(460)
	trip.Miles = &corrected
	require.NoError(t, env.trips.SaveTrip(ctx, trip))

	tp, err = env.service.TransitionTripPay(ctx, tp.ID, payroll.PayCalculated, "reviewer-1", "corrected odometer")
	require.NoError(t, err)
	assert.Equal(t, payroll.PayCalculated, tp.Status)
	assert.Equal(t, "1081.00", tp.MileagePay.String())
}

func TestTransitionTripPay_PaidBlockedWhileOpen(t *testing.T) {
	// GIVEN: An approved trip pay in an OPEN period
	// WHEN: Manually moving it to PAID
	// THEN: Rejected; PAID belongs to the export step

	env := newTestEnv(t)
	env.addTrip(t, "trip-1", 420)
	ctx := context.Background()

	tp, err := env.service.CalculateTripPay(ctx, "trip-1")
	require.NoError(t, err)
	_, err = env.service.TransitionTripPay(ctx, tp.ID, payroll.PayReviewed, "r", "")
	require.NoError(t, err)
	_, err = env.service.TransitionTripPay(ctx, tp.ID, payroll.PayApproved, "m", "")
	require.NoError(t, err)

	_, err = env.service.TransitionTripPay(ctx, tp.ID, payroll.PayPaid, "m", "")
	assert.ErrorIs(t, err, engine.ErrInvalidTransition)
}

// =============================================================================
// ADJUSTMENTS
// =============================================================================

func TestAdjustTripPay_ChangesGrossTotal(t *testing.T) {
	// GIVEN: A calculated trip pay of 987.00
	// WHEN: A reviewer adds a 50.00 bonus and a 12.00 deduction
	// THEN: The gross total reflects both, and a recompute preserves them

	env := newTestEnv(t)
	env.addTrip(t, "trip-1", 420)
	ctx := context.Background()

	tp, err := env.service.CalculateTripPay(ctx, "trip-1")
	require.NoError(t, err)

	tp, err = env.service.AdjustTripPay(ctx, tp.ID,
		engine.MustParseMoney("50.00"), engine.MustParseMoney("12.00"),
		"reviewer-1", "detention bonus, fuel card deduction")
	require.NoError(t, err)
	assert.Equal(t, "1025.00", tp.TotalGross().String())

	// Recompute keeps reviewer inputs
	tp, err = env.service.CalculateTripPay(ctx, "trip-1")
	require.NoError(t, err)
	assert.Equal(t, "50.00", tp.BonusPay.String())
	assert.Equal(t, "12.00", tp.Deductions.String())
	assert.Equal(t, "1025.00", tp.TotalGross().String())
}

// =============================================================================
// PERIOD LIFECYCLE
// =============================================================================

func TestPayPeriod_ClosedBlocksCreationAllowsTransitions(t *testing.T) {
	// GIVEN: A period with one calculated pay, then closed
	// WHEN: Creating a new pay and transitioning the existing one
	// THEN: Creation is rejected, review/approve still work

	env := newTestEnv(t)
	env.addTrip(t, "trip-1", 420)
	env.addTrip(t, "trip-2", 300)
	ctx := context.Background()

	tp, err := env.service.CalculateTripPay(ctx, "trip-1")
	require.NoError(t, err)

	_, err = env.service.TransitionPayPeriod(ctx, env.period.ID, payroll.PeriodClosed)
	require.NoError(t, err)

	// trip-2 has no record yet; closing blocks its creation
	_, err = env.service.CalculateTripPay(ctx, "trip-2")
	assert.Error(t, err)

	// the existing record still progresses
	_, err = env.service.TransitionTripPay(ctx, tp.ID, payroll.PayReviewed, "r", "")
	require.NoError(t, err)
	_, err = env.service.TransitionTripPay(ctx, tp.ID, payroll.PayApproved, "m", "")
	require.NoError(t, err)
}

func TestPayPeriod_LockedAllowsOnlyPaid(t *testing.T) {
	// GIVEN: A locked period with one approved and one calculated pay
	// WHEN: Transitioning each
	// THEN: APPROVED -> PAID succeeds, every other move is rejected

	env := newTestEnv(t)
	env.addTrip(t, "trip-1", 420)
	env.addTrip(t, "trip-2", 300)
	ctx := context.Background()

	approved, err := env.service.CalculateTripPay(ctx, "trip-1")
	require.NoError(t, err)
	_, err = env.service.TransitionTripPay(ctx, approved.ID, payroll.PayReviewed, "r", "")
	require.NoError(t, err)
	_, err = env.service.TransitionTripPay(ctx, approved.ID, payroll.PayApproved, "m", "")
	require.NoError(t, err)

	calculated, err := env.service.CalculateTripPay(ctx, "trip-2")
	require.NoError(t, err)

	_, err = env.service.TransitionPayPeriod(ctx, env.period.ID, payroll.PeriodClosed)
	require.NoError(t, err)
	_, err = env.service.TransitionPayPeriod(ctx, env.period.ID, payroll.PeriodLocked)
	require.NoError(t, err)

	_, err = env.service.TransitionTripPay(ctx, calculated.ID, payroll.PayReviewed, "r", "")
	assert.ErrorIs(t, err, engine.ErrInvalidTransition)

	paid, err := env.service.TransitionTripPay(ctx, approved.ID, payroll.PayPaid, "m", "")
	require.NoError(t, err)
	assert.Equal(t, payroll.PayPaid, paid.Status)
	assert.NotNil(t, paid.PaidAt)

	// Locked also freezes numeric mutation
	_, err = env.service.AdjustTripPay(ctx, calculated.ID,
		engine.MustParseMoney("1.00"), engine.ZeroMoney(), "r", "")
	assert.ErrorIs(t, err, engine.ErrInvalidTransition)
}

func TestPayPeriod_ExportPaysApprovedAndAssignsBatch(t *testing.T) {
	// GIVEN: A locked period with one approved and one disputed pay
	// WHEN: Exporting
	// THEN: The approved pay becomes PAID, the disputed one is untouched,
	//       and the period carries an export batch id

	env := newTestEnv(t)
	env.addTrip(t, "trip-1", 420)
	env.addTrip(t, "trip-2", 300)
	ctx := context.Background()

	approved, err := env.service.CalculateTripPay(ctx, "trip-1")
	require.NoError(t, err)
	_, err = env.service.TransitionTripPay(ctx, approved.ID, payroll.PayReviewed, "r", "")
	require.NoError(t, err)
	_, err = env.service.TransitionTripPay(ctx, approved.ID, payroll.PayApproved, "m", "")
	require.NoError(t, err)

	disputed, err := env.service.CalculateTripPay(ctx, "trip-2")
	require.NoError(t, err)
	_, err = env.service.TransitionTripPay(ctx, disputed.ID, payroll.PayDisputed, "drv-1", "rate wrong")
	require.NoError(t, err)

	_, err = env.service.TransitionPayPeriod(ctx, env.period.ID, payroll.PeriodClosed)
	require.NoError(t, err)
	_, err = env.service.TransitionPayPeriod(ctx, env.period.ID, payroll.PeriodLocked)
	require.NoError(t, err)
	period, err := env.service.TransitionPayPeriod(ctx, env.period.ID, payroll.PeriodExported)
	require.NoError(t, err)

	assert.Equal(t, payroll.PeriodExported, period.Status)
	assert.NotEmpty(t, period.ExportBatchID)
	assert.NotNil(t, period.ExportedAt)

	got, err := env.service.Pays.GetTripPay(ctx, approved.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.PayPaid, got.Status)
	assert.NotNil(t, got.PaidAt)

	got, err = env.service.Pays.GetTripPay(ctx, disputed.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.PayDisputed, got.Status)
}

func TestPayPeriod_SecondOpenPeriodRejected(t *testing.T) {
	// GIVEN: An open period
	// WHEN: Opening a second, non-overlapping period
	// THEN: Rejected; exactly one period may be OPEN

	env := newTestEnv(t)

	_, err := env.service.CreatePayPeriod(context.Background(), engine.DateWindow{
		Start: engine.NewDate(2026, time.September, 1),
		End:   engine.NewDate(2026, time.September, 30),
	})
	assert.Error(t, err)
}

// =============================================================================
// CUT PAY
// =============================================================================

func TestCalculateCutPay_RecordsInOpenPeriod(t *testing.T) {
	// GIVEN: A default card with a 28.00 cut-pay work-hour rate
	// WHEN: A driver requests 4 hours of cut pay
	// THEN: A 112.00 CALCULATED record lands in the open period

	env := newTestEnv(t)
	hours := decimal.NewFromInt(4)

	cp, err := env.service.CalculateCutPay(context.Background(), &engine.CutPayRequest{
		DriverID:       "drv-1",
		HoursRequested: &hours,
		TrailerConfig:  engine.TrailerDouble,
		ReasonCode:     "LOW_VOLUME",
		RequestDate:    engine.NewDate(2026, time.August, 12),
	})
	require.NoError(t, err)

	assert.Equal(t, "112.00", cp.BasePay.String())
	assert.Equal(t, payroll.PayCalculated, cp.Status)
	assert.Equal(t, env.period.ID, cp.PayPeriodID)
	assert.NotEmpty(t, cp.ID)
}

func TestCalculateCutPay_InvalidRequestRejected(t *testing.T) {
	// GIVEN: A request with neither hours nor miles
	// WHEN: Calculating
	// THEN: Rejected at the boundary

	env := newTestEnv(t)

	_, err := env.service.CalculateCutPay(context.Background(), &engine.CutPayRequest{
		DriverID:      "drv-1",
		TrailerConfig: engine.TrailerSingle,
		ReasonCode:    "WEATHER",
		RequestDate:   engine.NewDate(2026, time.August, 12),
	})
	assert.ErrorIs(t, err, engine.ErrInvalidCutPayRequest)
}

// =============================================================================
// AUDIT TRAIL
// =============================================================================

func TestAuditTrail_RecordsEveryMove(t *testing.T) {
	// GIVEN: A trip pay walked through calculate, dispute, and resolution
	// WHEN: Reading its audit trail
	// THEN: Entries exist for each move, in order, and are never overwritten

	env := newTestEnv(t)
	env.addTrip(t, "trip-1", 420)
	ctx := context.Background()

	tp, err := env.service.CalculateTripPay(ctx, "trip-1")
	require.NoError(t, err)
	_, err = env.service.TransitionTripPay(ctx, tp.ID, payroll.PayDisputed, "drv-1", "looks short")
	require.NoError(t, err)
	_, err = env.service.TransitionTripPay(ctx, tp.ID, payroll.PayCalculated, "reviewer-1", "verified")
	require.NoError(t, err)

	entries, err := env.audit.ByTripPay(ctx, tp.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, payroll.AuditCalculated, entries[0].Action)
	assert.Equal(t, payroll.AuditTransitioned, entries[1].Action)
	assert.Equal(t, "looks short", entries[1].Notes)
	assert.Equal(t, payroll.AuditRecalculated, entries[2].Action)
}

// =============================================================================
// CONCURRENCY
// =============================================================================

func TestTripPayStore_DuplicateCreateConflicts(t *testing.T) {
	// GIVEN: A trip pay already created for (trip, period)
	// WHEN: Creating a second record for the same key
	// THEN: The store reports a concurrent-modification conflict

	pays := store.NewMemoryTripPays()
	ctx := context.Background()

	first := &payroll.TripPay{
		ID: "tp-1", TripID: "trip-1", PayPeriodID: "period-1",
		DriverID: "drv-1", Status: payroll.PayCalculated,
	}
	require.NoError(t, pays.CreateTripPay(ctx, first))

	dup := &payroll.TripPay{
		ID: "tp-2", TripID: "trip-1", PayPeriodID: "period-1",
		DriverID: "drv-1", Status: payroll.PayCalculated,
	}
	err := pays.CreateTripPay(ctx, dup)
	assert.True(t, errors.Is(err, engine.ErrConcurrentModification))
}
