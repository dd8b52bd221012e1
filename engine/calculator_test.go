package engine_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/freightline/pay-engine/engine"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func dec(s string) *decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return &d
}

func moneyPtr(s string) *engine.Money {
	m := engine.MustParseMoney(s)
	return &m
}

func singleTrip(miles string) *engine.Trip {
	return &engine.Trip{
		ID:            "trip-1",
		DriverID:      "drv-1",
		DispatchDate:  engine.NewDate(2026, time.August, 24),
		TrailerConfig: engine.TrailerSingle,
		Miles:         dec(miles),
	}
}

func emptyReport() *engine.DriverTripReport {
	return &engine.DriverTripReport{TripID: "trip-1"}
}

func assertMoney(t *testing.T, got engine.Money, want string, label string) {
	t.Helper()
	if got.String() != want {
		t.Errorf("%s: expected %s, got %s", label, want, got.String())
	}
}

// =============================================================================
// PER-MILE TESTS
// =============================================================================

func TestCalculate_PerMile(t *testing.T) {
	// GIVEN: A per-mile card at 2.35/mile and a 420-mile single trip
	// WHEN: Calculating
	// THEN: MileagePay is 987.00, BasePay stays zero

	card := perMileCard("rc-1", engine.RateTypeDefault, jan1())
	card.Basis = engine.PerMileBasis{PerSingleMile: engine.MustParseMoney("2.35")}

	calc := &engine.Calculator{}
	breakdown, err := calc.Calculate(singleTrip("420"), emptyReport(), card)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	assertMoney(t, breakdown.MileagePay, "987.00", "MileagePay")
	assertMoney(t, breakdown.BasePay, "0.00", "BasePay")
	assertMoney(t, breakdown.TotalGross(), "987.00", "TotalGross")
}

func TestCalculate_PerMile_TrailerConfigSelectsRate(t *testing.T) {
	// GIVEN: A card with distinct single/double/triple mile rates
	// WHEN: Calculating a 100-mile trip per configuration
	// THEN: Each configuration picks its own rate

	card := perMileCard("rc-1", engine.RateTypeDefault, jan1())
	calc := &engine.Calculator{}

	cases := []struct {
		config engine.TrailerConfig
		want   string
	}{
		{engine.TrailerSingle, "58.50"},
		{engine.TrailerDouble, "62.00"},
		{engine.TrailerTriple, "70.00"},
	}
	for _, tc := range cases {
		trip := singleTrip("100")
		trip.TrailerConfig = tc.config

		breakdown, err := calc.Calculate(trip, emptyReport(), card)
		if err != nil {
			t.Fatalf("Calculate(%s) failed: %v", tc.config, err)
		}
		assertMoney(t, breakdown.MileagePay, tc.want, string(tc.config))
	}
}

func TestCalculate_PerMile_MinPayClamp(t *testing.T) {
	// GIVEN: A per-mile card with a 150.00 minimum
	// WHEN: A short trip computes below the minimum
	// THEN: MileagePay is clamped up to 150.00

	card := perMileCard("rc-1", engine.RateTypeDefault, jan1())
	card.Basis = engine.PerMileBasis{
		PerSingleMile: engine.MustParseMoney("0.585"),
		MinPay:        moneyPtr("150.00"),
	}

	calc := &engine.Calculator{}
	breakdown, err := calc.Calculate(singleTrip("40"), emptyReport(), card)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	assertMoney(t, breakdown.MileagePay, "150.00", "MileagePay")
}

func TestCalculate_PerMile_MaxPayClamp(t *testing.T) {
	// GIVEN: A per-mile card with a 500.00 maximum
	// WHEN: A long trip computes above the maximum
	// THEN: MileagePay is clamped down to 500.00

	card := perMileCard("rc-1", engine.RateTypeDefault, jan1())
	card.Basis = engine.PerMileBasis{
		PerSingleMile: engine.MustParseMoney("0.585"),
		MaxPay:        moneyPtr("500.00"),
	}

	calc := &engine.Calculator{}
	breakdown, err := calc.Calculate(singleTrip("2000"), emptyReport(), card)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	assertMoney(t, breakdown.MileagePay, "500.00", "MileagePay")
}

func TestCalculate_PerMile_MissingMilesIsAnError(t *testing.T) {
	// GIVEN: A per-mile card and a trip with no recorded mileage
	// WHEN: Calculating
	// THEN: InsufficientData, never a zero-mile computation

	card := perMileCard("rc-1", engine.RateTypeDefault, jan1())
	trip := singleTrip("100")
	trip.Miles = nil

	calc := &engine.Calculator{}
	_, err := calc.Calculate(trip, emptyReport(), card)
	if !errors.Is(err, engine.ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}
}

// =============================================================================
// OTHER BASE METHODS
// =============================================================================

func TestCalculate_FlatRate(t *testing.T) {
	// GIVEN: A flat-rate card at 425.00
	// WHEN: Calculating trips of any length
	// THEN: BasePay is 425.00 regardless of mileage

	card := perMileCard("rc-1", engine.RateTypeDefault, jan1())
	card.Method = engine.MethodFlatRate
	card.Basis = engine.FlatRateBasis{Amount: engine.MustParseMoney("425.00")}

	calc := &engine.Calculator{}
	for _, miles := range []string{"10", "1200"} {
		breakdown, err := calc.Calculate(singleTrip(miles), emptyReport(), card)
		if err != nil {
			t.Fatalf("Calculate failed: %v", err)
		}
		assertMoney(t, breakdown.BasePay, "425.00", "BasePay at "+miles+" miles")
	}
}

func TestCalculate_Hourly(t *testing.T) {
	// GIVEN: An hourly card at 34.00/work hour and 17.00/stop hour
	// WHEN: Calculating 8 work hours and 1.5 stop hours
	// THEN: BasePay is 272.00 + 25.50 = 297.50

	card := perMileCard("rc-1", engine.RateTypeDefault, jan1())
	card.Method = engine.MethodHourly
	card.Basis = engine.HourlyBasis{
		PerWorkHour: engine.MustParseMoney("34.00"),
		PerStopHour: engine.MustParseMoney("17.00"),
	}

	trip := singleTrip("100")
	trip.WorkHours = dec("8")
	trip.StopHours = dec("1.5")

	calc := &engine.Calculator{}
	breakdown, err := calc.Calculate(trip, emptyReport(), card)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	assertMoney(t, breakdown.BasePay, "297.50", "BasePay")
}

func TestCalculate_Hourly_MissingHoursIsAnError(t *testing.T) {
	// GIVEN: An hourly card and a trip with no work hours
	// WHEN: Calculating
	// THEN: InsufficientData

	card := perMileCard("rc-1", engine.RateTypeDefault, jan1())
	card.Method = engine.MethodHourly
	card.Basis = engine.HourlyBasis{PerWorkHour: engine.MustParseMoney("34.00")}

	calc := &engine.Calculator{}
	_, err := calc.Calculate(singleTrip("100"), emptyReport(), card)
	if !errors.Is(err, engine.ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}
}

func TestCalculate_Percentage(t *testing.T) {
	// GIVEN: A 68% revenue-share card and 1500.00 of linked revenue
	// WHEN: Calculating
	// THEN: BasePay is 1020.00

	card := perMileCard("rc-1", engine.RateTypeDefault, jan1())
	card.Method = engine.MethodPercentage
	card.Basis = engine.PercentageBasis{Percent: *dec("68")}

	trip := singleTrip("100")
	revenue := engine.MustParseMoney("1500.00")
	trip.LinkedRevenue = &revenue

	calc := &engine.Calculator{}
	breakdown, err := calc.Calculate(trip, emptyReport(), card)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	assertMoney(t, breakdown.BasePay, "1020.00", "BasePay")
}

func TestCalculate_Percentage_MissingRevenueIsAnError(t *testing.T) {
	// GIVEN: A percentage card and a trip with no linked revenue
	// WHEN: Calculating
	// THEN: InsufficientData

	card := perMileCard("rc-1", engine.RateTypeDefault, jan1())
	card.Method = engine.MethodPercentage
	card.Basis = engine.PercentageBasis{Percent: *dec("68")}

	calc := &engine.Calculator{}
	_, err := calc.Calculate(singleTrip("100"), emptyReport(), card)
	if !errors.Is(err, engine.ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}
}

// =============================================================================
// ACCESSORIAL TESTS
// =============================================================================

func TestCalculate_DropHookAndChainUp(t *testing.T) {
	// GIVEN: A card paying 25.00/drop-hook and 40.00/chain-up
	// WHEN: The driver reports 2 drop-hooks and 1 chain-up cycle
	// THEN: AccessorialPay is 90.00 on top of mileage pay

	card := perMileCard("rc-1", engine.RateTypeDefault, jan1())
	card.Accessorials = engine.AccessorialTerms{
		PerSingleDropHook: moneyPtr("25.00"),
		PerChainUp:        moneyPtr("40.00"),
	}

	report := emptyReport()
	report.DropAndHookCount = 2
	report.ChainUpCycles = 1

	calc := &engine.Calculator{}
	breakdown, err := calc.Calculate(singleTrip("100"), report, card)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	assertMoney(t, breakdown.AccessorialPay, "90.00", "AccessorialPay")
	assertMoney(t, breakdown.TotalGross(), "148.50", "TotalGross")
}

func TestCalculate_WaitTimeRequiresReason(t *testing.T) {
	// GIVEN: A card paying 22.50/wait hour and 90 reported wait minutes
	// WHEN: Calculating with and without a wait reason
	// THEN: Reasoned wait pays 33.75; unreasoned wait pays nothing

	card := perMileCard("rc-1", engine.RateTypeDefault, jan1())
	card.Accessorials = engine.AccessorialTerms{PerWaitHour: moneyPtr("22.50")}

	start := time.Date(2026, 8, 24, 14, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)

	report := emptyReport()
	report.WaitTimeStart = &start
	report.WaitTimeEnd = &end
	report.WaitTimeReason = "dock congestion"

	calc := &engine.Calculator{}
	breakdown, err := calc.Calculate(singleTrip("100"), report, card)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	assertMoney(t, breakdown.AccessorialPay, "33.75", "reasoned wait")

	report.WaitTimeReason = ""
	breakdown, err = calc.Calculate(singleTrip("100"), report, card)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	assertMoney(t, breakdown.AccessorialPay, "0.00", "unreasoned wait")
}

func TestCalculate_FuelSurcharge(t *testing.T) {
	// GIVEN: A per-mile card with a 10% fuel surcharge
	// WHEN: Calculating a 100-mile trip at 0.585/mile
	// THEN: The surcharge is 10% of mileage pay

	card := perMileCard("rc-1", engine.RateTypeDefault, jan1())
	card.Accessorials = engine.AccessorialTerms{FuelSurchargePct: dec("10")}

	calc := &engine.Calculator{}
	breakdown, err := calc.Calculate(singleTrip("100"), emptyReport(), card)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	assertMoney(t, breakdown.MileagePay, "58.50", "MileagePay")
	assertMoney(t, breakdown.AccessorialPay, "5.85", "AccessorialPay")
}

func TestCalculate_UnsetTermsContributeZero(t *testing.T) {
	// GIVEN: A card with no accessorial terms at all
	// WHEN: The driver reports drop-hooks and chain-ups
	// THEN: AccessorialPay is zero; absent terms are not an error

	card := perMileCard("rc-1", engine.RateTypeDefault, jan1())

	report := emptyReport()
	report.DropAndHookCount = 3
	report.ChainUpCycles = 2

	calc := &engine.Calculator{}
	breakdown, err := calc.Calculate(singleTrip("100"), report, card)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	assertMoney(t, breakdown.AccessorialPay, "0.00", "AccessorialPay")
}

func TestCalculate_IsIdempotent(t *testing.T) {
	// GIVEN: One card and one set of trip facts
	// WHEN: Calculating twice
	// THEN: Both breakdowns are identical

	card := perMileCard("rc-1", engine.RateTypeDefault, jan1())
	card.Accessorials = engine.AccessorialTerms{PerSingleDropHook: moneyPtr("25.00")}

	report := emptyReport()
	report.DropAndHookCount = 1

	calc := &engine.Calculator{}
	first, err := calc.Calculate(singleTrip("420"), report, card)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	second, err := calc.Calculate(singleTrip("420"), report, card)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	if first.TotalGross().String() != second.TotalGross().String() {
		t.Errorf("Expected identical totals, got %s and %s",
			first.TotalGross(), second.TotalGross())
	}
}
