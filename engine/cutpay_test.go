package engine_test

import (
	"errors"
	"testing"
	"time"

	"github.com/freightline/pay-engine/engine"
)

// =============================================================================
// VALIDATION TESTS
// =============================================================================

func validCutPayRequest() *engine.CutPayRequest {
	return &engine.CutPayRequest{
		ID:             "cut-1",
		DriverID:       "drv-1",
		HoursRequested: dec("4"),
		TrailerConfig:  engine.TrailerDouble,
		ReasonCode:     "EQUIPMENT_UNAVAILABLE",
		RequestDate:    engine.NewDate(2026, time.August, 24),
	}
}

func TestCutPayRequest_Validate(t *testing.T) {
	// GIVEN: Requests violating each boundary rule
	// WHEN: Validating
	// THEN: Each fails with InvalidCutPayRequest

	cases := []struct {
		name   string
		mutate func(*engine.CutPayRequest)
	}{
		{"both hours and miles", func(r *engine.CutPayRequest) {
			r.MilesRequested = dec("120")
		}},
		{"neither hours nor miles", func(r *engine.CutPayRequest) {
			r.HoursRequested = nil
		}},
		{"invalid trailer config", func(r *engine.CutPayRequest) {
			r.TrailerConfig = "QUAD"
		}},
		{"missing reason code", func(r *engine.CutPayRequest) {
			r.ReasonCode = ""
		}},
	}
	for _, tc := range cases {
		req := validCutPayRequest()
		tc.mutate(req)
		if err := req.Validate(); !errors.Is(err, engine.ErrInvalidCutPayRequest) {
			t.Errorf("%s: expected ErrInvalidCutPayRequest, got %v", tc.name, err)
		}
	}

	if err := validCutPayRequest().Validate(); err != nil {
		t.Errorf("Valid request should pass, got %v", err)
	}
}

// =============================================================================
// CALCULATION TESTS
// =============================================================================

func cutPayCard() *engine.RateCard {
	card := perMileCard("rc-cut", engine.RateTypeDefault, jan1())
	card.CutPay = engine.CutPayTerms{
		PerWorkHour:      moneyPtr("28.00"),
		PerSingleCutMile: moneyPtr("0.45"),
		PerDoubleCutMile: moneyPtr("0.52"),
	}
	return card
}

func TestCutPay_HoursPath(t *testing.T) {
	// GIVEN: A card paying 28.00/work hour for cut pay
	// WHEN: 4 hours are requested
	// THEN: BasePay is 112.00

	calc := &engine.CutPayCalculator{}
	result, err := calc.Calculate(validCutPayRequest(), cutPayCard())
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	assertMoney(t, result.BasePay, "112.00", "BasePay")
	if result.RateCardID != "rc-cut" {
		t.Errorf("Expected rate card rc-cut, got %s", result.RateCardID)
	}
}

func TestCutPay_MilesPathUsesConfigRate(t *testing.T) {
	// GIVEN: A card with per-single and per-double cut-mile rates
	// WHEN: 200 miles are requested with a DOUBLE configuration
	// THEN: The double rate applies: 200 x 0.52 = 104.00

	req := validCutPayRequest()
	req.HoursRequested = nil
	req.MilesRequested = dec("200")

	calc := &engine.CutPayCalculator{}
	result, err := calc.Calculate(req, cutPayCard())
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	assertMoney(t, result.BasePay, "104.00", "BasePay")
}

func TestCutPay_MilesPathFallsBackToPerCutTrip(t *testing.T) {
	// GIVEN: A card with only a flat per-cut-trip amount
	// WHEN: Miles are requested
	// THEN: The flat amount applies

	card := perMileCard("rc-cut", engine.RateTypeDefault, jan1())
	card.CutPay = engine.CutPayTerms{PerCutTrip: moneyPtr("95.00")}

	req := validCutPayRequest()
	req.HoursRequested = nil
	req.MilesRequested = dec("200")

	calc := &engine.CutPayCalculator{}
	result, err := calc.Calculate(req, card)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	assertMoney(t, result.BasePay, "95.00", "BasePay")
}

func TestCutPay_MissingRatesAreAnError(t *testing.T) {
	// GIVEN: A card with no cut-pay terms
	// WHEN: Calculating either path
	// THEN: InsufficientData

	card := perMileCard("rc-bare", engine.RateTypeDefault, jan1())
	calc := &engine.CutPayCalculator{}

	if _, err := calc.Calculate(validCutPayRequest(), card); !errors.Is(err, engine.ErrInsufficientData) {
		t.Errorf("hours path: expected ErrInsufficientData, got %v", err)
	}

	req := validCutPayRequest()
	req.HoursRequested = nil
	req.MilesRequested = dec("200")
	if _, err := calc.Calculate(req, card); !errors.Is(err, engine.ErrInsufficientData) {
		t.Errorf("miles path: expected ErrInsufficientData, got %v", err)
	}
}
