package factory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freightline/pay-engine/engine"
	"github.com/freightline/pay-engine/factory"
)

// =============================================================================
// PARSING
// =============================================================================

func TestParseRateCard_PerMile(t *testing.T) {
	// GIVEN: A full per-mile card definition
	// WHEN: Parsing
	// THEN: Basis, accessorials, cut pay, and dates all come through

	f := factory.NewRateCardFactory()
	card, err := f.ParseRateCard(`{
		"id": "rc-1",
		"rate_type": "DEFAULT",
		"rate_method": "PER_MILE",
		"per_mile": {
			"per_single_mile": "0.585",
			"per_double_mile": "0.62",
			"per_triple_mile": "0.70",
			"min_pay": "150.00"
		},
		"accessorials": {"per_single_drop_hook": "25.00", "per_wait_hour": "22.50"},
		"cut_pay": {"per_work_hour": "28.00"},
		"effective_date": "2026-01-01",
		"expiration_date": "2026-12-31"
	}`)
	require.NoError(t, err)

	assert.Equal(t, engine.RateCardID("rc-1"), card.ID)
	assert.Equal(t, engine.RateTypeDefault, card.Type)
	assert.True(t, card.Active)

	basis, ok := card.Basis.(engine.PerMileBasis)
	require.True(t, ok)
	assert.Equal(t, "0.59", basis.PerSingleMile.String()) // display rounds; value keeps 0.585
	assert.True(t, basis.PerSingleMile.Value.Equal(engine.MustParseMoney("0.585").Value))
	require.NotNil(t, basis.MinPay)
	assert.Equal(t, "150.00", basis.MinPay.String())

	require.NotNil(t, card.Accessorials.PerSingleDropHook)
	require.NotNil(t, card.CutPay.PerWorkHour)
	assert.Equal(t, engine.NewDate(2026, time.January, 1), card.EffectiveDate)
	require.NotNil(t, card.ExpirationDate)
}

func TestParseRateCard_DoubleAndTripleRatesCascade(t *testing.T) {
	// GIVEN: A per-mile block with only a single-mile rate
	// WHEN: Parsing
	// THEN: Double defaults to single and triple defaults to double

	f := factory.NewRateCardFactory()
	card, err := f.ParseRateCard(`{
		"id": "rc-cascade",
		"rate_type": "DEFAULT",
		"rate_method": "PER_MILE",
		"per_mile": {"per_single_mile": "0.60"},
		"effective_date": "2026-01-01"
	}`)
	require.NoError(t, err)

	basis := card.Basis.(engine.PerMileBasis)
	assert.Equal(t, "0.60", basis.PerDoubleMile.String())
	assert.Equal(t, "0.60", basis.PerTripleMile.String())
}

func TestParseRateCard_ScopedTypes(t *testing.T) {
	// GIVEN: One card per scoped rate type
	// WHEN: Parsing
	// THEN: Each carries exactly its scope field

	f := factory.NewRateCardFactory()

	driver, err := f.ParseRateCard(`{
		"id": "rc-d", "rate_type": "DRIVER", "driver_id": "drv-1",
		"rate_method": "FLAT_RATE", "flat_rate": {"amount": "400.00"},
		"effective_date": "2026-01-01"
	}`)
	require.NoError(t, err)
	require.NotNil(t, driver.DriverID)
	assert.Equal(t, engine.DriverID("drv-1"), *driver.DriverID)

	lane, err := f.ParseRateCard(`{
		"id": "rc-l", "rate_type": "OD_PAIR",
		"origin_terminal_id": "PDX", "destination_terminal_id": "SEA",
		"rate_method": "FLAT_RATE", "flat_rate": {"amount": "200.00"},
		"effective_date": "2026-01-01"
	}`)
	require.NoError(t, err)
	require.NotNil(t, lane.OriginTerminalID)
	require.NotNil(t, lane.DestinationTerminalID)
}

// =============================================================================
// VALIDATION FAILURES
// =============================================================================

func TestParseRateCard_Rejections(t *testing.T) {
	// GIVEN: Definitions violating each structural rule
	// WHEN: Parsing
	// THEN: Each is rejected

	f := factory.NewRateCardFactory()

	cases := []struct {
		name string
		json string
	}{
		{"missing id", `{
			"rate_type": "DEFAULT", "rate_method": "FLAT_RATE",
			"flat_rate": {"amount": "100.00"}, "effective_date": "2026-01-01"
		}`},
		{"unknown rate type", `{
			"id": "rc-x", "rate_type": "REGIONAL", "rate_method": "FLAT_RATE",
			"flat_rate": {"amount": "100.00"}, "effective_date": "2026-01-01"
		}`},
		{"driver card without driver_id", `{
			"id": "rc-x", "rate_type": "DRIVER", "rate_method": "FLAT_RATE",
			"flat_rate": {"amount": "100.00"}, "effective_date": "2026-01-01"
		}`},
		{"lane card with one terminal", `{
			"id": "rc-x", "rate_type": "OD_PAIR", "origin_terminal_id": "PDX",
			"rate_method": "FLAT_RATE", "flat_rate": {"amount": "100.00"},
			"effective_date": "2026-01-01"
		}`},
		{"method without matching block", `{
			"id": "rc-x", "rate_type": "DEFAULT", "rate_method": "PER_MILE",
			"flat_rate": {"amount": "100.00"}, "effective_date": "2026-01-01"
		}`},
		{"missing effective date", `{
			"id": "rc-x", "rate_type": "DEFAULT", "rate_method": "FLAT_RATE",
			"flat_rate": {"amount": "100.00"}
		}`},
		{"expiration before effective", `{
			"id": "rc-x", "rate_type": "DEFAULT", "rate_method": "FLAT_RATE",
			"flat_rate": {"amount": "100.00"},
			"effective_date": "2026-06-01", "expiration_date": "2026-01-01"
		}`},
		{"malformed amount", `{
			"id": "rc-x", "rate_type": "DEFAULT", "rate_method": "FLAT_RATE",
			"flat_rate": {"amount": "one hundred"}, "effective_date": "2026-01-01"
		}`},
	}
	for _, tc := range cases {
		_, err := f.ParseRateCard(tc.json)
		assert.Error(t, err, tc.name)
	}
}

// =============================================================================
// SUPPLEMENTARY RATES
// =============================================================================

func TestParseRateCard_AccessorialRates(t *testing.T) {
	// GIVEN: A card carrying itemized accessorial rates
	// WHEN: Parsing
	// THEN: Rates are attached to the card with FLAT_RATE as default method

	f := factory.NewRateCardFactory()
	card, err := f.ParseRateCard(`{
		"id": "rc-acc",
		"rate_type": "DEFAULT",
		"rate_method": "FLAT_RATE",
		"flat_rate": {"amount": "300.00"},
		"accessorial_rates": [
			{"type": "DETENTION", "amount": "45.00", "method": "HOURLY"},
			{"type": "TARP", "amount": "30.00"}
		],
		"effective_date": "2026-01-01"
	}`)
	require.NoError(t, err)

	require.Len(t, card.AccessorialRates, 2)
	assert.Equal(t, engine.RateMethod("HOURLY"), card.AccessorialRates[0].Method)
	assert.Equal(t, engine.MethodFlatRate, card.AccessorialRates[1].Method)
	assert.Equal(t, card.ID, card.AccessorialRates[1].RateCardID)
}
