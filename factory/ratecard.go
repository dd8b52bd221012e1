/*
Package factory provides JSON to Go rate card conversion.

PURPOSE:
  Converts JSON rate card definitions into engine.RateCard objects. This
  enables rate configuration without code changes - pay administrators can
  define cards in JSON, and the factory creates the proper Go structs.

WHY JSON?
  - Non-developers can modify rate cards
  - Easy integration with admin UI
  - Version control for rate definitions
  - Database storage of rate configs

JSON SCHEMA:
  {
    "id": "drv-1042-2026",
    "rate_type": "DRIVER",
    "driver_id": "1042",
    "rate_method": "PER_MILE",
    "per_mile": {
      "per_single_mile": "0.585",
      "per_double_mile": "0.635",
      "per_triple_mile": "0.685",
      "min_pay": "150.00"
    },
    "accessorials": {
      "per_double_drop_hook": "25.00",
      "per_chain_up": "18.50",
      "per_wait_hour": "22.00"
    },
    "cut_pay": {
      "per_work_hour": "28.00"
    },
    "priority": true,
    "effective_date": "2026-01-01",
    "expiration_date": "2026-12-31"
  }

KEY FEATURES:
  - Validates scope fields against the rate type
  - Exactly one basis block, matching rate_method
  - Decimal amounts parsed from strings, never floats
  - Dates parsed as day-granular YYYY-MM-DD

USAGE:
  f := NewRateCardFactory()
  card, err := f.ParseRateCard(jsonStr)
  catalog.SaveCard(ctx, card)

SEE ALSO:
  - engine/ratecard.go: RateCard type definition
  - engine/resolver.go: How parsed cards compete during resolution
*/
package factory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/freightline/pay-engine/engine"
)

const dateLayout = "2006-01-02"

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// RateCardJSON is the JSON representation of a rate card.
type RateCardJSON struct {
	ID       string `json:"id"`
	RateType string `json:"rate_type"`

	DriverID              string `json:"driver_id,omitempty"`
	CarrierID             string `json:"carrier_id,omitempty"`
	LinehaulProfileID     string `json:"linehaul_profile_id,omitempty"`
	OriginTerminalID      string `json:"origin_terminal_id,omitempty"`
	DestinationTerminalID string `json:"destination_terminal_id,omitempty"`

	RateMethod string `json:"rate_method"`

	PerMile    *PerMileJSON    `json:"per_mile,omitempty"`
	FlatRate   *FlatRateJSON   `json:"flat_rate,omitempty"`
	Hourly     *HourlyJSON     `json:"hourly,omitempty"`
	Percentage *PercentageJSON `json:"percentage,omitempty"`

	Accessorials *AccessorialsJSON     `json:"accessorials,omitempty"`
	CutPay       *CutPayJSON           `json:"cut_pay,omitempty"`
	Rates        []AccessorialRateJSON `json:"accessorial_rates,omitempty"`

	Priority       bool   `json:"priority,omitempty"`
	Active         *bool  `json:"active,omitempty"` // default true
	EffectiveDate  string `json:"effective_date"`
	ExpirationDate string `json:"expiration_date,omitempty"`
}

// PerMileJSON carries per-config mileage rates as decimal strings.
type PerMileJSON struct {
	PerSingleMile string `json:"per_single_mile"`
	PerDoubleMile string `json:"per_double_mile,omitempty"`
	PerTripleMile string `json:"per_triple_mile,omitempty"`
	MinPay        string `json:"min_pay,omitempty"`
	MaxPay        string `json:"max_pay,omitempty"`
}

type FlatRateJSON struct {
	Amount  string `json:"amount"`
	PerTrip string `json:"per_trip,omitempty"`
}

type HourlyJSON struct {
	PerWorkHour string `json:"per_work_hour"`
	PerStopHour string `json:"per_stop_hour,omitempty"`
}

type PercentageJSON struct {
	Percent string `json:"percent"` // e.g. "68" means 68% of linked revenue
}

type AccessorialsJSON struct {
	PerSingleDropHook string `json:"per_single_drop_hook,omitempty"`
	PerDoubleDropHook string `json:"per_double_drop_hook,omitempty"`
	PerTripleDropHook string `json:"per_triple_drop_hook,omitempty"`
	PerChainUp        string `json:"per_chain_up,omitempty"`
	PerWaitHour       string `json:"per_wait_hour,omitempty"`
	FuelSurchargePct  string `json:"fuel_surcharge_pct,omitempty"`
}

type CutPayJSON struct {
	PerWorkHour      string `json:"per_work_hour,omitempty"`
	PerSingleCutMile string `json:"per_single_cut_mile,omitempty"`
	PerDoubleCutMile string `json:"per_double_cut_mile,omitempty"`
	PerTripleCutMile string `json:"per_triple_cut_mile,omitempty"`
	PerCutTrip       string `json:"per_cut_trip,omitempty"`
}

// AccessorialRateJSON is a supplementary itemized charge owned by the card.
type AccessorialRateJSON struct {
	ID        string `json:"id,omitempty"`
	Type      string `json:"type"`
	Method    string `json:"method,omitempty"` // default FLAT_RATE
	Amount    string `json:"amount"`
	MinCharge string `json:"min_charge,omitempty"`
	MaxCharge string `json:"max_charge,omitempty"`
}

// =============================================================================
// RATE CARD FACTORY
// =============================================================================

// RateCardFactory converts JSON rate cards to Go structs.
type RateCardFactory struct{}

// NewRateCardFactory creates a new rate card factory.
func NewRateCardFactory() *RateCardFactory {
	return &RateCardFactory{}
}

// ParseRateCard parses a JSON string into a RateCard.
func (f *RateCardFactory) ParseRateCard(jsonStr string) (*engine.RateCard, error) {
	var rj RateCardJSON
	if err := json.Unmarshal([]byte(jsonStr), &rj); err != nil {
		return nil, fmt.Errorf("failed to parse rate card JSON: %w", err)
	}
	return f.FromJSON(rj)
}

// FromJSON converts a parsed RateCardJSON into an engine.RateCard.
func (f *RateCardFactory) FromJSON(rj RateCardJSON) (*engine.RateCard, error) {
	if rj.ID == "" {
		return nil, fmt.Errorf("rate card requires an id")
	}

	rt := engine.RateType(rj.RateType)
	if !rt.Valid() {
		return nil, fmt.Errorf("rate card %s: unknown rate_type %q", rj.ID, rj.RateType)
	}
	rm := engine.RateMethod(rj.RateMethod)
	if !rm.Valid() {
		return nil, fmt.Errorf("rate card %s: unknown rate_method %q", rj.ID, rj.RateMethod)
	}

	card := &engine.RateCard{
		ID:       engine.RateCardID(rj.ID),
		Type:     rt,
		Method:   rm,
		Priority: rj.Priority,
		Active:   true,
	}
	if rj.Active != nil {
		card.Active = *rj.Active
	}

	if err := f.applyScope(card, rj); err != nil {
		return nil, err
	}

	basis, err := f.buildBasis(rj, rm)
	if err != nil {
		return nil, fmt.Errorf("rate card %s: %w", rj.ID, err)
	}
	card.Basis = basis

	if rj.Accessorials != nil {
		terms, err := f.buildAccessorials(*rj.Accessorials)
		if err != nil {
			return nil, fmt.Errorf("rate card %s: %w", rj.ID, err)
		}
		card.Accessorials = terms
	}
	if rj.CutPay != nil {
		terms, err := f.buildCutPay(*rj.CutPay)
		if err != nil {
			return nil, fmt.Errorf("rate card %s: %w", rj.ID, err)
		}
		card.CutPay = terms
	}
	for _, arj := range rj.Rates {
		ar, err := f.buildAccessorialRate(card.ID, arj)
		if err != nil {
			return nil, fmt.Errorf("rate card %s: %w", rj.ID, err)
		}
		card.AccessorialRates = append(card.AccessorialRates, ar)
	}

	if rj.EffectiveDate == "" {
		return nil, fmt.Errorf("rate card %s: effective_date is required", rj.ID)
	}
	eff, err := parseDate(rj.EffectiveDate)
	if err != nil {
		return nil, fmt.Errorf("rate card %s: bad effective_date: %w", rj.ID, err)
	}
	card.EffectiveDate = eff

	if rj.ExpirationDate != "" {
		exp, err := parseDate(rj.ExpirationDate)
		if err != nil {
			return nil, fmt.Errorf("rate card %s: bad expiration_date: %w", rj.ID, err)
		}
		if exp.Before(eff) {
			return nil, fmt.Errorf("rate card %s: expiration_date before effective_date", rj.ID)
		}
		card.ExpirationDate = &exp
	}

	return card, nil
}

// applyScope validates and sets the scope field matching the rate type.
func (f *RateCardFactory) applyScope(card *engine.RateCard, rj RateCardJSON) error {
	switch card.Type {
	case engine.RateTypeDriver:
		if rj.DriverID == "" {
			return fmt.Errorf("rate card %s: DRIVER cards require driver_id", rj.ID)
		}
		id := engine.DriverID(rj.DriverID)
		card.DriverID = &id
	case engine.RateTypeCarrier:
		if rj.CarrierID == "" {
			return fmt.Errorf("rate card %s: CARRIER cards require carrier_id", rj.ID)
		}
		id := engine.CarrierID(rj.CarrierID)
		card.CarrierID = &id
	case engine.RateTypeLinehaul:
		if rj.LinehaulProfileID == "" {
			return fmt.Errorf("rate card %s: LINEHAUL cards require linehaul_profile_id", rj.ID)
		}
		id := engine.LinehaulProfileID(rj.LinehaulProfileID)
		card.LinehaulProfileID = &id
	case engine.RateTypeODPair:
		if rj.OriginTerminalID == "" || rj.DestinationTerminalID == "" {
			return fmt.Errorf("rate card %s: OD_PAIR cards require both terminal ids", rj.ID)
		}
		o := engine.TerminalID(rj.OriginTerminalID)
		d := engine.TerminalID(rj.DestinationTerminalID)
		card.OriginTerminalID = &o
		card.DestinationTerminalID = &d
	case engine.RateTypeDefault:
		// No scope fields.
	}
	return nil
}

// buildBasis requires exactly the basis block matching the rate method.
func (f *RateCardFactory) buildBasis(rj RateCardJSON, rm engine.RateMethod) (engine.RateBasis, error) {
	switch rm {
	case engine.MethodPerMile:
		if rj.PerMile == nil {
			return nil, fmt.Errorf("PER_MILE cards require a per_mile block")
		}
		b := engine.PerMileBasis{}
		var err error
		if b.PerSingleMile, err = parseMoney(rj.PerMile.PerSingleMile); err != nil {
			return nil, err
		}
		if b.PerDoubleMile, err = parseMoneyDefault(rj.PerMile.PerDoubleMile, b.PerSingleMile); err != nil {
			return nil, err
		}
		if b.PerTripleMile, err = parseMoneyDefault(rj.PerMile.PerTripleMile, b.PerDoubleMile); err != nil {
			return nil, err
		}
		if b.MinPay, err = parseOptionalMoney(rj.PerMile.MinPay); err != nil {
			return nil, err
		}
		if b.MaxPay, err = parseOptionalMoney(rj.PerMile.MaxPay); err != nil {
			return nil, err
		}
		return b, nil

	case engine.MethodFlatRate:
		if rj.FlatRate == nil {
			return nil, fmt.Errorf("FLAT_RATE cards require a flat_rate block")
		}
		amount, err := parseMoney(rj.FlatRate.Amount)
		if err != nil {
			return nil, err
		}
		perTrip, err := parseOptionalMoney(rj.FlatRate.PerTrip)
		if err != nil {
			return nil, err
		}
		return engine.FlatRateBasis{Amount: amount, PerTrip: perTrip}, nil

	case engine.MethodHourly:
		if rj.Hourly == nil {
			return nil, fmt.Errorf("HOURLY cards require an hourly block")
		}
		work, err := parseMoney(rj.Hourly.PerWorkHour)
		if err != nil {
			return nil, err
		}
		stop, err := parseMoneyDefault(rj.Hourly.PerStopHour, engine.ZeroMoney())
		if err != nil {
			return nil, err
		}
		return engine.HourlyBasis{PerWorkHour: work, PerStopHour: stop}, nil

	case engine.MethodPercentage:
		if rj.Percentage == nil {
			return nil, fmt.Errorf("PERCENTAGE cards require a percentage block")
		}
		pct, err := decimal.NewFromString(rj.Percentage.Percent)
		if err != nil {
			return nil, fmt.Errorf("bad percent %q: %w", rj.Percentage.Percent, err)
		}
		return engine.PercentageBasis{Percent: pct}, nil
	}
	return nil, fmt.Errorf("unknown rate method %q", rm)
}

func (f *RateCardFactory) buildAccessorials(aj AccessorialsJSON) (engine.AccessorialTerms, error) {
	var terms engine.AccessorialTerms
	var err error
	if terms.PerSingleDropHook, err = parseOptionalMoney(aj.PerSingleDropHook); err != nil {
		return terms, err
	}
	if terms.PerDoubleDropHook, err = parseOptionalMoney(aj.PerDoubleDropHook); err != nil {
		return terms, err
	}
	if terms.PerTripleDropHook, err = parseOptionalMoney(aj.PerTripleDropHook); err != nil {
		return terms, err
	}
	if terms.PerChainUp, err = parseOptionalMoney(aj.PerChainUp); err != nil {
		return terms, err
	}
	if terms.PerWaitHour, err = parseOptionalMoney(aj.PerWaitHour); err != nil {
		return terms, err
	}
	if aj.FuelSurchargePct != "" {
		pct, err := decimal.NewFromString(aj.FuelSurchargePct)
		if err != nil {
			return terms, fmt.Errorf("bad fuel_surcharge_pct %q: %w", aj.FuelSurchargePct, err)
		}
		terms.FuelSurchargePct = &pct
	}
	return terms, nil
}

func (f *RateCardFactory) buildCutPay(cj CutPayJSON) (engine.CutPayTerms, error) {
	var terms engine.CutPayTerms
	var err error
	if terms.PerWorkHour, err = parseOptionalMoney(cj.PerWorkHour); err != nil {
		return terms, err
	}
	if terms.PerSingleCutMile, err = parseOptionalMoney(cj.PerSingleCutMile); err != nil {
		return terms, err
	}
	if terms.PerDoubleCutMile, err = parseOptionalMoney(cj.PerDoubleCutMile); err != nil {
		return terms, err
	}
	if terms.PerTripleCutMile, err = parseOptionalMoney(cj.PerTripleCutMile); err != nil {
		return terms, err
	}
	if terms.PerCutTrip, err = parseOptionalMoney(cj.PerCutTrip); err != nil {
		return terms, err
	}
	return terms, nil
}

func (f *RateCardFactory) buildAccessorialRate(cardID engine.RateCardID, arj AccessorialRateJSON) (engine.AccessorialRate, error) {
	ar := engine.AccessorialRate{
		ID:         arj.ID,
		RateCardID: cardID,
		Type:       engine.AccessorialType(arj.Type),
		Method:     engine.MethodFlatRate,
	}
	if arj.Method != "" {
		m := engine.RateMethod(arj.Method)
		if !m.Valid() {
			return ar, fmt.Errorf("accessorial rate %s: unknown method %q", arj.Type, arj.Method)
		}
		ar.Method = m
	}
	var err error
	if ar.Amount, err = parseMoney(arj.Amount); err != nil {
		return ar, fmt.Errorf("accessorial rate %s: %w", arj.Type, err)
	}
	if ar.MinCharge, err = parseOptionalMoney(arj.MinCharge); err != nil {
		return ar, err
	}
	if ar.MaxCharge, err = parseOptionalMoney(arj.MaxCharge); err != nil {
		return ar, err
	}
	return ar, nil
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseMoney(s string) (engine.Money, error) {
	if s == "" {
		return engine.ZeroMoney(), fmt.Errorf("missing required amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return engine.ZeroMoney(), fmt.Errorf("bad amount %q: %w", s, err)
	}
	return engine.Money{Value: d}, nil
}

// parseMoneyDefault falls back to def when the field is absent. Per-config
// mile rates cascade: triple defaults to double defaults to single.
func parseMoneyDefault(s string, def engine.Money) (engine.Money, error) {
	if s == "" {
		return def, nil
	}
	return parseMoney(s)
}

func parseOptionalMoney(s string) (*engine.Money, error) {
	if s == "" {
		return nil, nil
	}
	m, err := parseMoney(s)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func parseDate(s string) (engine.Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return engine.Date{}, err
	}
	return engine.DateOf(t), nil
}
