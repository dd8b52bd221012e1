/*
ratecard.go - Rate Card model

PURPOSE:
  A Rate Card is a stored compensation rule: who it applies to (driver,
  carrier, linehaul profile, origin/destination lane, or the system default),
  when it is effective, and how pay is computed from trip facts.

SHAPE:
  The legacy system flattened every possible per-unit field onto one record
  and relied on runtime convention to know which fields mattered for which
  rate method. Here RateMethod is a closed enum and each method carries its
  own basis struct, so "which fields matter for this card" is checked at
  compile time:

    PER_MILE   -> PerMileBasis   (per-single/double/triple-mile, clamps)
    FLAT_RATE  -> FlatRateBasis  (flat amount, optional per-trip override)
    HOURLY     -> HourlyBasis    (per-work-hour, per-stop-hour)
    PERCENTAGE -> PercentageBasis (percent of linked revenue)

  Accessorial per-unit terms (drop-and-hook, chain-up, wait time, fuel
  surcharge) are independent of the base-pay method and live in
  AccessorialTerms; an unset term means "not compensated", never an error.

SUPERSESSION:
  Cards are immutable-until-superseded: corrections are made by deactivating
  a card and creating a new one, never by editing amounts in place.

SEE ALSO:
  - resolver.go: Specificity-ordered selection among candidate cards
  - calculator.go: Turns a resolved card + trip facts into a breakdown
*/
package engine

import "github.com/shopspring/decimal"

// =============================================================================
// CLOSED ENUMERATIONS
// =============================================================================

// RateType scopes a card, in decreasing specificity.
type RateType string

const (
	RateTypeDriver   RateType = "DRIVER"
	RateTypeCarrier  RateType = "CARRIER"
	RateTypeLinehaul RateType = "LINEHAUL"
	RateTypeODPair   RateType = "OD_PAIR"
	RateTypeDefault  RateType = "DEFAULT"
)

// SpecificityOrder is the authoritative resolution ranking. A DRIVER card for
// driver D always outranks a CARRIER card matching D's carrier, and so on
// down to DEFAULT.
var SpecificityOrder = []RateType{
	RateTypeDriver,
	RateTypeCarrier,
	RateTypeLinehaul,
	RateTypeODPair,
	RateTypeDefault,
}

func (rt RateType) Valid() bool {
	switch rt {
	case RateTypeDriver, RateTypeCarrier, RateTypeLinehaul, RateTypeODPair, RateTypeDefault:
		return true
	}
	return false
}

// RateMethod determines how base pay is computed.
type RateMethod string

const (
	MethodPerMile    RateMethod = "PER_MILE"
	MethodFlatRate   RateMethod = "FLAT_RATE"
	MethodHourly     RateMethod = "HOURLY"
	MethodPercentage RateMethod = "PERCENTAGE"
)

func (rm RateMethod) Valid() bool {
	switch rm {
	case MethodPerMile, MethodFlatRate, MethodHourly, MethodPercentage:
		return true
	}
	return false
}

// =============================================================================
// RATE BASIS - Per-method amount fields (tagged variant)
// =============================================================================

// RateBasis is implemented by exactly one struct per RateMethod. The
// calculator switches on Method and type-asserts the matching basis; a card
// whose basis doesn't match its method is a construction bug.
type RateBasis interface {
	Method() RateMethod
}

// PerMileBasis pays actual mileage at the per-config mile rate.
type PerMileBasis struct {
	PerSingleMile Money
	PerDoubleMile Money
	PerTripleMile Money

	// Optional clamps on the computed mileage pay.
	MinPay *Money
	MaxPay *Money
}

func (PerMileBasis) Method() RateMethod { return MethodPerMile }

// RateForConfig returns the per-mile rate for the trailer configuration.
func (b PerMileBasis) RateForConfig(tc TrailerConfig) Money {
	switch tc {
	case TrailerDouble:
		return b.PerDoubleMile
	case TrailerTriple:
		return b.PerTripleMile
	default:
		return b.PerSingleMile
	}
}

// FlatRateBasis pays a fixed amount per trip regardless of mileage.
type FlatRateBasis struct {
	Amount Money

	// PerTrip, when set, overrides Amount. Legacy cards carried both.
	PerTrip *Money
}

func (FlatRateBasis) Method() RateMethod { return MethodFlatRate }

func (b FlatRateBasis) TripAmount() Money {
	if b.PerTrip != nil {
		return *b.PerTrip
	}
	return b.Amount
}

// HourlyBasis pays recorded work (and optionally stop) hours.
type HourlyBasis struct {
	PerWorkHour Money
	PerStopHour Money
}

func (HourlyBasis) Method() RateMethod { return MethodHourly }

// PercentageBasis pays a percentage of the trip's linked revenue.
type PercentageBasis struct {
	// Percent is the rate amount as a percentage, e.g. 68 means 68%.
	Percent decimal.Decimal
}

func (PercentageBasis) Method() RateMethod { return MethodPercentage }

// =============================================================================
// ACCESSORIAL TERMS - Per-unit add-ons, independent of base method
// =============================================================================

// AccessorialTerms holds the per-unit pay fields layered on top of base pay.
// A nil field means the card does not compensate that activity; absence is
// not an error, the term contributes zero.
type AccessorialTerms struct {
	PerSingleDropHook *Money
	PerDoubleDropHook *Money
	PerTripleDropHook *Money
	PerChainUp        *Money

	// PerWaitHour is the hourly-equivalent rate for billable wait minutes.
	PerWaitHour *Money

	// FuelSurchargePct is applied as a percentage of base+mileage pay.
	FuelSurchargePct *decimal.Decimal
}

// DropHookForConfig returns the per-occurrence drop-and-hook rate for the
// trailer configuration, or nil if unconfigured.
func (a AccessorialTerms) DropHookForConfig(tc TrailerConfig) *Money {
	switch tc {
	case TrailerDouble:
		return a.PerDoubleDropHook
	case TrailerTriple:
		return a.PerTripleDropHook
	default:
		return a.PerSingleDropHook
	}
}

// CutPayTerms holds the rate fields for non-driven (cut) compensation.
type CutPayTerms struct {
	PerWorkHour      *Money
	PerSingleCutMile *Money
	PerDoubleCutMile *Money
	PerTripleCutMile *Money
	PerCutTrip       *Money
}

// CutMileForConfig returns the per-mile cut rate for the configuration.
func (c CutPayTerms) CutMileForConfig(tc TrailerConfig) *Money {
	switch tc {
	case TrailerDouble:
		return c.PerDoubleCutMile
	case TrailerTriple:
		return c.PerTripleCutMile
	default:
		return c.PerSingleCutMile
	}
}

// =============================================================================
// ACCESSORIAL RATE - Supplementary itemized charge owned by a card
// =============================================================================

type AccessorialType string

const (
	AccessorialLayover   AccessorialType = "LAYOVER"
	AccessorialDetention AccessorialType = "DETENTION"
	AccessorialBreakdown AccessorialType = "BREAKDOWN"
	AccessorialHazmat    AccessorialType = "HAZMAT"
	AccessorialDropHook  AccessorialType = "DROP_HOOK"
	AccessorialChainUp   AccessorialType = "CHAIN_UP"
	AccessorialWaitTime  AccessorialType = "WAIT_TIME"
	AccessorialCutPay    AccessorialType = "CUT_PAY"
)

// AccessorialRate is a supplementary charge keyed to its owning rate card.
// It lives and dies with the card: deleting the card deletes its rates.
type AccessorialRate struct {
	ID         string
	RateCardID RateCardID
	Type       AccessorialType
	Method     RateMethod
	Amount     Money
	MinCharge  *Money
	MaxCharge  *Money
}

// =============================================================================
// RATE CARD
// =============================================================================

// RateCard is a compensation rule with an effective window.
//
// Scope fields are populated according to Type:
//   DRIVER   -> DriverID
//   CARRIER  -> CarrierID
//   LINEHAUL -> LinehaulProfileID
//   OD_PAIR  -> OriginTerminalID + DestinationTerminalID
//   DEFAULT  -> none
type RateCard struct {
	ID   RateCardID
	Type RateType

	DriverID              *DriverID
	CarrierID             *CarrierID
	LinehaulProfileID     *LinehaulProfileID
	OriginTerminalID      *TerminalID
	DestinationTerminalID *TerminalID

	Method RateMethod
	Basis  RateBasis

	Accessorials AccessorialTerms
	CutPay       CutPayTerms

	// Supplementary itemized charges owned by this card.
	AccessorialRates []AccessorialRate

	// Priority breaks ties among equally-specific candidates.
	Priority bool

	Active         bool
	EffectiveDate  Date
	ExpirationDate *Date // nil = unbounded

	CreatedAt Date
}

// EffectiveOn reports whether the card's window covers the date.
func (c *RateCard) EffectiveOn(asOf Date) bool {
	if asOf.Before(c.EffectiveDate) {
		return false
	}
	if c.ExpirationDate != nil && asOf.After(*c.ExpirationDate) {
		return false
	}
	return true
}

// AccessorialRateFor returns the card's supplementary rate of the given type,
// or nil if the card doesn't carry one.
func (c *RateCard) AccessorialRateFor(t AccessorialType) *AccessorialRate {
	for i := range c.AccessorialRates {
		if c.AccessorialRates[i].Type == t {
			return &c.AccessorialRates[i]
		}
	}
	return nil
}
