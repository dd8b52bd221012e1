/*
Package engine provides the core linehaul trip pay engine.

PURPOSE:
  This package contains the domain types and algorithms for computing driver
  compensation: rate cards, rate resolution by specificity, trip pay and cut
  pay calculation, and the validation rules for trip-arrival facts.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: A monetary quantity backed by decimal.Decimal
  - Date: A day-granularity point in time (effective windows, period bounds)
  - Typed identifiers: DriverID, CarrierID, TripID, etc.
  - TrailerConfig: SINGLE/DOUBLE/TRIPLE, selects per-config rate fields

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal everywhere money flows, never float64
  2. Type Safety: Strong typing for IDs prevents mixing driver/carrier ids
  3. Closed enumerations: rate types, rate methods, and trailer configs are
     enums driving explicit switches, not stringly-typed conventions

SEE ALSO:
  - ratecard.go: Rate Card model and per-method rate basis
  - resolver.go: Specificity-ordered rate resolution
  - calculator.go: Trip pay computation
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Monetary quantity with decimal precision
// =============================================================================

type Money struct {
	Value decimal.Decimal
}

func NewMoney(value float64) Money {
	return Money{Value: decimal.NewFromFloat(value)}
}

func NewMoneyFromInt(value int) Money {
	return Money{Value: decimal.NewFromInt(int64(value))}
}

func ZeroMoney() Money { return Money{Value: decimal.Zero} }

func MustParseMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ZeroMoney()
	}
	return Money{Value: d}
}

func (m Money) Add(o Money) Money            { return Money{Value: m.Value.Add(o.Value)} }
func (m Money) Sub(o Money) Money            { return Money{Value: m.Value.Sub(o.Value)} }
func (m Money) Mul(s decimal.Decimal) Money  { return Money{Value: m.Value.Mul(s)} }
func (m Money) Div(s decimal.Decimal) Money  { return Money{Value: m.Value.Div(s)} }
func (m Money) Neg() Money                   { return Money{Value: m.Value.Neg()} }
func (m Money) IsZero() bool                 { return m.Value.IsZero() }
func (m Money) IsNegative() bool             { return m.Value.IsNegative() }
func (m Money) IsPositive() bool             { return m.Value.IsPositive() }
func (m Money) GreaterThan(o Money) bool     { return m.Value.GreaterThan(o.Value) }
func (m Money) LessThan(o Money) bool        { return m.Value.LessThan(o.Value) }
func (m Money) Equal(o Money) bool           { return m.Value.Equal(o.Value) }
func (m Money) Round(places int32) Money     { return Money{Value: m.Value.Round(places)} }
func (m Money) String() string               { return m.Value.StringFixed(2) }

// Clamp bounds m to [min, max]. Either bound may be nil (unbounded).
func (m Money) Clamp(min, max *Money) Money {
	if min != nil && m.LessThan(*min) {
		return *min
	}
	if max != nil && m.GreaterThan(*max) {
		return *max
	}
	return m
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type DriverID string
type CarrierID string
type LinehaulProfileID string
type TerminalID string
type TripID string
type RateCardID string
type TripPayID string
type PayPeriodID string
type CutPayRequestID string

// =============================================================================
// DATE - Day-granularity time point
// =============================================================================

// Date is a calendar day in UTC. Effective windows, dispatch dates, and pay
// period bounds are all day-granular; normalizing here keeps comparisons
// consistent regardless of how a time.Time was produced.
type Date struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, m, d)
}

func Today() Date { return DateOf(time.Now()) }

func (d Date) normalize() time.Time {
	y, m, day := d.Time.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func (d Date) Before(o Date) bool        { return d.normalize().Before(o.normalize()) }
func (d Date) After(o Date) bool         { return d.normalize().After(o.normalize()) }
func (d Date) Equal(o Date) bool         { return d.normalize().Equal(o.normalize()) }
func (d Date) BeforeOrEqual(o Date) bool { return d.Before(o) || d.Equal(o) }
func (d Date) AfterOrEqual(o Date) bool  { return d.After(o) || d.Equal(o) }
func (d Date) IsZero() bool              { return d.Time.IsZero() }

func (d Date) AddDays(n int) Date { return Date{Time: d.Time.AddDate(0, 0, n)} }

func (d Date) String() string { return d.normalize().Format("2006-01-02") }

// DateWindow is an inclusive [Start, End] day range.
type DateWindow struct {
	Start Date
	End   Date
}

func (w DateWindow) Contains(d Date) bool {
	return d.AfterOrEqual(w.Start) && d.BeforeOrEqual(w.End)
}

func (w DateWindow) Overlaps(o DateWindow) bool {
	return !w.End.Before(o.Start) && !o.End.Before(w.Start)
}

func (w DateWindow) String() string {
	return "[" + w.Start.String() + ", " + w.End.String() + "]"
}

// =============================================================================
// TRAILER CONFIGURATION
// =============================================================================

// TrailerConfig selects which per-config rate field applies (per-single-mile
// vs per-double-mile, single vs double drop-hook, and so on).
type TrailerConfig string

const (
	TrailerSingle TrailerConfig = "SINGLE"
	TrailerDouble TrailerConfig = "DOUBLE"
	TrailerTriple TrailerConfig = "TRIPLE"
)

func (tc TrailerConfig) Valid() bool {
	switch tc {
	case TrailerSingle, TrailerDouble, TrailerTriple:
		return true
	}
	return false
}
