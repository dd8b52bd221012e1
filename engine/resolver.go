/*
resolver.go - Specificity-ordered rate resolution

PURPOSE:
  Given a compensation context (driver, carrier, linehaul profile, lane) and
  an as-of date, pick the single applicable Rate Card.

ALGORITHM:
  1. Filter the catalog to active cards whose effective window covers asOf
     and whose scope matches the context.
  2. Walk rate types in strict specificity order:
     DRIVER > CARRIER > LINEHAUL > OD_PAIR > DEFAULT.
     The first non-empty group wins; less specific groups are never consulted.
  3. Within the winning group:
     - a single candidate wins outright
     - if exactly one candidate carries priority=true, it wins
     - otherwise the candidate with the latest effective date wins
     - cards still tied after that are an AmbiguousRateError, not a coin flip
  4. Zero matches across all groups is a RateNotFoundError. The caller must
     surface it; resolution never defaults to zero pay.

CONSISTENCY:
  Resolution is a pure read against the as-of date. A new card effective
  "today" does not retroactively affect pay that was already calculated.

SEE ALSO:
  - ratecard.go: SpecificityOrder, EffectiveOn
  - calculator.go: The resolver's only in-engine caller
*/
package engine

import "context"

// =============================================================================
// RATE CONTEXT
// =============================================================================

// RateContext carries the facts resolution matches cards against. Every
// field is optional; an absent field simply never matches scoped cards.
type RateContext struct {
	DriverID              *DriverID
	CarrierID             *CarrierID
	LinehaulProfileID     *LinehaulProfileID
	OriginTerminalID      *TerminalID
	DestinationTerminalID *TerminalID
}

func (rc RateContext) String() string {
	s := "context{"
	if rc.DriverID != nil {
		s += "driver=" + string(*rc.DriverID) + " "
	}
	if rc.CarrierID != nil {
		s += "carrier=" + string(*rc.CarrierID) + " "
	}
	if rc.LinehaulProfileID != nil {
		s += "profile=" + string(*rc.LinehaulProfileID) + " "
	}
	if rc.OriginTerminalID != nil && rc.DestinationTerminalID != nil {
		s += "lane=" + string(*rc.OriginTerminalID) + "->" + string(*rc.DestinationTerminalID) + " "
	}
	return s + "}"
}

// =============================================================================
// RESOLVER
// =============================================================================

// Resolver selects the single applicable rate card for a context.
type Resolver struct {
	Catalog RateCardCatalog
}

func NewResolver(catalog RateCardCatalog) *Resolver {
	return &Resolver{Catalog: catalog}
}

// Resolve returns the applicable card, a RateNotFoundError when nothing
// matches, or an AmbiguousRateError when the catalog cannot be ranked.
func (r *Resolver) Resolve(ctx context.Context, rc RateContext, asOf Date) (*RateCard, error) {
	cards, err := r.Catalog.ActiveCards(ctx, asOf)
	if err != nil {
		return nil, err
	}

	groups := make(map[RateType][]*RateCard)
	for _, card := range cards {
		if !card.Active || !card.EffectiveOn(asOf) {
			continue
		}
		if matches(card, rc) {
			groups[card.Type] = append(groups[card.Type], card)
		}
	}

	for _, rt := range SpecificityOrder {
		group := groups[rt]
		if len(group) == 0 {
			continue
		}
		return pickWithinGroup(rt, group)
	}

	return nil, &RateNotFoundError{Context: rc, AsOf: asOf}
}

// matches reports whether the card's scope applies to the context.
func matches(card *RateCard, rc RateContext) bool {
	switch card.Type {
	case RateTypeDriver:
		return card.DriverID != nil && rc.DriverID != nil && *card.DriverID == *rc.DriverID
	case RateTypeCarrier:
		return card.CarrierID != nil && rc.CarrierID != nil && *card.CarrierID == *rc.CarrierID
	case RateTypeLinehaul:
		return card.LinehaulProfileID != nil && rc.LinehaulProfileID != nil &&
			*card.LinehaulProfileID == *rc.LinehaulProfileID
	case RateTypeODPair:
		return card.OriginTerminalID != nil && rc.OriginTerminalID != nil &&
			card.DestinationTerminalID != nil && rc.DestinationTerminalID != nil &&
			*card.OriginTerminalID == *rc.OriginTerminalID &&
			*card.DestinationTerminalID == *rc.DestinationTerminalID
	case RateTypeDefault:
		return true
	}
	return false
}

// pickWithinGroup applies the tie-break rules inside one specificity group.
func pickWithinGroup(rt RateType, group []*RateCard) (*RateCard, error) {
	if len(group) == 1 {
		return group[0], nil
	}

	// Exactly one priority card wins.
	var prioritized []*RateCard
	for _, card := range group {
		if card.Priority {
			prioritized = append(prioritized, card)
		}
	}
	if len(prioritized) == 1 {
		return prioritized[0], nil
	}
	if len(prioritized) > 1 {
		group = prioritized
	}

	// Latest effective date wins among the remainder.
	latest := group[0]
	tied := false
	for _, card := range group[1:] {
		switch {
		case card.EffectiveDate.After(latest.EffectiveDate):
			latest = card
			tied = false
		case card.EffectiveDate.Equal(latest.EffectiveDate):
			tied = true
		}
	}
	if tied {
		ids := make([]RateCardID, 0, len(group))
		for _, card := range group {
			if card.EffectiveDate.Equal(latest.EffectiveDate) {
				ids = append(ids, card.ID)
			}
		}
		return nil, &AmbiguousRateError{RateType: rt, Candidates: ids}
	}

	return latest, nil
}
