/*
store.go - Persistence interfaces for the engine's reads and writes

PURPOSE:
  Defines the boundary between the pay engine and its storage. The engine is
  read-mostly: rate resolution and calculation only read; the single shared
  mutable resource is the trip pay row, which the payroll package creates via
  an atomic create-or-fail (see payroll.TripPayStore).

KEY INTERFACES:
  RateCardCatalog: Rate card lookup and supersession
  TripStore:       Dispatched trips and arrival reports (owned by the
                   dispatch workflow; the engine reads them)

CONSISTENCY:
  Rate card reads never block writers. Resolution is a pure read against an
  as-of date and tolerates eventually-consistent catalog updates; a card
  effective today does not retroactively change already-calculated pay.

IMPLEMENTATIONS:
  - engine/store/memory.go: in-memory, for tests/dev
  - store/sqlite:           production store
*/
package engine

import "context"

// =============================================================================
// RATE CARD CATALOG
// =============================================================================

// RateCardCatalog holds rate cards and their owned accessorial rates.
// Cards are immutable-until-superseded: Save never edits amounts in place,
// and Deactivate is the only mutation of an existing card.
type RateCardCatalog interface {
	// ActiveCards returns every active card whose window could cover asOf.
	// The resolver applies exact matching; the catalog may over-return.
	ActiveCards(ctx context.Context, asOf Date) ([]*RateCard, error)

	// GetCard returns a card by id, or ErrRateNotFound.
	GetCard(ctx context.Context, id RateCardID) (*RateCard, error)

	// SaveCard persists a new card with its accessorial rates.
	SaveCard(ctx context.Context, card *RateCard) error

	// DeactivateCard supersedes a card. Its accessorial rates remain owned
	// by it and are removed if the card is ever deleted.
	DeactivateCard(ctx context.Context, id RateCardID) error

	// ListCards returns all cards, newest effective date first.
	ListCards(ctx context.Context) ([]*RateCard, error)
}

// =============================================================================
// TRIP STORE
// =============================================================================

// TripStore exposes the dispatch-side records the engine reads.
type TripStore interface {
	// GetTrip returns a trip by id, or ErrTripNotFound.
	GetTrip(ctx context.Context, id TripID) (*Trip, error)

	// GetTripReport returns the arrival report for a trip, or nil if the
	// trip has not arrived yet.
	GetTripReport(ctx context.Context, id TripID) (*DriverTripReport, error)

	// TripsDispatchedIn returns trips whose dispatch date falls in the window.
	TripsDispatchedIn(ctx context.Context, window DateWindow) ([]*Trip, error)

	// SaveTrip and SaveTripReport exist for the capture workflow and seeds.
	SaveTrip(ctx context.Context, trip *Trip) error
	SaveTripReport(ctx context.Context, report *DriverTripReport) error
}
