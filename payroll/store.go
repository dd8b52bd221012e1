/*
store.go - Persistence interfaces for payroll records

PURPOSE:
  Defines how trip pays, pay periods, and cut pays are persisted, and the
  append-only audit log recording every lifecycle transition.

ATOMIC CREATE-OR-FAIL:
  One TripPay per trip per pay period is enforced by CreateTripPay, which
  must fail with engine.ErrConcurrentModification when a record already
  exists for (tripID, payPeriodID). Uniqueness is NOT a read-then-write
  check in the service; under concurrent batch runs only the store (backed
  by a unique index) can enforce it.

AUDIT LOG:
  Append-only. Recomputation replaces pay components on the TripPay row, but
  the history of transitions lives here and is never rewritten.

IMPLEMENTATIONS:
  - engine/store/memory.go (payroll side lives in the same package)
  - store/sqlite
*/
package payroll

import (
	"context"
	"time"

	"github.com/freightline/pay-engine/engine"
)

// =============================================================================
// TRIP PAY STORE
// =============================================================================

type TripPayStore interface {
	// CreateTripPay persists a new record atomically. Returns
	// engine.ErrConcurrentModification if a record already exists for the
	// same (TripID, PayPeriodID).
	CreateTripPay(ctx context.Context, tp *TripPay) error

	// GetTripPay returns a record by id, or nil when absent.
	GetTripPay(ctx context.Context, id engine.TripPayID) (*TripPay, error)

	// GetTripPayByTrip returns the record for a trip within a period, or nil.
	GetTripPayByTrip(ctx context.Context, tripID engine.TripID, periodID engine.PayPeriodID) (*TripPay, error)

	// UpdateTripPay persists component or status changes to an existing record.
	UpdateTripPay(ctx context.Context, tp *TripPay) error

	// ListTripPays returns every record in a period.
	ListTripPays(ctx context.Context, periodID engine.PayPeriodID) ([]*TripPay, error)
}

// =============================================================================
// PAY PERIOD STORE
// =============================================================================

type PayPeriodStore interface {
	// CreatePayPeriod persists a new period. Implementations must reject
	// a second OPEN period and overlapping windows.
	CreatePayPeriod(ctx context.Context, p *PayPeriod) error

	// GetPayPeriod returns a period by id, or engine.ErrPayPeriodNotFound.
	GetPayPeriod(ctx context.Context, id engine.PayPeriodID) (*PayPeriod, error)

	// FindOpenPeriod returns the single OPEN period, or
	// engine.ErrNoOpenPayPeriod. Represented as a query, not cached global
	// state: nothing prevents a gap during which no period is open.
	FindOpenPeriod(ctx context.Context) (*PayPeriod, error)

	// UpdatePayPeriod persists a status change.
	UpdatePayPeriod(ctx context.Context, p *PayPeriod) error

	// ListPayPeriods returns all periods, newest first.
	ListPayPeriods(ctx context.Context) ([]*PayPeriod, error)
}

// =============================================================================
// CUT PAY STORE
// =============================================================================

type CutPayStore interface {
	CreateCutPay(ctx context.Context, cp *CutPay) error
	GetCutPay(ctx context.Context, id engine.CutPayRequestID) (*CutPay, error)
	UpdateCutPay(ctx context.Context, cp *CutPay) error
	ListCutPays(ctx context.Context, periodID engine.PayPeriodID) ([]*CutPay, error)
}

// =============================================================================
// AUDIT LOG - Append-only transition history
// =============================================================================

type AuditAction string

const (
	AuditCalculated   AuditAction = "calculated"
	AuditRecalculated AuditAction = "recalculated"
	AuditTransitioned AuditAction = "transitioned"
	AuditAdjusted     AuditAction = "adjusted"
	AuditExported     AuditAction = "exported"
	AuditPeriodMoved  AuditAction = "period_transitioned"
)

// AuditEntry records who moved what, when, and between which states.
type AuditEntry struct {
	ID         string
	At         time.Time
	ActorID    string
	Action     AuditAction
	TripPayID  engine.TripPayID
	PeriodID   engine.PayPeriodID
	FromStatus string
	ToStatus   string
	Notes      string
}

// AuditLog stores audit entries. Append-only; no update, no delete.
type AuditLog interface {
	Append(ctx context.Context, entry AuditEntry) error
	ByTripPay(ctx context.Context, id engine.TripPayID) ([]AuditEntry, error)
	ByPeriod(ctx context.Context, id engine.PayPeriodID) ([]AuditEntry, error)
}
