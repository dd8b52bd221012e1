/*
service.go - Payroll service: calculation, transitions, adjustments

PURPOSE:
  Orchestrates the engine (resolver + calculators) against the stores, and
  owns every lifecycle move. This is the library/service boundary the
  surrounding dispatch and payroll controllers invoke.

OPERATIONS (single-item; batch operations live in batch.go):
  CalculateTripPay:    resolve rate, compute breakdown, create-or-recompute
  TransitionTripPay:   one chokepoint for all trip pay state moves
  AdjustTripPay:       reviewer-only bonus/deductions mutation
  TransitionPayPeriod: close/lock/export, serialized per period
  CalculateCutPay:     non-driven compensation

PERIOD SERIALIZATION:
  Close/lock/export and the batch operations take an exclusive lock scoped
  to the pay period id, so a period can never close underneath an in-flight
  "calculate all" against it.

FAILURE POLICY:
  Single-item operations fail fast with a typed error. Nothing retries
  automatically: pay is financial data, every failure is surfaced for human
  remediation.
*/
package payroll

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/freightline/pay-engine/engine"
)

// =============================================================================
// SERVICE
// =============================================================================

const defaultBatchWorkers = 4

// Service wires the engine to the stores and owns the lifecycles.
type Service struct {
	Resolver   *engine.Resolver
	Calculator *engine.Calculator
	CutPayCalc *engine.CutPayCalculator

	Trips   engine.TripStore
	Pays    TripPayStore
	Periods PayPeriodStore
	CutPays CutPayStore
	Audit   AuditLog

	// BatchWorkers bounds parallelism in CalculateAllTripPays.
	BatchWorkers int

	mu          sync.Mutex
	periodLocks map[engine.PayPeriodID]*sync.Mutex
}

// NewService creates a payroll service over the given catalog and stores.
func NewService(catalog engine.RateCardCatalog, trips engine.TripStore,
	pays TripPayStore, periods PayPeriodStore, cutPays CutPayStore, audit AuditLog) *Service {
	return &Service{
		Resolver:     engine.NewResolver(catalog),
		Calculator:   &engine.Calculator{},
		CutPayCalc:   &engine.CutPayCalculator{},
		Trips:        trips,
		Pays:         pays,
		Periods:      periods,
		CutPays:      cutPays,
		Audit:        audit,
		BatchWorkers: defaultBatchWorkers,
		periodLocks:  make(map[engine.PayPeriodID]*sync.Mutex),
	}
}

// periodLock returns the exclusive lock for a period id, creating it on
// first use. Close/lock/export and batch operations all serialize on it.
func (s *Service) periodLock(id engine.PayPeriodID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.periodLocks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.periodLocks[id] = lock
	}
	return lock
}

// =============================================================================
// TRIP PAY CALCULATION
// =============================================================================

// CalculateTripPay resolves the rate for a trip, computes its breakdown,
// and creates (or recomputes) the TripPay in the trip's pay period.
//
// New records move PENDING -> CALCULATED automatically on success; that
// transition is never user-initiated. An existing record is recomputed in
// place only while its status is PENDING or CALCULATED and its period still
// permits numeric mutation; reviewed and later records must be disputed
// back first.
func (s *Service) CalculateTripPay(ctx context.Context, tripID engine.TripID) (*TripPay, error) {
	trip, err := s.Trips.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	period, err := s.Periods.FindOpenPeriod(ctx)
	if err != nil {
		return nil, err
	}
	if !period.Window.Contains(trip.DispatchDate) {
		return nil, fmt.Errorf("trip %s dispatched %s outside open pay period %s",
			trip.ID, trip.DispatchDate, period.Window)
	}

	return s.calculateIntoPeriod(ctx, trip, period)
}

// computeBreakdown runs the full trip pipeline: load and validate the
// arrival report, resolve the rate card, compute the breakdown.
func (s *Service) computeBreakdown(ctx context.Context, trip *engine.Trip) (engine.PayBreakdown, error) {
	report, err := s.Trips.GetTripReport(ctx, trip.ID)
	if err != nil {
		return engine.PayBreakdown{}, err
	}
	if report == nil {
		return engine.PayBreakdown{}, &engine.TripReportError{TripID: trip.ID, Reason: "trip has not arrived"}
	}
	if err := report.Validate(); err != nil {
		return engine.PayBreakdown{}, err
	}

	card, err := s.Resolver.Resolve(ctx, trip.RateContext(), trip.DispatchDate)
	if err != nil {
		return engine.PayBreakdown{}, err
	}

	return s.Calculator.Calculate(trip, report, card)
}

// calculateIntoPeriod is the atomic per-trip unit of work shared by the
// single-trip and batch paths. The caller guarantees the trip's dispatch
// date falls in the period's window. The single-trip path only ever
// reaches here with the OPEN period; the batch path may also create
// missing records in a CLOSED period, so the creation gate here is the
// recalculation gate, not the arrival-time creation gate.
func (s *Service) calculateIntoPeriod(ctx context.Context, trip *engine.Trip, period *PayPeriod) (*TripPay, error) {
	breakdown, err := s.computeBreakdown(ctx, trip)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	existing, err := s.Pays.GetTripPayByTrip(ctx, trip.ID, period.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.recompute(ctx, existing, period, breakdown, now)
	}

	if !period.AllowsRecalculation() {
		return nil, &InvalidTransitionError{
			Record: "trip pay", ID: string(trip.ID),
			From: string(period.Status), To: string(PayCalculated),
			Reason: "pay period is frozen",
		}
	}

	tp := &TripPay{
		ID:          engine.TripPayID(uuid.NewString()),
		TripID:      trip.ID,
		PayPeriodID: period.ID,
		DriverID:    trip.DriverID,
		Status:      PayCalculated,
		CreatedAt:   now,
	}
	tp.ApplyBreakdown(breakdown, now)

	if err := s.Pays.CreateTripPay(ctx, tp); err != nil {
		return nil, err
	}

	s.audit(ctx, AuditEntry{
		Action: AuditCalculated, TripPayID: tp.ID, PeriodID: period.ID,
		FromStatus: string(PayPending), ToStatus: string(PayCalculated),
	})
	return tp, nil
}

// recompute replaces the pay components of an existing record. The audit
// trail of prior transitions is preserved as a log, never overwritten.
func (s *Service) recompute(ctx context.Context, tp *TripPay, period *PayPeriod, breakdown engine.PayBreakdown, now time.Time) (*TripPay, error) {
	if !period.AllowsNumericMutation() {
		return nil, &InvalidTransitionError{
			Record: "trip pay", ID: string(tp.ID),
			From: string(tp.Status), To: string(PayCalculated),
			Reason: "pay period is " + string(period.Status) + ", numeric mutation forbidden",
		}
	}
	if tp.Status != PayPending && tp.Status != PayCalculated {
		return nil, &InvalidTransitionError{
			Record: "trip pay", ID: string(tp.ID),
			From: string(tp.Status), To: string(PayCalculated),
			Reason: "dispute the record before recomputing",
		}
	}

	prev := tp.Status
	tp.ApplyBreakdown(breakdown, now)
	tp.Status = PayCalculated
	if err := s.Pays.UpdateTripPay(ctx, tp); err != nil {
		return nil, err
	}

	s.audit(ctx, AuditEntry{
		Action: AuditRecalculated, TripPayID: tp.ID, PeriodID: tp.PayPeriodID,
		FromStatus: string(prev), ToStatus: string(PayCalculated),
	})
	return tp, nil
}

// =============================================================================
// TRIP PAY TRANSITIONS
// =============================================================================

// TransitionTripPay moves a trip pay through its lifecycle. Disputing
// requires notes; moving DISPUTED back to CALCULATED forces recomputation;
// PAID is reserved for the export/payment step, which runs once the period
// is LOCKED.
func (s *Service) TransitionTripPay(ctx context.Context, id engine.TripPayID, target TripPayStatus, actor, notes string) (*TripPay, error) {
	tp, err := s.Pays.GetTripPay(ctx, id)
	if err != nil {
		return nil, err
	}
	if tp == nil {
		return nil, fmt.Errorf("trip pay %s: %w", id, engine.ErrTripNotFound)
	}

	period, err := s.Periods.GetPayPeriod(ctx, tp.PayPeriodID)
	if err != nil {
		return nil, err
	}

	if !CanTransitionTripPay(tp.Status, target) {
		return nil, &InvalidTransitionError{
			Record: "trip pay", ID: string(id),
			From: string(tp.Status), To: string(target),
		}
	}
	if err := s.guardPeriodForTransition(period, tp, target); err != nil {
		return nil, err
	}
	if target == PayDisputed && notes == "" {
		return nil, &InvalidTransitionError{
			Record: "trip pay", ID: string(id),
			From: string(tp.Status), To: string(target),
			Reason: "dispute requires a note",
		}
	}

	from := tp.Status
	now := time.Now().UTC()

	// DISPUTED -> CALCULATED forces a fresh computation.
	if from == PayDisputed && target == PayCalculated {
		if !period.AllowsNumericMutation() {
			return nil, &InvalidTransitionError{
				Record: "trip pay", ID: string(id),
				From: string(from), To: string(target),
				Reason: "pay period is " + string(period.Status) + ", numeric mutation forbidden",
			}
		}
		trip, err := s.Trips.GetTrip(ctx, tp.TripID)
		if err != nil {
			return nil, err
		}
		breakdown, err := s.computeBreakdown(ctx, trip)
		if err != nil {
			return nil, err
		}
		tp.ApplyBreakdown(breakdown, now)
		tp.Status = PayCalculated
		if err := s.Pays.UpdateTripPay(ctx, tp); err != nil {
			return nil, err
		}
		s.audit(ctx, AuditEntry{
			Action: AuditRecalculated, TripPayID: tp.ID, PeriodID: tp.PayPeriodID,
			ActorID: actor, FromStatus: string(from), ToStatus: string(PayCalculated), Notes: notes,
		})
		return tp, nil
	}

	tp.Status = target
	tp.UpdatedAt = now
	switch target {
	case PayReviewed:
		tp.ReviewedAt = &now
		tp.ReviewedBy = actor
	case PayApproved:
		tp.ApprovedAt = &now
		tp.ApprovedBy = actor
	case PayPaid:
		tp.PaidAt = &now
	}

	if err := s.Pays.UpdateTripPay(ctx, tp); err != nil {
		return nil, err
	}

	s.audit(ctx, AuditEntry{
		Action: AuditTransitioned, TripPayID: tp.ID, PeriodID: tp.PayPeriodID,
		ActorID: actor, FromStatus: string(from), ToStatus: string(target), Notes: notes,
	})
	return tp, nil
}

// guardPeriodForTransition enforces what the period's status permits:
// OPEN/CLOSED allow transitions up to APPROVED, LOCKED allows only the move
// to PAID, EXPORTED allows nothing.
func (s *Service) guardPeriodForTransition(period *PayPeriod, tp *TripPay, target TripPayStatus) error {
	switch period.Status {
	case PeriodOpen, PeriodClosed:
		if target == PayPaid {
			return &InvalidTransitionError{
				Record: "trip pay", ID: string(tp.ID),
				From: string(tp.Status), To: string(target),
				Reason: "paid is set by the export step once the period is locked",
			}
		}
	case PeriodLocked:
		if target != PayPaid {
			return &InvalidTransitionError{
				Record: "trip pay", ID: string(tp.ID),
				From: string(tp.Status), To: string(target),
				Reason: "pay period is locked",
			}
		}
	case PeriodExported:
		return &InvalidTransitionError{
			Record: "trip pay", ID: string(tp.ID),
			From: string(tp.Status), To: string(target),
			Reason: "pay period is exported",
		}
	}
	return nil
}

// =============================================================================
// REVIEWER ADJUSTMENTS
// =============================================================================

// AdjustTripPay sets bonus pay and deductions, the only fields a reviewer
// may touch directly. Adjusting them never re-triggers rate resolution; the
// gross total is recomputed from components on read.
func (s *Service) AdjustTripPay(ctx context.Context, id engine.TripPayID, bonus, deductions engine.Money, actor, notes string) (*TripPay, error) {
	tp, err := s.Pays.GetTripPay(ctx, id)
	if err != nil {
		return nil, err
	}
	if tp == nil {
		return nil, fmt.Errorf("trip pay %s: %w", id, engine.ErrTripNotFound)
	}

	period, err := s.Periods.GetPayPeriod(ctx, tp.PayPeriodID)
	if err != nil {
		return nil, err
	}
	if !period.AllowsNumericMutation() {
		return nil, &InvalidTransitionError{
			Record: "trip pay", ID: string(id),
			From: string(tp.Status), To: string(tp.Status),
			Reason: "pay period is " + string(period.Status) + ", numeric mutation forbidden",
		}
	}
	if tp.Status == PayPaid {
		return nil, &InvalidTransitionError{
			Record: "trip pay", ID: string(id),
			From: string(PayPaid), To: string(PayPaid),
			Reason: "paid records cannot be adjusted",
		}
	}

	now := time.Now().UTC()
	tp.BonusPay = bonus
	tp.Deductions = deductions
	tp.UpdatedAt = now
	if err := s.Pays.UpdateTripPay(ctx, tp); err != nil {
		return nil, err
	}

	s.audit(ctx, AuditEntry{
		Action: AuditAdjusted, TripPayID: tp.ID, PeriodID: tp.PayPeriodID,
		ActorID: actor, FromStatus: string(tp.Status), ToStatus: string(tp.Status), Notes: notes,
	})
	return tp, nil
}

// =============================================================================
// CUT PAY
// =============================================================================

// CalculateCutPay computes non-driven compensation for a validated request
// and records it in the open pay period.
func (s *Service) CalculateCutPay(ctx context.Context, req *engine.CutPayRequest) (*CutPay, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	period, err := s.Periods.FindOpenPeriod(ctx)
	if err != nil {
		return nil, err
	}
	if !period.AllowsTripPayCreation() {
		return nil, fmt.Errorf("pay period %s no longer accepts cut pay requests", period.ID)
	}

	driverID := req.DriverID
	card, err := s.Resolver.Resolve(ctx, engine.RateContext{DriverID: &driverID}, req.RequestDate)
	if err != nil {
		return nil, err
	}

	result, err := s.CutPayCalc.Calculate(req, card)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	cp := &CutPay{
		ID:            req.ID,
		DriverID:      req.DriverID,
		PayPeriodID:   period.ID,
		RateCardID:    card.ID,
		TrailerConfig: req.TrailerConfig,
		ReasonCode:    req.ReasonCode,
		Notes:         req.Notes,
		BasePay:       result.BasePay,
		Status:        PayCalculated,
		CalculatedAt:  &now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if cp.ID == "" {
		cp.ID = engine.CutPayRequestID(uuid.NewString())
	}
	if req.HoursRequested != nil {
		cp.HoursRequested = req.HoursRequested.String()
	}
	if req.MilesRequested != nil {
		cp.MilesRequested = req.MilesRequested.String()
	}

	if err := s.CutPays.CreateCutPay(ctx, cp); err != nil {
		return nil, err
	}
	return cp, nil
}

// =============================================================================
// PAY PERIODS
// =============================================================================

// CreatePayPeriod opens a new period. The store rejects overlapping windows
// and a second OPEN period.
func (s *Service) CreatePayPeriod(ctx context.Context, window engine.DateWindow) (*PayPeriod, error) {
	if window.End.Before(window.Start) {
		return nil, fmt.Errorf("invalid pay period window %s: end before start", window)
	}
	p := &PayPeriod{
		ID:        engine.PayPeriodID(uuid.NewString()),
		Window:    window,
		Status:    PeriodOpen,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Periods.CreatePayPeriod(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// FindOpenPeriod returns the single open period. An explicit query, not
// cached global state.
func (s *Service) FindOpenPeriod(ctx context.Context) (*PayPeriod, error) {
	return s.Periods.FindOpenPeriod(ctx)
}

// TransitionPayPeriod moves a period through OPEN -> CLOSED -> LOCKED ->
// EXPORTED. The per-period lock serializes this against in-flight batch
// operations: a period cannot close while a calculate-all is running.
func (s *Service) TransitionPayPeriod(ctx context.Context, id engine.PayPeriodID, target PayPeriodStatus) (*PayPeriod, error) {
	lock := s.periodLock(id)
	lock.Lock()
	defer lock.Unlock()

	period, err := s.Periods.GetPayPeriod(ctx, id)
	if err != nil {
		return nil, err
	}

	if !CanTransitionPayPeriod(period.Status, target) {
		return nil, &InvalidTransitionError{
			Record: "pay period", ID: string(id),
			From: string(period.Status), To: string(target),
		}
	}

	from := period.Status
	now := time.Now().UTC()
	period.Status = target
	switch target {
	case PeriodClosed:
		period.ClosedAt = &now
	case PeriodLocked:
		period.LockedAt = &now
	case PeriodExported:
		period.ExportBatchID = uuid.NewString()
		period.ExportedAt = &now
	}

	if err := s.Periods.UpdatePayPeriod(ctx, period); err != nil {
		return nil, err
	}

	if target == PeriodExported {
		if err := s.exportApprovedPays(ctx, period, now); err != nil {
			return nil, err
		}
	}

	s.audit(ctx, AuditEntry{
		Action: AuditPeriodMoved, PeriodID: period.ID,
		FromStatus: string(from), ToStatus: string(target),
	})
	return period, nil
}

// exportApprovedPays marks every APPROVED pay in the period PAID and stamps
// the export timestamp. Records in other states are left for remediation.
func (s *Service) exportApprovedPays(ctx context.Context, period *PayPeriod, now time.Time) error {
	pays, err := s.Pays.ListTripPays(ctx, period.ID)
	if err != nil {
		return err
	}
	for _, tp := range pays {
		if tp.Status != PayApproved {
			continue
		}
		tp.Status = PayPaid
		tp.PaidAt = &now
		tp.ExportedAt = &now
		tp.UpdatedAt = now
		if err := s.Pays.UpdateTripPay(ctx, tp); err != nil {
			return err
		}
		s.audit(ctx, AuditEntry{
			Action: AuditExported, TripPayID: tp.ID, PeriodID: period.ID,
			FromStatus: string(PayApproved), ToStatus: string(PayPaid),
			Notes: "export batch " + period.ExportBatchID,
		})
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Service) audit(ctx context.Context, entry AuditEntry) {
	if s.Audit == nil {
		return
	}
	entry.ID = uuid.NewString()
	entry.At = time.Now().UTC()
	// Audit append failures never fail the operation they describe.
	_ = s.Audit.Append(ctx, entry)
}
