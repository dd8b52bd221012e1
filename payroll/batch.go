/*
batch.go - Bulk operations over a pay period

PURPOSE:
  CalculateAllTripPays computes pay for every dispatched trip in a period's
  window with a bounded worker pool, and BulkApproveTripPays walks many
  records to APPROVED in one call.

ERROR ACCUMULATION:
  Batches never abort on the first failure. Each trip is an independent unit
  of work; failures are collected per item and the summary reports both
  counts so callers can retry the failed subset.

CONCURRENCY:
  The worker count is bounded (Service.BatchWorkers). Per-trip uniqueness is
  enforced by the store's atomic create, not by this loop, so two concurrent
  batch runs over the same period produce one record per trip with the loser
  reporting a conflict. The whole batch holds the period lock, so the period
  cannot close or lock mid-run. Bulk approval groups its ids by period and
  holds each period's lock the same way.
*/
package payroll

import (
	"context"
	"sort"
	"sync"

	"github.com/freightline/pay-engine/engine"
)

// =============================================================================
// CALCULATE ALL
// =============================================================================

// CalculateAllTripPays computes pay for every trip dispatched within the
// period's window that does not already have a TripPay. Trips that fail
// (missing report, no rate, ambiguous rate) are skipped and reported;
// context cancellation stops dispatching new trips but lets in-flight
// workers finish.
func (s *Service) CalculateAllTripPays(ctx context.Context, periodID engine.PayPeriodID) (*CalculateAllResult, error) {
	lock := s.periodLock(periodID)
	lock.Lock()
	defer lock.Unlock()

	period, err := s.Periods.GetPayPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if !period.AllowsRecalculation() {
		return nil, &InvalidTransitionError{
			Record: "pay period", ID: string(periodID),
			From: string(period.Status), To: string(period.Status),
			Reason: "batch calculation requires an open or closed period",
		}
	}

	trips, err := s.Trips.TripsDispatchedIn(ctx, period.Window)
	if err != nil {
		return nil, err
	}

	workers := s.BatchWorkers
	if workers <= 0 {
		workers = defaultBatchWorkers
	}

	var (
		wg     sync.WaitGroup
		sem    = make(chan struct{}, workers)
		mu     sync.Mutex
		result CalculateAllResult
	)

	for _, trip := range trips {
		if ctx.Err() != nil {
			break
		}

		existing, err := s.Pays.GetTripPayByTrip(ctx, trip.ID, period.ID)
		if err != nil {
			mu.Lock()
			result.Failed++
			result.Errors = append(result.Errors, TripError{TripID: trip.ID, Error: err.Error()})
			mu.Unlock()
			continue
		}
		if existing != nil {
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(trip *engine.Trip) {
			defer wg.Done()
			defer func() { <-sem }()

			_, err := s.calculateIntoPeriod(ctx, trip, period)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				result.Errors = append(result.Errors, TripError{TripID: trip.ID, Error: err.Error()})
				return
			}
			result.Calculated++
		}(trip)
	}

	wg.Wait()

	sort.Slice(result.Errors, func(i, j int) bool {
		return result.Errors[i].TripID < result.Errors[j].TripID
	})
	return &result, nil
}

// =============================================================================
// BULK APPROVE
// =============================================================================

// BulkApproveTripPays walks each record to APPROVED, stepping CALCULATED
// through REVIEWED on the way. DISPUTED and PAID records are never
// overwritten: they are skipped and reported. PENDING records fail with a
// per-id error, since uncomputed pay cannot be approved.
//
// Ids are grouped by pay period and each group runs under that period's
// lock, so close/lock/export cannot interleave with an in-flight approval
// and strand a record in an EXPORTED period.
func (s *Service) BulkApproveTripPays(ctx context.Context, ids []engine.TripPayID, actor string) (*BulkApproveResult, error) {
	result := &BulkApproveResult{}

	byPeriod := make(map[engine.PayPeriodID][]engine.TripPayID)
	var periods []engine.PayPeriodID
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		tp, err := s.Pays.GetTripPay(ctx, id)
		if err != nil {
			result.fail(id, err.Error())
			continue
		}
		if tp == nil {
			result.fail(id, "no such trip pay")
			continue
		}
		if _, seen := byPeriod[tp.PayPeriodID]; !seen {
			periods = append(periods, tp.PayPeriodID)
		}
		byPeriod[tp.PayPeriodID] = append(byPeriod[tp.PayPeriodID], id)
	}

	for _, periodID := range periods {
		if err := s.approveUnderPeriodLock(ctx, periodID, byPeriod[periodID], actor, result); err != nil {
			return result, err
		}
	}
	return result, nil
}

// approveUnderPeriodLock approves one period's worth of records while
// holding that period's lock. Records are re-read under the lock; their
// status may have moved since the caller grouped them.
func (s *Service) approveUnderPeriodLock(ctx context.Context, periodID engine.PayPeriodID,
	ids []engine.TripPayID, actor string, result *BulkApproveResult) error {
	lock := s.periodLock(periodID)
	lock.Lock()
	defer lock.Unlock()

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}

		tp, err := s.Pays.GetTripPay(ctx, id)
		if err != nil {
			result.fail(id, err.Error())
			continue
		}
		if tp == nil {
			result.fail(id, "no such trip pay")
			continue
		}

		switch tp.Status {
		case PayDisputed, PayPaid:
			result.Skipped = append(result.Skipped, id)
			continue
		case PayApproved:
			// Already there; nothing to do.
			continue
		case PayPending:
			result.fail(id, "trip pay has not been calculated")
			continue
		}

		if tp.Status == PayCalculated {
			if _, err := s.TransitionTripPay(ctx, id, PayReviewed, actor, ""); err != nil {
				result.fail(id, err.Error())
				continue
			}
		}
		if _, err := s.TransitionTripPay(ctx, id, PayApproved, actor, ""); err != nil {
			result.fail(id, err.Error())
			continue
		}
		result.Approved++
	}
	return nil
}
