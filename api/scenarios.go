/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the store with realistic
	data for testing and demos. Each scenario creates rate cards, trips,
	driver reports, and a pay period that demonstrate specific features.

AVAILABLE SCENARIOS:

	linehaul-basics:  Default per-mile card plus a carrier override
	lane-overrides:   Lane cards, a driver override, and a priority tie-break
	period-cycle:     A week of trips ready for batch calculation

HOW SCENARIOS WORK:
 1. Ensure an open pay period covering the demo dates
 2. Create rate cards via the factory (JSON definitions)
 3. Create trips and driver trip reports

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "linehaul-basics"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx, h)
 3. Add case to LoadScenario handler

NOTE:

	Scenarios are additive. Rate cards and trips upsert by id, so loading a
	scenario twice is harmless. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: LoadScenario, ListScenarios handlers
  - factory/ratecard.go: Rate card JSON definitions
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/freightline/pay-engine/engine"
	"github.com/freightline/pay-engine/payroll"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// ScenarioDTO describes one loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var scenarios = []ScenarioDTO{
	{
		ID:          "linehaul-basics",
		Name:        "Linehaul Basics",
		Description: "Default per-mile card, a carrier override, and one reported trip",
	},
	{
		ID:          "lane-overrides",
		Name:        "Lane Overrides",
		Description: "Lane-scoped cards with a driver override and a priority tie-break",
	},
	{
		ID:          "period-cycle",
		Name:        "Period Cycle",
		Description: "A week of trips ready for batch calculation and period close",
	},
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

// ListScenarios returns the available demo scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario loads a demo scenario by id.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	ctx := r.Context()
	var err error
	switch req.ScenarioID {
	case "linehaul-basics":
		err = h.loadLinehaulBasics(ctx)
	case "lane-overrides":
		err = h.loadLaneOverrides(ctx)
	case "period-cycle":
		err = h.loadPeriodCycle(ctx)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown scenario %q", req.ScenarioID), nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load scenario", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario_id": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadLinehaulBasics(ctx context.Context) error {
	period, err := h.ensureOpenPeriod(ctx)
	if err != nil {
		return err
	}

	cards := []string{
		`{
			"id": "demo-default",
			"rate_type": "DEFAULT",
			"rate_method": "PER_MILE",
			"per_mile": {"per_single_mile": "0.585", "per_double_mile": "0.62", "min_pay": "150.00"},
			"accessorials": {"per_single_drop_hook": "25.00", "per_chain_up": "40.00", "per_wait_hour": "22.50"},
			"cut_pay": {"per_work_hour": "28.00", "per_single_cut_mile": "0.45"},
			"effective_date": "2026-01-01"
		}`,
		`{
			"id": "demo-carrier-acme",
			"rate_type": "CARRIER",
			"carrier_id": "acme",
			"rate_method": "FLAT_RATE",
			"flat_rate": {"amount": "425.00"},
			"effective_date": "2026-01-01"
		}`,
	}
	if err := h.saveCards(ctx, cards); err != nil {
		return err
	}

	miles := decimal.NewFromInt(420)
	trip := &engine.Trip{
		ID:            "demo-trip-1",
		DriverID:      "drv-100",
		DispatchDate:  period.Window.Start,
		TrailerConfig: engine.TrailerSingle,
		Miles:         &miles,
	}
	if err := h.Service.Trips.SaveTrip(ctx, trip); err != nil {
		return err
	}

	waitStart := time.Date(2026, 8, 24, 14, 0, 0, 0, time.UTC)
	waitEnd := waitStart.Add(90 * time.Minute)
	report := &engine.DriverTripReport{
		TripID:           trip.ID,
		DropAndHookCount: 2,
		WaitTimeStart:    &waitStart,
		WaitTimeEnd:      &waitEnd,
		WaitTimeReason:   "dock congestion",
		Notes:            "held at receiver dock 3",
		Verified:         true,
		PayApproved:      true,
	}
	return h.Service.Trips.SaveTripReport(ctx, report)
}

func (h *Handler) loadLaneOverrides(ctx context.Context) error {
	period, err := h.ensureOpenPeriod(ctx)
	if err != nil {
		return err
	}

	cards := []string{
		`{
			"id": "demo-lane-pdx-sea",
			"rate_type": "OD_PAIR",
			"origin_terminal_id": "PDX",
			"destination_terminal_id": "SEA",
			"rate_method": "PER_MILE",
			"per_mile": {"per_single_mile": "0.71"},
			"effective_date": "2026-01-01"
		}`,
		`{
			"id": "demo-lane-pdx-sea-winter",
			"rate_type": "OD_PAIR",
			"origin_terminal_id": "PDX",
			"destination_terminal_id": "SEA",
			"rate_method": "PER_MILE",
			"per_mile": {"per_single_mile": "0.78"},
			"priority": true,
			"effective_date": "2026-01-01"
		}`,
		`{
			"id": "demo-driver-205",
			"rate_type": "DRIVER",
			"driver_id": "drv-205",
			"rate_method": "HOURLY",
			"hourly": {"per_work_hour": "34.00", "per_stop_hour": "17.00"},
			"effective_date": "2026-01-01"
		}`,
	}
	if err := h.saveCards(ctx, cards); err != nil {
		return err
	}

	miles := decimal.NewFromInt(174)
	origin := engine.TerminalID("PDX")
	dest := engine.TerminalID("SEA")
	trip := &engine.Trip{
		ID:                  "demo-trip-lane",
		DriverID:            "drv-101",
		OriginTerminal:      &origin,
		DestinationTerminal: &dest,
		DispatchDate:        period.Window.Start,
		TrailerConfig:       engine.TrailerSingle,
		Miles:               &miles,
	}
	if err := h.Service.Trips.SaveTrip(ctx, trip); err != nil {
		return err
	}
	return h.Service.Trips.SaveTripReport(ctx, &engine.DriverTripReport{
		TripID:      trip.ID,
		Verified:    true,
		PayApproved: true,
	})
}

func (h *Handler) loadPeriodCycle(ctx context.Context) error {
	period, err := h.ensureOpenPeriod(ctx)
	if err != nil {
		return err
	}
	if err := h.saveCards(ctx, []string{`{
		"id": "demo-cycle-default",
		"rate_type": "DEFAULT",
		"rate_method": "PER_MILE",
		"per_mile": {"per_single_mile": "0.60", "per_double_mile": "0.66", "per_triple_mile": "0.74"},
		"accessorials": {"per_single_drop_hook": "25.00", "per_double_drop_hook": "32.00"},
		"effective_date": "2026-01-01"
	}`}); err != nil {
		return err
	}

	configs := []engine.TrailerConfig{
		engine.TrailerSingle, engine.TrailerDouble, engine.TrailerSingle,
		engine.TrailerTriple, engine.TrailerDouble,
	}
	for i, cfg := range configs {
		miles := decimal.NewFromInt(int64(200 + 55*i))
		trip := &engine.Trip{
			ID:            engine.TripID(fmt.Sprintf("demo-cycle-%d", i+1)),
			DriverID:      engine.DriverID(fmt.Sprintf("drv-%d", 300+i)),
			DispatchDate:  period.Window.Start.AddDays(i),
			TrailerConfig: cfg,
			Miles:         &miles,
		}
		if err := h.Service.Trips.SaveTrip(ctx, trip); err != nil {
			return err
		}
		if err := h.Service.Trips.SaveTripReport(ctx, &engine.DriverTripReport{
			TripID:           trip.ID,
			DropAndHookCount: i % 3,
			Verified:         true,
			PayApproved:      true,
		}); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) saveCards(ctx context.Context, cardJSONs []string) error {
	for _, js := range cardJSONs {
		card, err := h.Factory.ParseRateCard(js)
		if err != nil {
			return err
		}
		if err := h.catalog().SaveCard(ctx, card); err != nil {
			return err
		}
	}
	return nil
}

// ensureOpenPeriod returns the open pay period, creating a week-long one
// starting today when none exists.
func (h *Handler) ensureOpenPeriod(ctx context.Context) (*payroll.PayPeriod, error) {
	period, err := h.Service.FindOpenPeriod(ctx)
	if err == nil {
		return period, nil
	}
	if !errors.Is(err, engine.ErrNoOpenPayPeriod) {
		return nil, err
	}
	start := engine.Today()
	return h.Service.CreatePayPeriod(ctx, engine.DateWindow{
		Start: start,
		End:   start.AddDays(6),
	})
}
