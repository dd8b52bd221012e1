// Package store provides in-memory store implementations (for testing/dev).
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/freightline/pay-engine/engine"
	"github.com/freightline/pay-engine/payroll"
)

// =============================================================================
// MEMORY CATALOG - In-memory rate card catalog
// =============================================================================

type MemoryCatalog struct {
	mu    sync.RWMutex
	cards map[engine.RateCardID]*engine.RateCard
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{cards: make(map[engine.RateCardID]*engine.RateCard)}
}

func (m *MemoryCatalog) SaveCard(_ context.Context, card *engine.RateCard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *card
	m.cards[card.ID] = &cp
	return nil
}

func (m *MemoryCatalog) GetCard(_ context.Context, id engine.RateCardID) (*engine.RateCard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	card, ok := m.cards[id]
	if !ok {
		return nil, fmt.Errorf("rate card %s: %w", id, engine.ErrRateNotFound)
	}
	cp := *card
	return &cp, nil
}

// ActiveCards returns every active card effective on asOf. The resolver
// applies scope matching itself, so over-returning would also be fine.
func (m *MemoryCatalog) ActiveCards(_ context.Context, asOf engine.Date) ([]*engine.RateCard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*engine.RateCard
	for _, card := range m.cards {
		if !card.Active || !card.EffectiveOn(asOf) {
			continue
		}
		cp := *card
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MemoryCatalog) DeactivateCard(_ context.Context, id engine.RateCardID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	card, ok := m.cards[id]
	if !ok {
		return fmt.Errorf("rate card %s: %w", id, engine.ErrRateNotFound)
	}
	card.Active = false
	return nil
}

func (m *MemoryCatalog) ListCards(_ context.Context) ([]*engine.RateCard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*engine.RateCard
	for _, card := range m.cards {
		cp := *card
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].EffectiveDate.Equal(result[j].EffectiveDate) {
			return result[j].EffectiveDate.Before(result[i].EffectiveDate)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// =============================================================================
// MEMORY TRIP STORE
// =============================================================================

type MemoryTrips struct {
	mu      sync.RWMutex
	trips   map[engine.TripID]*engine.Trip
	reports map[engine.TripID]*engine.DriverTripReport
}

func NewMemoryTrips() *MemoryTrips {
	return &MemoryTrips{
		trips:   make(map[engine.TripID]*engine.Trip),
		reports: make(map[engine.TripID]*engine.DriverTripReport),
	}
}

func (m *MemoryTrips) SaveTrip(_ context.Context, trip *engine.Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *trip
	m.trips[trip.ID] = &cp
	return nil
}

func (m *MemoryTrips) GetTrip(_ context.Context, id engine.TripID) (*engine.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil, fmt.Errorf("trip %s: %w", id, engine.ErrTripNotFound)
	}
	cp := *trip
	return &cp, nil
}

func (m *MemoryTrips) SaveTripReport(_ context.Context, report *engine.DriverTripReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *report
	m.reports[report.TripID] = &cp
	return nil
}

func (m *MemoryTrips) GetTripReport(_ context.Context, id engine.TripID) (*engine.DriverTripReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	report, ok := m.reports[id]
	if !ok {
		return nil, nil
	}
	cp := *report
	return &cp, nil
}

func (m *MemoryTrips) TripsDispatchedIn(_ context.Context, window engine.DateWindow) ([]*engine.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*engine.Trip
	for _, trip := range m.trips {
		if window.Contains(trip.DispatchDate) {
			cp := *trip
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// =============================================================================
// MEMORY PAYROLL STORES
// =============================================================================

type tripPeriodKey struct {
	TripID      engine.TripID
	PayPeriodID engine.PayPeriodID
}

type MemoryTripPays struct {
	mu     sync.Mutex
	byID   map[engine.TripPayID]*payroll.TripPay
	byTrip map[tripPeriodKey]engine.TripPayID
}

func NewMemoryTripPays() *MemoryTripPays {
	return &MemoryTripPays{
		byID:   make(map[engine.TripPayID]*payroll.TripPay),
		byTrip: make(map[tripPeriodKey]engine.TripPayID),
	}
}

// CreateTripPay is atomic create-or-fail: the uniqueness check and the
// insert happen under one lock, matching the unique index the sqlite store
// relies on.
func (m *MemoryTripPays) CreateTripPay(_ context.Context, tp *payroll.TripPay) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := tripPeriodKey{TripID: tp.TripID, PayPeriodID: tp.PayPeriodID}
	if _, exists := m.byTrip[k]; exists {
		return fmt.Errorf("trip pay for trip %s in period %s: %w",
			tp.TripID, tp.PayPeriodID, engine.ErrConcurrentModification)
	}

	cp := *tp
	m.byID[tp.ID] = &cp
	m.byTrip[k] = tp.ID
	return nil
}

func (m *MemoryTripPays) GetTripPay(_ context.Context, id engine.TripPayID) (*payroll.TripPay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tp, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *tp
	return &cp, nil
}

func (m *MemoryTripPays) GetTripPayByTrip(_ context.Context, tripID engine.TripID, periodID engine.PayPeriodID) (*payroll.TripPay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byTrip[tripPeriodKey{TripID: tripID, PayPeriodID: periodID}]
	if !ok {
		return nil, nil
	}
	cp := *m.byID[id]
	return &cp, nil
}

func (m *MemoryTripPays) UpdateTripPay(_ context.Context, tp *payroll.TripPay) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[tp.ID]; !ok {
		return fmt.Errorf("trip pay %s: %w", tp.ID, engine.ErrTripNotFound)
	}
	cp := *tp
	m.byID[tp.ID] = &cp
	return nil
}

func (m *MemoryTripPays) ListTripPays(_ context.Context, periodID engine.PayPeriodID) ([]*payroll.TripPay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*payroll.TripPay
	for _, tp := range m.byID {
		if tp.PayPeriodID == periodID {
			cp := *tp
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// =============================================================================
// MEMORY PAY PERIOD STORE
// =============================================================================

type MemoryPayPeriods struct {
	mu      sync.Mutex
	periods map[engine.PayPeriodID]*payroll.PayPeriod
}

func NewMemoryPayPeriods() *MemoryPayPeriods {
	return &MemoryPayPeriods{periods: make(map[engine.PayPeriodID]*payroll.PayPeriod)}
}

// CreatePayPeriod rejects a second OPEN period and overlapping windows
// under one lock.
func (m *MemoryPayPeriods) CreatePayPeriod(_ context.Context, p *payroll.PayPeriod) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.periods {
		if existing.Status == payroll.PeriodOpen && p.Status == payroll.PeriodOpen {
			return fmt.Errorf("pay period %s is already open: %w",
				existing.ID, engine.ErrConcurrentModification)
		}
		if existing.Window.Overlaps(p.Window) {
			return fmt.Errorf("pay period window %s overlaps %s: %w",
				p.Window, existing.Window, engine.ErrConcurrentModification)
		}
	}

	cp := *p
	m.periods[p.ID] = &cp
	return nil
}

func (m *MemoryPayPeriods) GetPayPeriod(_ context.Context, id engine.PayPeriodID) (*payroll.PayPeriod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.periods[id]
	if !ok {
		return nil, fmt.Errorf("pay period %s: %w", id, engine.ErrPayPeriodNotFound)
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryPayPeriods) FindOpenPeriod(_ context.Context) (*payroll.PayPeriod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.periods {
		if p.Status == payroll.PeriodOpen {
			cp := *p
			return &cp, nil
		}
	}
	return nil, engine.ErrNoOpenPayPeriod
}

func (m *MemoryPayPeriods) UpdatePayPeriod(_ context.Context, p *payroll.PayPeriod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.periods[p.ID]; !ok {
		return fmt.Errorf("pay period %s: %w", p.ID, engine.ErrPayPeriodNotFound)
	}
	cp := *p
	m.periods[p.ID] = &cp
	return nil
}

func (m *MemoryPayPeriods) ListPayPeriods(_ context.Context) ([]*payroll.PayPeriod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*payroll.PayPeriod
	for _, p := range m.periods {
		cp := *p
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[j].Window.Start.Before(result[i].Window.Start)
	})
	return result, nil
}

// =============================================================================
// MEMORY CUT PAY STORE
// =============================================================================

type MemoryCutPays struct {
	mu   sync.Mutex
	byID map[engine.CutPayRequestID]*payroll.CutPay
}

func NewMemoryCutPays() *MemoryCutPays {
	return &MemoryCutPays{byID: make(map[engine.CutPayRequestID]*payroll.CutPay)}
}

func (m *MemoryCutPays) CreateCutPay(_ context.Context, cp *payroll.CutPay) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byID[cp.ID]; exists {
		return fmt.Errorf("cut pay %s: %w", cp.ID, engine.ErrConcurrentModification)
	}
	c := *cp
	m.byID[cp.ID] = &c
	return nil
}

func (m *MemoryCutPays) GetCutPay(_ context.Context, id engine.CutPayRequestID) (*payroll.CutPay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	c := *cp
	return &c, nil
}

func (m *MemoryCutPays) UpdateCutPay(_ context.Context, cp *payroll.CutPay) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[cp.ID]; !ok {
		return fmt.Errorf("cut pay %s: %w", cp.ID, engine.ErrInvalidCutPayRequest)
	}
	c := *cp
	m.byID[cp.ID] = &c
	return nil
}

func (m *MemoryCutPays) ListCutPays(_ context.Context, periodID engine.PayPeriodID) ([]*payroll.CutPay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*payroll.CutPay
	for _, cp := range m.byID {
		if cp.PayPeriodID == periodID {
			c := *cp
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// =============================================================================
// MEMORY AUDIT LOG - Append-only
// =============================================================================

type MemoryAuditLog struct {
	mu      sync.Mutex
	entries []payroll.AuditEntry
}

func NewMemoryAuditLog() *MemoryAuditLog {
	return &MemoryAuditLog{}
}

func (m *MemoryAuditLog) Append(_ context.Context, entry payroll.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MemoryAuditLog) ByTripPay(_ context.Context, id engine.TripPayID) ([]payroll.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []payroll.AuditEntry
	for _, e := range m.entries {
		if e.TripPayID == id {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *MemoryAuditLog) ByPeriod(_ context.Context, id engine.PayPeriodID) ([]payroll.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []payroll.AuditEntry
	for _, e := range m.entries {
		if e.PeriodID == id {
			result = append(result, e)
		}
	}
	return result, nil
}
